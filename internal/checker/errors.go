package checker

import (
	"fmt"

	"github.com/angellang/angelc/internal/ast"
	"github.com/angellang/angelc/internal/types"
)

// Kind is the closed taxonomy of analysis/checking errors.
type Kind string

const (
	TypeError                            Kind = "TypeError"
	NameError                            Kind = "NameError"
	FieldError                           Kind = "FieldError"
	ConstructorError                     Kind = "ConstructorError"
	SubscriptError                       Kind = "SubscriptError"
	WrongArguments                       Kind = "WrongArguments"
	NoncallableCall                      Kind = "NoncallableCall"
	UnsatisfiedWhereClause               Kind = "UnsatisfiedWhereClause"
	ConstantReassignment                 Kind = "ConstantReassignment"
	PrivateFieldsNotInitializedAndNoInit Kind = "PrivateFieldsNotInitializedAndNoInit"
	MissingInterfaceMember               Kind = "MissingInterfaceMember"
	InterfaceFieldError                  Kind = "InterfaceFieldError"
	InterfaceMethodError                 Kind = "InterfaceMethodError"
	DivByZero                            Kind = "DivByZero"
	SyntaxErrorKind                      Kind = "SyntaxError"
)

// Error is a checker-facing diagnostic. It carries enough context for
// internal/diag to pretty-print a multi-line diagnostic: headline,
// elaboration, source excerpt, optional suggestion.
type Error struct {
	Kind       Kind
	Pos        ast.Pos
	Message    string
	Expected   types.Type
	Actual     types.Type
	Candidates []string // e.g. WrongArguments' union of candidate arg lists
	Attempted  string   // WrongArguments: the actual call rendered the same way as Candidates
	Member     string   // field/method/interface name, where applicable
	Origin     string   // e.g. the inheriting interface, for provenance
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Expected != nil && e.Actual != nil {
		msg += fmt.Sprintf(" (expected %s, got %s)", e.Expected, e.Actual)
	}
	return msg
}

func newErr(kind Kind, pos ast.Pos, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Pos: pos, Message: fmt.Sprintf(format, args...)}
}
