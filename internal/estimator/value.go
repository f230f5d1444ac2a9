// Package estimator implements the compile-time partial evaluator: given
// an AST and the current environment it produces either a
// concrete estimated Value or nothing (for pure side-effect statements).
// It is consumed by the type checker (where-clause evaluation, literal-
// driven type selection) and by the REPL.
package estimator

import (
	"fmt"

	"github.com/angellang/angelc/internal/ast"
	"github.com/angellang/angelc/internal/types"
)

// Value is the closed set of estimated values.
type Value interface {
	valueNode()
}

type VoidValue struct{}

func (VoidValue) valueNode() {}

type StringValue struct{ V string }

func (StringValue) valueNode() {}

type CharValue struct{ V rune }

func (CharValue) valueNode() {}

// IntValue carries both the numeric value and its concrete integer type,
// since arithmetic re-infers the result type from the numeric value.
type IntValue struct {
	V    int64
	Type types.Builtin
}

func (IntValue) valueNode() {}

type FloatValue struct {
	V    float64
	Type types.Builtin
}

func (FloatValue) valueNode() {}

type BoolValue struct{ V bool }

func (BoolValue) valueNode() {}

type VectorValue struct {
	Elems []Value
	Elem  types.Type
}

func (VectorValue) valueNode() {}

type DictValue struct {
	Pairs []DictEntry
	Key   types.Type
	Val   types.Type
}

type DictEntry struct{ Key, Val Value }

func (DictValue) valueNode() {}

// InstanceValue is an estimated struct instance: its type name and the
// estimated value of every field.
type InstanceValue struct {
	TypeName string
	Fields   map[string]Value
}

func (InstanceValue) valueNode() {}

// AlgebraicConstructorValue is an unapplied constructor reference, e.g. the
// callable `Option.Some` before it is invoked.
type AlgebraicConstructorValue struct {
	TypeName string
	Ctor     string
}

func (AlgebraicConstructorValue) valueNode() {}

// AlgebraicConstructorInstanceValue is an applied constructor: an instance
// of a specific constructor's fields.
type AlgebraicConstructorInstanceValue struct {
	TypeName string
	Ctor     string
	Fields   map[string]Value
}

func (AlgebraicConstructorInstanceValue) valueNode() {}

// StructValue is a callable reference to a struct's constructor.
type StructValue struct{ Name string }

func (StructValue) valueNode() {}

// AlgebraicValue is a callable reference to an algebraic type's namespace
// (e.g. naming `Option` before `.Some`/`.None` selects a constructor).
type AlgebraicValue struct{ Name string }

func (AlgebraicValue) valueNode() {}

// OptionalKind distinguishes Some/None without requiring a payload.
type OptionalKind int

const (
	OptSome OptionalKind = iota
	OptNone
)

// OptionalConstructorValue is the bare `Optional.Some`/`Optional.None`
// reference before application.
type OptionalConstructorValue struct{ Kind OptionalKind }

func (OptionalConstructorValue) valueNode() {}

// OptionalSomeCallValue is `Optional.Some(inner)` estimated.
type OptionalSomeCallValue struct{ Inner Value }

func (OptionalSomeCallValue) valueNode() {}

// RefValue is an estimated `ref e` cell: its current value and the source
// expression that produced it (so a later `while`-loop re-read can
// re-estimate it).
type RefValue struct {
	Current     Value
	InitialExpr ast.Expr
}

func (*RefValue) valueNode() {}

// FunctionValue is a callable: either a Go-native callable (builtins) or a
// body plus the environment captured at declaration time. Params carries
// the formal parameter names in declaration order so a call can bind its
// arguments; HasSelf marks a method whose first argument is the receiver.
type FunctionValue struct {
	Native   func(args []Value) (Value, error)
	Body     []ast.Stmt
	Params   []string
	SavedEnv interface{} // *env.Env, opaque to avoid an import cycle
	HasSelf  bool
	SelfType types.Type // non-nil for bound methods
}

func (FunctionValue) valueNode() {}

// DynamicValue represents a value whose runtime identity is unknown but
// whose type is (e.g. the result of the `read` builtin).
type DynamicValue struct{ Type types.Type }

func (DynamicValue) valueNode() {}

// BreakValue signals a `break` statement was estimated.
type BreakValue struct{}

func (BreakValue) valueNode() {}

// TypeOf returns the checked Type corresponding to an estimated Value,
// used inside the estimator when folding vector/dict literals and binary
// operations.
func TypeOf(v Value) (types.Type, error) {
	switch x := v.(type) {
	case VoidValue:
		return &types.BuiltinType{Name: types.VoidT}, nil
	case StringValue:
		return &types.BuiltinType{Name: types.StringT}, nil
	case CharValue:
		return &types.BuiltinType{Name: types.CharT}, nil
	case IntValue:
		return &types.BuiltinType{Name: x.Type}, nil
	case FloatValue:
		return &types.BuiltinType{Name: x.Type}, nil
	case BoolValue:
		return &types.BuiltinType{Name: types.BoolT}, nil
	case VectorValue:
		return &types.VectorType{Elem: x.Elem}, nil
	case DictValue:
		return &types.DictType{Key: x.Key, Val: x.Val}, nil
	case InstanceValue:
		return &types.Name{Member: x.TypeName}, nil
	case DynamicValue:
		return x.Type, nil
	case *RefValue:
		t, err := TypeOf(x.Current)
		if err != nil {
			return nil, err
		}
		return &types.RefType{Elem: t}, nil
	case OptionalConstructorValue, OptionalSomeCallValue:
		return nil, fmt.Errorf("optional value has no standalone type without a target")
	default:
		return nil, fmt.Errorf("estimator: no static type for value %T", v)
	}
}
