// Package env implements the compiler's nested symbol table:
// an ordered list of scope frames, a parent-stack for nested type
// declarations, and where-clause tracking for generic type parameters.
package env

import (
	"fmt"

	"github.com/angellang/angelc/internal/ast"
	"github.com/angellang/angelc/internal/types"
)

// DeclKind distinguishes `let` (constant) from `var` (variable) bindings.
type DeclKind int

const (
	Constant DeclKind = iota
	Variable
)

// DeclEntry is a let/var binding.
type DeclEntry struct {
	Kind      DeclKind
	Line      int
	Type      types.Type
	Expr      ast.Expr    // source initializer, nil if none
	Estimated interface{} // estimator.Value, kept opaque to avoid a cycle
	HasValue  bool
}

// FunctionEntry is a function or method.
type FunctionEntry struct {
	Sig      *types.FunctionType
	Body     []ast.Stmt
	Where    []ast.Expr
	SavedEnv *Env // snapshot at declaration time
	IsMethod bool
}

// InitEntry is a struct's `init` declaration.
type InitEntry struct {
	Params   []ast.Param
	Body     []ast.Stmt
	SavedEnv *Env
}

// StructEntry is a registered struct type. Inits holds every `init`
// declaration in source order (init matching tries them in this order,
// first match wins); a struct with no programmer-written
// init gets the synthesized default constructor appended by the analyzer.
// Methods keeps the analyzed bodies keyed by method name, so the estimator
// can evaluate a dispatched special method (`__eq__`, `__add__`, ...) at
// compile time.
type StructEntry struct {
	Type    *types.StructType
	Inits   []*InitEntry
	Methods map[string]*FunctionEntry
}

// AlgebraicEntry is a registered algebraic type: its constructors (each a
// StructEntry one level deeper in the parent stack) plus shared methods.
type AlgebraicEntry struct {
	Type         *types.AlgebraicType
	Constructors map[string]*StructEntry
	Methods      map[string]*FunctionEntry
}

// InterfaceEntry is a registered interface, with inherited members resolved
// transitively at declaration time; the computation is order-independent
// and idempotent.
type InterfaceEntry struct {
	Name             string
	Parents          []string
	Fields           map[string]types.Type
	Methods          map[string]*types.FunctionType
	InheritedFields  map[string]InheritedField
	InheritedMethods map[string]InheritedMethod
}

// InheritedField/InheritedMethod record the origin interface for provenance
// in conformance-check diagnostics.
type InheritedField struct {
	Type   types.Type
	Origin string
}
type InheritedMethod struct {
	Sig    *types.FunctionType
	Origin string
}

// ParameterEntry is a generic type parameter, with its interfaces/fields/
// methods derived from the active where-clauses at the point it is bound
// (see ParameterEntry extraction in internal/analyzer).
type ParameterEntry struct {
	Name       string
	Interfaces []types.Builtin
	Fields     map[string]types.Type
	Methods    map[string]*types.FunctionType
}

// Entry is the closed set of things a scope frame can bind a name to.
type Entry interface {
	entryNode()
}

func (*DeclEntry) entryNode()      {}
func (*FunctionEntry) entryNode()  {}
func (*InitEntry) entryNode()      {}
func (*StructEntry) entryNode()    {}
func (*AlgebraicEntry) entryNode() {}
func (*InterfaceEntry) entryNode() {}
func (*ParameterEntry) entryNode() {}

// frame is one lexical scope level.
type frame struct {
	members map[string]Entry
}

func newFrame() *frame { return &frame{members: make(map[string]Entry)} }

// Env is a compilation session's environment: a stack of scope frames, a
// parallel parent-name stack for nested type declarations, and a stack of
// active where-clause conjunctions.
type Env struct {
	frames      []*frame
	parentStack []string
	whereStack  [][]ast.Expr
}

// New creates an environment with a single (global) scope.
func New() *Env {
	return &Env{frames: []*frame{newFrame()}}
}

// Snapshot returns a copy of the frame stack that shares the frame objects
// themselves; used to capture a function's saved environment at
// declaration time. Later Push/Pop on the live Env do not change which
// frames the snapshot sees, but bindings added afterwards to a shared frame
// are visible through it.
func (e *Env) Snapshot() *Env {
	frames := make([]*frame, len(e.frames))
	copy(frames, e.frames)
	return &Env{frames: frames}
}

// Push enters a new lexical scope.
func (e *Env) Push() { e.frames = append(e.frames, newFrame()) }

// Pop exits the innermost lexical scope.
func (e *Env) Pop() {
	if len(e.frames) == 0 {
		panic("env: Pop on empty frame stack")
	}
	e.frames = e.frames[:len(e.frames)-1]
}

// PushParent pushes a type name onto the parent stack on entering its
// declaration (struct/algebraic/interface body).
func (e *Env) PushParent(name string) { e.parentStack = append(e.parentStack, name) }

// PopParent pops the parent stack on leaving a type declaration.
func (e *Env) PopParent() {
	if len(e.parentStack) == 0 {
		panic("env: PopParent on empty parent stack")
	}
	e.parentStack = e.parentStack[:len(e.parentStack)-1]
}

// CurrentParent returns the innermost type name on the parent stack, or ""
// if none is active.
func (e *Env) CurrentParent() string {
	if len(e.parentStack) == 0 {
		return ""
	}
	return e.parentStack[len(e.parentStack)-1]
}

// ParentChain returns Parents[0]...Parents[n], outermost first, used to
// resolve where a field/method/init addition targets (algebraic constructor
// nesting walks this chain).
func (e *Env) ParentChain() []string {
	out := make([]string, len(e.parentStack))
	copy(out, e.parentStack)
	return out
}

// PushWhere activates a conjunction of `X is I` clauses for the lexical
// extent of a generic declaration's body.
func (e *Env) PushWhere(clauses []ast.Expr) { e.whereStack = append(e.whereStack, clauses) }

// PopWhere deactivates the innermost where-clause conjunction.
func (e *Env) PopWhere() {
	if len(e.whereStack) == 0 {
		return
	}
	e.whereStack = e.whereStack[:len(e.whereStack)-1]
}

// ActiveWhereClauses returns every clause conjunction currently in effect,
// outermost first.
func (e *Env) ActiveWhereClauses() [][]ast.Expr {
	out := make([][]ast.Expr, len(e.whereStack))
	copy(out, e.whereStack)
	return out
}

// NotFoundError reports a lookup miss.
type NotFoundError struct{ Name string }

func (err *NotFoundError) Error() string { return fmt.Sprintf("name %q is not declared", err.Name) }

// Get looks up a name starting at the innermost frame; absence is an
// error, not a nil entry.
func (e *Env) Get(name string) (Entry, error) {
	for i := len(e.frames) - 1; i >= 0; i-- {
		if ent, ok := e.frames[i].members[name]; ok {
			return ent, nil
		}
	}
	return nil, &NotFoundError{Name: name}
}

// GetName resolves a clarified *ast.Name: its (possibly mangled) member
// first, then the unmangled spelling. Type and function declarations are
// registered under their declaration-site names, which the clarifier does
// not mangle, while value-position references to them are; the fallback
// bridges the two the same way the original resolves
// `fields.get(name, fields.get(mangle(name)))` pairs.
func (e *Env) GetName(n *ast.Name) (Entry, error) {
	ent, err := e.Get(n.Member)
	if err != nil && n.Unmangled != "" && n.Unmangled != n.Member {
		if fallback, ferr := e.Get(n.Unmangled); ferr == nil {
			return fallback, nil
		}
	}
	return ent, err
}

// Lookup is Get without the error, for callers that only need existence.
func (e *Env) Lookup(name string) (Entry, bool) {
	ent, err := e.Get(name)
	return ent, err == nil
}

// bind installs an entry in the innermost frame.
func (e *Env) bind(name string, ent Entry) {
	e.frames[len(e.frames)-1].members[name] = ent
}

// AddConstant registers a `let` binding.
func (e *Env) AddConstant(name string, line int, typ types.Type, expr ast.Expr) *DeclEntry {
	ent := &DeclEntry{Kind: Constant, Line: line, Type: typ, Expr: expr, HasValue: expr != nil}
	e.bind(name, ent)
	return ent
}

// AddVariable registers a `var` binding.
func (e *Env) AddVariable(name string, line int, typ types.Type, expr ast.Expr) *DeclEntry {
	ent := &DeclEntry{Kind: Variable, Line: line, Type: typ, Expr: expr, HasValue: expr != nil}
	e.bind(name, ent)
	return ent
}

// ErrConstantReassignment signals a constant's HasValue flag flipping
// false->true more than once.
var ErrConstantReassignment = fmt.Errorf("constant already has a value")

// SetValue transitions a DeclEntry's HasValue flag false->true exactly
// once; a second transition is an error.
func (d *DeclEntry) SetValue(estimated interface{}) error {
	if d.HasValue {
		return ErrConstantReassignment
	}
	d.HasValue = true
	d.Estimated = estimated
	return nil
}

// AddFunction registers a top-level function.
func (e *Env) AddFunction(name string, ent *FunctionEntry) { e.bind(name, ent) }

// UpdateFunctionBody fills in a previously-registered stub's body, per the
// analyzer's register-stub, analyze-body, then-attach lifecycle.
func (e *Env) UpdateFunctionBody(name string, body []ast.Stmt) error {
	ent, err := e.Get(name)
	if err != nil {
		return err
	}
	fn, ok := ent.(*FunctionEntry)
	if !ok {
		return fmt.Errorf("%q is not a function", name)
	}
	fn.Body = body
	return nil
}

// AddInit appends an `init` declaration to its owning struct, preserving
// source order.
func (e *Env) AddInit(se *StructEntry, ent *InitEntry) {
	se.Inits = append(se.Inits, ent)
}

// AddStruct registers a struct type under the current scope.
func (e *Env) AddStruct(name string, st *types.StructType) *StructEntry {
	ent := &StructEntry{Type: st, Methods: make(map[string]*FunctionEntry)}
	e.bind(name, ent)
	return ent
}

// AddAlgebraic registers an algebraic type under the current scope.
func (e *Env) AddAlgebraic(name string, at *types.AlgebraicType) *AlgebraicEntry {
	ent := &AlgebraicEntry{
		Type:         at,
		Constructors: make(map[string]*StructEntry),
		Methods:      make(map[string]*FunctionEntry),
	}
	e.bind(name, ent)
	return ent
}

// AddAlgebraicConstructor registers a nested constructor struct one scope
// deeper than the algebraic type itself.
func (e *Env) AddAlgebraicConstructor(algebraic *AlgebraicEntry, ctorName string, st *types.StructType) {
	algebraic.Constructors[ctorName] = &StructEntry{Type: st}
}

// AddInterface registers an interface, computing the inherited-member
// closure over its parents. parentLookup resolves a parent interface name
// to its already-registered InterfaceEntry (parents must be declared
// first, or be a builtin interface name with no entry, in which case it is
// skipped - builtin parents contribute only to the subtype lattice).
func (e *Env) AddInterface(name string, parents []string, fields map[string]types.Type, methods map[string]*types.FunctionType, parentLookup func(string) (*InterfaceEntry, bool)) *InterfaceEntry {
	ent := &InterfaceEntry{
		Name:             name,
		Parents:          parents,
		Fields:           fields,
		Methods:          methods,
		InheritedFields:  map[string]InheritedField{},
		InheritedMethods: map[string]InheritedMethod{},
	}
	for _, p := range parents {
		parent, ok := parentLookup(p)
		if !ok {
			continue
		}
		for fname, ftyp := range parent.Fields {
			if _, exists := ent.InheritedFields[fname]; !exists {
				ent.InheritedFields[fname] = InheritedField{Type: ftyp, Origin: p}
			}
		}
		for fname, inh := range parent.InheritedFields {
			if _, exists := ent.InheritedFields[fname]; !exists {
				ent.InheritedFields[fname] = inh
			}
		}
		for mname, msig := range parent.Methods {
			if _, exists := ent.InheritedMethods[mname]; !exists {
				ent.InheritedMethods[mname] = InheritedMethod{Sig: msig, Origin: p}
			}
		}
		for mname, inh := range parent.InheritedMethods {
			if _, exists := ent.InheritedMethods[mname]; !exists {
				ent.InheritedMethods[mname] = inh
			}
		}
	}
	e.bind(name, ent)
	return ent
}

// AddParameter registers a generic type parameter, deriving its allowed
// interfaces/fields/methods from every active where-clause that constrains
// it.
func (e *Env) AddParameter(name string, extract func(param string, clauses [][]ast.Expr) *ParameterEntry) *ParameterEntry {
	ent := extract(name, e.ActiveWhereClauses())
	e.bind(name, ent)
	return ent
}

// GetAlgebraic resolves a name to an AlgebraicEntry, optionally selecting a
// constructor by name.
func (e *Env) GetAlgebraic(name string, ctor string) (*AlgebraicEntry, error) {
	ent, err := e.Get(name)
	if err != nil {
		return nil, err
	}
	alg, ok := ent.(*AlgebraicEntry)
	if !ok {
		return nil, fmt.Errorf("%q is not an algebraic type", name)
	}
	if ctor != "" {
		if _, ok := alg.Constructors[ctor]; !ok {
			return nil, fmt.Errorf("algebraic type %q has no constructor %q", name, ctor)
		}
	}
	return alg, nil
}
