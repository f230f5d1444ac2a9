// Package checker implements the bidirectional type checker:
// InferType/UnifyTypes over the closed type algebra, subtyping lattice,
// template-variable unification, parameter substitution, and where-clause
// evaluation (via the estimator).
package checker

import (
	"github.com/angellang/angelc/internal/ast"
	"github.com/angellang/angelc/internal/env"
	"github.com/angellang/angelc/internal/estimator"
	"github.com/angellang/angelc/internal/types"
)

// Mapping is the parameter-name -> type dictionary that accumulates during
// unification.
type Mapping map[string]types.Type

// Clone returns a shallow copy so callers can extend it without mutating
// the caller's view. UnifyTypes writes new parameter bindings into the
// mapping it is given (allocating one only when it is nil), so callers that
// need isolation Clone first.
func (m Mapping) Clone() Mapping {
	cp := make(Mapping, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

// Checker is the type checker. It holds the central template-variable
// slot table and a back-reference to the paired Estimator (the two are
// constructed together).
type Checker struct {
	slots          []types.Type // nil entry = unresolved
	est            *estimator.Estimator
	instantiations map[string][]types.Type
}

// New constructs a Checker paired with est and completes the mutual
// back-reference by calling est.SetChecker(c).
func New(est *estimator.Estimator) *Checker {
	c := &Checker{est: est, instantiations: map[string][]types.Type{}}
	est.SetChecker(c)
	return c
}

// FreshTemplate allocates a new unification variable.
func (c *Checker) FreshTemplate() *types.TemplateType {
	c.slots = append(c.slots, nil)
	return &types.TemplateType{ID: len(c.slots) - 1}
}

// resolve returns the slot's current binding, or (nil, false) if empty.
func (c *Checker) resolve(id int) (types.Type, bool) {
	if id < 0 || id >= len(c.slots) || c.slots[id] == nil {
		return nil, false
	}
	return c.slots[id], true
}

// bind narrows a slot from empty to t. Binding an already-bound slot to a
// different type is a TypeError, never a silent rebind; binding it again to an equal type is a no-op.
func (c *Checker) bind(pos ast.Pos, id int, t types.Type) error {
	cur, has := c.resolve(id)
	if !has {
		c.slots[id] = t
		return nil
	}
	if types.Equal(cur, t) {
		return nil
	}
	return &Error{Kind: TypeError, Pos: pos, Message: "template slot already resolved to a different type", Expected: cur, Actual: t}
}

// ApplyMapping recursively substitutes parameter names found in a mapping.
func ApplyMapping(t types.Type, m Mapping) types.Type {
	switch x := t.(type) {
	case *types.Name:
		if sub, ok := m[x.Member]; ok {
			return sub
		}
		return t
	case *types.VectorType:
		return &types.VectorType{Elem: ApplyMapping(x.Elem, m)}
	case *types.DictType:
		return &types.DictType{Key: ApplyMapping(x.Key, m), Val: ApplyMapping(x.Val, m)}
	case *types.OptionalType:
		return &types.OptionalType{Elem: ApplyMapping(x.Elem, m)}
	case *types.RefType:
		return &types.RefType{Elem: ApplyMapping(x.Elem, m)}
	case *types.IterableType:
		return &types.IterableType{Elem: ApplyMapping(x.Elem, m)}
	case *types.GenericType:
		args := make([]types.Type, len(x.Args))
		for i, a := range x.Args {
			args[i] = ApplyMapping(a, m)
		}
		return &types.GenericType{Base: x.Base, Args: args}
	case *types.FunctionType:
		params := make([]types.Arg, len(x.Params))
		for i, p := range x.Params {
			params[i] = types.Arg{Name: p.Name, Type: ApplyMapping(p.Type, m), Default: p.Default}
		}
		return &types.FunctionType{TypeParams: x.TypeParams, Params: params, Return: ApplyMapping(x.Return, m), Where: x.Where, Env: x.Env}
	default:
		return t
	}
}

// Resolver is the environment surface the checker needs to resolve named
// types to their declarations (struct/algebraic/interface/parameter
// entries). *env.Env satisfies it directly through its Get method.
type Resolver interface {
	Get(name string) (env.Entry, error)
}

// DumpInstantiations exposes which concrete type arguments were selected
// for each generic callee this session, for tooling and tests.
func (c *Checker) DumpInstantiations() map[string][]types.Type { return c.instantiations }

func (c *Checker) recordInstantiation(name string, args []types.Type) {
	c.instantiations[name] = args
}

// InferLiteralType satisfies estimator.Checker: the concrete type a literal
// would be typed as with no supertype constraint.
func (c *Checker) InferLiteralType(lit *ast.Literal) (types.Type, error) {
	t, _, err := c.InferType(lit, nil, nil, nil)
	return t, err
}

// LookupStructFields satisfies estimator.Checker.
func (c *Checker) LookupStructFields(typeName string) ([]string, error) {
	return nil, nil // populated lazily by the analyzer via the environment; not needed for estimator folding today
}

// ResolveType turns a written ast.TypeExpr into a checked types.Type,
// resolving named types against e. Exported for internal/analyzer, which
// needs it for declaration annotations, field/param/return types, and
// interface member signatures ahead of any expression to infer against.
func (c *Checker) ResolveType(te ast.TypeExpr, e *env.Env) (types.Type, error) {
	return c.resolveTypeExpr0(te, e)
}
