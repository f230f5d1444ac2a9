package checker

import (
	"github.com/angellang/angelc/internal/ast"
	"github.com/angellang/angelc/internal/env"
	"github.com/angellang/angelc/internal/types"
)

// isBuiltinType reports whether t is one of the built-in scalar types,
// used by Cast inference to tell a builtin-to-builtin
// conversion from a user-defined ConvertibleToIx method reaching a
// builtin target.
func isBuiltinType(t types.Type) bool {
	_, ok := t.(*types.BuiltinType)
	return ok
}

// isBuiltinSubtype walks the hard-coded Supertypes table.
func isBuiltinSubtype(sub, super types.Builtin) bool {
	if sub == super {
		return true
	}
	for _, s := range types.Supertypes[sub] {
		if s == super {
			return true
		}
	}
	return false
}

// UnifyTypes is a total (sub, super) dispatch: every ordered pair
// either succeeds (returning the lattice's least upper bound and an
// updated mapping) or raises TypeError.
func (c *Checker) UnifyTypes(pos ast.Pos, sub, super types.Type, e *env.Env, mapping Mapping) (types.Type, Mapping, error) {
	if mapping == nil {
		mapping = Mapping{}
	}
	sub = c.normalize(sub, e, mapping)
	super = c.normalize(super, e, mapping)

	// TemplateType on either side: fill the empty slot, or recurse into
	// whatever already fills it.
	if st, ok := sub.(*types.TemplateType); ok {
		if bound, has := c.resolve(st.ID); has {
			return c.UnifyTypes(pos, bound, super, e, mapping)
		}
		if superT, ok := super.(*types.TemplateType); ok {
			if boundS, has := c.resolve(superT.ID); has {
				return c.UnifyTypes(pos, sub, boundS, e, mapping)
			}
		}
		if err := c.bind(pos, st.ID, super); err != nil {
			return nil, mapping, err
		}
		return super, mapping, nil
	}
	if superT, ok := super.(*types.TemplateType); ok {
		if bound, has := c.resolve(superT.ID); has {
			return c.UnifyTypes(pos, sub, bound, e, mapping)
		}
		if err := c.bind(pos, superT.ID, sub); err != nil {
			return nil, mapping, err
		}
		return sub, mapping, nil
	}

	// Named type resolving to a ParameterEntry: consult/extend mapping.
	if subName, ok := sub.(*types.Name); ok {
		if bound, has := mapping[subName.Member]; has {
			return c.UnifyTypes(pos, bound, super, e, mapping)
		}
		if isParameter(e, subName.Member) {
			mapping[subName.Member] = super
			return super, mapping, nil
		}
	}
	if superName, ok := super.(*types.Name); ok {
		if bound, has := mapping[superName.Member]; has {
			return c.UnifyTypes(pos, sub, bound, e, mapping)
		}
		if isParameter(e, superName.Member) {
			mapping[superName.Member] = sub
			return sub, mapping, nil
		}
	}

	switch subT := sub.(type) {
	case *types.BuiltinType:
		// String iterates as Chars, so it unifies against Iterable<Char>.
		if subT.Name == types.StringT {
			if superIter, ok := super.(*types.IterableType); ok {
				if _, m2, err := c.UnifyTypes(pos, &types.BuiltinType{Name: types.CharT}, superIter.Elem, e, mapping); err == nil {
					return sub, m2, nil
				}
				return nil, mapping, typeError(pos, sub, super)
			}
		}
		superT, ok := super.(*types.BuiltinType)
		if !ok {
			return nil, mapping, typeError(pos, sub, super)
		}
		if isBuiltinSubtype(subT.Name, superT.Name) {
			return super, mapping, nil
		}
		if isBuiltinSubtype(superT.Name, subT.Name) {
			return sub, mapping, nil
		}
		return nil, mapping, typeError(pos, sub, super)

	case *types.VectorType:
		switch superT := super.(type) {
		case *types.VectorType:
			elem, m2, err := c.UnifyTypes(pos, subT.Elem, superT.Elem, e, mapping)
			if err != nil {
				return nil, mapping, err
			}
			return &types.VectorType{Elem: elem}, m2, nil
		case *types.IterableType:
			elem, m2, err := c.UnifyTypes(pos, subT.Elem, superT.Elem, e, mapping)
			if err != nil {
				return nil, mapping, err
			}
			return &types.VectorType{Elem: elem}, m2, nil
		case *types.BuiltinType:
			if superT.Name == types.ConvertibleToString {
				return sub, mapping, nil
			}
		}
		return nil, mapping, typeError(pos, sub, super)

	case *types.DictType:
		superT, ok := super.(*types.DictType)
		if ok {
			k, m2, err := c.UnifyTypes(pos, subT.Key, superT.Key, e, mapping)
			if err != nil {
				return nil, mapping, err
			}
			v, m3, err := c.UnifyTypes(pos, subT.Val, superT.Val, e, m2)
			if err != nil {
				return nil, mapping, err
			}
			return &types.DictType{Key: k, Val: v}, m3, nil
		}
		if bt, ok := super.(*types.BuiltinType); ok && bt.Name == types.ConvertibleToString {
			return sub, mapping, nil
		}
		return nil, mapping, typeError(pos, sub, super)

	case *types.OptionalType:
		superT, ok := super.(*types.OptionalType)
		if !ok {
			return nil, mapping, typeError(pos, sub, super)
		}
		elem, m2, err := c.UnifyTypes(pos, subT.Elem, superT.Elem, e, mapping)
		if err != nil {
			return nil, mapping, err
		}
		return &types.OptionalType{Elem: elem}, m2, nil

	case *types.RefType:
		superT, ok := super.(*types.RefType)
		if !ok {
			return nil, mapping, typeError(pos, sub, super)
		}
		elem, m2, err := c.UnifyTypes(pos, subT.Elem, superT.Elem, e, mapping)
		if err != nil {
			return nil, mapping, err
		}
		return &types.RefType{Elem: elem}, m2, nil

	case *types.Name:
		return c.unifyNamed(pos, subT, super, e, mapping)

	case *types.StructType:
		return c.unifyNamed(pos, &types.Name{Member: subT.Name}, super, e, mapping)

	case *types.AlgebraicType:
		return c.unifyNamed(pos, &types.Name{Member: subT.Name}, super, e, mapping)

	case *types.GenericType:
		superT, ok := super.(*types.GenericType)
		if !ok || len(subT.Args) != len(superT.Args) {
			return nil, mapping, typeError(pos, sub, super)
		}
		args := make([]types.Type, len(subT.Args))
		m := mapping
		for i := range subT.Args {
			a, m2, err := c.UnifyTypes(pos, subT.Args[i], superT.Args[i], e, m)
			if err != nil {
				return nil, mapping, err
			}
			args[i] = a
			m = m2
		}
		return &types.GenericType{Base: subT.Base, Args: args}, m, nil

	case *types.FunctionType:
		superT, ok := super.(*types.FunctionType)
		if !ok || len(subT.Params) != len(superT.Params) {
			return nil, mapping, typeError(pos, sub, super)
		}
		m := mapping
		for i := range subT.Params {
			_, m2, err := c.UnifyTypes(pos, subT.Params[i].Type, superT.Params[i].Type, e, m)
			if err != nil {
				return nil, mapping, err
			}
			m = m2
		}
		ret, m3, err := c.UnifyTypes(pos, subT.Return, superT.Return, e, m)
		if err != nil {
			return nil, mapping, err
		}
		return &types.FunctionType{Params: subT.Params, Return: ret}, m3, nil

	default:
		return nil, mapping, typeError(pos, sub, super)
	}
}

// unifyNamed handles a named (struct/algebraic) subtype against any
// supertype: structural identity for named<->named, and "Object" (and any
// interface in ImplementedInterfaces, transitively) on the builtin side.
func (c *Checker) unifyNamed(pos ast.Pos, subT *types.Name, super types.Type, e *env.Env, mapping Mapping) (types.Type, Mapping, error) {
	if superName, ok := super.(*types.Name); ok {
		if subT.Module == superName.Module && subT.Member == superName.Member {
			return super, mapping, nil
		}
		// A struct/algebraic type is also a subtype of any user-declared
		// interface it records as implemented (conformance is verified at
		// declaration time by the analyzer),
		// distinct from the builtin-interface case handled below.
		for _, n := range implementedNames(e, subT.Member) {
			if n == superName.Member {
				return subT, mapping, nil
			}
		}
		return nil, mapping, typeError(pos, subT, super)
	}
	if superB, ok := super.(*types.BuiltinType); ok {
		if superB.Name == types.Object {
			return subT, mapping, nil
		}
		if types.SatisfiesBuiltin(implementedInterfaces(e, subT.Member), superB.Name) {
			return subT, mapping, nil
		}
	}
	return nil, mapping, typeError(pos, subT, super)
}

func implementedInterfaces(e *env.Env, name string) []types.Builtin {
	if e == nil {
		return nil
	}
	ent, err := e.Get(name)
	if err != nil {
		return nil
	}
	switch x := ent.(type) {
	case *env.StructEntry:
		return x.Type.ImplementedInterfaces
	case *env.AlgebraicEntry:
		return x.Type.ImplementedInterfaces
	case *env.ParameterEntry:
		return x.Interfaces
	default:
		return nil
	}
}

func implementedNames(e *env.Env, name string) []string {
	if e == nil {
		return nil
	}
	ent, err := e.Get(name)
	if err != nil {
		return nil
	}
	switch x := ent.(type) {
	case *env.StructEntry:
		return x.Type.ImplementedNames
	case *env.AlgebraicEntry:
		return x.Type.ImplementedNames
	default:
		return nil
	}
}

func isParameter(e *env.Env, name string) bool {
	if e == nil {
		return false
	}
	ent, err := e.Get(name)
	if err != nil {
		return false
	}
	_, ok := ent.(*env.ParameterEntry)
	return ok
}

// normalize applies any mapping substitution to a `Name` that turns out to
// be bound, so equality/lattice checks below see the concrete type.
func (c *Checker) normalize(t types.Type, e *env.Env, mapping Mapping) types.Type {
	if n, ok := t.(*types.Name); ok {
		if bound, has := mapping[n.Member]; has {
			return bound
		}
	}
	return t
}

func typeError(pos ast.Pos, sub, super types.Type) *Error {
	return &Error{Kind: TypeError, Pos: pos, Message: "type mismatch", Expected: super, Actual: sub}
}
