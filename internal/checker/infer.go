package checker

import (
	"strconv"

	"github.com/angellang/angelc/internal/ast"
	"github.com/angellang/angelc/internal/env"
	"github.com/angellang/angelc/internal/types"
)

// InferType infers expr's type, optionally checking it against a caller-
// supplied supertype. supertype and mapping may be nil.
func (c *Checker) InferType(expr ast.Expr, e *env.Env, supertype types.Type, mapping Mapping) (types.Type, Mapping, error) {
	if mapping == nil {
		mapping = Mapping{}
	}
	switch x := expr.(type) {
	case *ast.Literal:
		return c.inferLiteral(x, e, supertype, mapping)
	case *ast.Name:
		t, err := c.inferName(x, e)
		if err != nil {
			return nil, mapping, err
		}
		return c.finish(x.Pos, t, e, supertype, mapping)
	case *ast.SpecialName:
		ent, err := e.Get("self")
		if err != nil {
			return nil, mapping, &Error{Kind: NameError, Pos: x.Pos, Message: "self is not bound here"}
		}
		d := ent.(*env.DeclEntry)
		return c.finish(x.Pos, d.Type, e, supertype, mapping)
	case *ast.Parentheses:
		return c.InferType(x.Inner, e, supertype, mapping)
	case *ast.Ref:
		inner, m2, err := c.InferType(x.Value, e, nil, mapping)
		if err != nil {
			return nil, mapping, err
		}
		return c.finish(x.Pos, &types.RefType{Elem: inner}, e, supertype, m2)
	case *ast.Field:
		return c.inferField(x, e, supertype, mapping)
	case *ast.Subscript:
		return c.inferSubscript(x, e, supertype, mapping)
	case *ast.BinaryExpression:
		return c.inferBinary(x, e, supertype, mapping)
	case *ast.Cast:
		return c.inferCast(x, e, mapping)
	case *ast.FunctionCall:
		return c.inferCall(x, e, supertype, mapping)
	case *ast.MethodCall:
		return c.inferMethodCall(x, e, supertype, mapping)
	case *ast.OptionalSomeCall:
		inner, m2, err := c.InferType(x.Arg, e, nil, mapping)
		if err != nil {
			return nil, mapping, err
		}
		return c.finish(x.Pos, &types.OptionalType{Elem: inner}, e, supertype, m2)
	case *ast.OptionalSomeValue:
		base, m2, err := c.InferType(x.Base, e, nil, mapping)
		if err != nil {
			return nil, mapping, err
		}
		opt, ok := base.(*types.OptionalType)
		if !ok {
			return nil, mapping, &Error{Kind: TypeError, Pos: x.Pos, Message: "forced unwrap of a non-optional"}
		}
		return c.finish(x.Pos, opt.Elem, e, supertype, m2)
	case *ast.NamedArgument:
		return c.InferType(x.Value, e, supertype, mapping)
	case *ast.Decl:
		if x.Value == nil {
			if x.Type == nil {
				return nil, mapping, &Error{Kind: TypeError, Pos: x.Pos, Message: "declaration without annotation or value"}
			}
			return c.resolveTypeExpr(x.Type, e)
		}
		var sup types.Type
		if x.Type != nil {
			t, err := c.resolveTypeExpr0(x.Type, e)
			if err != nil {
				return nil, mapping, err
			}
			sup = t
		}
		return c.InferType(x.Value, e, sup, mapping)
	default:
		return nil, mapping, &Error{Kind: TypeError, Pos: expr.Position(), Message: "cannot infer type of expression"}
	}
}

// finish unifies an inferred type against an optional supertype, the
// "also check against the expected type" half of bidirectional inference.
func (c *Checker) finish(pos ast.Pos, t types.Type, e *env.Env, supertype types.Type, mapping Mapping) (types.Type, Mapping, error) {
	if supertype == nil {
		return t, mapping, nil
	}
	return c.UnifyTypes(pos, t, supertype, e, mapping)
}

func (c *Checker) resolveTypeExpr0(te ast.TypeExpr, e *env.Env) (types.Type, error) {
	t, _, err := c.resolveTypeExpr(te, e)
	return t, err
}

// resolveTypeExpr turns a written ast.TypeExpr into a checked types.Type,
// resolving named types against the environment.
func (c *Checker) resolveTypeExpr(te ast.TypeExpr, e *env.Env) (types.Type, Mapping, error) {
	switch t := te.(type) {
	case *ast.BuiltinType:
		return &types.BuiltinType{Name: types.Builtin(t.Name)}, nil, nil
	case *ast.NameType:
		return &types.Name{Module: t.Module, Member: t.Member}, nil, nil
	case *ast.VectorType:
		elem, _, err := c.resolveTypeExpr(t.Elem, e)
		if err != nil {
			return nil, nil, err
		}
		return &types.VectorType{Elem: elem}, nil, nil
	case *ast.DictType:
		k, _, err := c.resolveTypeExpr(t.Key, e)
		if err != nil {
			return nil, nil, err
		}
		v, _, err := c.resolveTypeExpr(t.Val, e)
		if err != nil {
			return nil, nil, err
		}
		return &types.DictType{Key: k, Val: v}, nil, nil
	case *ast.OptionalType:
		elem, _, err := c.resolveTypeExpr(t.Elem, e)
		if err != nil {
			return nil, nil, err
		}
		return &types.OptionalType{Elem: elem}, nil, nil
	case *ast.RefType:
		elem, _, err := c.resolveTypeExpr(t.Elem, e)
		if err != nil {
			return nil, nil, err
		}
		return &types.RefType{Elem: elem}, nil, nil
	case *ast.GenericTypeExpr:
		args := make([]types.Type, len(t.Args))
		for i, a := range t.Args {
			at, _, err := c.resolveTypeExpr(a, e)
			if err != nil {
				return nil, nil, err
			}
			args[i] = at
		}
		base, err := c.lookupGenericBase(t.Base.Member, e)
		if err != nil {
			return nil, nil, err
		}
		return &types.GenericType{Base: base, Args: args}, nil, nil
	default:
		return nil, nil, &Error{Kind: TypeError, Pos: te.Position(), Message: "unsupported type expression"}
	}
}

func (c *Checker) lookupGenericBase(name string, e *env.Env) (types.Type, error) {
	ent, err := e.Get(name)
	if err != nil {
		return nil, &Error{Kind: NameError, Message: "unknown type " + name}
	}
	switch x := ent.(type) {
	case *env.StructEntry:
		return x.Type, nil
	case *env.AlgebraicEntry:
		return x.Type, nil
	default:
		return nil, &Error{Kind: TypeError, Message: name + " is not a generic type"}
	}
}

// inferLiteral enumerates the candidate set filtered by range/magnitude
// and unifies against supertype, picking the first subtype that succeeds.
// First-match-wins is load-bearing: the result depends on candidate order.
func (c *Checker) inferLiteral(lit *ast.Literal, e *env.Env, supertype types.Type, mapping Mapping) (types.Type, Mapping, error) {
	switch lit.Kind {
	case ast.IntLit:
		v, _ := strconv.ParseInt(lit.Raw, 10, 64)
		for _, b := range types.IntegerTypes {
			if b != types.Int {
				r, ok := types.IntegerRanges[b]
				if !ok || v < r[0] || v > r[1] {
					continue
				}
			}
			t := &types.BuiltinType{Name: b}
			if supertype == nil {
				return t, mapping, nil
			}
			// A literal only narrows into the declared type; a candidate
			// wider than a builtin supertype must not pull the declaration
			// up the widening chain (`let x: U8 = 300` stays an error).
			if sb, ok := supertype.(*types.BuiltinType); ok && !isBuiltinSubtype(b, sb.Name) {
				continue
			}
			if res, m2, err := c.UnifyTypes(lit.Pos, t, supertype, e, mapping); err == nil {
				return res, m2, nil
			}
		}
		return nil, mapping, &Error{Kind: TypeError, Pos: lit.Pos, Message: lit.Raw + " is not in range of any integer type"}
	case ast.DecimalLit:
		for _, b := range types.FloatTypes {
			t := &types.BuiltinType{Name: b}
			if supertype == nil {
				return t, mapping, nil
			}
			if sb, ok := supertype.(*types.BuiltinType); ok && !isBuiltinSubtype(b, sb.Name) {
				continue
			}
			if res, m2, err := c.UnifyTypes(lit.Pos, t, supertype, e, mapping); err == nil {
				return res, m2, nil
			}
		}
		return nil, mapping, &Error{Kind: TypeError, Pos: lit.Pos, Message: lit.Raw + " does not fit any float type"}
	case ast.StringLit:
		return c.finish(lit.Pos, &types.BuiltinType{Name: types.StringT}, e, supertype, mapping)
	case ast.CharLit:
		return c.finish(lit.Pos, &types.BuiltinType{Name: types.CharT}, e, supertype, mapping)
	case ast.BoolLit:
		return c.finish(lit.Pos, &types.BuiltinType{Name: types.BoolT}, e, supertype, mapping)
	case ast.VectorLit:
		elemSuper := c.FreshTemplate()
		var elemT types.Type = elemSuper
		m := mapping
		for i, el := range lit.Elems {
			var err error
			if i == 0 {
				elemT, m, err = c.InferType(el, e, elemSuper, m)
			} else {
				t2, m2, err2 := c.InferType(el, e, elemT, m)
				if err2 != nil {
					t2, m2, err2 = c.InferType(el, e, nil, m)
					if err2 == nil {
						elemT, m, err = c.UnifyTypes(el.Position(), t2, elemT, e, m2)
					} else {
						err = err2
					}
				} else {
					elemT, m = t2, m2
				}
			}
			if err != nil {
				return nil, mapping, err
			}
		}
		return c.finish(lit.Pos, &types.VectorType{Elem: elemT}, e, supertype, m)
	case ast.DictLit:
		keySuper := c.FreshTemplate()
		valSuper := c.FreshTemplate()
		var keyT, valT types.Type = keySuper, valSuper
		m := mapping
		for _, p := range lit.Pairs {
			kt, m2, err := c.InferType(p.Key, e, keyT, m)
			if err != nil {
				return nil, mapping, err
			}
			vt, m3, err := c.InferType(p.Val, e, valT, m2)
			if err != nil {
				return nil, mapping, err
			}
			keyT, valT, m = kt, vt, m3
		}
		return c.finish(lit.Pos, &types.DictType{Key: keyT, Val: valT}, e, supertype, m)
	default:
		return nil, mapping, &Error{Kind: TypeError, Pos: lit.Pos, Message: "unknown literal kind"}
	}
}

func (c *Checker) inferName(n *ast.Name, e *env.Env) (types.Type, error) {
	ent, err := e.GetName(n)
	if err != nil {
		return nil, &Error{Kind: NameError, Pos: n.Pos, Message: "undeclared name " + n.Member}
	}
	switch x := ent.(type) {
	case *env.DeclEntry:
		return x.Type, nil
	case *env.FunctionEntry:
		return x.Sig, nil
	case *env.StructEntry:
		return x.Type, nil
	case *env.AlgebraicEntry:
		return x.Type, nil
	case *env.ParameterEntry:
		return &types.Name{Member: x.Name}, nil
	default:
		return nil, &Error{Kind: NameError, Pos: n.Pos, Message: n.Member + " does not denote a value"}
	}
}

// inferCast checks `(T)(e)`: the operand must reach T's ConvertibleTo
// interface for a builtin target, or unify with a named target.
func (c *Checker) inferCast(cst *ast.Cast, e *env.Env, mapping Mapping) (types.Type, Mapping, error) {
	target, _, err := c.resolveTypeExpr(cst.Type, e)
	if err != nil {
		return nil, mapping, err
	}
	srcT, m2, err := c.InferType(cst.Value, e, nil, mapping)
	if err != nil {
		return nil, mapping, err
	}
	if bt, ok := target.(*types.BuiltinType); ok {
		conv, ok := convertibleInterface[bt.Name]
		if !ok {
			return nil, mapping, &Error{Kind: TypeError, Pos: cst.Pos, Message: "no conversion target for " + string(bt.Name)}
		}
		if _, _, err := c.UnifyTypes(cst.Pos, srcT, &types.BuiltinType{Name: conv}, e, m2); err != nil {
			return nil, mapping, &Error{Kind: TypeError, Pos: cst.Pos, Message: "value is not " + string(conv)}
		}
		// IsBuiltin reflects the operand's type, not the cast's target: a
		// named type reaching a builtin target through a user-defined
		// ConvertibleToIx method still needs the emitter to call that
		// method, not treat the cast as a builtin-to-builtin conversion.
		cst.IsBuiltin = isBuiltinType(srcT)
		return target, m2, nil
	}
	// Named-to-named cast: unification must succeed; marked non-builtin so
	// the emitter uses the user-defined conversion.
	if _, m3, err := c.UnifyTypes(cst.Pos, srcT, target, e, m2); err != nil {
		return nil, mapping, err
	} else {
		cst.IsBuiltin = false
		return target, m3, nil
	}
}

var convertibleInterface = map[types.Builtin]types.Builtin{
	types.I8:      types.ConvertibleToI8,
	types.I16:     types.ConvertibleToI16,
	types.I32:     types.ConvertibleToI32,
	types.I64:     types.ConvertibleToI64,
	types.U8:      types.ConvertibleToU8,
	types.U16:     types.ConvertibleToU16,
	types.U32:     types.ConvertibleToU32,
	types.U64:     types.ConvertibleToU64,
	types.StringT: types.ConvertibleToString,
}

func (c *Checker) inferBinary(b *ast.BinaryExpression, e *env.Env, supertype types.Type, mapping Mapping) (types.Type, Mapping, error) {
	if b.Op == "is" {
		return c.finish(b.Pos, &types.BuiltinType{Name: types.BoolT}, e, supertype, mapping)
	}
	if b.Op == "and" || b.Op == "or" {
		boolT := &types.BuiltinType{Name: types.BoolT}
		if _, m2, err := c.InferType(b.Left, e, boolT, mapping); err != nil {
			return nil, mapping, err
		} else if _, m3, err := c.InferType(b.Right, e, boolT, m2); err != nil {
			return nil, mapping, err
		} else {
			return c.finish(b.Pos, boolT, e, supertype, m3)
		}
	}
	switch b.Op {
	case "==", "!=", "<", ">", "<=", ">=":
		lt, m2, err := c.InferType(b.Left, e, nil, mapping)
		if err != nil {
			return nil, mapping, err
		}
		if _, m3, err := c.InferType(b.Right, e, lt, m2); err != nil {
			return nil, mapping, err
		} else {
			return c.finish(b.Pos, &types.BuiltinType{Name: types.BoolT}, e, supertype, m3)
		}
	default: // + - * /
		lt, m2, err := c.InferType(b.Left, e, nil, mapping)
		if err != nil {
			return nil, mapping, err
		}
		rt, m3, err := c.InferType(b.Right, e, lt, m2)
		if err != nil {
			return nil, mapping, err
		}
		return c.finish(b.Pos, rt, e, supertype, m3)
	}
}

// inferSubscript types `base[index]`, dispatched on the base's type.
func (c *Checker) inferSubscript(s *ast.Subscript, e *env.Env, supertype types.Type, mapping Mapping) (types.Type, Mapping, error) {
	baseT, m2, err := c.InferType(s.Base, e, nil, mapping)
	if err != nil {
		return nil, mapping, err
	}
	switch bt := baseT.(type) {
	case *types.VectorType:
		if _, m3, err := c.InferType(s.Index, e, &types.BuiltinType{Name: types.U64}, m2); err != nil {
			return nil, mapping, err
		} else {
			return c.finish(s.Pos, bt.Elem, e, supertype, m3)
		}
	case *types.DictType:
		if _, m3, err := c.InferType(s.Index, e, bt.Key, m2); err != nil {
			return nil, mapping, err
		} else {
			return c.finish(s.Pos, bt.Val, e, supertype, m3)
		}
	case *types.BuiltinType:
		if bt.Name == types.StringT {
			if _, m3, err := c.InferType(s.Index, e, &types.BuiltinType{Name: types.U64}, m2); err != nil {
				return nil, mapping, err
			} else {
				return c.finish(s.Pos, &types.BuiltinType{Name: types.CharT}, e, supertype, m3)
			}
		}
	}
	return nil, mapping, &Error{Kind: SubscriptError, Pos: s.Pos, Message: "type does not support subscripting"}
}

// inferField types `base.field`, dispatched on the base's type.
func (c *Checker) inferField(f *ast.Field, e *env.Env, supertype types.Type, mapping Mapping) (types.Type, Mapping, error) {
	baseT, m2, err := c.InferType(f.Base, e, nil, mapping)
	if err != nil {
		return nil, mapping, err
	}
	switch bt := baseT.(type) {
	case *types.BuiltinType:
		if bt.Name == types.StringT && f.Field == "length" {
			return c.finish(f.Pos, &types.BuiltinType{Name: types.U64}, e, supertype, m2)
		}
	case *types.VectorType:
		if f.Field == "length" {
			return c.finish(f.Pos, &types.BuiltinType{Name: types.U64}, e, supertype, m2)
		}
	case *types.DictType:
		if f.Field == "length" {
			return c.finish(f.Pos, &types.BuiltinType{Name: types.U64}, e, supertype, m2)
		}
	case *types.RefType:
		if f.Field == "value" {
			return c.finish(f.Pos, bt.Elem, e, supertype, m2)
		}
	case *types.Name:
		return c.inferNamedField(f, bt.Member, e, supertype, m2)
	case *types.AlgebraicType:
		return c.finish(f.Pos, bt.WithConstructor(f.Field), e, supertype, m2)
	}
	return nil, mapping, &Error{Kind: FieldError, Pos: f.Pos, Message: "no field " + f.Field + " on " + baseT.String(), Member: f.Field}
}

// inferNamedField looks up field first, then method as a fallback.
func (c *Checker) inferNamedField(f *ast.Field, typeName string, e *env.Env, supertype types.Type, mapping Mapping) (types.Type, Mapping, error) {
	ent, err := e.Get(typeName)
	if err != nil {
		return nil, mapping, &Error{Kind: NameError, Pos: f.Pos, Message: "unknown type " + typeName}
	}
	se, ok := ent.(*env.StructEntry)
	if !ok {
		return nil, mapping, &Error{Kind: FieldError, Pos: f.Pos, Message: typeName + " is not a struct"}
	}
	for _, fld := range se.Type.Fields {
		if fld.Name == f.Field {
			return c.finish(f.Pos, fld.Type, e, supertype, mapping)
		}
	}
	for _, m := range se.Type.Methods {
		if m.Name == f.Field {
			return c.finish(f.Pos, m.Sig, e, supertype, mapping)
		}
	}
	return nil, mapping, &Error{Kind: FieldError, Pos: f.Pos, Message: "struct " + typeName + " has no field or method " + f.Field, Member: f.Field}
}
