package checker

import (
	"fmt"

	"github.com/angellang/angelc/internal/ast"
	"github.com/angellang/angelc/internal/env"
	"github.com/angellang/angelc/internal/types"
)

// inferCall checks a call expression; a struct callee goes through
// init-declaration matching instead of plain signature checking.
func (c *Checker) inferCall(call *ast.FunctionCall, e *env.Env, supertype types.Type, mapping Mapping) (types.Type, Mapping, error) {
	if bf, ok := call.Path.(*ast.BuiltinFunc); ok {
		return c.inferBuiltinCall(bf, call, e, supertype, mapping)
	}
	calleeT, m2, err := c.InferType(call.Path, e, nil, mapping)
	if err != nil {
		return nil, mapping, err
	}
	switch ct := calleeT.(type) {
	case *types.StructType:
		return c.inferStructConstruction(call, ct, e, supertype, m2)
	case *types.FunctionType:
		return c.checkFunctionCall(call.Pos, ct, call.Args, e, supertype, m2)
	default:
		return nil, mapping, &Error{Kind: NoncallableCall, Pos: call.Pos, Message: calleeT.String() + " is not callable"}
	}
}

func (c *Checker) inferBuiltinCall(bf *ast.BuiltinFunc, call *ast.FunctionCall, e *env.Env, supertype types.Type, mapping Mapping) (types.Type, Mapping, error) {
	m := mapping
	for _, a := range call.Args {
		var err error
		_, m, err = c.InferType(a, e, nil, m)
		if err != nil {
			return nil, mapping, err
		}
	}
	switch bf.Name {
	case "print":
		return c.finish(call.Pos, &types.BuiltinType{Name: types.VoidT}, e, supertype, m)
	case "read":
		return c.finish(call.Pos, &types.BuiltinType{Name: types.StringT}, e, supertype, m)
	default:
		return nil, mapping, &Error{Kind: NameError, Pos: call.Pos, Message: "unknown builtin function " + bf.Name}
	}
}

// checkFunctionCall is the generic call-site check, shared by plain
// function calls and method calls.
func (c *Checker) checkFunctionCall(pos ast.Pos, sig *types.FunctionType, args []ast.Expr, e *env.Env, supertype types.Type, mapping Mapping) (types.Type, Mapping, error) {
	if len(args) != len(sig.Params) {
		return nil, mapping, c.wrongArguments(pos, sig, args)
	}
	m := mapping.Clone()
	for _, tp := range sig.TypeParams {
		if _, has := m[tp]; !has {
			m[tp] = c.FreshTemplate()
		}
	}
	estimated := make([]interface{}, len(args))
	for i, a := range args {
		declared := ApplyMapping(sig.Params[i].Type, m)
		_, m2, err := c.InferType(a, e, declared, m)
		if err != nil {
			return nil, mapping, err
		}
		m = m2
		if c.est != nil {
			v, _ := c.est.Estimate(a, e)
			estimated[i] = v
		}
	}

	callEnv := e
	if saved, ok := sig.Env.(*env.Env); ok && saved != nil {
		callEnv = saved.Snapshot()
	}
	callEnv.Push()
	for i, p := range sig.Params {
		t := ApplyMapping(p.Type, m)
		ent := callEnv.AddConstant(p.Name, pos.Line, t, args[i])
		if i < len(estimated) && estimated[i] != nil {
			_ = ent.SetValue(estimated[i])
		}
	}
	var whereErr error
	for _, w := range sig.Where {
		resolved := m[w.Param]
		if resolved == nil {
			continue
		}
		ok, err := c.satisfiesInterface(resolved, w.Interface, callEnv)
		if err != nil {
			whereErr = err
			break
		}
		if !ok {
			whereErr = &Error{Kind: UnsatisfiedWhereClause, Pos: pos, Message: fmt.Sprintf("%s does not satisfy %s", w.Param, w.Interface)}
			break
		}
	}
	callEnv.Pop()
	if whereErr != nil {
		return nil, mapping, whereErr
	}

	ret := c.resolveTemplates(ApplyMapping(sig.Return, m))
	if sig.TypeParams != nil {
		args := make([]types.Type, len(sig.TypeParams))
		for i, tp := range sig.TypeParams {
			args[i] = c.resolveTemplates(m[tp])
		}
		c.recordInstantiation(funcKeyOf(sig), args)
	}
	return c.finish(pos, ret, e, supertype, m)
}

// ResolveTemplates is the exported form of resolveTemplates, used by the
// analyzer to concretize a loop's element type after container unification.
func (c *Checker) ResolveTemplates(t types.Type) types.Type { return c.resolveTemplates(t) }

// resolveTemplates substitutes every bound template slot inside t with its
// resolved type, leaving unbound slots in place.
func (c *Checker) resolveTemplates(t types.Type) types.Type {
	switch x := t.(type) {
	case nil:
		return nil
	case *types.TemplateType:
		if bound, has := c.resolve(x.ID); has {
			return c.resolveTemplates(bound)
		}
		return t
	case *types.VectorType:
		return &types.VectorType{Elem: c.resolveTemplates(x.Elem)}
	case *types.DictType:
		return &types.DictType{Key: c.resolveTemplates(x.Key), Val: c.resolveTemplates(x.Val)}
	case *types.OptionalType:
		return &types.OptionalType{Elem: c.resolveTemplates(x.Elem)}
	case *types.RefType:
		return &types.RefType{Elem: c.resolveTemplates(x.Elem)}
	case *types.IterableType:
		return &types.IterableType{Elem: c.resolveTemplates(x.Elem)}
	case *types.GenericType:
		args := make([]types.Type, len(x.Args))
		for i, a := range x.Args {
			args[i] = c.resolveTemplates(a)
		}
		return &types.GenericType{Base: x.Base, Args: args}
	default:
		return t
	}
}

func funcKeyOf(sig *types.FunctionType) string { return sig.String() }

// satisfiesInterface evaluates whether a resolved type parameter binding
// is `iface`, consulting the subtype lattice for builtins and
// implemented interfaces for named types (mirrors the estimator's `is`). A
// template variable is chased to its slot's binding first: the mapping
// holds the fresh template allocated at call entry, not the concrete type
// unification later filled it with.
func (c *Checker) satisfiesInterface(t types.Type, iface types.Builtin, e *env.Env) (bool, error) {
	switch x := t.(type) {
	case *types.TemplateType:
		bound, has := c.resolve(x.ID)
		if !has {
			return false, nil
		}
		return c.satisfiesInterface(bound, iface, e)
	case *types.BuiltinType:
		if x.Name == iface {
			return true, nil
		}
		for _, s := range types.Supertypes[x.Name] {
			if s == iface {
				return true, nil
			}
		}
		return false, nil
	default:
		return types.SatisfiesBuiltin(implementedInterfaces(e, typeNameOf(t)), iface), nil
	}
}

func typeNameOf(t types.Type) string {
	switch x := t.(type) {
	case *types.Name:
		return x.Member
	case *types.StructType:
		return x.Name
	case *types.AlgebraicType:
		return x.Name
	default:
		return ""
	}
}

// inferStructConstruction enumerates the struct's init-declarations in
// source order; the first whose arity/types match wins.
func (c *Checker) inferStructConstruction(call *ast.FunctionCall, st *types.StructType, e *env.Env, supertype types.Type, mapping Mapping) (types.Type, Mapping, error) {
	ent, err := e.Get(st.Name)
	if err != nil {
		return nil, mapping, &Error{Kind: NameError, Pos: call.Pos, Message: "unknown struct " + st.Name}
	}
	se, ok := ent.(*env.StructEntry)
	if !ok {
		return nil, mapping, &Error{Kind: NameError, Pos: call.Pos, Message: st.Name + " is not a struct"}
	}
	inits := se.Inits
	if len(inits) == 0 {
		return nil, mapping, &Error{Kind: ConstructorError, Pos: call.Pos, Message: st.Name + " has no initializer"}
	}
	var candidateLists [][]string
	m := mapping.Clone()
	for _, tp := range st.TypeParams {
		if _, has := m[tp]; !has {
			m[tp] = c.FreshTemplate()
		}
	}
	for _, init := range inits {
		if len(init.Params) != len(call.Args) {
			candidateLists = append(candidateLists, paramList(init.Params))
			continue
		}
		trial := m.Clone()
		ok := true
		for i, p := range init.Params {
			declaredRaw, err := c.resolveTypeExpr0(p.Type, e)
			if err != nil {
				ok = false
				break
			}
			declared := ApplyMapping(declaredRaw, trial)
			if _, m2, err := c.InferType(call.Args[i], e, declared, trial); err != nil {
				ok = false
				break
			} else {
				trial = m2
			}
		}
		if ok {
			instance := &types.Name{Member: st.Name}
			args := make([]types.Type, len(st.TypeParams))
			for i, tp := range st.TypeParams {
				args[i] = c.resolveTemplates(trial[tp])
			}
			var result types.Type = instance
			if len(args) > 0 {
				result = &types.GenericType{Base: st, Args: args}
				call.InstanceCallParameters = toIface(args)
			}
			return c.finish(call.Pos, result, e, supertype, trial)
		}
		candidateLists = append(candidateLists, paramList(init.Params))
	}
	return nil, mapping, &Error{Kind: WrongArguments, Pos: call.Pos, Message: "no matching initializer for " + st.Name, Candidates: flatten(candidateLists), Attempted: attemptedArgs(call.Args)}
}

// attemptedArgs renders the actual call's argument list the same way
// paramList/flatten render a candidate's, so diag can diff the two.
func attemptedArgs(args []ast.Expr) string {
	out := make([]string, len(args))
	for i, a := range args {
		if na, ok := a.(*ast.NamedArgument); ok {
			out[i] = na.Name
		} else {
			out[i] = "_"
		}
	}
	return fmt.Sprintf("(%v)", out)
}

func toIface(ts []types.Type) []interface{} {
	out := make([]interface{}, len(ts))
	for i, t := range ts {
		out[i] = t
	}
	return out
}

func paramList(params []ast.Param) []string {
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = p.Name
	}
	return out
}

func flatten(lists [][]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, fmt.Sprintf("(%v)", l))
	}
	return out
}

func (c *Checker) wrongArguments(pos ast.Pos, sig *types.FunctionType, args []ast.Expr) *Error {
	expected := make([]string, len(sig.Params))
	for i, p := range sig.Params {
		expected[i] = p.Name
	}
	return &Error{
		Kind:       WrongArguments,
		Pos:        pos,
		Message:    fmt.Sprintf("expected %d arguments, got %d", len(sig.Params), len(args)),
		Candidates: []string{fmt.Sprintf("(%v)", expected)},
		Attempted:  attemptedArgs(args),
	}
}

func (c *Checker) inferMethodCall(m *ast.MethodCall, e *env.Env, supertype types.Type, mapping Mapping) (types.Type, Mapping, error) {
	baseT, m2, err := c.InferType(m.Base, e, nil, mapping)
	if err != nil {
		return nil, mapping, err
	}
	// Builtin container methods:
	// String.split(by:Char): Vector<String>, Vector<T>.append(element:T): T,
	// Vector<T>.pop(): T. These are methods on container builtins, which
	// carry no StructEntry to look up, so they are dispatched here rather
	// than through resolveMethod.
	if sig, ok := builtinContainerMethod(baseT, m.Method); ok {
		return c.checkFunctionCall(m.Pos, sig, m.Args, e, supertype, m2)
	}
	sig, err := c.resolveMethod(baseT, m.Method, e)
	if err != nil {
		return nil, mapping, err
	}
	return c.checkFunctionCall(m.Pos, sig, m.Args, e, supertype, m2)
}

// builtinContainerMethod returns the fixed signature of a builtin method on
// String/Vector<T>, or ok=false if base/name don't name one.
func builtinContainerMethod(base types.Type, name string) (*types.FunctionType, bool) {
	switch bt := base.(type) {
	case *types.BuiltinType:
		if bt.Name == types.StringT && name == "split" {
			return &types.FunctionType{
				Params: []types.Arg{{Name: "by", Type: &types.BuiltinType{Name: types.CharT}}},
				Return: &types.VectorType{Elem: &types.BuiltinType{Name: types.StringT}},
			}, true
		}
	case *types.VectorType:
		switch name {
		case "append":
			return &types.FunctionType{
				Params: []types.Arg{{Name: "element", Type: bt.Elem}},
				Return: bt.Elem,
			}, true
		case "pop":
			return &types.FunctionType{Return: bt.Elem}, true
		}
	}
	return nil, false
}

// resolveMethod looks up a method on a named/algebraic type, first on the
// specific constructor then on the algebraic type itself.
func (c *Checker) resolveMethod(t types.Type, name string, e *env.Env) (*types.FunctionType, error) {
	switch x := t.(type) {
	case *types.Name:
		ent, err := e.Get(x.Member)
		if err != nil {
			return nil, &Error{Kind: NameError, Message: "unknown type " + x.Member}
		}
		switch se := ent.(type) {
		case *env.StructEntry:
			for _, meth := range se.Type.Methods {
				if meth.Name == name {
					return meth.Sig, nil
				}
			}
		case *env.AlgebraicEntry:
			for _, meth := range se.Type.Methods {
				if meth.Name == name {
					return meth.Sig, nil
				}
			}
		}
	case *types.AlgebraicType:
		if x.Constructor != "" {
			ent, err := e.Get(x.Name)
			if err == nil {
				if alg, ok := ent.(*env.AlgebraicEntry); ok {
					if ctor, ok := alg.Constructors[x.Constructor]; ok {
						for _, meth := range ctor.Type.Methods {
							if meth.Name == name {
								return meth.Sig, nil
							}
						}
					}
				}
			}
		}
		for _, meth := range x.Methods {
			if meth.Name == name {
				return meth.Sig, nil
			}
		}
	case *types.GenericType:
		return c.resolveMethod(x.Base, name, e)
	}
	return nil, &Error{Kind: FieldError, Message: "no method " + name + " on " + t.String(), Member: name}
}
