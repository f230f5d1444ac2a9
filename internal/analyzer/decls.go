package analyzer

import (
	"fmt"

	"github.com/angellang/angelc/internal/ast"
	"github.com/angellang/angelc/internal/checker"
	"github.com/angellang/angelc/internal/env"
	"github.com/angellang/angelc/internal/types"
)

// analyzeStruct registers the entry, pushes the parent name, analyzes
// members in a fixed order (private fields, public fields, inits, private
// methods, public methods, special methods), synthesizes a default init
// when none was written, then verifies interface conformance.
func (a *Analyzer) analyzeStruct(s *ast.StructDeclaration, e *env.Env) error {
	st := &types.StructType{Name: s.Name, TypeParams: s.TypeParams}
	for _, impl := range s.Implements {
		if b := types.Builtin(impl.Member); types.IsBuiltinInterface(b) {
			st.ImplementedInterfaces = append(st.ImplementedInterfaces, b)
		} else {
			st.ImplementedNames = append(st.ImplementedNames, impl.Member)
		}
	}
	se := e.AddStruct(s.Name, st)

	e.PushParent(s.Name)
	e.PushWhere(s.Where)
	e.Push()
	defer e.PopParent()
	defer e.PopWhere()
	defer e.Pop()
	a.bindTypeParams(s.TypeParams, e)

	privateFields, publicFields := partitionFields(s.Fields)
	for _, f := range append(append([]*ast.FieldDeclaration{}, privateFields...), publicFields...) {
		t, err := a.Chk.ResolveType(f.Type, e)
		if err != nil {
			return err
		}
		if f.Default != nil {
			if _, _, err := a.infer(f.Default, e, t, nil); err != nil {
				return err
			}
		}
		st.Fields = append(st.Fields, types.Field{Name: f.Name, Type: t})
	}

	for _, init := range s.Inits {
		ie, err := a.analyzeInit(init, st, e)
		if err != nil {
			return err
		}
		e.AddInit(se, ie)
	}

	if len(se.Inits) == 0 {
		ie, err := a.synthesizeDefaultInit(s, st, privateFields, publicFields, e)
		if err != nil {
			return err
		}
		e.AddInit(se, ie)
	}

	private, public, special := partitionMethods(s.Methods)
	for _, m := range append(append(append([]*ast.MethodDeclaration{}, private...), public...), special...) {
		sig, err := a.analyzeMethodDecl(m, st, e)
		if err != nil {
			return err
		}
		st.Methods = append(st.Methods, types.Method{Name: m.Name, Sig: sig})
		se.Methods[m.Name] = &env.FunctionEntry{Sig: sig, Body: m.Body, SavedEnv: e.Snapshot(), IsMethod: true}
	}

	return a.checkConformance(s.Name, st, e)
}

func partitionFields(fields []*ast.FieldDeclaration) (private, public []*ast.FieldDeclaration) {
	for _, f := range fields {
		if f.Visibility == ast.Private {
			private = append(private, f)
		} else {
			public = append(public, f)
		}
	}
	return
}

func partitionMethods(methods []*ast.MethodDeclaration) (private, public, special []*ast.MethodDeclaration) {
	for _, m := range methods {
		switch m.Visibility {
		case ast.Private:
			private = append(private, m)
		case ast.Special:
			special = append(special, m)
		default:
			public = append(public, m)
		}
	}
	return
}

// synthesizeDefaultInit builds the implicit constructor: arguments are the
// public fields (with their defaults) in declaration order; the body
// assigns each public field from its argument and each private field from
// its default. A private field with neither a default nor a programmer
// init is PrivateFieldsNotInitializedAndNoInit.
func (a *Analyzer) synthesizeDefaultInit(s *ast.StructDeclaration, st *types.StructType, privateFields, publicFields []*ast.FieldDeclaration, e *env.Env) (*env.InitEntry, error) {
	for _, f := range privateFields {
		if f.Default == nil {
			return nil, &checker.Error{
				Kind:    checker.PrivateFieldsNotInitializedAndNoInit,
				Pos:     f.Pos,
				Message: fmt.Sprintf("private field %q of %s has no default and %s has no init", f.Name, s.Name, s.Name),
				Member:  f.Name,
			}
		}
	}
	params := make([]ast.Param, len(publicFields))
	var body []ast.Stmt
	for i, f := range publicFields {
		params[i] = ast.Param{Name: f.Name, Type: f.Type, Default: f.Default, Pos: f.Pos}
		body = append(body, &ast.Assignment{
			LHS: &ast.Field{Base: &ast.SpecialName{Pos: f.Pos}, Field: f.Name, Pos: f.Pos},
			Op:  "=",
			RHS: &ast.Name{Member: f.Name, Pos: f.Pos},
			Pos: f.Pos,
		})
	}
	for _, f := range privateFields {
		body = append(body, &ast.Assignment{
			LHS: &ast.Field{Base: &ast.SpecialName{Pos: f.Pos}, Field: f.Name, Pos: f.Pos},
			Op:  "=",
			RHS: f.Default,
			Pos: f.Pos,
		})
	}
	synthetic := &ast.InitDeclaration{Params: params, Body: body, Pos: s.Pos}
	return a.analyzeInit(synthetic, st, e)
}

// analyzeAlgebraic registers the type, then analyzes each constructor one
// scope deeper, and finally the methods shared across all constructors.
func (a *Analyzer) analyzeAlgebraic(ad *ast.AlgebraicDeclaration, e *env.Env) error {
	at := &types.AlgebraicType{Name: ad.Name, TypeParams: ad.TypeParams, Constructors: map[string]*types.Constructor{}}
	for _, ctor := range ad.Constructors {
		at.Constructors[ctor.Name] = &types.Constructor{Name: ctor.Name}
	}
	ae := e.AddAlgebraic(ad.Name, at)

	e.PushParent(ad.Name)
	e.Push()
	defer e.PopParent()
	defer e.Pop()
	a.bindTypeParams(ad.TypeParams, e)

	for _, ctor := range ad.Constructors {
		ctorSt := &types.StructType{Name: ctor.Name, TypeParams: ad.TypeParams}
		e.PushParent(ctor.Name)
		privateFields, publicFields := partitionFields(ctor.Fields)
		for _, f := range append(append([]*ast.FieldDeclaration{}, privateFields...), publicFields...) {
			t, err := a.Chk.ResolveType(f.Type, e)
			if err != nil {
				e.PopParent()
				return err
			}
			ctorSt.Fields = append(ctorSt.Fields, types.Field{Name: f.Name, Type: t})
		}
		at.Constructors[ctor.Name].Struct = ctorSt
		e.AddAlgebraicConstructor(ae, ctor.Name, ctorSt)
		e.PopParent()
	}

	for _, m := range ad.Methods {
		sig, err := a.analyzeMethodDecl(m, at, e)
		if err != nil {
			return err
		}
		sig.IsAlgebraicMethod = true
		at.Methods = append(at.Methods, types.Method{Name: m.Name, Sig: sig})
		ae.Methods[m.Name] = &env.FunctionEntry{Sig: sig, Body: m.Body, SavedEnv: e.Snapshot(), IsMethod: true}
	}
	return nil
}

// analyzeInterface registers the interface with the
// transitive inheritance closure env.AddInterface already computes, and
// analyze its members as type-only declarations (no bodies to check).
func (a *Analyzer) analyzeInterface(id *ast.InterfaceDeclaration, e *env.Env) error {
	fields := map[string]types.Type{}
	for _, f := range id.Fields {
		t, err := a.Chk.ResolveType(f.Type, e)
		if err != nil {
			return err
		}
		fields[f.Name] = t
	}
	methods := map[string]*types.FunctionType{}
	for _, m := range id.Methods {
		sig, err := a.buildSignature(m.Sig, e)
		if err != nil {
			return err
		}
		methods[m.Name] = sig
	}
	e.AddInterface(id.Name, id.Parents, fields, methods, func(name string) (*env.InterfaceEntry, bool) {
		ent, err := e.Get(name)
		if err != nil {
			return nil, false
		}
		ie, ok := ent.(*env.InterfaceEntry)
		return ie, ok
	})
	return nil
}

// analyzeExtension implements `extend Name: methods...`, adding members to
// an already-declared struct/algebraic type after the fact.
func (a *Analyzer) analyzeExtension(ext *ast.ExtensionDeclaration, e *env.Env) error {
	ent, err := e.Get(ext.Target)
	if err != nil {
		return err
	}
	switch x := ent.(type) {
	case *env.StructEntry:
		e.PushParent(ext.Target)
		defer e.PopParent()
		for _, m := range ext.Methods {
			sig, err := a.analyzeMethodDecl(m, x.Type, e)
			if err != nil {
				return err
			}
			x.Type.Methods = append(x.Type.Methods, types.Method{Name: m.Name, Sig: sig})
			x.Methods[m.Name] = &env.FunctionEntry{Sig: sig, Body: m.Body, SavedEnv: e.Snapshot(), IsMethod: true}
		}
	case *env.AlgebraicEntry:
		e.PushParent(ext.Target)
		defer e.PopParent()
		for _, m := range ext.Methods {
			sig, err := a.analyzeMethodDecl(m, x.Type, e)
			if err != nil {
				return err
			}
			x.Type.Methods = append(x.Type.Methods, types.Method{Name: m.Name, Sig: sig})
			x.Methods[m.Name] = &env.FunctionEntry{Sig: sig, Body: m.Body, SavedEnv: e.Snapshot(), IsMethod: true}
		}
	default:
		return analysisError(checker.NameError, ext.Pos, "%s is not a struct or algebraic type", ext.Target)
	}
	return nil
}

// checkConformance verifies declared conformance: for every
// declared interface on a struct, verify every field/method (including
// inherited ones) is supplied with a matching type/signature. Builtin
// interfaces are checked against the catalogue's member table; user
// interfaces against their registered entry.
func (a *Analyzer) checkConformance(structName string, st *types.StructType, e *env.Env) error {
	for _, b := range st.ImplementedInterfaces {
		if err := a.checkBuiltinConformance(structName, b, "", st.Methods, e); err != nil {
			return err
		}
	}
	for _, ifaceName := range st.ImplementedNames {
		ent, err := e.Get(ifaceName)
		if err != nil {
			return &checker.Error{Kind: checker.MissingInterfaceMember, Message: fmt.Sprintf("unknown interface %s", ifaceName)}
		}
		ie, ok := ent.(*env.InterfaceEntry)
		if !ok {
			return &checker.Error{Kind: checker.MissingInterfaceMember, Message: fmt.Sprintf("%s is not an interface", ifaceName)}
		}
		if err := a.checkInterfaceFields(structName, ifaceName, ie.Fields, st.Fields, "", e); err != nil {
			return err
		}
		for fname, inh := range ie.InheritedFields {
			if err := a.checkInterfaceFields(structName, ifaceName, map[string]types.Type{fname: inh.Type}, st.Fields, inh.Origin, e); err != nil {
				return err
			}
		}
		if err := a.checkInterfaceMethods(structName, ifaceName, ie.Methods, st.Methods, "", e); err != nil {
			return err
		}
		for mname, inh := range ie.InheritedMethods {
			if err := a.checkInterfaceMethods(structName, ifaceName, map[string]*types.FunctionType{mname: inh.Sig}, st.Methods, inh.Origin, e); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkBuiltinConformance verifies the struct supplies every method of a
// builtin interface and, recursively, of the interfaces it inherits from
// (ArithmeticObject demands all four operator methods, with each parent
// recorded for provenance).
func (a *Analyzer) checkBuiltinConformance(structName string, iface types.Builtin, origin string, methods []types.Method, e *env.Env) error {
	entry := types.BuiltinInterfaces[iface]
	want := make(map[string]*types.FunctionType, len(entry.Methods))
	for _, m := range entry.Methods {
		want[m.Name] = m.Sig
	}
	if err := a.checkInterfaceMethods(structName, string(iface), want, methods, origin, e); err != nil {
		return err
	}
	for _, parent := range entry.Parents {
		if err := a.checkBuiltinConformance(structName, parent, string(parent), methods, e); err != nil {
			return err
		}
	}
	return nil
}

// substSelf replaces the builtin Self marker with the conforming type, so
// an interface's `__add__(other: Self) -> Self` matches a struct's
// `__add__(other: Point) -> Point`.
func substSelf(t types.Type, self types.Type) types.Type {
	switch x := t.(type) {
	case *types.BuiltinType:
		if x.Name == types.SelfT {
			return self
		}
		return t
	case *types.VectorType:
		return &types.VectorType{Elem: substSelf(x.Elem, self)}
	case *types.OptionalType:
		return &types.OptionalType{Elem: substSelf(x.Elem, self)}
	case *types.RefType:
		return &types.RefType{Elem: substSelf(x.Elem, self)}
	default:
		return t
	}
}

func (a *Analyzer) checkInterfaceFields(structName, ifaceName string, want map[string]types.Type, have []types.Field, origin string, e *env.Env) error {
	for fname, ftype := range want {
		found := false
		for _, f := range have {
			if f.Name == fname {
				if _, _, err := a.Chk.UnifyTypes(ast.Pos{}, f.Type, ftype, e, nil); err != nil {
					return &checker.Error{Kind: checker.InterfaceFieldError, Message: fmt.Sprintf("%s.%s does not match interface %s's field %s", structName, fname, ifaceName, fname), Member: fname, Origin: origin, Expected: ftype, Actual: f.Type}
				}
				found = true
				break
			}
		}
		if !found {
			return &checker.Error{Kind: checker.MissingInterfaceMember, Message: fmt.Sprintf("%s is missing field %s required by interface %s", structName, fname, ifaceName), Member: fname, Origin: origin}
		}
	}
	return nil
}

func (a *Analyzer) checkInterfaceMethods(structName, ifaceName string, want map[string]*types.FunctionType, have []types.Method, origin string, e *env.Env) error {
	self := &types.Name{Member: structName}
	for mname, msig := range want {
		found := false
		for _, m := range have {
			if m.Name != mname {
				continue
			}
			found = true
			if len(m.Sig.Params) != len(msig.Params) {
				return &checker.Error{Kind: checker.InterfaceMethodError, Message: fmt.Sprintf("%s.%s has wrong arity for interface %s", structName, mname, ifaceName), Member: mname, Origin: origin}
			}
			for i := range msig.Params {
				if _, _, err := a.Chk.UnifyTypes(ast.Pos{}, m.Sig.Params[i].Type, substSelf(msig.Params[i].Type, self), e, nil); err != nil {
					return &checker.Error{Kind: checker.InterfaceMethodError, Message: fmt.Sprintf("%s.%s parameter %d does not match interface %s", structName, mname, i, ifaceName), Member: mname, Origin: origin}
				}
			}
			if _, _, err := a.Chk.UnifyTypes(ast.Pos{}, m.Sig.Return, substSelf(msig.Return, self), e, nil); err != nil {
				return &checker.Error{Kind: checker.InterfaceMethodError, Message: fmt.Sprintf("%s.%s return type does not match interface %s", structName, mname, ifaceName), Member: mname, Origin: origin}
			}
			break
		}
		if !found {
			return &checker.Error{Kind: checker.MissingInterfaceMember, Message: fmt.Sprintf("%s is missing method %s required by interface %s", structName, mname, ifaceName), Member: mname, Origin: origin}
		}
	}
	return nil
}
