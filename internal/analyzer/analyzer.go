// Package analyzer drives the middle end: it walks a clarified AST,
// building the environment (symbol table) one declaration at a time,
// invoking the checker to type-check each piece as it goes, and the
// estimator to fold compile-time-known initializers. It enforces the
// declaration-site rules (scope/ownership, interface-implementation
// conformance, default-constructor synthesis) that the checker and
// estimator alone do not.
package analyzer

import (
	"fmt"

	"github.com/angellang/angelc/internal/ast"
	"github.com/angellang/angelc/internal/checker"
	"github.com/angellang/angelc/internal/env"
	"github.com/angellang/angelc/internal/estimator"
	"github.com/angellang/angelc/internal/types"
)

// Analyzer drives a single compilation unit through clarification (already
// done by the caller), analysis, and type checking. It holds no state of
// its own beyond the paired Checker/Estimator and the Annotations side map
// described below; the Env it operates over is
// threaded explicitly through every method, matching the style already
// established in internal/checker and internal/estimator.
//
// Inferred types are attached through a side map rather than mutable AST
// fields: Annotations records, for every expression the analyzer
// type-checks, the type it resolved to, keyed by the node's identity. This
// keeps internal/ast free of checker-owned fields while still giving the
// emitter a recorded type for every expression it renders.
type Analyzer struct {
	Chk         *checker.Checker
	Est         *estimator.Estimator
	Annotations map[ast.Expr]types.Type
}

// New constructs an Analyzer over an already-paired checker/estimator
// (the two are constructed together before the analyzer exists).
func New(chk *checker.Checker, est *estimator.Estimator) *Analyzer {
	return &Analyzer{Chk: chk, Est: est, Annotations: map[ast.Expr]types.Type{}}
}

// infer wraps Chk.InferType, recording the resolved type in Annotations.
func (a *Analyzer) infer(expr ast.Expr, e *env.Env, supertype types.Type, mapping checker.Mapping) (types.Type, checker.Mapping, error) {
	t, m, err := a.Chk.InferType(expr, e, supertype, mapping)
	if err != nil {
		return t, m, err
	}
	a.Annotations[expr] = t
	return t, m, nil
}

// AnalyzeFile drives every top-level declaration of file in source order.
func (a *Analyzer) AnalyzeFile(file *ast.File, e *env.Env) error {
	for _, d := range file.Decls {
		if err := a.AnalyzeTopLevel(d, e); err != nil {
			return err
		}
	}
	return nil
}

// AnalyzeTopLevel dispatches one top-level declaration.
func (a *Analyzer) AnalyzeTopLevel(stmt ast.Stmt, e *env.Env) error {
	switch x := stmt.(type) {
	case *ast.FunctionDeclaration:
		return a.analyzeFunctionDecl(x, e)
	case *ast.StructDeclaration:
		return a.analyzeStruct(x, e)
	case *ast.AlgebraicDeclaration:
		return a.analyzeAlgebraic(x, e)
	case *ast.InterfaceDeclaration:
		return a.analyzeInterface(x, e)
	case *ast.ExtensionDeclaration:
		return a.analyzeExtension(x, e)
	default:
		return a.AnalyzeStmt(stmt, e)
	}
}

// ---------------------------------------------------------------------------
// where-clause extraction
// ---------------------------------------------------------------------------

// whereAtoms flattens a conjunction of `X is I` comparisons. `and`
// distributes; any other operator, or a clause that isn't an `is`
// comparison, is skipped.
func whereAtoms(clauses []ast.Expr) []*ast.BinaryExpression {
	var out []*ast.BinaryExpression
	var walk func(ast.Expr)
	walk = func(e ast.Expr) {
		b, ok := e.(*ast.BinaryExpression)
		if !ok {
			return
		}
		if b.Op == "and" {
			walk(b.Left)
			walk(b.Right)
			return
		}
		if b.Op == "is" {
			out = append(out, b)
		}
	}
	for _, c := range clauses {
		walk(c)
	}
	return out
}

// buildWhereClauses turns a FunctionTypeExpr's raw Where into the checked
// []types.WhereClause the checker evaluates at call sites.
func buildWhereClauses(clauses []ast.Expr) []types.WhereClause {
	var out []types.WhereClause
	for _, atom := range whereAtoms(clauses) {
		left, ok := atom.Left.(*ast.Name)
		if !ok {
			continue
		}
		right, ok := atom.Right.(*ast.Name)
		if !ok {
			continue
		}
		out = append(out, types.WhereClause{Param: left.Member, Interface: types.Builtin(right.Member)})
	}
	return out
}

// extractParameter builds a ParameterEntry for type parameter `name` from
// every active where-clause conjunction constraining it: for every
// `name is I` found, record I plus I's own (and inherited) fields
// and methods.
func (a *Analyzer) extractParameter(e *env.Env) func(name string, clauses [][]ast.Expr) *env.ParameterEntry {
	return func(name string, clauses [][]ast.Expr) *env.ParameterEntry {
		pe := &env.ParameterEntry{Name: name, Fields: map[string]types.Type{}, Methods: map[string]*types.FunctionType{}}
		for _, conj := range clauses {
			for _, atom := range whereAtoms(conj) {
				left, ok := atom.Left.(*ast.Name)
				if !ok || left.Member != name {
					continue
				}
				right, ok := atom.Right.(*ast.Name)
				if !ok {
					continue
				}
				iface := types.Builtin(right.Member)
				pe.Interfaces = append(pe.Interfaces, iface)
				if ent, err := e.Get(right.Member); err == nil {
					if ie, ok := ent.(*env.InterfaceEntry); ok {
						for fn, ft := range ie.Fields {
							pe.Fields[fn] = ft
						}
						for fn, inh := range ie.InheritedFields {
							pe.Fields[fn] = inh.Type
						}
						for mn, mt := range ie.Methods {
							pe.Methods[mn] = mt
						}
						for mn, inh := range ie.InheritedMethods {
							pe.Methods[mn] = inh.Sig
						}
					}
				}
			}
		}
		return pe
	}
}

// buildSignature resolves a written FunctionTypeExpr into a checked
// types.FunctionType, without entering the body's scope.
func (a *Analyzer) buildSignature(sig *ast.FunctionTypeExpr, e *env.Env) (*types.FunctionType, error) {
	params := make([]types.Arg, len(sig.Params))
	for i, p := range sig.Params {
		t, err := a.Chk.ResolveType(p.Type, e)
		if err != nil {
			return nil, err
		}
		params[i] = types.Arg{Name: p.Name, Type: t, Default: p.Default}
	}
	ret, err := a.Chk.ResolveType(sig.Return, e)
	if err != nil {
		return nil, err
	}
	return &types.FunctionType{
		TypeParams: sig.TypeParams,
		Params:     params,
		Return:     ret,
		Where:      buildWhereClauses(sig.Where),
		Env:        e.Snapshot(),
	}, nil
}

// bindTypeParams registers each of names as a ParameterEntry in e's
// innermost scope, deriving its allowed interfaces/fields/methods from the
// where-clauses active when this is called (caller must PushWhere first).
func (a *Analyzer) bindTypeParams(names []string, e *env.Env) {
	extract := a.extractParameter(e)
	for _, n := range names {
		e.AddParameter(n, extract)
	}
}

// analyzeFunctionDecl handles a top-level `fun`: check signature, register a stub,
// analyze the body in a fresh scope with arguments bound as constants,
// then attach the checked body.
func (a *Analyzer) analyzeFunctionDecl(f *ast.FunctionDeclaration, e *env.Env) error {
	e.PushWhere(f.Sig.Where)
	sig, err := a.buildSignature(f.Sig, e)
	if err != nil {
		e.PopWhere()
		return err
	}
	e.AddFunction(f.Name, &env.FunctionEntry{Sig: sig, Where: f.Sig.Where, SavedEnv: e.Snapshot()})
	e.Push()
	a.bindTypeParams(sig.TypeParams, e)
	for _, p := range sig.Params {
		e.AddConstant(p.Name, f.Pos.Line, p.Type, nil)
	}
	err = a.analyzeBody(f.Body, e)
	e.Pop()
	e.PopWhere()
	if err != nil {
		return err
	}
	return e.UpdateFunctionBody(f.Name, f.Body)
}

// analyzeMethodDecl is the method variant: `self` is additionally bound
// (variable inside `init`, constant inside regular methods; init bodies
// are handled by analyzeInit, not this function).
func (a *Analyzer) analyzeMethodDecl(m *ast.MethodDeclaration, selfType types.Type, e *env.Env) (*types.FunctionType, error) {
	e.PushWhere(m.Sig.Where)
	sig, err := a.buildSignature(m.Sig, e)
	if err != nil {
		e.PopWhere()
		return nil, err
	}
	sig.IsMethod = true
	e.Push()
	a.bindTypeParams(sig.TypeParams, e)
	e.AddConstant("self", m.Pos.Line, selfType, nil)
	for _, p := range sig.Params {
		e.AddConstant(p.Name, m.Pos.Line, p.Type, nil)
	}
	err = a.analyzeBody(m.Body, e)
	e.Pop()
	e.PopWhere()
	if err != nil {
		return nil, err
	}
	return sig, nil
}

// analyzeInit implements an `init` declaration's body analysis: `self` is
// bound as a *variable*, since its fields are assigned incrementally.
func (a *Analyzer) analyzeInit(init *ast.InitDeclaration, selfType types.Type, e *env.Env) (*env.InitEntry, error) {
	params := make([]types.Arg, len(init.Params))
	for i, p := range init.Params {
		t, err := a.Chk.ResolveType(p.Type, e)
		if err != nil {
			return nil, err
		}
		params[i] = types.Arg{Name: p.Name, Type: t, Default: p.Default}
	}
	e.Push()
	e.AddVariable("self", init.Pos.Line, selfType, nil)
	for i, p := range init.Params {
		e.AddConstant(p.Name, init.Pos.Line, params[i].Type, nil)
	}
	err := a.analyzeBody(init.Body, e)
	e.Pop()
	if err != nil {
		return nil, err
	}
	return &env.InitEntry{Params: init.Params, Body: init.Body, SavedEnv: e.Snapshot()}, nil
}

// analyzeBody analyzes every statement of a block in source order.
func (a *Analyzer) analyzeBody(body []ast.Stmt, e *env.Env) error {
	for _, s := range body {
		if err := a.AnalyzeStmt(s, e); err != nil {
			return err
		}
	}
	return nil
}

func analysisError(kind checker.Kind, pos ast.Pos, format string, args ...interface{}) *checker.Error {
	return &checker.Error{Kind: kind, Pos: pos, Message: fmt.Sprintf(format, args...)}
}
