package analyzer

import (
	"errors"
	"strings"

	"github.com/angellang/angelc/internal/ast"
	"github.com/angellang/angelc/internal/checker"
	"github.com/angellang/angelc/internal/env"
	"github.com/angellang/angelc/internal/estimator"
	"github.com/angellang/angelc/internal/types"
)

// AnalyzeStmt analyzes one statement within a function/method/init body, or
// a nested block.
func (a *Analyzer) AnalyzeStmt(stmt ast.Stmt, e *env.Env) error {
	switch x := stmt.(type) {
	case *ast.Decl:
		return a.analyzeDecl(x, e)
	case *ast.ExprStmt:
		_, _, err := a.infer(x.X, e, nil, nil)
		return err
	case *ast.Assignment:
		return a.analyzeAssignment(x, e)
	case *ast.If:
		return a.analyzeIf(x, e)
	case *ast.While:
		return a.analyzeWhile(x, e)
	case *ast.For:
		return a.analyzeFor(x, e)
	case *ast.Break:
		return nil
	case *ast.Return:
		if x.Value == nil {
			return nil
		}
		_, _, err := a.infer(x.Value, e, nil, nil)
		return err
	case *ast.InitCall:
		for _, arg := range x.Args {
			if _, _, err := a.infer(arg, e, nil, nil); err != nil {
				return err
			}
		}
		return nil
	case *ast.FunctionDeclaration:
		return a.analyzeFunctionDecl(x, e)
	default:
		return analysisError(checker.TypeError, stmt.Position(), "unsupported statement %T", stmt)
	}
}

// analyzeDecl handles let/var: if a value is given, its type is inferred
// against the optional annotation and the value estimated; otherwise the
// annotation is required.
func (a *Analyzer) analyzeDecl(d *ast.Decl, e *env.Env) error {
	if d.Value != nil {
		var sup types.Type
		if d.Type != nil {
			t, err := a.Chk.ResolveType(d.Type, e)
			if err != nil {
				return err
			}
			sup = t
		}
		t, _, err := a.infer(d.Value, e, sup, nil)
		if err != nil {
			return err
		}
		est, eerr := a.Est.Estimate(d.Value, e)
		if errors.Is(eerr, estimator.ErrDivByZero) {
			return analysisError(checker.DivByZero, d.Pos, "division by zero")
		}
		var entry *env.DeclEntry
		if d.Kind == ast.LetDecl {
			entry = e.AddConstant(d.Name, d.Pos.Line, t, d.Value)
		} else {
			entry = e.AddVariable(d.Name, d.Pos.Line, t, d.Value)
		}
		entry.Estimated = est
		return nil
	}
	if d.Type == nil {
		return analysisError(checker.TypeError, d.Pos, "declaration of %s requires an annotation or a value", d.Name)
	}
	t, err := a.Chk.ResolveType(d.Type, e)
	if err != nil {
		return err
	}
	if d.Kind == ast.LetDecl {
		e.AddConstant(d.Name, d.Pos.Line, t, nil)
	} else {
		e.AddVariable(d.Name, d.Pos.Line, t, nil)
	}
	return nil
}

// analyzeAssignment desugars a compound operator to `l = l op r` first,
// then infers the RHS against the LHS's current type and runs the
// mutability check.
func (a *Analyzer) analyzeAssignment(asg *ast.Assignment, e *env.Env) error {
	if asg.Op != "=" {
		op := strings.TrimSuffix(asg.Op, "=")
		asg.RHS = &ast.BinaryExpression{Left: asg.LHS, Op: op, Right: asg.RHS, Pos: asg.Pos}
		asg.Op = "="
	}
	lhsType, _, err := a.infer(asg.LHS, e, nil, nil)
	if err != nil {
		return err
	}
	if _, _, err := a.infer(asg.RHS, e, lhsType, nil); err != nil {
		return err
	}
	name, ok := asg.LHS.(*ast.Name)
	if !ok {
		// Field/subscript targets (self.x = ..., v[i] = ...) carry no
		// DeclEntry to update or guard; the type check above is enough.
		return nil
	}
	ent, err := e.GetName(name)
	if err != nil {
		return err
	}
	decl, ok := ent.(*env.DeclEntry)
	if !ok {
		return analysisError(checker.TypeError, asg.Pos, "%s is not assignable", name.Member)
	}
	decl.Type = lhsType
	estV, eerr := a.Est.Estimate(asg.RHS, e)
	if errors.Is(eerr, estimator.ErrDivByZero) {
		return analysisError(checker.DivByZero, asg.Pos, "division by zero")
	}
	if decl.Kind == env.Constant {
		if err := decl.SetValue(estV); err != nil {
			return analysisError(checker.ConstantReassignment, asg.Pos, "%s is a constant and already has a value", name.Member)
		}
		return nil
	}
	decl.HasValue = true
	decl.Estimated = estV
	decl.Expr = asg.RHS
	return nil
}

// analyzeIf treats a `let`-binding in the condition as the typed
// optional-matching construct; any other condition must check against
// Bool.
func (a *Analyzer) analyzeIf(s *ast.If, e *env.Env) error {
	if err := a.analyzeCondAndBody(s.Cond, s.Body, e); err != nil {
		return err
	}
	for _, elif := range s.Elifs {
		if err := a.analyzeCondAndBody(elif.Cond, elif.Body, e); err != nil {
			return err
		}
	}
	if s.Else != nil {
		e.Push()
		err := a.analyzeBody(s.Else, e)
		e.Pop()
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyzer) analyzeWhile(s *ast.While, e *env.Env) error {
	return a.analyzeCondAndBody(s.Cond, s.Body, e)
}

// analyzeCondAndBody analyzes one `cond: body` arm, handling the if-let/
// while-let form where cond is a *ast.Decl binding an optional.
func (a *Analyzer) analyzeCondAndBody(cond ast.Expr, body []ast.Stmt, e *env.Env) error {
	e.Push()
	defer e.Pop()
	if decl, ok := cond.(*ast.Decl); ok {
		optT, _, err := a.infer(decl.Value, e, nil, nil)
		if err != nil {
			return err
		}
		opt, ok := optT.(*types.OptionalType)
		if !ok {
			return analysisError(checker.TypeError, decl.Pos, "if/while-let condition must bind an optional, got %s", optT)
		}
		// Desugars to `x = tmp!`: the bound name holds the unwrapped
		// payload, not the optional itself.
		est, _ := a.Est.Estimate(decl.Value, e)
		if some, ok := est.(estimator.OptionalSomeCallValue); ok {
			est = some.Inner
		}
		bound := e.AddConstant(decl.Name, decl.Pos.Line, opt.Elem, decl.Value)
		bound.Estimated = est
		return a.analyzeBody(body, e)
	}
	if _, _, err := a.infer(cond, e, &types.BuiltinType{Name: types.BoolT}, nil); err != nil {
		return err
	}
	return a.analyzeBody(body, e)
}

// analyzeFor allocates a fresh TemplateType for the element, unifies the
// container against Iterable of it, and binds the resolved element type
// as a constant in the loop scope.
func (a *Analyzer) analyzeFor(f *ast.For, e *env.Env) error {
	elemT := a.Chk.FreshTemplate()
	resolved, _, err := a.infer(f.Container, e, &types.IterableType{Elem: elemT}, nil)
	if err != nil {
		return err
	}
	elem := a.Chk.ResolveTemplates(elementTypeOf(resolved, elemT))
	e.Push()
	e.AddConstant(f.ElemName, f.Pos.Line, elem, nil)
	err = a.analyzeBody(f.Body, e)
	e.Pop()
	return err
}

func elementTypeOf(resolved types.Type, fallback types.Type) types.Type {
	switch t := resolved.(type) {
	case *types.VectorType:
		return t.Elem
	case *types.IterableType:
		return t.Elem
	case *types.BuiltinType:
		if t.Name == types.StringT {
			return &types.BuiltinType{Name: types.CharT}
		}
	}
	return fallback
}
