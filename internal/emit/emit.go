// Package emit is a deliberately thin backend: it walks a checked AST and
// produces readable pseudo-C++ text. Full code generation is outside this
// repository's scope; this package exists so the CLI and REPL have a real
// consumer of the checked IR to round-trip through, exercising the type
// annotations the checker/analyzer populate.
package emit

import (
	"fmt"
	"strings"

	"github.com/angellang/angelc/internal/analyzer"
	"github.com/angellang/angelc/internal/ast"
	"github.com/angellang/angelc/internal/types"
)

// Emitter renders declarations using an analyzer's recorded annotations for
// expression types, falling back to "auto" where none was recorded (a
// statement never individually type-checked, e.g. a bare `break`).
type Emitter struct {
	A *analyzer.Analyzer
}

func New(a *analyzer.Analyzer) *Emitter { return &Emitter{A: a} }

// File renders every top-level declaration of file, in source order.
func (em *Emitter) File(file *ast.File) string {
	var b strings.Builder
	for _, d := range file.Decls {
		em.topLevel(&b, d, 0)
		b.WriteString("\n")
	}
	return b.String()
}

func (em *Emitter) topLevel(b *strings.Builder, stmt ast.Stmt, indent int) {
	switch x := stmt.(type) {
	case *ast.FunctionDeclaration:
		em.function(b, x.Name, x.Sig, x.Body, indent)
	case *ast.StructDeclaration:
		em.structDecl(b, x, indent)
	case *ast.AlgebraicDeclaration:
		em.algebraicDecl(b, x, indent)
	case *ast.InterfaceDeclaration:
		fmt.Fprintf(b, "%s// interface %s (no C++ emission; structural)\n", pad(indent), x.Name)
	case *ast.ExtensionDeclaration:
		for _, m := range x.Methods {
			em.function(b, x.Target+"::"+m.Name, m.Sig, m.Body, indent)
		}
	default:
		em.stmt(b, stmt, indent)
	}
}

func (em *Emitter) function(b *strings.Builder, name string, sig *ast.FunctionTypeExpr, body []ast.Stmt, indent int) {
	params := make([]string, len(sig.Params))
	for i, p := range sig.Params {
		params[i] = cppType(p.Type) + " " + p.Name
	}
	fmt.Fprintf(b, "%s%s %s(%s) {\n", pad(indent), cppType(sig.Return), name, strings.Join(params, ", "))
	for _, s := range body {
		em.stmt(b, s, indent+1)
	}
	fmt.Fprintf(b, "%s}\n", pad(indent))
}

func (em *Emitter) structDecl(b *strings.Builder, s *ast.StructDeclaration, indent int) {
	fmt.Fprintf(b, "%sstruct %s {\n", pad(indent), s.Name)
	for _, f := range s.Fields {
		fmt.Fprintf(b, "%s%s %s;\n", pad(indent+1), cppType(f.Type), f.Name)
	}
	for _, init := range s.Inits {
		params := make([]string, len(init.Params))
		for i, p := range init.Params {
			params[i] = cppType(p.Type) + " " + p.Name
		}
		fmt.Fprintf(b, "%s%s(%s) {\n", pad(indent+1), s.Name, strings.Join(params, ", "))
		for _, st := range init.Body {
			em.stmt(b, st, indent+2)
		}
		fmt.Fprintf(b, "%s}\n", pad(indent+1))
	}
	for _, m := range s.Methods {
		em.function(b, m.Name, m.Sig, m.Body, indent+1)
	}
	fmt.Fprintf(b, "%s};\n", pad(indent))
}

func (em *Emitter) algebraicDecl(b *strings.Builder, a *ast.AlgebraicDeclaration, indent int) {
	fmt.Fprintf(b, "%s// algebraic %s: %d constructors\n", pad(indent), a.Name, len(a.Constructors))
	for _, ctor := range a.Constructors {
		em.structDecl(b, ctor, indent)
	}
	for _, m := range a.Methods {
		em.function(b, a.Name+"::"+m.Name, m.Sig, m.Body, indent)
	}
}

func (em *Emitter) stmt(b *strings.Builder, s ast.Stmt, indent int) {
	p := pad(indent)
	switch x := s.(type) {
	case *ast.Decl:
		kw := "auto"
		if t := em.typeOf(x.Value); t != nil {
			kw = cppTypeChecked(t)
		} else if x.Type != nil {
			kw = cppType(x.Type)
		}
		if x.Value != nil {
			fmt.Fprintf(b, "%s%s %s = %s;\n", p, kw, x.Name, em.expr(x.Value))
		} else {
			fmt.Fprintf(b, "%s%s %s;\n", p, kw, x.Name)
		}
	case *ast.ExprStmt:
		fmt.Fprintf(b, "%s%s;\n", p, em.expr(x.X))
	case *ast.Assignment:
		fmt.Fprintf(b, "%s%s %s %s;\n", p, em.expr(x.LHS), x.Op, em.expr(x.RHS))
	case *ast.If:
		em.ifStmt(b, x, indent)
	case *ast.While:
		fmt.Fprintf(b, "%swhile (%s) {\n", p, em.cond(x.Cond))
		for _, s2 := range x.Body {
			em.stmt(b, s2, indent+1)
		}
		fmt.Fprintf(b, "%s}\n", p)
	case *ast.For:
		fmt.Fprintf(b, "%sfor (auto %s : %s) {\n", p, x.ElemName, em.expr(x.Container))
		for _, s2 := range x.Body {
			em.stmt(b, s2, indent+1)
		}
		fmt.Fprintf(b, "%s}\n", p)
	case *ast.Break:
		fmt.Fprintf(b, "%sbreak;\n", p)
	case *ast.Return:
		if x.Value == nil {
			fmt.Fprintf(b, "%sreturn;\n", p)
		} else {
			fmt.Fprintf(b, "%sreturn %s;\n", p, em.expr(x.Value))
		}
	case *ast.InitCall:
		args := make([]string, len(x.Args))
		for i, a := range x.Args {
			args[i] = em.expr(a)
		}
		fmt.Fprintf(b, "%s%s(%s);\n", p, "/*init*/", strings.Join(args, ", "))
	default:
		fmt.Fprintf(b, "%s/* unsupported statement */\n", p)
	}
}

func (em *Emitter) ifStmt(b *strings.Builder, x *ast.If, indent int) {
	p := pad(indent)
	fmt.Fprintf(b, "%sif (%s) {\n", p, em.cond(x.Cond))
	for _, s := range x.Body {
		em.stmt(b, s, indent+1)
	}
	fmt.Fprintf(b, "%s}\n", p)
	for _, elif := range x.Elifs {
		fmt.Fprintf(b, "%selse if (%s) {\n", p, em.cond(elif.Cond))
		for _, s := range elif.Body {
			em.stmt(b, s, indent+1)
		}
		fmt.Fprintf(b, "%s}\n", p)
	}
	if x.Else != nil {
		fmt.Fprintf(b, "%selse {\n", p)
		for _, s := range x.Else {
			em.stmt(b, s, indent+1)
		}
		fmt.Fprintf(b, "%s}\n", p)
	}
}

// cond renders an if/while condition, desugaring the if-let/while-let form
// into the `tmp != nullopt` check its analyzed semantics already imply.
func (em *Emitter) cond(cond ast.Expr) string {
	if d, ok := cond.(*ast.Decl); ok {
		return fmt.Sprintf("%s.has_value()", em.expr(d.Value))
	}
	return em.expr(cond)
}

func (em *Emitter) expr(e ast.Expr) string {
	switch x := e.(type) {
	case *ast.Literal:
		return literalText(x)
	case *ast.Name:
		return x.Member
	case *ast.SpecialName:
		return "this"
	case *ast.Field:
		return fmt.Sprintf("%s.%s", em.expr(x.Base), x.Field)
	case *ast.Subscript:
		return fmt.Sprintf("%s[%s]", em.expr(x.Base), em.expr(x.Index))
	case *ast.BinaryExpression:
		return fmt.Sprintf("(%s %s %s)", em.expr(x.Left), x.Op, em.expr(x.Right))
	case *ast.Cast:
		if bt, ok := x.Type.(*ast.BuiltinType); ok && bt.Name == "String" {
			if x.IsBuiltin {
				return fmt.Sprintf("std::to_string(%s)", em.expr(x.Value))
			}
			return fmt.Sprintf("%s.toString()", em.expr(x.Value))
		}
		return fmt.Sprintf("(%s)(%s)", cppType(x.Type), em.expr(x.Value))
	case *ast.Ref:
		return fmt.Sprintf("&%s", em.expr(x.Value))
	case *ast.Parentheses:
		return fmt.Sprintf("(%s)", em.expr(x.Inner))
	case *ast.FunctionCall:
		args := make([]string, len(x.Args))
		for i, a := range x.Args {
			args[i] = em.expr(a)
		}
		return fmt.Sprintf("%s(%s)", em.expr(x.Path), strings.Join(args, ", "))
	case *ast.MethodCall:
		args := make([]string, len(x.Args))
		for i, a := range x.Args {
			args[i] = em.expr(a)
		}
		return fmt.Sprintf("%s.%s(%s)", em.expr(x.Base), x.Method, strings.Join(args, ", "))
	case *ast.NamedArgument:
		return em.expr(x.Value)
	case *ast.OptionalSomeCall:
		return fmt.Sprintf("std::make_optional(%s)", em.expr(x.Arg))
	case *ast.OptionalSomeValue:
		return fmt.Sprintf("%s.value()", em.expr(x.Base))
	case *ast.OptionalTypeConstructor:
		if x.Ctor == "None" {
			return "std::nullopt"
		}
		return "std::make_optional"
	case *ast.BuiltinFunc:
		return x.Name
	default:
		return "/* expr */"
	}
}

func literalText(l *ast.Literal) string {
	switch l.Kind {
	case ast.StringLit:
		return fmt.Sprintf("%q", l.Raw)
	case ast.CharLit:
		return fmt.Sprintf("'%s'", l.Raw)
	case ast.BoolLit:
		if l.Bool {
			return "true"
		}
		return "false"
	case ast.VectorLit:
		elems := make([]string, len(l.Elems))
		for i, e := range l.Elems {
			elems[i] = exprString(e)
		}
		return "{" + strings.Join(elems, ", ") + "}"
	default:
		return l.Raw
	}
}

// exprString is a standalone fallback for nested literal elements rendered
// outside an Emitter receiver (vector/dict literal elements).
func exprString(e ast.Expr) string {
	if l, ok := e.(*ast.Literal); ok {
		return literalText(l)
	}
	if n, ok := e.(*ast.Name); ok {
		return n.Member
	}
	return "/* expr */"
}

func (em *Emitter) typeOf(e ast.Expr) types.Type {
	if em.A == nil || e == nil {
		return nil
	}
	return em.A.Annotations[e]
}

func pad(indent int) string { return strings.Repeat("  ", indent) }

// cppType renders a written type expression; cppTypeChecked renders a
// resolved type, used for inferred `let`/`var` declarations.
func cppType(te ast.TypeExpr) string {
	if te == nil {
		return "auto"
	}
	switch x := te.(type) {
	case *ast.BuiltinType:
		return builtinCpp(string(x.Name))
	case *ast.NameType:
		return x.Member
	case *ast.VectorType:
		return fmt.Sprintf("std::vector<%s>", cppType(x.Elem))
	case *ast.DictType:
		return fmt.Sprintf("std::map<%s,%s>", cppType(x.Key), cppType(x.Val))
	case *ast.OptionalType:
		return fmt.Sprintf("std::optional<%s>", cppType(x.Elem))
	case *ast.RefType:
		return cppType(x.Elem) + "*"
	case *ast.GenericTypeExpr:
		args := make([]string, len(x.Args))
		for i, a := range x.Args {
			args[i] = cppType(a)
		}
		return fmt.Sprintf("%s<%s>", x.Base.Member, strings.Join(args, ","))
	default:
		return "auto"
	}
}

func cppTypeChecked(t types.Type) string {
	switch x := t.(type) {
	case *types.BuiltinType:
		return builtinCpp(string(x.Name))
	case *types.VectorType:
		return fmt.Sprintf("std::vector<%s>", cppTypeChecked(x.Elem))
	case *types.DictType:
		return fmt.Sprintf("std::map<%s,%s>", cppTypeChecked(x.Key), cppTypeChecked(x.Val))
	case *types.OptionalType:
		return fmt.Sprintf("std::optional<%s>", cppTypeChecked(x.Elem))
	case *types.RefType:
		return cppTypeChecked(x.Elem) + "*"
	case *types.Name:
		return x.Member
	case *types.StructType:
		return x.Name
	case *types.AlgebraicType:
		return x.Name
	case *types.GenericType:
		args := make([]string, len(x.Args))
		for i, a := range x.Args {
			args[i] = cppTypeChecked(a)
		}
		return fmt.Sprintf("%s<%s>", x.Base, strings.Join(args, ","))
	default:
		return "auto"
	}
}

func builtinCpp(name string) string {
	switch name {
	case "I8":
		return "int8_t"
	case "I16":
		return "int16_t"
	case "I32":
		return "int32_t"
	case "I64":
		return "int64_t"
	case "U8":
		return "uint8_t"
	case "U16":
		return "uint16_t"
	case "U32":
		return "uint32_t"
	case "U64":
		return "uint64_t"
	case "Int":
		return "intptr_t"
	case "F32":
		return "float"
	case "F64":
		return "double"
	case "String":
		return "std::string"
	case "Char":
		return "char"
	case "Bool":
		return "bool"
	case "Void":
		return "void"
	default:
		return name
	}
}
