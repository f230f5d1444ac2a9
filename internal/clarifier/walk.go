package clarifier

import "github.com/angellang/angelc/internal/ast"

// expr recurses into every child field of every Expr variant, then applies
// the Name and Field/FunctionCall rewrites on the way back up.
func (c *Clarifier) expr(e ast.Expr) ast.Expr {
	if e == nil {
		return nil
	}
	switch x := e.(type) {
	case *ast.Literal:
		for i, el := range x.Elems {
			x.Elems[i] = c.expr(el)
		}
		for i, pr := range x.Pairs {
			x.Pairs[i] = ast.DictPair{Key: c.expr(pr.Key), Val: c.expr(pr.Val)}
		}
		return x
	case *ast.Name:
		return c.clarifyName(x)
	case *ast.SpecialName:
		return x
	case *ast.BuiltinFunc:
		return x
	case *ast.OptionalTypeConstructor:
		return x
	case *ast.OptionalSomeCall:
		x.Arg = c.expr(x.Arg)
		return x
	case *ast.OptionalSomeValue:
		x.Base = c.expr(x.Base)
		return x
	case *ast.Field:
		x.Base = c.expr(x.Base)
		// A field on the builtin Optional type is a constructor reference.
		if baseName, ok := x.Base.(*ast.Name); ok && baseName.Member == "Optional" {
			return &ast.OptionalTypeConstructor{Ctor: x.Field, Pos: x.Pos}
		}
		return x
	case *ast.Subscript:
		x.Base = c.expr(x.Base)
		x.Index = c.expr(x.Index)
		return x
	case *ast.BinaryExpression:
		x.Left = c.expr(x.Left)
		x.Right = c.expr(x.Right)
		return x
	case *ast.Cast:
		x.Type = c.typeExpr(x.Type)
		x.Value = c.expr(x.Value)
		return x
	case *ast.Ref:
		x.Value = c.expr(x.Value)
		return x
	case *ast.Parentheses:
		x.Inner = c.expr(x.Inner)
		return x
	case *ast.FunctionCall:
		x.Path = c.expr(x.Path)
		for i, a := range x.Args {
			x.Args[i] = c.expr(a)
		}
		// Calls on Optional.Some and on fields become their own node kinds.
		if ctor, ok := x.Path.(*ast.OptionalTypeConstructor); ok && ctor.Ctor == "Some" {
			var arg ast.Expr
			if len(x.Args) > 0 {
				arg = x.Args[0]
			}
			return &ast.OptionalSomeCall{Arg: arg, Pos: x.Pos}
		}
		if field, ok := x.Path.(*ast.Field); ok {
			return &ast.MethodCall{Base: field.Base, Method: field.Field, Args: x.Args, Pos: x.Pos}
		}
		return x
	case *ast.MethodCall:
		x.Base = c.expr(x.Base)
		for i, a := range x.Args {
			x.Args[i] = c.expr(a)
		}
		return x
	case *ast.NamedArgument:
		x.Value = c.expr(x.Value)
		return x
	case *ast.Decl:
		c.decl(x)
		return x
	default:
		return e
	}
}

// decl clarifies a let/var binding. Name is mangled like any other
// value-level identifier: it is bound under this form and later references
// go through clarifyName, which produces the same mangled spelling.
func (c *Clarifier) decl(d *ast.Decl) {
	if d.Type != nil {
		d.Type = c.typeExpr(d.Type)
	}
	d.Value = c.expr(d.Value)
	d.Name = c.mangled(d.Name)
}

// typeExpr recurses into a type expression's children; type names
// themselves are never mangled; mangling only applies to value-level
// Names, keeping type and term namespaces separate.
func (c *Clarifier) typeExpr(t ast.TypeExpr) ast.TypeExpr {
	if t == nil {
		return nil
	}
	switch x := t.(type) {
	case *ast.BuiltinType:
		return x
	case *ast.NameType:
		return x
	case *ast.VectorType:
		x.Elem = c.typeExpr(x.Elem)
		return x
	case *ast.DictType:
		x.Key = c.typeExpr(x.Key)
		x.Val = c.typeExpr(x.Val)
		return x
	case *ast.OptionalType:
		x.Elem = c.typeExpr(x.Elem)
		return x
	case *ast.RefType:
		x.Elem = c.typeExpr(x.Elem)
		return x
	case *ast.GenericTypeExpr:
		for i, a := range x.Args {
			x.Args[i] = c.typeExpr(a)
		}
		return x
	case *ast.FunctionTypeExpr:
		c.functionTypeExpr(x)
		return x
	default:
		return t
	}
}

// functionTypeExpr clarifies a signature's parameter types/defaults and
// where-clauses. Parameter names are mangled: they are local bindings
// referenced inside the body through ordinary (mangled) Name nodes.
func (c *Clarifier) functionTypeExpr(sig *ast.FunctionTypeExpr) {
	for i, p := range sig.Params {
		sig.Params[i].Type = c.typeExpr(p.Type)
		if p.Default != nil {
			sig.Params[i].Default = c.expr(p.Default)
		}
		sig.Params[i].Name = c.mangled(p.Name)
	}
	sig.Return = c.typeExpr(sig.Return)
	// Where-clauses name type parameters and interfaces, both type-level
	// names; neither side is mangled (where-clause extraction matches them against
	// unmangled TypeParams/interface names).
}

// stmt recurses into every child field of every Stmt variant.
func (c *Clarifier) stmt(s ast.Stmt) ast.Stmt {
	if s == nil {
		return nil
	}
	switch x := s.(type) {
	case *ast.Decl:
		c.decl(x)
		return x
	case *ast.ExprStmt:
		x.X = c.expr(x.X)
		return x
	case *ast.Assignment:
		x.LHS = c.expr(x.LHS)
		x.RHS = c.expr(x.RHS)
		return x
	case *ast.If:
		x.Cond = c.expr(x.Cond)
		c.block(x.Body)
		for i := range x.Elifs {
			x.Elifs[i].Cond = c.expr(x.Elifs[i].Cond)
			c.block(x.Elifs[i].Body)
		}
		c.block(x.Else)
		return x
	case *ast.While:
		x.Cond = c.expr(x.Cond)
		c.block(x.Body)
		return x
	case *ast.For:
		x.Container = c.expr(x.Container)
		c.block(x.Body)
		return x
	case *ast.Break:
		return x
	case *ast.Return:
		x.Value = c.expr(x.Value)
		return x
	case *ast.InitCall:
		for i, a := range x.Args {
			x.Args[i] = c.expr(a)
		}
		return x
	case *ast.FunctionDeclaration:
		c.functionTypeExpr(x.Sig)
		c.block(x.Body)
		return x
	case *ast.MethodDeclaration:
		c.functionTypeExpr(x.Sig)
		c.block(x.Body)
		return x
	case *ast.InitDeclaration:
		for i, p := range x.Params {
			x.Params[i].Type = c.typeExpr(p.Type)
			if p.Default != nil {
				x.Params[i].Default = c.expr(p.Default)
			}
			x.Params[i].Name = c.mangled(p.Name)
		}
		c.block(x.Body)
		return x
	case *ast.FieldDeclaration:
		x.Type = c.typeExpr(x.Type)
		x.Default = c.expr(x.Default)
		return x
	case *ast.StructDeclaration:
		for i, f := range x.Fields {
			x.Fields[i] = c.stmt(f).(*ast.FieldDeclaration)
		}
		for i, init := range x.Inits {
			x.Inits[i] = c.stmt(init).(*ast.InitDeclaration)
		}
		for i, m := range x.Methods {
			x.Methods[i] = c.stmt(m).(*ast.MethodDeclaration)
		}
		// Where is left untouched for the same reason as functionTypeExpr's.
		return x
	case *ast.AlgebraicDeclaration:
		for i, ctor := range x.Constructors {
			x.Constructors[i] = c.stmt(ctor).(*ast.StructDeclaration)
		}
		for i, m := range x.Methods {
			x.Methods[i] = c.stmt(m).(*ast.MethodDeclaration)
		}
		return x
	case *ast.InterfaceDeclaration:
		for i, f := range x.Fields {
			x.Fields[i] = c.stmt(f).(*ast.FieldDeclaration)
		}
		for i, m := range x.Methods {
			if m.Body != nil {
				x.Methods[i] = c.stmt(m).(*ast.MethodDeclaration)
			} else {
				c.functionTypeExpr(m.Sig)
			}
		}
		return x
	case *ast.ExtensionDeclaration:
		for i, m := range x.Methods {
			x.Methods[i] = c.stmt(m).(*ast.MethodDeclaration)
		}
		return x
	default:
		return s
	}
}

func (c *Clarifier) block(stmts []ast.Stmt) {
	for i, s := range stmts {
		stmts[i] = c.stmt(s)
	}
}
