package parser

import (
	"testing"

	"github.com/angellang/angelc/internal/ast"
)

func mustParse(t *testing.T, src string) *ast.File {
	t.Helper()
	file, err := ParseFile(src, "test.angel")
	if err != nil {
		t.Fatalf("ParseFile(%q): %v", src, err)
	}
	return file
}

func TestParseFunctionDeclaration(t *testing.T) {
	src := "fun add(a: I32, b: I32) -> I32:\n    return a + b\n"
	file := mustParse(t, src)
	if len(file.Decls) != 1 {
		t.Fatalf("expected 1 decl, got %d", len(file.Decls))
	}
	fn, ok := file.Decls[0].(*ast.FunctionDeclaration)
	if !ok {
		t.Fatalf("decl is %T, want *ast.FunctionDeclaration", file.Decls[0])
	}
	if fn.Name != "add" {
		t.Fatalf("fn.Name = %q, want add", fn.Name)
	}
	if len(fn.Sig.Params) != 2 || fn.Sig.Params[0].Name != "a" || fn.Sig.Params[1].Name != "b" {
		t.Fatalf("unexpected params: %+v", fn.Sig.Params)
	}
	if len(fn.Body) != 1 {
		t.Fatalf("expected 1 body stmt, got %d", len(fn.Body))
	}
	ret, ok := fn.Body[0].(*ast.Return)
	if !ok {
		t.Fatalf("body[0] is %T, want *ast.Return", fn.Body[0])
	}
	bin, ok := ret.Value.(*ast.BinaryExpression)
	if !ok || bin.Op != "+" {
		t.Fatalf("return value is %#v, want a + binary expr", ret.Value)
	}
}

func TestParsePrecedence(t *testing.T) {
	// "is" binds tighter than comparisons, which bind tighter than *,/,and,or,
	// which bind tighter than +,-, per the re-association table.
	src := "fun f() -> Bool:\n    return a + b * c is D\n"
	file := mustParse(t, src)
	fn := file.Decls[0].(*ast.FunctionDeclaration)
	ret := fn.Body[0].(*ast.Return)
	top, ok := ret.Value.(*ast.BinaryExpression)
	if !ok || top.Op != "+" {
		t.Fatalf("top-level op = %#v, want +", ret.Value)
	}
	rhs, ok := top.Right.(*ast.BinaryExpression)
	if !ok || rhs.Op != "*" {
		t.Fatalf("rhs op = %#v, want *", top.Right)
	}
	innermost, ok := rhs.Right.(*ast.BinaryExpression)
	if !ok || innermost.Op != "is" {
		t.Fatalf("innermost op = %#v, want is", rhs.Right)
	}
}

func TestParseStructDeclaration(t *testing.T) {
	src := "struct Point implements Eq:\n    x: I32\n    _y: I32\n\n    init(x: I32, y: I32):\n        self.x = x\n        self._y = y\n\n    fun sum() -> I32:\n        return self.x + self._y\n"
	file := mustParse(t, src)
	st, ok := file.Decls[0].(*ast.StructDeclaration)
	if !ok {
		t.Fatalf("decl is %T, want *ast.StructDeclaration", file.Decls[0])
	}
	if st.Name != "Point" {
		t.Fatalf("st.Name = %q", st.Name)
	}
	if len(st.Implements) != 1 || st.Implements[0].Member != "Eq" {
		t.Fatalf("unexpected implements: %+v", st.Implements)
	}
	if len(st.Fields) != 2 || st.Fields[1].Visibility != ast.Private {
		t.Fatalf("unexpected fields: %+v", st.Fields)
	}
	if len(st.Inits) != 1 || len(st.Inits[0].Params) != 2 {
		t.Fatalf("unexpected inits: %+v", st.Inits)
	}
	if len(st.Methods) != 1 || st.Methods[0].Name != "sum" {
		t.Fatalf("unexpected methods: %+v", st.Methods)
	}
}

func TestParseAlgebraicDeclaration(t *testing.T) {
	src := "algebraic Shape:\n    Circle:\n        r: F64\n    Rect:\n        w: F64\n        h: F64\n"
	file := mustParse(t, src)
	alg, ok := file.Decls[0].(*ast.AlgebraicDeclaration)
	if !ok {
		t.Fatalf("decl is %T, want *ast.AlgebraicDeclaration", file.Decls[0])
	}
	if len(alg.Constructors) != 2 {
		t.Fatalf("expected 2 constructors, got %d", len(alg.Constructors))
	}
	if alg.Constructors[0].Name != "Circle" || len(alg.Constructors[0].Fields) != 1 {
		t.Fatalf("unexpected Circle constructor: %+v", alg.Constructors[0])
	}
	if alg.Constructors[1].Name != "Rect" || len(alg.Constructors[1].Fields) != 2 {
		t.Fatalf("unexpected Rect constructor: %+v", alg.Constructors[1])
	}
}

func TestParseIfLetWithElse(t *testing.T) {
	src := "fun f(o: I32?) -> I32:\n    if let v = o:\n        return v\n    else:\n        return 0\n"
	file := mustParse(t, src)
	fn := file.Decls[0].(*ast.FunctionDeclaration)
	ifStmt, ok := fn.Body[0].(*ast.If)
	if !ok {
		t.Fatalf("body[0] is %T, want *ast.If", fn.Body[0])
	}
	decl, ok := ifStmt.Cond.(*ast.Decl)
	if !ok || decl.Kind != ast.LetDecl || decl.Name != "v" {
		t.Fatalf("unexpected if-let condition: %#v", ifStmt.Cond)
	}
	if len(ifStmt.Else) != 1 {
		t.Fatalf("expected else branch with 1 stmt, got %d", len(ifStmt.Else))
	}
}

func TestParseCast(t *testing.T) {
	src := "fun f(x: F64) -> I32:\n    return (I32)(x)\n"
	file := mustParse(t, src)
	fn := file.Decls[0].(*ast.FunctionDeclaration)
	ret := fn.Body[0].(*ast.Return)
	cast, ok := ret.Value.(*ast.Cast)
	if !ok {
		t.Fatalf("return value is %T, want *ast.Cast", ret.Value)
	}
	if cast.Type.String() != "I32" {
		t.Fatalf("cast.Type = %s, want I32", cast.Type)
	}
}

func TestParseParenthesizedNotMistakenForCast(t *testing.T) {
	src := "fun f(x: I32) -> I32:\n    return (x + 1)\n"
	file := mustParse(t, src)
	fn := file.Decls[0].(*ast.FunctionDeclaration)
	ret := fn.Body[0].(*ast.Return)
	paren, ok := ret.Value.(*ast.Parentheses)
	if !ok {
		t.Fatalf("return value is %T, want *ast.Parentheses", ret.Value)
	}
	if _, ok := paren.Inner.(*ast.BinaryExpression); !ok {
		t.Fatalf("paren.Inner is %T, want *ast.BinaryExpression", paren.Inner)
	}
}

func TestParseMethodCallAndFieldAsFunctionCall(t *testing.T) {
	// The parser never distinguishes a method call from a plain call
	// wrapping a field access; that's the clarifier's job.
	src := "fun f(o: Box) -> I32:\n    return o.get(1)\n"
	file := mustParse(t, src)
	fn := file.Decls[0].(*ast.FunctionDeclaration)
	ret := fn.Body[0].(*ast.Return)
	call, ok := ret.Value.(*ast.FunctionCall)
	if !ok {
		t.Fatalf("return value is %T, want *ast.FunctionCall", ret.Value)
	}
	field, ok := call.Path.(*ast.Field)
	if !ok || field.Field != "get" {
		t.Fatalf("call.Path = %#v, want Field{Field: get}", call.Path)
	}
}

func TestParseForAndAssignment(t *testing.T) {
	src := "fun f(v: Vector<I32>):\n    var total: I32 = 0\n    for x in v:\n        total += x\n"
	file := mustParse(t, src)
	fn := file.Decls[0].(*ast.FunctionDeclaration)
	if len(fn.Body) != 2 {
		t.Fatalf("expected 2 stmts, got %d", len(fn.Body))
	}
	forStmt, ok := fn.Body[1].(*ast.For)
	if !ok {
		t.Fatalf("body[1] is %T, want *ast.For", fn.Body[1])
	}
	assign, ok := forStmt.Body[0].(*ast.Assignment)
	if !ok || assign.Op != "+=" {
		t.Fatalf("for body[0] = %#v, want += assignment", forStmt.Body[0])
	}
}
