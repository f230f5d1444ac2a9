package clarifier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angellang/angelc/internal/ast"
	"github.com/angellang/angelc/internal/parser"
)

func clarify(t *testing.T, src string, mangle bool) *ast.File {
	t.Helper()
	file, err := parser.ParseFile(src, "test.angel")
	require.NoError(t, err, "ParseFile")
	return New(src, mangle).ClarifyFile(file)
}

func TestUserNameIsMangledWhenEnabled(t *testing.T) {
	file := clarify(t, "let counter: I32 = 1\n", true)
	decl, ok := file.Decls[0].(*ast.Decl)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(decl.Name, "angel_"))
	assert.True(t, strings.HasSuffix(decl.Name, "_counter"))
}

func TestUserNameIsUnmangledInReplMode(t *testing.T) {
	file := clarify(t, "let counter: I32 = 1\n", false)
	decl := file.Decls[0].(*ast.Decl)
	assert.Equal(t, "counter", decl.Name)
}

func TestBuiltinFuncNameIsNeverMangled(t *testing.T) {
	file := clarify(t, "print(1)\n", true)
	stmt, ok := file.Decls[0].(*ast.ExprStmt)
	require.True(t, ok)
	call, ok := stmt.X.(*ast.FunctionCall)
	require.True(t, ok)
	_, ok = call.Path.(*ast.BuiltinFunc)
	assert.True(t, ok, "expected print to clarify to *ast.BuiltinFunc, got %T", call.Path)
}

func TestSelfClarifiesToSpecialName(t *testing.T) {
	file := clarify(t, "self\n", true)
	stmt := file.Decls[0].(*ast.ExprStmt)
	_, ok := stmt.X.(*ast.SpecialName)
	assert.True(t, ok, "expected self to clarify to *ast.SpecialName, got %T", stmt.X)
}

func TestBoolLiteralsClarifyToLiteralNodes(t *testing.T) {
	file := clarify(t, "true\n", true)
	stmt := file.Decls[0].(*ast.ExprStmt)
	lit, ok := stmt.X.(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, ast.BoolLit, lit.Kind)
	assert.True(t, lit.Bool)
}

func TestSameSourceProducesSameMangledHash(t *testing.T) {
	src := "let counter: I32 = 1\n"
	a := clarify(t, src, true).Decls[0].(*ast.Decl).Name
	b := clarify(t, src, true).Decls[0].(*ast.Decl).Name
	assert.Equal(t, a, b, "expected deterministic mangling for identical source")
}

func TestIsBuiltinTypeNameIsCaseInsensitive(t *testing.T) {
	assert.True(t, isBuiltinTypeName("String"))
	assert.True(t, isBuiltinTypeName("string"))
	assert.True(t, isBuiltinTypeName("STRING"))
	assert.False(t, isBuiltinTypeName("Stringly"))
}
