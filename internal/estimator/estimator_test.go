package estimator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angellang/angelc/internal/ast"
	"github.com/angellang/angelc/internal/env"
	"github.com/angellang/angelc/internal/parser"
	"github.com/angellang/angelc/internal/types"
)

func parseExpr(t *testing.T, src string) ast.Expr {
	t.Helper()
	file, err := parser.ParseFile(src+"\n", "test.angel")
	require.NoError(t, err, "ParseFile")
	stmt, ok := file.Decls[0].(*ast.ExprStmt)
	require.Truef(t, ok, "expected a bare expression statement, got %T", file.Decls[0])
	return stmt.X
}

func TestEstimateArithmeticPicksSmallestIntType(t *testing.T) {
	es := New()
	v, err := es.Estimate(parseExpr(t, "1 + 2"), env.New())
	require.NoError(t, err)
	iv, ok := v.(IntValue)
	require.True(t, ok, "expected IntValue, got %T", v)
	assert.Equal(t, int64(3), iv.V)
	assert.Equal(t, types.I8, iv.Type)
}

func TestEstimateStringConcatenation(t *testing.T) {
	es := New()
	v, err := es.Estimate(parseExpr(t, `"foo" + "bar"`), env.New())
	require.NoError(t, err)
	sv, ok := v.(StringValue)
	require.True(t, ok)
	assert.Equal(t, "foobar", sv.V)
}

func TestEstimateComparisonProducesBool(t *testing.T) {
	es := New()
	v, err := es.Estimate(parseExpr(t, "3 > 2"), env.New())
	require.NoError(t, err)
	bv, ok := v.(BoolValue)
	require.True(t, ok)
	assert.True(t, bv.V)
}

func TestEstimateUserFunctionCallBindsArguments(t *testing.T) {
	es := New()
	e := env.New()
	e.AddFunction("double", &env.FunctionEntry{
		Sig: &types.FunctionType{
			Params: []types.Arg{{Name: "x", Type: &types.BuiltinType{Name: types.I8}}},
			Return: &types.BuiltinType{Name: types.I8},
		},
		Body: []ast.Stmt{&ast.Return{Value: &ast.BinaryExpression{
			Left:  &ast.Name{Member: "x"},
			Op:    "+",
			Right: &ast.Name{Member: "x"},
		}}},
		SavedEnv: e.Snapshot(),
	})

	v, err := es.Estimate(parseExpr(t, "double(21)"), e)
	require.NoError(t, err)
	iv, ok := v.(IntValue)
	require.Truef(t, ok, "expected IntValue, got %T", v)
	assert.Equal(t, int64(42), iv.V)
}

func TestEstimateCallArityMismatchErrors(t *testing.T) {
	es := New()
	e := env.New()
	e.AddFunction("id", &env.FunctionEntry{
		Sig: &types.FunctionType{
			Params: []types.Arg{{Name: "x", Type: &types.BuiltinType{Name: types.I8}}},
			Return: &types.BuiltinType{Name: types.I8},
		},
		Body:     []ast.Stmt{&ast.Return{Value: &ast.Name{Member: "x"}}},
		SavedEnv: e.Snapshot(),
	})

	_, err := es.Estimate(parseExpr(t, "id(1, 2)"), e)
	assert.Error(t, err)
}

func TestReadBuiltinEstimatesToDynamicString(t *testing.T) {
	es := New()
	v, err := es.Estimate(&ast.FunctionCall{Path: &ast.BuiltinFunc{Name: "read"}}, env.New())
	require.NoError(t, err)
	dv, ok := v.(DynamicValue)
	require.Truef(t, ok, "expected DynamicValue, got %T", v)
	assert.Equal(t, "String", dv.Type.String())
}

func TestDynamicValueArithmeticStaysDynamic(t *testing.T) {
	es := New()
	e := env.New()
	decl := e.AddConstant("n", 1, nil, nil)
	require.NoError(t, decl.SetValue(DynamicValue{Type: &types.BuiltinType{Name: types.I32}}))
	v, err := es.Estimate(parseExpr(t, "1 + n"), e)
	require.NoError(t, err)
	_, ok := v.(DynamicValue)
	assert.Truef(t, ok, "expected DynamicValue, got %T", v)
}

func TestEstimateNameReadsFromEnv(t *testing.T) {
	es := New()
	e := env.New()
	decl := e.AddConstant("x", 1, nil, nil)
	require.NoError(t, decl.SetValue(IntValue{V: 41}))
	v, err := es.Estimate(parseExpr(t, "x + 1"), e)
	require.NoError(t, err)
	iv, ok := v.(IntValue)
	require.True(t, ok)
	assert.Equal(t, int64(42), iv.V)
}
