package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angellang/angelc/internal/checker"
	"github.com/angellang/angelc/internal/clarifier"
	"github.com/angellang/angelc/internal/env"
	"github.com/angellang/angelc/internal/estimator"
	"github.com/angellang/angelc/internal/parser"
)

// analyze runs src through the full pipeline (parse, clarify, analyze) with
// mangling disabled, mirroring REPL mode so names stay predictable in
// assertions.
func analyze(t *testing.T, src string) (*Analyzer, *env.Env, error) {
	t.Helper()
	file, err := parser.ParseFile(src, "test.angel")
	require.NoError(t, err, "ParseFile")
	file = clarifier.New(src, false).ClarifyFile(file)
	est := estimator.New()
	chk := checker.New(est)
	a := New(chk, est)
	e := env.New()
	return a, e, a.AnalyzeFile(file, e)
}

func checkerErr(t *testing.T, err error) *checker.Error {
	t.Helper()
	require.Error(t, err)
	cerr, ok := err.(*checker.Error)
	require.Truef(t, ok, "got %#v, want *checker.Error", err)
	return cerr
}

func TestIntegerLiteralNarrowsToSmallestFit(t *testing.T) {
	_, e, err := analyze(t, "let x: U8 = 200\n")
	require.NoError(t, err)
	ent, ok := e.Lookup("x")
	require.True(t, ok)
	decl := ent.(*env.DeclEntry)
	assert.Equal(t, "U8", decl.Type.String())
}

func TestU8OutOfRangeIsError(t *testing.T) {
	_, _, err := analyze(t, "let x: U8 = 300\n")
	assert.Error(t, err, "expected a range error for U8 = 300")
}

func TestDefaultInitSynthesis(t *testing.T) {
	src := "struct Point:\n    x: I32\n    y: I32\n"
	_, e, err := analyze(t, src)
	require.NoError(t, err)
	ent, ok := e.Lookup("Point")
	require.True(t, ok)
	se := ent.(*env.StructEntry)
	require.Len(t, se.Inits, 1, "expected a synthesized default init")
	assert.Len(t, se.Inits[0].Params, 2)
}

func TestPrivateFieldWithoutDefaultAndNoInitErrors(t *testing.T) {
	src := "struct Point:\n    x: I32\n    _secret: I32\n"
	_, _, err := analyze(t, src)
	cerr := checkerErr(t, err)
	assert.Equal(t, checker.PrivateFieldsNotInitializedAndNoInit, cerr.Kind)
}

func TestMissingInterfaceMemberIsReported(t *testing.T) {
	src := "interface Named:\n    name: String\n\nstruct Point implements Named:\n    x: I32\n"
	_, _, err := analyze(t, src)
	cerr := checkerErr(t, err)
	assert.Equal(t, checker.MissingInterfaceMember, cerr.Kind)
}

func TestInterfaceConformanceSatisfied(t *testing.T) {
	src := "interface Named:\n    name: String\n\nstruct Point implements Named:\n    name: String\n    x: I32\n"
	_, _, err := analyze(t, src)
	assert.NoError(t, err)
}

func TestGenericWhereClauseSatisfied(t *testing.T) {
	src := "fun describe<T>(x: T) -> String where T is ConvertibleToString:\n    return \"ok\"\n\nfun main() -> Void:\n    describe(1)\n"
	_, _, err := analyze(t, src)
	assert.NoError(t, err)
}

func TestGenericWhereClauseUnsatisfiedErrors(t *testing.T) {
	src := "struct Box:\n    v: I32\n\nfun describe<T>(x: T) -> String where T is ConvertibleToString:\n    return \"ok\"\n\nfun main() -> Void:\n    describe(Box(v: 1))\n"
	_, _, err := analyze(t, src)
	cerr := checkerErr(t, err)
	assert.Equal(t, checker.UnsatisfiedWhereClause, cerr.Kind)
}

func TestIfLetBindsUnwrappedOptional(t *testing.T) {
	src := "fun f(x: I32?) -> I32:\n    if let y = x:\n        return y\n    return 0\n"
	_, _, err := analyze(t, src)
	assert.NoError(t, err)
}

func TestWideningAssignmentAcrossIntegerWidths(t *testing.T) {
	src := "let small: I8 = 1\nlet wide: I64 = small\n"
	_, e, err := analyze(t, src)
	require.NoError(t, err)
	ent, ok := e.Lookup("wide")
	require.True(t, ok)
	assert.Equal(t, "I64", ent.(*env.DeclEntry).Type.String())
}

func TestDivisionByZeroInConstantInitializer(t *testing.T) {
	_, _, err := analyze(t, "let x = 1 / 0\n")
	cerr := checkerErr(t, err)
	assert.Equal(t, checker.DivByZero, cerr.Kind)
}

func TestBuiltinInterfaceMissingOperatorMethod(t *testing.T) {
	src := "struct Vec implements Addable:\n    x: I32\n"
	_, _, err := analyze(t, src)
	cerr := checkerErr(t, err)
	assert.Equal(t, checker.MissingInterfaceMember, cerr.Kind)
	assert.Equal(t, "__add__", cerr.Member)
}

func TestBuiltinInterfaceOperatorSatisfied(t *testing.T) {
	src := "struct Vec implements Addable:\n" +
		"    x: I32\n\n" +
		"    fun __add__(other: Vec) -> Vec:\n" +
		"        return Vec(x: 1)\n"
	_, _, err := analyze(t, src)
	assert.NoError(t, err)
}

func TestArithmeticObjectDemandsEveryOperator(t *testing.T) {
	src := "struct Vec implements ArithmeticObject:\n" +
		"    x: I32\n\n" +
		"    fun __add__(other: Vec) -> Vec:\n" +
		"        return Vec(x: 1)\n"
	_, _, err := analyze(t, src)
	cerr := checkerErr(t, err)
	assert.Equal(t, checker.MissingInterfaceMember, cerr.Kind)
	assert.Equal(t, "Subtractable", cerr.Origin, "missing member should carry its origin interface")
}

func TestImplementedBuiltinInterfaceSatisfiesWhereClause(t *testing.T) {
	src := "struct Vec implements Subtractable:\n" +
		"    x: I32\n\n" +
		"    fun __sub__(other: Vec) -> Vec:\n" +
		"        return Vec(x: 1)\n\n" +
		"fun diff<T>(a: T, b: T) -> T where T is Subtractable:\n" +
		"    return a\n\n" +
		"fun main() -> Void:\n" +
		"    diff(Vec(x: 1), Vec(x: 2))\n"
	_, _, err := analyze(t, src)
	assert.NoError(t, err)
}

func TestInstanceEqualityDispatchesUserEq(t *testing.T) {
	src := "struct P:\n" +
		"    v: I8\n\n" +
		"    fun __eq__(other: P) -> Bool:\n" +
		"        return true\n\n" +
		"let a = P(v: 1)\n" +
		"let b = P(v: 2)\n" +
		"let c = a == b\n"
	_, e, err := analyze(t, src)
	require.NoError(t, err)
	ent, ok := e.Lookup("c")
	require.True(t, ok)
	decl := ent.(*env.DeclEntry)
	bv, ok := decl.Estimated.(estimator.BoolValue)
	require.Truef(t, ok, "expected BoolValue, got %T", decl.Estimated)
	assert.True(t, bv.V, "__eq__ body returns true")
}

// TestMangledReferencesResolveDeclarations runs with mangling on, the
// file-mode default: value-position references come out mangled while
// function/struct declarations register under their source names, so the
// lookup fallback has to bridge the two.
func TestMangledReferencesResolveDeclarations(t *testing.T) {
	src := "fun answer() -> I8:\n    return 42\n\nlet x = answer()\n"
	file, err := parser.ParseFile(src, "test.angel")
	require.NoError(t, err)
	file = clarifier.New(src, true).ClarifyFile(file)
	est := estimator.New()
	chk := checker.New(est)
	a := New(chk, est)
	require.NoError(t, a.AnalyzeFile(file, env.New()))
}
