package checker

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angellang/angelc/internal/ast"
	"github.com/angellang/angelc/internal/env"
	"github.com/angellang/angelc/internal/estimator"
	"github.com/angellang/angelc/internal/types"
)

func newChecker() *Checker {
	est := estimator.New()
	return New(est)
}

func intLit(raw string) *ast.Literal { return &ast.Literal{Kind: ast.IntLit, Raw: raw} }

// With no supertype, InferType picks the smallest type in the fixed
// ordering whose range contains the literal's value.
func TestIntegerLiteralPicksSmallestFittingType(t *testing.T) {
	cases := []struct {
		raw  string
		want types.Builtin
	}{
		{"5", types.I8},
		{"200", types.U8},
		{"40000", types.U16},
		{"-40000", types.I32},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.raw, func(t *testing.T) {
			c := newChecker()
			got, _, err := c.InferType(intLit(tc.raw), env.New(), nil, nil)
			require.NoError(t, err)
			if diff := cmp.Diff(&types.BuiltinType{Name: tc.want}, got); diff != "" {
				t.Errorf("InferType(%s) mismatch (-want +got):\n%s", tc.raw, diff)
			}
		})
	}
}

// A literal outside its annotated type's range is a TypeError.
func TestU8OutOfRangeLiteralIsTypeError(t *testing.T) {
	c := newChecker()
	_, _, err := c.InferType(intLit("300"), env.New(), &types.BuiltinType{Name: types.U8}, nil)
	require.Error(t, err)
	cerr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, TypeError, cerr.Kind)
}

// Every built-in pair either unifies to the lattice's least upper bound
// or raises TypeError, consistent with types.Supertypes.
func TestBuiltinSubtypeLatticeRespectsSupertypesTable(t *testing.T) {
	c := newChecker()
	e := env.New()

	got, _, err := c.UnifyTypes(ast.Pos{}, &types.BuiltinType{Name: types.I8}, &types.BuiltinType{Name: types.Object}, e, nil)
	require.NoError(t, err)
	assert.Equal(t, types.Object, got.(*types.BuiltinType).Name)

	_, _, err = c.UnifyTypes(ast.Pos{}, &types.BuiltinType{Name: types.StringT}, &types.BuiltinType{Name: types.I32}, e, nil)
	require.Error(t, err)
	cerr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, TypeError, cerr.Kind)
}

// Once a TemplateType slot is bound it stays bound; a conflicting
// unification is a TypeError rather than a silent rebind.
func TestTemplateSlotNeverOverwritesOnceBound(t *testing.T) {
	c := newChecker()
	e := env.New()
	tv := c.FreshTemplate()

	_, _, err := c.UnifyTypes(ast.Pos{}, tv, &types.BuiltinType{Name: types.I32}, e, nil)
	require.NoError(t, err)

	bound, has := c.resolve(tv.ID)
	require.True(t, has)
	assert.Equal(t, types.I32, bound.(*types.BuiltinType).Name)

	// Unifying the same slot against an unrelated type must fail, not
	// silently rebind.
	_, _, err = c.UnifyTypes(ast.Pos{}, tv, &types.BuiltinType{Name: types.StringT}, e, nil)
	require.Error(t, err)

	// Re-unifying against the already-bound type is a no-op success.
	again, _, err := c.UnifyTypes(ast.Pos{}, tv, &types.BuiltinType{Name: types.I32}, e, nil)
	require.NoError(t, err)
	assert.Equal(t, types.I32, again.(*types.BuiltinType).Name)
}

// Widening within a numeric family unifies to the wider type, whichever
// side of the pair it appears on.
func TestNumericWideningUnifiesToWiderType(t *testing.T) {
	cases := []struct {
		sub, super, want types.Builtin
	}{
		{types.I8, types.I16, types.I16},
		{types.I64, types.I8, types.I64},
		{types.U8, types.U64, types.U64},
		{types.F32, types.F64, types.F64},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(string(tc.sub)+"_"+string(tc.super), func(t *testing.T) {
			c := newChecker()
			got, _, err := c.UnifyTypes(ast.Pos{}, &types.BuiltinType{Name: tc.sub}, &types.BuiltinType{Name: tc.super}, env.New(), nil)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.(*types.BuiltinType).Name)
		})
	}
}

// An unsigned width also converts into the signed widths that can hold it.
func TestUnsignedConvertsIntoWiderSigned(t *testing.T) {
	c := newChecker()
	got, _, err := c.UnifyTypes(ast.Pos{}, &types.BuiltinType{Name: types.U8}, &types.BuiltinType{Name: types.ConvertibleToI16}, env.New(), nil)
	require.NoError(t, err)
	assert.Equal(t, types.ConvertibleToI16, got.(*types.BuiltinType).Name)
}

// An exact-width cast is an identity conversion: every width is convertible
// to itself, so `(I8)(x)` on an I8 operand type-checks.
func TestExactWidthCastIsAccepted(t *testing.T) {
	c := newChecker()
	e := env.New()
	e.AddConstant("x", 1, &types.BuiltinType{Name: types.I8}, nil)
	cst := &ast.Cast{Type: &ast.BuiltinType{Name: ast.TyI8}, Value: &ast.Name{Member: "x"}}

	got, _, err := c.InferType(cst, e, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, types.I8, got.(*types.BuiltinType).Name)
	assert.True(t, cst.IsBuiltin)
}

// Cast.IsBuiltin reflects the operand's type, so a builtin-to-builtin
// cast (here I8 literal -> I16) is marked builtin.
func TestCastFromBuiltinOperandMarksIsBuiltinTrue(t *testing.T) {
	c := newChecker()
	e := env.New()
	cst := &ast.Cast{Type: &ast.BuiltinType{Name: ast.TyI16}, Value: intLit("5")}

	_, _, err := c.InferType(cst, e, nil, nil)
	require.NoError(t, err)
	assert.True(t, cst.IsBuiltin)
}

// TestCastFromNamedOperandMarksIsBuiltinFalse is the regression for the bug
// where cast.IsBuiltin was set from the cast's *target* type instead of the
// operand's: a named type reaching a builtin target only through a
// user-declared ConvertibleToIx method must stay IsBuiltin=false so the
// emitter calls the user conversion instead of emitting a raw numeric cast.
func TestCastFromNamedOperandMarksIsBuiltinFalse(t *testing.T) {
	c := newChecker()
	e := env.New()
	e.AddStruct("S", &types.StructType{
		Name:                  "S",
		ImplementedInterfaces: []types.Builtin{types.ConvertibleToI8},
	})
	e.AddConstant("s", 1, &types.Name{Member: "S"}, nil)

	cst := &ast.Cast{Type: &ast.BuiltinType{Name: ast.TyI8}, Value: &ast.Name{Member: "s"}}

	_, _, err := c.InferType(cst, e, nil, nil)
	require.NoError(t, err)
	assert.False(t, cst.IsBuiltin)
}
