package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSatisfiesBuiltinDirectAndThroughParents(t *testing.T) {
	assert.True(t, SatisfiesBuiltin([]Builtin{Addable}, Addable))

	// ArithmeticObject inherits the four operator interfaces, so a type
	// implementing it also answers `is Addable`.
	assert.True(t, SatisfiesBuiltin([]Builtin{ArithmeticObject}, Addable))
	assert.True(t, SatisfiesBuiltin([]Builtin{ArithmeticObject}, Divisible))

	// The reverse never holds: Addable alone is not ArithmeticObject.
	assert.False(t, SatisfiesBuiltin([]Builtin{Addable}, ArithmeticObject))
	assert.False(t, SatisfiesBuiltin(nil, Addable))
}

func TestBuiltinInterfaceCatalogueMembers(t *testing.T) {
	add := BuiltinInterfaces[Addable]
	require.Len(t, add.Methods, 1)
	assert.Equal(t, "__add__", add.Methods[0].Name)
	require.Len(t, add.Methods[0].Sig.Params, 1)
	assert.Equal(t, SelfT, add.Methods[0].Sig.Params[0].Type.(*BuiltinType).Name)
	assert.Equal(t, SelfT, add.Methods[0].Sig.Return.(*BuiltinType).Name)

	conv := BuiltinInterfaces[ConvertibleToString]
	require.Len(t, conv.Methods, 1)
	assert.Equal(t, "as", conv.Methods[0].Name)
	assert.Empty(t, conv.Methods[0].Sig.Params)

	arith := BuiltinInterfaces[ArithmeticObject]
	assert.ElementsMatch(t, []Builtin{Addable, Subtractable, Multipliable, Divisible}, arith.Parents)
	assert.Empty(t, arith.Methods)
}

func TestIsBuiltinInterface(t *testing.T) {
	assert.True(t, IsBuiltinInterface(Eq))
	assert.True(t, IsBuiltinInterface(ConvertibleToU32))
	assert.False(t, IsBuiltinInterface(I8))
	assert.False(t, IsBuiltinInterface(StringT))
}

func TestSupertypesChainIsTransitive(t *testing.T) {
	// Every finite numeric type's supertype list contains the full
	// transitive closure of its family chain: the wider types themselves,
	// the conversion interfaces (its own width included), and I8 reaches
	// I64 directly.
	has := func(row Builtin, want Builtin) bool {
		for _, s := range Supertypes[row] {
			if s == want {
				return true
			}
		}
		return false
	}
	assert.True(t, has(I8, I16), "I8's supertypes should include I16")
	assert.True(t, has(I8, I64), "I8's supertypes should include I64")
	assert.True(t, has(I8, ConvertibleToI8), "I8's supertypes should include ConvertibleToI8")
	assert.True(t, has(I8, ConvertibleToI64), "I8's supertypes should include ConvertibleToI64")
	assert.True(t, has(U8, U64), "U8's supertypes should include U64")
	assert.True(t, has(U8, ConvertibleToI16), "U8's supertypes should include ConvertibleToI16")
	assert.True(t, has(F32, F64), "F32's supertypes should include F64")
	assert.False(t, has(I64, I8), "widening is one-directional")
}
