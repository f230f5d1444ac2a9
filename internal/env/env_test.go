package env

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angellang/angelc/internal/types"
)

func TestGetFindsInnermostFrame(t *testing.T) {
	e := New()
	e.AddConstant("x", 1, &types.BuiltinType{Name: types.I32}, nil)

	e.Push()
	e.AddConstant("x", 2, &types.BuiltinType{Name: types.StringT}, nil)

	ent, err := e.Get("x")
	require.NoError(t, err)
	decl, ok := ent.(*DeclEntry)
	require.True(t, ok)
	assert.Equal(t, 2, decl.Line, "expected inner binding")

	e.Pop()
	ent, err = e.Get("x")
	require.NoError(t, err)
	decl = ent.(*DeclEntry)
	assert.Equal(t, 1, decl.Line, "expected outer binding after pop")
}

func TestGetMissingNameErrors(t *testing.T) {
	e := New()
	_, err := e.Get("nope")
	require.Error(t, err)
	_, ok := err.(*NotFoundError)
	assert.True(t, ok, "expected *NotFoundError, got %T", err)
}

func TestConstantCannotBeSetTwice(t *testing.T) {
	decl := New().AddConstant("x", 1, &types.BuiltinType{Name: types.I32}, nil)
	require.NoError(t, decl.SetValue(nil))
	assert.Equal(t, ErrConstantReassignment, decl.SetValue(nil))
}

func TestAddInterfaceComputesTransitiveInheritance(t *testing.T) {
	e := New()
	e.AddInterface("Named", nil, map[string]types.Type{"name": &types.BuiltinType{Name: types.StringT}}, nil, nil)

	lookup := func(n string) (*InterfaceEntry, bool) {
		ent, ok := e.Lookup(n)
		if !ok {
			return nil, false
		}
		ie, ok := ent.(*InterfaceEntry)
		return ie, ok
	}

	child := e.AddInterface("Labeled", []string{"Named"}, map[string]types.Type{"label": &types.BuiltinType{Name: types.StringT}}, nil, lookup)

	inherited, ok := child.InheritedFields["name"]
	require.True(t, ok, "expected Labeled to inherit field %q from Named", "name")
	assert.Equal(t, "Named", inherited.Origin)

	want := &types.BuiltinType{Name: types.StringT}
	field, ok := child.Fields["label"]
	require.True(t, ok, "expected Labeled's own field %q", "label")
	if diff := cmp.Diff(want, field); diff != "" {
		t.Fatalf("label field type mismatch (-want +got):\n%s", diff)
	}
}

func TestParentStackTracksNestedDeclarations(t *testing.T) {
	e := New()
	e.PushParent("Outer")
	e.PushParent("Inner")

	assert.Equal(t, "Inner", e.CurrentParent())
	assert.Equal(t, []string{"Outer", "Inner"}, e.ParentChain())

	e.PopParent()
	assert.Equal(t, "Outer", e.CurrentParent())
}
