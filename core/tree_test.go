package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/configx/core"
)

func TestSetAndGetLeaf(t *testing.T) {
	tree := core.NewTree()
	require.NoError(t, tree.Set([]string{"app", "ui", "theme"}, core.Str("dark")))

	got, err := tree.Get([]string{"app", "ui", "theme"})
	require.NoError(t, err)
	assert.Equal(t, "dark", got)
}

func TestGetInteriorProjection(t *testing.T) {
	tree := core.NewTree()
	require.NoError(t, tree.Set([]string{"a", "b", "c"}, core.Str("x")))

	got, err := tree.Get([]string{"a"})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"b": map[string]interface{}{"c": "x"}}, got)
}

func TestGetMissingPathIsPathNotFound(t *testing.T) {
	tree := core.NewTree()
	_, err := tree.Get([]string{"app", "ui", "missing"})
	require.Error(t, err)
	assert.True(t, core.Is(err, core.KindPathNotFound))
}

func TestSafeGetIsTotal(t *testing.T) {
	tree := core.NewTree()
	assert.Nil(t, tree.SafeGet([]string{"app", "ui", "missing"}))

	require.NoError(t, tree.Set([]string{"app", "ui", "theme"}, core.Str("dark")))
	assert.Equal(t, "dark", tree.SafeGet([]string{"app", "ui", "theme"}))

	require.NoError(t, tree.Set([]string{"a", "b", "c"}, core.Str("x")))
	assert.Equal(t, map[string]interface{}{"c": "x"}, tree.SafeGet([]string{"a", "b"}))
}

func TestDeleteSubtreeDoesNotAutoPrune(t *testing.T) {
	tree := core.NewTree()
	require.NoError(t, tree.Set([]string{"a", "b", "c"}, core.Str("x")))
	require.NoError(t, tree.Delete([]string{"a", "b"}))

	got, err := tree.Get([]string{"a"})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{}, got)
}

func TestDeleteOfDeleteIsPathNotFound(t *testing.T) {
	tree := core.NewTree()
	require.NoError(t, tree.Set([]string{"a", "b"}, core.Str("x")))
	require.NoError(t, tree.Delete([]string{"a", "b"}))

	err := tree.Delete([]string{"a", "b"})
	require.Error(t, err)
	assert.True(t, core.Is(err, core.KindPathNotFound))
}

func TestIllegalOverwriteDemotingInterior(t *testing.T) {
	tree := core.NewTree()
	require.NoError(t, tree.Set([]string{"a", "b", "c"}, core.Str("x")))

	err := tree.Set([]string{"a", "b"}, core.Str("y"))
	require.Error(t, err)
	assert.True(t, core.Is(err, core.KindInvalidOverwrite))
}

func TestIllegalOverwriteDescendingIntoScalar(t *testing.T) {
	tree := core.NewTree()
	require.NoError(t, tree.Set([]string{"a", "b"}, core.Str("x")))

	err := tree.Set([]string{"a", "b", "c"}, core.Str("y"))
	require.Error(t, err)
	assert.True(t, core.Is(err, core.KindInvalidOverwrite))
}

func TestOverwriteIdempotence(t *testing.T) {
	a := core.NewTree()
	b := core.NewTree()

	require.NoError(t, a.Set([]string{"a", "b"}, core.Str("x")))

	require.NoError(t, b.Set([]string{"a", "b"}, core.Str("x")))
	require.NoError(t, b.Set([]string{"a", "b"}, core.Str("x")))

	gotA, err := a.Get([]string{"a", "b"})
	require.NoError(t, err)
	gotB, err := b.Get([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, gotA, gotB)
}

func TestExists(t *testing.T) {
	tree := core.NewTree()
	assert.False(t, tree.Exists([]string{"a", "b"}))
	require.NoError(t, tree.Set([]string{"a", "b"}, core.Int(1)))
	assert.True(t, tree.Exists([]string{"a", "b"}))
	assert.True(t, tree.Exists([]string{"a"}))
}

func TestEmptyTreeProjectsToEmptyMapping(t *testing.T) {
	tree := core.NewTree()
	got, err := tree.Get([]string{})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{}, got)
}

func TestChildrenPreserveInsertionOrder(t *testing.T) {
	tree := core.NewTree()
	require.NoError(t, tree.Set([]string{"zebra"}, core.Int(1)))
	require.NoError(t, tree.Set([]string{"alpha"}, core.Int(2)))
	require.NoError(t, tree.Set([]string{"mango"}, core.Int(3)))

	var names []string
	for _, child := range tree.Root().Children() {
		names = append(names, child.Name())
	}
	assert.Equal(t, []string{"zebra", "alpha", "mango"}, names)
}

func TestPathNotFoundCarriesSuggestion(t *testing.T) {
	tree := core.NewTree()
	require.NoError(t, tree.Set([]string{"app", "ui", "theme"}, core.Str("dark")))

	_, err := tree.Get([]string{"app", "ui", "tehme"})
	require.Error(t, err)
	ce, ok := err.(*core.Error)
	require.True(t, ok)
	assert.Equal(t, "app.ui.theme", ce.Context["suggestion"])
}
