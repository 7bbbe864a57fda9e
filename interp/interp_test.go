package interp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/configx/core"
	"github.com/aledsdavies/configx/interp"
	"github.com/aledsdavies/configx/parser"
)

func TestExecuteQuerySetThenGet(t *testing.T) {
	tree := core.NewTree()
	_, err := interp.ExecuteQuery(tree, `app.ui.theme="dark"`)
	require.NoError(t, err)

	got, err := interp.ExecuteQuery(tree, `app.ui.theme`)
	require.NoError(t, err)
	assert.Equal(t, "dark", got)
}

func TestExecuteQuerySafeGetOnMissingPathReturnsNil(t *testing.T) {
	tree := core.NewTree()
	got, err := interp.ExecuteQuery(tree, `app.ui.missing!`)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestExecuteQueryGetOnMissingPathIsPathNotFound(t *testing.T) {
	tree := core.NewTree()
	_, err := interp.ExecuteQuery(tree, `app.ui.missing`)
	require.Error(t, err)
	assert.True(t, core.Is(err, core.KindPathNotFound))
}

func TestExecuteQueryDeleteSubtree(t *testing.T) {
	tree := core.NewTree()
	_, err := interp.ExecuteQuery(tree, `a.b.c="x"`)
	require.NoError(t, err)

	_, err = interp.ExecuteQuery(tree, `a.b-`)
	require.NoError(t, err)

	got, err := interp.ExecuteQuery(tree, `a`)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{}, got)
}

func TestExecuteQueryIllegalOverwrite(t *testing.T) {
	tree := core.NewTree()
	_, err := interp.ExecuteQuery(tree, `a.b.c="x"`)
	require.NoError(t, err)

	_, err = interp.ExecuteQuery(tree, `a.b="y"`)
	require.Error(t, err)
	assert.True(t, core.Is(err, core.KindInvalidOverwrite))
}

func TestExecuteQueryPropagatesParseError(t *testing.T) {
	tree := core.NewTree()
	_, err := interp.ExecuteQuery(tree, `a.b='x'`)
	require.Error(t, err)
	assert.True(t, core.Is(err, core.KindParseError))
}

func TestExecuteSetReturnsNil(t *testing.T) {
	tree := core.NewTree()
	stmt, err := parser.Parse(`a.b=1`)
	require.NoError(t, err)
	got, err := interp.Execute(tree, stmt)
	require.NoError(t, err)
	assert.Nil(t, got)
}
