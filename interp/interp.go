// Package interp executes a parsed CFGQL statement against a
// *core.Tree. There is no intermediate representation to lower to:
// parser output maps directly onto tree operations.
package interp

import (
	"github.com/aledsdavies/configx/core"
	"github.com/aledsdavies/configx/parser"
)

// Execute runs stmt against tree and returns the statement's result:
//   - Get / SafeGet: the projected value (native Go value, nested
//     map[string]interface{}, or nil).
//   - Set / Delete: nil.
//
// The dispatch table:
//
//	Get     -> tree.Get     missing->PathNotFound   interior->projection
//	SafeGet -> tree.SafeGet missing->nil            interior->projection
//	Set     -> tree.Set     creates intermediates    interior->InvalidOverwrite
//	Delete  -> tree.Delete  missing->PathNotFound    interior->removes subtree
func Execute(tree *core.Tree, stmt *parser.Statement) (interface{}, error) {
	switch stmt.Kind {
	case parser.Get:
		return tree.Get(stmt.Path)
	case parser.SafeGet:
		return tree.SafeGet(stmt.Path), nil
	case parser.Set:
		return nil, tree.Set(stmt.Path, stmt.Value)
	case parser.Delete:
		return nil, tree.Delete(stmt.Path)
	default:
		core.Invariant(false, "unknown statement kind %v", stmt.Kind)
		return nil, nil
	}
}

// ExecuteQuery parses source and executes it against tree in one step
// — the shape most callers (store.Resolve) want.
func ExecuteQuery(tree *core.Tree, source string) (interface{}, error) {
	stmt, err := parser.Parse(source)
	if err != nil {
		return nil, err
	}
	return Execute(tree, stmt)
}
