package core

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// maxSuggestionDistance bounds how different a suggestion may be from
// the requested path before it's considered too unlike to be useful.
const maxSuggestionDistance = 6

// suggest returns a fuzzy-matched "did you mean" candidate for a path
// that failed to resolve, or "" if nothing in the tree is close enough
// to be worth suggesting.
func (t *Tree) suggest(path []string) string {
	wanted := joinPath(path)
	if wanted == "" {
		return ""
	}

	candidates := t.allPaths()
	if len(candidates) == 0 {
		return ""
	}

	// Rank by case-insensitive edit distance over every candidate, so a
	// transposed or mistyped segment ("tehme") still finds its target.
	best, bestDistance := "", -1
	for _, c := range candidates {
		d := fuzzy.LevenshteinDistance(strings.ToLower(wanted), strings.ToLower(c))
		if bestDistance < 0 || d < bestDistance {
			best, bestDistance = c, d
		}
	}
	if bestDistance > maxSuggestionDistance {
		return ""
	}
	return best
}

// allPaths collects the dotted path of every node reachable from the
// root, excluding the root itself.
func (t *Tree) allPaths() []string {
	var out []string
	var walk func(node *Node, prefix []string)
	walk = func(node *Node, prefix []string) {
		for _, child := range node.Children() {
			full := append(append([]string{}, prefix...), child.Name())
			out = append(out, strings.Join(full, "."))
			if child.IsInterior() {
				walk(child, full)
			}
		}
	}
	walk(t.root, nil)
	sort.Strings(out)
	return out
}
