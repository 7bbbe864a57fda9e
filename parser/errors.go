package parser

import (
	"fmt"
	"strings"

	"github.com/aledsdavies/configx/core"
	"github.com/aledsdavies/configx/lexer"
)

// newParseError builds a *core.Error of KindParseError carrying a
// one-line source snippet with a caret pointing at the offending
// token.
func newParseError(input string, tok lexer.Token, message string) *core.Error {
	snippet := codeSnippet(input, tok.Position)
	full := message
	if snippet != "" {
		full = fmt.Sprintf("%s\n%s", message, snippet)
	}
	return core.NewError(core.KindParseError, full).
		WithContext("line", tok.Position.Line).
		WithContext("column", tok.Position.Column)
}

func codeSnippet(input string, pos lexer.Position) string {
	if input == "" || pos.Line == 0 {
		return ""
	}
	lines := strings.Split(input, "\n")
	if pos.Line > len(lines) {
		return ""
	}
	line := lines[pos.Line-1]

	var b strings.Builder
	fmt.Fprintf(&b, "  --> %d:%d\n", pos.Line, pos.Column)
	b.WriteString("   |\n")
	fmt.Fprintf(&b, "%2d | %s\n", pos.Line, line)
	b.WriteString("   | ")
	if pos.Column > 0 && pos.Column <= len(line)+1 {
		b.WriteString(strings.Repeat(" ", pos.Column-1) + "^")
	}
	return b.String()
}
