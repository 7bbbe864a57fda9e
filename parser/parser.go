// Package parser is CFGQL's single-pass, recursive-descent parser:
// one token of lookahead, no backtracking, the grammar small enough
// that each production maps to one parse method.
package parser

import (
	"fmt"
	"strconv"

	"github.com/aledsdavies/configx/core"
	"github.com/aledsdavies/configx/lexer"
)

// Parser holds the lexer and the single token of lookahead the
// grammar needs.
type Parser struct {
	input string
	lex   *lexer.Lexer
	tok   lexer.Token
}

// New creates a Parser over input and reads its first token.
func New(input string) (*Parser, error) {
	p := &Parser{input: input, lex: lexer.New(input)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

// Parse parses a single CFGQL statement from input.
func Parse(input string) (*Statement, error) {
	p, err := New(input)
	if err != nil {
		return nil, err
	}
	return p.ParseStatement()
}

func (p *Parser) advance() error {
	tok, err := p.lex.Next()
	if err != nil {
		if lexErr, ok := err.(*lexer.Error); ok {
			return core.NewError(core.KindParseError, lexErr.Message).
				WithContext("line", lexErr.Position.Line).
				WithContext("column", lexErr.Position.Column)
		}
		return core.NewError(core.KindParseError, err.Error())
	}
	p.tok = tok
	return nil
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return newParseError(p.input, p.tok, fmt.Sprintf(format, args...))
}

// ParseStatement parses path_expr followed by an optional operator:
// statement := path_expr ( "=" value | "-" | "!" )?
func (p *Parser) ParseStatement() (*Statement, error) {
	path, err := p.parsePathExpr()
	if err != nil {
		return nil, err
	}

	switch p.tok.Type {
	case lexer.EQUALS:
		if err := p.advance(); err != nil {
			return nil, err
		}
		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		if p.tok.Type != lexer.EOF {
			return nil, p.errorf("unexpected trailing input after value, found %s", p.tok.Type)
		}
		return &Statement{Kind: Set, Path: path, Value: value}, nil

	case lexer.MINUS:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.Type != lexer.EOF {
			return nil, p.errorf("unexpected trailing input after '-', found %s", p.tok.Type)
		}
		return &Statement{Kind: Delete, Path: path}, nil

	case lexer.BANG:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.Type != lexer.EOF {
			return nil, p.errorf("unexpected trailing input after '!', found %s", p.tok.Type)
		}
		return &Statement{Kind: SafeGet, Path: path}, nil

	case lexer.EOF:
		return &Statement{Kind: Get, Path: path}, nil

	default:
		return nil, p.errorf("unexpected token %s after path", p.tok.Type)
	}
}

// parsePathExpr parses IDENT ("." IDENT)*, rejecting a leading dot
// (".a"), a trailing dot ("a."), and an empty segment ("a..b") by
// requiring an IDENT immediately after every dot.
func (p *Parser) parsePathExpr() ([]string, error) {
	if p.tok.Type != lexer.IDENT {
		return nil, p.errorf("expected a path segment, found %s", p.tok.Type)
	}
	path := []string{p.tok.Text}
	if err := p.advance(); err != nil {
		return nil, err
	}

	for p.tok.Type == lexer.DOT {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.Type != lexer.IDENT {
			return nil, p.errorf("expected a path segment after '.', found %s", p.tok.Type)
		}
		path = append(path, p.tok.Text)
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return path, nil
}

// parseValue parses scalar | list. An unquoted bareword (an IDENT
// that isn't true/false/null) is a parse error — CFGQL has no
// bareword string syntax.
func (p *Parser) parseValue() (core.Value, error) {
	switch p.tok.Type {
	case lexer.STRING:
		v := core.Str(p.tok.Text)
		return v, p.advance()
	case lexer.INTEGER:
		i, err := strconv.ParseInt(p.tok.Text, 10, 64)
		if err != nil {
			return core.Value{}, p.errorf("invalid integer literal %q", p.tok.Text)
		}
		v := core.Int(i)
		return v, p.advance()
	case lexer.FLOAT:
		f, err := strconv.ParseFloat(p.tok.Text, 64)
		if err != nil {
			return core.Value{}, p.errorf("invalid float literal %q", p.tok.Text)
		}
		v := core.Float(f)
		return v, p.advance()
	case lexer.TRUE:
		v := core.Bool(true)
		return v, p.advance()
	case lexer.FALSE:
		v := core.Bool(false)
		return v, p.advance()
	case lexer.NULL:
		v := core.Null()
		return v, p.advance()
	case lexer.LBRACKET:
		return p.parseList()
	case lexer.IDENT:
		return core.Value{}, p.errorf("unquoted value %q is not allowed; use a quoted string", p.tok.Text)
	default:
		return core.Value{}, p.errorf("expected a value, found %s", p.tok.Type)
	}
}

func (p *Parser) parseList() (core.Value, error) {
	if err := p.advance(); err != nil { // consume '['
		return core.Value{}, err
	}
	if p.tok.Type == lexer.RBRACKET {
		if err := p.advance(); err != nil {
			return core.Value{}, err
		}
		return core.List(nil), nil
	}

	var items []core.Value
	for {
		v, err := p.parseValue()
		if err != nil {
			return core.Value{}, err
		}
		items = append(items, v)

		if p.tok.Type == lexer.COMMA {
			if err := p.advance(); err != nil {
				return core.Value{}, err
			}
			continue
		}
		break
	}

	if p.tok.Type != lexer.RBRACKET {
		return core.Value{}, p.errorf("expected ']' to close list, found %s", p.tok.Type)
	}
	if err := p.advance(); err != nil {
		return core.Value{}, err
	}
	return core.List(items), nil
}
