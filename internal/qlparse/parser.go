// Package qlparse parses a subset of EdgeQL text into qlast syntax trees.
//
// The subset covers what the elaborator understands plus the constructs it
// reports as unsupported (delete, unary operators, keyword arguments), so
// that text queries reach the elaborator with precise source locations:
//
//	with x := User
//	select x { name, friends: { name } }
//	filter .age > 18
//	order by .name asc then .age desc
//	limit 10;
//
// Keywords are reserved and case-insensitive. Comments start with '#'.
package qlparse

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/roach88/elabql/internal/qlast"
)

var parser = participle.MustBuild[rawScript](
	participle.Lexer(QueryLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.CaseInsensitive("Keyword"),
	participle.UseLookahead(1024),
)

// ParseError reports query text that does not parse.
type ParseError struct {
	Message string
	Context qlast.Context
}

func (e *ParseError) Error() string {
	if e.Context.IsValid() {
		return fmt.Sprintf("%s: %s", e.Context, e.Message)
	}
	return e.Message
}

func errorAt(pos lexer.Position, msg string) error {
	return &ParseError{Message: msg, Context: contextOf(pos)}
}

// ParseScript parses a sequence of queries separated by semicolons.
func ParseScript(filename string, r io.Reader) ([]qlast.Node, error) {
	raw, err := parser.Parse(filename, r)
	if err != nil {
		var perr participle.Error
		if errors.As(err, &perr) {
			return nil, &ParseError{Message: perr.Message(), Context: contextOf(perr.Position())}
		}
		return nil, err
	}
	nodes := make([]qlast.Node, 0, len(raw.Queries))
	for _, q := range raw.Queries {
		n, err := convertExpr(q)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// ParseScriptString parses a sequence of queries from a string.
func ParseScriptString(filename, src string) ([]qlast.Node, error) {
	return ParseScript(filename, strings.NewReader(src))
}

// ParseString parses exactly one query, optionally followed by ';'.
func ParseString(filename, src string) (qlast.Node, error) {
	nodes, err := ParseScriptString(filename, src)
	if err != nil {
		return nil, err
	}
	if len(nodes) != 1 {
		return nil, &ParseError{Message: fmt.Sprintf("expected exactly one query, found %d", len(nodes))}
	}
	return nodes[0], nil
}

// MustParseString parses one query, panicking on error.
func MustParseString(src string) qlast.Node {
	n, err := ParseString("", src)
	if err != nil {
		panic(err)
	}
	return n
}

// unquote decodes a single- or double-quoted string literal. Both quote
// characters may be escaped inside either kind of literal.
func unquote(lit string) (string, error) {
	if len(lit) < 2 || lit[0] != lit[len(lit)-1] || (lit[0] != '\'' && lit[0] != '"') {
		return "", fmt.Errorf("malformed string literal %s", lit)
	}
	quote := lit[0]
	s := lit[1 : len(lit)-1]
	var b strings.Builder
	for len(s) > 0 {
		if len(s) >= 2 && s[0] == '\\' && (s[1] == '\'' || s[1] == '"') {
			b.WriteByte(s[1])
			s = s[2:]
			continue
		}
		r, multibyte, tail, err := strconv.UnquoteChar(s, quote)
		if err != nil {
			return "", fmt.Errorf("invalid escape in string literal %s", lit)
		}
		if r < 0x80 || !multibyte {
			b.WriteByte(byte(r))
		} else {
			b.WriteRune(r)
		}
		s = tail
	}
	return b.String(), nil
}
