package qlparse

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// QueryLexer tokenizes the supported EdgeQL subset. Keywords are reserved
// and matched case-insensitively.
var QueryLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Whitespace", Pattern: `\s+`},

	{Name: "Keyword", Pattern: `(?i)\b(?:select|insert|update|delete|for|in|union|with|module|filter|order|by|then|asc|desc|empty|first|last|offset|limit|set|and|or|not|like|ilike|exists|distinct|detached|true|false)\b`},

	// Literals
	{Name: "String", Pattern: `'(?:\\.|[^'\\])*'|"(?:\\.|[^"\\])*"`},
	{Name: "Number", Pattern: `\d[\d_]*(?:\.\d[\d_]*)?(?:[eE][+-]?\d+)?n?`},

	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},

	// Longer operators first
	{Name: "Punct", Pattern: `::|:=|\+=|-=|\+\+|\?\?|\?!=|\?=|!=|<=|>=|//|[-+*/%.,;:@{}()\[\]<>=|]`},
})
