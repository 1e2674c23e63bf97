package docsql

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer defines the token types of the document query dialect.
var Lexer = lexer.MustSimple([]lexer.SimpleRule{
	// Keywords (matched case-insensitively by the parser)
	{Name: "Keyword", Pattern: `(?i)\b(?:SELECT|TOP|VALUE|FROM|WHERE|ORDER|BY|ASC|DESC|AND|OR|NOT|TRUE|FALSE|NULL)\b`},

	// Bind parameters
	{Name: "Param", Pattern: `@[A-Za-z_][A-Za-z0-9_]*`},

	// Literals
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "Number", Pattern: `-?\d+(?:\.\d+)?(?:[eE][+-]?\d+)?`},

	// Identifiers
	{Name: "Ident", Pattern: `[A-Za-z_$][A-Za-z0-9_$]*`},

	// Comparison operators (longest first)
	{Name: "Operator", Pattern: `!=|<>|>=|<=|=|<|>`},

	// Punctuation
	{Name: "Punct", Pattern: `[(),.\[\]*]`},

	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
})
