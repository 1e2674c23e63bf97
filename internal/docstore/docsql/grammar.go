package docsql

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Statement is the parse tree of one SELECT statement.
type Statement struct {
	Pos        lexer.Position
	Top        *int        `"SELECT" ( "TOP" @Number )?`
	Projection *Projection `@@`
	From       string      `"FROM" @(Ident | Keyword)`
	Where      *Expr       `( "WHERE" @@ )?`
	OrderBy    []*SortKey  `( "ORDER" "BY" @@ ( "," @@ )* )?`
}

// Projection is *, VALUE <expr> or a list of expressions.
type Projection struct {
	Star  bool    `  @"*"`
	Value *Expr   `| "VALUE" @@`
	Items []*Expr `| @@ ( "," @@ )*`
}

// SortKey is one ORDER BY key.
type SortKey struct {
	Path      *Path  `@@`
	Direction string `@( "ASC" | "DESC" )?`
}

// Expr is a disjunction.
type Expr struct {
	Or []*AndExpr `@@ ( "OR" @@ )*`
}

// AndExpr is a conjunction.
type AndExpr struct {
	And []*NotExpr `@@ ( "AND" @@ )*`
}

// NotExpr is an optionally negated comparison.
type NotExpr struct {
	Negated *NotExpr    `  "NOT" @@`
	Cmp     *Comparison `| @@`
}

// Comparison is a binary comparison or a single operand.
type Comparison struct {
	Left  *Operand `@@`
	Op    string   `( @Operator`
	Right *Operand `  @@ )?`
}

// Operand is a leaf of an expression.
type Operand struct {
	Sub    *Expr    `  "(" @@ ")"`
	Call   *Call    `| @@`
	Param  *string  `| @Param`
	Number *float64 `| @Number`
	String *string  `| @String`
	True   bool     `| @"TRUE"`
	False  bool     `| @"FALSE"`
	Null   bool     `| @"NULL"`
	Path   *Path    `| @@`
}

// Call is a built-in function call.
type Call struct {
	Name string  `@Ident "("`
	Args []*Expr `( @@ ( "," @@ )* )? ")"`
}

// Path is alias.a.b["c"][0].
type Path struct {
	Root     string     `@Ident`
	Segments []*Segment `@@*`
}

// Segment is one property or index step of a path.
type Segment struct {
	Name  *string `  "." @(Ident | Keyword)`
	Key   *string `| "[" ( @String`
	Index *int    `      | @Number ) "]"`
}

var parser = participle.MustBuild[Statement](
	participle.Lexer(Lexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
	participle.CaseInsensitive("Keyword"),
	participle.UseLookahead(4),
)
