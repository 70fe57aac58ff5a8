package qlparse

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// The raw parse tree mirrors the grammar. It is converted to qlast nodes
// after parsing (see convert.go).

type rawScript struct {
	Pos     lexer.Position
	Queries []*rawExpr `@@? ( ";" @@? )*`
}

type rawExpr struct {
	Pos   lexer.Position
	Query *rawQuery `  @@`
	Union *rawUnion `| @@`
}

// Statements

type rawQuery struct {
	Pos     lexer.Position
	Aliases []*rawAlias `( "with" @@ ( "," @@ )* ","? )?`
	Select  *rawSelect  `( @@`
	Insert  *rawInsert  `| @@`
	Update  *rawUpdate  `| @@`
	Delete  *rawDelete  `| @@`
	For     *rawFor     `| @@ )`
}

type rawAlias struct {
	Pos    lexer.Position
	Module string   `  "module" @Ident`
	Name   string   `| @Ident ":="`
	Expr   *rawExpr `  @@`
}

type rawSelect struct {
	Pos     lexer.Position
	Result  *rawExpr    `"select" @@`
	Filter  *rawOr      `( "filter" @@ )?`
	OrderBy *rawOrderBy `@@?`
	Offset  *rawOr      `( "offset" @@ )?`
	Limit   *rawOr      `( "limit" @@ )?`
}

type rawOrderBy struct {
	Pos  lexer.Position
	Keys []*rawSortKey `"order" "by" @@ ( "then" @@ )*`
}

type rawSortKey struct {
	Pos       lexer.Position
	Key       *rawOr `@@`
	Direction string `@( "asc" | "desc" )?`
	Nones     string `( "empty" @( "first" | "last" ) )?`
}

type rawInsert struct {
	Pos    lexer.Position
	Module string    `"insert" ( @Ident "::" )?`
	Name   string    `@Ident`
	Shape  *rawShape `@@?`
}

type rawUpdate struct {
	Pos     lexer.Position
	Subject *rawOr    `"update" @@`
	Filter  *rawOr    `( "filter" @@ )?`
	Shape   *rawShape `"set" @@`
}

type rawDelete struct {
	Pos     lexer.Position
	Subject *rawOr      `"delete" @@`
	Filter  *rawOr      `( "filter" @@ )?`
	OrderBy *rawOrderBy `@@?`
	Offset  *rawOr      `( "offset" @@ )?`
	Limit   *rawOr      `( "limit" @@ )?`
}

type rawFor struct {
	Pos      lexer.Position
	Alias    string   `"for" @Ident "in"`
	Iterator *rawOr   `@@`
	Result   *rawExpr `"union" @@`
}

// Operators, loosest binding first

type rawUnion struct {
	Pos   lexer.Position
	Left  *rawOr         `@@`
	Right []*rawUnionArm `@@*`
}

type rawUnionArm struct {
	Pos   lexer.Position
	Op    string `@"union"`
	Right *rawOr `@@`
}

type rawOr struct {
	Pos   lexer.Position
	Left  *rawAnd     `@@`
	Right []*rawOrArm `@@*`
}

type rawOrArm struct {
	Pos   lexer.Position
	Op    string  `@"or"`
	Right *rawAnd `@@`
}

type rawAnd struct {
	Pos   lexer.Position
	Left  *rawNot      `@@`
	Right []*rawAndArm `@@*`
}

type rawAndArm struct {
	Pos   lexer.Position
	Op    string  `@"and"`
	Right *rawNot `@@`
}

type rawNot struct {
	Pos     lexer.Position
	Nots    []string `@"not"*`
	Operand *rawCmp  `@@`
}

type rawCmp struct {
	Pos   lexer.Position
	Left  *rawAdd `@@`
	Op    string  `( @( "=" | "!=" | "?=" | "?!=" | "<=" | ">=" | "<" | ">" | "like" | "ilike" | "in" )`
	Right *rawAdd `  @@ )?`
}

type rawAdd struct {
	Pos   lexer.Position
	Left  *rawMul      `@@`
	Right []*rawAddArm `@@*`
}

type rawAddArm struct {
	Pos   lexer.Position
	Op    string  `@( "++" | "+" | "-" | "??" )`
	Right *rawMul `@@`
}

type rawMul struct {
	Pos   lexer.Position
	Left  *rawUnary    `@@`
	Right []*rawMulArm `@@*`
}

type rawMulArm struct {
	Pos   lexer.Position
	Op    string    `@( "*" | "//" | "/" | "%" )`
	Right *rawUnary `@@`
}

type rawUnary struct {
	Pos     lexer.Position
	Ops     []string    `@( "-" | "+" | "exists" | "distinct" )*`
	Operand *rawPostfix `@@`
}

// Paths and primaries

type rawPostfix struct {
	Pos     lexer.Position
	Primary *rawPrimary `@@`
	Steps   []*rawStep  `@@*`
	Shape   *rawShape   `@@?`
}

type rawStep struct {
	Pos      lexer.Position
	Inbound  string `  "." "<" @Ident`
	Outbound string `| "." @Ident`
	LinkProp string `| "@" @Ident`
}

type rawPrimary struct {
	Pos      lexer.Position
	Cast     *rawCast    `  @@`
	Detached *rawPostfix `| "detached" @@`
	Str      *string     `| @String`
	Number   *string     `| @Number`
	Bool     *string     `| @( "true" | "false" )`
	Paren    *rawParen   `| @@`
	Array    *rawArray   `| @@`
	Set      *rawSet     `| @@`
	Shape    *rawShape   `| @@`
	Call     *rawCall    `| @@`
	Ref      *rawRef     `| @@`
	Partial  []*rawStep  `| @@+`
}

type rawCast struct {
	Pos     lexer.Position
	Type    *rawType  `"<" @@ ">"`
	Operand *rawUnary `@@`
}

type rawType struct {
	Pos   lexer.Position
	Left  *rawTypeName   `@@`
	Right []*rawTypeName `( "|" @@ )*`
}

type rawTypeName struct {
	Pos      lexer.Position
	Module   string     `( @Ident "::" )?`
	Name     string     `@Ident`
	Subtypes []*rawType `( "<" @@ ( "," @@ )* ">" )?`
}

type rawParen struct {
	Pos   lexer.Position
	Named []*rawNamedElem `  "(" @@ ( "," @@ )* ","? ")"`
	Unit  bool            `| @( "(" ")" )`
	First *rawExpr        `| "(" @@`
	Rest  []*rawTupleArm  `  @@* ")"`
}

type rawNamedElem struct {
	Pos   lexer.Position
	Name  string   `@Ident ":="`
	Value *rawExpr `@@`
}

// rawTupleArm is one ", expr" after the first tuple element. A trailing
// comma leaves Expr nil.
type rawTupleArm struct {
	Pos  lexer.Position
	Expr *rawExpr `"," @@?`
}

type rawArray struct {
	Pos      lexer.Position
	Elements []*rawExpr `"[" ( @@ ( "," @@ )* ","? )? "]"`
}

type rawSet struct {
	Pos      lexer.Position
	Elements []*rawExpr `"{" ( @@ ( "," @@ )* ","? )? "}"`
}

type rawShape struct {
	Pos      lexer.Position
	Elements []*rawShapeElement `"{" ( @@ ( "," @@ )* ","? )? "}"`
}

type rawShapeElement struct {
	Pos      lexer.Position
	LinkProp bool         `@"@"?`
	Name     string       `@Ident`
	Computed *rawComputed `( @@`
	Nested   *rawShape    `| ":" @@ )?`
	Filter   *rawOr       `( "filter" @@ )?`
	OrderBy  *rawOrderBy  `@@?`
}

type rawComputed struct {
	Pos  lexer.Position
	Op   string   `@( ":=" | "+=" | "-=" )`
	Expr *rawExpr `@@`
}

type rawCall struct {
	Pos    lexer.Position
	Module string    `( @Ident "::" )?`
	Name   string    `@Ident "("`
	Args   []*rawArg `( @@ ( "," @@ )* ","? )? ")"`
}

type rawArg struct {
	Pos   lexer.Position
	Name  string   `( @Ident ":=" )?`
	Value *rawExpr `@@`
}

type rawRef struct {
	Pos    lexer.Position
	Module string `( @Ident "::" )?`
	Name   string `@Ident`
}
