package parser

import "fmt"

// TokenType classifies a lexeme.
type TokenType int

const (
	KEYWORD TokenType = iota
	IDENTIFIER
	NUMBER
	STRING
	OPERATOR
	DELIMITER
	DIRECTIVE
	COMMENT
	WHITESPACE
	NEWLINE
	EOF
)

var tokenTypeNames = map[TokenType]string{
	KEYWORD:    "KEYWORD",
	IDENTIFIER: "IDENTIFIER",
	NUMBER:     "NUMBER",
	STRING:     "STRING",
	OPERATOR:   "OPERATOR",
	DELIMITER:  "DELIMITER",
	DIRECTIVE:  "DIRECTIVE",
	COMMENT:    "COMMENT",
	WHITESPACE: "WHITESPACE",
	NEWLINE:    "NEWLINE",
	EOF:        "EOF",
}

func (t TokenType) String() string {
	if name, ok := tokenTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token is one lexeme with its source position. Tokens are immutable once
// produced; Line and Column are 1-based.
type Token struct {
	Type   TokenType
	Value  string
	Line   int
	Column int
}

func (t Token) String() string {
	return fmt.Sprintf("Token(%s, %q, line=%d, col=%d)", t.Type, t.Value, t.Line, t.Column)
}
