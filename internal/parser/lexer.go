package parser

import (
	"strings"

	"github.com/hdlkit/verilog-go/internal/language"
)

// operatorChars is the symbol alphabet for operator tokens; an operator is
// the maximal run of these characters.
const operatorChars = "+-*/%<>=!&|^~"

// delimiterChars are single-character punctuation tokens.
const delimiterChars = "(){}[];,.#:"

// Lexer is a maximal-munch tokenizer for (System)Verilog text. The keyword
// set is fixed at construction from the selected language standard.
type Lexer struct {
	keywords map[string]bool
}

// NewLexer creates a Lexer whose keyword set covers the given language
// standard; an empty standard selects all standards.
func NewLexer(standard string) *Lexer {
	return &Lexer{keywords: language.KeywordSet(standard)}
}

// Tokenize converts text into an ordered token sequence terminated by a
// single EOF token. Characters that match no lexical class are skipped;
// tokenization never fails.
func (l *Lexer) Tokenize(text string) []Token {
	var tokens []Token
	line, col := 1, 1

	emit := func(t TokenType, value string) {
		tokens = append(tokens, Token{Type: t, Value: value, Line: line, Column: col})
		for i := 0; i < len(value); i++ {
			if value[i] == '\n' {
				line++
				col = 1
			} else {
				col++
			}
		}
	}

	for pos := 0; pos < len(text); {
		c := text[pos]

		switch {
		case c == '/' && pos+1 < len(text) && text[pos+1] == '/':
			end := pos
			for end < len(text) && text[end] != '\n' {
				end++
			}
			emit(COMMENT, text[pos:end])
			pos = end

		case c == '/' && pos+1 < len(text) && text[pos+1] == '*':
			end := strings.Index(text[pos+2:], "*/")
			if end < 0 {
				emit(COMMENT, text[pos:])
				pos = len(text)
			} else {
				emit(COMMENT, text[pos:pos+2+end+2])
				pos += 2 + end + 2
			}

		case c == '"':
			end := pos + 1
			for end < len(text) && text[end] != '"' && text[end] != '\n' {
				end++
			}
			if end < len(text) && text[end] == '"' {
				end++
			}
			emit(STRING, text[pos:end])
			pos = end

		case c >= '0' && c <= '9':
			lexeme := scanNumber(text[pos:])
			emit(NUMBER, lexeme)
			pos += len(lexeme)

		case c == '`':
			end := pos + 1
			for end < len(text) && isIdentChar(text[end]) {
				end++
			}
			if end == pos+1 {
				// Lone backtick matches nothing; skip it.
				pos++
				col++
				continue
			}
			emit(DIRECTIVE, text[pos:end])
			pos = end

		case isIdentStart(c):
			end := pos + 1
			for end < len(text) && isIdentChar(text[end]) {
				end++
			}
			word := text[pos:end]
			if l.keywords[word] {
				emit(KEYWORD, word)
			} else {
				emit(IDENTIFIER, word)
			}
			pos = end

		case strings.IndexByte(operatorChars, c) >= 0:
			end := pos + 1
			for end < len(text) && strings.IndexByte(operatorChars, text[end]) >= 0 {
				end++
			}
			emit(OPERATOR, text[pos:end])
			pos = end

		case strings.IndexByte(delimiterChars, c) >= 0:
			emit(DELIMITER, text[pos:pos+1])
			pos++

		case c == '\n':
			emit(NEWLINE, "\n")
			pos++

		case c == ' ' || c == '\t' || c == '\r':
			end := pos + 1
			for end < len(text) && (text[end] == ' ' || text[end] == '\t' || text[end] == '\r') {
				end++
			}
			emit(WHITESPACE, text[pos:end])
			pos = end

		default:
			// Unmatched character: skip without producing a token.
			pos++
			col++
		}
	}

	tokens = append(tokens, Token{Type: EOF, Value: "", Line: line, Column: col})
	return tokens
}

// scanNumber consumes a sized literal like 4'b1010 or 32'sh1b, falling back
// to a plain decimal run.
func scanNumber(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i < len(s) && s[i] == '\'' {
		j := i + 1
		if j < len(s) && (s[j] == 's' || s[j] == 'S') {
			j++
		}
		if j < len(s) && isBaseChar(s[j]) {
			k := j + 1
			start := k
			for k < len(s) && isBaseDigit(s[k]) {
				k++
			}
			if k > start {
				return s[:k]
			}
		}
	}
	return s[:i]
}

func isBaseChar(b byte) bool {
	switch b {
	case 'b', 'B', 'd', 'D', 'h', 'H':
		return true
	}
	return false
}

func isBaseDigit(b byte) bool {
	switch {
	case b >= '0' && b <= '9':
		return true
	case b >= 'a' && b <= 'f', b >= 'A' && b <= 'F':
		return true
	case b == '_', b == 'x', b == 'X', b == 'z', b == 'Z':
		return true
	}
	return false
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentChar(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9') || b == '$'
}
