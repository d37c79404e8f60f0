package expression

import (
	"strings"
)

type TokenType int

const (
	TokenEOF        TokenType = iota
	TokenComma                // ,
	TokenLParen               // (
	TokenRParen               // )
	TokenPlus                 // +
	TokenMinus                // -
	TokenTimes                // *
	TokenDivide               // /
	TokenExponent             // ^
	TokenEq                   // =
	TokenNeq                  // <>
	TokenLte                  // <=
	TokenLt                   // <
	TokenGte                  // >=
	TokenGt                   // >
	TokenAmpersand            // &
	TokenDecimal              // 12.34
	TokenString               // "text"
	TokenTrue                 // TRUE
	TokenFalse                // FALSE
	TokenName                 // contact.name
)

type Token struct {
	Type  TokenType
	Value string // the literal source text
	Pos   int
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isNameStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isNameChar(c byte) bool {
	return isNameStart(c) || isDigit(c) || c == '.'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

// Tokenize splits an expression into tokens. The returned slice always ends
// with a TokenEOF.
func Tokenize(input string) ([]Token, error) {
	var tokens []Token
	i := 0

	emit := func(t TokenType, start, end int) {
		tokens = append(tokens, Token{Type: t, Value: input[start:end], Pos: start})
		i = end
	}

	for i < len(input) {
		if isSpace(input[i]) {
			i++
			continue
		}

		if i+1 < len(input) {
			switch input[i : i+2] {
			case "<>":
				emit(TokenNeq, i, i+2)
				continue
			case "<=":
				emit(TokenLte, i, i+2)
				continue
			case ">=":
				emit(TokenGte, i, i+2)
				continue
			}
		}

		switch c := input[i]; c {
		case ',':
			emit(TokenComma, i, i+1)
		case '(':
			emit(TokenLParen, i, i+1)
		case ')':
			emit(TokenRParen, i, i+1)
		case '+':
			emit(TokenPlus, i, i+1)
		case '-':
			emit(TokenMinus, i, i+1)
		case '*':
			emit(TokenTimes, i, i+1)
		case '/':
			emit(TokenDivide, i, i+1)
		case '^':
			emit(TokenExponent, i, i+1)
		case '=':
			emit(TokenEq, i, i+1)
		case '<':
			emit(TokenLt, i, i+1)
		case '>':
			emit(TokenGt, i, i+1)
		case '&':
			emit(TokenAmpersand, i, i+1)
		case '"':
			end := i + 1
			for {
				if end >= len(input) {
					return nil, newParseError(i, "unterminated string")
				}
				if input[end] == '"' {
					if end+1 < len(input) && input[end+1] == '"' {
						end += 2
						continue
					}
					break
				}
				end++
			}
			emit(TokenString, i, end+1)
		default:
			switch {
			case isDigit(c):
				end := i
				for end < len(input) && isDigit(input[end]) {
					end++
				}
				if end < len(input) && input[end] == '.' {
					end++
					if end >= len(input) || !isDigit(input[end]) {
						return nil, newParseError(i, "malformed number")
					}
					for end < len(input) && isDigit(input[end]) {
						end++
					}
				}
				if end < len(input) && (input[end] == '.' || isNameStart(input[end])) {
					return nil, newParseError(i, "malformed number")
				}
				emit(TokenDecimal, i, end)
			case isNameStart(c):
				end := i
				for end < len(input) && isNameChar(input[end]) {
					end++
				}
				switch strings.ToUpper(input[i:end]) {
				case "TRUE":
					emit(TokenTrue, i, end)
				case "FALSE":
					emit(TokenFalse, i, end)
				default:
					emit(TokenName, i, end)
				}
			default:
				return nil, newParseError(i, "unexpected character %q", c)
			}
		}
	}

	tokens = append(tokens, Token{Type: TokenEOF, Pos: len(input)})
	return tokens, nil
}

// unquote strips the enclosing quotes of a string token and unescapes
// doubled quotes.
func unquote(raw string) string {
	return strings.ReplaceAll(raw[1:len(raw)-1], `""`, `"`)
}
