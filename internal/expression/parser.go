package expression

import (
	"github.com/shopspring/decimal"
)

// Parser is a recursive descent parser over a token stream. Precedence from
// lowest to highest is comparison, concatenation, additive, multiplicative,
// exponent, unary minus and primary.
type Parser struct {
	tokens []Token
	pos    int
}

// Parse parses an expression
func Parse(input string) (Expression, error) {
	tokens, err := Tokenize(input)
	if err != nil {
		return nil, err
	}
	return parseTokens(tokens)
}

func parseTokens(tokens []Token) (Expression, error) {
	parser := &Parser{tokens: tokens}
	expr, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}

	if tok := parser.current(); tok.Type != TokenEOF {
		return nil, newParseError(tok.Pos, "unexpected token %q", tok.Value)
	}
	return expr, nil
}

func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peek() Token {
	if p.pos+1 >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos+1]
}

func (p *Parser) advance() {
	if p.pos < len(p.tokens) {
		p.pos++
	}
}

func (p *Parser) parseExpression() (Expression, error) {
	return p.parseComparison()
}

var comparisonOps = map[TokenType]BinaryOpType{
	TokenEq:  BinaryOpTypeEq,
	TokenNeq: BinaryOpTypeNeq,
	TokenLt:  BinaryOpTypeLt,
	TokenLte: BinaryOpTypeLte,
	TokenGt:  BinaryOpTypeGt,
	TokenGte: BinaryOpTypeGte,
}

func (p *Parser) parseComparison() (Expression, error) {
	left, err := p.parseConcatenation()
	if err != nil {
		return nil, err
	}

	for {
		op, ok := comparisonOps[p.current().Type]
		if !ok {
			return left, nil
		}
		p.advance()

		right, err := p.parseConcatenation()
		if err != nil {
			return nil, err
		}
		left = &BinaryOpExpr{Left: left, Op: op, Right: right}
	}
}

func (p *Parser) parseConcatenation() (Expression, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenAmpersand {
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &BinaryOpExpr{Left: left, Op: BinaryOpTypeConcat, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAdditive() (Expression, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}

	for {
		var op BinaryOpType
		switch p.current().Type {
		case TokenPlus:
			op = BinaryOpTypeAdd
		case TokenMinus:
			op = BinaryOpTypeSub
		default:
			return left, nil
		}
		p.advance()

		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryOpExpr{Left: left, Op: op, Right: right}
	}
}

func (p *Parser) parseMultiplicative() (Expression, error) {
	left, err := p.parseExponent()
	if err != nil {
		return nil, err
	}

	for {
		var op BinaryOpType
		switch p.current().Type {
		case TokenTimes:
			op = BinaryOpTypeMul
		case TokenDivide:
			op = BinaryOpTypeDiv
		default:
			return left, nil
		}
		p.advance()

		right, err := p.parseExponent()
		if err != nil {
			return nil, err
		}
		left = &BinaryOpExpr{Left: left, Op: op, Right: right}
	}
}

// parseExponent groups chained exponents from the left, so 2^3^4 is (2^3)^4
func (p *Parser) parseExponent() (Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenExponent {
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryOpExpr{Left: left, Op: BinaryOpTypePow, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (Expression, error) {
	if p.current().Type == TokenMinus {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryOpExpr{Op: "-", Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Expression, error) {
	tok := p.current()

	switch tok.Type {
	case TokenDecimal:
		p.advance()
		d, err := decimal.NewFromString(tok.Value)
		if err != nil {
			return nil, newParseError(tok.Pos, "invalid number %q", tok.Value)
		}
		return &LiteralExpr{Value: Number(d)}, nil

	case TokenString:
		p.advance()
		return &LiteralExpr{Value: Text(unquote(tok.Value))}, nil

	case TokenTrue, TokenFalse, TokenName:
		if p.peek().Type == TokenLParen {
			return p.parseCall()
		}
		p.advance()
		switch tok.Type {
		case TokenTrue:
			return &LiteralExpr{Value: Bool(true)}, nil
		case TokenFalse:
			return &LiteralExpr{Value: Bool(false)}, nil
		}
		return &VariableExpr{Name: tok.Value}, nil

	case TokenLParen:
		p.advance()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if p.current().Type != TokenRParen {
			return nil, newParseError(p.current().Pos, "expected ')'")
		}
		p.advance()
		return &ParenExpr{Inner: inner}, nil
	}

	if tok.Type == TokenEOF {
		return nil, newParseError(tok.Pos, "unexpected end of expression")
	}
	return nil, newParseError(tok.Pos, "unexpected token %q", tok.Value)
}

func (p *Parser) parseCall() (Expression, error) {
	name := p.current().Value
	p.advance() // name
	p.advance() // (

	var args []Expression
	if p.current().Type == TokenRParen {
		p.advance()
		return &CallExpr{Name: name, Args: args}, nil
	}

	for {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		switch p.current().Type {
		case TokenComma:
			p.advance()
		case TokenRParen:
			p.advance()
			return &CallExpr{Name: name, Args: args}, nil
		default:
			return nil, newParseError(p.current().Pos, "expected ',' or ')'")
		}
	}
}
