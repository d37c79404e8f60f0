package expression

import (
	"errors"
	"strings"

	"github.com/lacquerai/excellent/internal/execcontext"
	"github.com/rs/zerolog/log"
)

// scanState is the state of the template scanner. Templates embed
// expressions in two forms: a single context reference like @contact.name
// that ends with the last word character, and a full expression like
// @(SUM(1, 2) + 2) that ends when its parentheses balance.
type scanState int

const (
	stateBody          scanState = iota // outside of an expression
	statePrefix                         // just read the prefix
	stateIdentifier                     // e.g. contact.age in @contact.age
	stateBalanced                       // e.g. (1 + 2) in @(1 + 2)
	stateStringLiteral                  // a quoted string which could contain )
	stateEscapedPrefix                  // a prefix preceded by another prefix
)

func isWordChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}

// EvaluateTemplate evaluates every expression in a template, e.g.
// "Hello @contact.name you have @(contact.reports * 2) reports". Expressions
// that fail are left in the output as written and their errors returned.
func (e *Evaluator) EvaluateTemplate(template string, ctx *execcontext.EvaluationContext, urlEncode bool) (string, []string) {
	return e.EvaluateTemplateWithStrategy(template, ctx, urlEncode, StrategyComplete)
}

// EvaluateTemplateWithStrategy evaluates a template using the given strategy
// for every expression in it.
func (e *Evaluator) EvaluateTemplateWithStrategy(template string, ctx *execcontext.EvaluationContext, urlEncode bool, strategy Strategy) (string, []string) {
	var (
		output     strings.Builder
		current    strings.Builder
		errs       []string
		state      = stateBody
		depth      = 0
		terminated = false
	)

	at := func(i int) byte {
		if i < len(template) {
			return template[i]
		}
		return 0
	}

	for pos := 0; pos < len(template); pos++ {
		ch := template[pos]
		// to know whether b ends the identifier we need two characters of
		// lookahead, a.b. ends at b but a.b.c doesn't
		next, nextNext := at(pos+1), at(pos+2)

		switch state {
		case stateBody:
			switch {
			case ch == e.prefix && (isWordChar(next) || next == '('):
				state = statePrefix
				current.Reset()
				current.WriteByte(ch)
			case ch == e.prefix && next == e.prefix:
				state = stateEscapedPrefix
			default:
				output.WriteByte(ch)
			}

		case statePrefix:
			if isWordChar(ch) {
				state = stateIdentifier
			} else if ch == '(' {
				state = stateBalanced
				depth++
			}
			current.WriteByte(ch)

		case stateIdentifier:
			current.WriteByte(ch)

		case stateBalanced:
			switch ch {
			case '(':
				depth++
			case ')':
				depth--
			case '"':
				state = stateStringLiteral
			}
			current.WriteByte(ch)

			if depth == 0 {
				terminated = true
			}

		case stateStringLiteral:
			if ch == '"' {
				state = stateBalanced
			}
			current.WriteByte(ch)

		case stateEscapedPrefix:
			state = stateBody
			output.WriteByte(ch)
		}

		if state == stateIdentifier {
			if next == 0 || (!isWordChar(next) && next != '.') || (next == '.' && !isWordChar(nextNext)) {
				terminated = true
			}
		}

		if terminated {
			resolved, err := e.resolveExpressionBlock(current.String(), ctx, urlEncode, strategy)
			if err != nil {
				errs = append(errs, err.Error())
			}
			output.WriteString(resolved)

			current.Reset()
			terminated = false
			state = stateBody
		}
	}

	// an unterminated expression is output as is
	output.WriteString(current.String())

	return output.String(), errs
}

// resolveExpressionBlock evaluates one expression found in a template,
// including its prefix. On failure the expression is returned as written
// along with the error.
func (e *Evaluator) resolveExpressionBlock(expression string, ctx *execcontext.EvaluationContext, urlEncode bool, strategy Strategy) (string, error) {
	body := expression[1:]

	// references outside of parentheses must start with an allowed top level
	// item, otherwise they're just text like an email address
	if !strings.HasPrefix(body, "(") {
		topLevel, _, _ := strings.Cut(body, ".")
		if !e.allowedTopLevels[strings.ToLower(topLevel)] {
			return expression, nil
		}
	}

	value, err := e.EvaluateExpressionWithStrategy(body, ctx, strategy)
	if err == nil {
		var rendered string
		if rendered, err = ToText(value, ctx); err == nil {
			if urlEncode {
				rendered = urlQuote(rendered)
			}
			return rendered, nil
		}
	}

	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		evalErr = wrapEvaluationError(err, "%s", err.Error())
	}
	log.Debug().Err(err).Str("expression", expression).Msg("unable to evaluate expression")
	return expression, evalErr
}
