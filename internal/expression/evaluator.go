package expression

import (
	"strings"

	"github.com/lacquerai/excellent/internal/execcontext"
	"github.com/rs/zerolog/log"
)

// Strategy controls what happens when an expression references context
// items that don't exist.
type Strategy int

const (
	// StrategyComplete evaluates expressions fully, failing on missing items
	StrategyComplete Strategy = iota
	// StrategyResolveAvailable substitutes the items that exist and returns
	// the rest of the expression as text when any are missing
	StrategyResolveAvailable
)

func (s Strategy) String() string {
	if s == StrategyResolveAvailable {
		return "resolve_available"
	}
	return "complete"
}

// ParseStrategy parses a strategy name as produced by String
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "complete":
		return StrategyComplete, nil
	case "resolve_available":
		return StrategyResolveAvailable, nil
	}
	return StrategyComplete, newEvaluationError("unknown evaluation strategy %q", s)
}

// DefaultPrefix starts an expression inside a template
const DefaultPrefix = '@'

// DefaultAllowedTopLevels are the context items that may be referenced
// without parentheses, e.g. @contact.name
var DefaultAllowedTopLevels = []string{"channel", "contact", "date", "extra", "flow", "step"}

// EvaluatorOption configures an Evaluator
type EvaluatorOption func(*Evaluator)

// WithPrefix sets the character that starts an expression in a template
func WithPrefix(prefix byte) EvaluatorOption {
	return func(e *Evaluator) {
		e.prefix = prefix
	}
}

// WithAllowedTopLevels replaces the context items that can be referenced
// without parentheses.
func WithAllowedTopLevels(names ...string) EvaluatorOption {
	return func(e *Evaluator) {
		e.allowedTopLevels = make(map[string]bool, len(names))
		for _, name := range names {
			e.allowedTopLevels[strings.ToLower(name)] = true
		}
	}
}

// WithFunctions sets the function library
func WithFunctions(functions *FunctionManager) EvaluatorOption {
	return func(e *Evaluator) {
		e.functions = functions
	}
}

// Evaluator evaluates expressions and templates. It holds no per call state
// and is safe for concurrent use.
type Evaluator struct {
	prefix           byte
	allowedTopLevels map[string]bool
	functions        *FunctionManager
}

// NewEvaluator creates an evaluator using the built-in function library
func NewEvaluator(opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		prefix:    DefaultPrefix,
		functions: DefaultFunctions(),
	}
	WithAllowedTopLevels(DefaultAllowedTopLevels...)(e)

	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Prefix returns the character that starts an expression
func (e *Evaluator) Prefix() byte { return e.prefix }

// Functions returns the function library
func (e *Evaluator) Functions() *FunctionManager { return e.functions }

// EvaluateExpression evaluates a single expression, e.g. contact.reports * 2
func (e *Evaluator) EvaluateExpression(expression string, ctx *execcontext.EvaluationContext) (Value, error) {
	return e.EvaluateExpressionWithStrategy(expression, ctx, StrategyComplete)
}

// EvaluateExpressionWithStrategy evaluates a single expression. With
// StrategyResolveAvailable an expression referencing missing items
// evaluates to the partially substituted expression text.
func (e *Evaluator) EvaluateExpressionWithStrategy(expression string, ctx *execcontext.EvaluationContext, strategy Strategy) (Value, error) {
	tokens, err := Tokenize(expression)
	if err != nil {
		return nil, err
	}

	tree, err := parseTokens(tokens)
	if err != nil {
		return nil, err
	}
	log.Trace().Str("expression", expression).Msg("expression parsed")

	if strategy == StrategyResolveAvailable {
		if partial, ok := e.resolveAvailable(tokens, ctx); ok {
			return Text(partial), nil
		}
	}

	return tree.Eval(&EvalContext{Context: ctx, Functions: e.functions})
}

// resolveAvailable substitutes context references that exist with their
// values. It returns false when every reference exists so the expression
// can be evaluated as normal.
func (e *Evaluator) resolveAvailable(tokens []Token, ctx *execcontext.EvaluationContext) (string, bool) {
	hasMissing := false
	components := make([]string, 0, len(tokens))

	for i := 0; i < len(tokens)-1; i++ {
		tok, next := tokens[i], tokens[i+1]

		if tok.Type == TokenName && next.Type != TokenLParen {
			if v, err := ctx.Resolve(tok.Value); err == nil {
				if repr, err := ToRepr(GoToValue(v), ctx); err == nil {
					components = append(components, repr)
					continue
				}
			}
			hasMissing = true
		}
		components = append(components, tok.Value)
	}

	if !hasMissing {
		return "", false
	}
	return string(e.prefix) + strings.Join(components, ""), true
}
