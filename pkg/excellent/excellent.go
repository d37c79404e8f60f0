// Package excellent provides a public API for evaluating Excel-style
// expressions and templates from Go programs.
//
// Templates are text with embedded expressions introduced by a prefix
// character, '@' by default. An expression is either a dotted context path
// such as @contact.name or a parenthesized formula such as
// @(UPPER(contact.name) & " has " & SUM(1, 2)).
//
// Example usage:
//
//	ctx, err := excellent.NewContext(map[string]interface{}{
//		"contact": map[string]interface{}{"name": "Bob"},
//	}, excellent.WithTimezone("Africa/Kigali"))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result := excellent.New().EvaluateTemplate("Hi @contact.name", ctx, false)
//	fmt.Println(result.Output) // Hi Bob
package excellent

import (
	"time"

	"github.com/lacquerai/excellent/internal/events"
	"github.com/lacquerai/excellent/internal/execcontext"
	"github.com/lacquerai/excellent/internal/expression"
	pkgEvents "github.com/lacquerai/excellent/pkg/events"
)

// Value is the result of evaluating an expression. Its Type is one of text,
// number, boolean, date, datetime or time.
type Value = expression.Value

// Context holds the variables, timezone, date style and current time an
// expression is evaluated against. It is safe to share between goroutines.
type Context = execcontext.EvaluationContext

// Strategy controls what happens to expressions that reference missing
// context items.
type Strategy = expression.Strategy

const (
	// StrategyComplete evaluates every expression and reports missing items as errors.
	StrategyComplete = expression.StrategyComplete
	// StrategyResolveAvailable substitutes the items that exist and leaves the
	// rest of the expression as text to be evaluated later.
	StrategyResolveAvailable = expression.StrategyResolveAvailable
)

// Result is the outcome of rendering a template
type Result struct {
	// Output is the rendered text. Expressions that failed are left as written.
	Output string `json:"output"`
	// Errors holds one message per failed expression, in template order.
	Errors []string `json:"errors"`
}

// Option configures an Evaluator
type Option func(*Evaluator)

// WithPrefix changes the character that introduces expressions
func WithPrefix(prefix byte) Option {
	return func(e *Evaluator) {
		e.opts = append(e.opts, expression.WithPrefix(prefix))
	}
}

// WithAllowedTopLevels restricts which context roots may be referenced by
// single variable expressions such as @contact.name
func WithAllowedTopLevels(names ...string) Option {
	return func(e *Evaluator) {
		e.opts = append(e.opts, expression.WithAllowedTopLevels(names...))
	}
}

// WithStrategy sets the strategy used by EvaluateTemplate and EvaluateExpression
func WithStrategy(strategy Strategy) Option {
	return func(e *Evaluator) {
		e.strategy = strategy
	}
}

// WithListener registers a listener that receives an event per evaluation
func WithListener(listener pkgEvents.Listener) Option {
	return func(e *Evaluator) {
		e.listener = listener
	}
}

// Evaluator evaluates templates and expressions. It holds no per-call
// state and may be used concurrently.
type Evaluator struct {
	evaluator *expression.Evaluator
	strategy  Strategy
	listener  pkgEvents.Listener

	opts []expression.EvaluatorOption
}

// New creates an evaluator with the built-in function library
func New(options ...Option) *Evaluator {
	e := &Evaluator{
		strategy: StrategyComplete,
		listener: pkgEvents.NoopListener{},
	}
	for _, option := range options {
		option(e)
	}

	e.evaluator = expression.NewEvaluator(e.opts...)
	e.opts = nil
	return e
}

// EvaluateTemplate renders a template. Evaluation never fails as a whole:
// each expression that can't be evaluated is left in the output as written
// and its error message is added to Result.Errors.
func (e *Evaluator) EvaluateTemplate(template string, ctx *Context, urlEncode bool) Result {
	start := time.Now()
	output, errs := e.evaluator.EvaluateTemplateWithStrategy(template, ctx, urlEncode, e.strategy)

	e.listener.OnEvent(events.NewTemplateEvent(events.NewRequestID(), template, output, errs, time.Since(start)))
	return Result{Output: output, Errors: errs}
}

// EvaluateExpression evaluates a single expression without the leading
// prefix, e.g. contact.age + 1
func (e *Evaluator) EvaluateExpression(expr string, ctx *Context) (Value, error) {
	start := time.Now()
	value, err := e.evaluator.EvaluateExpressionWithStrategy(expr, ctx, e.strategy)
	if err != nil {
		e.listener.OnEvent(events.NewExpressionFailedEvent(events.NewRequestID(), expr, err, time.Since(start)))
		return nil, err
	}

	text, err := expression.ToText(value, ctx)
	if err != nil {
		text = value.String()
	}
	e.listener.OnEvent(events.NewExpressionEvent(events.NewRequestID(), expr, text, string(value.Type()), time.Since(start)))
	return value, nil
}

// ToText converts a value to the text it renders as in a template
func ToText(value Value, ctx *Context) (string, error) {
	return expression.ToText(value, ctx)
}
