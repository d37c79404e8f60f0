package expression

import (
	"math"
	"strings"
	"time"

	"github.com/lacquerai/excellent/internal/execcontext"
	"github.com/shopspring/decimal"
)

var (
	ExpressionDefs []ExpressionDef
	FunctionDefs   []*FunctionDefinition
)

type ExpressionDef struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Examples    []string `json:"examples"`
}

func init() {
	expressions := []Expression{
		&LiteralExpr{},
		&VariableExpr{},
		&BinaryOpExpr{},
		&UnaryOpExpr{},
		&ParenExpr{},
		&CallExpr{},
	}

	ExpressionDefs = make([]ExpressionDef, len(expressions))
	for i, expr := range expressions {
		ExpressionDefs[i] = expr.Definition()
	}

	FunctionDefs = DefaultFunctions().ListFunctions()
}

// EvalContext contains the context for expression evaluation
type EvalContext struct {
	Context   *execcontext.EvaluationContext
	Functions *FunctionManager
}

// Expression types

type Expression interface {
	Eval(*EvalContext) (Value, error)
	Definition() ExpressionDef
}

// LiteralExpr represents a literal value
type LiteralExpr struct {
	Value Value
}

func (e *LiteralExpr) Eval(ctx *EvalContext) (Value, error) {
	return e.Value, nil
}

func (e *LiteralExpr) Definition() ExpressionDef {
	return ExpressionDef{
		Name:        "Literal",
		Description: "Literal value expression. Numbers use '.' as the decimal separator, text is double quoted with \"\" as an escaped quote, and TRUE and FALSE are case-insensitive.",
		Examples: []string{
			"@(42)",
			"@(3.14)",
			"@(\"He said \"\"hi\"\"\")",
			"@(TRUE)",
		},
	}
}

// VariableExpr represents a context reference
type VariableExpr struct {
	Name string
}

func (e *VariableExpr) Eval(ctx *EvalContext) (Value, error) {
	v, err := ctx.Context.Resolve(e.Name)
	if err != nil {
		return nil, wrapEvaluationError(err, "%s", err.Error())
	}
	return GoToValue(v), nil
}

func (e *VariableExpr) Definition() ExpressionDef {
	return ExpressionDef{
		Name:        "ContextReference",
		Description: "Reference to a value in the evaluation context using a case-insensitive dotted path.",
		Examples: []string{
			"@contact.name",
			"@(contact.groups.0)",
			"@(flow.age)",
		},
	}
}

// BinaryOpExpr represents a binary operation
type BinaryOpExpr struct {
	Left  Expression
	Op    BinaryOpType
	Right Expression
}

type BinaryOpType string

const (
	BinaryOpTypeAdd    BinaryOpType = "+"
	BinaryOpTypeSub    BinaryOpType = "-"
	BinaryOpTypeMul    BinaryOpType = "*"
	BinaryOpTypeDiv    BinaryOpType = "/"
	BinaryOpTypePow    BinaryOpType = "^"
	BinaryOpTypeConcat BinaryOpType = "&"

	BinaryOpTypeEq  BinaryOpType = "="
	BinaryOpTypeNeq BinaryOpType = "<>"
	BinaryOpTypeLt  BinaryOpType = "<"
	BinaryOpTypeGt  BinaryOpType = ">"
	BinaryOpTypeLte BinaryOpType = "<="
	BinaryOpTypeGte BinaryOpType = ">="
)

// divisionScale is the number of fractional digits kept by division
const divisionScale = 10

func (e *BinaryOpExpr) Eval(ctx *EvalContext) (Value, error) {
	left, err := e.Left.Eval(ctx)
	if err != nil {
		return nil, err
	}

	right, err := e.Right.Eval(ctx)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case BinaryOpTypeAdd, BinaryOpTypeSub:
		return addOrSubtract(left, right, e.Op == BinaryOpTypeSub, ctx.Context)
	case BinaryOpTypeMul, BinaryOpTypeDiv, BinaryOpTypePow:
		return arithmetic(left, right, e.Op, ctx.Context)
	case BinaryOpTypeConcat:
		l, err := ToText(left, ctx.Context)
		if err != nil {
			return nil, err
		}
		r, err := ToText(right, ctx.Context)
		if err != nil {
			return nil, err
		}
		return Text(l + r), nil
	default:
		cmp, err := compareValues(left, right, ctx.Context)
		if err != nil {
			return nil, err
		}
		switch e.Op {
		case BinaryOpTypeEq:
			return Bool(cmp == 0), nil
		case BinaryOpTypeNeq:
			return Bool(cmp != 0), nil
		case BinaryOpTypeLt:
			return Bool(cmp < 0), nil
		case BinaryOpTypeLte:
			return Bool(cmp <= 0), nil
		case BinaryOpTypeGt:
			return Bool(cmp > 0), nil
		case BinaryOpTypeGte:
			return Bool(cmp >= 0), nil
		}
	}

	return nil, newEvaluationError("Unknown operator %s", e.Op)
}

func (e *BinaryOpExpr) Definition() ExpressionDef {
	return ExpressionDef{
		Name:        "BinaryOperation",
		Description: "Binary operation expression. Supports arithmetic (+, -, *, /, ^), text concatenation (&) and comparison (=, <>, <, <=, >, >=). Text comparison is case-insensitive, + and - also add days or times to dates.",
		Examples: []string{
			"@(contact.reports * 2)",
			"@(1 + 2 / 4)",
			"@(contact.first_name & \" \" & contact.last_name)",
			"@(date.today + 7)",
			"@(contact.age >= 18)",
		},
	}
}

func arithmetic(left, right Value, op BinaryOpType, ctx *execcontext.EvaluationContext) (Value, error) {
	a, err := ToDecimal(left, ctx)
	if err != nil {
		return nil, err
	}
	b, err := ToDecimal(right, ctx)
	if err != nil {
		return nil, err
	}

	switch op {
	case BinaryOpTypeMul:
		return Number(a.Mul(b)), nil
	case BinaryOpTypeDiv:
		if b.IsZero() {
			return nil, newEvaluationError("Division by zero")
		}
		return Number(a.DivRound(b, divisionScale)), nil
	default:
		return decimalPow(a, b)
	}
}

// decimalPow raises a to the power of b using floating point math
func decimalPow(a, b decimal.Decimal) (Value, error) {
	x, _ := a.Float64()
	y, _ := b.Float64()

	result := math.Pow(x, y)
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return nil, newEvaluationError("Can't raise %s to the power of %s", FormatDecimal(a), FormatDecimal(b))
	}
	return Number(decimal.NewFromFloat(result)), nil
}

func addOrSubtract(left, right Value, subtract bool, ctx *execcontext.EvaluationContext) (Value, error) {
	if a, err := ToDecimal(left, ctx); err == nil {
		if b, err := ToDecimal(right, ctx); err == nil {
			if subtract {
				return Number(a.Sub(b)), nil
			}
			return Number(a.Add(b)), nil
		}
	}

	v, err := dateArithmetic(left, right, subtract, ctx)
	if err != nil {
		return nil, wrapEvaluationError(err, "Expression could not be evaluated as decimal or date arithmetic")
	}
	return v, nil
}

// dateArithmetic adds a time of day as a duration or an integer number of
// days to a date or datetime.
func dateArithmetic(left, right Value, subtract bool, ctx *execcontext.EvaluationContext) (Value, error) {
	base, err := ToDateOrDateTime(left, ctx)
	if err != nil {
		return nil, err
	}

	if t, ok := right.(TimeValue); ok {
		dt, err := ToDateTime(base, ctx)
		if err != nil {
			return nil, err
		}
		d := t.Val.Duration()
		if subtract {
			d = -d
		}
		return DateTime(dt.Add(d)), nil
	}

	days, err := ToInteger(right, ctx)
	if err != nil {
		return nil, err
	}
	if subtract {
		days = -days
	}

	switch b := base.(type) {
	case DateValue:
		return Date(b.Val.AddDate(0, 0, days)), nil
	case DateTimeValue:
		return DateTime(b.Val.AddDate(0, 0, days)), nil
	}
	return nil, conversionError(left, "a date or datetime")
}

// compareValues converts both values to a common type and orders them.
// Text is compared case-insensitively.
func compareValues(left, right Value, ctx *execcontext.EvaluationContext) (int, error) {
	a, b, err := ToSame(left, right, ctx)
	if err != nil {
		return 0, err
	}

	switch av := a.(type) {
	case NumberValue:
		return av.Val.Cmp(b.(NumberValue).Val), nil
	case TextValue:
		return strings.Compare(strings.ToLower(av.Val), strings.ToLower(b.(TextValue).Val)), nil
	case BoolValue:
		bv := b.(BoolValue)
		switch {
		case av.Val == bv.Val:
			return 0, nil
		case !av.Val:
			return -1, nil
		}
		return 1, nil
	case TimeValue:
		return av.Val.Compare(b.(TimeValue).Val), nil
	case DateValue, DateTimeValue:
		if a.Type() == TypeDate && b.Type() == TypeDate {
			return compareTimes(av.(DateValue).Val, b.(DateValue).Val), nil
		}
		t1, err := ToDateTime(a, ctx)
		if err != nil {
			return 0, err
		}
		t2, err := ToDateTime(b, ctx)
		if err != nil {
			return 0, err
		}
		return compareTimes(t1, t2), nil
	}
	return 0, newEvaluationError("Can't compare '%s' and '%s'", left.String(), right.String())
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

// UnaryOpExpr represents a unary negation
type UnaryOpExpr struct {
	Op      string
	Operand Expression
}

func (e *UnaryOpExpr) Eval(ctx *EvalContext) (Value, error) {
	v, err := e.Operand.Eval(ctx)
	if err != nil {
		return nil, err
	}

	d, err := ToDecimal(v, ctx.Context)
	if err != nil {
		return nil, err
	}
	return Number(d.Neg()), nil
}

func (e *UnaryOpExpr) Definition() ExpressionDef {
	return ExpressionDef{
		Name:        "Negation",
		Description: "Unary minus. Converts the operand to a number and negates it.",
		Examples: []string{
			"@(-contact.balance)",
			"@(2 - -2)",
		},
	}
}

// ParenExpr represents a parenthesized expression
type ParenExpr struct {
	Inner Expression
}

func (e *ParenExpr) Eval(ctx *EvalContext) (Value, error) {
	return e.Inner.Eval(ctx)
}

func (e *ParenExpr) Definition() ExpressionDef {
	return ExpressionDef{
		Name:        "Parentheses",
		Description: "Groups an expression to override operator precedence.",
		Examples: []string{
			"@((1 + 2) * 3)",
		},
	}
}

// CallExpr represents a function call
type CallExpr struct {
	Name string
	Args []Expression
}

func (e *CallExpr) Eval(ctx *EvalContext) (Value, error) {
	args := make([]Value, len(e.Args))
	for i, arg := range e.Args {
		val, err := arg.Eval(ctx)
		if err != nil {
			return nil, err
		}
		args[i] = val
	}

	return ctx.Functions.Invoke(ctx.Context, e.Name, args)
}

func (e *CallExpr) Definition() ExpressionDef {
	return ExpressionDef{
		Name:        "FunctionCall",
		Description: "Function call expression. Call built-in functions by case-insensitive name with arguments using format 'NAME(arg1, arg2, ...)'.",
		Examples: []string{
			"@(UPPER(contact.name))",
			"@(IF(contact.age > 18, \"adult\", \"minor\"))",
			"@(SUM(1, 2, 3))",
		},
	}
}
