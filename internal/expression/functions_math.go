package expression

import (
	"errors"

	"github.com/lacquerai/excellent/internal/execcontext"
	"github.com/shopspring/decimal"
)

var errWrongArgCount = errors.New("Wrong number of arguments")

func (fm *FunctionManager) registerMathFunctions() {
	const category = "math"

	fm.mustRegister("_abs", category, "Returns the absolute value of a number",
		[]Param{required("number")},
		[]string{"@(ABS(-1))"},
		unaryDecimal(func(d decimal.Decimal) decimal.Decimal { return d.Abs() }))

	fm.mustRegister("exp", category, "Returns e raised to the power of number",
		[]Param{required("number")},
		[]string{"@(EXP(1))"},
		func(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
			n, err := ToDecimal(args[0], ctx)
			if err != nil {
				return nil, err
			}
			return decimalPow(eulerNumber, n)
		})

	fm.mustRegister("_int", category, "Rounds a number down to the nearest integer",
		[]Param{required("number")},
		[]string{"@(INT(4.8))"},
		unaryDecimal(func(d decimal.Decimal) decimal.Decimal { return d.Floor() }))

	fm.mustRegister("_max", category, "Returns the maximum value of all arguments",
		[]Param{variadic("args")},
		[]string{"@(MAX(1, 2, 3))"},
		reduceDecimals(func(acc, d decimal.Decimal) decimal.Decimal { return decimal.Max(acc, d) }))

	fm.mustRegister("_min", category, "Returns the minimum value of all arguments",
		[]Param{variadic("args")},
		[]string{"@(MIN(1, 2, 3))"},
		reduceDecimals(func(acc, d decimal.Decimal) decimal.Decimal { return decimal.Min(acc, d) }))

	fm.mustRegister("mod", category, "Returns the remainder after number is divided by divisor",
		[]Param{required("number"), required("divisor")},
		[]string{"@(MOD(5, 2))"},
		func(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
			n, err := ToDecimal(args[0], ctx)
			if err != nil {
				return nil, err
			}
			d, err := ToDecimal(args[1], ctx)
			if err != nil {
				return nil, err
			}
			if d.IsZero() {
				return nil, errors.New("Division by zero")
			}
			// floored modulo: the result takes the sign of the divisor
			_, rem := n.QuoRem(d, 0)
			if !rem.IsZero() && rem.Sign() != d.Sign() {
				rem = rem.Add(d)
			}
			return Number(rem), nil
		})

	fm.mustRegister("_power", category, "Returns the result of a number raised to a power",
		[]Param{required("number"), required("power")},
		[]string{"@(POWER(2, 8))"},
		func(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
			n, err := ToDecimal(args[0], ctx)
			if err != nil {
				return nil, err
			}
			p, err := ToDecimal(args[1], ctx)
			if err != nil {
				return nil, err
			}
			return decimalPow(n, p)
		})

	fm.mustRegister("rand", category, "Returns an evenly distributed random number greater than or equal to 0 and less than 1",
		nil,
		[]string{"@(RAND())"},
		func(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
			return Number(decimal.NewFromFloat(ctx.RandomFloat())), nil
		})

	fm.mustRegister("randbetween", category, "Returns a random integer between the numbers you specify",
		[]Param{required("bottom"), required("top")},
		[]string{"@(RANDBETWEEN(1, 10))"},
		func(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
			bounds, err := integers(ctx, args)
			if err != nil {
				return nil, err
			}
			if bounds[0] > bounds[1] {
				return nil, errors.New("Bottom can't be greater than top")
			}
			return Int(ctx.RandomBetween(int64(bounds[0]), int64(bounds[1]))), nil
		})

	fm.mustRegister("round", category, "Rounds a number to a specified number of digits",
		[]Param{required("number"), optional("num_digits", Int(0))},
		[]string{"@(ROUND(3.14159, 2))"},
		roundWith(func(d decimal.Decimal, places int32) decimal.Decimal { return d.Round(places) }))

	fm.mustRegister("rounddown", category, "Rounds a number down, toward zero",
		[]Param{required("number"), optional("num_digits", Int(0))},
		[]string{"@(ROUNDDOWN(3.149, 2))"},
		roundWith(func(d decimal.Decimal, places int32) decimal.Decimal { return d.Truncate(places) }))

	fm.mustRegister("roundup", category, "Rounds a number up, away from zero",
		[]Param{required("number"), optional("num_digits", Int(0))},
		[]string{"@(ROUNDUP(3.141, 2))"},
		roundWith(roundAwayFromZero))

	fm.mustRegister("_sum", category, "Returns the sum of all arguments",
		[]Param{variadic("args")},
		[]string{"@(SUM(1, 2, 3))"},
		reduceDecimals(func(acc, d decimal.Decimal) decimal.Decimal { return acc.Add(d) }))
}

var eulerNumber = decimal.RequireFromString("2.718281828459045")

func unaryDecimal(fn func(decimal.Decimal) decimal.Decimal) Implementation {
	return func(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
		d, err := ToDecimal(args[0], ctx)
		if err != nil {
			return nil, err
		}
		return Number(fn(d)), nil
	}
}

// reduceDecimals folds all arguments with fn. At least one argument is
// required.
func reduceDecimals(fn func(acc, d decimal.Decimal) decimal.Decimal) Implementation {
	return func(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
		if len(args) == 0 {
			return nil, errWrongArgCount
		}

		acc, err := ToDecimal(args[0], ctx)
		if err != nil {
			return nil, err
		}
		for _, arg := range args[1:] {
			d, err := ToDecimal(arg, ctx)
			if err != nil {
				return nil, err
			}
			acc = fn(acc, d)
		}
		return Number(acc), nil
	}
}

func roundWith(fn func(decimal.Decimal, int32) decimal.Decimal) Implementation {
	return func(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
		d, err := ToDecimal(args[0], ctx)
		if err != nil {
			return nil, err
		}
		places, err := ToInteger(args[1], ctx)
		if err != nil {
			return nil, err
		}
		return Number(fn(d, int32(places))), nil
	}
}

func roundAwayFromZero(d decimal.Decimal, places int32) decimal.Decimal {
	if d.Sign() < 0 {
		return d.Neg().RoundCeil(places).Neg()
	}
	return d.RoundCeil(places)
}
