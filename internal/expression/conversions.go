package expression

import (
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/lacquerai/excellent/internal/dates"
	"github.com/lacquerai/excellent/internal/execcontext"
	"github.com/shopspring/decimal"
)

var (
	maxInteger = decimal.NewFromInt(math.MaxInt32)
	minInteger = decimal.NewFromInt(math.MinInt32)
)

func conversionError(v Value, target string) *EvaluationError {
	return newEvaluationError("Can't convert '%s' to %s", v.String(), target)
}

// ToBoolean converts a value to a boolean. Numbers are true when non-zero,
// text must read true or false and any temporal value is true.
func ToBoolean(v Value, ctx *execcontext.EvaluationContext) (bool, error) {
	switch val := v.(type) {
	case BoolValue:
		return val.Val, nil
	case NumberValue:
		return !val.Val.IsZero(), nil
	case TextValue:
		switch strings.ToLower(val.Val) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	case DateValue, DateTimeValue, TimeValue:
		return true, nil
	}
	return false, conversionError(v, "a boolean")
}

// ToInteger converts a value to an integer, rounding numbers half-up
func ToInteger(v Value, ctx *execcontext.EvaluationContext) (int, error) {
	switch val := v.(type) {
	case BoolValue:
		if val.Val {
			return 1, nil
		}
		return 0, nil
	case NumberValue:
		rounded := val.Val.Round(0)
		if rounded.GreaterThan(maxInteger) || rounded.LessThan(minInteger) {
			return 0, conversionError(v, "an integer")
		}
		return int(rounded.IntPart()), nil
	case TextValue:
		if n, err := strconv.ParseInt(strings.TrimSpace(val.Val), 10, 32); err == nil {
			return int(n), nil
		}
	}
	return 0, conversionError(v, "an integer")
}

// ToDecimal converts a value to a number
func ToDecimal(v Value, ctx *execcontext.EvaluationContext) (decimal.Decimal, error) {
	switch val := v.(type) {
	case BoolValue:
		if val.Val {
			return decimal.NewFromInt(1), nil
		}
		return decimal.Zero, nil
	case NumberValue:
		return val.Val, nil
	case TextValue:
		if d, err := decimal.NewFromString(strings.TrimSpace(val.Val)); err == nil {
			return d, nil
		}
	}
	return decimal.Zero, conversionError(v, "a decimal")
}

// ToText converts a value to its display form using the context date style
// and timezone.
func ToText(v Value, ctx *execcontext.EvaluationContext) (string, error) {
	switch val := v.(type) {
	case BoolValue:
		return val.String(), nil
	case NumberValue:
		return FormatDecimal(val.Val), nil
	case TextValue:
		return val.Val, nil
	case DateValue:
		return val.Val.Format(ctx.Style().Format()), nil
	case DateTimeValue:
		return val.Val.In(ctx.Location()).Format(ctx.Style().Format() + " 15:04"), nil
	case TimeValue:
		return val.Val.String(), nil
	}
	return "", conversionError(v, "a string")
}

// ToDate converts a value to a calendar date
func ToDate(v Value, ctx *execcontext.EvaluationContext) (time.Time, error) {
	switch val := v.(type) {
	case TextValue:
		if res, ok := ctx.DateParser().Auto(val.Val); ok {
			return dates.DateOf(res.Time), nil
		}
	case DateValue:
		return val.Val, nil
	case DateTimeValue:
		return dates.DateOf(val.Val.In(ctx.Location())), nil
	}
	return time.Time{}, conversionError(v, "a date")
}

// ToDateTime converts a value to an instant in the context timezone. Dates
// become midnight.
func ToDateTime(v Value, ctx *execcontext.EvaluationContext) (time.Time, error) {
	switch val := v.(type) {
	case TextValue:
		if res, ok := ctx.DateParser().Auto(val.Val); ok {
			return ToDateTime(fromResult(res), ctx)
		}
	case DateValue:
		return time.Date(val.Val.Year(), val.Val.Month(), val.Val.Day(), 0, 0, 0, 0, ctx.Location()), nil
	case DateTimeValue:
		return val.Val.In(ctx.Location()), nil
	}
	return time.Time{}, conversionError(v, "a datetime")
}

// ToDateOrDateTime converts a value to either a DateValue or a DateTimeValue
// depending on what information is available.
func ToDateOrDateTime(v Value, ctx *execcontext.EvaluationContext) (Value, error) {
	switch val := v.(type) {
	case TextValue:
		if res, ok := ctx.DateParser().Auto(val.Val); ok {
			return fromResult(res), nil
		}
	case DateValue:
		return val, nil
	case DateTimeValue:
		return DateTime(val.Val.In(ctx.Location())), nil
	}
	return nil, conversionError(v, "a date or datetime")
}

// ToTime converts a value to a time of day
func ToTime(v Value, ctx *execcontext.EvaluationContext) (dates.TimeOfDay, error) {
	switch val := v.(type) {
	case TextValue:
		if t, ok := ctx.DateParser().Time(val.Val); ok {
			return t, nil
		}
	case TimeValue:
		return val.Val, nil
	case DateTimeValue:
		return dates.ClockOf(val.Val.In(ctx.Location())), nil
	}
	return dates.TimeOfDay{}, conversionError(v, "a time")
}

// ToSame converts a pair of values to their most likely common type: values
// of the same type are kept, then numbers are tried, then dates, then text.
func ToSame(a, b Value, ctx *execcontext.EvaluationContext) (Value, Value, error) {
	if a.Type() == b.Type() {
		return a, b, nil
	}

	if d1, err := ToDecimal(a, ctx); err == nil {
		if d2, err := ToDecimal(b, ctx); err == nil {
			return Number(d1), Number(d2), nil
		}
	}

	if t1, err := ToDateOrDateTime(a, ctx); err == nil {
		if t2, err := ToDateOrDateTime(b, ctx); err == nil {
			return t1, t2, nil
		}
	}

	s1, err := ToText(a, ctx)
	if err != nil {
		return nil, nil, err
	}
	s2, err := ToText(b, ctx)
	if err != nil {
		return nil, nil, err
	}
	return Text(s1), Text(s2), nil
}

// ToRepr converts a value back to the form it would be written in an
// expression, e.g. x becomes "x".
func ToRepr(v Value, ctx *execcontext.EvaluationContext) (string, error) {
	s, err := ToText(v, ctx)
	if err != nil {
		return "", err
	}

	switch v.(type) {
	case TextValue, DateValue, DateTimeValue, TimeValue:
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`, nil
	}
	return s, nil
}

// FormatDecimal formats a number with the same precision as Excel: trailing
// zeros are dropped and at most ten significant digits are kept in the
// fractional part, rounding half-up.
func FormatDecimal(d decimal.Decimal) string {
	coef := d.Coefficient()
	exp := int(d.Exponent())

	ten := big.NewInt(10)
	if coef.Sign() == 0 {
		exp = 0
	} else {
		rem := new(big.Int)
		for {
			quo, r := new(big.Int).QuoRem(coef, ten, rem)
			if r.Sign() != 0 {
				break
			}
			coef = quo
			exp++
		}
	}

	if exp >= 1 {
		coef.Mul(coef, new(big.Int).Exp(ten, big.NewInt(int64(exp)), nil))
		exp = 0
	}

	intDigits := len(new(big.Int).Abs(coef).String()) + exp
	fractionalDigits := min(max(10-intDigits, 0), -exp)

	normalized := decimal.NewFromBigInt(coef, int32(exp))
	return normalized.StringFixed(int32(fractionalDigits))
}
