package expression

import (
	"fmt"
	"strings"
	"time"

	"github.com/lacquerai/excellent/internal/dates"
	"github.com/shopspring/decimal"
)

// Value represents any value in the expression system
type Value interface {
	Type() ValueType
	GoValue() interface{}
	String() string

	value()
}

// ValueType represents the type of a value
type ValueType string

const (
	TypeText     ValueType = "text"
	TypeNumber   ValueType = "number"
	TypeBoolean  ValueType = "boolean"
	TypeDate     ValueType = "date"
	TypeDateTime ValueType = "datetime"
	TypeTime     ValueType = "time"
)

type TextValue struct {
	Val string
}

func (v TextValue) Type() ValueType      { return TypeText }
func (v TextValue) GoValue() interface{} { return v.Val }
func (v TextValue) String() string       { return v.Val }
func (TextValue) value()                 {}

// NumberValue is an arbitrary precision decimal. Integers are numbers with
// no fractional digits.
type NumberValue struct {
	Val decimal.Decimal
}

func (v NumberValue) Type() ValueType      { return TypeNumber }
func (v NumberValue) GoValue() interface{} { return v.Val }
func (v NumberValue) String() string       { return v.Val.String() }
func (NumberValue) value()                 {}

type BoolValue struct {
	Val bool
}

func (v BoolValue) Type() ValueType      { return TypeBoolean }
func (v BoolValue) GoValue() interface{} { return v.Val }
func (v BoolValue) String() string {
	if v.Val {
		return "TRUE"
	}
	return "FALSE"
}
func (BoolValue) value() {}

// DateValue is a calendar date held as midnight UTC
type DateValue struct {
	Val time.Time
}

func (v DateValue) Type() ValueType      { return TypeDate }
func (v DateValue) GoValue() interface{} { return v.Val }
func (v DateValue) String() string       { return v.Val.Format("2006-01-02") }
func (DateValue) value()                 {}

type DateTimeValue struct {
	Val time.Time
}

func (v DateTimeValue) Type() ValueType      { return TypeDateTime }
func (v DateTimeValue) GoValue() interface{} { return v.Val }
func (v DateTimeValue) String() string       { return v.Val.Format(time.RFC3339) }
func (DateTimeValue) value()                 {}

type TimeValue struct {
	Val dates.TimeOfDay
}

func (v TimeValue) Type() ValueType      { return TypeTime }
func (v TimeValue) GoValue() interface{} { return v.Val }
func (v TimeValue) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", v.Val.Hour, v.Val.Minute, v.Val.Second)
}
func (TimeValue) value() {}

// Text wraps a string
func Text(s string) Value { return TextValue{Val: s} }

// Number wraps a decimal
func Number(d decimal.Decimal) Value { return NumberValue{Val: d} }

// Int wraps an integer as a number
func Int(n int64) Value { return NumberValue{Val: decimal.NewFromInt(n)} }

// Bool wraps a boolean
func Bool(b bool) Value { return BoolValue{Val: b} }

// Date wraps the calendar date of t
func Date(t time.Time) Value { return DateValue{Val: dates.DateOf(t)} }

// DateTime wraps an instant
func DateTime(t time.Time) Value { return DateTimeValue{Val: t} }

// Time wraps a time of day
func Time(t dates.TimeOfDay) Value { return TimeValue{Val: t} }

// fromResult converts a date parser result to a value
func fromResult(res dates.Result) Value {
	switch res.Kind {
	case dates.KindDate:
		return Date(res.Time)
	case dates.KindDateTime:
		return DateTime(res.Time)
	default:
		return Time(res.Clock)
	}
}

// GoToValue converts a resolved context value to an expression Value. Lists
// render as comma separated text and unknown types fall back to their
// printed form.
func GoToValue(v interface{}) Value {
	switch val := v.(type) {
	case nil:
		return Text("")
	case Value:
		return val
	case bool:
		return Bool(val)
	case int:
		return Int(int64(val))
	case int32:
		return Int(int64(val))
	case int64:
		return Int(val)
	case float32:
		return Number(decimal.NewFromFloat32(val))
	case float64:
		return Number(decimal.NewFromFloat(val))
	case decimal.Decimal:
		return Number(val)
	case string:
		return Text(val)
	case time.Time:
		return DateTime(val)
	case dates.TimeOfDay:
		return Time(val)
	case []interface{}:
		items := make([]string, len(val))
		for i, item := range val {
			items[i] = displayText(GoToValue(item))
		}
		return Text(strings.Join(items, ", "))
	default:
		return Text(fmt.Sprintf("%v", v))
	}
}

// displayText renders a value without a context, used where no timezone or
// date style is available.
func displayText(v Value) string {
	if n, ok := v.(NumberValue); ok {
		return FormatDecimal(n.Val)
	}
	return v.String()
}
