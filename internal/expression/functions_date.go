package expression

import (
	"errors"
	"time"

	"github.com/lacquerai/excellent/internal/dates"
	"github.com/lacquerai/excellent/internal/execcontext"
)

func (fm *FunctionManager) registerDateFunctions() {
	const category = "date"

	fm.mustRegister("date", category, "Defines a date value",
		[]Param{required("year"), required("month"), required("day")},
		[]string{"@(DATE(2012, 3, 2))"},
		func(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
			parts, err := integers(ctx, args)
			if err != nil {
				return nil, err
			}
			t := time.Date(parts[0], time.Month(parts[1]), parts[2], 0, 0, 0, 0, time.UTC)
			if t.Year() != parts[0] || int(t.Month()) != parts[1] || t.Day() != parts[2] {
				return nil, errors.New("Invalid date")
			}
			return Date(t), nil
		})

	fm.mustRegister("datevalue", category, "Converts date stored in text to an actual date",
		[]Param{required("text")},
		[]string{"@(DATEVALUE(\"2-3-13\"))"},
		func(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
			d, err := ToDate(args[0], ctx)
			if err != nil {
				return nil, err
			}
			return Date(d), nil
		})

	fm.mustRegister("day", category, "Returns only the day of the month of a date (1 to 31)",
		[]Param{required("date")},
		[]string{"@(DAY(contact.birth_date))"},
		datePart(func(t time.Time) int { return t.Day() }))

	fm.mustRegister("edate", category, "Moves a date by the given number of months",
		[]Param{required("date"), required("months")},
		[]string{"@(EDATE(date.today, 1))"},
		func(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
			base, err := ToDateOrDateTime(args[0], ctx)
			if err != nil {
				return nil, err
			}
			months, err := ToInteger(args[1], ctx)
			if err != nil {
				return nil, err
			}
			switch b := base.(type) {
			case DateValue:
				return Date(addMonths(b.Val, months)), nil
			default:
				return DateTime(addMonths(b.(DateTimeValue).Val, months)), nil
			}
		})

	fm.mustRegister("hour", category, "Returns only the hour of a datetime (0 to 23)",
		[]Param{required("datetime")},
		[]string{"@(HOUR(NOW()))"},
		dateTimePart(func(t time.Time) int { return t.Hour() }))

	fm.mustRegister("minute", category, "Returns only the minute of a datetime (0 to 59)",
		[]Param{required("datetime")},
		[]string{"@(MINUTE(NOW()))"},
		dateTimePart(func(t time.Time) int { return t.Minute() }))

	fm.mustRegister("month", category, "Returns only the month of a date (1 to 12)",
		[]Param{required("date")},
		[]string{"@(MONTH(NOW()))"},
		datePart(func(t time.Time) int { return int(t.Month()) }))

	fm.mustRegister("now", category, "Returns the current date and time",
		nil,
		[]string{"@(NOW())"},
		func(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
			if v, err := ctx.Resolve("date.now"); err == nil {
				t, err := ToDateTime(GoToValue(v), ctx)
				if err != nil {
					return nil, err
				}
				return DateTime(t), nil
			}
			return DateTime(ctx.Now()), nil
		})

	fm.mustRegister("second", category, "Returns only the second of a datetime (0 to 59)",
		[]Param{required("datetime")},
		[]string{"@(SECOND(NOW()))"},
		dateTimePart(func(t time.Time) int { return t.Second() }))

	fm.mustRegister("time", category, "Defines a time value",
		[]Param{required("hours"), required("minutes"), required("seconds")},
		[]string{"@(TIME(12, 13, 14))"},
		func(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
			parts, err := integers(ctx, args)
			if err != nil {
				return nil, err
			}
			t, ok := dates.NewTimeOfDay(parts[0], parts[1], parts[2])
			if !ok {
				return nil, errors.New("Invalid time")
			}
			return Time(t), nil
		})

	fm.mustRegister("timevalue", category, "Converts time stored in text to an actual time",
		[]Param{required("text")},
		[]string{"@(TIMEVALUE(\"2:30 pm\"))"},
		func(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
			t, err := ToTime(args[0], ctx)
			if err != nil {
				return nil, err
			}
			return Time(t), nil
		})

	fm.mustRegister("today", category, "Returns the current date",
		nil,
		[]string{"@(TODAY())"},
		func(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
			if v, err := ctx.Resolve("date.today"); err == nil {
				d, err := ToDate(GoToValue(v), ctx)
				if err != nil {
					return nil, err
				}
				return Date(d), nil
			}
			return Date(ctx.Now()), nil
		})

	fm.mustRegister("weekday", category, "Returns the day of the week of a date (1 for Sunday to 7 for Saturday)",
		[]Param{required("date")},
		[]string{"@(WEEKDAY(TODAY()))"},
		datePart(func(t time.Time) int { return int(t.Weekday()) + 1 }))

	fm.mustRegister("year", category, "Returns only the year of a date",
		[]Param{required("date")},
		[]string{"@(YEAR(contact.birth_date))"},
		datePart(func(t time.Time) int { return t.Year() }))
}

// datePart extracts an integer from a date or a datetime in the context
// timezone.
func datePart(part func(time.Time) int) Implementation {
	return func(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
		v, err := ToDateOrDateTime(args[0], ctx)
		if err != nil {
			return nil, err
		}
		return Int(int64(part(v.GoValue().(time.Time)))), nil
	}
}

func dateTimePart(part func(time.Time) int) Implementation {
	return func(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
		t, err := ToDateTime(args[0], ctx)
		if err != nil {
			return nil, err
		}
		return Int(int64(part(t))), nil
	}
}

// addMonths moves t by n months, clamping the day to the end of the target
// month.
func addMonths(t time.Time, n int) time.Time {
	total := int(t.Month()) - 1 + n
	year := t.Year() + total/12
	month := total % 12
	if month < 0 {
		month += 12
		year--
	}

	lastDay := time.Date(year, time.Month(month+2), 0, 0, 0, 0, 0, time.UTC).Day()
	day := min(t.Day(), lastDay)
	return time.Date(year, time.Month(month+1), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func integers(ctx *execcontext.EvaluationContext, args []Value) ([]int, error) {
	out := make([]int, len(args))
	for i, arg := range args {
		n, err := ToInteger(arg, ctx)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}
