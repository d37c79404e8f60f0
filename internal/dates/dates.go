// Package dates implements the fuzzy date, datetime and time parser used by
// the expression engine to coerce free text into temporal values.
package dates

import (
	"fmt"
	"strings"
	"time"
)

// Style controls whether ambiguous numeric dates are read day first or month first
type Style int

const (
	DayFirst Style = iota
	MonthFirst
)

func (s Style) String() string {
	if s == MonthFirst {
		return "month_first"
	}
	return "day_first"
}

// ParseStyle parses the text form of a style
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "day_first", "dayfirst", "day-first":
		return DayFirst, nil
	case "month_first", "monthfirst", "month-first":
		return MonthFirst, nil
	default:
		return DayFirst, fmt.Errorf("unknown date style: %s", s)
	}
}

// Format returns the Go layout used to display dates in this style
func (s Style) Format() string {
	if s == MonthFirst {
		return "01-02-2006"
	}
	return "02-01-2006"
}

// Mode restricts which kinds of values the parser may produce
type Mode int

const (
	ModeDate Mode = iota
	ModeDateTime
	ModeTime
	ModeAuto
)

// Kind identifies what the parser produced
type Kind int

const (
	KindDate Kind = iota
	KindDateTime
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindDate:
		return "date"
	case KindDateTime:
		return "datetime"
	default:
		return "time"
	}
}

// TimeOfDay is a wall clock time with no date or zone
type TimeOfDay struct {
	Hour       int
	Minute     int
	Second     int
	Nanosecond int
}

// NewTimeOfDay returns a validated time of day
func NewTimeOfDay(hour, minute, second int) (TimeOfDay, bool) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return TimeOfDay{}, false
	}
	return TimeOfDay{Hour: hour, Minute: minute, Second: second}, true
}

// ClockOf returns the time of day of t in its own location
func ClockOf(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(), Nanosecond: t.Nanosecond()}
}

// Duration returns the time elapsed since midnight
func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t.Hour)*time.Hour +
		time.Duration(t.Minute)*time.Minute +
		time.Duration(t.Second)*time.Second +
		time.Duration(t.Nanosecond)
}

// On combines the time of day with the date of d in loc
func (t TimeOfDay) On(d time.Time, loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour, t.Minute, t.Second, t.Nanosecond, loc)
}

// Compare returns -1, 0 or 1
func (t TimeOfDay) Compare(other TimeOfDay) int {
	a, b := t.Duration(), other.Duration()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Result is the outcome of a successful parse. Time holds the date (midnight
// UTC) or datetime, Clock holds the time of day for KindTime.
type Result struct {
	Kind  Kind
	Time  time.Time
	Clock TimeOfDay
}

// DateOf truncates t to its calendar date as midnight UTC
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
