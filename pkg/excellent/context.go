package excellent

import (
	"fmt"
	"time"

	"github.com/lacquerai/excellent/internal/dates"
	"github.com/lacquerai/excellent/internal/execcontext"
)

type contextConfig struct {
	loc   *time.Location
	style dates.Style
	now   time.Time
	err   error
}

// ContextOption configures a Context
type ContextOption func(*contextConfig)

// WithTimezone sets the IANA timezone datetimes are parsed and displayed in.
// The default is UTC.
func WithTimezone(name string) ContextOption {
	return func(c *contextConfig) {
		loc, err := time.LoadLocation(name)
		if err != nil {
			c.err = fmt.Errorf("invalid timezone %q: %w", name, err)
			return
		}
		c.loc = loc
	}
}

// WithLocation sets the timezone datetimes are parsed and displayed in
func WithLocation(loc *time.Location) ContextOption {
	return func(c *contextConfig) {
		c.loc = loc
	}
}

// WithMonthFirst reads ambiguous dates such as 01-02-2015 as month first
func WithMonthFirst() ContextOption {
	return func(c *contextConfig) {
		c.style = dates.MonthFirst
	}
}

// WithNow fixes the instant NOW() and TODAY() are computed from
func WithNow(now time.Time) ContextOption {
	return func(c *contextConfig) {
		c.now = now
	}
}

// NewContext creates a context from a map of variables. Keys are matched
// case-insensitively and a "*" key gives a nested map its default value.
func NewContext(vars map[string]interface{}, options ...ContextOption) (*Context, error) {
	config := &contextConfig{loc: time.UTC, style: dates.DayFirst}
	for _, option := range options {
		option(config)
	}
	if config.err != nil {
		return nil, config.err
	}

	return execcontext.NewEvaluationContext(vars, config.loc, config.style, config.now), nil
}

// ContextFromJSON creates a context from its JSON document form:
//
//	{"vars": {...}, "tz": "Africa/Kigali", "day_first": true, "now": "2015-08-12T09:30:00Z"}
func ContextFromJSON(data []byte) (*Context, error) {
	return execcontext.FromJSON(data)
}

// ContextFromYAML creates a context from its YAML document form
func ContextFromYAML(data []byte) (*Context, error) {
	return execcontext.FromYAML(data)
}
