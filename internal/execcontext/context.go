package execcontext

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lacquerai/excellent/internal/dates"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ErrNoSuchItem is matched by lookup errors for paths missing from the context
var ErrNoSuchItem = errors.New("no such item in context")

// DefaultKey holds the value a nested map renders as when used as a scalar
const DefaultKey = "*"

// LookupError reports a variable path that could not be resolved
type LookupError struct {
	Path    string
	Message string
	missing bool
}

func (e *LookupError) Error() string { return e.Message }

func (e *LookupError) Is(target error) bool {
	return target == ErrNoSuchItem && e.missing
}

func noSuchItem(path string) error {
	return &LookupError{Path: path, Message: fmt.Sprintf("No item called '%s' in context", path), missing: true}
}

// EvaluationContext holds everything an expression can see while being
// evaluated: variables, the timezone, the date style and a fixed now. It is
// not modified during evaluation and may be shared between goroutines.
type EvaluationContext struct {
	vars   map[string]interface{}
	loc    *time.Location
	style  dates.Style
	now    time.Time
	parser *dates.Parser

	mu   sync.Mutex
	rand *rand.Rand
}

// NewEvaluationContext creates a context. Variable keys are lower-cased at
// every level and values are normalized to the types the engine understands.
func NewEvaluationContext(vars map[string]interface{}, loc *time.Location, style dates.Style, now time.Time) *EvaluationContext {
	if loc == nil {
		loc = time.UTC
	}
	if now.IsZero() {
		now = time.Now()
	}
	now = now.In(loc)

	normalized, _ := normalize(vars).(map[string]interface{})
	if normalized == nil {
		normalized = make(map[string]interface{})
	}

	return &EvaluationContext{
		vars:   normalized,
		loc:    loc,
		style:  style,
		now:    now,
		parser: dates.NewParser(now, loc, style),
		rand:   rand.New(rand.NewSource(now.UnixNano())),
	}
}

// Location returns the timezone datetimes are displayed and parsed in
func (c *EvaluationContext) Location() *time.Location { return c.loc }

// Style returns the date style
func (c *EvaluationContext) Style() dates.Style { return c.style }

// Now returns the fixed current instant in the context timezone
func (c *EvaluationContext) Now() time.Time { return c.now }

// DateParser returns a parser bound to this context's now, timezone and style
func (c *EvaluationContext) DateParser() *dates.Parser { return c.parser }

// Variables returns the normalized variable tree. Callers must not modify it.
func (c *EvaluationContext) Variables() map[string]interface{} { return c.vars }

// RandomFloat returns a pseudo-random number in [0, 1)
func (c *EvaluationContext) RandomFloat() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rand.Float64()
}

// RandomBetween returns a pseudo-random integer in [lo, hi]
func (c *EvaluationContext) RandomBetween(lo, hi int64) int64 {
	if hi < lo {
		lo, hi = hi, lo
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return lo + c.rand.Int63n(hi-lo+1)
}

// With returns a copy of the context with a top level variable set
func (c *EvaluationContext) With(key string, value interface{}) *EvaluationContext {
	vars := make(map[string]interface{}, len(c.vars)+1)
	for k, v := range c.vars {
		vars[k] = v
	}
	vars[strings.ToLower(key)] = normalize(value)

	return &EvaluationContext{
		vars:   vars,
		loc:    c.loc,
		style:  c.style,
		now:    c.now,
		parser: c.parser,
		rand:   rand.New(rand.NewSource(c.now.UnixNano())),
	}
}

// Resolve looks up a dotted variable path. Lookups are case-insensitive,
// numeric segments index into lists and a map used as a value resolves to
// its default entry.
func (c *EvaluationContext) Resolve(path string) (interface{}, error) {
	segments := strings.Split(strings.ToLower(path), ".")

	var current interface{} = c.vars
	for _, segment := range segments {
		switch node := current.(type) {
		case map[string]interface{}:
			value, ok := node[segment]
			if !ok {
				return nil, noSuchItem(path)
			}
			current = value
		case []interface{}:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, noSuchItem(path)
			}
			current = node[idx]
		default:
			return nil, noSuchItem(path)
		}
	}

	for {
		m, ok := current.(map[string]interface{})
		if !ok {
			break
		}
		def, ok := m[DefaultKey]
		if !ok {
			return nil, &LookupError{Path: path, Message: fmt.Sprintf("Item '%s' in context has no default value", path)}
		}
		current = def
	}

	if current == nil {
		log.Debug().Str("path", path).Msg("context item is null")
		return "", nil
	}
	return current, nil
}

// normalize lower-cases map keys and converts numbers to int64 when they are
// integral or decimal.Decimal otherwise.
func normalize(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, item := range v {
			out[strings.ToLower(k)] = normalize(item)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, item := range v {
			out[strings.ToLower(fmt.Sprint(k))] = normalize(item)
		}
		return out
	case map[string]string:
		out := make(map[string]interface{}, len(v))
		for k, item := range v {
			out[strings.ToLower(k)] = item
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = normalize(item)
		}
		return out
	case []string:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = item
		}
		return out
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case uint64:
		return numberFromDecimal(decimal.RequireFromString(strconv.FormatUint(v, 10)))
	case float32:
		return numberFromDecimal(decimal.NewFromFloat32(v))
	case float64:
		return numberFromDecimal(decimal.NewFromFloat(v))
	case decimal.Decimal:
		return numberFromDecimal(v)
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return v.String()
		}
		return numberFromDecimal(d)
	}
	return value
}

func numberFromDecimal(d decimal.Decimal) interface{} {
	if d.Equal(d.Truncate(0)) && d.Abs().LessThan(decimal.New(1, 18)) {
		return d.IntPart()
	}
	return d
}

// RunContext carries the output streams of a CLI command
type RunContext struct {
	Context context.Context
	StdOut  io.Writer
	StdErr  io.Writer
}

func (rc RunContext) Write(p []byte) (n int, err error) {
	return rc.StdOut.Write(p)
}

func (rc RunContext) Printf(format string, v ...any) {
	fmt.Fprintf(rc.StdOut, format, v...)
}
