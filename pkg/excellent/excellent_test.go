package excellent

import (
	"sync"
	"testing"
	"time"

	_ "github.com/lacquerai/excellent/internal/testhelper"
	pkgEvents "github.com/lacquerai/excellent/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingListener struct {
	mu     sync.Mutex
	events []pkgEvents.EvaluationEvent
}

func (l *recordingListener) OnEvent(event pkgEvents.EvaluationEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func TestEvaluator_EvaluateTemplate(t *testing.T) {
	ctx, err := NewContext(map[string]interface{}{
		"contact": map[string]interface{}{"name": "Bob", "age": 32},
	}, WithTimezone("Africa/Kigali"))
	require.NoError(t, err)

	listener := &recordingListener{}
	evaluator := New(WithListener(listener))

	result := evaluator.EvaluateTemplate("Hi @contact.name, next year you'll be @(contact.age + 1)", ctx, false)
	assert.Equal(t, "Hi Bob, next year you'll be 33", result.Output)
	assert.Empty(t, result.Errors)

	result = evaluator.EvaluateTemplate("Hi @contact.nickname", ctx, false)
	assert.Equal(t, "Hi @contact.nickname", result.Output)
	assert.Equal(t, []string{"No item called 'contact.nickname' in context"}, result.Errors)

	require.Len(t, listener.events, 2)
	assert.Equal(t, pkgEvents.EventTemplateRendered, listener.events[0].Type)
	assert.Equal(t, "Hi Bob, next year you'll be 33", listener.events[0].Output)
	assert.Equal(t, result.Errors, listener.events[1].Errors)
}

func TestEvaluator_EvaluateExpression(t *testing.T) {
	now := time.Date(2015, 8, 12, 9, 30, 0, 0, time.UTC)
	ctx, err := NewContext(map[string]interface{}{"foo": 5}, WithNow(now), WithMonthFirst())
	require.NoError(t, err)

	listener := &recordingListener{}
	evaluator := New(WithListener(listener))

	value, err := evaluator.EvaluateExpression("foo * 2", ctx)
	require.NoError(t, err)
	text, err := ToText(value, ctx)
	require.NoError(t, err)
	assert.Equal(t, "10", text)

	value, err = evaluator.EvaluateExpression("TODAY()", ctx)
	require.NoError(t, err)
	text, err = ToText(value, ctx)
	require.NoError(t, err)
	assert.Equal(t, "08-12-2015", text)

	_, err = evaluator.EvaluateExpression("foo / 0", ctx)
	assert.EqualError(t, err, "Division by zero")

	require.Len(t, listener.events, 3)
	assert.Equal(t, "number", listener.events[0].ValueType)
	assert.Equal(t, "date", listener.events[1].ValueType)
	assert.Equal(t, pkgEvents.EventExpressionFailed, listener.events[2].Type)
}

func TestEvaluator_Options(t *testing.T) {
	ctx, err := NewContext(map[string]interface{}{"vars": map[string]interface{}{"x": "y"}})
	require.NoError(t, err)

	evaluator := New(WithPrefix('$'), WithAllowedTopLevels("vars"))
	result := evaluator.EvaluateTemplate("$vars.x @vars.x", ctx, false)
	assert.Equal(t, "y @vars.x", result.Output)

	evaluator = New(WithStrategy(StrategyResolveAvailable))
	result = evaluator.EvaluateTemplate("@(vars.x & contact.name)", ctx, false)
	assert.Equal(t, `@("y"&contact.name)`, result.Output)
	assert.Empty(t, result.Errors)
}

func TestNewContext_InvalidTimezone(t *testing.T) {
	_, err := NewContext(nil, WithTimezone("Nowhere/Special"))
	assert.ErrorContains(t, err, "invalid timezone")
}

func TestContextFromJSON(t *testing.T) {
	ctx, err := ContextFromJSON([]byte(`{"vars": {"price": 1.50}, "tz": "Africa/Kigali", "now": "2015-08-12T09:30:00Z"}`))
	require.NoError(t, err)

	result := New().EvaluateTemplate("@(price * 2) @(NOW())", ctx, false)
	assert.Equal(t, "3 12-08-2015 11:30", result.Output)

	ctx, err = ContextFromYAML([]byte("vars:\n  name: Bob\n"))
	require.NoError(t, err)
	value, err := New().EvaluateExpression("UPPER(name)", ctx)
	require.NoError(t, err)
	assert.Equal(t, "BOB", value.String())
}
