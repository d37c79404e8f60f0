// Package events provides the types used to report evaluations as they
// happen. The HTTP service streams them over its websocket endpoint and
// embedding applications can receive them through a Listener.
package events

import (
	"time"
)

// EvaluationEventType represents the kind of evaluation an event describes
type EvaluationEventType string

const (
	// EventTemplateRendered is emitted after a template has been evaluated.
	// Expression errors are reported in Errors, the render itself never fails.
	EventTemplateRendered EvaluationEventType = "template_rendered"

	// EventExpressionEvaluated is emitted after an expression produced a value.
	EventExpressionEvaluated EvaluationEventType = "expression_evaluated"

	// EventExpressionFailed is emitted when an expression could not be evaluated.
	EventExpressionFailed EvaluationEventType = "expression_failed"

	// EventRequestRejected is emitted when a request could not be evaluated at
	// all, e.g. because its context was invalid or the server was at capacity.
	EventRequestRejected EvaluationEventType = "request_rejected"
)

// EvaluationEvent describes a single template or expression evaluation
type EvaluationEvent struct {
	// Type specifies the kind of evaluation that occurred.
	Type EvaluationEventType `json:"type"`
	// Timestamp indicates when the evaluation finished.
	Timestamp time.Time `json:"timestamp"`
	// RequestID identifies the request the event answers.
	RequestID string `json:"request_id"`
	// Input is the template or expression that was evaluated.
	Input string `json:"input,omitempty"`
	// Output is the rendered template or the text of the expression value.
	Output string `json:"output,omitempty"`
	// ValueType is the type of an expression's value (text, number, ...).
	ValueType string `json:"value_type,omitempty"`
	// Errors holds the messages of expressions that failed within a template.
	Errors []string `json:"errors,omitempty"`
	// Error contains the error message if the event represents a failure.
	Error string `json:"error,omitempty"`
	// Duration is how long the evaluation took.
	Duration time.Duration `json:"duration"`
}

// Failed returns true if the event represents a failed evaluation
func (e EvaluationEvent) Failed() bool {
	return e.Type == EventExpressionFailed || e.Type == EventRequestRejected
}

// Listener receives an event for every evaluation. Implementations must be
// safe to call from multiple goroutines.
type Listener interface {
	OnEvent(event EvaluationEvent)
}

// ListenerFunc adapts a plain function to the Listener interface
type ListenerFunc func(event EvaluationEvent)

// OnEvent calls f(event)
func (f ListenerFunc) OnEvent(event EvaluationEvent) { f(event) }

// NoopListener is a Listener implementation that performs no operations.
type NoopListener struct{}

// OnEvent implements the Listener interface but does nothing.
func (NoopListener) OnEvent(EvaluationEvent) {}
