package events

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"

	pkgEvents "github.com/lacquerai/excellent/pkg/events"
)

// NewRequestID generates a random identifier for an evaluation request
func NewRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return "req_" + strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return "req_" + hex.EncodeToString(bytes)
}

func NewTemplateEvent(requestID, template, output string, errs []string, duration time.Duration) pkgEvents.EvaluationEvent {
	return pkgEvents.EvaluationEvent{
		Type:      pkgEvents.EventTemplateRendered,
		Timestamp: time.Now(),
		RequestID: requestID,
		Input:     template,
		Output:    output,
		Errors:    errs,
		Duration:  duration,
	}
}

func NewExpressionEvent(requestID, expression, output, valueType string, duration time.Duration) pkgEvents.EvaluationEvent {
	return pkgEvents.EvaluationEvent{
		Type:      pkgEvents.EventExpressionEvaluated,
		Timestamp: time.Now(),
		RequestID: requestID,
		Input:     expression,
		Output:    output,
		ValueType: valueType,
		Duration:  duration,
	}
}

func NewExpressionFailedEvent(requestID, expression string, err error, duration time.Duration) pkgEvents.EvaluationEvent {
	return pkgEvents.EvaluationEvent{
		Type:      pkgEvents.EventExpressionFailed,
		Timestamp: time.Now(),
		RequestID: requestID,
		Input:     expression,
		Error:     err.Error(),
		Duration:  duration,
	}
}

func NewRejectedEvent(requestID string, err error) pkgEvents.EvaluationEvent {
	return pkgEvents.EvaluationEvent{
		Type:      pkgEvents.EventRequestRejected,
		Timestamp: time.Now(),
		RequestID: requestID,
		Error:     err.Error(),
	}
}
