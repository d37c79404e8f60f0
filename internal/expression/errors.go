package expression

import "fmt"

const invalidExpressionMessage = "Expression is invalid"

// EvaluationError is raised when an expression is valid but can't be
// evaluated. Its message is shown to end users as is.
type EvaluationError struct {
	Message string
	Cause   error
}

func (e *EvaluationError) Error() string { return e.Message }

func (e *EvaluationError) Unwrap() error { return e.Cause }

func newEvaluationError(format string, args ...interface{}) *EvaluationError {
	return &EvaluationError{Message: fmt.Sprintf(format, args...)}
}

func wrapEvaluationError(cause error, format string, args ...interface{}) *EvaluationError {
	return &EvaluationError{Message: fmt.Sprintf(format, args...), Cause: cause}
}

// ParseError is raised when expression text is syntactically invalid. The
// user facing message is always the same and Detail says what went wrong.
type ParseError struct {
	EvaluationError
	Detail   string
	Position int
}

func newParseError(pos int, format string, args ...interface{}) *ParseError {
	return &ParseError{
		EvaluationError: EvaluationError{Message: invalidExpressionMessage},
		Detail:          fmt.Sprintf(format, args...),
		Position:        pos,
	}
}

// As lets errors.As find the embedded evaluation error
func (e *ParseError) As(target interface{}) bool {
	if t, ok := target.(**EvaluationError); ok {
		*t = &e.EvaluationError
		return true
	}
	return false
}
