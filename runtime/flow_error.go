package runtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// FlowErrorType classifies error severity and retry behavior.
type FlowErrorType string

const (
	// ErrorTypeTransient signals the operation can be retried.
	ErrorTypeTransient FlowErrorType = "transient"
	// ErrorTypePermanent signals the operation should not be retried.
	ErrorTypePermanent FlowErrorType = "permanent"
	// ErrorTypeTimeout signals the operation was cancelled by a deadline.
	ErrorTypeTimeout FlowErrorType = "timeout"
	// ErrorTypeUser signals invalid input supplied by the flow author.
	ErrorTypeUser FlowErrorType = "user_error"
)

// Framework-generated codes. Plugins may use any other string value.
const (
	ErrorCodeRuntimeError     = "RUNTIME_ERROR"
	ErrorCodeContextCancelled = "CONTEXT_CANCELLED"
	ErrorCodeDeadlineExceeded = "DEADLINE_EXCEEDED"
	ErrorCodeTaskNotFound     = "TASK_NOT_FOUND"
)

// FlowError is the canonical error shape reported by a flow execution.
type FlowError struct {
	Type    FlowErrorType  `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Step    string         `json:"step,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`

	// HTTPStatus overrides the status an HTTP entrypoint answers with.
	HTTPStatus int `json:"-"`

	cause error
}

func (e *FlowError) Error() string {
	if e.Step == "" {
		return fmt.Sprintf("[%s/%s] %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("[%s/%s] %s (step: %s)", e.Type, e.Code, e.Message, e.Step)
}

func (e *FlowError) Unwrap() error {
	return e.cause
}

// StatusCode is the HTTP status an entrypoint reports for this error.
func (e *FlowError) StatusCode() int {
	if e.HTTPStatus != 0 {
		return e.HTTPStatus
	}
	switch e.Type {
	case ErrorTypeUser:
		return http.StatusBadRequest
	case ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	case ErrorTypeTransient:
		return http.StatusServiceUnavailable
	}
	if e.Code == ErrorCodeTaskNotFound {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// ToMap converts the error to a map suitable for output records and expression contexts.
func (e *FlowError) ToMap() map[string]any {
	m := map[string]any{
		"type":    string(e.Type),
		"code":    e.Code,
		"message": e.Message,
	}
	if e.Step != "" {
		m["step"] = e.Step
	}
	for k, v := range e.Meta {
		m[k] = v
	}
	return m
}

// FlowErrorer is implemented by plugin errors that know their own classification.
type FlowErrorer interface {
	FlowError() *FlowError
}

// AsFlowError classifies err, attaching the failing step. The outermost
// FlowErrorer in the chain (a TaskError included) decides the classification;
// errors that do not describe themselves become runtime errors.
func AsFlowError(err error, step string) *FlowError {
	if err == nil {
		return nil
	}

	var fe *FlowError
	if errors.As(err, &fe) {
		out := *fe
		if out.Step == "" {
			out.Step = step
		}
		return &out
	}

	var classified FlowErrorer
	if errors.As(err, &classified) {
		out := classified.FlowError()
		out.Step = step
		out.Message = err.Error()
		out.cause = err
		return out
	}

	switch {
	case errors.Is(err, context.Canceled):
		return &FlowError{Type: ErrorTypePermanent, Code: ErrorCodeContextCancelled, Message: err.Error(), Step: step, cause: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &FlowError{Type: ErrorTypeTimeout, Code: ErrorCodeDeadlineExceeded, Message: err.Error(), Step: step, cause: err}
	}

	return &FlowError{Type: ErrorTypePermanent, Code: ErrorCodeRuntimeError, Message: err.Error(), Step: step, cause: err}
}
