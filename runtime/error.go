package runtime

import "time"

// TaskError wraps a task failure with metadata the framework understands:
// - classification (type, code, HTTP status)
// - retry hints (retryable, retry_after)
// - anything else a plugin wants in the error output (status codes, job IDs)
//
// Metadata ends up in FlowError.Meta, so continue-on-fail records and HTTP
// error bodies carry it.
type TaskError struct {
	Err        error
	Code       string
	HTTPStatus int
	Metadata   map[string]any
}

func (e *TaskError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "task failed"
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

func NewTaskError(err error) *TaskError {
	return &TaskError{
		Err:      err,
		Metadata: make(map[string]any),
	}
}

func (e *TaskError) WithMetadata(key string, value any) *TaskError {
	e.Metadata[key] = value
	return e
}

func (e *TaskError) WithMetadataMap(metadata map[string]any) *TaskError {
	for k, v := range metadata {
		e.Metadata[k] = v
	}
	return e
}

// WithRetryHint marks the error as retryable or not. A zero retryAfter is omitted.
func (e *TaskError) WithRetryHint(retryable bool, retryAfter time.Duration) *TaskError {
	e.Metadata["retryable"] = retryable
	if retryAfter > 0 {
		e.Metadata["retry_after"] = retryAfter.String()
	}
	return e
}

func (e *TaskError) WithType(errorType FlowErrorType) *TaskError {
	e.Metadata["type"] = errorType
	return e
}

func (e *TaskError) WithCode(code string) *TaskError {
	e.Code = code
	return e
}

// WithStatus overrides the HTTP status an entrypoint answers with.
func (e *TaskError) WithStatus(status int) *TaskError {
	e.HTTPStatus = status
	return e
}

func (e *TaskError) IsRetryable() bool {
	if retryable, ok := e.Metadata["retryable"].(bool); ok {
		return retryable
	}
	return false
}

func (e *TaskError) GetRetryAfter() string {
	if retryAfter, ok := e.Metadata["retry_after"].(string); ok {
		return retryAfter
	}
	return ""
}

// GetType is the explicit type, or transient/permanent from the retry hint.
func (e *TaskError) GetType() FlowErrorType {
	if t, ok := e.Metadata["type"].(FlowErrorType); ok && t != "" {
		return t
	}
	if e.IsRetryable() {
		return ErrorTypeTransient
	}
	return ErrorTypePermanent
}

// FlowError classifies the task error. The type key stays out of Meta.
func (e *TaskError) FlowError() *FlowError {
	code := e.Code
	if code == "" {
		code = ErrorCodeRuntimeError
	}
	meta := make(map[string]any, len(e.Metadata))
	for k, v := range e.Metadata {
		if k != "type" {
			meta[k] = v
		}
	}
	return &FlowError{
		Type:       e.GetType(),
		Code:       code,
		Message:    e.Error(),
		Meta:       meta,
		HTTPStatus: e.HTTPStatus,
		cause:      e,
	}
}
