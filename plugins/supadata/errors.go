package supadata

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sflowg/supadata/runtime"
)

// Error codes carried by the FlowError form of each error kind.
const (
	CodeAPIError        = "SUPADATA_API_ERROR"
	CodeJobFailed       = "JOB_FAILED"
	CodeJobTimeout      = "JOB_TIMEOUT"
	CodeInvalidParam    = "INVALID_PARAMETER"
	CodePaginationLimit = "PAGINATION_LIMIT_EXCEEDED"
)

// APIError is a non-success answer from the API, or a transport failure when
// StatusCode is 0. Code, Message and Details are passed through from the
// upstream error body.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Code       string
	Message    string
	Details    string

	cause error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("supadata %s %s: %s", e.Method, e.Path, e.Message)
	}
	if e.Code != "" {
		return fmt.Sprintf("supadata %s %s: %d %s: %s", e.Method, e.Path, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("supadata %s %s: %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return e.cause }

// Transient reports whether the same request could succeed later.
func (e *APIError) Transient() bool {
	return e.StatusCode == 0 || e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

func (e *APIError) FlowError() *runtime.FlowError {
	te := runtime.NewTaskError(e).
		WithCode(CodeAPIError).
		WithStatus(http.StatusBadGateway).
		WithRetryHint(e.Transient(), 0).
		WithMetadata("statusCode", e.StatusCode)
	if e.Code != "" {
		te.WithMetadata("upstreamCode", e.Code)
	}
	if e.Details != "" {
		te.WithMetadata("details", e.Details)
	}
	return te.FlowError()
}

// JobFailedError reports an asynchronous job the API marked as failed.
type JobFailedError struct {
	JobID   string
	Message string
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("job %s failed: %s", e.JobID, e.Message)
}

func (e *JobFailedError) FlowError() *runtime.FlowError {
	return runtime.NewTaskError(e).
		WithCode(CodeJobFailed).
		WithStatus(http.StatusBadGateway).
		WithRetryHint(false, 0).
		WithMetadata("jobId", e.JobID).
		FlowError()
}

// JobTimeoutError reports a job that had no terminal status within the wait budget.
type JobTimeoutError struct {
	JobID    string
	MaxWait  time.Duration
	Attempts int
}

func (e *JobTimeoutError) Error() string {
	return fmt.Sprintf("job %s timed out after %s (%d status checks)", e.JobID, e.MaxWait, e.Attempts)
}

func (e *JobTimeoutError) FlowError() *runtime.FlowError {
	return runtime.NewTaskError(e).
		WithType(runtime.ErrorTypeTimeout).
		WithCode(CodeJobTimeout).
		WithMetadataMap(map[string]any{"jobId": e.JobID, "attempts": e.Attempts}).
		FlowError()
}

// ValidationError is malformed input caught before any request is sent.
type ValidationError struct {
	Field   string
	Message string

	cause error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid parameters: " + e.Message
	}
	return fmt.Sprintf("invalid parameter %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.cause }

func (e *ValidationError) FlowError() *runtime.FlowError {
	te := runtime.NewTaskError(e).
		WithType(runtime.ErrorTypeUser).
		WithCode(CodeInvalidParam)
	if e.Field != "" {
		te.WithMetadata("field", e.Field)
	}
	return te.FlowError()
}

// PaginationLimitError stops a listing whose continuation marker would take
// it past the configured page or item cap.
type PaginationLimitError struct {
	Path  string
	Limit string // "pages" or "items"
	Max   int
}

func (e *PaginationLimitError) Error() string {
	return fmt.Sprintf("pagination of %s exceeded %d %s", e.Path, e.Max, e.Limit)
}

func (e *PaginationLimitError) FlowError() *runtime.FlowError {
	return runtime.NewTaskError(e).
		WithCode(CodePaginationLimit).
		WithMetadataMap(map[string]any{"limit": e.Limit, "max": e.Max}).
		FlowError()
}

// ItemError ties a failure to the input item that caused it.
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.Index, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

func (e *ItemError) FlowError() *runtime.FlowError {
	var fe *runtime.FlowError
	var classified runtime.FlowErrorer
	switch {
	case errors.As(e.Err, &fe):
		copied := *fe
		fe = &copied
	case errors.As(e.Err, &classified):
		fe = classified.FlowError()
	default:
		fe = runtime.AsFlowError(e.Err, "")
	}

	meta := make(map[string]any, len(fe.Meta)+1)
	for k, v := range fe.Meta {
		meta[k] = v
	}
	meta["item"] = e.Index
	fe.Meta = meta
	return fe
}
