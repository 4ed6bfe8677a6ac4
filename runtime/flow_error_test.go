package runtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

type upstreamError struct{ status int }

func (e *upstreamError) Error() string { return fmt.Sprintf("upstream returned %d", e.status) }

func (e *upstreamError) FlowError() *FlowError {
	return &FlowError{
		Type:       ErrorTypeTransient,
		Code:       "UPSTREAM",
		HTTPStatus: http.StatusBadGateway,
		Meta:       map[string]any{"statusCode": e.status},
	}
}

func TestAsFlowError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType FlowErrorType
		wantCode string
		status   int
	}{
		{
			name:     "plain error",
			err:      errors.New("boom"),
			wantType: ErrorTypePermanent,
			wantCode: ErrorCodeRuntimeError,
			status:   http.StatusInternalServerError,
		},
		{
			name:     "cancelled",
			err:      fmt.Errorf("waiting: %w", context.Canceled),
			wantType: ErrorTypePermanent,
			wantCode: ErrorCodeContextCancelled,
			status:   http.StatusInternalServerError,
		},
		{
			name:     "deadline",
			err:      context.DeadlineExceeded,
			wantType: ErrorTypeTimeout,
			wantCode: ErrorCodeDeadlineExceeded,
			status:   http.StatusGatewayTimeout,
		},
		{
			name:     "self-classifying error",
			err:      fmt.Errorf("item 2: %w", &upstreamError{status: 503}),
			wantType: ErrorTypeTransient,
			wantCode: "UPSTREAM",
			status:   http.StatusBadGateway,
		},
		{
			name:     "task not found",
			err:      &FlowError{Type: ErrorTypePermanent, Code: ErrorCodeTaskNotFound, Message: "missing"},
			wantType: ErrorTypePermanent,
			wantCode: ErrorCodeTaskNotFound,
			status:   http.StatusNotFound,
		},
		{
			name:     "user error",
			err:      &FlowError{Type: ErrorTypeUser, Code: "INVALID_INPUT"},
			wantType: ErrorTypeUser,
			wantCode: "INVALID_INPUT",
			status:   http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe := AsFlowError(tt.err, "fetch")
			if fe.Type != tt.wantType {
				t.Errorf("Expected type %s, got %s", tt.wantType, fe.Type)
			}
			if fe.Code != tt.wantCode {
				t.Errorf("Expected code %s, got %s", tt.wantCode, fe.Code)
			}
			if fe.Step != "fetch" {
				t.Errorf("Expected step 'fetch', got '%s'", fe.Step)
			}
			if fe.StatusCode() != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, fe.StatusCode())
			}
		})
	}
}

func TestAsFlowError_Nil(t *testing.T) {
	if AsFlowError(nil, "x") != nil {
		t.Error("Expected nil for nil error")
	}
}

func TestAsFlowError_KeepsCause(t *testing.T) {
	cause := &upstreamError{status: 500}
	fe := AsFlowError(fmt.Errorf("wrapped: %w", cause), "fetch")

	var target *upstreamError
	if !errors.As(fe, &target) {
		t.Fatal("Expected cause to be reachable through Unwrap")
	}
	if fe.Message != "wrapped: upstream returned 500" {
		t.Errorf("Unexpected message: %s", fe.Message)
	}
}

func TestAsFlowError_KeepsExistingStep(t *testing.T) {
	fe := AsFlowError(&FlowError{Type: ErrorTypePermanent, Code: "X", Step: "inner"}, "outer")
	if fe.Step != "inner" {
		t.Errorf("Expected step 'inner', got '%s'", fe.Step)
	}
}

func TestFlowError_ToMap(t *testing.T) {
	fe := AsFlowError(&upstreamError{status: 429}, "fetch")
	m := fe.ToMap()

	if m["type"] != "transient" || m["code"] != "UPSTREAM" || m["step"] != "fetch" {
		t.Errorf("Unexpected map: %v", m)
	}
	if m["statusCode"] != 429 {
		t.Errorf("Expected meta to be merged, got %v", m["statusCode"])
	}
}
