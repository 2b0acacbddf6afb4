package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       ErrorCode
		httpStatus int
		retryable  bool
	}{
		{"NotFound", NotFound("task", "abc"), ErrCodeNotFound, http.StatusNotFound, false},
		{"InvalidInput", InvalidInput("audio", "empty"), ErrCodeInvalidInput, http.StatusBadRequest, false},
		{"MissingField", MissingField("audio"), ErrCodeMissingField, http.StatusBadRequest, false},
		{"Timeout", Timeout("diarize"), ErrCodeTimeout, http.StatusGatewayTimeout, true},
		{"ConnectionFailed", ConnectionFailed("redis"), ErrCodeConnectionFailed, http.StatusServiceUnavailable, true},
		{"QueueFull", QueueFull(), ErrCodeQueueFull, http.StatusServiceUnavailable, true},
		{"Internal", Internal(stderrors.New("boom")), ErrCodeInternal, http.StatusInternalServerError, false},
		{"CacheError", CacheError(stderrors.New("boom")), ErrCodeCacheError, http.StatusInternalServerError, true},
		{"ExternalServiceError", ExternalServiceError("groq", stderrors.New("boom")), ErrCodeExternalService, http.StatusBadGateway, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("Code = %s, want %s", tc.err.Code, tc.code)
			}
			if tc.err.HTTPStatus != tc.httpStatus {
				t.Errorf("HTTPStatus = %d, want %d", tc.err.HTTPStatus, tc.httpStatus)
			}
			if tc.err.Retryable != tc.retryable {
				t.Errorf("Retryable = %v, want %v", tc.err.Retryable, tc.retryable)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := CacheError(cause)

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is does not reach the cause")
	}
}

func TestAppError_WrappedDetection(t *testing.T) {
	inner := ExternalServiceError("baseten", stderrors.New("503"))
	wrapped := fmt.Errorf("processing: %w", inner)

	got, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("AsAppError failed on wrapped AppError")
	}
	if got.Code != ErrCodeExternalService {
		t.Errorf("Code = %s", got.Code)
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(Timeout("op")) {
		t.Error("Timeout should be retryable")
	}
	if IsRetryable(NotFound("task", "id")) {
		t.Error("NotFound should not be retryable")
	}
	// Unknown error types default to retryable so transport failures still
	// get the retry bound.
	if !IsRetryable(stderrors.New("mystery")) {
		t.Error("unknown errors should be retryable")
	}
}

func TestToResponse(t *testing.T) {
	err := MissingField("audio")
	resp := err.ToResponse()

	if resp.Error.Code != ErrCodeMissingField {
		t.Errorf("Code = %s", resp.Error.Code)
	}
	if resp.Error.Retryable {
		t.Error("MissingField response marked retryable")
	}
	if resp.Error.Details["field"] != "audio" {
		t.Errorf("Details = %v", resp.Error.Details)
	}
}

func TestWithDetailAndCause(t *testing.T) {
	err := InvalidInput("audio", "bad").
		WithDetail("size", 0).
		WithCause(stderrors.New("eof"))

	if err.Details["size"] != 0 {
		t.Errorf("Details = %v", err.Details)
	}
	if err.Cause == nil {
		t.Error("Cause not set")
	}
}
