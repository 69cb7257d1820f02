package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestPredefinedErrorStatus(t *testing.T) {
	tests := []struct {
		err    *AppError
		status int
	}{
		{ErrInvalidParam, http.StatusBadRequest},
		{ErrNotFound, http.StatusNotFound},
		{ErrProjectNotFound, http.StatusNotFound},
		{ErrArtifactNotFound, http.StatusNotFound},
		{ErrUnapprovedOutline, http.StatusConflict},
		{ErrOutlineLocked, http.StatusConflict},
		{ErrValidationFailed, http.StatusUnprocessableEntity},
		{ErrDegenerateTarget, http.StatusUnprocessableEntity},
		{ErrInvalidStructure, http.StatusUnprocessableEntity},
		{ErrTooManyRequests, http.StatusTooManyRequests},
		{ErrServiceUnavailable, http.StatusServiceUnavailable},
		{ErrLLMCallFailed, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			if tt.err.HTTPStatus != tt.status {
				t.Errorf("status = %d, want %d", tt.err.HTTPStatus, tt.status)
			}
		})
	}
}

func TestAppError_IsMatchesDerivedErrors(t *testing.T) {
	derived := ErrOutlineLocked.WithDetail("o1")
	wrapped := fmt.Errorf("plan: %w", derived)

	if !errors.Is(wrapped, ErrOutlineLocked) {
		t.Error("derived error should match its sentinel")
	}
	if errors.Is(wrapped, ErrUnapprovedOutline) {
		t.Error("different codes must not match")
	}
	if ErrOutlineLocked.Detail != "" {
		t.Error("WithDetail must not modify the sentinel")
	}
}

func TestAsAppError(t *testing.T) {
	if got := AsAppError(ErrNotFound.WithDetail("x")); got.Code != CodeNotFound {
		t.Errorf("code = %s", got.Code)
	}
	got := AsAppError(errors.New("boom"))
	if got.Code != CodeUnknown || got.HTTPStatus != http.StatusInternalServerError {
		t.Errorf("unknown error mapped to %s/%d", got.Code, got.HTTPStatus)
	}
}
