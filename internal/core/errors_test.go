// internal/core/errors_test.go
package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := &Error{Code: "TEST_ERROR", Message: "test message"}
	if err.Error() != "[TEST_ERROR] test message" {
		t.Errorf("unexpected error string: %s", err.Error())
	}
}

func TestError_ErrorWithCause(t *testing.T) {
	err := WrapError(ErrStorageFailed, errors.New("disk full"))
	want := "[STORAGE_FAILED] storage operation failed: disk full"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{Code: "WRAP", Message: "wrapped", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("Unwrap should return cause")
	}
}

func TestError_Is(t *testing.T) {
	if !errors.Is(ErrNotFound, ErrNotFound) {
		t.Error("same error should match")
	}
	if errors.Is(ErrNotFound, ErrQuotaExceeded) {
		t.Error("different codes should not match")
	}
}

func TestWrapError(t *testing.T) {
	cause := errors.New("original")
	wrapped := WrapError(ErrProviderFailed, cause)
	if wrapped.Cause != cause {
		t.Error("cause not set")
	}
	if wrapped.Code != ErrProviderFailed.Code {
		t.Error("code not preserved")
	}
}

func TestWrapError_NotFoundCarriesQuota(t *testing.T) {
	err := fmt.Errorf("resolving: %w", WrapError(ErrNotFound, ErrQuotaExceeded))

	if !errors.Is(err, ErrNotFound) {
		t.Error("expected not found to match")
	}
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Error("expected quota exceeded to match through the cause")
	}
}
