package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError_New(t *testing.T) {
	err := New(ErrCodeInternal, "boom")
	if err.Code != ErrCodeInternal {
		t.Errorf("expected code %s, got %s", ErrCodeInternal, err.Code)
	}
	if err.Error() != "INTERNAL_ERROR: boom" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestAppError_SourceUnavailable(t *testing.T) {
	cause := fmt.Errorf("no such file")
	err := SourceUnavailable("lines:/tmp/x", cause)
	if err.Code != ErrCodeSourceUnavailable {
		t.Errorf("expected SOURCE_UNAVAILABLE, got %s", err.Code)
	}
	if err.Details["source"] != "lines:/tmp/x" {
		t.Errorf("expected source detail, got %v", err.Details["source"])
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
	if !strings.Contains(err.Error(), "no such file") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}
	if !IsConstructionCode(err.Code) {
		t.Error("SOURCE_UNAVAILABLE is raised at construction")
	}
}

func TestAppError_ElementProcessing(t *testing.T) {
	t.Run("with position", func(t *testing.T) {
		err := ElementProcessing("map", 7, fmt.Errorf("bad"))
		pos, ok := err.Position()
		if !ok || pos != 7 {
			t.Errorf("expected position 7, got %d (%v)", pos, ok)
		}
		if !strings.Contains(err.Message, "element 7") {
			t.Errorf("expected position in message, got %q", err.Message)
		}
	})

	t.Run("unknown position", func(t *testing.T) {
		err := ElementProcessing("filter", -1, fmt.Errorf("bad"))
		if _, ok := err.Position(); ok {
			t.Error("expected no position")
		}
		if IsConstructionCode(err.Code) {
			t.Error("element failures happen during a run")
		}
	})
}

func TestHasCode(t *testing.T) {
	inner := SourceConsumed()
	wrapped := fmt.Errorf("collect: %w", inner)

	if !HasCode(wrapped, ErrCodeSourceConsumed) {
		t.Error("expected SOURCE_CONSUMED in chain")
	}
	if HasCode(wrapped, ErrCodeCancelled) {
		t.Error("did not expect CANCELLED in chain")
	}
	if CodeOf(wrapped) != ErrCodeSourceConsumed {
		t.Errorf("expected SOURCE_CONSUMED, got %s", CodeOf(wrapped))
	}
	if CodeOf(fmt.Errorf("plain")) != "" {
		t.Error("expected empty code for a plain error")
	}
}

func TestAsAppError(t *testing.T) {
	err := fmt.Errorf("wrap: %w", InvalidArgument("limit", "must not be negative"))
	appErr, ok := AsAppError(err)
	if !ok {
		t.Fatal("expected AppError")
	}
	if appErr.Details["argument"] != "limit" {
		t.Errorf("expected argument=limit, got %v", appErr.Details["argument"])
	}
	if _, ok := AsAppError(fmt.Errorf("plain")); ok {
		t.Error("expected no AppError")
	}
	if !IsAppError(err) {
		t.Error("IsAppError should see through wrapping")
	}
}

func TestAppError_WithDetail(t *testing.T) {
	err := Internal(nil).WithDetail("k", "v").WithCause(fmt.Errorf("root"))
	if err.Details["k"] != "v" {
		t.Errorf("expected detail k=v, got %v", err.Details)
	}
	if err.Unwrap() == nil {
		t.Error("expected cause")
	}
}

func TestCancelled(t *testing.T) {
	err := Cancelled(fmt.Errorf("context canceled"))
	if !Is(err, &AppError{Code: ErrCodeCancelled}) {
		t.Error("expected CANCELLED match")
	}
	var target *AppError
	if !As(err, &target) || target.Code != ErrCodeCancelled {
		t.Error("expected As to find AppError")
	}
}
