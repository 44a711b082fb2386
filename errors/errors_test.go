package errors

import (
	"fmt"
	"testing"
)

func TestButlerError(t *testing.T) {
	// Test basic error creation
	err := New(ErrCodeProjectNotFound, "project not found")
	if err.Code != ErrCodeProjectNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeProjectNotFound, err.Code)
	}

	// Test error wrapping
	cause := fmt.Errorf("underlying error")
	wrapped := Wrap(cause, ErrCodeDiffFailed, "diff failed")

	if wrapped.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}

	// Test Is function
	if !Is(wrapped, ErrCodeDiffFailed) {
		t.Error("Is should return true for matching code")
	}

	if Is(wrapped, ErrCodeProjectNotFound) {
		t.Error("Is should return false for non-matching code")
	}

	// Test WithDetail
	detailed := err.WithDetail("project", "my-app").WithDetail("attempt", 2)
	if detailed.Details["project"] != "my-app" {
		t.Error("WithDetail should add details")
	}
}

func TestErrorConstructors(t *testing.T) {
	// Test ProjectNotFound
	err := ProjectNotFound("abc123")
	if err.Code != ErrCodeProjectNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeProjectNotFound, err.Code)
	}
	if err.Details["project"] != "abc123" {
		t.Error("ProjectNotFound should include project detail")
	}

	// Test DiffFailed keeps the failing path
	err = DiffFailed("src/main.go", fmt.Errorf("bad content"))
	if err.Code != ErrCodeDiffFailed {
		t.Errorf("expected code %s, got %s", ErrCodeDiffFailed, err.Code)
	}
	if err.Details["path"] != "src/main.go" {
		t.Error("DiffFailed should include path detail")
	}

	// Test GetCode through wrapping
	outer := fmt.Errorf("outer: %w", SessionFailed("p1", fmt.Errorf("locked")))
	if GetCode(outer) != ErrCodeSessionFailed {
		t.Errorf("expected code %s, got %s", ErrCodeSessionFailed, GetCode(outer))
	}
}
