package vecerrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewAndError(t *testing.T) {
	err := New(ErrorTypeUnsupported, "unsupported element type")
	if err.Error() != "unsupported: unsupported element type" {
		t.Errorf("Error() = %q", err.Error())
	}
	if len(err.Stack) == 0 {
		t.Error("expected a captured stack")
	}
}

func TestNewf(t *testing.T) {
	err := Newf(ErrorTypeData, "embedded nul at index %d", 3)
	if err.Message != "embedded nul at index 3" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(cause, ErrorTypeSerialization, "writing state")

	if !errors.Is(err, cause) {
		t.Error("wrapped error must match its cause with errors.Is")
	}
	want := "serialization: writing state: boom"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, ErrorTypeInternal, "nothing") != nil {
		t.Error("wrapping nil must return nil")
	}
}

func TestWrapKeepsInnerStack(t *testing.T) {
	inner := New(ErrorTypeData, "inner")
	outer := Wrap(inner, ErrorTypeSerialization, "outer")
	if len(outer.Stack) != len(inner.Stack) {
		t.Error("wrapping a structured error must preserve its stack")
	}
}

func TestWithDetail(t *testing.T) {
	err := New(ErrorTypeUnsupported, "declined").
		WithDetail("type", "int64").
		WithDetail("chunks", 3)
	if err.Details["type"] != "int64" || err.Details["chunks"] != 3 {
		t.Errorf("Details = %v", err.Details)
	}
}

func TestTypePredicates(t *testing.T) {
	decline := New(ErrorTypeUnsupported, "declined")
	if !IsUnsupported(decline) {
		t.Error("IsUnsupported must match an unsupported error")
	}
	if IsImmutable(decline) {
		t.Error("IsImmutable must not match an unsupported error")
	}

	// predicates see through plain wrapping
	wrapped := fmt.Errorf("context: %w", decline)
	if !IsUnsupported(wrapped) {
		t.Error("IsUnsupported must see through fmt.Errorf wrapping")
	}

	if IsType(errors.New("plain"), ErrorTypeUnsupported) {
		t.Error("IsType must not match plain errors")
	}
}
