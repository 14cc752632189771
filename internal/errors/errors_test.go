package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestNewRegisteredCode(t *testing.T) {
	err := New(CodeNodeNotFound)
	if err.Code != CodeNodeNotFound {
		t.Errorf("Code = %q, want %q", err.Code, CodeNodeNotFound)
	}
	if err.Category != CategoryTree {
		t.Errorf("Category = %q, want %q", err.Category, CategoryTree)
	}
	if err.Message == "" || err.Detail == "" {
		t.Error("expected message and detail from registry")
	}
}

func TestNewUnknownCode(t *testing.T) {
	err := New("L999")
	if err == nil {
		t.Fatal("New returned nil for unknown code")
	}
	if err.Code != "L999" {
		t.Errorf("Code = %q, want L999", err.Code)
	}
}

func TestErrorString(t *testing.T) {
	err := Newf(CodeNodeNotFound, "id %d", 42)
	want := "L001: node not found: id 42"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrapAndUnwrap(t *testing.T) {
	inner := fmt.Errorf("socket closed")
	err := New(CodeTransportClosed).Wrap(inner)
	if !stderrors.Is(err, inner) {
		t.Error("errors.Is should find the wrapped error")
	}
}

func TestCodeOfThroughChain(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeNoRoot))
	if got := CodeOf(err); got != CodeNoRoot {
		t.Errorf("CodeOf = %q, want %q", got, CodeNoRoot)
	}
	if !Is(err, CodeNoRoot) {
		t.Error("Is(err, CodeNoRoot) = false, want true")
	}
	if Is(err, CodeNodeNotFound) {
		t.Error("Is matched the wrong code")
	}
}

func TestCodeOfPlainError(t *testing.T) {
	if got := CodeOf(fmt.Errorf("plain")); got != "" {
		t.Errorf("CodeOf(plain) = %q, want empty", got)
	}
}

func TestAllCodesRegistered(t *testing.T) {
	codes := []string{
		CodeNodeNotFound, CodeNoRoot, CodeNativeCallFailed,
		CodeReadinessTimeout, CodeEventDecode, CodeHandlerNotFound,
		CodeConfigInvalid, CodeTransportClosed, CodeCallInFlight,
		CodeTreeCycle,
	}
	for _, c := range codes {
		if !Registered(c) {
			t.Errorf("code %s not registered", c)
		}
	}
}
