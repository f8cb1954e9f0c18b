package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "bounds error",
			err: &Error{
				Phase:    PhaseConduit,
				Kind:     KindOutOfBounds,
				Detail:   "writeUint32",
				Offset:   1020,
				Width:    4,
				Capacity: 1022,
			},
			contains: []string{"[conduit]", "out_of_bounds", "1020", "width 4", "capacity 1022", "writeUint32"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseCall,
				Kind:  KindUnknown,
			},
			contains: []string{"[call]", "unknown"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseBootstrap,
				Kind:   KindInstantiation,
				Detail: "instantiate module",
				Cause:  errors.New("missing export"),
			},
			contains: []string{"[bootstrap]", "instantiation", "instantiate module", "caused by", "missing export"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(PhaseLoad, KindInvalidInput, cause, "load module")

	if !errors.Is(err, cause) {
		t.Error("errors.Is did not find wrapped cause")
	}
	if errors.Unwrap(err) != cause {
		t.Error("Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	a := Bounds(PhaseConduit, "readUint8", 10, 1, 10)
	b := Bounds(PhaseConduit, "writeFloat64", 0, 8, 4)
	c := InvalidInput(PhaseConduit, "negative length")

	if !errors.Is(a, b) {
		t.Error("bounds errors with same phase/kind should match")
	}
	if errors.Is(a, c) {
		t.Error("different kinds should not match")
	}
}

func TestIsBounds(t *testing.T) {
	if !IsBounds(Bounds(PhaseConduit, "read", 0, 4, 2)) {
		t.Error("IsBounds(bounds error) = false")
	}
	if IsBounds(Unknown("copy")) {
		t.Error("IsBounds(unknown error) = true")
	}
	if IsBounds(errors.New("plain")) {
		t.Error("IsBounds(plain error) = true")
	}
}

func TestSignaled(t *testing.T) {
	err := Signaled("bad input")
	if err.Detail != "bad input" {
		t.Errorf("Detail = %q, want %q", err.Detail, "bad input")
	}
	if !strings.Contains(err.Error(), "bad input") {
		t.Errorf("message %q missing buffer text", err.Error())
	}
}
