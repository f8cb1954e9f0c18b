package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the boundary protocol the error occurred
type Phase string

const (
	PhaseConduit   Phase = "conduit"   // channel codec read/write
	PhaseChannel   Phase = "channel"   // channel allocation/lifecycle
	PhaseGuest     Phase = "guest"     // module-side session
	PhaseBootstrap Phase = "bootstrap" // instance setup
	PhaseCall      Phase = "call"      // boundary-crossing call
	PhaseLoad      Phase = "load"      // module loading
)

// Kind categorizes the error
type Kind string

const (
	KindOutOfBounds   Kind = "out_of_bounds"
	KindAllocation    Kind = "allocation"
	KindInvalidInput  Kind = "invalid_input"
	KindInstantiation Kind = "instantiation"
	KindNotFound      Kind = "not_found"
	KindCallFailed    Kind = "call_failed"
	KindUnknown       Kind = "unknown"
)

// Error is the structured error type used throughout zaw
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string

	// Cursor context for out_of_bounds errors: the aligned offset the
	// operation started at, the width it needed, and the channel capacity.
	Offset   uint32
	Width    uint32
	Capacity uint32
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Kind == KindOutOfBounds {
		fmt.Fprintf(&b, ": offset %d + width %d exceeds capacity %d", e.Offset, e.Width, e.Capacity)
		if e.Detail != "" {
			b.WriteString(" - ")
			b.WriteString(e.Detail)
		}
	} else if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by Phase and Kind
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Convenience constructors for common error patterns

// Bounds creates an out-of-bounds error for a cursor operation that would
// exceed channel capacity. op names the failed operation, e.g. "writeUint32".
func Bounds(phase Phase, op string, offset, width, capacity uint32) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindOutOfBounds,
		Detail:   op,
		Offset:   offset,
		Width:    width,
		Capacity: capacity,
	}
}

// IsBounds reports whether err is an out-of-bounds error in any phase.
func IsBounds(err error) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	return e.Kind == KindOutOfBounds
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, size uint32, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes", size),
		Cause:  cause,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Instantiation creates an instantiation error
func Instantiation(cause error) *Error {
	return &Error{
		Phase: PhaseBootstrap,
		Kind:  KindInstantiation,
		Cause: cause,
	}
}

// Load creates a module loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidInput,
		Detail: detail,
		Cause:  cause,
	}
}

// Signaled creates an error carrying the exact message the module wrote to
// the error buffer (non-zero return code, populated buffer).
func Signaled(message string) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindCallFailed,
		Detail: message,
	}
}

// Unknown creates the generic failure for a non-zero return code with an
// empty error buffer and no captured call fault.
func Unknown(op string) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindUnknown,
		Detail: fmt.Sprintf("unknown error in %s", op),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
