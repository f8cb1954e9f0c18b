// Package errors provides structured error types for the zaw boundary.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). Out-of-bounds errors carry the aligned cursor offset, the width
// of the failed access, and the channel capacity so protocol size mismatches
// between the two sides can be diagnosed from the message alone.
//
// Use the convenience constructors:
//
//	err := errors.Bounds(errors.PhaseConduit, "readFloat64", off, 8, cap)
//	err := errors.Signaled("index out of range")
//
// All errors implement the standard error interface and support errors.Is/As;
// Is matches on Phase and Kind.
package errors
