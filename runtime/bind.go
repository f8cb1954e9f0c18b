package runtime

import (
	"context"

	"github.com/loggerhead/zaw/conduit"
)

// EncodeFunc serializes one call's arguments into the input channel.
type EncodeFunc[A any] func(w *conduit.Writer, args A) error

// DecodeFunc deserializes one call's result from the output channel. It also
// receives the call's arguments so the decoder can use call-site context
// (an expected array length, say) without that context being re-encoded in
// the message.
type DecodeFunc[A, R any] func(r *conduit.Reader, args A) (R, error)

// BoundFunc is a typed call across the boundary.
type BoundFunc[A, R any] func(ctx context.Context, args A) (R, error)

// Bind composes a raw module export with an argument encoder and a result
// decoder into one typed callable. The binding is immutable and reused for
// every call; all per-call state lives in the shared channels.
//
// encode may be nil for zero-argument operations. decode may be nil for
// operations with no result (R's zero value is returned).
//
// Bound operations must not be invoked reentrantly from within encode,
// decode, or the raw call itself: the channels hold at most one in-flight
// message each, and reentry would corrupt their cursor state.
func Bind[A, R any](inst *Instance, export string, encode EncodeFunc[A], decode DecodeFunc[A, R]) BoundFunc[A, R] {
	return func(ctx context.Context, args A) (R, error) {
		var zero R

		if encode != nil {
			w, err := inst.Input()
			if err != nil {
				return zero, err
			}
			if err := encode(w, args); err != nil {
				return zero, err
			}
		}

		if err := inst.Call(ctx, export); err != nil {
			return zero, err
		}

		if decode == nil {
			return zero, nil
		}
		r, err := inst.Output()
		if err != nil {
			return zero, err
		}
		return decode(r, args)
	}
}
