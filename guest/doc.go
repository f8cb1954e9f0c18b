// Package guest implements the module side of the zaw boundary: ownership of
// the input/output channel storage, the log/error side-channel buffers, and
// the dispatch wrapper that maps Go errors onto the integer status code the
// host observes.
//
// A Session is long-lived process state, allocated once per module lifetime
// rather than per call: channels are reused across calls with reset-on-
// retrieval message boundaries, because per-call allocation would dominate
// the per-call cost. The Session is single-owner; the boundary has one
// logical thread of control and no locking is performed.
//
// Inside a real wasm module the Session runs over an Allocator whose
// addresses are linear-memory offsets (see examples/echo for the TinyGo
// wiring). The loopback package provides the same over an in-process arena.
package guest
