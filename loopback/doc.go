// Package loopback implements the module side of the zaw boundary in
// process, with no wasm binary involved: a growable, relocating linear
// memory, a bump allocator over it, and an export table serving the four
// protocol exports from a real guest.Session.
//
// It exists for two audiences: the runtime package's protocol tests, and
// embedders who want the channel/binding machinery between two components of
// the same process (for example, to develop a module's host bindings before
// the module itself is compiled).
//
// The memory deliberately relocates its backing buffer on every Grow, so
// code holding stale views across growth fails loudly under test rather
// than intermittently in production.
package loopback
