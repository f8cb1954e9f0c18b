// Package zaw implements a typed call boundary between a host process and a
// sandboxed WebAssembly module that share nothing but one linear memory.
//
// The host cannot dereference module-side objects and the module cannot take
// structured arguments; every exported operation is an integer-in/integer-out
// call. zaw layers three pieces on top of that to make the boundary look like
// an ordinary typed function call:
//
//   - a cursor-based binary codec (conduit) used bit-for-bit identically on
//     both sides,
//   - module-owned input/output channels (guest) whose addresses the host
//     records once at bootstrap,
//   - a binding generator (runtime) that composes a raw export call with an
//     argument encoder and a result decoder, including the error/log
//     side-channel protocol.
//
// # Architecture Overview
//
//	zaw/          Root package with Memory/Exports interfaces and wire constants
//	├── conduit/  Cursor Reader/Writer with per-width alignment rules
//	├── guest/    Module-side session: channel storage, log/error buffers
//	├── loopback/ In-process linear memory + module, no wasm binary needed
//	├── engine/   wazero integration: loading, imports, memory adapter
//	├── runtime/  Host-side bootstrap, side-channel protocol, Bind generator
//	├── config/   Runner configuration for the CLI
//	└── errors/   Structured error types
//
// # Quick Start
//
// Load a module and bind a typed operation:
//
//	eng, err := engine.New(ctx, nil)
//	defer eng.Close(ctx)
//
//	mod, err := eng.Load(ctx, wasmBytes)
//	raw, err := mod.Instantiate(ctx, engine.InstanceConfig{})
//	inst, err := runtime.NewInstance(ctx, raw, runtime.DefaultConfig())
//
//	sum := runtime.Bind(inst, "sum",
//	    func(w *conduit.Writer, args []int32) error {
//	        return conduit.CopyArray(w, args)
//	    },
//	    func(r *conduit.Reader, _ []int32) (int32, error) {
//	        return r.ReadInt32()
//	    })
//
//	total, err := sum(ctx, []int32{1, 2, 3})
//
// # Concurrency
//
// The boundary is single-threaded and synchronous. Channels are shared,
// stateful storage: at most one in-flight message may occupy each channel,
// and bound operations must not be invoked reentrantly from inside their own
// encode/decode functions. This is a caller obligation, not an enforced lock;
// the model has exactly one logical thread of control.
//
// # Memory Model
//
// Linear memory only grows, never shrinks. Growth may relocate the backing
// buffer, so the host never retains a raw view across a call that might grow
// memory; cached views are keyed on buffer identity and rebuilt lazily.
package zaw
