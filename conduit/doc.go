// Package conduit implements the cursor-based binary codec used on both
// sides of the host/module boundary.
//
// A Writer or Reader is a cursor over one channel's byte region. Both sides
// must agree on the layout bit-for-bit, so the alignment rules are part of
// the wire contract:
//
//   - 1-byte values use the raw cursor
//   - 4-byte values (u32/i32/f32) round the cursor up to the next multiple
//     of 4 before the access, then advance by 4
//   - 8-byte values (f64) round up to the next multiple of 8, then advance
//     by 8
//   - arrays are a u32 element count (aligned per the 4-byte rule) followed
//     by the elements with the alignment of the element type
//
// Scalars are little-endian, matching WebAssembly linear memory order on
// both sides of the boundary.
//
// Text has two wire forms that are NOT interchangeable: Latin-1 (one byte
// per character, code points 0-255 only) and UTF-8. There is no in-band type
// tag; caller and callee agree on the form out of band.
//
// Every operation that would move the aligned cursor past the channel
// capacity fails with a recoverable out_of_bounds error; the cursor is left
// unchanged. Reset is the only way to reuse a channel for a new message;
// operations never auto-reset.
package conduit
