// Package runtime implements the host side of the zaw boundary: instance
// bootstrap, the error/log side-channel protocol, and the binding generator
// that turns a raw integer-returning export into a typed call.
//
// Bootstrap happens once per module lifetime: the four protocol addresses
// (log buffer, error buffer, input channel, output channel) are captured and
// assumed stable for the instance's lifetime, and memory is grown to cover
// all four regions. Every typed call then flows
//
//	reset input channel -> encode args -> raw call -> error protocol ->
//	reset output channel -> decode result
//
// Typed views over linear memory are keyed on buffer identity and rebuilt
// lazily after growth relocates the backing buffer; no view is ever retained
// across a call.
package runtime
