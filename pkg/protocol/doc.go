// Package protocol implements the binary codec for the native call
// boundary: command framing, the fixed-layout result header, the batched
// update payload, and the raw input event records polled back from the
// engine.
//
// The encoding is varint-based for lengths and ids, big-endian for fixed
// width scalars, and length-prefixed for text. Decoding enforces
// allocation limits so a malformed length prefix cannot drive memory
// growth.
package protocol
