// Package cq4err defines the sentinel error kinds shared across the decoder
// stack (spec §7). Callers use errors.Is against these values; nothing here
// carries a custom error type.
package cq4err

import "errors"

var (
	// Truncated means a buffer ended inside a stop-bit, string, numeric
	// value, or class-file structure.
	Truncated = errors.New("cq4: truncated")

	// Overflow means a stop-bit integer ran past ten bytes without a
	// terminating byte.
	Overflow = errors.New("cq4: stop-bit overflow")

	// BadTag means an unrecognized tag was encountered. For an unknown
	// wire tag the wire parser emits "<unknown:0xHH>" and keeps going
	// instead of returning this; the class-file parser returns it for a
	// bad magic number or an unknown constant-pool tag.
	BadTag = errors.New("cq4: bad wire tag")

	// BadSchema means a schema document declared an unknown logical type
	// or was otherwise malformed.
	BadSchema = errors.New("cq4: bad schema")

	// DecodeMismatch means a schema-declared field needed more bytes than
	// the payload had left, past what the binary decoder's numeric
	// degradation (§4.F) can absorb.
	DecodeMismatch = errors.New("cq4: decode mismatch")

	// NoSchema means a directory walk produced no usable class files.
	NoSchema = errors.New("cq4: no usable schema found")

	// Io wraps open/map/read failures from the operating system.
	Io = errors.New("cq4: io error")
)
