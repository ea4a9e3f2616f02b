// Package stopbit implements the variable-length integer encoding shared
// across the Chronicle wire format and its schema-driven secondary codecs
// (spec §4.A): 7-bit groups, little-endian, continuation bit set on every
// byte but the last.
//
// The underlying byte shuffling is identical to a protobuf varint, so the
// append side is built directly on google.golang.org/protobuf's
// encoding/protowire. The read side is hand-rolled rather than delegated to
// protowire.ConsumeVarint because the spec requires telling Truncated
// (buffer ran out) apart from Overflow (more than ten bytes elapsed without
// termination), which protowire collapses into a single parse error.
package stopbit

import (
	"errors"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/cq4kit/cq4diag/internal/cq4/cq4err"
)

// maxBytes is the point at which an unterminated stop-bit sequence is
// declared an overflow rather than a truncation (spec §4.A: "fails with
// Overflow if more than ten bytes elapse without termination").
const maxBytes = 10

// DecodeUnsigned reads an unsigned stop-bit integer from the front of buf.
// It returns the decoded value and the number of bytes consumed.
func DecodeUnsigned(buf []byte) (uint64, int, error) {
	var v uint64
	var shift uint
	for i := 0; i < maxBytes; i++ {
		if i >= len(buf) {
			return 0, 0, cq4err.Truncated
		}
		b := buf[i]
		v |= uint64(b&0x7F) << shift
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, cq4err.Overflow
}

// DecodeSigned reads a zigzag-mapped signed stop-bit integer: 0→0, -1→1,
// 1→2, … (spec §4.A).
func DecodeSigned(buf []byte) (int64, int, error) {
	u, n, err := DecodeUnsigned(buf)
	if err != nil {
		return 0, 0, err
	}
	return protowire.DecodeZigZag(u), n, nil
}

// EncodeUnsigned appends the stop-bit encoding of v to dst.
func EncodeUnsigned(dst []byte, v uint64) []byte {
	return protowire.AppendVarint(dst, v)
}

// EncodeSigned appends the zigzag stop-bit encoding of v to dst.
func EncodeSigned(dst []byte, v int64) []byte {
	return protowire.AppendVarint(dst, protowire.EncodeZigZag(v))
}

// IsOverflow reports whether err is the stop-bit overflow sentinel.
func IsOverflow(err error) bool { return errors.Is(err, cq4err.Overflow) }

// IsTruncated reports whether err is the stop-bit truncation sentinel.
func IsTruncated(err error) bool { return errors.Is(err, cq4err.Truncated) }
