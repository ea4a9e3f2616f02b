// Package decode implements the three schema-driven secondary codecs
// (spec §4.F-H): BinaryDecoder, ThriftDecoder and SbeDecoder. Each
// interprets an opaque payload slice the wire parser could not describe
// itself, against a schema.MessageDef, producing an ordered Value mapping.
package decode

import (
	"fmt"
	"math"

	"github.com/cq4kit/cq4diag/internal/cq4/schema"
	"github.com/cq4kit/cq4diag/internal/cq4/stopbit"
	"github.com/cq4kit/cq4diag/internal/cq4/wire"
)

// minNestedScan/maxNestedScanCap/minNestedLen/maxNestedLen are the
// boundary-detection thresholds (spec §9 Open Questions): min scan 8, max
// scan 256, and a printable-string length of 2 to 100 bytes. The
// requirement of two consecutive such strings is in detectNestedObjectSize.
// These are a different, unrelated set of thresholds from the wire
// parser's own salvage minimum run length.
const (
	minNestedScan    = 8
	maxNestedScanCap = 256
	minNestedLen     = 2
	maxNestedLen     = 100
)

// DecodeBinary decodes data sequentially per def's field order (spec
// §4.F). Numeric fields degrade to a narrower same-signedness width when
// the buffer runs out early; string/bytes lengths are a single byte when
// its high bit is clear, else a full stop-bit unsigned. Leftover bytes
// after the last field are reported as _remaining_bytes/_remaining_hex.
func DecodeBinary(data []byte, def schema.MessageDef) *wire.OrderedMap {
	result := wire.NewOrderedMap()
	pos := 0

	for _, f := range def.Fields {
		if pos >= len(data) {
			if f.Optional {
				continue
			}
			result.Set(f.Name, wire.Null())
			continue
		}

		val, n, err := decodeBinaryField(data, pos, f)
		if err != nil {
			result.Set(f.Name, wire.String(fmt.Sprintf("<decode_error: %v>", err)))
			break
		}
		result.Set(f.Name, val)
		pos += n
	}

	if pos < len(data) {
		result.Set("_remaining_bytes", wire.Int64(int64(len(data)-pos)))
		result.Set("_remaining_hex", wire.String(fmt.Sprintf("%x", data[pos:])))
	}

	return result
}

func decodeBinaryField(data []byte, pos int, f schema.FieldDef) (wire.Value, int, error) {
	switch f.Type {
	case schema.TypeInt8:
		if pos+1 > len(data) {
			return wire.Value{}, 0, fmt.Errorf("not enough data for int8")
		}
		return wire.Int8(int8(data[pos])), 1, nil
	case schema.TypeUint8:
		if pos+1 > len(data) {
			return wire.Value{}, 0, fmt.Errorf("not enough data for uint8")
		}
		return wire.Uint8(data[pos]), 1, nil
	case schema.TypeBool:
		if pos+1 > len(data) {
			return wire.Value{}, 0, fmt.Errorf("not enough data for bool")
		}
		return wire.Bool(data[pos] != 0), 1, nil

	case schema.TypeInt16:
		if pos+2 > len(data) {
			return degradeToByte(data, pos, true)
		}
		return wire.Int16(int16(le16(data, pos))), 2, nil
	case schema.TypeUint16:
		if pos+2 > len(data) {
			return degradeToByte(data, pos, false)
		}
		return wire.Uint16(le16(data, pos)), 2, nil

	case schema.TypeInt32:
		if pos+4 > len(data) {
			return degradeInt32(data, pos, true)
		}
		return wire.Int32(int32(le32(data, pos))), 4, nil
	case schema.TypeUint32:
		if pos+4 > len(data) {
			return degradeInt32(data, pos, false)
		}
		return wire.Int64(int64(le32(data, pos))), 4, nil

	case schema.TypeInt64:
		if pos+8 > len(data) {
			return wire.Value{}, 0, fmt.Errorf("not enough data for int64")
		}
		return wire.Int64(int64(le64(data, pos))), 8, nil
	case schema.TypeUint64:
		if pos+8 > len(data) {
			return wire.Value{}, 0, fmt.Errorf("not enough data for uint64")
		}
		return wire.Int64(int64(le64(data, pos))), 8, nil

	case schema.TypeFloat32:
		if pos+4 > len(data) {
			return wire.Value{}, 0, fmt.Errorf("not enough data for float32")
		}
		return wire.Float32(math.Float32frombits(le32(data, pos))), 4, nil
	case schema.TypeFloat64:
		if pos+8 > len(data) {
			return wire.Value{}, 0, fmt.Errorf("not enough data for float64")
		}
		return wire.Float64(math.Float64frombits(le64(data, pos))), 8, nil

	case schema.TypeString:
		length, lenBytes, err := readLength(data, pos)
		if err != nil {
			return wire.Value{}, 0, err
		}
		if pos+lenBytes+length > len(data) {
			return wire.Value{}, 0, fmt.Errorf("string extends beyond data")
		}
		s, err := wire.NewParser(data[pos+lenBytes : pos+lenBytes+length]).ReadString(length)
		if err != nil {
			return wire.Value{}, 0, err
		}
		return wire.String(s), lenBytes + length, nil

	case schema.TypeBytes:
		length, lenBytes, err := readLength(data, pos)
		if err != nil {
			return wire.Value{}, 0, err
		}
		if pos+lenBytes+length > len(data) {
			return wire.Value{}, 0, fmt.Errorf("bytes extends beyond data")
		}
		return wire.Bytes(append([]byte(nil), data[pos+lenBytes:pos+lenBytes+length]...)), lenBytes + length, nil

	case schema.TypeStopBit:
		v, n, err := stopbit.DecodeUnsigned(data[pos:])
		if err != nil {
			return wire.Value{}, 0, err
		}
		return wire.Int64(int64(v)), n, nil

	case schema.TypePadding, schema.TypeSkip:
		size := int(f.SizeHint)
		if size == 0 {
			size = 1
		}
		return wire.Null(), size, nil

	case schema.TypeObject:
		if f.SizeHint > 0 {
			size := int(f.SizeHint)
			return wire.String(fmt.Sprintf("<nested:%dbytes>", size)), size, nil
		}
		if n := detectNestedObjectSize(data, pos); n > 0 {
			return wire.String(fmt.Sprintf("<nested:%dbytes>", n)), n, nil
		}
		remaining := len(data) - pos
		if remaining > 32 {
			remaining = 32
		}
		return wire.String(fmt.Sprintf("<nested:0x%x>", data[pos:pos+remaining])), remaining, nil

	default:
		return wire.Value{}, 0, fmt.Errorf("unknown type: %s", f.Type)
	}
}

// degradeToByte reproduces the 16->8-bit degradation path: when fewer
// than 2 bytes remain, read a single same-signedness byte instead.
func degradeToByte(data []byte, pos int, signed bool) (wire.Value, int, error) {
	if pos >= len(data) {
		return wire.Value{}, 0, fmt.Errorf("not enough data")
	}
	if signed {
		return wire.Int16(int16(int8(data[pos]))), 1, nil
	}
	return wire.Uint16(uint16(data[pos])), 1, nil
}

// degradeInt32 reproduces the 32->16->8-bit degradation path.
func degradeInt32(data []byte, pos int, signed bool) (wire.Value, int, error) {
	remaining := len(data) - pos
	if remaining <= 0 {
		return wire.Value{}, 0, fmt.Errorf("not enough data for int32")
	}
	if remaining >= 2 {
		v := le16(data, pos)
		if signed {
			return wire.Int32(int32(int16(v))), 2, nil
		}
		return wire.Int32(int32(v)), 2, nil
	}
	if signed {
		return wire.Int32(int32(int8(data[pos]))), 1, nil
	}
	return wire.Int32(int32(data[pos])), 1, nil
}

// readLength reads a single-byte length when its high bit is clear,
// otherwise a full stop-bit unsigned (spec §4.F).
func readLength(data []byte, pos int) (length int, consumed int, err error) {
	if pos >= len(data) {
		return 0, 0, nil
	}
	if data[pos]&0x80 == 0 {
		return int(data[pos]), 1, nil
	}
	v, n, err := stopbit.DecodeUnsigned(data[pos:])
	if err != nil {
		return 0, 0, err
	}
	return int(v), n, nil
}

// detectNestedObjectSize scans forward looking for the point where at
// least two consecutive plausible length-prefixed printable-ASCII
// strings begin (spec §4.F, §9). Returns 0 if no such boundary is found.
func detectNestedObjectSize(data []byte, pos int) int {
	maxScan := maxNestedScanCap
	if alt := len(data) - pos - 20; alt < maxScan {
		maxScan = alt
	}

	for offset := minNestedScan; offset < maxScan; offset++ {
		testPos := pos + offset
		if testPos >= len(data)-10 {
			break
		}

		consecutive := 0
		checkPos := testPos
		for i := 0; i < 3; i++ {
			if checkPos >= len(data)-1 {
				break
			}
			lengthByte := int(data[checkPos])
			if lengthByte < minNestedLen || lengthByte > maxNestedLen {
				break
			}
			strStart := checkPos + 1
			strEnd := strStart + lengthByte
			if strEnd > len(data) {
				break
			}
			if !allPrintable(data[strStart:strEnd]) {
				break
			}
			consecutive++
			checkPos = strEnd
		}

		if consecutive >= 2 {
			return offset
		}
	}
	return 0
}

func allPrintable(b []byte) bool {
	for _, c := range b {
		if c < 32 || c >= 127 {
			return false
		}
	}
	return true
}

func le16(b []byte, off int) uint16 {
	return uint16(b[off]) | uint16(b[off+1])<<8
}

func le32(b []byte, off int) uint32 {
	return uint32(b[off]) | uint32(b[off+1])<<8 | uint32(b[off+2])<<16 | uint32(b[off+3])<<24
}

func le64(b []byte, off int) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[off+i]) << (8 * i)
	}
	return v
}
