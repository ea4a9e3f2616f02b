package wire

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"unicode/utf8"

	googleuuid "github.com/google/uuid"

	"github.com/cq4kit/cq4diag/internal/cq4/cq4err"
	"github.com/cq4kit/cq4diag/internal/cq4/stopbit"
)

// minSalvageRun is the shortest printable-ASCII run the salvage path in
// ReadObject will surface (spec §4.C). This is unrelated to the BinaryLight
// decoder's boundary-detection thresholds in package decode, which use a
// different minimum.
const minSalvageRun = 4

// ParsedMessage is the result of parsing one excerpt payload through the
// wire format: an optional type hint promoted from a leading TYPE_PREFIX
// tag, plus the field mapping that follows it.
type ParsedMessage struct {
	TypeHint *string
	Fields   *OrderedMap
	RawSize  int
}

// Parser reads the self-describing wire format from a fixed byte slice.
// It holds no reference back to the frame or file it came from; callers
// construct one per excerpt payload (or per nested block).
type Parser struct {
	data []byte
	pos  int
}

// NewParser wraps data for reading. data is retained, not copied.
func NewParser(data []byte) *Parser {
	return &Parser{data: data}
}

// Remaining reports how many bytes are left to read.
func (p *Parser) Remaining() int { return len(p.data) - p.pos }

// Peek returns the next byte without consuming it. ok is false at end of
// data.
func (p *Parser) Peek() (byte, bool) {
	if p.pos >= len(p.data) {
		return 0, false
	}
	return p.data[p.pos], true
}

func (p *Parser) ReadByte() (byte, error) {
	if p.pos >= len(p.data) {
		return 0, cq4err.Truncated
	}
	b := p.data[p.pos]
	p.pos++
	return b, nil
}

func (p *Parser) ReadBytes(n int) ([]byte, error) {
	if n < 0 || p.pos+n > len(p.data) {
		return nil, cq4err.Truncated
	}
	out := p.data[p.pos : p.pos+n]
	p.pos += n
	return out, nil
}

func (p *Parser) skip(n int) {
	p.pos += n
	if p.pos > len(p.data) {
		p.pos = len(p.data)
	}
}

func (p *Parser) ReadStopBitUnsigned() (uint64, error) {
	v, n, err := stopbit.DecodeUnsigned(p.data[p.pos:])
	if err != nil {
		return 0, err
	}
	p.pos += n
	return v, nil
}

func (p *Parser) readInt8() (int8, error) {
	b, err := p.ReadByte()
	return int8(b), err
}

func (p *Parser) readUint8() (uint8, error) {
	b, err := p.ReadByte()
	return b, err
}

func (p *Parser) readInt16() (int16, error) {
	b, err := p.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return int16(uint16(b[0]) | uint16(b[1])<<8), nil
}

func (p *Parser) readUint16() (uint16, error) {
	b, err := p.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0]) | uint16(b[1])<<8, nil
}

func (p *Parser) readInt32() (int32, error) {
	b, err := p.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return int32(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24), nil
}

func (p *Parser) readInt64() (int64, error) {
	b, err := p.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return int64(v), nil
}

func (p *Parser) readFloat32() (float32, error) {
	v, err := p.readInt32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(uint32(v)), nil
}

func (p *Parser) readFloat64() (float64, error) {
	v, err := p.readInt64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(uint64(v)), nil
}

// ReadString reads n bytes and decodes them as UTF-8, falling back to a
// byte-for-byte latin-1 mapping when the bytes are not valid UTF-8 (spec
// §4.C: diagnostic data is not guaranteed to be valid text).
func (p *Parser) ReadString(n int) (string, error) {
	b, err := p.ReadBytes(n)
	if err != nil {
		return "", err
	}
	if utf8.Valid(b) {
		return string(b), nil
	}
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes), nil
}

// ReadFieldName reads a field name tag (compact or long-form) at the
// current position. ok is false if the next byte is not a field-name tag
// at all (end of data, or a value/padding tag).
func (p *Parser) ReadFieldName() (name string, ok bool, err error) {
	code, present := p.Peek()
	if !present {
		return "", false, nil
	}

	if IsCompactFieldName(code) {
		p.pos++
		n := CompactFieldNameLength(code)
		if n == 0 {
			return "", true, nil
		}
		s, err := p.ReadString(n)
		return s, true, err
	}

	if !IsFieldNameTag(code) {
		return "", false, nil
	}
	p.pos++
	n, err := p.ReadStopBitUnsigned()
	if err != nil {
		return "", true, err
	}
	s, err := p.ReadString(int(n))
	return s, true, err
}

// ReadValue reads one self-describing value at the current position.
// Unknown tags never fail the parse: they render as a placeholder string
// so the caller keeps making progress through the rest of the payload.
func (p *Parser) ReadValue() (Value, error) {
	code, present := p.Peek()
	if !present {
		return Null(), nil
	}

	if IsCompactString(code) {
		p.pos++
		n := CompactStringLength(code)
		if n == 0 {
			return String(""), nil
		}
		s, err := p.ReadString(n)
		if err != nil {
			return Value{}, err
		}
		return String(s), nil
	}

	p.pos++

	switch Tag(code) {
	case TagNull, TagPadding, TagPaddingEnd:
		return Null(), nil

	case TagInt8:
		v, err := p.readInt8()
		return Int8(v), err
	case TagUint8:
		v, err := p.readUint8()
		return Uint8(v), err
	case TagInt16:
		v, err := p.readInt16()
		return Int16(v), err
	case TagUint16:
		v, err := p.readUint16()
		return Uint16(v), err
	case TagInt32:
		v, err := p.readInt32()
		return Int32(v), err
	case TagInt64:
		v, err := p.readInt64()
		return Int64(v), err

	case TagFloat32:
		v, err := p.readFloat32()
		return Float32(v), err
	case TagFloat64:
		v, err := p.readFloat64()
		return Float64(v), err

	case TagStringAny, TagEventName, TagComment:
		n, err := p.ReadStopBitUnsigned()
		if err != nil {
			return Value{}, err
		}
		s, err := p.ReadString(int(n))
		return String(s), err

	case TagBytesLen32:
		n, err := p.readInt32()
		if err != nil {
			return Value{}, err
		}
		b, err := p.ReadBytes(int(n))
		return Bytes(append([]byte(nil), b...)), err

	case TagNestedBlock:
		n, err := p.ReadStopBitUnsigned()
		if err != nil {
			return Value{}, err
		}
		nested, err := p.ReadBytes(int(n))
		if err != nil {
			return Value{}, err
		}
		sub := NewParser(nested)
		fields, err := sub.ReadObject()
		if err != nil {
			return Value{}, err
		}
		return Mapping(fields), nil

	case TagTypePrefix:
		n, err := p.ReadStopBitUnsigned()
		if err != nil {
			return Value{}, err
		}
		typeName, err := p.ReadString(int(n))
		if err != nil {
			return Value{}, err
		}
		inner, err := p.ReadValue()
		if err != nil {
			return Value{}, err
		}
		if m, ok := inner.MappingValue(); ok {
			m.Set("__type__", String(typeName))
			return Mapping(m), nil
		}
		return inner, nil

	case TagI64Array:
		n, err := p.readInt32()
		if err != nil {
			return Value{}, err
		}
		out := make([]Value, n)
		for i := range out {
			v, err := p.readInt64()
			if err != nil {
				return Value{}, err
			}
			out[i] = Int64(v)
		}
		return Sequence(out), nil

	case TagU8Array:
		n, err := p.readInt32()
		if err != nil {
			return Value{}, err
		}
		b, err := p.ReadBytes(int(n))
		if err != nil {
			return Value{}, err
		}
		out := make([]Value, len(b))
		for i, c := range b {
			out[i] = Uint8(c)
		}
		return Sequence(out), nil

	case TagI8Array:
		n, err := p.readInt32()
		if err != nil {
			return Value{}, err
		}
		b, err := p.ReadBytes(int(n))
		if err != nil {
			return Value{}, err
		}
		out := make([]Value, len(b))
		for i, c := range b {
			out[i] = Int8(int8(c))
		}
		return Sequence(out), nil

	case TagTimestamp, TagDateTime:
		v, err := p.readInt64()
		return Timestamp(v), err

	case TagUUID:
		b, err := p.ReadBytes(16)
		if err != nil {
			return Value{}, err
		}
		id, err := googleuuid.FromBytes(b)
		if err != nil {
			return Value{}, fmt.Errorf("%w: malformed uuid: %v", cq4err.BadTag, err)
		}
		return UUID(id), nil

	case TagPadding32:
		n, err := p.readInt32()
		if err != nil {
			return Value{}, err
		}
		p.skip(int(n))
		return Null(), nil

	default:
		return String(fmt.Sprintf("<unknown:0x%02X>", code)), nil
	}
}

// ReadObject reads fields until padding-end, end of data, or a byte that is
// neither a field name nor padding. If nothing parsed but bytes remain, or
// a truncated/malformed tag aborts the record partway through, it falls
// back to a best-effort salvage of the raw payload (spec §4.C, §7): hex
// dump, length, and either extracted printable strings or a decoded JSON
// object with its top-level keys hoisted alongside `_json`. A mid-record
// failure is never fatal to the caller: abort this record, salvage it, and
// let the caller move on to the next frame.
func (p *Parser) ReadObject() (*OrderedMap, error) {
	result := NewOrderedMap()

	for p.Remaining() > 0 {
		code, present := p.Peek()
		if !present {
			break
		}

		if Tag(code) == TagPadding {
			p.pos++
			continue
		}
		if Tag(code) == TagPadding32 {
			p.pos++
			n, err := p.readInt32()
			if err != nil {
				return salvagedObject(p.data), nil
			}
			p.skip(int(n))
			continue
		}
		if Tag(code) == TagPaddingEnd {
			p.pos++
			break
		}

		name, ok, err := p.ReadFieldName()
		if err != nil {
			return salvagedObject(p.data), nil
		}
		if !ok {
			break
		}
		val, err := p.ReadValue()
		if err != nil {
			return salvagedObject(p.data), nil
		}
		result.Set(name, val)
	}

	if result.Len() == 0 && len(p.data) > 0 {
		salvageInto(result, p.data)
	}

	return result, nil
}

// salvagedObject builds a fresh salvage-only OrderedMap over data, discarding
// whatever fields a caller may have parsed before hitting the error that led
// here (spec §7: the whole record is aborted, not partially kept).
func salvagedObject(data []byte) *OrderedMap {
	result := NewOrderedMap()
	salvageInto(result, data)
	return result
}

// ReadMessage reads one complete message: an optional leading TYPE_PREFIX
// promoted to TypeHint, followed by the field object. A truncated or
// malformed byte anywhere in the message aborts and salvages the record
// instead of failing the whole scan (spec §7, Testable Property 6); only
// an empty buffer yields no message at all.
func (p *Parser) ReadMessage() (*ParsedMessage, error) {
	if p.Remaining() == 0 {
		return nil, nil
	}

	start := p.pos
	var typeHint *string

	if code, ok := p.Peek(); ok && Tag(code) == TagTypePrefix {
		p.pos++
		n, err := p.ReadStopBitUnsigned()
		if err != nil {
			return salvagedMessage(p.data[start:]), nil
		}
		name, err := p.ReadString(int(n))
		if err != nil {
			return salvagedMessage(p.data[start:]), nil
		}
		typeHint = &name
	}

	fields, _ := p.ReadObject()

	return &ParsedMessage{
		TypeHint: typeHint,
		Fields:   fields,
		RawSize:  p.pos - start,
	}, nil
}

// salvagedMessage wraps a salvaged field object as a ParsedMessage with no
// type hint, for when a TYPE_PREFIX itself is truncated.
func salvagedMessage(data []byte) *ParsedMessage {
	return &ParsedMessage{Fields: salvagedObject(data), RawSize: len(data)}
}

// salvageInto populates result with the raw-payload fallback fields. data
// is the full buffer owned by the parser that produced no fields, not just
// whatever remains from the current cursor.
func salvageInto(result *OrderedMap, data []byte) {
	result.Set("_raw_hex", String(fmt.Sprintf("%x", data)))
	result.Set("_raw_length", Int64(int64(len(data))))

	strs := extractPrintableRuns(data, minSalvageRun)
	if len(strs) == 0 {
		return
	}

	for _, s := range strs {
		if len(s) >= 2 && s[0] == '{' && s[len(s)-1] == '}' {
			var parsed map[string]any
			if err := json.Unmarshal([]byte(s), &parsed); err == nil {
				keys := make([]string, 0, len(parsed))
				for k := range parsed {
					keys = append(keys, k)
				}
				sort.Strings(keys)

				m := NewOrderedMap()
				for _, k := range keys {
					m.Set(k, jsonToValue(parsed[k]))
				}
				result.Set("_json", Mapping(m))
				for _, k := range keys {
					result.Set(k, jsonToValue(parsed[k]))
				}
				return
			}
		}
	}

	joined := ""
	for i, s := range strs {
		if i > 0 {
			joined += ", "
		}
		joined += s
	}
	result.Set("_strings", String(joined))
}

// extractPrintableRuns returns every maximal run of printable ASCII bytes
// (0x20-0x7E) at least minLen long.
func extractPrintableRuns(data []byte, minLen int) []string {
	var out []string
	start := -1
	flush := func(end int) {
		if start >= 0 && end-start >= minLen {
			out = append(out, string(data[start:end]))
		}
		start = -1
	}
	for i, b := range data {
		if b >= 0x20 && b < 0x7F {
			if start < 0 {
				start = i
			}
		} else {
			flush(i)
		}
	}
	flush(len(data))
	return out
}

// jsonToValue converts a generic decoded JSON value (as produced by
// encoding/json's map[string]any unmarshaling) into the closed Value
// variant used throughout this package.
func jsonToValue(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(x)
	case float64:
		return Float64(x)
	case string:
		return String(x)
	case []any:
		out := make([]Value, len(x))
		for i, e := range x {
			out[i] = jsonToValue(e)
		}
		return Sequence(out)
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		m := NewOrderedMap()
		for _, k := range keys {
			m.Set(k, jsonToValue(x[k]))
		}
		return Mapping(m)
	default:
		return String(fmt.Sprintf("%v", x))
	}
}
