// Package wire implements the self-describing, tag-driven Chronicle wire
// format: the WireTag registry (spec §4.B) and the WireParser built on top
// of it (spec §4.C).
package wire

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind identifies which alternative of Value is populated. A Value is
// self-describing once parsed — no external schema is needed to consume
// it (spec §9).
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindFloat32
	KindFloat64
	KindString
	KindBytes
	KindSequence
	KindMapping
	KindTimestamp
	KindUUID
)

// Value is the closed tagged-variant produced by the wire parser and the
// schema-driven secondary decoders (spec §3).
type Value struct {
	kind    Kind
	i       int64
	f       float64
	s       string
	b       []byte
	seq     []Value
	mapping *OrderedMap
	uuid    uuid.UUID
}

func Null() Value { return Value{kind: KindNull} }
func Bool(v bool) Value {
	if v {
		return Value{kind: KindBool, i: 1}
	}
	return Value{kind: KindBool, i: 0}
}
func Int8(v int8) Value           { return Value{kind: KindInt8, i: int64(v)} }
func Int16(v int16) Value         { return Value{kind: KindInt16, i: int64(v)} }
func Int32(v int32) Value         { return Value{kind: KindInt32, i: int64(v)} }
func Int64(v int64) Value         { return Value{kind: KindInt64, i: v} }
func Uint8(v uint8) Value         { return Value{kind: KindUint8, i: int64(v)} }
func Uint16(v uint16) Value       { return Value{kind: KindUint16, i: int64(v)} }
func Float32(v float32) Value     { return Value{kind: KindFloat32, f: float64(v)} }
func Float64(v float64) Value     { return Value{kind: KindFloat64, f: v} }
func String(v string) Value       { return Value{kind: KindString, s: v} }
func Bytes(v []byte) Value        { return Value{kind: KindBytes, b: v} }
func Sequence(v []Value) Value    { return Value{kind: KindSequence, seq: v} }
func Mapping(v *OrderedMap) Value { return Value{kind: KindMapping, mapping: v} }
func Timestamp(v int64) Value     { return Value{kind: KindTimestamp, i: v} }
func UUID(v uuid.UUID) Value      { return Value{kind: KindUUID, uuid: v} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// Int64Value returns the value as an int64 for any of the integer or
// timestamp kinds, and false otherwise.
func (v Value) Int64Value() (int64, bool) {
	switch v.kind {
	case KindInt8, KindInt16, KindInt32, KindInt64, KindUint8, KindUint16, KindTimestamp:
		return v.i, true
	}
	return 0, false
}

// BoolValue returns the value as a bool for KindBool, and false otherwise.
func (v Value) BoolValue() (bool, bool) {
	if v.kind == KindBool {
		return v.i != 0, true
	}
	return false, false
}

func (v Value) Float64Value() (float64, bool) {
	switch v.kind {
	case KindFloat32, KindFloat64:
		return v.f, true
	}
	return 0, false
}

func (v Value) StringValue() (string, bool) {
	if v.kind == KindString {
		return v.s, true
	}
	return "", false
}

func (v Value) BytesValue() ([]byte, bool) {
	if v.kind == KindBytes {
		return v.b, true
	}
	return nil, false
}

func (v Value) SequenceValue() ([]Value, bool) {
	if v.kind == KindSequence {
		return v.seq, true
	}
	return nil, false
}

func (v Value) MappingValue() (*OrderedMap, bool) {
	if v.kind == KindMapping {
		return v.mapping, true
	}
	return nil, false
}

func (v Value) UUIDValue() (uuid.UUID, bool) {
	if v.kind == KindUUID {
		return v.uuid, true
	}
	return uuid.UUID{}, false
}

// String renders a human-readable representation, used by the CLI's
// display layer and by test failure messages. It never panics: every Kind
// has a defined rendering.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%t", v.i != 0)
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return fmt.Sprintf("%d", v.i)
	case KindUint8, KindUint16:
		return fmt.Sprintf("%d", uint64(v.i))
	case KindFloat32, KindFloat64:
		return fmt.Sprintf("%g", v.f)
	case KindString:
		return v.s
	case KindBytes:
		return fmt.Sprintf("%x", v.b)
	case KindSequence:
		return fmt.Sprintf("[%d items]", len(v.seq))
	case KindMapping:
		return fmt.Sprintf("{%d fields}", v.mapping.Len())
	case KindTimestamp:
		return fmt.Sprintf("@%d", v.i)
	case KindUUID:
		return v.uuid.String()
	default:
		return "<invalid>"
	}
}
