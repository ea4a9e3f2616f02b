package decode

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/cq4kit/cq4diag/internal/cq4/schema"
	"github.com/cq4kit/cq4diag/internal/cq4/wire"
)

// Thrift TCompactProtocol type codes (spec §4.G).
const (
	compactBooleanTrue  = 1
	compactBooleanFalse = 2
	compactByte         = 3
	compactI16          = 4
	compactI32          = 5
	compactI64          = 6
	compactDouble       = 7
	compactBinary       = 8
	compactList         = 9
	compactSet          = 10
	compactMap          = 11
	compactStruct       = 12
)

// thriftFieldNames maps a resolved field ID to its schema name.
type thriftFieldNames map[uint16]string

// fieldNamesFromDef builds the id->name table for a message definition.
// Fields carrying an explicit ThriftID use it; otherwise IDs are assigned
// sequentially starting at 1, in field declaration order (spec §4.G).
func fieldNamesFromDef(def schema.MessageDef) thriftFieldNames {
	names := make(thriftFieldNames, len(def.Fields))
	for i, f := range def.Fields {
		id := uint16(i + 1)
		if f.ThriftID != nil {
			id = *f.ThriftID
		}
		names[id] = f.Name
	}
	return names
}

// DecodeThrift decodes data as a TCompactProtocol struct against def's
// field-ID table (spec §4.G). Unknown IDs render as field_<id>.
func DecodeThrift(data []byte, def schema.MessageDef) *wire.OrderedMap {
	names := fieldNamesFromDef(def)
	fields, _ := decodeThriftStruct(data, 0, names)
	return fields
}

// decodeThriftStruct decodes one struct starting at pos, stopping at a
// zero STOP byte or end of data, and returns the bytes consumed including
// the STOP byte if one terminated it.
func decodeThriftStruct(data []byte, pos int, names thriftFieldNames) (*wire.OrderedMap, int) {
	result := wire.NewOrderedMap()
	start := pos
	var lastFieldID int32

	for pos < len(data) {
		if data[pos] == 0 {
			pos++
			break
		}

		typeAndDelta := data[pos]
		pos++
		delta := int32(typeAndDelta>>4) & 0x0F
		fieldType := typeAndDelta & 0x0F

		var fieldID int32
		if delta == 0 {
			id, n := decodeZigzagVarint(data, pos)
			fieldID = id
			pos += n
		} else {
			fieldID = lastFieldID + delta
		}
		lastFieldID = fieldID

		val, n := decodeThriftValue(data, pos, fieldType, names)
		pos += n

		name, ok := names[uint16(fieldID)]
		if !ok {
			name = fmt.Sprintf("field_%d", fieldID)
		}
		result.Set(name, val)
	}

	return result, pos - start
}

func decodeThriftValue(data []byte, pos int, fieldType byte, names thriftFieldNames) (wire.Value, int) {
	switch fieldType {
	case compactBooleanTrue:
		return wire.Bool(true), 0
	case compactBooleanFalse:
		return wire.Bool(false), 0

	case compactByte:
		if pos >= len(data) {
			return wire.Null(), 0
		}
		return wire.Int8(int8(data[pos])), 1

	case compactI16:
		v, n := decodeZigzagVarint(data, pos)
		return wire.Int16(int16(v)), n
	case compactI32:
		v, n := decodeZigzagVarint(data, pos)
		return wire.Int32(v), n
	case compactI64:
		v, n := decodeZigzagVarint64(data, pos)
		return wire.Int64(v), n

	case compactDouble:
		if pos+8 > len(data) {
			return wire.Null(), 0
		}
		return wire.Float64(math.Float64frombits(le64(data, pos))), 8

	case compactBinary:
		length, lenBytes := decodeVarint(data, pos)
		if pos+lenBytes+length > len(data) {
			return wire.Null(), lenBytes
		}
		raw := data[pos+lenBytes : pos+lenBytes+length]
		s, err := wire.NewParser(raw).ReadString(length)
		if err != nil {
			return wire.String(fmt.Sprintf("%x", raw)), lenBytes + length
		}
		return wire.String(s), lenBytes + length

	case compactStruct:
		// Nested structs always render fields as field_<id>: only the
		// outermost struct is resolved against the schema's name table.
		nested, n := decodeThriftStruct(data, pos, nil)
		return wire.Mapping(nested), n

	case compactList, compactSet:
		if pos >= len(data) {
			return wire.Sequence(nil), 0
		}
		sizeAndType := data[pos]
		consumed := 1
		elemType := sizeAndType & 0x0F
		size := int(sizeAndType>>4) & 0x0F
		if size == 15 {
			n, vb := decodeVarint(data, pos+consumed)
			size = n
			consumed += vb
		}
		items := make([]wire.Value, 0, size)
		for i := 0; i < size; i++ {
			v, n := decodeThriftValue(data, pos+consumed, elemType, names)
			consumed += n
			items = append(items, v)
		}
		return wire.Sequence(items), consumed

	case compactMap:
		size, consumed := decodeVarint(data, pos)
		if size == 0 {
			return wire.Mapping(wire.NewOrderedMap()), consumed
		}
		if pos+consumed >= len(data) {
			return wire.Mapping(wire.NewOrderedMap()), consumed
		}
		kvType := data[pos+consumed]
		consumed++
		keyType := (kvType >> 4) & 0x0F
		valType := kvType & 0x0F

		m := wire.NewOrderedMap()
		for i := 0; i < size; i++ {
			k, kb := decodeThriftValue(data, pos+consumed, keyType, names)
			consumed += kb
			v, vb := decodeThriftValue(data, pos+consumed, valType, names)
			consumed += vb
			m.Set(k.String(), v)
		}
		return wire.Mapping(m), consumed

	default:
		return wire.Null(), 0
	}
}

func decodeVarint(data []byte, pos int) (value int, consumed int) {
	if pos >= len(data) {
		return 0, 0
	}
	v, n := protowire.ConsumeVarint(data[pos:])
	if n < 0 {
		return 0, 0
	}
	return int(v), n
}

func decodeZigzagVarint(data []byte, pos int) (int32, int) {
	v, n := decodeVarint(data, pos)
	return int32(protowire.DecodeZigZag(uint64(v))), n
}

func decodeZigzagVarint64(data []byte, pos int) (int64, int) {
	if pos >= len(data) {
		return 0, 0
	}
	v, n := protowire.ConsumeVarint(data[pos:])
	if n < 0 {
		return 0, 0
	}
	return protowire.DecodeZigZag(v), n
}
