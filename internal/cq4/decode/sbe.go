package decode

import (
	"fmt"
	"math"

	"github.com/cq4kit/cq4diag/internal/cq4/schema"
	"github.com/cq4kit/cq4diag/internal/cq4/wire"
)

// sbePrimitiveSize returns the byte width of an SBE primitive type (spec
// §4.H).
func sbePrimitiveSize(t string) int {
	switch t {
	case "int8", "uint8", "char":
		return 1
	case "int16", "uint16":
		return 2
	case "int32", "uint32", "float":
		return 4
	case "int64", "uint64", "double":
		return 8
	default:
		return 1
	}
}

// sbeField is a resolved field layout: primitive type, array length, and
// computed byte offset.
type sbeField struct {
	Name     string
	Type     string
	Length   int
	Offset   int
	Optional bool
}

// layoutSBEFields computes sequential offsets for def's fields, mapping
// schema logical types to SBE primitive types the way the class extractor
// would (int32/int64/etc map directly; string becomes a 32-char array;
// bytes becomes a 32-byte int8 array; bool becomes uint8).
func layoutSBEFields(def schema.MessageDef) []sbeField {
	out := make([]sbeField, 0, len(def.Fields))
	offset := 0
	for _, f := range def.Fields {
		ptype, length := toSBEType(f.Type)
		out = append(out, sbeField{Name: f.Name, Type: ptype, Length: length, Offset: offset, Optional: f.Optional})
		offset += sbePrimitiveSize(ptype) * length
	}
	return out
}

func toSBEType(t schema.LogicalType) (string, int) {
	switch t {
	case schema.TypeInt8:
		return "int8", 1
	case schema.TypeUint8:
		return "uint8", 1
	case schema.TypeInt16:
		return "int16", 1
	case schema.TypeUint16:
		return "uint16", 1
	case schema.TypeInt32:
		return "int32", 1
	case schema.TypeUint32:
		return "uint32", 1
	case schema.TypeInt64:
		return "int64", 1
	case schema.TypeUint64:
		return "uint64", 1
	case schema.TypeFloat32:
		return "float", 1
	case schema.TypeFloat64:
		return "double", 1
	case schema.TypeBool:
		return "uint8", 1
	case schema.TypeString:
		return "char", 32
	case schema.TypeBytes:
		return "int8", 32
	default:
		return "int8", 1
	}
}

// sbeNullSentinel reports the type's designated null value and whether it
// applies (floats use NaN, handled separately).
func sbeNullSentinel(t string) (int64, bool) {
	switch t {
	case "int8":
		return math.MinInt8, true
	case "uint8":
		return math.MaxUint8, true
	case "int16":
		return math.MinInt16, true
	case "uint16":
		return math.MaxUint16, true
	case "int32":
		return math.MinInt32, true
	case "uint32":
		return math.MaxUint32, true
	case "int64":
		return math.MinInt64, true
	case "uint64":
		return -1, true // all-ones bit pattern; compared as unsigned below
	}
	return 0, false
}

// DecodeSBE decodes data against def's fixed-offset field layout (spec
// §4.H). withHeader additionally parses the standard 8-byte SBE header
// (blockLength/templateId/schemaId/version) ahead of the body.
func DecodeSBE(data []byte, def schema.MessageDef, withHeader bool) *wire.OrderedMap {
	result := wire.NewOrderedMap()
	bodyOffset := 0

	if withHeader {
		if len(data) < 8 {
			result.Set("_error", wire.String("data too short for header"))
			return result
		}
		blockLength := le16(data, 0)
		templateID := le16(data, 2)
		schemaID := le16(data, 4)
		version := le16(data, 6)
		result.Set("_blockLength", wire.Uint16(blockLength))
		result.Set("_templateId", wire.Uint16(templateID))
		result.Set("_schemaId", wire.Uint16(schemaID))
		result.Set("_version", wire.Uint16(version))
		bodyOffset = 8
	}

	for _, f := range layoutSBEFields(def) {
		pos := bodyOffset + f.Offset
		val, isNull := decodeSBEField(data, pos, f)
		if f.Optional && isNull {
			result.Set(f.Name, wire.Null())
		} else {
			result.Set(f.Name, val)
		}
	}

	return result
}

func decodeSBEField(data []byte, pos int, f sbeField) (wire.Value, bool) {
	if f.Type == "char" && f.Length > 1 {
		end := pos + f.Length
		if end > len(data) {
			return wire.String(""), false
		}
		raw := data[pos:end]
		for i, b := range raw {
			if b == 0 {
				raw = raw[:i]
				break
			}
		}
		s, err := wire.NewParser(append([]byte(nil), raw...)).ReadString(len(raw))
		if err != nil {
			return wire.String(fmt.Sprintf("%x", raw)), false
		}
		return wire.String(s), false
	}

	size := sbePrimitiveSize(f.Type)
	if pos+size > len(data) {
		return wire.Null(), true
	}

	switch f.Type {
	case "int8":
		v := int8(data[pos])
		sentinel, _ := sbeNullSentinel(f.Type)
		return wire.Int8(v), int64(v) == sentinel
	case "uint8":
		v := data[pos]
		sentinel, _ := sbeNullSentinel(f.Type)
		return wire.Uint8(v), int64(v) == sentinel
	case "char":
		return wire.String(string(rune(data[pos]))), data[pos] == 0
	case "int16":
		v := int16(le16(data, pos))
		sentinel, _ := sbeNullSentinel(f.Type)
		return wire.Int16(v), int64(v) == sentinel
	case "uint16":
		v := le16(data, pos)
		sentinel, _ := sbeNullSentinel(f.Type)
		return wire.Uint16(v), int64(v) == sentinel
	case "int32":
		v := int32(le32(data, pos))
		sentinel, _ := sbeNullSentinel(f.Type)
		return wire.Int32(v), int64(v) == sentinel
	case "uint32":
		v := le32(data, pos)
		sentinel, _ := sbeNullSentinel(f.Type)
		return wire.Int64(int64(v)), int64(v) == sentinel
	case "int64":
		v := int64(le64(data, pos))
		sentinel, _ := sbeNullSentinel(f.Type)
		return wire.Int64(v), v == sentinel
	case "uint64":
		v := le64(data, pos)
		return wire.Int64(int64(v)), v == math.MaxUint64
	case "float":
		v := math.Float32frombits(le32(data, pos))
		return wire.Float32(v), v != v // NaN sentinel
	case "double":
		v := math.Float64frombits(le64(data, pos))
		return wire.Float64(v), v != v
	default:
		return wire.Null(), true
	}
}
