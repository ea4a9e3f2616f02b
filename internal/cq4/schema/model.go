// Package schema implements the SchemaModel (spec §4.E): named message
// types with ordered typed fields, loaded from JSON or produced by the
// Java class extractor, and consumed by the three secondary decoders.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/cq4kit/cq4diag/internal/cq4/cq4err"
)

// Encoding selects which secondary decoder a Schema's opaque payloads are
// interpreted with.
type Encoding string

const (
	EncodingBinary Encoding = "binary"
	EncodingThrift Encoding = "thrift"
	EncodingSBE    Encoding = "sbe"
)

// LogicalType is the closed set of field types a FieldDef may declare.
type LogicalType string

const (
	TypeInt8    LogicalType = "int8"
	TypeInt16   LogicalType = "int16"
	TypeInt32   LogicalType = "int32"
	TypeInt64   LogicalType = "int64"
	TypeUint8   LogicalType = "uint8"
	TypeUint16  LogicalType = "uint16"
	TypeUint32  LogicalType = "uint32"
	TypeUint64  LogicalType = "uint64"
	TypeFloat32 LogicalType = "float32"
	TypeFloat64 LogicalType = "float64"
	TypeBool    LogicalType = "bool"
	TypeString  LogicalType = "string"
	TypeBytes   LogicalType = "bytes"
	TypeStopBit LogicalType = "stop_bit"
	TypePadding LogicalType = "padding"
	TypeSkip    LogicalType = "skip"
	TypeObject  LogicalType = "object"
)

func validLogicalType(t LogicalType) bool {
	switch t {
	case TypeInt8, TypeInt16, TypeInt32, TypeInt64, TypeUint8, TypeUint16, TypeUint32, TypeUint64,
		TypeFloat32, TypeFloat64, TypeBool, TypeString, TypeBytes, TypeStopBit, TypePadding, TypeSkip, TypeObject:
		return true
	}
	return false
}

// FieldDef describes one field of a message, in declaration order.
type FieldDef struct {
	Name       string
	Type       LogicalType
	SizeHint   uint32
	Optional   bool
	ThriftID   *uint16
	NestedType *string
}

// MessageDef is a named, ordered sequence of fields.
type MessageDef struct {
	Name   string
	Fields []FieldDef
}

// HasObjectField reports whether any field is object-typed, used by the
// merge rule to prefer "outer" message types over helper inner classes.
func (m MessageDef) HasObjectField() bool {
	for _, f := range m.Fields {
		if f.Type == TypeObject {
			return true
		}
	}
	return false
}

// Schema is an immutable collection of message definitions plus the
// encoding used to interpret their opaque payloads.
type Schema struct {
	Messages       map[string]MessageDef
	DefaultMessage string
	Encoding       Encoding
}

// jsonSchema mirrors the on-disk JSON shape: {messages: {Name: {fields:
// [...]}, ...}, default?, encoding?}.
type jsonSchema struct {
	Messages map[string]struct {
		Fields []struct {
			Name     string `json:"name"`
			Type     string `json:"type"`
			Size     uint32 `json:"size"`
			Optional bool   `json:"optional"`
		} `json:"fields"`
	} `json:"messages"`
	Default  string `json:"default"`
	Encoding string `json:"encoding"`
}

// FromJSON parses a schema document of the shape documented in spec §4.E.
// Unknown logical types or malformed JSON are reported as BadSchema.
func FromJSON(data []byte) (*Schema, error) {
	var doc jsonSchema
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", cq4err.BadSchema, err)
	}

	s := &Schema{
		Messages:       make(map[string]MessageDef, len(doc.Messages)),
		DefaultMessage: doc.Default,
		Encoding:       EncodingBinary,
	}
	switch Encoding(doc.Encoding) {
	case EncodingThrift:
		s.Encoding = EncodingThrift
	case EncodingSBE:
		s.Encoding = EncodingSBE
	case "", EncodingBinary:
		s.Encoding = EncodingBinary
	default:
		return nil, fmt.Errorf("%w: unknown encoding %q", cq4err.BadSchema, doc.Encoding)
	}

	for name, def := range doc.Messages {
		fields := make([]FieldDef, 0, len(def.Fields))
		for _, f := range def.Fields {
			lt := LogicalType(f.Type)
			if !validLogicalType(lt) {
				return nil, fmt.Errorf("%w: message %q field %q: unknown type %q", cq4err.BadSchema, name, f.Name, f.Type)
			}
			fields = append(fields, FieldDef{
				Name:     f.Name,
				Type:     lt,
				SizeHint: f.Size,
				Optional: f.Optional,
			})
		}
		s.Messages[name] = MessageDef{Name: name, Fields: fields}
	}

	return s, nil
}

// GetMessage resolves a message definition by name, falling back to the
// schema default, and finally to the sole message if exactly one exists
// (spec §4.E).
func (s *Schema) GetMessage(name string) (MessageDef, bool) {
	if name != "" {
		if m, ok := s.Messages[name]; ok {
			return m, true
		}
		return MessageDef{}, false
	}
	if s.DefaultMessage != "" {
		if m, ok := s.Messages[s.DefaultMessage]; ok {
			return m, true
		}
	}
	if len(s.Messages) == 1 {
		for _, m := range s.Messages {
			return m, true
		}
	}
	return MessageDef{}, false
}

// Merge combines multiple schemas into one: the union of message
// definitions, with the default chosen as the first schema's default
// unless some schema declares a message with an object-typed field, in
// which case that message is preferred (spec §4.E) — the class extractor
// relies on this to pick the outer type over helper inner classes.
func Merge(schemas ...*Schema) *Schema {
	merged := &Schema{
		Messages: make(map[string]MessageDef),
		Encoding: EncodingBinary,
	}
	if len(schemas) == 0 {
		return merged
	}
	merged.Encoding = schemas[0].Encoding
	merged.DefaultMessage = schemas[0].DefaultMessage

	for _, s := range schemas {
		for name, def := range s.Messages {
			merged.Messages[name] = def
			if def.HasObjectField() {
				merged.DefaultMessage = name
			}
		}
	}
	return merged
}
