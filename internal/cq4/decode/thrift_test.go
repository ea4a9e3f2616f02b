package decode

import (
	"testing"

	"github.com/cq4kit/cq4diag/internal/cq4/schema"
)

func TestDecodeThriftSimpleField(t *testing.T) {
	def := schema.MessageDef{Fields: []schema.FieldDef{{Name: "value", Type: schema.TypeInt32}}}
	// field header: delta=1, type=COMPACT_I32(5) -> 0x15; zigzag(42)=84=0x54; STOP.
	data := []byte{0x15, 0x54, 0x00}

	result := DecodeThrift(data, def)
	v, ok := result.Get("value")
	if !ok {
		t.Fatalf("missing field %q", "value")
	}
	if n, _ := v.Int64Value(); n != 42 {
		t.Fatalf("value = %v, want 42", v)
	}
}

func TestDecodeThriftUnknownFieldIDFallsBackToNumber(t *testing.T) {
	def := schema.MessageDef{} // no fields defined
	data := []byte{0x13, 0x02, 0x00}
	result := DecodeThrift(data, def)
	if result.Len() != 1 {
		t.Fatalf("got %d fields, want 1", result.Len())
	}
	if !result.Has("field_1") {
		t.Fatalf("keys = %v, want field_1 present", result.Keys())
	}
}

func TestDecodeThriftBoolTrueHasNoBody(t *testing.T) {
	def := schema.MessageDef{Fields: []schema.FieldDef{{Name: "flag", Type: schema.TypeBool}}}
	// delta=1, type=COMPACT_BOOLEAN_TRUE(1) -> 0x11; STOP.
	data := []byte{0x11, 0x00}
	result := DecodeThrift(data, def)
	flag, ok := result.Get("flag")
	if !ok {
		t.Fatalf("missing flag")
	}
	if b, _ := flag.BoolValue(); !b {
		t.Fatalf("flag = %v, want true", flag)
	}
}

func TestDecodeThriftNestedStruct(t *testing.T) {
	outer := schema.MessageDef{Fields: []schema.FieldDef{{Name: "inner", Type: schema.TypeObject}}}
	// outer field 1: type=COMPACT_STRUCT(12) -> delta=1 -> 0x1C
	// inner struct: field 1, type=COMPACT_I32(5) -> 0x15, zigzag(2)=4=0x04, STOP, then outer STOP.
	data := []byte{0x1C, 0x15, 0x04, 0x00, 0x00}
	result := DecodeThrift(data, outer)
	v, ok := result.Get("inner")
	if !ok {
		t.Fatalf("missing inner")
	}
	m, ok := v.MappingValue()
	if !ok {
		t.Fatalf("want mapping, got kind %v", v.Kind())
	}
	field1, ok := m.Get("field_1")
	if !ok {
		t.Fatalf("nested struct missing field_1")
	}
	if n, _ := field1.Int64Value(); n != 2 {
		t.Fatalf("field_1 = %v, want 2", field1)
	}
}
