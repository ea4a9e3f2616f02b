package wire

import (
	"reflect"
	"testing"
)

func TestReadMessageSimpleField(t *testing.T) {
	// S1: C4 6E 61 6D 65 E4 4A 6F 68 6E -> {name: "John"}, no type hint.
	p := NewParser([]byte{0xC4, 0x6E, 0x61, 0x6D, 0x65, 0xE4, 0x4A, 0x6F, 0x68, 0x6E})
	msg, err := p.ReadMessage()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.TypeHint != nil {
		t.Fatalf("want no type hint, got %q", *msg.TypeHint)
	}
	v, ok := msg.Fields.Get("name")
	if !ok {
		t.Fatalf("missing field %q", "name")
	}
	s, ok := v.StringValue()
	if !ok || s != "John" {
		t.Fatalf("name = %v, want \"John\"", v)
	}
	if msg.Fields.Len() != 1 {
		t.Fatalf("got %d fields, want 1", msg.Fields.Len())
	}
}

func TestReadMessageTypePrefix(t *testing.T) {
	// S2: B6 0C 21 74 79 70 65 73 2E 4F 72 64 65 72 C2 69 64 A4 2A 00 00 00
	// -> type_hint "!types.Order", {id: 42}.
	data := []byte{
		0xB6, 0x0C,
		0x21, 0x74, 0x79, 0x70, 0x65, 0x73, 0x2E, 0x4F, 0x72, 0x64, 0x65, 0x72,
		0xC2, 0x69, 0x64,
		0xA4, 0x2A, 0x00, 0x00, 0x00,
	}
	p := NewParser(data)
	msg, err := p.ReadMessage()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.TypeHint == nil || *msg.TypeHint != "!types.Order" {
		t.Fatalf("type hint = %v, want \"!types.Order\"", msg.TypeHint)
	}
	if msg.Fields.Has("__type__") {
		t.Fatalf("top-level fields must never contain __type__")
	}
	v, ok := msg.Fields.Get("id")
	if !ok {
		t.Fatalf("missing field %q", "id")
	}
	n, ok := v.Int64Value()
	if !ok || n != 42 {
		t.Fatalf("id = %v, want 42", v)
	}
}

func TestReadObjectSalvage(t *testing.T) {
	// S3: payload E4 48 65 6C 6C 6F does not begin with a field-name tag
	// (0xE4 is a compact STRING tag, not a compact field name), so no
	// fields parse and the whole buffer is salvaged.
	data := []byte{0xE4, 0x48, 0x65, 0x6C, 0x6C, 0x6F}
	p := NewParser(data)
	fields, err := p.ReadObject()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hex, ok := fields.Get("_raw_hex")
	if !ok {
		t.Fatalf("missing _raw_hex")
	}
	if s, _ := hex.StringValue(); s != "e448656c6c6f" {
		t.Fatalf("_raw_hex = %q, want %q", s, "e448656c6c6f")
	}
	strs, ok := fields.Get("_strings")
	if !ok {
		t.Fatalf("missing _strings")
	}
	if s, _ := strs.StringValue(); s != "Hello" {
		t.Fatalf("_strings = %q, want %q", s, "Hello")
	}
}

func TestReadObjectFieldOrderPreserved(t *testing.T) {
	// Three compact fields in a deliberately non-alphabetical order; the
	// mapping must iterate back out in wire order.
	data := []byte{}
	data = append(data, 0xC1, 'z') // field "z" -> compact string len 0
	data = append(data, 0xE0)      // empty string value
	data = append(data, 0xC1, 'a') // field "a"
	data = append(data, 0xE0)      // empty string value
	data = append(data, 0xC1, 'm') // field "m"
	data = append(data, 0xE0)      // empty string value

	p := NewParser(data)
	fields, err := p.ReadObject()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := fields.Keys()
	want := []string{"z", "a", "m"}
	if len(got) != len(want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("keys = %v, want %v", got, want)
		}
	}
}

func TestReadValueNestedBlock(t *testing.T) {
	// NESTED_BLOCK wrapping the S1 field, length-prefixed with stop-bit 10.
	inner := []byte{0xC4, 0x6E, 0x61, 0x6D, 0x65, 0xE4, 0x4A, 0x6F, 0x68, 0x6E}
	data := append([]byte{0x82, byte(len(inner))}, inner...)
	p := NewParser(data)
	v, err := p.ReadValue()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m, ok := v.MappingValue()
	if !ok {
		t.Fatalf("want mapping, got kind %v", v.Kind())
	}
	name, ok := m.Get("name")
	if !ok {
		t.Fatalf("nested mapping missing %q", "name")
	}
	if s, _ := name.StringValue(); s != "John" {
		t.Fatalf("name = %q, want \"John\"", s)
	}
}

func TestReadValueUnknownTagFallsBackToHex(t *testing.T) {
	// 0x86 is not assigned in the tag registry.
	p := NewParser([]byte{0x86})
	v, err := p.ReadValue()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, ok := v.StringValue()
	if !ok || s != "<unknown:0x86>" {
		t.Fatalf("got %v, want <unknown:0x86>", v)
	}
}

func TestReadFieldNameNotPresent(t *testing.T) {
	// A value tag at the front is not a field name.
	p := NewParser([]byte{0xA4, 0x01, 0x00, 0x00, 0x00})
	_, ok, err := p.ReadFieldName()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("want ok=false for a value tag")
	}
}

func TestReadMessageSalvagesMidRecordTruncation(t *testing.T) {
	// Compact field name "id" followed by a TagInt32 value tag with only 2
	// of its 4 payload bytes present: the record aborts partway through
	// and must be salvaged, not propagated as a stream-ending error.
	data := []byte{0xC2, 'i', 'd', 0xA4, 0x2A, 0x00}
	p := NewParser(data)
	msg, err := p.ReadMessage()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !msg.Fields.Has("_raw_hex") {
		t.Fatalf("want salvaged _raw_hex, got %+v", msg.Fields)
	}
	if msg.Fields.Has("id") {
		t.Fatalf("want the partial field discarded, got id present")
	}
}

func TestSalvageJSONKeyOrderIsSortedAndStable(t *testing.T) {
	data := []byte(`{"zeta":1,"alpha":2,"mid":3}`)

	p1 := NewParser(append([]byte(nil), data...))
	r1, err := p1.ReadObject()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p2 := NewParser(append([]byte(nil), data...))
	r2, err := p2.ReadObject()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"_raw_hex", "_raw_length", "_json", "alpha", "mid", "zeta"}
	if !reflect.DeepEqual(r1.Keys(), want) {
		t.Fatalf("r1 keys = %v, want %v", r1.Keys(), want)
	}
	if !reflect.DeepEqual(r1.Keys(), r2.Keys()) {
		t.Fatalf("two parses of the same payload disagree on key order: %v vs %v", r1.Keys(), r2.Keys())
	}

	jsonVal, ok := r1.Get("_json")
	if !ok {
		t.Fatalf("missing _json")
	}
	nested, ok := jsonVal.MappingValue()
	if !ok {
		t.Fatalf("_json is not a mapping")
	}
	wantNested := []string{"alpha", "mid", "zeta"}
	if !reflect.DeepEqual(nested.Keys(), wantNested) {
		t.Fatalf("_json keys = %v, want %v", nested.Keys(), wantNested)
	}
}

func TestStopBitLengthViaParser(t *testing.T) {
	// AC 02 -> 300, as a standalone stop-bit read through the parser.
	p := NewParser([]byte{0xAC, 0x02})
	n, err := p.ReadStopBitUnsigned()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 300 {
		t.Fatalf("got %d, want 300", n)
	}
}
