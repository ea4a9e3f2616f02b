package decode

import (
	"math"
	"testing"

	"github.com/cq4kit/cq4diag/internal/cq4/schema"
)

func TestDecodeSBENoHeader(t *testing.T) {
	def := schema.MessageDef{
		Fields: []schema.FieldDef{
			{Name: "a", Type: schema.TypeInt32},
			{Name: "b", Type: schema.TypeFloat32},
		},
	}
	data := []byte{
		0x2A, 0x00, 0x00, 0x00, // a = 42
		0x00, 0x00, 0x80, 0x3F, // b = 1.0f
	}
	result := DecodeSBE(data, def, false)
	a, ok := result.Get("a")
	if !ok {
		t.Fatalf("missing a")
	}
	if n, _ := a.Int64Value(); n != 42 {
		t.Fatalf("a = %v, want 42", a)
	}
	b, ok := result.Get("b")
	if !ok {
		t.Fatalf("missing b")
	}
	if f, _ := b.Float64Value(); f != 1.0 {
		t.Fatalf("b = %v, want 1.0", b)
	}
}

func TestDecodeSBEWithHeader(t *testing.T) {
	def := schema.MessageDef{Fields: []schema.FieldDef{{Name: "a", Type: schema.TypeInt8}}}
	data := []byte{
		0x01, 0x00, // blockLength
		0x02, 0x00, // templateId
		0x03, 0x00, // schemaId
		0x01, 0x00, // version
		0x07, // body: a = 7
	}
	result := DecodeSBE(data, def, true)
	tid, ok := result.Get("_templateId")
	if !ok {
		t.Fatalf("missing _templateId")
	}
	if n, _ := tid.Int64Value(); n != 2 {
		t.Fatalf("_templateId = %v, want 2", tid)
	}
	a, ok := result.Get("a")
	if !ok {
		t.Fatalf("missing a")
	}
	if n, _ := a.Int64Value(); n != 7 {
		t.Fatalf("a = %v, want 7", a)
	}
}

func TestDecodeSBEOptionalNullSentinel(t *testing.T) {
	def := schema.MessageDef{
		Fields: []schema.FieldDef{{Name: "a", Type: schema.TypeUint8, Optional: true}},
	}
	data := []byte{0xFF} // uint8 sentinel
	result := DecodeSBE(data, def, false)
	a, ok := result.Get("a")
	if !ok {
		t.Fatalf("missing a")
	}
	if !a.IsNull() {
		t.Fatalf("a = %v, want null (sentinel value)", a)
	}
}

func TestDecodeSBECharArrayTrimsNul(t *testing.T) {
	def := schema.MessageDef{Fields: []schema.FieldDef{{Name: "sym", Type: schema.TypeString}}}
	data := append([]byte("ABC"), make([]byte, 29)...) // padded to 32-char field
	result := DecodeSBE(data, def, false)
	sym, ok := result.Get("sym")
	if !ok {
		t.Fatalf("missing sym")
	}
	if s, _ := sym.StringValue(); s != "ABC" {
		t.Fatalf("sym = %q, want \"ABC\"", s)
	}
}

func TestDecodeSBEUint32AboveInt32RangeStaysPositive(t *testing.T) {
	def := schema.MessageDef{Fields: []schema.FieldDef{{Name: "v", Type: schema.TypeUint32}}}
	data := []byte{0x00, 0x5E, 0xD0, 0xB2} // 3,000,000,000 little-endian
	result := DecodeSBE(data, def, false)
	v, ok := result.Get("v")
	if !ok {
		t.Fatalf("missing v")
	}
	if n, _ := v.Int64Value(); n != 3000000000 {
		t.Fatalf("v = %v, want 3000000000", v)
	}
}

func TestDecodeSBEFloatNaNSentinel(t *testing.T) {
	def := schema.MessageDef{Fields: []schema.FieldDef{{Name: "f", Type: schema.TypeFloat32, Optional: true}}}
	bits := math.Float32bits(float32(math.NaN()))
	data := []byte{byte(bits), byte(bits >> 8), byte(bits >> 16), byte(bits >> 24)}
	result := DecodeSBE(data, def, false)
	f, ok := result.Get("f")
	if !ok {
		t.Fatalf("missing f")
	}
	if !f.IsNull() {
		t.Fatalf("f = %v, want null (NaN sentinel)", f)
	}
}
