package javaclass

import (
	"testing"

	"github.com/cq4kit/cq4diag/internal/cq4/schema"
)

func TestToMessageDefExcludesStaticAndTransient(t *testing.T) {
	src := `
class Trade {
	private long tradeId;
	private transient String tmp;
	private static int counter;
}
`
	defs := ExtractSource(src, "Trade")
	if len(defs) != 1 {
		t.Fatalf("got %d class bodies, want 1", len(defs))
	}
	md := defs[0].ToMessageDef(nil)
	if len(md.Fields) != 1 {
		t.Fatalf("got %d fields, want 1: %+v", len(md.Fields), md.Fields)
	}
	f := md.Fields[0]
	if f.Name != "tradeId" || f.Type != schema.TypeInt64 {
		t.Fatalf("field = %+v, want tradeId:int64", f)
	}
}

func TestExtractSourceFindsInnerClass(t *testing.T) {
	src := `
class Outer {
	private int a;
	class Inner {
		private int b;
	}
}
`
	defs := ExtractSource(src, "Outer")
	if len(defs) != 2 {
		t.Fatalf("got %d class bodies, want 2", len(defs))
	}
	names := map[string]bool{}
	for _, d := range defs {
		names[d.Name] = true
	}
	if !names["Outer"] || !names["Inner"] {
		t.Fatalf("names = %v, want Outer and Inner", names)
	}
}

func TestDetectEncodingSBEMarker(t *testing.T) {
	src := `import uk.co.real_logic.sbe.ir.Ir;`
	if DetectEncoding(src) != schema.EncodingSBE {
		t.Fatalf("want sbe encoding detected")
	}
}

func TestDetectEncodingDefaultsBinary(t *testing.T) {
	src := `class Plain { private int x; }`
	if DetectEncoding(src) != schema.EncodingBinary {
		t.Fatalf("want binary default")
	}
}

func TestSourceFieldTypeArraysMapToBytes(t *testing.T) {
	for _, javaType := range []string{"int[]", "String[]", "byte[]", "long[][]"} {
		if got := SourceFieldType(javaType); got != schema.TypeBytes {
			t.Fatalf("SourceFieldType(%q) = %v, want bytes", javaType, got)
		}
	}
}

func TestToMessageDefObjectFieldStoresNestedType(t *testing.T) {
	src := `
class Order {
	private HeaderInfo header;
}
`
	defs := ExtractSource(src, "Order")
	if len(defs) != 1 {
		t.Fatalf("got %d class bodies, want 1", len(defs))
	}
	md := defs[0].ToMessageDef(nil)
	if len(md.Fields) != 1 {
		t.Fatalf("got %d fields, want 1: %+v", len(md.Fields), md.Fields)
	}
	f := md.Fields[0]
	if f.Type != schema.TypeObject {
		t.Fatalf("field type = %v, want object", f.Type)
	}
	if f.NestedType == nil || *f.NestedType != "HeaderInfo" {
		t.Fatalf("NestedType = %v, want HeaderInfo", f.NestedType)
	}
}

func TestExtractThriftFieldIDs(t *testing.T) {
	src := `new org.apache.thrift.protocol.TField("tradeId", org.apache.thrift.protocol.TType.I64, (short)1)`
	ids := ExtractThriftFieldIDs(src)
	if ids["tradeId"] != 1 {
		t.Fatalf("ids = %v, want tradeId:1", ids)
	}
}
