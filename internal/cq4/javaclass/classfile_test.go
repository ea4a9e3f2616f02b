package javaclass

import (
	"testing"

	"github.com/cq4kit/cq4diag/internal/cq4/schema"
)

// syntheticClassFile builds a minimal well-formed .class file declaring
// one class "Trade" with a single non-static, non-transient long field
// "tradeId" (descriptor "J"), and no methods or class attributes.
func syntheticClassFile() []byte {
	return []byte{
		0xCA, 0xFE, 0xBA, 0xBE, // magic
		0x00, 0x00, // minor version
		0x00, 0x34, // major version
		0x00, 0x05, // constant_pool_count (4 entries, 1-indexed)

		0x01, 0x00, 0x05, 'T', 'r', 'a', 'd', 'e', // #1 utf8 "Trade"
		0x07, 0x00, 0x01, // #2 class -> name_index #1 "Trade"
		0x01, 0x00, 0x07, 't', 'r', 'a', 'd', 'e', 'I', 'd', // #3 utf8 "tradeId"
		0x01, 0x00, 0x01, 'J', // #4 utf8 "J"

		0x00, 0x01, // access_flags
		0x00, 0x02, // this_class -> #2 (the class entry)
		0x00, 0x00, // super_class
		0x00, 0x00, // interfaces_count
		0x00, 0x01, // fields_count

		0x00, 0x00, // field access_flags
		0x00, 0x03, // name_index -> #3 "tradeId"
		0x00, 0x04, // descriptor_index -> #4 "J"
		0x00, 0x00, // attributes_count
	}
}

func TestParseClassFileFieldTable(t *testing.T) {
	data := syntheticClassFile()
	name, fields, err := ParseClassFile(data)
	if err != nil {
		t.Fatalf("ParseClassFile: %v", err)
	}
	if name != "Trade" {
		t.Fatalf("name = %q, want Trade", name)
	}
	if len(fields) != 1 {
		t.Fatalf("got %d fields, want 1", len(fields))
	}
	f := fields[0]
	if f.Name != "tradeId" || f.Descriptor != "J" {
		t.Fatalf("field = %+v, want tradeId:J", f)
	}
	if f.Static || f.Transient {
		t.Fatalf("field = %+v, want neither static nor transient", f)
	}
}

func TestClassFileMessageDefMapsDescriptor(t *testing.T) {
	data := syntheticClassFile()
	name, fields, err := ParseClassFile(data)
	if err != nil {
		t.Fatalf("ParseClassFile: %v", err)
	}
	md := ClassFileMessageDef(name, fields, nil)
	if len(md.Fields) != 1 {
		t.Fatalf("got %d fields, want 1", len(md.Fields))
	}
	if md.Fields[0].Type != schema.TypeInt64 {
		t.Fatalf("type = %v, want int64", md.Fields[0].Type)
	}
}

// syntheticClassFileWithObjectField builds a minimal .class file declaring
// class "Order" with one field "header" of descriptor type
// "Lcom/example/HeaderInfo;".
func syntheticClassFileWithObjectField() []byte {
	descriptor := "Lcom/example/HeaderInfo;"
	out := []byte{
		0xCA, 0xFE, 0xBA, 0xBE, // magic
		0x00, 0x00, // minor version
		0x00, 0x34, // major version
		0x00, 0x05, // constant_pool_count (4 entries, 1-indexed)

		0x01, 0x00, 0x05, 'O', 'r', 'd', 'e', 'r', // #1 utf8 "Order"
		0x07, 0x00, 0x01, // #2 class -> name_index #1 "Order"
		0x01, 0x00, 0x06, 'h', 'e', 'a', 'd', 'e', 'r', // #3 utf8 "header"
	}
	out = append(out, 0x01, 0x00, byte(len(descriptor)))
	out = append(out, []byte(descriptor)...) // #4 utf8 descriptor
	out = append(out,
		0x00, 0x01, // access_flags
		0x00, 0x02, // this_class -> #2
		0x00, 0x00, // super_class
		0x00, 0x00, // interfaces_count
		0x00, 0x01, // fields_count

		0x00, 0x00, // field access_flags
		0x00, 0x03, // name_index -> #3 "header"
		0x00, 0x04, // descriptor_index -> #4
		0x00, 0x00, // attributes_count
	)
	return out
}

func TestClassFileMessageDefObjectFieldStoresNestedType(t *testing.T) {
	data := syntheticClassFileWithObjectField()
	name, fields, err := ParseClassFile(data)
	if err != nil {
		t.Fatalf("ParseClassFile: %v", err)
	}
	md := ClassFileMessageDef(name, fields, nil)
	if len(md.Fields) != 1 {
		t.Fatalf("got %d fields, want 1", len(md.Fields))
	}
	f := md.Fields[0]
	if f.Type != schema.TypeObject {
		t.Fatalf("type = %v, want object", f.Type)
	}
	if f.NestedType == nil || *f.NestedType != "HeaderInfo" {
		t.Fatalf("NestedType = %v, want HeaderInfo", f.NestedType)
	}
}

func TestParseClassFileBadMagicRejected(t *testing.T) {
	data := append([]byte{0x00, 0x00, 0x00, 0x00}, syntheticClassFile()[4:]...)
	if _, _, err := ParseClassFile(data); err == nil {
		t.Fatalf("want error for bad magic")
	}
}

func TestParseClassFileTruncatedConstantPool(t *testing.T) {
	data := syntheticClassFile()[:12]
	if _, _, err := ParseClassFile(data); err == nil {
		t.Fatalf("want truncated error")
	}
}
