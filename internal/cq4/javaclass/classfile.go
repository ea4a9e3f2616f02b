package javaclass

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/cq4kit/cq4diag/internal/cq4/cq4err"
	"github.com/cq4kit/cq4diag/internal/cq4/schema"
)

const classMagic = 0xCAFEBABE

// Constant pool tags (JVMS §4.4).
const (
	cpUtf8               = 1
	cpInteger            = 3
	cpFloat              = 4
	cpLong               = 5
	cpDouble             = 6
	cpClass              = 7
	cpString             = 8
	cpFieldRef           = 9
	cpMethodRef          = 10
	cpInterfaceMethodRef = 11
	cpNameAndType        = 12
	cpMethodHandle       = 15
	cpMethodType         = 16
	cpDynamic            = 17
	cpInvokeDynamic      = 18
	cpModule             = 19
	cpPackage            = 20
)

const (
	accStatic    = 0x0008
	accTransient = 0x0080
)

// classReader is a cursor over a classfile's bytes, reading JVMS
// big-endian fields in sequence.
type classReader struct {
	data []byte
	pos  int
}

func (r *classReader) u1() (byte, error) {
	if r.pos+1 > len(r.data) {
		return 0, cq4err.Truncated
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *classReader) u2() (uint16, error) {
	if r.pos+2 > len(r.data) {
		return 0, cq4err.Truncated
	}
	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *classReader) u4() (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, cq4err.Truncated
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *classReader) skip(n int) error {
	if r.pos+n > len(r.data) {
		return cq4err.Truncated
	}
	r.pos += n
	return nil
}

func (r *classReader) bytes(n int) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, cq4err.Truncated
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// cpEntry is one constant-pool slot. utf8 values are decoded eagerly
// since field names and descriptors are both UTF8 entries. A class_info
// entry's name_index is retained too, since resolving this_class to a
// name requires following that second hop; every other tag is skipped
// over without retaining its bytes.
type cpEntry struct {
	tag     byte
	utf8    string
	nameIdx uint16
}

// ClassFileField is one field_info entry resolved against the constant
// pool: its name, raw descriptor, and access flags.
type ClassFileField struct {
	Name       string
	Descriptor string
	Static     bool
	Transient  bool
}

// ParseClassFile reads a compiled .class file's constant pool and field
// table (spec §4.I). Parsing stops after the field table; the method and
// class-level attribute tables that follow it are not read.
func ParseClassFile(data []byte) (string, []ClassFileField, error) {
	r := &classReader{data: data}

	magic, err := r.u4()
	if err != nil {
		return "", nil, err
	}
	if magic != classMagic {
		return "", nil, fmt.Errorf("%w: bad magic 0x%08X", cq4err.BadTag, magic)
	}
	if _, err := r.u2(); err != nil { // minor version
		return "", nil, err
	}
	if _, err := r.u2(); err != nil { // major version
		return "", nil, err
	}

	pool, err := readConstantPool(r)
	if err != nil {
		return "", nil, err
	}

	if _, err := r.u2(); err != nil { // access_flags
		return "", nil, err
	}
	thisClass, err := r.u2()
	if err != nil {
		return "", nil, err
	}
	if _, err := r.u2(); err != nil { // super_class
		return "", nil, err
	}

	ifaceCount, err := r.u2()
	if err != nil {
		return "", nil, err
	}
	if err := r.skip(int(ifaceCount) * 2); err != nil {
		return "", nil, err
	}

	fieldCount, err := r.u2()
	if err != nil {
		return "", nil, err
	}
	fields := make([]ClassFileField, 0, fieldCount)
	for i := uint16(0); i < fieldCount; i++ {
		f, err := readFieldInfo(r, pool)
		if err != nil {
			return "", nil, fmt.Errorf("field %d: %w", i, err)
		}
		fields = append(fields, f)
	}

	name := className(pool, thisClass)
	return name, fields, nil
}

// readConstantPool reads all #1..count-1 entries (the pool is 1-indexed
// and long/double entries occupy two slots, per JVMS §4.4).
func readConstantPool(r *classReader) ([]cpEntry, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	pool := make([]cpEntry, count) // index 0 unused
	for i := 1; i < int(count); i++ {
		tag, err := r.u1()
		if err != nil {
			return nil, fmt.Errorf("constant pool entry %d: %w", i, err)
		}
		entry := cpEntry{tag: tag}

		switch tag {
		case cpUtf8:
			length, err := r.u2()
			if err != nil {
				return nil, err
			}
			b, err := r.bytes(int(length))
			if err != nil {
				return nil, err
			}
			entry.utf8 = string(b)
		case cpInteger, cpFloat:
			if err := r.skip(4); err != nil {
				return nil, err
			}
		case cpLong, cpDouble:
			if err := r.skip(8); err != nil {
				return nil, err
			}
			pool[i] = entry
			i++ // occupies the next slot too
			continue
		case cpClass:
			idx, err := r.u2()
			if err != nil {
				return nil, err
			}
			entry.nameIdx = idx
		case cpString, cpMethodType, cpModule, cpPackage:
			if err := r.skip(2); err != nil {
				return nil, err
			}
		case cpFieldRef, cpMethodRef, cpInterfaceMethodRef, cpNameAndType, cpDynamic, cpInvokeDynamic:
			if err := r.skip(4); err != nil {
				return nil, err
			}
		case cpMethodHandle:
			if err := r.skip(3); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w: unknown constant pool tag %d", cq4err.BadTag, tag)
		}

		pool[i] = entry
	}
	return pool, nil
}

func readFieldInfo(r *classReader, pool []cpEntry) (ClassFileField, error) {
	access, err := r.u2()
	if err != nil {
		return ClassFileField{}, err
	}
	nameIdx, err := r.u2()
	if err != nil {
		return ClassFileField{}, err
	}
	descIdx, err := r.u2()
	if err != nil {
		return ClassFileField{}, err
	}
	attrCount, err := r.u2()
	if err != nil {
		return ClassFileField{}, err
	}
	for i := uint16(0); i < attrCount; i++ {
		if _, err := r.u2(); err != nil { // attribute_name_index
			return ClassFileField{}, err
		}
		length, err := r.u4()
		if err != nil {
			return ClassFileField{}, err
		}
		if err := r.skip(int(length)); err != nil {
			return ClassFileField{}, err
		}
	}

	return ClassFileField{
		Name:       utf8At(pool, nameIdx),
		Descriptor: utf8At(pool, descIdx),
		Static:     access&accStatic != 0,
		Transient:  access&accTransient != 0,
	}, nil
}

func utf8At(pool []cpEntry, idx uint16) string {
	if int(idx) >= len(pool) {
		return ""
	}
	return pool[idx].utf8
}

// className resolves this_class: a pool index into a CONSTANT_Class_info,
// whose own name_index points at the UTF8 holding the binary class name.
func className(pool []cpEntry, classIdx uint16) string {
	if int(classIdx) >= len(pool) {
		return ""
	}
	return utf8At(pool, pool[classIdx].nameIdx)
}

// DescriptorLogicalType maps a JVMS field descriptor to the closed
// logical type set (spec §4.I).
func DescriptorLogicalType(descriptor string) schema.LogicalType {
	switch descriptor {
	case "B", "Ljava/lang/Byte;":
		return schema.TypeInt8
	case "S", "Ljava/lang/Short;":
		return schema.TypeInt16
	case "I", "Ljava/lang/Integer;":
		return schema.TypeInt32
	case "J", "Ljava/lang/Long;":
		return schema.TypeInt64
	case "F", "Ljava/lang/Float;":
		return schema.TypeFloat32
	case "D", "Ljava/lang/Double;":
		return schema.TypeFloat64
	case "Z", "Ljava/lang/Boolean;":
		return schema.TypeBool
	case "C", "Ljava/lang/Character;":
		return schema.TypeUint16
	case "Ljava/lang/String;", "Ljava/lang/CharSequence;":
		return schema.TypeString
	case "[B":
		return schema.TypeBytes
	default:
		if strings.HasPrefix(descriptor, "[") || strings.HasPrefix(descriptor, "L") {
			return schema.TypeObject
		}
		return schema.TypeObject
	}
}

// descriptorClassName recovers a simple class name from an object or array
// field descriptor (e.g. "Lcom/example/HeaderInfo;" or
// "[Lcom/example/HeaderInfo;" -> "HeaderInfo"), mirroring the plain Java
// type name ClassDef.ToMessageDef stores for source-derived fields.
func descriptorClassName(descriptor string) string {
	d := strings.TrimPrefix(descriptor, "[")
	d = strings.TrimPrefix(d, "L")
	d = strings.TrimSuffix(d, ";")
	if i := strings.LastIndex(d, "/"); i >= 0 {
		d = d[i+1:]
	}
	return d
}

// ClassFileMessageDef narrows a parsed class file's field table to a
// schema.MessageDef the same way ClassDef.ToMessageDef narrows source
// fields: static and transient fields excluded, underscore-prefixed
// Thrift bookkeeping fields suppressed.
func ClassFileMessageDef(name string, fields []ClassFileField, thriftIDs map[string]int16) schema.MessageDef {
	out := make([]schema.FieldDef, 0, len(fields))
	for _, f := range fields {
		if f.Static || f.Transient {
			continue
		}
		if strings.HasPrefix(f.Name, "_") {
			continue
		}
		fd := schema.FieldDef{Name: f.Name, Type: DescriptorLogicalType(f.Descriptor)}
		if fd.Type == schema.TypeObject {
			name := descriptorClassName(f.Descriptor)
			fd.NestedType = &name
		}
		if id, ok := thriftIDs[f.Name]; ok {
			v := uint16(id)
			fd.ThriftID = &v
		}
		out = append(out, fd)
	}
	return schema.MessageDef{Name: name, Fields: out}
}
