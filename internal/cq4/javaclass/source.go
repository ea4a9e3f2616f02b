// Package javaclass implements the ClassExtractor (spec §4.I): parsing
// Java source (lexically, without invoking a compiler) and compiled
// .class files into schema.MessageDef field layouts, plus encoding
// detection and Thrift field-ID recovery.
package javaclass

import (
	"regexp"
	"strings"

	"github.com/cq4kit/cq4diag/internal/cq4/schema"
)

// SourceField is one field recovered from Java source text, before it is
// narrowed down to the fields an emitted schema actually keeps.
type SourceField struct {
	Name      string
	JavaType  string
	Static    bool
	Transient bool
}

// ClassDef is one class body's extracted fields, named after the class
// (outer or inner).
type ClassDef struct {
	Name   string
	Fields []SourceField
}

var (
	lineComment  = regexp.MustCompile(`//[^\n]*`)
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)

	modifierWord = `(?:public|protected|private|static|final|transient|volatile|synchronized|abstract|native)`
	typeWord     = `(?:[A-Za-z_][\w.]*(?:<[^;]*?>)?(?:\[\])*|CharSequence|String)`
	fieldPattern = regexp.MustCompile(
		`(?m)^\s*((?:` + modifierWord + `\s+)*)(` + typeWord + `)\s+([A-Za-z_]\w*)\s*(?:=[^;]*)?;`,
	)

	classHeaderPattern = regexp.MustCompile(
		`(?:public|private|protected)?\s*(?:static\s+)?class\s+(\w+)\s*(?:extends\s+[\w.<>]+)?(?:implements\s+[\w.,<>\s]+)?\s*\{`,
	)

	sbeMarker       = regexp.MustCompile(`uk\.co\.real_logic\.sbe|@SbeField|MessageHeaderEncoder`)
	thriftFieldDecl = regexp.MustCompile(`new\s+org\.apache\.thrift\.protocol\.TField\(\s*"([^"]+)"\s*,[^)]*,\s*\(short\)\s*(-?\d+)\s*\)`)
)

// stripComments removes // and /* */ comments before any structural
// scanning, so a commented-out field declaration is never mistaken for a
// live one.
func stripComments(src string) string {
	src = blockComment.ReplaceAllString(src, "")
	src = lineComment.ReplaceAllString(src, "")
	return src
}

// ExtractSource parses Java source text into one ClassDef per class body
// found (the outer class plus any inner classes), per spec §4.I: locate
// the first class body, scan top-level field declarations, then find
// nested class blocks by brace-balance counting.
func ExtractSource(src string, outerName string) []ClassDef {
	clean := stripComments(src)

	bodies := splitClassBodies(clean, outerName)
	defs := make([]ClassDef, 0, len(bodies))
	for _, b := range bodies {
		defs = append(defs, ClassDef{Name: b.name, Fields: extractFields(b.body)})
	}
	return defs
}

type classBody struct {
	name string
	body string
}

// splitClassBodies finds the outer class's body (from its first opening
// brace to the matching closing brace) and every nested `class Name { }`
// block inside it, using brace-balance counting rather than a recursive
// grammar.
func splitClassBodies(src string, outerName string) []classBody {
	start := strings.Index(src, "{")
	if start < 0 {
		return nil
	}
	outerBody, _ := matchBraces(src, start)

	var out []classBody
	out = append(out, classBody{name: outerName, body: outerBody})

	for _, m := range classHeaderPattern.FindAllStringSubmatchIndex(outerBody, -1) {
		name := outerBody[m[2]:m[3]]
		braceStart := m[1] - 1 // the matched '{' is the last rune of the match
		inner, _ := matchBraces(outerBody, braceStart)
		out = append(out, classBody{name: name, body: inner})
	}

	return out
}

// matchBraces returns the text strictly between the '{' at openIdx and
// its matching '}', plus the index just past that '}'.
func matchBraces(src string, openIdx int) (string, int) {
	depth := 0
	for i := openIdx; i < len(src); i++ {
		switch src[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return src[openIdx+1 : i], i + 1
			}
		}
	}
	return src[openIdx+1:], len(src)
}

// extractFields scans top-level statements in a class body for field
// declarations matching spec §4.I's pattern.
func extractFields(body string) []SourceField {
	// Keep only depth-0 text, so declarations inside nested class bodies,
	// methods and initializer blocks are not taken as fields of this class.
	var top strings.Builder
	depth := 0
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '{':
			depth++
		case '}':
			depth--
		default:
			if depth == 0 {
				top.WriteByte(body[i])
			}
		}
	}

	var out []SourceField
	for _, m := range fieldPattern.FindAllStringSubmatch(top.String(), -1) {
		modifiers, typ, name := m[1], m[2], m[3]
		out = append(out, SourceField{
			Name:      name,
			JavaType:  typ,
			Static:    strings.Contains(modifiers, "static"),
			Transient: strings.Contains(modifiers, "transient"),
		})
	}
	return out
}

// SourceFieldType maps a Java source type token to the closed logical
// type set (spec §4.I). Every array type (any `[]` suffix) maps to
// "bytes"; generics and other unrecognized types fall back to "object".
func SourceFieldType(javaType string) schema.LogicalType {
	t := strings.TrimSpace(javaType)
	switch t {
	case "byte", "Byte":
		return schema.TypeInt8
	case "short", "Short":
		return schema.TypeInt16
	case "int", "Integer":
		return schema.TypeInt32
	case "long", "Long":
		return schema.TypeInt64
	case "float", "Float":
		return schema.TypeFloat32
	case "double", "Double":
		return schema.TypeFloat64
	case "boolean", "Boolean":
		return schema.TypeBool
	case "char", "Character":
		return schema.TypeUint16
	case "String", "CharSequence":
		return schema.TypeString
	}
	if strings.HasSuffix(t, "[]") {
		return schema.TypeBytes
	}
	return schema.TypeObject
}

// DetectEncoding inspects raw source text for markers that indicate SBE
// (spec §4.I). Thrift is never auto-detected from source alone — binary
// remains the conservative default; callers may always force an
// encoding.
func DetectEncoding(src string) schema.Encoding {
	if sbeMarker.MatchString(src) {
		return schema.EncodingSBE
	}
	return schema.EncodingBinary
}

// ExtractThriftFieldIDs scans for
// `new org.apache.thrift.protocol.TField("name", ..., (short)N)` and
// returns a name -> field ID table.
func ExtractThriftFieldIDs(src string) map[string]int16 {
	out := make(map[string]int16)
	for _, m := range thriftFieldDecl.FindAllStringSubmatch(src, -1) {
		name := m[1]
		var id int
		for _, c := range m[2] {
			if c == '-' {
				continue
			}
			id = id*10 + int(c-'0')
		}
		if strings.HasPrefix(m[2], "-") {
			id = -id
		}
		out[name] = int16(id)
	}
	return out
}

// ToMessageDef narrows a ClassDef's fields down to an emitted
// schema.MessageDef: static and transient fields are recorded during
// extraction but excluded here by default (spec §4.I), and Thrift
// bookkeeping fields (`_`-or-`__`-prefixed names) are suppressed.
func (c ClassDef) ToMessageDef(thriftIDs map[string]int16) schema.MessageDef {
	fields := make([]schema.FieldDef, 0, len(c.Fields))
	for _, f := range c.Fields {
		if f.Static || f.Transient {
			continue
		}
		if strings.HasPrefix(f.Name, "_") {
			continue
		}
		fd := schema.FieldDef{Name: f.Name, Type: SourceFieldType(f.JavaType)}
		if fd.Type == schema.TypeObject {
			javaType := f.JavaType
			fd.NestedType = &javaType
		}
		if id, ok := thriftIDs[f.Name]; ok {
			v := uint16(id)
			fd.ThriftID = &v
		}
		fields = append(fields, fd)
	}
	return schema.MessageDef{Name: c.Name, Fields: fields}
}
