package wire

// Tag is one byte of the self-describing wire format (spec §4.B). The
// numeric space 0x00-0xFF partitions into fixed single-value tags, a
// handful of stop-bit-length-prefixed "long form" tags, and two compact
// ranges whose low bits encode a length directly.
type Tag byte

const (
	TagPadding     Tag = 0x00
	TagNull        Tag = 0x80
	TagBytesLen32  Tag = 0x81 // 4-byte little-endian length prefix
	TagNestedBlock Tag = 0x82 // stop-bit length prefix
	TagI64Array    Tag = 0x83
	TagU8Array     Tag = 0x84
	TagI8Array     Tag = 0x85
	TagPadding32   Tag = 0x8E // 4-byte length prefix, then skip
	TagPaddingEnd  Tag = 0x8F

	TagFloat32 Tag = 0x90
	TagFloat64 Tag = 0x91

	TagInt8   Tag = 0xA1
	TagInt16  Tag = 0xA2
	TagInt32  Tag = 0xA4
	TagInt64  Tag = 0xA8
	TagUint8  Tag = 0xA5
	TagUint16 Tag = 0xA6

	TagTimestamp Tag = 0xB0
	TagDateTime  Tag = 0xB1
	TagUUID      Tag = 0xB5

	TagTypePrefix Tag = 0xB6

	TagFieldNameAny     Tag = 0xB7
	TagStringAny        Tag = 0xB8
	TagFieldNumber      Tag = 0xB9
	TagFieldNameLiteral Tag = 0xBA
	TagEventName        Tag = 0xBB
	TagComment          Tag = 0xBF

	// CompactFieldNameBase..+0x1F (0xC0-0xDF): compact field name, length
	// encoded in the low 5 bits.
	CompactFieldNameBase Tag = 0xC0
	CompactFieldNameMax  Tag = 0xDF

	// CompactStringBase..+0x1F (0xE0-0xFF): compact string, length encoded
	// in the low 5 bits.
	CompactStringBase Tag = 0xE0
	CompactStringMax  Tag = 0xFF
)

// IsCompactFieldName reports whether code falls in the 0xC0-0xDF compact
// field-name range.
func IsCompactFieldName(code byte) bool {
	return code >= byte(CompactFieldNameBase) && code <= byte(CompactFieldNameMax)
}

// CompactFieldNameLength returns the inline length encoded by a compact
// field-name tag (0..31 bytes).
func CompactFieldNameLength(code byte) int {
	return int(code - byte(CompactFieldNameBase))
}

// IsCompactString reports whether code falls in the 0xE0-0xFF compact
// string range.
func IsCompactString(code byte) bool {
	return code >= byte(CompactStringBase) && code <= byte(CompactStringMax)
}

// CompactStringLength returns the inline length encoded by a compact
// string tag (0..31 bytes).
func CompactStringLength(code byte) int {
	return int(code - byte(CompactStringBase))
}

// IsFieldNameTag reports whether code is one of the long-form field-name
// categories (field name, field number, literal field name, event name).
// Used by read_field_name to decide whether a tag names a field at all.
func IsFieldNameTag(code byte) bool {
	switch Tag(code) {
	case TagFieldNameAny, TagFieldNumber, TagFieldNameLiteral, TagEventName:
		return true
	}
	return false
}
