// Package pipeline implements the MessagePipeline (spec §4.J): turning a
// raw framed excerpt into a displayable Message, deciding when the wire
// parser's salvage fallback should be handed off to a schema-driven
// secondary decoder, and loading sibling .cq4t tailer-metadata files.
package pipeline

import (
	"strings"

	"github.com/cq4kit/cq4diag/internal/cq4/decode"
	"github.com/cq4kit/cq4diag/internal/cq4/frame"
	"github.com/cq4kit/cq4diag/internal/cq4/schema"
	"github.com/cq4kit/cq4diag/internal/cq4/wire"
)

// Message is one excerpt after dispatch: its position in the file, a
// promoted type hint if one was found, and its final field mapping.
type Message struct {
	Index      uint64
	Offset     uint64
	TypeHint   *string
	Fields     *wire.OrderedMap
	IsMetadata bool
}

// Dispatch wire-parses one excerpt and, when the wire parser had nothing
// to show but raw bytes, hands the payload to the schema's secondary
// decoder (spec §4.J). sch may be nil, in which case every excerpt is
// left exactly as the wire parser produced it.
func Dispatch(ex frame.Excerpt, sch *schema.Schema) (Message, error) {
	parsed, err := wire.NewParser(ex.Payload).ReadMessage()
	if err != nil {
		return Message{}, err
	}
	msg := Message{Index: ex.Index, Offset: ex.Offset, IsMetadata: ex.IsMetadata}
	if parsed == nil {
		msg.Fields = wire.NewOrderedMap()
		return msg, nil
	}
	msg.TypeHint = parsed.TypeHint
	msg.Fields = parsed.Fields

	if sch == nil || !wasSalvaged(parsed.Fields) {
		return msg, nil
	}

	def, ok := resolveMessageDef(sch, parsed.TypeHint)
	if !ok {
		return msg, nil
	}

	decoded := decodeWithEncoding(sch.Encoding, ex.Payload, def)
	decoded = preserveRawHex(decoded, parsed.Fields)
	msg.Fields = decoded
	if msg.TypeHint == nil && sch.DefaultMessage != "" {
		name := def.Name
		msg.TypeHint = &name
	}
	return msg, nil
}

// wasSalvaged reports whether the wire parser produced only its raw
// fallback fields rather than any user-visible ones (spec §4.J: the
// handoff condition is "parsed message salvaged to _raw_hex and no
// user-visible fields").
func wasSalvaged(fields *wire.OrderedMap) bool {
	if !fields.Has("_raw_hex") {
		return false
	}
	for _, k := range fields.Keys() {
		switch k {
		case "_raw_hex", "_raw_length", "_strings", "_json":
			continue
		default:
			return false
		}
	}
	return true
}

// resolveMessageDef picks a message definition from hint, stripping a
// leading "!" (a YAML-style type tag marker seen in some Chronicle
// deployments) and any package prefix, before falling back to the
// schema's default message.
func resolveMessageDef(sch *schema.Schema, hint *string) (schema.MessageDef, bool) {
	name := ""
	if hint != nil {
		name = strings.TrimPrefix(*hint, "!")
		if i := strings.LastIndex(name, "."); i >= 0 {
			name = name[i+1:]
		}
	}
	return sch.GetMessage(name)
}

func decodeWithEncoding(enc schema.Encoding, payload []byte, def schema.MessageDef) *wire.OrderedMap {
	switch enc {
	case schema.EncodingThrift:
		return decode.DecodeThrift(payload, def)
	case schema.EncodingSBE:
		return decode.DecodeSBE(payload, def, true)
	default:
		return decode.DecodeBinary(payload, def)
	}
}

// preserveRawHex carries the salvaged hex dump forward as _original_hex
// so a decoded message still keeps a path back to its raw bytes (spec
// §4.J).
func preserveRawHex(decoded *wire.OrderedMap, salvaged *wire.OrderedMap) *wire.OrderedMap {
	if raw, ok := salvaged.Get("_raw_hex"); ok {
		decoded.Set("_original_hex", raw)
	}
	return decoded
}
