package pipeline

import (
	"fmt"
	"io"
	"iter"
	"os"
	"strings"

	"github.com/cq4kit/cq4diag/internal/cq4/frame"
	"github.com/cq4kit/cq4diag/internal/cq4/schema"
	"github.com/cq4kit/cq4diag/internal/cq4/wire"
)

// Tracer wraps an io.Writer for optional diagnostic output, nil-safe and
// defaulting to io.Discard when unset.
type Tracer struct {
	w io.Writer
}

// NewTracer wraps w. A nil w traces to io.Discard.
func NewTracer(w io.Writer) *Tracer {
	if w == nil {
		w = io.Discard
	}
	return &Tracer{w: w}
}

func (t *Tracer) tracef(format string, args ...interface{}) {
	if t == nil {
		return
	}
	fmt.Fprintf(t.w, format, args...)
}

// TailerMeta is the parsed content of the first record of a .cq4t sibling
// file: its type hint, the wireType string found inside its header
// mapping, and the record's whole field mapping (spec §4.J).
type TailerMeta struct {
	TypeHint *string
	WireType string
	Metadata *wire.OrderedMap
}

// LoadTailerMeta locates and parses the .cq4t file adjacent to a .cq4
// queue file (same base name, .cq4t extension). Absence of the sibling
// file is not an error: callers get a nil TailerMeta.
func LoadTailerMeta(cq4Path string) (*TailerMeta, error) {
	tailerPath := strings.TrimSuffix(cq4Path, ".cq4") + ".cq4t"
	if _, err := os.Stat(tailerPath); os.IsNotExist(err) {
		return nil, nil
	}

	r := frame.NewReader(tailerPath)
	if err := r.Open(); err != nil {
		return nil, err
	}
	defer r.Close()

	var meta TailerMeta
	for ex := range r.All(true, 0) {
		parsed, err := wire.NewParser(ex.Payload).ReadMessage()
		if err != nil || parsed == nil {
			continue
		}
		meta.TypeHint = parsed.TypeHint
		if v, ok := parsed.Fields.Get("header"); ok {
			if hm, ok := v.MappingValue(); ok {
				if wt, ok := hm.Get("wireType"); ok {
					if s, ok := wt.StringValue(); ok {
						meta.WireType = s
					}
				}
			}
		}
		meta.Metadata = parsed.Fields
		break
	}
	return &meta, nil
}

// Stream dispatches every excerpt in r through Dispatch, in scan order. A
// per-record decode error never ends the scan (spec §7: abort and salvage
// that record, continue with the next frame) — only the frame reader
// itself ending iteration, or the caller's yield returning false, stops it.
// A non-nil tracer receives one line per excerpt; pass nil for silence.
func Stream(r *frame.Reader, sch *schema.Schema, includeMetadata bool, startIndex uint64, tracer *Tracer) iter.Seq2[Message, error] {
	return func(yield func(Message, error) bool) {
		for ex := range r.All(includeMetadata, startIndex) {
			tracer.tracef("excerpt #%d @0x%x (%d bytes)\n", ex.Index, ex.Offset, len(ex.Payload))
			msg, err := Dispatch(ex, sch)
			if err != nil {
				tracer.tracef("  dispatch error: %v\n", err)
			}
			if !yield(msg, err) {
				return
			}
		}
	}
}
