package cq4display

import (
	"fmt"
	"strings"

	"github.com/cq4kit/cq4diag/internal/cq4/frame"
	"github.com/cq4kit/cq4diag/internal/cq4/pipeline"
	"github.com/cq4kit/cq4diag/internal/cq4/wire"
)

// Message renders one dispatched message as a line-per-field tree, with
// metadata excerpts and type hints called out distinctly.
func Message(w *strings.Builder, msg pipeline.Message) {
	header := fmt.Sprintf("#%d @0x%x", msg.Index, msg.Offset)
	if msg.IsMetadata {
		header += " " + MetadataStyle.Render("[metadata]")
	}
	if msg.TypeHint != nil {
		header += " " + KeyStyle.Render(*msg.TypeHint)
	}
	w.WriteString(TitleStyle.Render(header))
	w.WriteString("\n")
	renderMapping(w, msg.Fields, 1)
}

func renderMapping(w *strings.Builder, m *wire.OrderedMap, depth int) {
	if m == nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	m.Range(func(key string, v wire.Value) bool {
		switch v.Kind() {
		case wire.KindMapping:
			w.WriteString(indent + KeyStyle.Render(key) + ":\n")
			nested, _ := v.MappingValue()
			renderMapping(w, nested, depth+1)
		case wire.KindSequence:
			seq, _ := v.SequenceValue()
			w.WriteString(indent + KeyStyle.Render(key) + fmt.Sprintf(": [%d items]\n", len(seq)))
			for i, item := range seq {
				w.WriteString(fmt.Sprintf("%s  [%d] %s\n", indent, i, renderScalar(item)))
			}
		default:
			w.WriteString(indent + KeyStyle.Render(key) + ": " + renderScalar(v) + "\n")
		}
		return true
	})
}

func renderScalar(v wire.Value) string {
	if v.IsNull() {
		return MutedStyle.Render("null")
	}
	if v.Kind() == wire.KindMapping {
		m, _ := v.MappingValue()
		return fmt.Sprintf("{%d fields}", m.Len())
	}
	return v.String()
}

// Header renders a .cq4 file's recovered queue header as a bordered box.
func Header(h frame.QueueHeader) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d\n", KeyStyle.Render("version"), h.Version)
	fmt.Fprintf(&b, "%s: %d\n", KeyStyle.Render("index"), h.Index)
	fmt.Fprintf(&b, "%s: %d\n", KeyStyle.Render("count"), h.Count)
	fmt.Fprintf(&b, "%s: %s\n", KeyStyle.Render("rollCycle"), h.RollCycle)
	fmt.Fprintf(&b, "%s: %d\n", KeyStyle.Render("indexCount"), h.IndexCount)
	fmt.Fprintf(&b, "%s: %d", KeyStyle.Render("indexSpacing"), h.IndexSpacing)
	return BoxStyle.Render(b.String())
}

// Error renders an error message in the error style, for consistent CLI
// failure output.
func Error(err error) string {
	return ErrorStyle.Render(fmt.Sprintf("error: %v", err))
}
