package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cq4kit/cq4diag/internal/cq4/pipeline"
	"github.com/cq4kit/cq4diag/internal/cq4/wire"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export [cq4-file]",
	Short: "Export every excerpt as one JSON object per line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openQueue(args[0])
		if err != nil {
			return err
		}
		defer r.Close()

		sch, err := loadSchema()
		if err != nil {
			return err
		}

		out := os.Stdout
		if exportOut != "" {
			f, err := os.Create(exportOut)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}

		for ex := range r.All(showMeta, 0) {
			msg, err := pipeline.Dispatch(ex, sch)
			if err != nil {
				fmt.Fprintf(os.Stderr, "excerpt #%d: %v\n", ex.Index, err)
				continue
			}
			fmt.Fprintln(out, mappingToJSON(msg.Fields))
		}
		return nil
	},
}

// mappingToJSON renders m as a JSON object, preserving field order — the
// reason this isn't a plain json.Marshal of a Go map.
func mappingToJSON(m *wire.OrderedMap) string {
	if m == nil {
		return "{}"
	}
	var b strings.Builder
	b.WriteByte('{')
	first := true
	m.Range(func(key string, v wire.Value) bool {
		if !first {
			b.WriteByte(',')
		}
		first = false
		b.Write(mustMarshal(key))
		b.WriteByte(':')
		b.WriteString(valueToJSON(v))
		return true
	})
	b.WriteByte('}')
	return b.String()
}

func valueToJSON(v wire.Value) string {
	switch v.Kind() {
	case wire.KindNull:
		return "null"
	case wire.KindBool:
		b, _ := v.BoolValue()
		if b {
			return "true"
		}
		return "false"
	case wire.KindInt8, wire.KindInt16, wire.KindInt32, wire.KindInt64,
		wire.KindUint8, wire.KindUint16, wire.KindTimestamp:
		n, _ := v.Int64Value()
		return fmt.Sprintf("%d", n)
	case wire.KindFloat32, wire.KindFloat64:
		f, _ := v.Float64Value()
		return fmt.Sprintf("%v", f)
	case wire.KindString:
		s, _ := v.StringValue()
		return string(mustMarshal(s))
	case wire.KindBytes:
		b, _ := v.BytesValue()
		return string(mustMarshal(fmt.Sprintf("%x", b)))
	case wire.KindUUID:
		id, _ := v.UUIDValue()
		return string(mustMarshal(id.String()))
	case wire.KindSequence:
		seq, _ := v.SequenceValue()
		parts := make([]string, len(seq))
		for i, item := range seq {
			parts[i] = valueToJSON(item)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case wire.KindMapping:
		nested, _ := v.MappingValue()
		return mappingToJSON(nested)
	default:
		return string(mustMarshal(v.String()))
	}
}

func mustMarshal(s string) []byte {
	b, _ := json.Marshal(s)
	return b
}

func init() {
	registerCommonFlags(exportCmd)
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
}
