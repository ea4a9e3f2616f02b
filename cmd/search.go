package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cq4kit/cq4diag/internal/cq4/pipeline"
	"github.com/cq4kit/cq4diag/internal/cq4/wire"
	"github.com/cq4kit/cq4diag/internal/cq4display"
)

var searchCmd = &cobra.Command{
	Use:   "search [cq4-file] [substring]",
	Short: "Find excerpts whose field names or scalar values contain a substring",
	Args:  cobra.ExactArgs(2),
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
		needle := strings.ToLower(args[1])

		for ex := range r.All(showMeta, 0) {
			msg, err := pipeline.Dispatch(ex, sch)
			if err != nil {
				fmt.Println(cq4display.Error(err))
				continue
			}
			if matches(msg.Fields, needle) {
				var b strings.Builder
				cq4display.Message(&b, msg)
				fmt.Print(b.String())
			}
		}
		return nil
	},
}

// matches reports whether any field name or scalar value in m contains
// needle, recursing into nested mappings and sequences.
func matches(m *wire.OrderedMap, needle string) bool {
	if m == nil {
		return false
	}
	found := false
	m.Range(func(key string, v wire.Value) bool {
		if strings.Contains(strings.ToLower(key), needle) {
			found = true
			return false
		}
		switch v.Kind() {
		case wire.KindMapping:
			nested, _ := v.MappingValue()
			if matches(nested, needle) {
				found = true
				return false
			}
		case wire.KindSequence:
			seq, _ := v.SequenceValue()
			for _, item := range seq {
				if strings.Contains(strings.ToLower(item.String()), needle) {
					found = true
					return false
				}
			}
		default:
			if strings.Contains(strings.ToLower(v.String()), needle) {
				found = true
				return false
			}
		}
		return true
	})
	return found
}

func init() {
	registerCommonFlags(searchCmd)
	rootCmd.AddCommand(searchCmd)
}
