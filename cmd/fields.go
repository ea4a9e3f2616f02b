package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/cq4kit/cq4diag/internal/cq4/pipeline"
	"github.com/cq4kit/cq4diag/internal/cq4/wire"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields [cq4-file]",
	Short: "List every distinct field name, nested ones included, seen across excerpts",
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

		seen := make(map[string]int)
		for ex := range r.All(showMeta, 0) {
			msg, err := pipeline.Dispatch(ex, sch)
			if err != nil {
				continue
			}
			collectFieldNames(msg.Fields, seen)
		}

		names := make([]string, 0, len(seen))
		for name := range seen {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("%-30s %d\n", name, seen[name])
		}
		return nil
	},
}

func collectFieldNames(m *wire.OrderedMap, seen map[string]int) {
	if m == nil {
		return
	}
	m.Range(func(key string, v wire.Value) bool {
		seen[key]++
		if nested, ok := v.MappingValue(); ok {
			collectFieldNames(nested, seen)
		}
		return true
	})
}

func init() {
	registerCommonFlags(fieldsCmd)
	rootCmd.AddCommand(fieldsCmd)
}
