package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cq4kit/cq4diag/internal/cq4/pipeline"
	"github.com/cq4kit/cq4diag/internal/cq4display"
)

var (
	listStart int
	listLimit int
)

var listCmd = &cobra.Command{
	Use:   "list [cq4-file]",
	Short: "List excerpts in a .cq4 file",
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

		var printed int
		for msg, err := range pipeline.Stream(r, sch, showMeta, uint64(listStart), tracer()) {
			if printed >= listLimit {
				break
			}
			if err != nil {
				fmt.Println(cq4display.Error(err))
				continue
			}
			var b strings.Builder
			cq4display.Message(&b, msg)
			fmt.Print(b.String())
			printed++
		}
		return nil
	},
}

func init() {
	registerCommonFlags(listCmd)
	listCmd.Flags().IntVar(&listStart, "start", 0, "first excerpt index to show")
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "maximum number of excerpts to show")
	rootCmd.AddCommand(listCmd)
}
