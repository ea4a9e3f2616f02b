package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cq4kit/cq4diag/internal/cq4/pipeline"
	"github.com/cq4kit/cq4diag/internal/cq4display"
)

var showIndex int

var showCmd = &cobra.Command{
	Use:   "show [cq4-file]",
	Short: "Show a single excerpt by index",
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

		for ex := range r.All(showMeta, uint64(showIndex)) {
			msg, err := pipeline.Dispatch(ex, sch)
			if err != nil {
				return err
			}
			var b strings.Builder
			cq4display.Message(&b, msg)
			fmt.Print(b.String())
			return nil
		}
		return fmt.Errorf("no excerpt at index %d", showIndex)
	},
}

func init() {
	registerCommonFlags(showCmd)
	showCmd.Flags().IntVar(&showIndex, "index", 0, "excerpt index to show")
	rootCmd.AddCommand(showCmd)
}
