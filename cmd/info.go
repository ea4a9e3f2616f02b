package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cq4kit/cq4diag/internal/cq4display"
)

var infoCmd = &cobra.Command{
	Use:   "info [cq4-file]",
	Short: "Show the queue header and excerpt count for a .cq4 file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openQueue(args[0])
		if err != nil {
			return err
		}
		defer r.Close()

		fmt.Println(cq4display.Header(r.Header()))
		fmt.Printf("messages: %d\n", r.CountMessages(showMeta))

		if showTailer {
			printTailerMeta(args[0])
		}
		return nil
	},
}

func init() {
	registerCommonFlags(infoCmd)
	rootCmd.AddCommand(infoCmd)
}
