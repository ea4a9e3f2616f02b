package cmd

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/cq4kit/cq4diag/internal/cq4display"
)

var openCmd = &cobra.Command{
	Use:   "open <folder>",
	Short: "Summarize every .cq4 file in a queue directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		matches, err := filepath.Glob(filepath.Join(args[0], "*.cq4"))
		if err != nil {
			return err
		}
		sort.Strings(matches)
		if len(matches) == 0 {
			fmt.Println("no .cq4 files found")
			return nil
		}

		for _, path := range matches {
			r, err := openQueue(path)
			if err != nil {
				fmt.Printf("%s: %v\n", path, err)
				continue
			}
			fmt.Printf("%s\n", path)
			fmt.Println(cq4display.Header(r.Header()))
			fmt.Printf("messages: %d\n\n", r.CountMessages(showMeta))
			r.Close()
		}
		return nil
	},
}

func init() {
	registerCommonFlags(openCmd)
	rootCmd.AddCommand(openCmd)
}
