package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Show the schema built from --schema/--schema-dir",
	RunE: func(cmd *cobra.Command, args []string) error {
		sch, err := loadSchema()
		if err != nil {
			return err
		}
		if sch == nil {
			return fmt.Errorf("no schema loaded: pass --schema or --schema-dir")
		}

		fmt.Printf("encoding: %s\n", sch.Encoding)
		if sch.DefaultMessage != "" {
			fmt.Printf("default: %s\n", sch.DefaultMessage)
		}

		names := make([]string, 0, len(sch.Messages))
		for name := range sch.Messages {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			def := sch.Messages[name]
			fmt.Printf("\n%s:\n", name)
			for _, f := range def.Fields {
				opt := ""
				if f.Optional {
					opt = " optional"
				}
				fmt.Printf("  %-20s %s%s\n", f.Name, f.Type, opt)
			}
		}
		return nil
	},
}

func init() {
	registerCommonFlags(schemaCmd)
	rootCmd.AddCommand(schemaCmd)
}
