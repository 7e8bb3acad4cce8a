package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sourcing-backend/internal/customization"
)

func newLevelsCmd() *cobra.Command {
	var table bool
	cmd := &cobra.Command{
		Use:   "levels [level]",
		Short: "Show customization levels",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || !customization.Level(n).Valid() {
					return fmt.Errorf("level must be between 1 and 5, got %q", args[0])
				}
				format, err := outputFormat(cmd)
				if err != nil {
					return err
				}
				return writeValue(cmd.OutOrStdout(), format, customization.LevelInfoFor(customization.Level(n)))
			}

			if table {
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "LEVEL\tNAME\tSETUP FEE\tMOQ IMPACT")
				for _, info := range customization.Levels() {
					fmt.Fprintf(tw, "L%d\t%s\t%s\t%s\n", info.Level, info.Name, info.SetupFee, info.MOQImpact)
				}
				return tw.Flush()
			}

			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			return writeValue(cmd.OutOrStdout(), format, customization.Levels())
		},
	}
	cmd.Flags().BoolVar(&table, "table", false, "print a compact table")
	return cmd
}
