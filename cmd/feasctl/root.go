package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "feasctl",
		Short: "Customization feasibility checks for product requests",
		Long: `feasctl runs the customization engine locally.

Commands:
  classify    Classify a request file and print the feasibility result
  parse       Turn free text into a structured request
  levels      Show the customization level rulebook`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringP("output", "o", formatJSON, "output format (json|yaml)")

	root.AddCommand(newClassifyCmd(), newParseCmd(), newLevelsCmd())
	return root
}
