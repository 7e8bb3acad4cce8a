package main

import (
	"strings"

	"github.com/spf13/cobra"

	"sourcing-backend/internal/requests"
)

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <text>",
		Short: "Parse a free-text request",
		Example: `  feasctl parse "1000 cotton tote bags, logo embroidery, under $2.50"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			parsed := requests.ParseText(strings.Join(args, " "))
			return writeValue(cmd.OutOrStdout(), format, parsed)
		},
	}
}
