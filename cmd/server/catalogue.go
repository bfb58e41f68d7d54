package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newCatalogueCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "catalogue", Short: "Work with course catalogues"}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <file>",
		Short: "Validate a YAML catalogue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalogue(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %q: %d modules, %d sessions\n",
				color.New(color.FgGreen).Sprint("OK"), cat.Title(), len(cat.Modules()), len(cat.Order()))
			return nil
		},
	})
	return cmd
}
