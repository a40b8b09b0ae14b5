package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spherical-ai/spherical/libs/faq-engine/internal/app"
)

// newCategoriesCmd creates the categories subcommand.
func newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the categories of the reference table",
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := app.LoadTable(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			if outputJSON {
				printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"categories": table.Categories(),
					"records":    table.Len(),
				})
				return nil
			}

			ui := NewUI(cmd.InOrStdin(), cmd.OutOrStdout(), false)
			ui.Section("Categories")
			for i, c := range table.Categories() {
				fmt.Fprintf(cmd.OutOrStdout(), "  %d. %s\n", i+1, c)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			ui.KeyValue("Records", table.Len())
			return nil
		},
	}
}
