package main

import (
	"github.com/spf13/cobra"

	"github.com/spherical-ai/spherical/libs/faq-engine/internal/app"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/ingest"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/reference"
)

// newImportCmd creates the import subcommand.
func newImportCmd() *cobra.Command {
	var (
		input  string
		driver string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a CSV dataset into the reference database",
		Long: `Import validates a CSV dataset with Question, Answer and Category columns
and replaces the stored reference table with it in one transaction.
Set dataset.source to sqlite or postgres to answer from the imported table.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if input == "" {
				input = cfg.Dataset.Path
			}

			rows, err := ingest.LoadCSV(input)
			if err != nil {
				return err
			}
			table, err := reference.LoadTable(rows)
			if err != nil {
				return err
			}

			dbCfg := cfg.Database
			if driver != "" {
				dbCfg.Driver = driver
			}

			logger.Info().
				Str("input", input).
				Str("driver", dbCfg.Driver).
				Int("rows", table.Len()).
				Msg("Starting import")

			ui := NewUI(cmd.InOrStdin(), cmd.OutOrStdout(), outputJSON)
			bar := ui.NewRowProgress("Importing", table.Len())
			result, err := app.ImportTable(ctx, dbCfg, table, bar.SetCurrent, logger)
			bar.Close()
			if err != nil {
				return err
			}

			if outputJSON {
				printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"batch_id":    result.BatchID.String(),
					"rows":        result.Rows,
					"categories":  table.DistinctCategories(),
					"imported_at": result.ImportedAt,
				})
				return nil
			}

			ui.Success("Imported %d rows into %s", result.Rows, dbCfg.Driver)
			ui.KeyValue("Batch", result.BatchID)
			ui.KeyValue("Categories", len(table.DistinctCategories()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "CSV dataset path (default: dataset.path)")
	cmd.Flags().StringVar(&driver, "driver", "", "database driver: sqlite or postgres (default: database.driver)")

	return cmd
}
