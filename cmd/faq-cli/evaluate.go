package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spherical-ai/spherical/libs/faq-engine/internal/app"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/evaluation"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/ingest"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/matching"
)

// newEvaluateCmd creates the evaluate subcommand.
func newEvaluateCmd() *cobra.Command {
	var (
		queriesPath string
		threshold   int
		showMisses  bool
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Measure match accuracy against labelled queries",
		Long: `Evaluate runs every query of a CSV file (Query, Expected and optional
Category columns) through the match decision only; the generative fallback
is never called. An empty Expected means the query should fall back.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if queriesPath == "" {
				return fmt.Errorf("--queries is required")
			}

			table, err := app.LoadTable(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			queries, err := ingest.LoadQueries(queriesPath)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("threshold") {
				threshold = cfg.Matching.Threshold
			}
			engine := matching.NewEngine(matching.EngineConfig{Threshold: threshold})

			ui := NewUI(cmd.InOrStdin(), cmd.OutOrStdout(), outputJSON)
			bar := ui.NewQueryProgress(len(queries), "Evaluating")
			report := evaluation.Run(engine, table, queries, func(done int) {
				if bar != nil {
					_ = bar.Set(done)
				}
			})
			if bar != nil {
				_ = bar.Finish()
			}

			if outputJSON {
				printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"threshold":     engine.Threshold(),
					"total":         report.Total,
					"matched":       report.Matched,
					"fallback":      report.Fallback,
					"no_candidates": report.NoCandidates,
					"invalid":       report.Invalid,
					"correct":       report.Correct,
					"accuracy":      report.Accuracy(),
				})
				return nil
			}

			ui.Section("Evaluation")
			ui.KeyValue("Threshold", engine.Threshold())
			ui.KeyValue("Queries", report.Total)
			ui.KeyValue("Matched", report.Matched)
			ui.KeyValue("Fallback", report.Fallback)
			ui.KeyValue("No candidates", report.NoCandidates)
			ui.KeyValue("Invalid", report.Invalid)
			ui.KeyValue("Accuracy", fmt.Sprintf("%.1f%%", report.Accuracy()*100))

			if showMisses {
				ui.Section("Misses")
				for _, c := range report.Cases {
					if c.Correct {
						continue
					}
					if c.Err != nil {
						ui.Error("%q: %v", c.Query.Query, c.Err)
						continue
					}
					ui.Warning("%q -> %s %q (score %d), expected %q",
						c.Query.Query, c.Decision.Outcome, c.Decision.Question, c.Decision.Score, c.Query.Expected)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&queriesPath, "queries", "q", "", "CSV file of labelled queries")
	cmd.Flags().IntVar(&threshold, "threshold", matching.DefaultThreshold, "override the configured match threshold")
	cmd.Flags().BoolVar(&showMisses, "misses", false, "list the queries whose outcome disagreed with the label")

	return cmd
}
