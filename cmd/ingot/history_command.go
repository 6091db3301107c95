package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"ingot/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limitFlag int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded ingest runs, or one run's per-asset outcomes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Journal.Enabled {
				return fmt.Errorf("journal is disabled in the configuration")
			}
			store, err := journal.Open(cfg.Paths.JournalPath)
			if err != nil {
				return err
			}
			defer store.Close()

			if len(args) == 1 {
				runID, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil || runID < 1 {
					return fmt.Errorf("invalid run id %q", args[0])
				}
				return showRunOutcomes(cmd, store, runID, jsonOutput)
			}
			return showRecentRuns(cmd, store, limitFlag, jsonOutput)
		},
	}

	cmd.Flags().IntVarP(&limitFlag, "limit", "n", 20, "Maximum number of runs to list")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	return cmd
}

func showRecentRuns(cmd *cobra.Command, store *journal.Store, limit int, jsonOutput bool) error {
	runs, err := store.RecentRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(cmd, map[string]any{"runs": runs})
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			strconv.FormatInt(run.ID, 10),
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Source,
			run.Destination,
			strconv.Itoa(run.Wanted),
			strconv.Itoa(run.Succeeded),
			strconv.Itoa(run.Failed),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Run", "Started", "Source", "Destination", "Wanted", "OK", "Failed"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight}))
	return nil
}

func showRunOutcomes(cmd *cobra.Command, store *journal.Store, runID int64, jsonOutput bool) error {
	outcomes, err := store.RunOutcomes(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if len(outcomes) == 0 {
		return fmt.Errorf("run %d not found", runID)
	}
	if jsonOutput {
		return writeJSON(cmd, map[string]any{"run": runID, "outcomes": outcomes})
	}

	rows := make([][]string, 0, len(outcomes))
	for _, outcome := range outcomes {
		detail := outcome.Message
		if detail == "" {
			detail = outcome.Destination
		}
		rows = append(rows, []string{
			outcome.AssetID,
			string(outcome.Status),
			formatBytes(outcome.BytesWritten),
			detail,
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Asset", "Outcome", "Bytes", "Detail"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft}))
	return nil
}
