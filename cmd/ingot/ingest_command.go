package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"ingot/internal/delivery"
	"ingot/internal/ingest"
	"ingot/internal/ingesterr"
	"ingot/internal/journal"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var destFlag string
	var workersFlag int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "ingest <delivery-root> [asset-id...]",
		Short: "Reconstruct and verify assets into the destination directory",
		Long: `Reconstruct assets from a delivery, verifying each against its Packing List
digest. With no asset ids, every packed asset is ingested. Assets that fail
verification are reported individually; the rest of the run continues.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, ctx, args, ingestOptions{
				dest:    destFlag,
				workers: workersFlag,
				json:    jsonOutput,
			})
		},
	}

	cmd.Flags().StringVarP(&destFlag, "dest", "d", "", "Destination directory (defaults to paths.destination_dir)")
	cmd.Flags().IntVarP(&workersFlag, "workers", "w", 0, "Concurrent assets (defaults to ingest.workers)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the outcome report as JSON")
	return cmd
}

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	var workersFlag int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "verify <delivery-root> [asset-id...]",
		Short: "Verify assets against their Packing List digests without writing them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, ctx, args, ingestOptions{
				workers:    workersFlag,
				json:       jsonOutput,
				verifyOnly: true,
			})
		},
	}

	cmd.Flags().IntVarP(&workersFlag, "workers", "w", 0, "Concurrent assets (defaults to ingest.workers)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the outcome report as JSON")
	return cmd
}

type ingestOptions struct {
	dest       string
	workers    int
	json       bool
	verifyOnly bool
}

func runIngest(cmd *cobra.Command, cmdCtx *commandContext, args []string, opts ingestOptions) error {
	runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := cmdCtx.ensureLogger()
	if err != nil {
		return err
	}

	root := args[0]
	wanted, err := normalizeAssetIDs(args[1:])
	if err != nil {
		return err
	}

	d, err := delivery.Open(root, logger)
	if err != nil {
		if ingesterr.Construction(err) {
			return fmt.Errorf("delivery rejected, nothing ingested: %w", err)
		}
		return err
	}
	if len(wanted) == 0 {
		wanted = d.PackIndex.IDs()
	}

	destination := ingest.Destination(ingest.DiscardDestination{})
	destDir := ""
	if !opts.verifyOnly {
		destDir = strings.TrimSpace(opts.dest)
		if destDir == "" {
			destDir = cfg.Paths.DestinationDir
		}

		// One writer per destination. A second ingest into the same
		// directory waits for nobody; it fails fast.
		if err := os.MkdirAll(destDir, 0o755); err != nil {
			return fmt.Errorf("create destination dir: %w", err)
		}
		lock := flock.New(filepath.Join(destDir, ".ingot.lock"))
		locked, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire ingest lock: %w", err)
		}
		if !locked {
			return fmt.Errorf("another ingest is already running (lock at %s)", lock.Path())
		}
		defer func() { _ = lock.Unlock() }()

		destination = &ingest.DirDestination{
			Dir:            destDir,
			KeepIncomplete: cfg.Ingest.KeepIncomplete,
		}
	}

	workers := opts.workers
	if workers < 1 {
		workers = cfg.Ingest.Workers
	}

	engine, err := ingest.New(ingest.Config{
		AssetIndex:    d.AssetIndex,
		PackIndex:     d.PackIndex,
		Reader:        d.ChunkReader(),
		Destination:   destination,
		Logger:        logger,
		Workers:       workers,
		ReceiptDigest: cfg.Ingest.ReceiptDigest,
	})
	if err != nil {
		return err
	}

	report, runErr := engine.Run(runCtx, wanted)

	if cfg.Journal.Enabled && len(report.Outcomes) > 0 {
		if err := recordRun(cmd.Context(), cfg.Paths.JournalPath, root, destDir, report); err != nil {
			logger.Warn("journal write failed", "error", err)
		}
	}

	if opts.json {
		if err := writeJSON(cmd, report); err != nil {
			return err
		}
	} else {
		printReport(cmd, report)
	}

	if runErr != nil {
		return runErr
	}
	if failed := report.Failed(); failed > 0 {
		return fmt.Errorf("%d of %d assets failed", failed, len(report.Outcomes))
	}
	return nil
}

// recordRun persists the report outside the cancellable run context so a
// Ctrl-C run still lands in history.
func recordRun(ctx context.Context, journalPath, source, destination string, report ingest.Report) error {
	store, err := journal.Open(journalPath)
	if err != nil {
		return err
	}
	defer store.Close()
	_, err = store.RecordRun(ctx, source, destination, report)
	return err
}

func printReport(cmd *cobra.Command, report ingest.Report) {
	rows := make([][]string, 0, len(report.Outcomes))
	for _, outcome := range report.Outcomes {
		detail := outcome.Message
		if outcome.Status == ingest.StatusSucceeded {
			detail = outcome.Destination
		}
		rows = append(rows, []string{
			outcome.AssetID,
			string(outcome.Status),
			formatBytes(outcome.BytesWritten),
			outcome.Duration.Round(timeRounding).String(),
			detail,
		})
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderTable(
		[]string{"Asset", "Outcome", "Bytes", "Time", "Detail"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft}))
	fmt.Fprintf(out, "\n%d succeeded, %d failed in %s\n",
		report.Succeeded(), report.Failed(),
		report.FinishedAt.Sub(report.StartedAt).Round(timeRounding))
}
