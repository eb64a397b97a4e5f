package main

import (
	"context"
	"fmt"
	"time"

	"github.com/smallbiznis/churnwatch/internal/config"
	"github.com/smallbiznis/churnwatch/internal/scheduler"
	"github.com/smallbiznis/churnwatch/internal/scoring"
	"github.com/smallbiznis/churnwatch/internal/scoring/export"
	"github.com/smallbiznis/churnwatch/internal/scoring/monitor"
	"github.com/smallbiznis/churnwatch/internal/scoring/sink"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

type scoreOptions struct {
	watch     bool
	interval  time.Duration
	exportDir string
	noExport  bool
}

func newScoreCmd() *cobra.Command {
	opts := scoreOptions{}

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score active customers for churn risk",
		Long: `Scores every active customer once, prints a summary with the high-risk list
and writes the results to a timestamped CSV file.

With --watch, scores on every interval and prints a compact summary instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.watch {
				return watchScores(cmd, opts)
			}
			return scoreOnce(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Score repeatedly until interrupted")
	cmd.Flags().DurationVar(&opts.interval, "interval", 0, "Watch interval (overrides SCORING_INTERVAL)")
	cmd.Flags().StringVar(&opts.exportDir, "export-dir", "", "Directory for the CSV export (overrides EXPORT_DIR)")
	cmd.Flags().BoolVar(&opts.noExport, "no-export", false, "Skip the CSV export")

	return cmd
}

func scoreOnce(cmd *cobra.Command, opts scoreOptions) error {
	var (
		mon *monitor.Monitor
		cfg config.Config
	)
	app := fx.New(
		baseOptions(cmd),
		scoring.Module,
		sink.Module,
		fx.Populate(&mon, &cfg),
	)

	return runOnce(cmd.Context(), app, func(ctx context.Context) error {
		out := cmd.OutOrStdout()

		result, err := mon.Pass(ctx)
		if err != nil {
			return err
		}
		if err := monitor.WriteSummary(out, result, true); err != nil {
			return err
		}
		if opts.noExport || result.Total == 0 {
			return nil
		}

		dir := cfg.ExportDir
		if opts.exportDir != "" {
			dir = opts.exportDir
		}
		path, err := export.ToFile(dir, result)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nSaved to: %s\n", path)
		return nil
	})
}

func watchScores(cmd *cobra.Command, opts scoreOptions) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Real-time churn monitoring started. Press Ctrl+C to stop.")

	app := fx.New(
		baseOptions(cmd),
		scoring.Module,
		sink.Module,
		monitor.WatchModule,
		scheduler.Module,
		fx.Provide(func(cfg config.Config) scheduler.Config {
			interval := cfg.ScoringInterval
			if opts.interval > 0 {
				interval = opts.interval
			}
			return scheduler.Config{
				RunInterval: interval,
				EnabledJobs: []string{monitor.PassJobName},
			}
		}),
	)
	if err := runUntilSignal(cmd.Context(), app); err != nil {
		return err
	}

	fmt.Fprintln(out, "\nMonitoring stopped")
	return nil
}
