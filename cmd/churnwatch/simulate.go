package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/smallbiznis/churnwatch/internal/config"
	"github.com/smallbiznis/churnwatch/internal/migration"
	"github.com/smallbiznis/churnwatch/internal/scheduler"
	"github.com/smallbiznis/churnwatch/internal/simulation"
	"github.com/smallbiznis/churnwatch/internal/simulation/generator"
	"github.com/smallbiznis/churnwatch/internal/simulation/population"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

type simulateOptions struct {
	customers int
	reset     bool
	seed      uint64
	interval  time.Duration
}

func newSimulateCmd() *cobra.Command {
	opts := simulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Seed customers and advance the population every interval",
		Long: `Creates the initial population and then, once per interval, drifts every
active customer and churns those whose deadline has passed. A progress report
is printed after each iteration. Stop with Ctrl+C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.customers < 0 {
				return fmt.Errorf("--customers must not be negative")
			}
			app := fx.New(
				baseOptions(cmd),
				simulation.ReportModule,
				simulation.Module,
				scheduler.Module,
				fx.Supply(simulation.Seed(opts.seed)),
				fx.Provide(func(cfg config.Config) scheduler.Config {
					interval := cfg.SimulationInterval
					if opts.interval > 0 {
						interval = opts.interval
					}
					return scheduler.Config{
						RunInterval: interval,
						EnabledJobs: []string{simulation.TickJobName},
					}
				}),
				fx.Invoke(fx.Annotate(
					prepareSimulation(opts),
					fx.ParamTags(``, ``, ``, `name:"report_writer"`),
				)),
			)
			return runUntilSignal(cmd.Context(), app)
		},
	}

	cmd.Flags().IntVar(&opts.customers, "customers", 15, "Number of customers to create at startup")
	cmd.Flags().BoolVar(&opts.reset, "reset", true, "Empty the record store before seeding")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "PRNG seed (0 picks a random seed)")
	cmd.Flags().DurationVar(&opts.interval, "interval", 0, "Tick interval (overrides SIMULATION_INTERVAL)")

	return cmd
}

// prepareSimulation resets the store when asked and seeds it when empty. It runs
// before the scheduler starts ticking.
func prepareSimulation(opts simulateOptions) func(*migration.Migrator, *generator.Generator, *population.Reporter, io.Writer) error {
	return func(m *migration.Migrator, gen *generator.Generator, reporter *population.Reporter, out io.Writer) error {
		ctx := context.Background()

		if opts.reset {
			if err := m.Reset(); err != nil {
				return fmt.Errorf("reset record store: %w", err)
			}
		}

		stats, err := reporter.Stats(ctx)
		if err != nil {
			return err
		}
		if stats.Total > 0 {
			fmt.Fprintf(out, "Resuming with existing population. %s\n", stats)
			return nil
		}

		fmt.Fprintf(out, "Creating %d initial customers...\n", opts.customers)
		if _, err := gen.Seed(ctx, opts.customers); err != nil {
			return err
		}
		fmt.Fprintln(out, "Initial setup complete. Starting simulation...")
		return nil
	}
}
