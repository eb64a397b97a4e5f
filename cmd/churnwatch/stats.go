package main

import (
	"context"
	"fmt"

	"github.com/smallbiznis/churnwatch/internal/simulation"
	"github.com/smallbiznis/churnwatch/internal/simulation/population"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print population counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			var reporter *population.Reporter
			app := fx.New(
				baseOptions(cmd),
				simulation.ReportModule,
				fx.Populate(&reporter),
			)

			return runOnce(cmd.Context(), app, func(ctx context.Context) error {
				stats, err := reporter.Stats(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), stats)
				return nil
			})
		},
	}
}
