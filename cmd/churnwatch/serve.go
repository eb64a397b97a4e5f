package main

import (
	"strings"

	"github.com/smallbiznis/churnwatch/internal/config"
	"github.com/smallbiznis/churnwatch/internal/scoring"
	"github.com/smallbiznis/churnwatch/internal/scoring/sink"
	"github.com/smallbiznis/churnwatch/internal/server"
	"github.com/smallbiznis/churnwatch/internal/simulation"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve population stats and risk assessments over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fx.New(
				baseOptions(cmd, func(cfg *config.Config) {
					if a := strings.TrimSpace(addr); a != "" {
						cfg.HTTPAddr = a
					}
				}),
				simulation.ReportModule,
				scoring.Module,
				sink.Module,
				server.Module,
			)
			return runUntilSignal(cmd.Context(), app)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides HTTP_ADDR)")

	return cmd
}
