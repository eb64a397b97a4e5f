package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/smallbiznis/churnwatch/internal/clock"
	"github.com/smallbiznis/churnwatch/internal/config"
	"github.com/smallbiznis/churnwatch/internal/customer"
	"github.com/smallbiznis/churnwatch/internal/migration"
	"github.com/smallbiznis/churnwatch/internal/observability"
	"github.com/smallbiznis/churnwatch/internal/scheduler"
	"github.com/smallbiznis/churnwatch/pkg/db"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

// baseOptions wires the pieces every command needs: config, logging, the
// record store with its schema, and the snowflake node. Overrides are applied
// to the loaded config after the --model flag.
func baseOptions(cmd *cobra.Command, overrides ...func(*config.Config)) fx.Option {
	modelPath, _ := cmd.Flags().GetString("model")

	return fx.Options(
		config.Module,
		observability.Module,
		observability.WithZapLogger,
		clock.Module,
		db.Module,
		migration.Module,
		customer.Module,
		scheduler.IDModule,
		fx.Provide(
			fx.Annotate(
				func() io.Writer { return cmd.OutOrStdout() },
				fx.ResultTags(`name:"report_writer"`),
			),
		),
		fx.Decorate(func(cfg config.Config) config.Config {
			if path := strings.TrimSpace(modelPath); path != "" {
				cfg.ModelPath = path
			}
			for _, override := range overrides {
				override(&cfg)
			}
			return cfg
		}),
	)
}

// runUntilSignal starts app and stops it on SIGINT/SIGTERM or an fx shutdown.
func runUntilSignal(ctx context.Context, app *fx.App) error {
	startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}

	sig := <-app.Wait()

	stopCtx, cancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		return err
	}
	if sig.ExitCode != 0 {
		return fmt.Errorf("stopped with exit code %d", sig.ExitCode)
	}
	return nil
}

// runOnce starts app, calls fn, then stops app.
func runOnce(ctx context.Context, app *fx.App, fn func(context.Context) error) (err error) {
	startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), app.StopTimeout())
		defer cancel()
		if stopErr := app.Stop(stopCtx); err == nil {
			err = stopErr
		}
	}()

	return fn(ctx)
}
