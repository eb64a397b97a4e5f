package scheduler

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("scheduler",
	fx.Provide(New),
	fx.Invoke(NewScheduler),
)

// IDModule provides the snowflake node used for run identifiers.
var IDModule = fx.Module("scheduler.id",
	fx.Provide(NewIDGenerator),
)

func NewIDGenerator() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

// AsJob registers a job constructor in the scheduler.jobs group.
func AsJob(constructor any) any {
	return fx.Annotate(constructor, fx.ResultTags(`group:"scheduler.jobs"`))
}

// NewScheduler runs the loop for the lifetime of the app. A job that keeps
// failing shuts the app down with a non-zero exit code.
func NewScheduler(lc fx.Lifecycle, shutdowner fx.Shutdowner, sched *Scheduler) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				if err := sched.RunForever(ctx); err != nil {
					sched.log.Error("scheduler stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}
