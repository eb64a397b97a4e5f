package monitor

import (
	"github.com/smallbiznis/churnwatch/internal/scheduler"
	"go.uber.org/fx"
)

var Module = fx.Module("scoring.monitor",
	fx.Provide(New),
)

// WatchModule registers the scoring pass as a scheduler job.
var WatchModule = fx.Module("scoring.watch",
	fx.Provide(
		fx.Annotate(NewWatcher, fx.ParamTags(``, `name:"report_writer" optional:"true"`)),
		scheduler.AsJob(NewPassJob),
	),
)
