package scoring

import (
	"github.com/smallbiznis/churnwatch/internal/scoring/features"
	"github.com/smallbiznis/churnwatch/internal/scoring/model"
	"github.com/smallbiznis/churnwatch/internal/scoring/monitor"
	"github.com/smallbiznis/churnwatch/internal/scoring/risk"
	"go.uber.org/fx"
)

var Module = fx.Module("scoring",
	model.Module,
	fx.Provide(
		features.NewEngineer,
		risk.NewScorer,
	),
	monitor.Module,
)
