package simulation

import (
	"github.com/smallbiznis/churnwatch/internal/scheduler"
	"github.com/smallbiznis/churnwatch/internal/simulation/generator"
	"github.com/smallbiznis/churnwatch/internal/simulation/lifecycle"
	"github.com/smallbiznis/churnwatch/internal/simulation/population"
	"github.com/smallbiznis/churnwatch/internal/simulation/random"
	"go.uber.org/fx"
)

// Seed fixes the PRNG seed; zero means a fresh seed per process.
type Seed uint64

func NewRandom(seed Seed) *random.Source {
	return random.New(uint64(seed))
}

// ReportModule provides the population reporter only.
var ReportModule = fx.Module("simulation.report",
	fx.Provide(population.New),
)

var Module = fx.Module("simulation",
	fx.Provide(
		NewRandom,
		generator.New,
		lifecycle.New,
		NewTicker,
		scheduler.AsJob(NewTickJob),
	),
)
