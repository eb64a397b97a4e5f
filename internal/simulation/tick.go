package simulation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/smallbiznis/churnwatch/internal/clock"
	"github.com/smallbiznis/churnwatch/internal/scheduler"
	"github.com/smallbiznis/churnwatch/internal/simulation/lifecycle"
	"github.com/smallbiznis/churnwatch/internal/simulation/population"
	"go.uber.org/fx"
)

const TickJobName = "simulation_tick"

type TickParams struct {
	fx.In

	Stepper  *lifecycle.Stepper
	Reporter *population.Reporter
	Clock    clock.Clock
	Out      io.Writer `name:"report_writer" optional:"true"`
}

// Ticker runs one lifecycle step and prints the progress report.
type Ticker struct {
	stepper   *lifecycle.Stepper
	reporter  *population.Reporter
	clock     clock.Clock
	out       io.Writer
	iteration atomic.Int64
}

func NewTicker(p TickParams) *Ticker {
	out := p.Out
	if out == nil {
		out = io.Discard
	}
	return &Ticker{stepper: p.Stepper, reporter: p.Reporter, clock: p.Clock, out: out}
}

// NewTickJob exposes the ticker as a scheduler job.
func NewTickJob(t *Ticker) scheduler.Job {
	return scheduler.Job{
		Name:     TickJobName,
		Resource: "customers",
		Run:      t.Tick,
	}
}

// Tick returns the number of customers visited. Per-record failures are reported
// after the population line so a bad record never hides the report.
func (t *Ticker) Tick(ctx context.Context) (int, error) {
	iteration := t.iteration.Add(1)
	fmt.Fprintf(t.out, "\n--- Iteration %d ---\n", iteration)

	result, stepErr := t.stepper.Step(ctx)
	for _, event := range result.Churned {
		fmt.Fprintf(t.out, "Customer %s has churned!\n", event.Name)
	}

	stats, err := t.reporter.Stats(ctx)
	if err != nil {
		return result.Visited, errors.Join(err, scheduler.Partial(stepErr))
	}
	fmt.Fprintln(t.out, stats.String())
	fmt.Fprintf(t.out, "Last update at: %s\n", t.clock.Now().Format(time.RFC3339))

	return result.Visited, scheduler.Partial(stepErr)
}
