package monitor

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/smallbiznis/churnwatch/internal/scheduler"
)

const PassJobName = "scoring_pass"

// Watcher prints a compact summary for every scheduled pass.
type Watcher struct {
	monitor   *Monitor
	out       io.Writer
	iteration atomic.Int64
}

func NewWatcher(m *Monitor, out io.Writer) *Watcher {
	if out == nil {
		out = io.Discard
	}
	return &Watcher{monitor: m, out: out}
}

// NewPassJob exposes the watcher as a scheduler job.
func NewPassJob(w *Watcher) scheduler.Job {
	return scheduler.Job{
		Name:     PassJobName,
		Resource: "customers",
		Run:      w.Tick,
	}
}

func (w *Watcher) Tick(ctx context.Context) (int, error) {
	iteration := w.iteration.Add(1)
	result, err := w.monitor.Pass(ctx)
	if err != nil {
		return 0, err
	}
	fmt.Fprintf(w.out, "\nIteration %d - %s\n", iteration, result.At.Format("15:04:05"))
	if err := WriteSummary(w.out, result, false); err != nil {
		return result.Total, err
	}
	return result.Total, nil
}
