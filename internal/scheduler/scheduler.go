package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/churnwatch/internal/clock"
	obsmetrics "github.com/smallbiznis/churnwatch/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	ErrInvalidConfig = errors.New("invalid_scheduler_config")
	// ErrPartialPass marks a pass that completed with per-record failures. Such
	// passes never count towards MaxConsecutiveFailures.
	ErrPartialPass = errors.New("partial_pass")
	ErrJobFailing  = errors.New("job_failing")
)

// Partial wraps per-record failures of an otherwise completed pass.
func Partial(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPartialPass, err)
}

// Job is one unit of periodic work. Run reports how many records it processed.
type Job struct {
	Name     string
	Resource string
	Timeout  time.Duration
	Run      func(ctx context.Context) (int, error)
}

type Params struct {
	fx.In

	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Config Config `optional:"true"`
	Jobs   []Job  `group:"scheduler.jobs"`
}

type Scheduler struct {
	log   *zap.Logger
	cfg   Config
	genID *snowflake.Node
	clock clock.Clock
	jobs  []Job

	// failures counts consecutive outright failures per job; owned by the loop goroutine.
	failures map[string]int
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.GenID == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	for _, job := range p.Jobs {
		if strings.TrimSpace(job.Name) == "" || job.Run == nil {
			return nil, fmt.Errorf("%w: job %q", ErrInvalidConfig, job.Name)
		}
	}
	return &Scheduler{
		log:   p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:   p.Config.withDefaults(),
		genID: p.GenID,
		clock: p.Clock,
		jobs:  p.Jobs,

		failures: make(map[string]int, len(p.Jobs)),
	}, nil
}

// runJob executes job on a context detached from parent cancellation, so a started
// pass always completes. Timeouts are logged and counted but not returned.
func (s *Scheduler) runJob(parent context.Context, job Job) error {
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = s.cfg.JobTimeout
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), timeout)
	defer cancel()
	ctx, rec := s.beginPass(ctx, job)

	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(job.Name)

	rec.processed, rec.err = job.Run(ctx)
	if job.Resource != "" {
		schedMetrics.AddBatchProcessed(job.Name, job.Resource, rec.processed)
	}
	schedMetrics.ObserveJobDuration(job.Name, s.clock.Now().Sub(rec.startedAt))

	if rec.err != nil {
		rec.timedOut = errors.Is(rec.err, context.DeadlineExceeded) || errors.Is(rec.err, context.Canceled)
		if rec.timedOut {
			schedMetrics.IncJobTimeout(job.Name)
		}
		schedMetrics.IncJobError(job.Name, rec.err)
	}
	s.finishPass(ctx, rec)

	if rec.err == nil || rec.timedOut {
		return nil
	}
	return fmt.Errorf("%s: %w", job.Name, rec.err)
}

// RunOnce runs every enabled job in registration order.
func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error
	for _, job := range s.jobs {
		if !s.isJobEnabled(job.Name) {
			continue
		}
		jobErr := s.runJob(parent, job)
		s.track(job.Name, jobErr)
		err = errors.Join(err, jobErr)
	}
	return err
}

// RunForever runs a pass immediately, then one per interval. It returns nil once
// ctx is done, or ErrJobFailing when a job keeps failing outright.
func (s *Scheduler) RunForever(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	nextRun := s.clock.Now()
	schedMetrics := obsmetrics.Scheduler()

	for {
		runLag := s.clock.Now().Sub(nextRun)
		if runLag > 0 {
			schedMetrics.ObserveRunLoopLag(runLag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		if name, ok := s.exhausted(); ok {
			return fmt.Errorf("%w: %s failed %d passes in a row", ErrJobFailing, name, s.cfg.MaxConsecutiveFailures)
		}
		nextRun = nextRun.Add(s.cfg.RunInterval)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) track(job string, err error) {
	if err == nil || errors.Is(err, ErrPartialPass) {
		s.failures[job] = 0
		return
	}
	s.failures[job]++
}

func (s *Scheduler) exhausted() (string, bool) {
	for job, count := range s.failures {
		if count >= s.cfg.MaxConsecutiveFailures {
			return job, true
		}
	}
	return "", false
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}
