package scheduler

import (
	"context"
	"time"

	obscontext "github.com/smallbiznis/churnwatch/internal/observability/context"
	obslogger "github.com/smallbiznis/churnwatch/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/churnwatch/internal/observability/metrics"
	"go.uber.org/zap"
)

// passRecord tracks one execution of a job for the finish log line.
type passRecord struct {
	job       Job
	runID     string
	startedAt time.Time
	processed int
	err       error
	timedOut  bool
}

// beginPass stamps ctx with a fresh run id so everything logged during the pass,
// including pass ids chosen by the job, correlates.
func (s *Scheduler) beginPass(ctx context.Context, job Job) (context.Context, *passRecord) {
	rec := &passRecord{
		job:       job,
		runID:     s.genID.Generate().String(),
		startedAt: s.clock.Now(),
	}
	ctx = obscontext.WithJob(ctx, job.Name, rec.runID)
	s.logger(ctx).Debug("scheduler.pass.start", zap.String("resource", job.Resource))
	return ctx, rec
}

func (s *Scheduler) logger(ctx context.Context) *zap.Logger {
	return obslogger.WithContext(ctx, s.log)
}

func (s *Scheduler) finishPass(ctx context.Context, rec *passRecord) {
	fields := []zap.Field{
		zap.String("resource", rec.job.Resource),
		zap.Int64("duration_ms", s.clock.Now().Sub(rec.startedAt).Milliseconds()),
		zap.Int("processed_count", rec.processed),
	}
	log := s.logger(ctx)

	switch {
	case rec.timedOut:
		log.Warn("scheduler.pass.timeout", append(fields, zap.Error(rec.err))...)
	case rec.err != nil:
		log.Warn("scheduler.pass.failed", append(fields,
			zap.String("reason", obsmetrics.ClassifySchedulerJobReason(rec.err)),
			zap.Error(rec.err),
		)...)
	default:
		log.Info("scheduler.pass.finish", fields...)
	}
}
