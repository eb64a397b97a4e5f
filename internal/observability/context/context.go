package context

import "context"

type jobKey struct{}
type runIDKey struct{}

// WithJob annotates ctx with the scheduler job name and run identifier.
func WithJob(ctx context.Context, job, runID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, jobKey{}, job)
	return context.WithValue(ctx, runIDKey{}, runID)
}

func JobFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	job, _ := ctx.Value(jobKey{}).(string)
	return job
}

func RunIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	runID, _ := ctx.Value(runIDKey{}).(string)
	return runID
}
