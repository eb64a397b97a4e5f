package scheduler

import (
	"time"
)

// Config controls the run interval, per-job timeout and how many outright
// failures in a row stop the loop.
type Config struct {
	RunInterval            time.Duration
	JobTimeout             time.Duration
	MaxConsecutiveFailures int
	EnabledJobs            []string
}

func DefaultConfig() Config {
	return Config{
		RunInterval:            10 * time.Second,
		JobTimeout:             30 * time.Second,
		MaxConsecutiveFailures: 3,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	if c.MaxConsecutiveFailures <= 0 {
		c.MaxConsecutiveFailures = defaults.MaxConsecutiveFailures
	}
	return c
}
