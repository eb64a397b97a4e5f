package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock abstracts wall-clock time so churn deadlines can be tested without sleeping.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

func NewSystemClock() Clock {
	return SystemClock{}
}

var Module = fx.Module("clock",
	fx.Provide(NewSystemClock),
)
