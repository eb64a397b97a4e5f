package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smallbiznis/churnwatch/internal/clock"
	"github.com/smallbiznis/churnwatch/internal/config"
	"github.com/smallbiznis/churnwatch/internal/customer/domain"
	obslogger "github.com/smallbiznis/churnwatch/internal/observability/logger"
	"github.com/smallbiznis/churnwatch/internal/observability/metrics"
	"github.com/smallbiznis/churnwatch/internal/observability/tracing"
	"github.com/smallbiznis/churnwatch/internal/simulation/random"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ChurnEvent records a customer leaving during a tick.
type ChurnEvent struct {
	ID   int64
	Name string
	At   time.Time
}

// StepResult summarizes one tick.
type StepResult struct {
	Visited  int
	Advanced int
	Churned  []ChurnEvent
	Failed   int
}

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Repo    domain.Repository
	Clock   clock.Clock
	Config  *config.SimulationConfigHolder
	Random  *random.Source
	Metrics *metrics.Metrics `optional:"true"`
}

// Stepper advances every active customer by one tick.
type Stepper struct {
	db      *gorm.DB
	log     *zap.Logger
	repo    domain.Repository
	clock   clock.Clock
	cfg     *config.SimulationConfigHolder
	rnd     *random.Source
	metrics *metrics.Metrics
}

func New(p Params) *Stepper {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Stepper{
		db:      p.DB,
		log:     log.Named("simulation.lifecycle"),
		repo:    p.Repo,
		clock:   p.Clock,
		cfg:     p.Config,
		rnd:     p.Random,
		metrics: p.Metrics,
	}
}

// Step visits the active customers read at the start of the tick. A customer past
// its churn instant is only marked churned; every other customer drifts. Per-record
// failures do not stop the tick and are returned joined.
func (s *Stepper) Step(ctx context.Context) (result StepResult, err error) {
	ctx, span := tracing.Start(ctx, "simulation.step")
	defer func() {
		span.SetAttributes(
			attribute.Int("customers.visited", result.Visited),
			attribute.Int("customers.churned", len(result.Churned)),
		)
		tracing.End(span, err)
	}()

	customers, err := s.repo.List(ctx, s.db, domain.Filter{Status: domain.StatusActive})
	if err != nil {
		return StepResult{}, fmt.Errorf("list active customers: %w", err)
	}

	cfg := s.cfg.Get()
	now := s.clock.Now()
	log := obslogger.WithContext(ctx, s.log)

	var failures []error
	for _, customer := range customers {
		result.Visited++

		churnAt, parseErr := customer.ChurnTime()
		if parseErr != nil {
			result.Failed++
			failures = append(failures, parseErr)
			log.Warn("customer skipped", zap.Int64("customer_id", customer.ID), zap.Error(parseErr))
			continue
		}

		if !now.Before(churnAt) {
			event, ok, churnErr := s.churn(ctx, customer, now)
			if churnErr != nil {
				result.Failed++
				failures = append(failures, churnErr)
				continue
			}
			if ok {
				result.Churned = append(result.Churned, event)
				s.metrics.RecordChurn(ctx)
				log.Info("customer churned",
					zap.Int64("customer_id", customer.ID),
					zap.String("name", customer.Name),
				)
			}
			continue
		}

		ok, advanceErr := s.repo.UpdateActive(ctx, s.db, customer.ID, s.drift(cfg, customer))
		if advanceErr != nil {
			result.Failed++
			failures = append(failures, fmt.Errorf("advance customer %d: %w", customer.ID, advanceErr))
			continue
		}
		if ok {
			result.Advanced++
		}
	}

	return result, errors.Join(failures...)
}

func (s *Stepper) churn(ctx context.Context, customer domain.Customer, now time.Time) (ChurnEvent, bool, error) {
	churned := true
	ok, err := s.repo.UpdateActive(ctx, s.db, customer.ID, domain.Attributes{Churned: &churned})
	if err != nil {
		return ChurnEvent{}, false, fmt.Errorf("churn customer %d: %w", customer.ID, err)
	}
	return ChurnEvent{ID: customer.ID, Name: customer.Name, At: now}, ok, nil
}

func (s *Stepper) drift(cfg config.SimulationConfig, customer domain.Customer) domain.Attributes {
	balance := max(0, customer.Balance+float64(s.rnd.Between(cfg.BalanceDelta)))
	tenure := customer.Tenure + 1
	active := customer.IsActiveMember
	if s.rnd.Chance(cfg.ActiveFlipProbability) {
		active = !active
	}
	creditScore := domain.ClampCreditScore(customer.CreditScore + s.rnd.Between(cfg.CreditScoreDelta))

	return domain.Attributes{
		Balance:        &balance,
		Tenure:         &tenure,
		IsActiveMember: &active,
		CreditScore:    &creditScore,
	}
}
