package monitor

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/churnwatch/internal/clock"
	"github.com/smallbiznis/churnwatch/internal/customer/domain"
	obscontext "github.com/smallbiznis/churnwatch/internal/observability/context"
	obslogger "github.com/smallbiznis/churnwatch/internal/observability/logger"
	"github.com/smallbiznis/churnwatch/internal/observability/metrics"
	"github.com/smallbiznis/churnwatch/internal/observability/tracing"
	"github.com/smallbiznis/churnwatch/internal/scoring/features"
	"github.com/smallbiznis/churnwatch/internal/scoring/risk"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Scored joins a customer with the assessment computed for its row.
type Scored struct {
	Customer   domain.Customer `json:"customer"`
	Assessment risk.Assessment `json:"assessment"`
}

// PassResult is the outcome of one scoring pass. Total is zero when no active
// customers exist.
type PassResult struct {
	PassID    string            `json:"pass_id"`
	At        time.Time         `json:"at"`
	Total     int               `json:"total"`
	Predicted int               `json:"predicted"`
	Tiers     map[risk.Tier]int `json:"tiers"`
	Scored    []Scored          `json:"scored"`
	HighRisk  []Scored          `json:"high_risk"`
}

// PredictedRate is the share of scored customers flagged by the threshold.
func (r PassResult) PredictedRate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Predicted) / float64(r.Total)
}

// Sink receives every completed pass.
type Sink interface {
	Publish(ctx context.Context, result PassResult) error
}

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Repo         domain.Repository
	Clock        clock.Clock
	Engineer     *features.Engineer
	Scorer       *risk.Scorer
	GenID        *snowflake.Node       `optional:"true"`
	Sink         Sink                  `optional:"true"`
	Metrics      *metrics.Metrics      `optional:"true"`
	ChurnMetrics *metrics.ChurnMetrics `optional:"true"`
}

type Monitor struct {
	db           *gorm.DB
	log          *zap.Logger
	repo         domain.Repository
	clock        clock.Clock
	engineer     *features.Engineer
	scorer       *risk.Scorer
	genID        *snowflake.Node
	sink         Sink
	metrics      *metrics.Metrics
	churnMetrics *metrics.ChurnMetrics
}

func New(p Params) *Monitor {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Monitor{
		db:           p.DB,
		log:          log.Named("scoring.monitor"),
		repo:         p.Repo,
		clock:        p.Clock,
		engineer:     p.Engineer,
		scorer:       p.Scorer,
		genID:        p.GenID,
		sink:         p.Sink,
		metrics:      p.Metrics,
		churnMetrics: p.ChurnMetrics,
	}
}

// Pass scores the current active population once.
func (m *Monitor) Pass(ctx context.Context) (result PassResult, err error) {
	ctx, span := tracing.Start(ctx, "scoring.pass")
	defer func() {
		span.SetAttributes(
			attribute.Int("customers.scored", result.Total),
			attribute.Int("customers.predicted", result.Predicted),
		)
		tracing.End(span, err)
	}()

	result = PassResult{
		PassID: m.passID(ctx),
		At:     m.clock.Now(),
		Tiers:  map[risk.Tier]int{},
	}

	customers, err := m.repo.List(ctx, m.db, domain.Filter{Status: domain.StatusActive})
	if err != nil {
		return PassResult{}, fmt.Errorf("list active customers: %w", err)
	}
	if len(customers) == 0 {
		m.record(ctx, result)
		return result, nil
	}

	rows := m.engineer.Build(customers)
	assessments, err := m.scorer.Score(m.scorer.Schema().Matrix(rows))
	if err != nil {
		return PassResult{}, err
	}

	result.Total = len(customers)
	result.Scored = make([]Scored, len(customers))
	for i, customer := range customers {
		a := assessments[i]
		result.Scored[i] = Scored{Customer: customer, Assessment: a}
		result.Tiers[a.Tier]++
		result.Predicted += a.Decision
		if a.Tier == risk.TierHigh {
			result.HighRisk = append(result.HighRisk, result.Scored[i])
		}
	}
	slices.SortStableFunc(result.HighRisk, func(a, b Scored) int {
		return cmp.Compare(b.Assessment.Probability, a.Assessment.Probability)
	})

	m.record(ctx, result)
	if m.sink != nil {
		if err := m.sink.Publish(ctx, result); err != nil {
			obslogger.WithContext(ctx, m.log).Warn("publish scoring pass failed", zap.Error(err))
		}
	}
	return result, nil
}

func (m *Monitor) passID(ctx context.Context) string {
	if id := obscontext.RunIDFromContext(ctx); id != "" {
		return id
	}
	if m.genID != nil {
		return m.genID.Generate().String()
	}
	return ""
}

func (m *Monitor) record(ctx context.Context, result PassResult) {
	m.metrics.RecordScoringPass(ctx, result.Total)
	snapshot := make(map[string]int, len(risk.Tiers))
	for _, tier := range risk.Tiers {
		count := result.Tiers[tier]
		snapshot[string(tier)] = count
		m.metrics.RecordAssessments(ctx, string(tier), count)
	}
	m.churnMetrics.SetRiskSnapshot(snapshot, result.Predicted)

	obslogger.WithContext(ctx, m.log).Info("scoring pass complete",
		zap.String("pass_id", result.PassID),
		zap.Int("customers", result.Total),
		zap.Int("predicted", result.Predicted),
		zap.Int("high", result.Tiers[risk.TierHigh]),
		zap.Int("medium", result.Tiers[risk.TierMedium]),
		zap.Int("low", result.Tiers[risk.TierLow]),
	)
}
