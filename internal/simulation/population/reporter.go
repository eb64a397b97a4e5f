package population

import (
	"context"
	"fmt"

	"github.com/smallbiznis/churnwatch/internal/customer/domain"
	"github.com/smallbiznis/churnwatch/internal/observability/metrics"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type Stats struct {
	Total   int64 `json:"total"`
	Active  int64 `json:"active"`
	Churned int64 `json:"churned"`
}

func (s Stats) String() string {
	return fmt.Sprintf("Total Customers: %d, Active: %d, Churned: %d", s.Total, s.Active, s.Churned)
}

type Params struct {
	fx.In

	DB      *gorm.DB
	Repo    domain.Repository
	Metrics *metrics.ChurnMetrics `optional:"true"`
}

type Reporter struct {
	db      *gorm.DB
	repo    domain.Repository
	metrics *metrics.ChurnMetrics
}

func New(p Params) *Reporter {
	return &Reporter{db: p.DB, repo: p.Repo, metrics: p.Metrics}
}

// Stats counts the population by status and refreshes the population gauges.
func (r *Reporter) Stats(ctx context.Context) (Stats, error) {
	var (
		stats Stats
		err   error
	)
	if stats.Total, err = r.repo.Count(ctx, r.db, domain.Filter{Status: domain.StatusAll}); err != nil {
		return Stats{}, fmt.Errorf("count customers: %w", err)
	}
	if stats.Active, err = r.repo.Count(ctx, r.db, domain.Filter{Status: domain.StatusActive}); err != nil {
		return Stats{}, fmt.Errorf("count active customers: %w", err)
	}
	if stats.Churned, err = r.repo.Count(ctx, r.db, domain.Filter{Status: domain.StatusChurned}); err != nil {
		return Stats{}, fmt.Errorf("count churned customers: %w", err)
	}

	r.metrics.SetPopulation(stats.Total, stats.Active, stats.Churned)
	return stats, nil
}
