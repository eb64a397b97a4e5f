package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/smallbiznis/churnwatch/internal/clock"
	"github.com/smallbiznis/churnwatch/internal/config"
	"github.com/smallbiznis/churnwatch/internal/customer/domain"
	"github.com/smallbiznis/churnwatch/internal/observability/metrics"
	"github.com/smallbiznis/churnwatch/internal/simulation/random"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

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

// Generator creates customers with randomized attributes and a hidden churn instant.
type Generator struct {
	db      *gorm.DB
	log     *zap.Logger
	repo    domain.Repository
	clock   clock.Clock
	cfg     *config.SimulationConfigHolder
	rnd     *random.Source
	metrics *metrics.Metrics
}

func New(p Params) *Generator {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{
		db:      p.DB,
		log:     log.Named("simulation.generator"),
		repo:    p.Repo,
		clock:   p.Clock,
		cfg:     p.Config,
		rnd:     p.Random,
		metrics: p.Metrics,
	}
}

// Create draws one customer and inserts it.
func (g *Generator) Create(ctx context.Context, name string) (domain.Customer, error) {
	customer := g.draw(name)
	if err := customer.Validate(); err != nil {
		return domain.Customer{}, err
	}
	if err := g.repo.Insert(ctx, g.db, &customer); err != nil {
		return domain.Customer{}, fmt.Errorf("insert customer %s: %w", name, err)
	}

	g.metrics.RecordCustomerCreated(ctx)
	g.log.Debug("customer created",
		zap.Int64("customer_id", customer.ID),
		zap.String("name", customer.Name),
	)
	return customer, nil
}

// Seed creates Customer_1..Customer_n in order.
func (g *Generator) Seed(ctx context.Context, n int) ([]domain.Customer, error) {
	customers := make([]domain.Customer, 0, max(n, 0))
	for i := 1; i <= n; i++ {
		customer, err := g.Create(ctx, fmt.Sprintf("Customer_%d", i))
		if err != nil {
			return customers, err
		}
		customers = append(customers, customer)
	}
	g.log.Info("population seeded", zap.Int("customers", len(customers)))
	return customers, nil
}

func (g *Generator) draw(name string) domain.Customer {
	cfg := g.cfg.Get()
	now := g.clock.Now()
	churnAt := now.Add(time.Duration(g.rnd.Between(cfg.ChurnOffset)) * cfg.ChurnUnit)

	return domain.Customer{
		Name:            name,
		CreditScore:     g.rnd.Between(cfg.CreditScore),
		Age:             g.rnd.Between(cfg.Age),
		Tenure:          g.rnd.Between(cfg.Tenure),
		Balance:         float64(g.rnd.Between(cfg.Balance)),
		NumOfProducts:   g.rnd.Between(cfg.Products),
		HasCrCard:       g.rnd.Bool(),
		IsActiveMember:  g.rnd.Bool(),
		EstimatedSalary: float64(g.rnd.Between(cfg.Salary)),
		Geography:       domain.Geographies[g.rnd.Index(len(domain.Geographies))],
		Gender:          domain.Genders[g.rnd.Index(len(domain.Genders))],
		ChurnDay:        domain.FormatChurnDay(churnAt),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
