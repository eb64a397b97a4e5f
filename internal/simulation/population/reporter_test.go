package population

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/smallbiznis/churnwatch/internal/customer/domain"
	"github.com/smallbiznis/churnwatch/internal/customer/repository"
	"github.com/smallbiznis/churnwatch/internal/observability/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func seed(t *testing.T, active, churned int) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Customer{}))

	repo := repository.Provide()
	for i := 0; i < active+churned; i++ {
		c := &domain.Customer{
			Name:            fmt.Sprintf("Customer_%d", i+1),
			CreditScore:     500,
			Age:             30,
			NumOfProducts:   1,
			EstimatedSalary: 30000,
			Geography:       domain.GeographyGermany,
			Gender:          domain.GenderFemale,
			ChurnDay:        domain.FormatChurnDay(time.Now()),
			Churned:         i >= active,
		}
		require.NoError(t, repo.Insert(context.Background(), db, c))
	}
	return db
}

func TestStatsCountsByStatus(t *testing.T) {
	db := seed(t, 4, 2)
	r := New(Params{DB: db, Repo: repository.Provide()})

	stats, err := r.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Total: 6, Active: 4, Churned: 2}, stats)
	assert.Equal(t, stats.Total, stats.Active+stats.Churned)
	assert.Equal(t, "Total Customers: 6, Active: 4, Churned: 2", stats.String())
}

func TestStatsEmptyStore(t *testing.T) {
	db := seed(t, 0, 0)
	r := New(Params{DB: db, Repo: repository.Provide()})

	stats, err := r.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
}

func TestStatsRefreshesPopulationGauges(t *testing.T) {
	registry := prometheus.NewRegistry()
	old := prometheus.DefaultRegisterer
	prometheus.DefaultRegisterer = registry
	defer func() { prometheus.DefaultRegisterer = old }()

	db := seed(t, 3, 1)
	r := New(Params{
		DB:      db,
		Repo:    repository.Provide(),
		Metrics: metrics.NewChurnMetrics(metrics.Config{ServiceName: "churnwatch", Environment: "test"}),
	})

	_, err := r.Stats(context.Background())
	require.NoError(t, err)

	expected := `
# HELP churnwatch_population_customers Customers in the store by lifecycle status.
# TYPE churnwatch_population_customers gauge
churnwatch_population_customers{env="test",service="churnwatch",status="active"} 3
churnwatch_population_customers{env="test",service="churnwatch",status="churned"} 1
churnwatch_population_customers{env="test",service="churnwatch",status="total"} 4
`
	assert.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "churnwatch_population_customers"))
}
