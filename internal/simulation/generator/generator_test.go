package generator

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/churnwatch/internal/clock"
	"github.com/smallbiznis/churnwatch/internal/config"
	"github.com/smallbiznis/churnwatch/internal/customer/domain"
	"github.com/smallbiznis/churnwatch/internal/customer/repository"
	"github.com/smallbiznis/churnwatch/internal/simulation/random"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var start = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func newTestGenerator(t *testing.T, seed uint64) (*Generator, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Customer{}))

	g := New(Params{
		DB:     db,
		Log:    zap.NewNop(),
		Repo:   repository.Provide(),
		Clock:  clock.NewFakeClock(start),
		Config: config.NewStaticSimulationConfig(config.DefaultSimulationConfig()),
		Random: random.New(seed),
	})
	return g, db
}

func TestCreateDrawsWithinConfiguredRanges(t *testing.T) {
	g, _ := newTestGenerator(t, 11)
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		c, err := g.Create(ctx, fmt.Sprintf("c%d", i))
		require.NoError(t, err)

		assert.GreaterOrEqual(t, c.CreditScore, 350)
		assert.LessOrEqual(t, c.CreditScore, 850)
		assert.GreaterOrEqual(t, c.Age, 18)
		assert.LessOrEqual(t, c.Age, 70)
		assert.GreaterOrEqual(t, c.Tenure, 0)
		assert.LessOrEqual(t, c.Tenure, 10)
		assert.GreaterOrEqual(t, c.Balance, 0.0)
		assert.LessOrEqual(t, c.Balance, 250000.0)
		assert.GreaterOrEqual(t, c.NumOfProducts, 1)
		assert.LessOrEqual(t, c.NumOfProducts, 4)
		assert.GreaterOrEqual(t, c.EstimatedSalary, 20000.0)
		assert.LessOrEqual(t, c.EstimatedSalary, 150000.0)
		assert.False(t, c.Churned)

		churnAt, err := c.ChurnTime()
		require.NoError(t, err)
		assert.True(t, churnAt.After(start))
		assert.False(t, churnAt.After(start.Add(10*time.Minute)))
		assert.Equal(t, time.Duration(0), churnAt.Sub(start)%time.Minute)
	}
}

func TestSeedNamesCustomersInOrder(t *testing.T) {
	g, db := newTestGenerator(t, 5)

	customers, err := g.Seed(context.Background(), 15)
	require.NoError(t, err)
	require.Len(t, customers, 15)
	assert.Equal(t, "Customer_1", customers[0].Name)
	assert.Equal(t, "Customer_15", customers[14].Name)

	var count int64
	require.NoError(t, db.Model(&domain.Customer{}).Count(&count).Error)
	assert.Equal(t, int64(15), count)
}

func TestFixedSeedReproducesPopulation(t *testing.T) {
	a, _ := newTestGenerator(t, 99)
	b, _ := newTestGenerator(t, 99)

	for i := 0; i < 5; i++ {
		ca := a.draw("x")
		cb := b.draw("x")
		assert.Equal(t, ca.CreditScore, cb.CreditScore)
		assert.Equal(t, ca.Balance, cb.Balance)
		assert.Equal(t, ca.Geography, cb.Geography)
		assert.Equal(t, ca.ChurnDay, cb.ChurnDay)
	}
}
