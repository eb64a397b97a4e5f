package monitor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/churnwatch/internal/clock"
	"github.com/smallbiznis/churnwatch/internal/customer/domain"
	"github.com/smallbiznis/churnwatch/internal/customer/repository"
	"github.com/smallbiznis/churnwatch/internal/scoring/features"
	"github.com/smallbiznis/churnwatch/internal/scoring/model"
	"github.com/smallbiznis/churnwatch/internal/scoring/risk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var now = time.Date(2025, 6, 1, 9, 30, 15, 0, time.UTC)

// balanceModel scores each row as Balance/1000.
type balanceModel struct{}

func (balanceModel) PredictProbability(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, row := range x {
		out[i] = row[0] / 1000
	}
	return out, nil
}

type recordingSink struct {
	results []PassResult
	err     error
}

func (s *recordingSink) Publish(_ context.Context, result PassResult) error {
	s.results = append(s.results, result)
	return s.err
}

type fixture struct {
	db      *gorm.DB
	repo    domain.Repository
	sink    *recordingSink
	monitor *Monitor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Customer{}))

	schema, err := features.NewSchema([]string{features.ColBalance, features.ColAge})
	require.NoError(t, err)
	bundle := model.Bundle{
		Model:     balanceModel{},
		Scaler:    model.StandardScaler{Mean: []float64{0, 0}, Scale: []float64{1, 1}},
		Schema:    schema,
		Threshold: 0.42,
	}

	repo := repository.Provide()
	sink := &recordingSink{}
	return &fixture{
		db:   db,
		repo: repo,
		sink: sink,
		monitor: New(Params{
			DB:       db,
			Log:      zap.NewNop(),
			Repo:     repo,
			Clock:    clock.NewFakeClock(now),
			Engineer: features.NewEngineer(),
			Scorer:   risk.NewScorer(bundle),
			Sink:     sink,
		}),
	}
}

func (f *fixture) insert(t *testing.T, name string, balance float64, churned bool) domain.Customer {
	t.Helper()
	c := domain.Customer{
		Name:            name,
		CreditScore:     640,
		Age:             44,
		Tenure:          5,
		Balance:         balance,
		NumOfProducts:   2,
		EstimatedSalary: 50000,
		Geography:       domain.GeographyFrance,
		Gender:          domain.GenderFemale,
		ChurnDay:        domain.FormatChurnDay(now.Add(time.Hour)),
		Churned:         churned,
	}
	require.NoError(t, f.repo.Insert(context.Background(), f.db, &c))
	return c
}

func TestPassScoresOnlyActiveCustomers(t *testing.T) {
	f := newFixture(t)
	f.insert(t, "low", 100, false)
	f.insert(t, "gone_1", 990, true)
	f.insert(t, "medium", 450, false)
	f.insert(t, "gone_2", 990, true)
	f.insert(t, "high", 700, false)

	result, err := f.monitor.Pass(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	require.Len(t, result.Scored, 3)
	for _, s := range result.Scored {
		assert.False(t, s.Customer.Churned)
	}
	assert.Equal(t, "low", result.Scored[0].Customer.Name)
	assert.Equal(t, 0.1, result.Scored[0].Assessment.Probability)
	assert.Equal(t, "medium", result.Scored[1].Customer.Name)
	assert.Equal(t, risk.TierMedium, result.Scored[1].Assessment.Tier)
	assert.Equal(t, 1, result.Scored[1].Assessment.Decision)

	assert.Equal(t, 2, result.Predicted)
	assert.Equal(t, map[risk.Tier]int{risk.TierLow: 1, risk.TierMedium: 1, risk.TierHigh: 1}, result.Tiers)
	assert.Equal(t, now, result.At)
	require.Len(t, f.sink.results, 1)
}

func TestPassRanksHighRiskDescending(t *testing.T) {
	f := newFixture(t)
	f.insert(t, "a", 650, false)
	f.insert(t, "b", 910, false)
	f.insert(t, "c", 780, false)
	f.insert(t, "d", 200, false)

	result, err := f.monitor.Pass(context.Background())
	require.NoError(t, err)

	require.Len(t, result.HighRisk, 3)
	assert.Equal(t, "b", result.HighRisk[0].Customer.Name)
	assert.Equal(t, "c", result.HighRisk[1].Customer.Name)
	assert.Equal(t, "a", result.HighRisk[2].Customer.Name)
}

func TestPassEmptyPopulationIsNotAnError(t *testing.T) {
	f := newFixture(t)
	f.insert(t, "gone", 500, true)

	result, err := f.monitor.Pass(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Total)
	assert.Empty(t, result.Scored)
	assert.Empty(t, f.sink.results)

	var out bytes.Buffer
	require.NoError(t, WriteSummary(&out, result, true))
	assert.Equal(t, "No active customers to score.\n", out.String())
}

func TestSinkFailureDoesNotFailPass(t *testing.T) {
	f := newFixture(t)
	f.sink.err = errors.New("redis down")
	f.insert(t, "x", 300, false)

	result, err := f.monitor.Pass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
}

func TestWriteSummaryFormats(t *testing.T) {
	f := newFixture(t)
	f.insert(t, "Customer_1", 100, false)
	high := f.insert(t, "Customer_2", 712.3, false)

	result, err := f.monitor.Pass(context.Background())
	require.NoError(t, err)

	var compact bytes.Buffer
	require.NoError(t, WriteSummary(&compact, result, false))
	assert.Equal(t, "Customers: 2, Churn predicted: 1 (50.0%)\n"+
		"Risk - High: 1, Medium: 0, Low: 1\n"+
		"High risk:\n"+
		"  Customer_2 - 71.2%\n", compact.String())

	var detailed bytes.Buffer
	require.NoError(t, WriteSummary(&detailed, result, true))
	assert.Contains(t, detailed.String(), "Total customers: 2\n")
	assert.Contains(t, detailed.String(), "Predicted to churn: 1 (50.0%)\n")
	assert.Contains(t, detailed.String(), fmt.Sprintf("  Customer_2 (ID: %d) - 71.2%%\n", high.ID))
}

func TestWatcherTickPrintsIteration(t *testing.T) {
	f := newFixture(t)
	f.insert(t, "Customer_1", 100, false)

	var out bytes.Buffer
	job := NewPassJob(NewWatcher(f.monitor, &out))
	assert.Equal(t, PassJobName, job.Name)

	n, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, out.String(), "Iteration 1 - 09:30:15")
	assert.Contains(t, out.String(), "Customers: 1, Churn predicted: 0 (0.0%)")
}
