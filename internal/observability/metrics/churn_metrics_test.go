package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestChurnMetricsSnapshot(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newChurnMetrics(registry, Config{ServiceName: "churnwatch", Environment: "test"})

	m.SetPopulation(15, 12, 3)
	m.SetRiskSnapshot(map[string]int{"HIGH RISK": 2, "LOW RISK": 10}, 4)
	m.SetRiskSnapshot(map[string]int{"LOW RISK": 9}, 1)

	assert.Equal(t, float64(12), testutil.ToFloat64(m.population.WithLabelValues(PopulationActive)))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.population.WithLabelValues(PopulationChurned)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.riskTiers))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.predicted))
}
