package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	PopulationTotal   = "total"
	PopulationActive  = "active"
	PopulationChurned = "churned"
)

// ChurnMetrics holds Prometheus gauges describing the latest population and scoring snapshot.
type ChurnMetrics struct {
	population *prometheus.GaugeVec
	riskTiers  *prometheus.GaugeVec
	predicted  prometheus.Gauge
}

// NewChurnMetrics registers the gauges on the default registry.
func NewChurnMetrics(cfg Config) *ChurnMetrics {
	return newChurnMetrics(prometheus.DefaultRegisterer, cfg)
}

func newChurnMetrics(registerer prometheus.Registerer, cfg Config) *ChurnMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	labels := constLabels(cfg)

	population := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name:        "churnwatch_population_customers",
		Help:        "Customers in the store by lifecycle status.",
		ConstLabels: labels,
	}, []string{"status"})
	riskTiers := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name:        "churnwatch_risk_tier_customers",
		Help:        "Active customers per risk tier in the latest scoring pass.",
		ConstLabels: labels,
	}, []string{"tier"})
	predicted := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "churnwatch_predicted_churners",
		Help:        "Customers flagged by the optimized threshold in the latest scoring pass.",
		ConstLabels: labels,
	})

	registerer.MustRegister(population, riskTiers, predicted)

	return &ChurnMetrics{
		population: population,
		riskTiers:  riskTiers,
		predicted:  predicted,
	}
}

func (m *ChurnMetrics) SetPopulation(total, active, churned int64) {
	if m == nil {
		return
	}
	m.population.WithLabelValues(PopulationTotal).Set(float64(total))
	m.population.WithLabelValues(PopulationActive).Set(float64(active))
	m.population.WithLabelValues(PopulationChurned).Set(float64(churned))
}

// SetRiskSnapshot replaces the per-tier gauges with the latest pass.
func (m *ChurnMetrics) SetRiskSnapshot(tiers map[string]int, predicted int) {
	if m == nil {
		return
	}
	m.riskTiers.Reset()
	for tier, count := range tiers {
		m.riskTiers.WithLabelValues(tier).Set(float64(count))
	}
	m.predicted.Set(float64(predicted))
}
