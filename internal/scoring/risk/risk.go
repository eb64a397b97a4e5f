package risk

import (
	"errors"
	"fmt"
	"math"

	"github.com/smallbiznis/churnwatch/internal/scoring/features"
	"github.com/smallbiznis/churnwatch/internal/scoring/model"
)

var ErrInvalidProbability = errors.New("invalid_probability")

type Tier string

const (
	TierLow    Tier = "LOW RISK"
	TierMedium Tier = "MEDIUM RISK"
	TierHigh   Tier = "HIGH RISK"
)

// Tiers lists tiers from highest to lowest risk.
var Tiers = []Tier{TierHigh, TierMedium, TierLow}

const (
	lowUpper    = 0.3
	mediumUpper = 0.6
)

var recommendations = map[Tier]string{
	TierLow:    "Monitor",
	TierMedium: "Engage",
	TierHigh:   "Immediate action",
}

// Assessment is the scored outcome for one row.
type Assessment struct {
	Probability    float64 `json:"churn_probability"`
	Decision       int     `json:"prediction"`
	Tier           Tier    `json:"risk_level"`
	Recommendation string  `json:"recommendation"`
}

// TierFor maps a probability onto the fixed cut points.
func TierFor(p float64) (Tier, string) {
	tier := TierHigh
	switch {
	case p < lowUpper:
		tier = TierLow
	case p < mediumUpper:
		tier = TierMedium
	}
	return tier, recommendations[tier]
}

// Scorer applies a model bundle to reconciled rows.
type Scorer struct {
	bundle model.Bundle
}

func NewScorer(bundle model.Bundle) *Scorer {
	return &Scorer{bundle: bundle}
}

func (s *Scorer) Schema() features.Schema {
	return s.bundle.Schema
}

// Score returns one assessment per row in input order. Tier and decision are taken
// from the unrounded probability.
func (s *Scorer) Score(matrix features.Matrix) ([]Assessment, error) {
	if len(matrix) == 0 {
		return nil, nil
	}
	width := s.bundle.Schema.Len()
	for i, row := range matrix {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d columns, schema has %d", model.ErrDimensionMismatch, i, len(row), width)
		}
	}

	scaled, err := s.bundle.Scaler.Transform(matrix)
	if err != nil {
		return nil, fmt.Errorf("scale features: %w", err)
	}
	probs, err := s.bundle.Model.PredictProbability(scaled)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	if len(probs) != len(matrix) {
		return nil, fmt.Errorf("%w: %d probabilities for %d rows", model.ErrDimensionMismatch, len(probs), len(matrix))
	}

	out := make([]Assessment, len(probs))
	for i, p := range probs {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return nil, fmt.Errorf("%w: row %d: %v", ErrInvalidProbability, i, p)
		}
		tier, recommendation := TierFor(p)
		decision := 0
		if p >= s.bundle.Threshold {
			decision = 1
		}
		out[i] = Assessment{
			Probability:    Round(p, 4),
			Decision:       decision,
			Tier:           tier,
			Recommendation: recommendation,
		}
	}
	return out, nil
}

// Round rounds to the given number of decimals, ties to even.
func Round(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.RoundToEven(v*pow) / pow
}
