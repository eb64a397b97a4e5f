package model

import (
	"errors"
	"fmt"
	"math"

	"github.com/smallbiznis/churnwatch/internal/scoring/features"
)

var (
	ErrIncompleteArtifact = errors.New("incomplete_model_artifact")
	ErrUnsupportedKind    = errors.New("unsupported_model_kind")
	ErrDimensionMismatch  = errors.New("dimension_mismatch")
	ErrInvalidThreshold   = errors.New("invalid_threshold")
)

// Predictor maps scaled rows to the probability of the positive class.
type Predictor interface {
	PredictProbability(x [][]float64) ([]float64, error)
}

// Transformer rescales raw feature rows.
type Transformer interface {
	Transform(x [][]float64) ([][]float64, error)
}

// Bundle is a loaded model artifact.
type Bundle struct {
	Model     Predictor
	Scaler    Transformer
	Schema    features.Schema
	Threshold float64
}

// LogisticRegression is a binary linear classifier.
type LogisticRegression struct {
	Coefficients []float64
	Intercept    float64
}

func (m LogisticRegression) PredictProbability(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, row := range x {
		if len(row) != len(m.Coefficients) {
			return nil, fmt.Errorf("%w: row %d has %d columns, model expects %d", ErrDimensionMismatch, i, len(row), len(m.Coefficients))
		}
		z := m.Intercept
		for j, v := range row {
			z += m.Coefficients[j] * v
		}
		out[i] = sigmoid(z)
	}
	return out, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// StandardScaler centers by Mean and divides by Scale. A zero scale is treated as 1.
type StandardScaler struct {
	Mean  []float64
	Scale []float64
}

func (s StandardScaler) Transform(x [][]float64) ([][]float64, error) {
	out := make([][]float64, len(x))
	for i, row := range x {
		if len(row) != len(s.Mean) {
			return nil, fmt.Errorf("%w: row %d has %d columns, scaler expects %d", ErrDimensionMismatch, i, len(row), len(s.Mean))
		}
		scaled := make([]float64, len(row))
		for j, v := range row {
			scale := s.Scale[j]
			if scale == 0 {
				scale = 1
			}
			scaled[j] = (v - s.Mean[j]) / scale
		}
		out[i] = scaled
	}
	return out, nil
}
