package model

import (
	"fmt"
	"os"
	"strings"

	"github.com/smallbiznis/churnwatch/internal/scoring/features"
	"gopkg.in/yaml.v3"
)

const (
	KindLogisticRegression = "logistic_regression"
	KindStandardScaler     = "standard"
)

type artifact struct {
	Model        *modelSection  `yaml:"model"`
	Scaler       *scalerSection `yaml:"scaler"`
	FeatureNames []string       `yaml:"feature_names"`
	Threshold    *float64       `yaml:"optimized_threshold"`
	F1Threshold  *float64       `yaml:"f1_optimized_threshold"`
}

type modelSection struct {
	Kind         string    `yaml:"kind"`
	Coefficients []float64 `yaml:"coefficients"`
	Intercept    *float64  `yaml:"intercept"`
}

type scalerSection struct {
	Kind  string    `yaml:"kind"`
	Mean  []float64 `yaml:"mean"`
	Scale []float64 `yaml:"scale"`
}

// Load reads a YAML (or JSON) model artifact from path.
func Load(path string) (Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Bundle{}, fmt.Errorf("read model artifact: %w", err)
	}
	bundle, err := Parse(data)
	if err != nil {
		return Bundle{}, fmt.Errorf("%s: %w", path, err)
	}
	return bundle, nil
}

// Parse decodes an artifact and checks that every section agrees on the feature count.
func Parse(data []byte) (Bundle, error) {
	var raw artifact
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Bundle{}, fmt.Errorf("decode model artifact: %w", err)
	}

	threshold := raw.Threshold
	if threshold == nil {
		threshold = raw.F1Threshold
	}
	var missing []string
	if raw.Model == nil {
		missing = append(missing, "model")
	}
	if raw.Scaler == nil {
		missing = append(missing, "scaler")
	}
	if len(raw.FeatureNames) == 0 {
		missing = append(missing, "feature_names")
	}
	if threshold == nil {
		missing = append(missing, "optimized_threshold")
	}
	if len(missing) > 0 {
		return Bundle{}, fmt.Errorf("%w: missing %s", ErrIncompleteArtifact, strings.Join(missing, ", "))
	}

	schema, err := features.NewSchema(raw.FeatureNames)
	if err != nil {
		return Bundle{}, err
	}
	if *threshold < 0 || *threshold > 1 {
		return Bundle{}, fmt.Errorf("%w: %v", ErrInvalidThreshold, *threshold)
	}

	predictor, err := buildModel(raw.Model, schema.Len())
	if err != nil {
		return Bundle{}, err
	}
	scaler, err := buildScaler(raw.Scaler, schema.Len())
	if err != nil {
		return Bundle{}, err
	}

	return Bundle{
		Model:     predictor,
		Scaler:    scaler,
		Schema:    schema,
		Threshold: *threshold,
	}, nil
}

func buildModel(m *modelSection, width int) (Predictor, error) {
	kind := strings.TrimSpace(m.Kind)
	if kind == "" {
		kind = KindLogisticRegression
	}
	if kind != KindLogisticRegression {
		return nil, fmt.Errorf("%w: model %q", ErrUnsupportedKind, kind)
	}
	if m.Intercept == nil || len(m.Coefficients) == 0 {
		return nil, fmt.Errorf("%w: model coefficients and intercept", ErrIncompleteArtifact)
	}
	if len(m.Coefficients) != width {
		return nil, fmt.Errorf("%w: %d coefficients for %d features", ErrDimensionMismatch, len(m.Coefficients), width)
	}
	return LogisticRegression{Coefficients: m.Coefficients, Intercept: *m.Intercept}, nil
}

func buildScaler(s *scalerSection, width int) (Transformer, error) {
	kind := strings.TrimSpace(s.Kind)
	if kind == "" {
		kind = KindStandardScaler
	}
	if kind != KindStandardScaler {
		return nil, fmt.Errorf("%w: scaler %q", ErrUnsupportedKind, kind)
	}
	if len(s.Mean) != width || len(s.Scale) != width {
		return nil, fmt.Errorf("%w: scaler has %d means and %d scales for %d features", ErrDimensionMismatch, len(s.Mean), len(s.Scale), width)
	}
	return StandardScaler{Mean: s.Mean, Scale: s.Scale}, nil
}
