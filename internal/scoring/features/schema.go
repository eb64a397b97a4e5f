package features

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptySchema      = errors.New("empty_feature_schema")
	ErrDuplicateFeature = errors.New("duplicate_feature")
	ErrInvalidFeature   = errors.New("invalid_feature_name")
)

// Row is one engineered record keyed by encoded column name.
type Row map[string]float64

// Matrix holds reconciled rows; columns follow the schema order.
type Matrix [][]float64

// Schema is the ordered feature list a trained model expects.
type Schema struct {
	names []string
	index map[string]int
}

func NewSchema(names []string) (Schema, error) {
	if len(names) == 0 {
		return Schema{}, ErrEmptySchema
	}
	index := make(map[string]int, len(names))
	ordered := make([]string, 0, len(names))
	for i, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return Schema{}, fmt.Errorf("%w: position %d", ErrInvalidFeature, i)
		}
		if _, ok := index[name]; ok {
			return Schema{}, fmt.Errorf("%w: %s", ErrDuplicateFeature, name)
		}
		index[name] = i
		ordered = append(ordered, name)
	}
	return Schema{names: ordered, index: index}, nil
}

func (s Schema) Len() int {
	return len(s.names)
}

func (s Schema) Names() []string {
	return append([]string(nil), s.names...)
}

func (s Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Reconcile projects row onto the schema: missing columns become 0 and unknown
// columns are dropped.
func (s Schema) Reconcile(row Row) []float64 {
	out := make([]float64, len(s.names))
	for i, name := range s.names {
		out[i] = row[name]
	}
	return out
}

func (s Schema) Matrix(rows []Row) Matrix {
	m := make(Matrix, len(rows))
	for i, row := range rows {
		m[i] = s.Reconcile(row)
	}
	return m
}
