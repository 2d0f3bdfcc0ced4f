package learning

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// columnStats returns the mean and population variance of each column of X.
func columnStats(X mat.Matrix) (means, variances []float64) {
	r, c := X.Dims()
	means = make([]float64, c)
	variances = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		means[j] = stat.Mean(col, nil)
		if r > 1 {
			variances[j] = stat.Variance(col, nil) * float64(r-1) / float64(r)
		}
	}
	return
}

// VarianceThreshold removes columns whose variance on the training data is not above Threshold.
type VarianceThreshold struct {
	Threshold float64

	keep []int
	in   int
}

// NewVarianceThreshold creates a variance threshold selector.
func NewVarianceThreshold(threshold float64) *VarianceThreshold {
	return &VarianceThreshold{Threshold: threshold}
}

// Fit implements Transformer.
func (v *VarianceThreshold) Fit(X mat.Matrix, _ []float64) error {
	_, variances := columnStats(X)
	v.keep = v.keep[:0]
	for j, variance := range variances {
		if variance > v.Threshold {
			v.keep = append(v.keep, j)
		}
	}
	v.in = len(variances)
	if len(v.keep) == 0 {
		v.in = 0
		return errors.Errorf("no feature meets the variance threshold %v", v.Threshold)
	}
	return nil
}

// Support returns the indices of the kept columns.
func (v *VarianceThreshold) Support() []int {
	return append([]int(nil), v.keep...)
}

// Transform implements Transformer.
func (v *VarianceThreshold) Transform(X mat.Matrix) (*mat.Dense, error) {
	if v.in == 0 {
		return nil, ErrNotFitted
	}
	r, c := X.Dims()
	if c != v.in {
		return nil, errors.Wrapf(ErrShape, "fitted on %d columns, got %d", v.in, c)
	}
	out := mat.NewDense(r, len(v.keep), nil)
	for k, j := range v.keep {
		for i := 0; i < r; i++ {
			out.Set(i, k, X.At(i, j))
		}
	}
	return out, nil
}

// StandardScaler centres each column and scales it to unit variance. Constant columns are only centred.
type StandardScaler struct {
	Mean  []float64
	Scale []float64
}

// NewStandardScaler creates an unfitted scaler.
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{}
}

// Fit implements Transformer.
func (s *StandardScaler) Fit(X mat.Matrix, _ []float64) error {
	means, variances := columnStats(X)
	s.Mean = means
	s.Scale = make([]float64, len(variances))
	for j, variance := range variances {
		s.Scale[j] = math.Sqrt(variance)
		if s.Scale[j] == 0 {
			s.Scale[j] = 1
		}
	}
	return nil
}

// Transform implements Transformer.
func (s *StandardScaler) Transform(X mat.Matrix) (*mat.Dense, error) {
	if s.Mean == nil {
		return nil, ErrNotFitted
	}
	r, c := X.Dims()
	if c != len(s.Mean) {
		return nil, errors.Wrapf(ErrShape, "fitted on %d columns, got %d", len(s.Mean), c)
	}
	out := mat.NewDense(r, c, nil)
	out.Apply(func(i, j int, v float64) float64 {
		return (X.At(i, j) - s.Mean[j]) / s.Scale[j]
	}, out)
	return out, nil
}
