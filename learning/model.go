// Package learning provides the estimators that solvers compose into fit/predict pipelines:
// feature selection, scaling, ridge regression and a constant baseline.
package learning

import (
	"github.com/hscells/brainage/features"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNotFitted is returned when an estimator is used before it has been fitted.
	ErrNotFitted = errors.New("estimator is not fitted")
	// ErrShape is returned when inputs disagree in their number of rows or columns.
	ErrShape = errors.New("shape mismatch")
)

// Regressor learns a mapping from feature rows to a scalar target.
type Regressor interface {
	Fit(X mat.Matrix, y []float64) error
	Predict(X mat.Matrix) ([]float64, error)
}

// Transformer learns a feature mapping on training data and applies it to any data with the same columns.
type Transformer interface {
	Fit(X mat.Matrix, y []float64) error
	Transform(X mat.Matrix) (*mat.Dense, error)
}

// TableTransformer maps a covariance feature table to a numeric feature matrix.
type TableTransformer interface {
	Fit(t *features.Table, y []float64) error
	Transform(t *features.Table) (*mat.Dense, error)
}

// Model is a fitted-or-unfitted predictor of targets from a feature table. Score is the
// coefficient of determination of its predictions.
type Model interface {
	Fit(t *features.Table, y []float64) error
	Predict(t *features.Table) ([]float64, error)
	Score(t *features.Table, y []float64) (float64, error)
}

func checkRows(rows int, y []float64) error {
	if rows != len(y) {
		return errors.Wrapf(ErrShape, "%d rows but %d targets", rows, len(y))
	}
	if rows == 0 {
		return errors.New("cannot fit on zero rows")
	}
	return nil
}
