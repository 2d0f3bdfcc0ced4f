package learning

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// DefaultAlphas returns 100 regularisation strengths spaced evenly on a log scale from 1e-5 to 1e10.
func DefaultAlphas() []float64 {
	return floats.LogSpan(make([]float64, 100), 1e-5, 1e10)
}

// RidgeCV is an L2-penalised linear regression that chooses its penalty among Alphas by
// efficient leave-one-out (generalised) cross-validation.
type RidgeCV struct {
	Alphas []float64

	Alpha     float64
	Coef      []float64
	Intercept float64
}

// NewRidgeCV creates a ridge regressor over the default alpha grid.
func NewRidgeCV() *RidgeCV {
	return &RidgeCV{Alphas: DefaultAlphas()}
}

// Fit implements Regressor.
func (r *RidgeCV) Fit(X mat.Matrix, y []float64) error {
	n, p := X.Dims()
	if err := checkRows(n, y); err != nil {
		return err
	}
	alphas := r.Alphas
	if len(alphas) == 0 {
		alphas = DefaultAlphas()
	}
	for _, a := range alphas {
		if a <= 0 {
			return errors.Errorf("alpha must be positive, got %v", a)
		}
	}

	xMean, _ := columnStats(X)
	yMean := stat.Mean(y, nil)
	xc := mat.NewDense(n, p, nil)
	xc.Apply(func(i, j int, v float64) float64 {
		return X.At(i, j) - xMean[j]
	}, xc)
	yc := mat.NewVecDense(n, nil)
	for i, v := range y {
		yc.SetVec(i, v-yMean)
	}

	var svd mat.SVD
	if ok := svd.Factorize(xc, mat.SVDThin); !ok {
		return errors.New("ridge: singular value decomposition failed")
	}
	s := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	// Projection of the centred target onto the left singular vectors.
	var uty mat.VecDense
	uty.MulVec(u.T(), yc)

	k := len(s)
	best, bestErr := alphas[0], math.Inf(1)
	for _, alpha := range alphas {
		var loo float64
		for i := 0; i < n; i++ {
			// The hat matrix includes the intercept, which contributes 1/n to every diagonal entry.
			h := 1 / float64(n)
			pred := 0.0
			for j := 0; j < k; j++ {
				shrink := s[j] * s[j] / (s[j]*s[j] + alpha)
				uij := u.At(i, j)
				h += shrink * uij * uij
				pred += shrink * uij * uty.AtVec(j)
			}
			denom := 1 - h
			if denom < 1e-12 {
				denom = 1e-12
			}
			res := (yc.AtVec(i) - pred) / denom
			loo += res * res
		}
		if loo < bestErr {
			best, bestErr = alpha, loo
		}
	}

	// coef = V diag(s / (s^2 + alpha)) U^T yc
	d := mat.NewVecDense(k, nil)
	for j := 0; j < k; j++ {
		d.SetVec(j, s[j]/(s[j]*s[j]+best)*uty.AtVec(j))
	}
	var coef mat.VecDense
	coef.MulVec(&v, d)

	r.Alpha = best
	r.Coef = make([]float64, p)
	for j := range r.Coef {
		r.Coef[j] = coef.AtVec(j)
	}
	r.Intercept = yMean - floats.Dot(xMean, r.Coef)
	return nil
}

// Predict implements Regressor.
func (r *RidgeCV) Predict(X mat.Matrix) ([]float64, error) {
	if r.Coef == nil {
		return nil, ErrNotFitted
	}
	n, p := X.Dims()
	if p != len(r.Coef) {
		return nil, errors.Wrapf(ErrShape, "fitted on %d columns, got %d", len(r.Coef), p)
	}
	var pred mat.VecDense
	pred.MulVec(X, mat.NewVecDense(p, r.Coef))
	out := make([]float64, n)
	for i := range out {
		out[i] = pred.AtVec(i) + r.Intercept
	}
	return out, nil
}
