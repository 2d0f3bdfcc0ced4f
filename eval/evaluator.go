// Package eval provides measures for evaluating predictions of a regression model.
package eval

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Evaluator is an interface for scoring predictions against true targets.
type Evaluator interface {
	Score(yTrue, yPred []float64) float64
	Name() string
}

type (
	r2   struct{}
	mae  struct{}
	mse  struct{}
	rmse struct{}
)

var (
	// R2 is the coefficient of determination.
	R2 = r2{}
	// MAE is the mean absolute error.
	MAE = mae{}
	// MSE is the mean squared error.
	MSE = mse{}
	// RMSE is the root mean squared error.
	RMSE = rmse{}
)

func (r2) Name() string {
	return "R2"
}

// Score is 1 - SSres/SStot. When the true targets are constant the score is 1 for a perfect
// prediction and 0 otherwise.
func (r2) Score(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return math.NaN()
	}
	mean := stat.Mean(yTrue, nil)
	var ssTot float64
	for _, v := range yTrue {
		ssTot += (v - mean) * (v - mean)
	}
	if ssTot == 0 {
		if floats.Distance(yTrue, yPred, 2) == 0 {
			return 1
		}
		return 0
	}
	return stat.RSquaredFrom(yPred, yTrue, nil)
}

func (mae) Name() string {
	return "MAE"
}

func (mae) Score(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return math.NaN()
	}
	return floats.Distance(yTrue, yPred, 1) / float64(len(yTrue))
}

func (mse) Name() string {
	return "MSE"
}

func (mse) Score(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return math.NaN()
	}
	d := floats.Distance(yTrue, yPred, 2)
	return d * d / float64(len(yTrue))
}

func (rmse) Name() string {
	return "RMSE"
}

func (rmse) Score(yTrue, yPred []float64) float64 {
	return math.Sqrt(MSE.Score(yTrue, yPred))
}

// Evaluate scores predictions using the supplied evaluation measures.
func Evaluate(evaluators []Evaluator, yTrue, yPred []float64) map[string]float64 {
	scores := make(map[string]float64, len(evaluators))
	for _, e := range evaluators {
		scores[e.Name()] = e.Score(yTrue, yPred)
	}
	return scores
}
