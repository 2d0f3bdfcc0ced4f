package learning

import (
	"math"
	"math/rand"

	"github.com/hscells/brainage/features"
	"github.com/pkg/errors"
)

// Split holds the row indices of a train/test partition.
type Split struct {
	Train []int
	Test  []int
}

// TrainTestSplit partitions n rows at random. The test partition receives ceil(testSize*n) rows.
// The same rng state always yields the same partition.
func TrainTestSplit(n int, testSize float64, rng *rand.Rand) (Split, error) {
	if testSize <= 0 || testSize >= 1 {
		return Split{}, errors.Errorf("test size must be in (0, 1), got %v", testSize)
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	if n-nTest < 1 {
		return Split{}, errors.Errorf("%d rows leave no training data at test size %v", n, testSize)
	}
	perm := rng.Perm(n)
	return Split{
		Train: perm[nTest:],
		Test:  perm[:nTest],
	}, nil
}

// Apply takes the split rows of a table and its targets.
func (s Split) Apply(X *features.Table, y []float64) (XTrain, XTest *features.Table, yTrain, yTest []float64, err error) {
	if X.Rows() != len(y) {
		err = errors.Wrapf(ErrShape, "%d rows but %d targets", X.Rows(), len(y))
		return
	}
	XTrain, XTest = X.Take(s.Train), X.Take(s.Test)
	yTrain, yTest = take(y, s.Train), take(y, s.Test)
	return
}

func take(y []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}
