// Package simulate generates synthetic covariance matrices with a known linear relationship
// between source log-powers and the target.
package simulate

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Generate produces one covariance matrix and one target per mixing matrix.
//
// For subject i, the true covariance is block diagonal: the first nSources diagonal entries are
// powers[i], the remaining block is N·Nᵀ where N is Gaussian noise scaled by sigmaN. It is mixed into
// sensor space by the congruence A·C·Aᵀ. The target is log(powers[i])·beta plus Gaussian label
// noise scaled by sigmaY. Draws from rng happen in a fixed order, so a seeded rng gives identical output.
func Generate(nSources int, mixing []*mat.Dense, powers [][]float64, beta []float64, sigmaN, sigmaY float64, rng *rand.Rand) ([]*mat.SymDense, []float64, error) {
	if len(mixing) == 0 {
		return nil, nil, errors.New("no mixing matrices")
	}
	if len(powers) != len(mixing) {
		return nil, nil, errors.Errorf("%d power vectors for %d mixing matrices", len(powers), len(mixing))
	}
	if len(beta) != nSources {
		return nil, nil, errors.Errorf("beta has %d weights for %d sources", len(beta), nSources)
	}
	dim, c := mixing[0].Dims()
	if dim != c {
		return nil, nil, errors.Errorf("mixing matrix must be square, got %dx%d", dim, c)
	}
	if nSources <= 0 || nSources > dim {
		return nil, nil, errors.Errorf("cannot place %d sources in %d dimensions", nSources, dim)
	}

	noise := dim - nSources
	covs := make([]*mat.SymDense, len(mixing))
	for i, a := range mixing {
		if r, c := a.Dims(); r != dim || c != dim {
			return nil, nil, errors.Errorf("mixing matrix %d is %dx%d, expected %dx%d", i, r, c, dim, dim)
		}
		if len(powers[i]) != nSources {
			return nil, nil, errors.Errorf("subject %d has %d powers for %d sources", i, len(powers[i]), nSources)
		}

		latent := mat.NewSymDense(dim, nil)
		for s, p := range powers[i] {
			if p <= 0 {
				return nil, nil, errors.Errorf("subject %d source %d has non-positive power %v", i, s, p)
			}
			latent.SetSym(s, s, p)
		}
		if noise > 0 {
			n := mat.NewDense(noise, noise, nil)
			for r := 0; r < noise; r++ {
				for c := 0; c < noise; c++ {
					n.Set(r, c, sigmaN*rng.NormFloat64())
				}
			}
			var block mat.SymDense
			block.SymOuterK(1, n)
			for r := 0; r < noise; r++ {
				for c := r; c < noise; c++ {
					latent.SetSym(nSources+r, nSources+c, block.At(r, c))
				}
			}
		}

		var mixed mat.Dense
		mixed.Product(a, latent, a.T())
		covs[i] = symmetrize(&mixed)
	}

	y := make([]float64, len(powers))
	for i, p := range powers {
		for s, v := range p {
			y[i] += math.Log(v) * beta[s]
		}
	}
	for i := range y {
		y[i] += sigmaY * rng.NormFloat64()
	}
	return covs, y, nil
}

// symmetrize removes the rounding asymmetry of a congruence product.
func symmetrize(m *mat.Dense) *mat.SymDense {
	n, _ := m.Dims()
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, (m.At(i, j)+m.At(j, i))/2)
		}
	}
	return s
}

// Mixing draws a dim×dim matrix of standard Gaussian entries.
func Mixing(dim int, rng *rand.Rand) *mat.Dense {
	a := mat.NewDense(dim, dim, nil)
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			a.Set(i, j, rng.NormFloat64())
		}
	}
	return a
}

// Powers draws n rows of nSources powers uniformly in [low, high).
func Powers(n, nSources int, low, high float64, rng *rand.Rand) [][]float64 {
	p := make([][]float64, n)
	for i := range p {
		p[i] = make([]float64, nSources)
		for s := range p[i] {
			p[i][s] = low + (high-low)*rng.Float64()
		}
	}
	return p
}

// Weights draws n standard Gaussian weights.
func Weights(n int, rng *rand.Rand) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = rng.NormFloat64()
	}
	return w
}
