package dataset

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/hscells/brainage/features"
	"github.com/hscells/brainage/simulate"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Simulated generates covariances of NFeatures channels mixing two latent sources, with a target
// that is linear in the log source powers. Every subject shares one mixing matrix.
type Simulated struct {
	NSamples  int
	NFeatures int
	Seed      int64
	NSources  int
	SigmaN    float64
	SigmaY    float64
}

// NewSimulated creates a noise-free simulated dataset with the default seed of 20.
func NewSimulated(nSamples, nFeatures int) *Simulated {
	return &Simulated{
		NSamples:  nSamples,
		NFeatures: nFeatures,
		Seed:      20,
		NSources:  2,
	}
}

// SimulatedBands is the single band every simulated covariance belongs to.
var SimulatedBands = features.Bands{{Name: "all", Low: 1, High: 49}}

// Name implements Dataset. It carries the parameters of the simulation.
func (s *Simulated) Name() string {
	name := fmt.Sprintf("Simulated[n_samples=%d,n_features=%d,random_state=%d", s.NSamples, s.NFeatures, s.Seed)
	if s.SigmaN != 0 || s.SigmaY != 0 {
		name += fmt.Sprintf(",sigma_n=%g,sigma_y=%g", s.SigmaN, s.SigmaY)
	}
	return name + "]"
}

// Data implements Dataset. The same seed always gives the same data.
func (s *Simulated) Data(_ context.Context) (Data, error) {
	if s.NSamples <= 0 || s.NFeatures <= 0 {
		return Data{}, errors.Errorf("invalid simulation size %d x %d", s.NSamples, s.NFeatures)
	}
	rng := rand.New(rand.NewSource(s.Seed))
	a := simulate.Mixing(s.NFeatures, rng)
	mixing := make([]*mat.Dense, s.NSamples)
	for i := range mixing {
		mixing[i] = a
	}
	beta := simulate.Weights(s.NSources, rng)
	powers := simulate.Powers(s.NSamples, s.NSources, 0.01, 1, rng)

	covs, y, err := simulate.Generate(s.NSources, mixing, powers, beta, s.SigmaN, s.SigmaY, rng)
	if err != nil {
		return Data{}, err
	}
	table, err := features.NewTable(SimulatedBands)
	if err != nil {
		return Data{}, err
	}
	for i, c := range covs {
		if err := table.Append(fmt.Sprintf("sim-%03d", i), []*mat.SymDense{c}); err != nil {
			return Data{}, err
		}
	}
	return newData(table, y)
}
