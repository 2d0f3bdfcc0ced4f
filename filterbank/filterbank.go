// Package filterbank turns per-band covariance matrices into a flat feature vector per subject.
//
// Two methods are supported. The diag method takes the log of each channel's band power. The
// spoc method learns, for every band, spatial filters whose output power covaries with the
// target (source power comodulation) and takes the log power of each filter's output.
package filterbank

import (
	"math"
	"sort"

	"github.com/hscells/brainage/features"
	"github.com/hscells/brainage/learning"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Method names a per-band projection.
type Method string

const (
	Diag Method = "diag"
	SPoC Method = "spoc"
)

// ProjectionParams configures the spoc projection. A zero Rank keeps every filter. A zero
// Scale rescales each band so that its mean trace is one.
type ProjectionParams struct {
	Rank   int     `toml:"rank" yaml:"rank"`
	Scale  float64 `toml:"scale" yaml:"scale"`
	Reg    float64 `toml:"reg" yaml:"reg"`
	Shrink float64 `toml:"shrink" yaml:"shrink"`
}

// Validate checks that the parameters are in range.
func (p ProjectionParams) Validate() error {
	if p.Rank < 0 || p.Reg < 0 || p.Scale < 0 {
		return errors.Errorf("invalid projection parameters %+v", p)
	}
	if p.Shrink < 0 || p.Shrink > 1 {
		return errors.Errorf("shrinkage must be in [0, 1], got %v", p.Shrink)
	}
	return nil
}

// FilterBank implements learning.TableTransformer.
type FilterBank struct {
	Bands  []string
	Method Method
	Params ProjectionParams

	projections []projection
}

// projection maps one band's covariance to features. Covariances are regularised the same way
// at fit and transform time.
type projection struct {
	scale   float64
	shrink  float64
	reg     float64
	filters *mat.Dense
}

// New creates an unfitted filter bank over the named bands.
func New(bands []string, method Method, params ProjectionParams) (*FilterBank, error) {
	if len(bands) == 0 {
		return nil, features.ErrEmptyBands
	}
	switch method {
	case Diag, SPoC:
	default:
		return nil, errors.Errorf("unknown filter bank method %q", method)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &FilterBank{Bands: bands, Method: method, Params: params}, nil
}

// Fit implements learning.TableTransformer.
func (f *FilterBank) Fit(t *features.Table, y []float64) error {
	if t.Rows() != len(y) {
		return errors.Wrapf(learning.ErrShape, "%d rows but %d targets", t.Rows(), len(y))
	}
	f.projections = nil
	projections := make([]projection, len(f.Bands))
	for k, band := range f.Bands {
		covs, err := t.Column(band)
		if err != nil {
			return err
		}
		if f.Method == Diag {
			continue
		}
		p, err := fitSPoC(covs, y, f.Params)
		if err != nil {
			return errors.Wrapf(err, "band %s", band)
		}
		projections[k] = p
	}
	f.projections = projections
	return nil
}

// Transform implements learning.TableTransformer.
func (f *FilterBank) Transform(t *features.Table) (*mat.Dense, error) {
	if f.projections == nil {
		return nil, learning.ErrNotFitted
	}
	if t.Rows() == 0 {
		return nil, errors.New("cannot transform an empty table")
	}
	blocks := make([][][]float64, len(f.Bands))
	width := 0
	for k, band := range f.Bands {
		covs, err := t.Column(band)
		if err != nil {
			return nil, err
		}
		blocks[k] = make([][]float64, len(covs))
		for i, c := range covs {
			if f.Method == Diag {
				blocks[k][i], err = logDiag(c)
			} else {
				blocks[k][i], err = f.projections[k].apply(c)
			}
			if err != nil {
				return nil, errors.Wrapf(err, "band %s, subject %s", band, t.Subjects[i])
			}
		}
		width += len(blocks[k][0])
	}

	X := mat.NewDense(t.Rows(), width, nil)
	for i := 0; i < t.Rows(); i++ {
		col := 0
		for k := range blocks {
			for _, v := range blocks[k][i] {
				X.Set(i, col, v)
				col++
			}
		}
	}
	return X, nil
}

func logDiag(c mat.Symmetric) ([]float64, error) {
	n := c.Symmetric()
	out := make([]float64, n)
	for i := range out {
		v := c.At(i, i)
		if v <= 0 {
			return nil, errors.Errorf("non-positive power %v on channel %d", v, i)
		}
		out[i] = math.Log(v)
	}
	return out, nil
}

// regularise scales c, shrinks it toward a scaled identity and adds reg to its diagonal.
func regularise(c mat.Symmetric, scale, shrink, reg float64) *mat.SymDense {
	n := c.Symmetric()
	out := mat.NewSymDense(n, nil)
	out.ScaleSym(scale, c)
	if shrink > 0 {
		mu := mat.Trace(out) / float64(n)
		out.ScaleSym(1-shrink, out)
		for i := 0; i < n; i++ {
			out.SetSym(i, i, out.At(i, i)+shrink*mu)
		}
	}
	for i := 0; i < n; i++ {
		out.SetSym(i, i, out.At(i, i)+reg)
	}
	return out
}

func fitSPoC(covs []*mat.SymDense, y []float64, params ProjectionParams) (projection, error) {
	n := len(covs)
	if n == 0 {
		return projection{}, errors.New("cannot fit spoc on zero subjects")
	}
	dim := covs[0].Symmetric()

	scale := params.Scale
	if scale == 0 {
		var trace float64
		for _, c := range covs {
			trace += mat.Trace(c)
		}
		trace /= float64(n)
		if trace <= 0 {
			return projection{}, errors.New("covariances have no power")
		}
		scale = 1 / trace
	}

	// Standardised target weights; a constant target gives zero weights.
	mean, std := stat.MeanStdDev(y, nil)
	weights := make([]float64, n)
	if std > 0 && !math.IsNaN(std) {
		for i, v := range y {
			weights[i] = (v - mean) / std
		}
	}

	cMean := mat.NewSymDense(dim, nil)
	cWeighted := mat.NewSymDense(dim, nil)
	for i, c := range covs {
		r := regularise(c, scale, params.Shrink, params.Reg)
		cMean.AddSym(cMean, r)
		var w mat.SymDense
		w.ScaleSym(weights[i], r)
		cWeighted.AddSym(cWeighted, &w)
	}
	cMean.ScaleSym(1/float64(n), cMean)
	cWeighted.ScaleSym(1/float64(n), cWeighted)

	// Whiten by the mean covariance: P = E diag(1/sqrt(λ)).
	var es mat.EigenSym
	if ok := es.Factorize(cMean, true); !ok {
		return projection{}, errors.New("eigendecomposition of the mean covariance failed")
	}
	values := es.Values(nil)
	var vectors mat.Dense
	es.VectorsTo(&vectors)
	whiten := mat.NewDense(dim, dim, nil)
	for j, l := range values {
		if l <= 0 {
			return projection{}, errors.Errorf("mean covariance is not positive definite (eigenvalue %v)", l)
		}
		for i := 0; i < dim; i++ {
			whiten.Set(i, j, vectors.At(i, j)/math.Sqrt(l))
		}
	}

	// Eigenvectors of the whitened target-weighted covariance.
	var tmp, white mat.Dense
	tmp.Mul(whiten.T(), cWeighted)
	white.Mul(&tmp, whiten)
	var ew mat.EigenSym
	if ok := ew.Factorize(symmetrize(&white), true); !ok {
		return projection{}, errors.New("eigendecomposition of the weighted covariance failed")
	}
	wValues := ew.Values(nil)
	var wVectors mat.Dense
	ew.VectorsTo(&wVectors)

	order := make([]int, dim)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return math.Abs(wValues[order[a]]) > math.Abs(wValues[order[b]])
	})
	rank := params.Rank
	if rank == 0 || rank > dim {
		rank = dim
	}

	var all mat.Dense
	all.Mul(whiten, &wVectors)
	filters := mat.NewDense(dim, rank, nil)
	for k := 0; k < rank; k++ {
		for i := 0; i < dim; i++ {
			filters.Set(i, k, all.At(i, order[k]))
		}
	}
	return projection{scale: scale, shrink: params.Shrink, reg: params.Reg, filters: filters}, nil
}

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

func (p projection) apply(c *mat.SymDense) ([]float64, error) {
	dim, rank := p.filters.Dims()
	if c.Symmetric() != dim {
		return nil, errors.Wrapf(learning.ErrShape, "filters expect %d channels, got %d", dim, c.Symmetric())
	}
	var proj mat.Dense
	proj.Product(p.filters.T(), regularise(c, p.scale, p.shrink, p.reg), p.filters)
	out := make([]float64, rank)
	for k := range out {
		v := proj.At(k, k)
		if v <= 0 {
			return nil, errors.Errorf("non-positive filtered power %v", v)
		}
		out[k] = math.Log(v)
	}
	return out, nil
}
