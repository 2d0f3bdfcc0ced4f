package features

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Table holds one covariance matrix per (subject, band). Rows are subjects and columns are bands
// in the order of Bands. All matrices of a table have the same size.
type Table struct {
	Bands    Bands
	Subjects []string

	covs [][]*mat.SymDense
}

// NewTable creates an empty table with one column per band.
func NewTable(bands Bands) (*Table, error) {
	if err := bands.Validate(); err != nil {
		return nil, err
	}
	return &Table{Bands: append(Bands(nil), bands...)}, nil
}

// Append adds a row for a subject. There must be exactly one matrix per band.
func (t *Table) Append(subject string, covs []*mat.SymDense) error {
	if len(covs) != len(t.Bands) {
		return errors.Errorf("subject %s has %d covariances for %d bands", subject, len(covs), len(t.Bands))
	}
	n := t.NChannels()
	for i, c := range covs {
		if c == nil {
			return errors.Errorf("subject %s has no covariance for band %s", subject, t.Bands[i].Name)
		}
		if n == 0 {
			n = c.Symmetric()
		}
		if c.Symmetric() != n {
			return errors.Errorf("subject %s band %s covariance is %dx%d, expected %dx%d", subject, t.Bands[i].Name, c.Symmetric(), c.Symmetric(), n, n)
		}
	}
	t.Subjects = append(t.Subjects, subject)
	t.covs = append(t.covs, append([]*mat.SymDense(nil), covs...))
	return nil
}

// Rows is the number of subjects.
func (t *Table) Rows() int {
	return len(t.covs)
}

// Cols is the number of bands.
func (t *Table) Cols() int {
	return len(t.Bands)
}

// NChannels is the size of the covariance matrices, or zero for an empty table.
func (t *Table) NChannels() int {
	if len(t.covs) == 0 {
		return 0
	}
	return t.covs[0][0].Symmetric()
}

// Cell returns the covariance of row i and band column j.
func (t *Table) Cell(i, j int) *mat.SymDense {
	return t.covs[i][j]
}

// Row returns the covariances of subject row i, one per band.
func (t *Table) Row(i int) []*mat.SymDense {
	return t.covs[i]
}

// Column returns the covariances of all subjects for the named band.
func (t *Table) Column(band string) ([]*mat.SymDense, error) {
	j := t.Bands.Index(band)
	if j < 0 {
		return nil, errors.Errorf("unknown band %s", band)
	}
	col := make([]*mat.SymDense, len(t.covs))
	for i := range t.covs {
		col[i] = t.covs[i][j]
	}
	return col, nil
}

// Take returns a table with the given rows, in the given order. Matrices are shared, not copied.
func (t *Table) Take(idx []int) *Table {
	s := &Table{
		Bands:    t.Bands,
		Subjects: make([]string, len(idx)),
		covs:     make([][]*mat.SymDense, len(idx)),
	}
	for k, i := range idx {
		s.Subjects[k] = t.Subjects[i]
		s.covs[k] = t.covs[i]
	}
	return s
}

// Head returns the first n rows.
func (t *Table) Head(n int) *Table {
	if n > t.Rows() {
		n = t.Rows()
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return t.Take(idx)
}

// Select returns a table restricted to the named bands, in the order they are given.
func (t *Table) Select(names ...string) (*Table, error) {
	bands, err := t.Bands.Subset(names...)
	if err != nil {
		return nil, err
	}
	cols := make([]int, len(names))
	for k, n := range names {
		cols[k] = t.Bands.Index(n)
	}
	s := &Table{
		Bands:    bands,
		Subjects: t.Subjects,
		covs:     make([][]*mat.SymDense, len(t.covs)),
	}
	for i, row := range t.covs {
		s.covs[i] = make([]*mat.SymDense, len(cols))
		for k, j := range cols {
			s.covs[i][k] = row[j]
		}
	}
	return s, nil
}
