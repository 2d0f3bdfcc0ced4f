// Package cache stores computed covariance features on disk so that expensive feature extraction
// only has to happen once.
package cache

import (
	"bytes"
	"encoding/gob"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrCacheMiss is returned when the requested features are not stored.
var ErrCacheMiss = errors.New("cache miss error")

// BlockTransform determines how diskv should partition folders.
func BlockTransform(blockSize int) func(string) []string {
	return func(s string) []string {
		var (
			sliceSize = len(s) / blockSize
			pathSlice = make([]string, sliceSize)
		)
		for i := 0; i < sliceSize; i++ {
			from, to := i*blockSize, (i*blockSize)+blockSize
			pathSlice[i] = s[from:to]
		}
		return pathSlice
	}
}

// matrix is the gob representation of a symmetric matrix.
type matrix struct {
	N    int
	Data []float64
}

func fromSym(s *mat.SymDense) matrix {
	n := s.Symmetric()
	m := matrix{N: n, Data: make([]float64, n*n)}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			m.Data[i*n+j] = s.At(i, j)
		}
	}
	return m
}

func (m matrix) sym() (*mat.SymDense, error) {
	if m.N <= 0 || len(m.Data) != m.N*m.N {
		return nil, errors.Errorf("malformed matrix of size %d with %d values", m.N, len(m.Data))
	}
	return mat.NewSymDense(m.N, m.Data), nil
}

// CovsToBytes encodes a stack of covariance matrices.
func CovsToBytes(covs []*mat.SymDense) ([]byte, error) {
	stack := make([]matrix, len(covs))
	for i, c := range covs {
		stack[i] = fromSym(c)
	}
	var buff bytes.Buffer
	if err := gob.NewEncoder(&buff).Encode(stack); err != nil {
		return nil, err
	}
	return buff.Bytes(), nil
}

// CovsFromBytes decodes a stack of covariance matrices encoded by CovsToBytes.
func CovsFromBytes(b []byte) ([]*mat.SymDense, error) {
	var stack []matrix
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&stack); err != nil {
		return nil, err
	}
	return toSyms(stack)
}

func toSyms(stack []matrix) ([]*mat.SymDense, error) {
	covs := make([]*mat.SymDense, len(stack))
	for i, m := range stack {
		var err error
		covs[i], err = m.sym()
		if err != nil {
			return nil, err
		}
	}
	return covs, nil
}
