package cache

import (
	"sort"

	lru "github.com/hashicorp/golang-lru"
	"github.com/peterbourgon/diskv"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Archive is a keyed on-disk store of per-subject covariance stacks, one matrix per band.
// Values are gob encoded and gzip compressed; recently read subjects are kept in memory.
type Archive struct {
	d      *diskv.Diskv
	recent *lru.Cache
}

// NewArchive opens (or creates) an archive rooted at path. size is the number of decoded
// subjects kept in memory.
func NewArchive(path string, size int) (*Archive, error) {
	if size <= 0 {
		size = 128
	}
	recent, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Archive{
		d: diskv.New(diskv.Options{
			BasePath:     path,
			Transform:    BlockTransform(8),
			CacheSizeMax: 4096 * 1024,
			Compression:  diskv.NewGzipCompression(),
		}),
		recent: recent,
	}, nil
}

// Has reports whether the archive holds features for the subject.
func (a *Archive) Has(subject string) bool {
	return a.d.Has(subject)
}

// Read returns the covariance stack of a subject, or ErrCacheMiss.
func (a *Archive) Read(subject string) ([]*mat.SymDense, error) {
	if v, ok := a.recent.Get(subject); ok {
		return v.([]*mat.SymDense), nil
	}
	if !a.d.Has(subject) {
		return nil, ErrCacheMiss
	}
	b, err := a.d.Read(subject)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read features of %s", subject)
	}
	covs, err := CovsFromBytes(b)
	if err != nil {
		return nil, errors.Wrapf(err, "could not decode features of %s", subject)
	}
	a.recent.Add(subject, covs)
	return covs, nil
}

// Write stores the covariance stack of a subject, replacing any previous value.
func (a *Archive) Write(subject string, covs []*mat.SymDense) error {
	b, err := CovsToBytes(covs)
	if err != nil {
		return err
	}
	if err := a.d.Write(subject, b); err != nil {
		return errors.Wrapf(err, "could not write features of %s", subject)
	}
	a.recent.Remove(subject)
	return nil
}

// Subjects lists the subjects in the archive, sorted.
func (a *Archive) Subjects() []string {
	cancel := make(chan struct{})
	defer close(cancel)
	var subjects []string
	for k := range a.d.Keys(cancel) {
		subjects = append(subjects, k)
	}
	sort.Strings(subjects)
	return subjects
}
