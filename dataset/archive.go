package dataset

import (
	"context"
	"log"
	"path/filepath"
	"sort"

	"github.com/hscells/brainage/cache"
	"github.com/hscells/brainage/features"
	"github.com/pkg/errors"
	"github.com/xtgo/set"
)

// Archive reads precomputed band covariances from a feature archive keyed by subject, and ages
// from the participants file of the BIDS root. Subjects missing from either side are left out.
type Archive struct {
	DatasetName string
	Root        string
	Features    string
	AgeColumn   string
	Bands       features.Bands
	// CacheSize is the number of subjects kept decoded in memory.
	CacheSize int
}

// NewCamCAN configures the Cam-CAN resting-state MEG features.
func NewCamCAN(root, archive string) *Archive {
	return &Archive{
		DatasetName: "camcan",
		Root:        root,
		Features:    archive,
		AgeColumn:   "age",
		Bands:       features.SevenBands,
		CacheSize:   64,
	}
}

// Name implements Dataset.
func (a *Archive) Name() string {
	return a.DatasetName
}

// Data implements Dataset.
func (a *Archive) Data(ctx context.Context) (Data, error) {
	participants, err := ReadParticipantsFile(filepath.Join(a.Root, "participants.tsv"), a.AgeColumn)
	if err != nil {
		return Data{}, err
	}
	store, err := cache.NewArchive(a.Features, a.CacheSize)
	if err != nil {
		return Data{}, err
	}

	stored := store.Subjects()
	ids := participants.IDs()
	sort.Strings(ids)
	subjects := intersect(stored, ids)
	if len(subjects) < len(stored) {
		log.Printf("%d of %d archived subjects have no age in %s", len(stored)-len(subjects), len(stored), a.Root)
	}
	if len(subjects) == 0 {
		return Data{}, errors.Errorf("no subject of %s has an age", a.Features)
	}

	table, err := features.NewTable(a.Bands)
	if err != nil {
		return Data{}, err
	}
	ages := participants.Ages()
	y := make([]float64, 0, len(subjects))
	for _, s := range subjects {
		if err := ctx.Err(); err != nil {
			return Data{}, err
		}
		covs, err := store.Read(s)
		if err != nil {
			return Data{}, errors.Wrapf(err, "subject %s", s)
		}
		if err := table.Append(s, covs); err != nil {
			return Data{}, errors.Wrapf(err, "subject %s", s)
		}
		y = append(y, ages[s])
	}
	return newData(table, y)
}

// intersect returns the elements of both sorted, duplicate-free slices, in order.
func intersect(a, b []string) []string {
	data := make(sort.StringSlice, 0, len(a)+len(b))
	data = append(data, a...)
	data = append(data, b...)
	n := set.Inter(data, len(a))
	return data[:n]
}
