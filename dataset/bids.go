package dataset

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/hscells/brainage/cache"
	"github.com/hscells/brainage/features"
	"github.com/hscells/brainage/montage"
	"github.com/hscells/brainage/preprocess"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/cheggaaa/pb.v1"
)

// BIDS computes band covariances from the raw recordings of a BIDS dataset. Each subject's
// recording is read, restricted to the channels of the montage, preprocessed and summarised
// by one covariance matrix per band.
type BIDS struct {
	DatasetName string
	Root        string
	Task        string
	Datatype    string
	Extension   string
	AgeColumn   string
	// MaxSubjects keeps the first subjects of the participants file. Zero keeps all of them.
	MaxSubjects int
	Bands       features.Bands
	Preprocess  preprocess.Params
	Features    features.Params
	Montage     *montage.Montage
	// NJobs is the number of subjects processed concurrently.
	NJobs int
	// CachePath, when set, stores the computed feature table. An existing file is loaded instead
	// of recomputing, whatever parameters produced it.
	CachePath string
	Progress  bool
}

// NewDS004584 configures the ds004584 resting-state EEG dataset rooted at root.
func NewDS004584(root string) *BIDS {
	return &BIDS{
		DatasetName: "ds004584",
		Root:        root,
		Task:        "Rest",
		Datatype:    "eeg",
		Extension:   ".tsv",
		AgeColumn:   "AGE",
		MaxSubjects: 20,
		Bands:       features.ReducedBands,
		Preprocess:  preprocess.Canonical,
		Features:    features.DefaultParams,
		Montage:     montage.Standard1010(),
		NJobs:       1,
	}
}

// Name implements Dataset.
func (b *BIDS) Name() string {
	return b.DatasetName
}

// RecordingPath is root/subject/datatype/subject_task-<task>_<datatype><ext>.
func (b *BIDS) RecordingPath(subject string) string {
	return filepath.Join(b.Root, subject, b.Datatype,
		fmt.Sprintf("%s_task-%s_%s%s", subject, b.Task, b.Datatype, b.Extension))
}

// Data implements Dataset.
func (b *BIDS) Data(ctx context.Context) (Data, error) {
	participants, err := ReadParticipantsFile(filepath.Join(b.Root, "participants.tsv"), b.AgeColumn)
	if err != nil {
		return Data{}, err
	}
	if b.MaxSubjects > 0 && len(participants) > b.MaxSubjects {
		participants = participants[:b.MaxSubjects]
	}

	var table *features.Table
	file := cache.FeatureFile{Path: b.CachePath}
	if b.CachePath != "" {
		table, err = file.Load()
		if err != nil && err != cache.ErrCacheMiss {
			return Data{}, errors.Wrap(err, "reading feature cache")
		}
		if table != nil {
			log.Printf("loaded %d subjects from %s", table.Rows(), b.CachePath)
			if err := sameBands(table.Bands, b.Bands); err != nil {
				return Data{}, errors.Wrap(err, b.CachePath)
			}
		}
	}

	if table == nil {
		table, err = b.compute(ctx, participants.IDs())
		if err != nil {
			return Data{}, err
		}
		if b.CachePath != "" {
			if err := file.Save(table); err != nil {
				return Data{}, errors.Wrap(err, "writing feature cache")
			}
		}
	}

	ages := participants.Ages()
	y := make([]float64, table.Rows())
	for i, s := range table.Subjects {
		age, ok := ages[s]
		if !ok {
			return Data{}, errors.Errorf("subject %s has no age", s)
		}
		y[i] = age
	}
	return newData(table, y)
}

func sameBands(a, b features.Bands) error {
	if len(a) != len(b) {
		return errors.Errorf("cached bands %v differ from %v", a.Names(), b.Names())
	}
	for i := range a {
		if a[i].Name != b[i].Name {
			return errors.Errorf("cached bands %v differ from %v", a.Names(), b.Names())
		}
	}
	return nil
}

func (b *BIDS) compute(ctx context.Context, subjects []string) (*features.Table, error) {
	log.Printf("computing features for %d subjects of %s", len(subjects), b.DatasetName)
	var bar *pb.ProgressBar
	if b.Progress {
		bar = pb.New(len(subjects))
		bar.Output = os.Stderr
		bar.Start()
	}
	covs, err := ParallelMap(ctx, b.NJobs, subjects, func(subject string) ([]*mat.SymDense, error) {
		c, err := b.Subject(subject)
		if bar != nil {
			bar.Increment()
		}
		return c, err
	})
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return nil, err
	}

	table, err := features.NewTable(b.Bands)
	if err != nil {
		return nil, err
	}
	for i, s := range subjects {
		if err := table.Append(s, covs[i]); err != nil {
			return nil, errors.Wrapf(err, "subject %s", s)
		}
	}
	return table, nil
}

// Subject computes the band covariances of one subject's recording.
func (b *BIDS) Subject(subject string) ([]*mat.SymDense, error) {
	path := b.RecordingPath(subject)
	raw, err := ReadRecording(path)
	if err != nil {
		return nil, errors.Wrapf(err, "subject %s", subject)
	}
	picks := b.Montage.Match(raw.Channels)
	if len(picks) == 0 {
		return nil, errors.Errorf("subject %s: no channel of %s is in montage %s", subject, path, b.Montage.Name)
	}
	raw, err = raw.Pick(picks)
	if err != nil {
		return nil, errors.Wrapf(err, "subject %s", subject)
	}
	if err := raw.SetMontage(b.Montage); err != nil {
		return nil, errors.Wrapf(err, "subject %s", subject)
	}
	r, err := preprocess.Apply(raw, b.Preprocess)
	if err != nil {
		return nil, errors.Wrapf(err, "subject %s", subject)
	}
	covs, err := features.Covariances(r, b.Bands, b.Features)
	if err != nil {
		return nil, errors.Wrapf(err, "subject %s", subject)
	}
	return covs, nil
}

// ParallelMap applies fn to every item using at most workers goroutines. The output order
// matches the input order. The first error cancels the items not yet started.
func ParallelMap[T, R any](ctx context.Context, workers int, items []T, fn func(T) (R, error)) ([]R, error) {
	if workers < 1 {
		workers = 1
	}
	out := make([]R, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, item := range items {
		i, item := i, item
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := fn(item)
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
