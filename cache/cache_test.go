package cache_test

import (
	"path/filepath"
	"testing"

	"github.com/hscells/brainage/cache"
	"github.com/hscells/brainage/features"
	"gonum.org/v1/gonum/mat"
)

func covs(v float64) []*mat.SymDense {
	a := mat.NewSymDense(2, []float64{v, 0.5, 0.5, v})
	b := mat.NewSymDense(2, []float64{2 * v, -0.25, -0.25, 3 * v})
	return []*mat.SymDense{a, b}
}

func TestBlockTransform(t *testing.T) {
	p := cache.BlockTransform(4)("sub-0001")
	if len(p) != 2 || p[0] != "sub-" || p[1] != "0001" {
		t.Errorf("unexpected path %v", p)
	}
	if len(cache.BlockTransform(8)("short")) != 0 {
		t.Error("keys shorter than a block should stay at the root")
	}
}

func TestFeatureFile(t *testing.T) {
	f := cache.FeatureFile{Path: filepath.Join(t.TempDir(), "nested", "X.gob")}
	if f.Exists() {
		t.Fatal("cache should start empty")
	}
	if _, err := f.Load(); err != cache.ErrCacheMiss {
		t.Fatalf("expected a cache miss, got %v", err)
	}

	table, err := features.NewTable(features.Bands{{Name: "theta", Low: 4, High: 8}, {Name: "alpha", Low: 8, High: 15}})
	if err != nil {
		t.Fatal(err)
	}
	for i, s := range []string{"sub-01", "sub-02", "sub-03"} {
		if err := table.Append(s, covs(float64(i+1))); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.Save(table); err != nil {
		t.Fatal(err)
	}
	if !f.Exists() {
		t.Fatal("expected the cache to exist after saving")
	}

	loaded, err := f.Load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Rows() != 3 || loaded.Cols() != 2 || loaded.Subjects[2] != "sub-03" {
		t.Fatalf("unexpected table %v", loaded.Subjects)
	}
	for i := 0; i < table.Rows(); i++ {
		for j := 0; j < table.Cols(); j++ {
			if !mat.Equal(table.Cell(i, j), loaded.Cell(i, j)) {
				t.Errorf("cell (%d, %d) changed through the cache", i, j)
			}
		}
	}
}

func TestArchive(t *testing.T) {
	dir := t.TempDir()
	a, err := cache.NewArchive(dir, 2)
	if err != nil {
		t.Fatal(err)
	}
	for i, s := range []string{"sub-CC220203", "sub-CC110033", "sub-CC321087"} {
		if err := a.Write(s, covs(float64(i+1))); err != nil {
			t.Fatal(err)
		}
	}
	subjects := a.Subjects()
	if len(subjects) != 3 || subjects[0] != "sub-CC110033" || subjects[2] != "sub-CC321087" {
		t.Fatalf("expected sorted subjects, got %v", subjects)
	}

	if _, err := a.Read("sub-missing"); err != cache.ErrCacheMiss {
		t.Errorf("expected a cache miss, got %v", err)
	}

	// A fresh archive on the same directory reads from disk rather than memory.
	b, err := cache.NewArchive(dir, 2)
	if err != nil {
		t.Fatal(err)
	}
	for _, reader := range []*cache.Archive{a, b, b} {
		got, err := reader.Read("sub-CC110033")
		if err != nil {
			t.Fatal(err)
		}
		want := covs(2)
		if len(got) != 2 || !mat.Equal(got[0], want[0]) || !mat.Equal(got[1], want[1]) {
			t.Error("archive returned different covariances")
		}
	}

	if err := a.Write("sub-CC110033", covs(10)); err != nil {
		t.Fatal(err)
	}
	got, err := a.Read("sub-CC110033")
	if err != nil {
		t.Fatal(err)
	}
	if got[0].At(0, 0) != 10 {
		t.Error("a rewritten subject should not be served from memory")
	}
}
