package dataset_test

import (
	"context"
	"fmt"
	"io/ioutil"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hscells/brainage/cache"
	"github.com/hscells/brainage/dataset"
	"github.com/hscells/brainage/features"
	"github.com/hscells/brainage/preprocess"
	"gonum.org/v1/gonum/mat"
)

func TestReadParticipants(t *testing.T) {
	tsv := "participant_id\tGROUP\tAGE\nsub-001\tPD\t71\nsub-002\tControl\t58.5\n"
	p, err := dataset.ReadParticipants(strings.NewReader(tsv), "age")
	if err != nil {
		t.Fatal(err)
	}
	if len(p) != 2 || p[0].ID != "sub-001" || p[1].Age != 58.5 {
		t.Fatalf("unexpected participants %v", p)
	}
	if ids := p.IDs(); ids[1] != "sub-002" {
		t.Errorf("ids should keep file order, got %v", ids)
	}

	for _, bad := range []string{
		"",
		"id\tage\nsub-001\t20\n",
		"participant_id\tsex\nsub-001\tF\n",
		"participant_id\tage\nsub-001\tn/a\n",
	} {
		if _, err := dataset.ReadParticipants(strings.NewReader(bad), "age"); err == nil {
			t.Errorf("expected an error for %q", bad)
		}
	}
}

func TestSidecar(t *testing.T) {
	var s dataset.Sidecar
	doc := `{"TaskName":"Rest","SamplingFrequency":500,"PowerLineFrequency":"n/a","Manufacturer":{"name":"x"},"EEGReference":null}`
	if err := s.UnmarshalJSON([]byte(doc)); err != nil {
		t.Fatal(err)
	}
	if s.TaskName != "Rest" || s.SamplingFrequency != 500 || s.PowerLineFrequency != 0 {
		t.Errorf("unexpected sidecar %+v", s)
	}

	path := filepath.Join(t.TempDir(), "sub-01_task-Rest_eeg.json")
	if err := dataset.WriteSidecar(path, dataset.Sidecar{SamplingFrequency: 250, PowerLineFrequency: 60}); err != nil {
		t.Fatal(err)
	}
	got, err := dataset.ReadSidecar(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.SamplingFrequency != 250 || got.PowerLineFrequency != 60 {
		t.Errorf("unexpected sidecar %+v", got)
	}
	if p := dataset.SidecarPath("a/sub-01_task-Rest_eeg.tsv"); p != "a/sub-01_task-Rest_eeg.json" {
		t.Errorf("unexpected sidecar path %s", p)
	}
}

var channels = []string{"Fz", "Cz", "Pz", "Oz", "EOG"}

// recording simulates 6 s of EEG at 250 Hz: white noise, a 10 Hz rhythm whose amplitude grows
// with the subject index and 60 Hz mains interference.
func recording(t *testing.T, subject int) *preprocess.Recording {
	const sfreq, n = 250.0, 1500
	rng := rand.New(rand.NewSource(int64(subject)))
	data := make([][]float64, len(channels))
	for ch := range data {
		data[ch] = make([]float64, n)
		for i := range data[ch] {
			tm := float64(i) / sfreq
			data[ch][i] = rng.NormFloat64() +
				float64(subject+1)*math.Sin(2*math.Pi*10*tm+float64(ch)) +
				5*math.Sin(2*math.Pi*60*tm)
		}
	}
	r, err := preprocess.NewRecording(channels, sfreq, data)
	if err != nil {
		t.Fatal(err)
	}
	r.PowerLine = 60
	return r
}

// bidsRoot writes a small BIDS tree with three subjects.
func bidsRoot(t *testing.T) string {
	root := t.TempDir()
	participants := "participant_id\tAGE\nsub-001\t30\nsub-002\t45\nsub-003\t60\nsub-004\t75\n"
	if err := ioutil.WriteFile(filepath.Join(root, "participants.tsv"), []byte(participants), 0644); err != nil {
		t.Fatal(err)
	}
	ds := dataset.NewDS004584(root)
	for i := 0; i < 3; i++ {
		subject := fmt.Sprintf("sub-%03d", i+1)
		if err := dataset.WriteTSV(ds.RecordingPath(subject), recording(t, i), "Rest"); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestReadTSV(t *testing.T) {
	root := bidsRoot(t)
	ds := dataset.NewDS004584(root)
	r, err := dataset.ReadRecording(ds.RecordingPath("sub-002"))
	if err != nil {
		t.Fatal(err)
	}
	if r.Loaded() {
		t.Error("reading a recording should not load its samples")
	}
	if r.SFreq != 250 || r.PowerLine != 60 || len(r.Channels) != 5 {
		t.Fatalf("unexpected recording header %v %v %v", r.SFreq, r.PowerLine, r.Channels)
	}
	if err := r.LoadData(); err != nil {
		t.Fatal(err)
	}
	want := recording(t, 1)
	if r.NSamples() != want.NSamples() || r.Data[3][17] != want.Data[3][17] {
		t.Error("samples changed through the file")
	}

	_, err = dataset.ReadRecording(filepath.Join(root, "x.set"))
	if err == nil {
		t.Fatal("expected an error for an unsupported extension")
	}
	if !strings.Contains(err.Error(), ".tsv") {
		t.Errorf("the error should point to the supported format, got %v", err)
	}
}

func TestBIDS(t *testing.T) {
	root := bidsRoot(t)
	ds := dataset.NewDS004584(root)
	ds.MaxSubjects = 3
	ds.NJobs = 2
	ds.CachePath = filepath.Join(t.TempDir(), "X.gob")

	d, err := ds.Data(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if d.X.Rows() != 3 || len(d.Y) != 3 || d.X.Cols() != 2 {
		t.Fatalf("unexpected shape %dx%d with %d targets", d.X.Rows(), d.X.Cols(), len(d.Y))
	}
	if d.NChannels != 4 {
		t.Errorf("EOG is not in the montage and should be dropped, got %d channels", d.NChannels)
	}
	for i, age := range []float64{30, 45, 60} {
		if d.Y[i] != age || d.X.Subjects[i] != fmt.Sprintf("sub-%03d", i+1) {
			t.Errorf("row %d is misaligned: %s %v", i, d.X.Subjects[i], d.Y[i])
		}
	}
	// Alpha power grows with the subject index.
	alpha, _ := d.X.Column("alpha")
	if !(alpha[0].At(1, 1) < alpha[1].At(1, 1) && alpha[1].At(1, 1) < alpha[2].At(1, 1)) {
		t.Error("expected alpha power to increase across subjects")
	}

	// A second run is served from the cache even without recordings.
	for i := 1; i <= 3; i++ {
		if err := os.RemoveAll(filepath.Join(root, fmt.Sprintf("sub-%03d", i))); err != nil {
			t.Fatal(err)
		}
	}
	cached, err := ds.Data(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !mat.EqualApprox(cached.X.Cell(2, 0), d.X.Cell(2, 0), 1e-12) {
		t.Error("cached features differ from the computed ones")
	}

	ds.Bands = features.SevenBands
	if _, err := ds.Data(context.Background()); err == nil {
		t.Error("expected an error when the cached bands differ")
	}
}

func TestBIDSProgressKeepsStdoutClean(t *testing.T) {
	root := bidsRoot(t)
	ds := dataset.NewDS004584(root)
	ds.MaxSubjects = 2
	ds.Progress = true

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	stdout := os.Stdout
	os.Stdout = w
	_, err = ds.Data(context.Background())
	os.Stdout = stdout
	w.Close()
	if err != nil {
		t.Fatal(err)
	}
	out, err := ioutil.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Errorf("the progress bar should not write to stdout, got %q", out)
	}
}

func TestBIDSMissingRecording(t *testing.T) {
	root := bidsRoot(t)
	ds := dataset.NewDS004584(root)
	if _, err := ds.Data(context.Background()); err == nil {
		t.Error("sub-004 has no recording and should fail the dataset")
	}
}

func TestParallelMapKeepsOrder(t *testing.T) {
	items := []int{5, 1, 4, 2, 3}
	out, err := dataset.ParallelMap(context.Background(), 3, items, func(i int) (int, error) {
		return i * i, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range items {
		if out[i] != v*v {
			t.Fatalf("position %d: want %d got %d", i, v*v, out[i])
		}
	}
	if _, err := dataset.ParallelMap(context.Background(), 2, items, func(i int) (int, error) {
		if i == 4 {
			return 0, fmt.Errorf("failed on %d", i)
		}
		return i, nil
	}); err == nil {
		t.Error("expected the error of one item to fail the map")
	}
}

func TestArchive(t *testing.T) {
	root := t.TempDir()
	participants := "participant_id\tage\tsex\nsub-CC110033\t24\tM\nsub-CC220203\t33\tF\nsub-CC999999\t80\tF\n"
	if err := ioutil.WriteFile(filepath.Join(root, "participants.tsv"), []byte(participants), 0644); err != nil {
		t.Fatal(err)
	}
	store := filepath.Join(t.TempDir(), "features")
	a, err := cache.NewArchive(store, 4)
	if err != nil {
		t.Fatal(err)
	}
	for i, s := range []string{"sub-CC220203", "sub-CC110033", "sub-CC000001"} {
		covs := make([]*mat.SymDense, len(features.SevenBands))
		for j := range covs {
			v := float64(i + j + 1)
			covs[j] = mat.NewSymDense(2, []float64{v, 0, 0, v})
		}
		if err := a.Write(s, covs); err != nil {
			t.Fatal(err)
		}
	}

	d, err := dataset.NewCamCAN(root, store).Data(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if d.X.Rows() != 2 || d.X.Cols() != 7 {
		t.Fatalf("expected the two subjects with features and ages, got %dx%d", d.X.Rows(), d.X.Cols())
	}
	if d.X.Subjects[0] != "sub-CC110033" || d.Y[0] != 24 || d.Y[1] != 33 {
		t.Errorf("unexpected rows %v %v", d.X.Subjects, d.Y)
	}
	if d.X.Cell(0, 0).At(0, 0) != 2 {
		t.Error("features are not aligned with subjects")
	}
}

func TestSimulated(t *testing.T) {
	for _, size := range [][2]int{{10, 30}, {5, 30}} {
		s := dataset.NewSimulated(size[0], size[1])
		d, err := s.Data(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if d.X.Rows() != size[0] || len(d.Y) != size[0] || d.NChannels != size[1] {
			t.Fatalf("%s: unexpected shape", s.Name())
		}
		if d.Bands[0].Name != "all" {
			t.Errorf("unexpected bands %v", d.Bands.Names())
		}
		again, _ := s.Data(context.Background())
		for i := range d.Y {
			if d.Y[i] != again.Y[i] || !mat.Equal(d.X.Cell(i, 0), again.X.Cell(i, 0)) {
				t.Fatal("the same seed should give identical data")
			}
		}
	}
	if _, err := dataset.NewSimulated(0, 30).Data(context.Background()); err == nil {
		t.Error("expected an error for an empty simulation")
	}
}

func TestSimulatedNames(t *testing.T) {
	a := dataset.NewSimulated(10, 30)
	if a.Name() != "Simulated[n_samples=10,n_features=30,random_state=20]" {
		t.Errorf("unexpected name %s", a.Name())
	}
	b := dataset.NewSimulated(10, 30)
	b.Seed = 21
	c := dataset.NewSimulated(10, 30)
	c.SigmaN = 0.5
	names := map[string]bool{}
	for _, s := range []*dataset.Simulated{a, b, c, dataset.NewSimulated(5, 30)} {
		names[s.Name()] = true
	}
	if len(names) != 4 {
		t.Errorf("expected four distinct names, got %v", names)
	}
}
