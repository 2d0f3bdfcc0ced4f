package preprocess

import (
	"github.com/hscells/brainage/montage"
	"github.com/pkg/errors"
)

// Loader reads the samples of a recording, one slice per channel.
type Loader func() ([][]float64, error)

// Recording is the sensor time series of one subject. Data is indexed [channel][sample].
// A recording read from disk may hold only a Loader until LoadData is called.
type Recording struct {
	Channels []string
	SFreq    float64
	Data     [][]float64
	Montage  *montage.Montage
	// PowerLine is the mains frequency reported alongside the recording, or zero when unknown.
	PowerLine float64

	loader Loader
}

// NewRecording creates an in-memory recording.
func NewRecording(channels []string, sfreq float64, data [][]float64) (*Recording, error) {
	r := &Recording{Channels: channels, SFreq: sfreq, Data: data}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// NewLazyRecording creates a recording whose samples are read on LoadData.
func NewLazyRecording(channels []string, sfreq float64, loader Loader) *Recording {
	return &Recording{Channels: channels, SFreq: sfreq, loader: loader}
}

func (r *Recording) validate() error {
	if r.SFreq <= 0 {
		return errors.Errorf("invalid sampling frequency %v", r.SFreq)
	}
	if len(r.Data) != len(r.Channels) {
		return errors.Errorf("recording has %d channel names but %d data rows", len(r.Channels), len(r.Data))
	}
	for i, row := range r.Data {
		if len(row) != len(r.Data[0]) {
			return errors.Errorf("channel %s has %d samples, expected %d", r.Channels[i], len(row), len(r.Data[0]))
		}
	}
	return nil
}

// Loaded reports whether the samples are in memory.
func (r *Recording) Loaded() bool {
	return r.loader == nil
}

// LoadData reads the samples into memory.
func (r *Recording) LoadData() error {
	if r.Loaded() {
		return nil
	}
	data, err := r.loader()
	if err != nil {
		return errors.Wrap(err, "could not load recording data")
	}
	r.Data = data
	r.loader = nil
	return r.validate()
}

// Copy returns a deep copy of the recording. An unloaded recording shares its loader with the copy.
func (r *Recording) Copy() *Recording {
	c := &Recording{
		Channels:  append([]string(nil), r.Channels...),
		SFreq:     r.SFreq,
		Montage:   r.Montage,
		PowerLine: r.PowerLine,
		loader:    r.loader,
	}
	if r.Data != nil {
		c.Data = make([][]float64, len(r.Data))
		for i, row := range r.Data {
			c.Data[i] = append([]float64(nil), row...)
		}
	}
	return c
}

// NSamples is the number of samples per channel.
func (r *Recording) NSamples() int {
	if len(r.Data) == 0 {
		return 0
	}
	return len(r.Data[0])
}

// Duration is the length of the recording in seconds.
func (r *Recording) Duration() float64 {
	return float64(r.NSamples()) / r.SFreq
}

// Pick returns a recording restricted to the named channels, in the order given.
// Picking an unloaded recording defers the selection until its data is loaded.
func (r *Recording) Pick(names []string) (*Recording, error) {
	index := make(map[string]int, len(r.Channels))
	for i, ch := range r.Channels {
		index[ch] = i
	}
	idx := make([]int, len(names))
	for i, n := range names {
		j, ok := index[n]
		if !ok {
			return nil, errors.Errorf("channel %s not in recording", n)
		}
		idx[i] = j
	}

	c := &Recording{
		Channels:  append([]string(nil), names...),
		SFreq:     r.SFreq,
		Montage:   r.Montage,
		PowerLine: r.PowerLine,
	}
	pick := func(data [][]float64) [][]float64 {
		rows := make([][]float64, len(idx))
		for i, j := range idx {
			rows[i] = append([]float64(nil), data[j]...)
		}
		return rows
	}
	if !r.Loaded() {
		load := r.loader
		c.loader = func() ([][]float64, error) {
			data, err := load()
			if err != nil {
				return nil, err
			}
			if len(data) != len(r.Channels) {
				return nil, errors.Errorf("loaded %d channels, expected %d", len(data), len(r.Channels))
			}
			return pick(data), nil
		}
		return c, nil
	}
	c.Data = pick(r.Data)
	return c, nil
}

// SetMontage attaches positional information. Every channel must be present in the montage.
func (r *Recording) SetMontage(m *montage.Montage) error {
	for _, ch := range r.Channels {
		if !m.Contains(ch) {
			return errors.Errorf("channel %s has no position in montage %s", ch, m.Name)
		}
	}
	r.Montage = m
	return nil
}

// Crop returns the first tmax seconds of a loaded recording, including the sample at tmax.
func (r *Recording) Crop(tmax float64) (*Recording, error) {
	if !r.Loaded() {
		return nil, errors.New("cannot crop a recording before its data is loaded")
	}
	if tmax < 0 {
		return nil, errors.Errorf("invalid crop time %v", tmax)
	}
	n := int(tmax*r.SFreq) + 1
	if n > r.NSamples() {
		n = r.NSamples()
	}
	c := r.Copy()
	for i := range c.Data {
		c.Data[i] = c.Data[i][:n]
	}
	return c, nil
}
