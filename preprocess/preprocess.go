// Package preprocess handles the filtering and resampling of raw recordings before features are extracted.
package preprocess

import (
	"github.com/pkg/errors"
)

// RecordingProcessor is applied to a recording before feature extraction. A processor must not
// modify its input; it returns a new recording instead.
type RecordingProcessor func(r *Recording) (*Recording, error)

// Params configures the canonical preprocessing pipeline. A zero NotchFreq disables the notch stage.
type Params struct {
	NotchFreq float64 `toml:"notch_freq" yaml:"notch_freq"`
	LowFreq   float64 `toml:"l_freq" yaml:"l_freq"`
	HighFreq  float64 `toml:"h_freq" yaml:"h_freq"`
	SFreq     float64 `toml:"sfreq" yaml:"sfreq"`
}

// Canonical is the preprocessing used by the EEG datasets: a 60 Hz notch (with harmonics),
// a 1-49 Hz band-pass and resampling to 200 Hz.
var Canonical = Params{
	NotchFreq: 60,
	LowFreq:   1,
	HighFreq:  49,
	SFreq:     200,
}

// Load reads the recording data into memory on a copy of the recording.
func Load(r *Recording) (*Recording, error) {
	c := r.Copy()
	return c, c.LoadData()
}

// Notch removes mains interference at freq and its harmonics using filter f.
func Notch(f FrequencyFilter, freq float64) RecordingProcessor {
	return func(r *Recording) (*Recording, error) {
		return f.Notch(r, Harmonics(freq, r.SFreq), freq/200)
	}
}

// BandPass restricts a recording to [low, high] Hz using filter f.
func BandPass(f FrequencyFilter, low, high float64) RecordingProcessor {
	return func(r *Recording) (*Recording, error) {
		return f.Filter(r, low, high)
	}
}

// Resample changes the sampling rate of a recording using s.
func Resample(s Resampler, sfreq float64) RecordingProcessor {
	return func(r *Recording) (*Recording, error) {
		return s.Resample(r, sfreq)
	}
}

// Process applies processors to a recording in order.
func Process(r *Recording, processors ...RecordingProcessor) (*Recording, error) {
	var err error
	for i, p := range processors {
		r, err = p(r)
		if err != nil {
			return nil, errors.Wrapf(err, "preprocessing stage %d failed", i)
		}
	}
	return r, nil
}

// Processors expands params into the ordered stages load, notch, band-pass and resample.
func (p Params) Processors() []RecordingProcessor {
	processors := []RecordingProcessor{Load}
	if p.NotchFreq > 0 {
		processors = append(processors, Notch(FFT{}, p.NotchFreq))
	}
	processors = append(processors, BandPass(FFT{}, p.LowFreq, p.HighFreq))
	if p.SFreq > 0 {
		processors = append(processors, Resample(FFT{}, p.SFreq))
	}
	return processors
}

// Apply runs the preprocessing described by params. The input recording is left untouched.
func Apply(r *Recording, p Params) (*Recording, error) {
	return Process(r, p.Processors()...)
}
