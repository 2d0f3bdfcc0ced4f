package preprocess

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/dsp/fourier"
)

// FrequencyFilter removes frequency content from a recording.
type FrequencyFilter interface {
	// Filter keeps the content inside [low, high] Hz.
	Filter(r *Recording, low, high float64) (*Recording, error)
	// Notch removes narrow bands of the given width centred on each frequency.
	Notch(r *Recording, freqs []float64, width float64) (*Recording, error)
}

// Resampler changes the sampling rate of a recording.
type Resampler interface {
	Resample(r *Recording, sfreq float64) (*Recording, error)
}

// FFT filters and resamples in the frequency domain of the whole signal.
type FFT struct{}

// spectral applies gain to every frequency bin of every channel and returns a new recording.
func spectral(r *Recording, gain func(freq float64) float64) *Recording {
	c := r.Copy()
	n := c.NSamples()
	if n == 0 {
		return c
	}
	fft := fourier.NewFFT(n)
	coeff := make([]complex128, n/2+1)
	for i, row := range c.Data {
		coeff = fft.Coefficients(coeff, row)
		for k := range coeff {
			g := gain(fft.Freq(k) * r.SFreq)
			if g != 1 {
				coeff[k] *= complex(g, 0)
			}
		}
		c.Data[i] = fft.Sequence(c.Data[i], coeff)
		for j := range c.Data[i] {
			c.Data[i][j] /= float64(n)
		}
	}
	return c
}

// Filter implements FrequencyFilter. A non-positive low frequency keeps the DC component.
func (FFT) Filter(r *Recording, low, high float64) (*Recording, error) {
	if !r.Loaded() {
		return nil, errors.New("cannot filter a recording before its data is loaded")
	}
	if high <= low {
		return nil, errors.Errorf("invalid pass band [%v, %v]", low, high)
	}
	return spectral(r, func(f float64) float64 {
		if (low > 0 && f < low) || f > high {
			return 0
		}
		return 1
	}), nil
}

// Notch implements FrequencyFilter. When no bin falls inside a notch, the nearest bin is removed.
func (FFT) Notch(r *Recording, freqs []float64, width float64) (*Recording, error) {
	if !r.Loaded() {
		return nil, errors.New("cannot filter a recording before its data is loaded")
	}
	n := r.NSamples()
	if n == 0 {
		return r.Copy(), nil
	}
	resolution := r.SFreq / float64(n)
	half := math.Max(width/2, resolution/2)
	return spectral(r, func(f float64) float64 {
		for _, notch := range freqs {
			if math.Abs(f-notch) <= half {
				return 0
			}
		}
		return 1
	}), nil
}

// Resample implements Resampler by truncating or zero-padding the spectrum.
func (FFT) Resample(r *Recording, sfreq float64) (*Recording, error) {
	if !r.Loaded() {
		return nil, errors.New("cannot resample a recording before its data is loaded")
	}
	if sfreq <= 0 {
		return nil, errors.Errorf("invalid sampling frequency %v", sfreq)
	}
	c := r.Copy()
	c.SFreq = sfreq
	n := r.NSamples()
	if n == 0 || sfreq == r.SFreq {
		return c, nil
	}
	m := int(math.Round(float64(n) * sfreq / r.SFreq))
	if m < 1 {
		return nil, errors.Errorf("resampling %d samples from %v Hz to %v Hz leaves no samples", n, r.SFreq, sfreq)
	}

	in := fourier.NewFFT(n)
	out := fourier.NewFFT(m)
	src := make([]complex128, n/2+1)
	for i, row := range r.Data {
		src = in.Coefficients(src, row)
		dst := make([]complex128, m/2+1)
		copy(dst, src)
		// The Nyquist bin of an even-length input is split between two bins once the spectrum is padded.
		if n%2 == 0 && m > n {
			dst[n/2] *= 0.5
		}
		seq := out.Sequence(nil, dst)
		for j := range seq {
			seq[j] /= float64(n)
		}
		c.Data[i] = seq
	}
	return c, nil
}

// Harmonics lists freq and its integer multiples below the Nyquist frequency of sfreq.
func Harmonics(freq, sfreq float64) []float64 {
	var h []float64
	if freq <= 0 {
		return h
	}
	for f := freq; f < sfreq/2; f += freq {
		h = append(h, f)
	}
	return h
}
