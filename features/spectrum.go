package features

import (
	"math"

	"github.com/hscells/brainage/preprocess"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Params configures the estimation of band covariances.
type Params struct {
	// NFFT is the segment length of the Welch estimate.
	NFFT int `toml:"n_fft" yaml:"n_fft"`
	// NOverlap is the number of samples shared by consecutive segments.
	NOverlap int `toml:"n_overlap" yaml:"n_overlap"`
	// FMax is the highest frequency kept in the spectrum.
	FMax float64 `toml:"fmax" yaml:"fmax"`
	// TMax crops the recording to its first TMax seconds. Zero keeps the whole recording.
	TMax float64 `toml:"tmax" yaml:"tmax"`
}

// DefaultParams are the feature parameters of the EEG datasets.
var DefaultParams = Params{
	NFFT:     1024,
	NOverlap: 512,
	FMax:     49,
	TMax:     100,
}

// CovarianceEstimator produces one covariance matrix per band for a recording.
type CovarianceEstimator interface {
	Covariances(r *preprocess.Recording, bands Bands) ([]*mat.SymDense, error)
}

// Spectrum is the real part of a one-sided cross-spectral density, one channel-by-channel matrix per frequency.
type Spectrum struct {
	Freqs []float64
	CSD   []*mat.SymDense
}

// CrossSpectrum estimates the cross-spectral density of data ([channel][sample]) with Welch's method
// using Hann windowed segments of nfft samples overlapping by noverlap. Frequencies above fmax are dropped.
func CrossSpectrum(data [][]float64, sfreq float64, nfft, noverlap int, fmax float64) (Spectrum, error) {
	if len(data) == 0 || len(data[0]) == 0 {
		return Spectrum{}, errors.New("cannot estimate the spectrum of an empty signal")
	}
	n := len(data[0])
	if nfft <= 0 || nfft > n {
		nfft = n
	}
	if noverlap < 0 || noverlap >= nfft {
		noverlap = nfft / 2
	}
	step := nfft - noverlap

	window := make([]float64, nfft)
	var power float64
	for j := range window {
		window[j] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(j)/float64(nfft))
		power += window[j] * window[j]
	}

	fft := fourier.NewFFT(nfft)
	var freqs []float64
	for k := 0; k <= nfft/2; k++ {
		f := fft.Freq(k) * sfreq
		if fmax > 0 && f > fmax {
			break
		}
		freqs = append(freqs, f)
	}
	csd := make([]*mat.SymDense, len(freqs))
	for k := range csd {
		csd[k] = mat.NewSymDense(len(data), nil)
	}

	var (
		segments int
		seg      = make([]float64, nfft)
		coeff    = make([][]complex128, len(data))
		re       = make([]float64, len(data))
		im       = make([]float64, len(data))
	)
	for start := 0; start+nfft <= n; start += step {
		for c, row := range data {
			mean := stat.Mean(row[start:start+nfft], nil)
			for j := range seg {
				seg[j] = (row[start+j] - mean) * window[j]
			}
			coeff[c] = fft.Coefficients(coeff[c], seg)
		}
		for k := range freqs {
			for c := range data {
				re[c] = real(coeff[c][k])
				im[c] = imag(coeff[c][k])
			}
			csd[k].SymRankOne(csd[k], 1, mat.NewVecDense(len(re), re))
			csd[k].SymRankOne(csd[k], 1, mat.NewVecDense(len(im), im))
		}
		segments++
	}

	for k := range csd {
		scale := 1 / (sfreq * power * float64(segments))
		// One-sided density: every bin but DC and Nyquist carries the power of its negative twin.
		if k > 0 && !(nfft%2 == 0 && k == nfft/2) {
			scale *= 2
		}
		csd[k].ScaleSym(scale, csd[k])
	}
	return Spectrum{Freqs: freqs, CSD: csd}, nil
}

// Mean averages the cross-spectrum over the frequencies in [low, high].
func (s Spectrum) Mean(low, high float64) (*mat.SymDense, error) {
	var (
		sum   *mat.SymDense
		count int
	)
	for k, f := range s.Freqs {
		if f < low || f > high {
			continue
		}
		if sum == nil {
			sum = mat.NewSymDense(s.CSD[k].Symmetric(), nil)
		}
		sum.AddSym(sum, s.CSD[k])
		count++
	}
	if count == 0 {
		return nil, errors.Errorf("no frequency bin in [%v, %v] Hz", low, high)
	}
	sum.ScaleSym(1/float64(count), sum)
	return sum, nil
}

// Welch estimates band covariances by averaging a Welch cross-spectrum over each band.
type Welch struct {
	Params
}

// Covariances implements CovarianceEstimator. The sampling rate is taken from the recording itself.
func (w Welch) Covariances(r *preprocess.Recording, bands Bands) ([]*mat.SymDense, error) {
	if err := bands.Validate(); err != nil {
		return nil, err
	}
	if !r.Loaded() {
		return nil, errors.New("cannot compute covariances before the recording data is loaded")
	}
	if w.TMax > 0 {
		var err error
		r, err = r.Crop(w.TMax)
		if err != nil {
			return nil, err
		}
	}
	fmax := w.FMax
	if fmax <= 0 {
		fmax = bands.Max()
	}
	spec, err := CrossSpectrum(r.Data, r.SFreq, w.NFFT, w.NOverlap, fmax)
	if err != nil {
		return nil, err
	}
	covs := make([]*mat.SymDense, len(bands))
	for i, band := range bands {
		covs[i], err = spec.Mean(band.Low, band.High)
		if err != nil {
			return nil, errors.Wrapf(err, "band %s", band.Name)
		}
	}
	return covs, nil
}

// Covariances computes one covariance matrix per band using a Welch estimate with params p.
func Covariances(r *preprocess.Recording, bands Bands, p Params) ([]*mat.SymDense, error) {
	return Welch{Params: p}.Covariances(r, bands)
}
