// Package features defines frequency bands, the per-band covariance feature table, and the estimation of
// band-limited covariance matrices from recordings.
package features

import (
	"github.com/pkg/errors"
)

// ErrEmptyBands is returned when a band set has no bands.
var ErrEmptyBands = errors.New("band set is empty")

// Band is a named frequency interval in Hz.
type Band struct {
	Name string  `json:"name" toml:"name" yaml:"name"`
	Low  float64 `json:"low" toml:"low" yaml:"low"`
	High float64 `json:"high" toml:"high" yaml:"high"`
}

// Bands is an ordered set of frequency bands. The order of the bands is the column order of a Table.
// Bands may overlap and need not be contiguous.
type Bands []Band

var (
	// SevenBands is the full band scheme.
	SevenBands = Bands{
		{"low", 0.1, 1},
		{"delta", 1, 4},
		{"theta", 4, 8},
		{"alpha", 8, 15},
		{"beta_low", 15, 26},
		{"beta_mid", 26, 35},
		{"beta_high", 35, 49},
	}
	// ReducedBands is a smaller scheme for quick iterations.
	ReducedBands = Bands{
		{"theta", 4, 8},
		{"alpha", 8, 15},
	}
)

// Validate checks that the band set is non-empty, that names are unique, and that each interval is well formed.
func (b Bands) Validate() error {
	if len(b) == 0 {
		return ErrEmptyBands
	}
	seen := make(map[string]struct{}, len(b))
	for _, band := range b {
		if len(band.Name) == 0 {
			return errors.New("band has no name")
		}
		if _, ok := seen[band.Name]; ok {
			return errors.Errorf("duplicate band %s", band.Name)
		}
		seen[band.Name] = struct{}{}
		if band.Low < 0 || band.High <= band.Low {
			return errors.Errorf("band %s has an invalid interval [%v, %v]", band.Name, band.Low, band.High)
		}
	}
	return nil
}

// Names returns the band names in order.
func (b Bands) Names() []string {
	names := make([]string, len(b))
	for i, band := range b {
		names[i] = band.Name
	}
	return names
}

// Index returns the position of the named band, or -1.
func (b Bands) Index(name string) int {
	for i, band := range b {
		if band.Name == name {
			return i
		}
	}
	return -1
}

// Lookup returns the named band.
func (b Bands) Lookup(name string) (Band, bool) {
	i := b.Index(name)
	if i < 0 {
		return Band{}, false
	}
	return b[i], true
}

// Subset returns the named bands in the order they are requested.
func (b Bands) Subset(names ...string) (Bands, error) {
	if len(names) == 0 {
		return nil, ErrEmptyBands
	}
	s := make(Bands, len(names))
	for i, n := range names {
		band, ok := b.Lookup(n)
		if !ok {
			return nil, errors.Errorf("unknown band %s", n)
		}
		s[i] = band
	}
	return s, nil
}

// Max is the highest frequency covered by the band set.
func (b Bands) Max() float64 {
	var m float64
	for _, band := range b {
		if band.High > m {
			m = band.High
		}
	}
	return m
}
