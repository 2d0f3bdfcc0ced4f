// Package montage provides standard sensor layouts and the matching of recorded channels against them.
package montage

import (
	"math"
	"strconv"
)

// Position is a sensor location on the unit sphere. X points right, Y points to the nasion and Z points up.
type Position struct {
	X, Y, Z float64
}

// Montage maps channel names to standardised positions.
type Montage struct {
	Name  string
	names []string
	pos   map[string]Position
}

// New creates a montage from an ordered list of names and their positions.
func New(name string, names []string, positions []Position) *Montage {
	m := &Montage{
		Name:  name,
		names: make([]string, 0, len(names)),
		pos:   make(map[string]Position, len(names)),
	}
	for i, n := range names {
		if _, ok := m.pos[n]; ok {
			continue
		}
		m.names = append(m.names, n)
		m.pos[n] = positions[i]
	}
	return m
}

// Names returns the channel names of the montage in template order.
func (m *Montage) Names() []string {
	n := make([]string, len(m.names))
	copy(n, m.names)
	return n
}

// Len is the number of channels in the montage.
func (m *Montage) Len() int {
	return len(m.names)
}

// Contains reports whether the montage has a position for the channel.
func (m *Montage) Contains(channel string) bool {
	_, ok := m.pos[channel]
	return ok
}

// Position returns the position of a channel.
func (m *Montage) Position(channel string) (Position, bool) {
	p, ok := m.pos[channel]
	return p, ok
}

// Match returns the channels that are present in the montage. The order of the
// recording is kept so that data rows stay aligned with channel names.
func (m *Montage) Match(channels []string) []string {
	var picked []string
	for _, ch := range channels {
		if m.Contains(ch) {
			picked = append(picked, ch)
		}
	}
	return picked
}

type row struct {
	prefix string
	// ap is the anterior-posterior angle from Cz in degrees.
	ap   float64
	cols []int
}

// 10-10 rows; column 0 denotes the midline electrode.
var rows1010 = []row{
	{"Fp", 72, []int{0, 1, 2}},
	{"AF", 54, []int{0, 3, 4, 7, 8}},
	{"F", 36, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
	{"FT", 18, []int{7, 8, 9, 10}},
	{"FC", 18, []int{0, 1, 2, 3, 4, 5, 6}},
	{"T", 0, []int{7, 8, 9, 10}},
	{"C", 0, []int{0, 1, 2, 3, 4, 5, 6}},
	{"TP", -18, []int{7, 8, 9, 10}},
	{"CP", -18, []int{0, 1, 2, 3, 4, 5, 6}},
	{"P", -36, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
	{"PO", -54, []int{0, 3, 4, 7, 8}},
	{"O", -72, []int{0, 1, 2}},
	{"I", -90, []int{0}},
}

var legacy = [][2]string{
	{"T3", "T7"},
	{"T4", "T8"},
	{"T5", "P7"},
	{"T6", "P8"},
}

func spherical(ap, lateral float64) Position {
	a := ap * math.Pi / 180
	b := lateral * math.Pi / 180
	return Position{
		X: math.Sin(b),
		Y: math.Sin(a) * math.Cos(b),
		Z: math.Cos(a) * math.Cos(b),
	}
}

// Standard1010 is the 10-10 template, including the legacy 10-20 temporal names (T3, T4, T5, T6).
// Positions are idealised spherical coordinates in 18 degree steps.
func Standard1010() *Montage {
	var (
		names     []string
		positions []Position
	)
	for _, r := range rows1010 {
		for _, c := range r.cols {
			name := r.prefix + "z"
			lateral := 0.0
			if c > 0 {
				name = r.prefix + strconv.Itoa(c)
				lateral = float64((c+1)/2) * 18
				if c%2 == 1 {
					lateral = -lateral
				}
			}
			names = append(names, name)
			positions = append(positions, spherical(r.ap, lateral))
		}
	}
	m := New("standard_1010", names, positions)
	for _, alias := range legacy {
		m.names = append(m.names, alias[0])
		m.pos[alias[0]] = m.pos[alias[1]]
	}
	return m
}
