// Package roadmap holds the static track geometry and the conversions
// between world (x, y) coordinates and curvilinear Frenet (s, d)
// coordinates along the track centreline.
//
// A Map is immutable once built and may be shared by any number of
// concurrent planning sessions.
package roadmap

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// ErrEmptyMap is returned when a map is built from no waypoints.
var ErrEmptyMap = errors.New("roadmap: no waypoints")

// Waypoint is one sample of the track centreline.
// S is the cumulative arc length at the sample and (DX, DY) is the unit
// normal pointing away from the centreline.
type Waypoint struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	S  float64 `json:"s"`
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

func (w Waypoint) pos() r2.Vec { return r2.Vec{X: w.X, Y: w.Y} }

// Map is a closed loop of waypoints. After the last waypoint the track
// continues to waypoint 0 and s wraps at MaxS.
type Map struct {
	waypoints []Waypoint
	s         []float64 // tabulated S, for the segment search in ToCartesian
	traveled  []float64 // traveled[i] is the summed segment length from 0 to i
	maxS      float64
}

// New builds a Map from an ordered waypoint table. The table is copied.
func New(waypoints []Waypoint, maxS float64) (*Map, error) {
	if len(waypoints) == 0 {
		return nil, ErrEmptyMap
	}
	if !(maxS > 0) || math.IsInf(maxS, 0) {
		return nil, fmt.Errorf("roadmap: max_s must be positive and finite, got %v", maxS)
	}

	m := &Map{
		waypoints: make([]Waypoint, len(waypoints)),
		s:         make([]float64, len(waypoints)),
		traveled:  make([]float64, len(waypoints)),
		maxS:      maxS,
	}
	copy(m.waypoints, waypoints)

	for i, w := range m.waypoints {
		for _, v := range [...]float64{w.X, w.Y, w.S, w.DX, w.DY} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("roadmap: waypoint %d has non-finite value", i)
			}
		}
		if i > 0 && w.S < m.waypoints[i-1].S {
			return nil, fmt.Errorf("roadmap: waypoint %d has s=%v below previous s=%v", i, w.S, m.waypoints[i-1].S)
		}
		if w.S < 0 || w.S >= maxS {
			return nil, fmt.Errorf("roadmap: waypoint %d has s=%v outside [0, %v)", i, w.S, maxS)
		}
		m.s[i] = w.S
		if i > 0 {
			m.traveled[i] = m.traveled[i-1] + r2.Norm(r2.Sub(w.pos(), m.waypoints[i-1].pos()))
		}
	}
	return m, nil
}

// Len returns the number of waypoints.
func (m *Map) Len() int { return len(m.waypoints) }

// Waypoint returns waypoint i.
func (m *Map) Waypoint(i int) Waypoint { return m.waypoints[i] }

// MaxS returns the loop length at which s wraps back to 0.
func (m *Map) MaxS() float64 { return m.maxS }

// ClosestWaypoint returns the index of the waypoint nearest to (x, y).
// Ties resolve to the lowest index.
func (m *Map) ClosestWaypoint(x, y float64) int {
	p := r2.Vec{X: x, Y: y}
	closest := 0
	best := math.Inf(1)
	for i, w := range m.waypoints {
		if d := r2.Norm(r2.Sub(w.pos(), p)); d < best {
			best = d
			closest = i
		}
	}
	return closest
}

// NextWaypoint returns the first waypoint ahead of (x, y) when travelling
// with the given heading in radians. The closest waypoint is used unless
// the bearing to it differs from the heading by more than π/4, in which
// case it is considered behind and the following waypoint is returned.
func (m *Map) NextWaypoint(x, y, heading float64) int {
	closest := m.ClosestWaypoint(x, y)
	w := m.waypoints[closest]

	bearing := math.Atan2(w.Y-y, w.X-x)
	// Remainder folds the difference into [-π, π] even for unnormalised headings.
	angle := math.Abs(math.Remainder(heading-bearing, 2*math.Pi))
	if angle > math.Pi/4 {
		closest++
		if closest == len(m.waypoints) {
			closest = 0
		}
	}
	return closest
}
