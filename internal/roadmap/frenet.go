package roadmap

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
)

// signReference is the fixed world point used to decide the sign of d.
// It lies inside the loop of the highway track, so points nearer to it
// than their centreline projection are on the inner (negative) side.
var signReference = r2.Vec{X: 1000, Y: 2000}

// ToFrenet converts a world position and heading (radians) to (s, d).
//
// The position is projected onto the segment leading into NextWaypoint.
// s is the summed segment length up to the segment start plus the
// projection length. A zero-length segment projects to its start point.
func (m *Map) ToFrenet(x, y, heading float64) (s, d float64) {
	next := m.NextWaypoint(x, y, heading)
	prev := next - 1
	if next == 0 {
		prev = len(m.waypoints) - 1
	}

	origin := m.waypoints[prev].pos()
	seg := r2.Sub(m.waypoints[next].pos(), origin)
	rel := r2.Sub(r2.Vec{X: x, Y: y}, origin)

	var proj r2.Vec
	if n2 := r2.Norm2(seg); n2 > 0 {
		proj = r2.Scale(r2.Dot(rel, seg)/n2, seg)
	}

	d = r2.Norm(r2.Sub(rel, proj))

	center := r2.Sub(signReference, origin)
	centerToPos := r2.Norm(r2.Sub(center, rel))
	centerToRef := r2.Norm(r2.Sub(center, proj))
	if centerToPos <= centerToRef {
		d = -d
	}

	s = m.traveled[prev] + r2.Norm(proj)
	return s, d
}

// ToCartesian converts (s, d) to a world position by walking straight
// along the track segment containing s and stepping d to its right.
//
// s is first wrapped into [0, MaxS). The segment starts at the last
// waypoint whose s is strictly below the wrapped value; when no such
// waypoint exists the closing segment from the last waypoint back to
// waypoint 0 is used.
func (m *Map) ToCartesian(s, d float64) (x, y float64) {
	s = math.Mod(s, m.maxS)
	if s < 0 {
		s += m.maxS
	}

	n := len(m.waypoints)
	prev := sort.SearchFloat64s(m.s, s) - 1
	segS := 0.0
	if prev < 0 {
		prev = n - 1
		segS = s + m.maxS - m.s[prev]
	} else {
		segS = s - m.s[prev]
	}
	next := (prev + 1) % n

	a := m.waypoints[prev]
	b := m.waypoints[next]
	heading := math.Atan2(b.Y-a.Y, b.X-a.X)
	perp := heading - math.Pi/2

	x = a.X + segS*math.Cos(heading) + d*math.Cos(perp)
	y = a.Y + segS*math.Sin(heading) + d*math.Sin(perp)
	return x, y
}
