package planner

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/banshee-data/path-planner/internal/roadmap"
	"github.com/banshee-data/path-planner/internal/testutil"
	"github.com/banshee-data/path-planner/internal/units"
)

// newLineMap returns a straight road along +x with waypoint 0 at the
// origin. Positive d is to the right of travel, so lane 1 runs along y=-6.
func newLineMap(t *testing.T) *roadmap.Map {
	t.Helper()
	var wps []roadmap.Waypoint
	for x := 0.0; x <= 1000; x += 10 {
		wps = append(wps, roadmap.Waypoint{X: x, Y: 0, S: x, DX: 0, DY: -1})
	}
	m, err := roadmap.New(wps, 2000)
	require.NoError(t, err)
	return m
}

// newCircleMap returns the shared synthetic circular track.
func newCircleMap(t *testing.T) *roadmap.Map {
	t.Helper()
	pts, maxS := testutil.DefaultTrack()
	wps := make([]roadmap.Waypoint, len(pts))
	for i, p := range pts {
		wps[i] = roadmap.Waypoint{X: p.X, Y: p.Y, S: p.S, DX: p.DX, DY: p.DY}
	}
	m, err := roadmap.New(wps, maxS)
	require.NoError(t, err)
	return m
}

// straightPath returns n points along y starting at x0 with fixed spacing.
func straightPath(x0, y, spacing float64, n int) ([]float64, []float64) {
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range xs {
		xs[i] = x0 + spacing*float64(i)
		ys[i] = y
	}
	return xs, ys
}

// consume simulates the vehicle driving k points of the previous
// trajectory and builds the next telemetry snapshot from what is left.
func consume(t *testing.T, m *roadmap.Map, prev Trajectory, k int, neighbors []Neighbor) Telemetry {
	t.Helper()
	require.Greater(t, prev.Len(), k)
	require.GreaterOrEqual(t, k, 2)

	ex, ey := prev.X[k-1], prev.Y[k-1]
	yaw := math.Atan2(ey-prev.Y[k-2], ex-prev.X[k-2])
	s, d := m.ToFrenet(ex, ey, yaw)

	remX := append([]float64(nil), prev.X[k:]...)
	remY := append([]float64(nil), prev.Y[k:]...)
	n := len(remX)
	endHeading := yaw
	if n >= 2 {
		endHeading = math.Atan2(remY[n-1]-remY[n-2], remX[n-1]-remX[n-2])
	}
	endS, endD := m.ToFrenet(remX[n-1], remY[n-1], endHeading)

	return Telemetry{
		X: ex, Y: ey, S: s, D: d,
		Yaw:           units.RadToDeg(yaw),
		PreviousPathX: remX,
		PreviousPathY: remY,
		EndPathS:      endS,
		EndPathD:      endD,
		SensorFusion:  neighbors,
	}
}

// stepSpeeds returns the speed implied by each consecutive pair of points.
func stepSpeeds(tr Trajectory, dt float64) []float64 {
	out := make([]float64, 0, tr.Len())
	for i := 1; i < tr.Len(); i++ {
		out = append(out, math.Hypot(tr.X[i]-tr.X[i-1], tr.Y[i]-tr.Y[i-1])/dt)
	}
	return out
}
