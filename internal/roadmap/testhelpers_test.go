package roadmap

import (
	"testing"

	"github.com/banshee-data/path-planner/internal/testutil"
	"github.com/stretchr/testify/require"
)

// newCircleMap builds the synthetic circular track used across the tests.
func newCircleMap(t *testing.T) (*Map, float64) {
	t.Helper()
	pts, maxS := testutil.DefaultTrack()
	wps := make([]Waypoint, len(pts))
	for i, p := range pts {
		wps[i] = Waypoint{X: p.X, Y: p.Y, S: p.S, DX: p.DX, DY: p.DY}
	}
	m, err := New(wps, maxS)
	require.NoError(t, err)
	return m, maxS
}

// newLineMap builds a straight run of waypoints along +x at 10 m spacing.
func newLineMap(t *testing.T) *Map {
	t.Helper()
	m, err := New([]Waypoint{
		{X: 0, Y: 0, S: 0, DX: 0, DY: -1},
		{X: 10, Y: 0, S: 10, DX: 0, DY: -1},
		{X: 20, Y: 0, S: 20, DX: 0, DY: -1},
		{X: 30, Y: 0, S: 30, DX: 0, DY: -1},
	}, 40)
	require.NoError(t, err)
	return m
}
