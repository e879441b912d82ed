package testutil

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Synthetic track geometry. The loop is centred on the point the Frenet
// sign rule measures against, so positive d is always away from the centre
// and the lane bands sit outside the centreline like on the real highway map.
const (
	TrackCenterX   = 1000.0
	TrackCenterY   = 2000.0
	TrackRadius    = 500.0
	TrackWaypoints = 120
)

// TrackPoint is one row of a synthetic waypoint table.
type TrackPoint struct {
	X, Y, S, DX, DY float64
}

// CircleTrack returns n waypoints on a counter-clockwise circle of the given
// radius around (TrackCenterX, TrackCenterY), plus the closed-loop length.
// Waypoint 0 sits due east of the centre and s is the cumulative chord length.
func CircleTrack(n int, radius float64) ([]TrackPoint, float64) {
	chord := 2 * radius * math.Sin(math.Pi/float64(n))
	pts := make([]TrackPoint, n)
	for i := range pts {
		theta := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = TrackPoint{
			X:  TrackCenterX + radius*math.Cos(theta),
			Y:  TrackCenterY + radius*math.Sin(theta),
			S:  float64(i) * chord,
			DX: math.Cos(theta),
			DY: math.Sin(theta),
		}
	}
	return pts, float64(n) * chord
}

// DefaultTrack is CircleTrack with the package defaults.
func DefaultTrack() ([]TrackPoint, float64) {
	return CircleTrack(TrackWaypoints, TrackRadius)
}

// TrackCSV renders points in the whitespace-separated "x y s dx dy" layout
// of the highway map files.
func TrackCSV(pts []TrackPoint) string {
	var b strings.Builder
	for _, p := range pts {
		fmt.Fprintf(&b, "%.10f %.10f %.10f %.10f %.10f\n", p.X, p.Y, p.S, p.DX, p.DY)
	}
	return b.String()
}

// WriteTrackFile writes the default synthetic track into a temp directory
// and returns its path and loop length.
func WriteTrackFile(t *testing.T) (string, float64) {
	t.Helper()
	pts, maxS := DefaultTrack()
	path := filepath.Join(t.TempDir(), "highway_map.csv")
	if err := os.WriteFile(path, []byte(TrackCSV(pts)), 0644); err != nil {
		t.Fatalf("failed to write track fixture: %v", err)
	}
	return path, maxS
}
