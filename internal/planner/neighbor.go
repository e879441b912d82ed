package planner

import "math"

// Neighbor is one row of the sensor fusion snapshot.
type Neighbor struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
	S  float64 `json:"s"`
	D  float64 `json:"d"`
}

// Speed returns the magnitude of the neighbour's velocity.
func (n Neighbor) Speed() float64 { return math.Hypot(n.VX, n.VY) }

// HazardFlags records which lanes are unsafe this cycle.
type HazardFlags struct {
	Ahead bool `json:"blocked_ahead"`
	Left  bool `json:"blocked_left"`
	Right bool `json:"blocked_right"`
}

// Any reports whether any flag is set.
func (f HazardFlags) Any() bool { return f.Ahead || f.Left || f.Right }

// AnalyzeNeighbors classifies the sensor fusion snapshot against the ego
// vehicle in lane at egoS.
//
// Each neighbour is moved forward by the time the unconsumed remainder
// still takes to drive, then compared with the safety window. A neighbour
// sets at most one flag: blocked ahead when it is in the ego lane and in
// (0, SafetyDistance), otherwise left or right when it is in the adjacent
// lane and in (-SafetyDistance, SafetyDistance).
//
// The s difference is folded into [-MaxS/2, MaxS/2] before the window
// test instead of being used raw, so a neighbour just past the lap line
// counts as ahead of an ego vehicle approaching MaxS.
func AnalyzeNeighbors(neighbors []Neighbor, egoS float64, lane, unconsumed int, p Params) HazardFlags {
	var flags HazardFlags
	lead := float64(unconsumed) * p.TimeStep
	for _, n := range neighbors {
		sDiff := wrapDiff(n.S+lead*n.Speed()-egoS, p.MaxS)
		if sDiff >= p.SafetyDistance {
			continue
		}
		switch {
		case sDiff > 0 && p.inLane(n.D, lane):
			flags.Ahead = true
		case sDiff > -p.SafetyDistance:
			if p.inLane(n.D, lane-1) {
				flags.Left = true
			} else if p.inLane(n.D, lane+1) {
				flags.Right = true
			}
		}
	}
	return flags
}

// wrapDiff folds an s difference into [-maxS/2, maxS/2] so that vehicles
// either side of the lap line compare correctly.
func wrapDiff(diff, maxS float64) float64 {
	if maxS <= 0 {
		return diff
	}
	return math.Remainder(diff, maxS)
}
