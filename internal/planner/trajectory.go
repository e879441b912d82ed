package planner

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/path-planner/internal/roadmap"
)

// Trajectory is a sequence of world points spaced one TimeStep apart.
type Trajectory struct {
	X []float64 `json:"next_x"`
	Y []float64 `json:"next_y"`
}

// Len returns the number of points.
func (t Trajectory) Len() int { return len(t.X) }

// State is what the planner carries from one cycle to the next.
type State struct {
	Lane           int     `json:"lane"`
	ReferenceSpeed float64 `json:"reference_speed"` // m/s
}

// SynthesisInput is the per-cycle geometry the synthesizer needs.
type SynthesisInput struct {
	X, Y       float64 // ego position
	Yaw        float64 // ego heading, radians
	S          float64 // longitudinal position the anchors are measured from
	PreviousX  []float64
	PreviousY  []float64
	Decelerate bool
}

// buildAnchors returns the spline anchors in world coordinates together
// with the reference point and heading of the local frame.
//
// The first two anchors keep the new path tangent to what came before.
// With at least two remainder points, ref is the last one and the other
// anchor is the latest earlier point that differs from it; a stopped
// vehicle leaves a tail of repeated points. Otherwise ref is the ego
// position. When no distinct earlier point exists the pair is a point one
// metre behind ref along the ego yaw and ref itself. Three more anchors
// follow at one, two and three safety distances ahead in the middle of
// lane.
func buildAnchors(m *roadmap.Map, in SynthesisInput, lane int, p Params) ([]r2.Vec, r2.Vec, float64) {
	anchors := make([]r2.Vec, 0, 5)

	ref := r2.Vec{X: in.X, Y: in.Y}
	heading := in.Yaw
	found := false
	if n := len(in.PreviousX); n >= 2 {
		ref = r2.Vec{X: in.PreviousX[n-1], Y: in.PreviousY[n-1]}
		for i := n - 2; i >= 0; i-- {
			before := r2.Vec{X: in.PreviousX[i], Y: in.PreviousY[i]}
			if before == ref {
				continue
			}
			heading = math.Atan2(ref.Y-before.Y, ref.X-before.X)
			anchors = append(anchors, before, ref)
			found = true
			break
		}
	}
	if !found {
		back := r2.Sub(ref, r2.Vec{X: math.Cos(heading), Y: math.Sin(heading)})
		anchors = append(anchors, back, ref)
	}

	d := p.laneCenter(lane)
	for i := 1; i <= 3; i++ {
		x, y := m.ToCartesian(in.S+p.SafetyDistance*float64(i), d)
		anchors = append(anchors, r2.Vec{X: x, Y: y})
	}
	return anchors, ref, heading
}

// Synthesize produces the next trajectory for state.Lane.
//
// The remainder is copied unchanged and the rest of the horizon is filled
// from the spline. Before each new point the reference speed moves one
// SpeedIncrement: down when decelerating (never below zero), otherwise up
// until SpeedLimit. The point is placed by stepping the local x cursor so
// that the chord to the SafetyDistance lookahead would be covered in
// TimeStep at that speed.
//
// state.ReferenceSpeed is updated only when a trajectory is returned.
func Synthesize(m *roadmap.Map, in SynthesisInput, state *State, p Params) (Trajectory, error) {
	world, ref, heading := buildAnchors(m, in, state.Lane, p)
	local := make([]r2.Vec, len(world))
	for i, a := range world {
		local[i] = toLocal(a, ref, heading)
	}
	spline, err := fitSpline(local)
	if err != nil {
		return Trajectory{}, err
	}

	out := Trajectory{
		X: make([]float64, 0, p.Horizon),
		Y: make([]float64, 0, p.Horizon),
	}
	out.X = append(out.X, in.PreviousX...)
	out.Y = append(out.Y, in.PreviousY...)

	targetX := p.SafetyDistance
	targetDist := math.Hypot(targetX, spline.Predict(targetX))

	speed := state.ReferenceSpeed
	cursor := 0.0
	for out.Len() < p.Horizon {
		switch {
		case in.Decelerate:
			speed = math.Max(0, speed-p.SpeedIncrement)
		case speed < p.SpeedLimit:
			speed = math.Min(p.SpeedLimit, speed+p.SpeedIncrement)
		}

		// Equivalent to target_x / (target_dist / (dt * v)) without dividing by v.
		cursor += targetX * p.TimeStep * speed / targetDist

		pt := toWorld(r2.Vec{X: cursor, Y: spline.Predict(cursor)}, ref, heading)
		out.X = append(out.X, pt.X)
		out.Y = append(out.Y, pt.Y)
	}

	state.ReferenceSpeed = speed
	return out, nil
}
