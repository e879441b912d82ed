package planner

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/path-planner/internal/roadmap"
	"github.com/banshee-data/path-planner/internal/units"
)

// ErrMalformedTelemetry rejects a cycle whose input cannot be planned on.
var ErrMalformedTelemetry = errors.New("planner: malformed telemetry")

// Telemetry is one snapshot from the simulator.
type Telemetry struct {
	X, Y  float64
	S, D  float64
	Yaw   float64 // degrees
	Speed float64 // mph

	// Unconsumed tail of the previous trajectory.
	PreviousPathX []float64
	PreviousPathY []float64
	EndPathS      float64
	EndPathD      float64

	SensorFusion []Neighbor
}

// SpeedMPS returns the ego speed in m/s.
func (t Telemetry) SpeedMPS() float64 { return units.ConvertToMPS(t.Speed, units.MPH) }

func (t Telemetry) validate(horizon int) error {
	if len(t.PreviousPathX) != len(t.PreviousPathY) {
		return fmt.Errorf("%w: previous path has %d x and %d y values",
			ErrMalformedTelemetry, len(t.PreviousPathX), len(t.PreviousPathY))
	}
	if len(t.PreviousPathX) > horizon {
		return fmt.Errorf("%w: previous path has %d points, horizon is %d",
			ErrMalformedTelemetry, len(t.PreviousPathX), horizon)
	}
	if !finite(t.X, t.Y, t.S, t.D, t.Yaw, t.Speed) {
		return fmt.Errorf("%w: non-finite ego state", ErrMalformedTelemetry)
	}
	if len(t.PreviousPathX) > 0 && !finite(t.EndPathS, t.EndPathD) {
		return fmt.Errorf("%w: non-finite end of path", ErrMalformedTelemetry)
	}
	for i := range t.PreviousPathX {
		if !finite(t.PreviousPathX[i], t.PreviousPathY[i]) {
			return fmt.Errorf("%w: previous path point %d is not finite", ErrMalformedTelemetry, i)
		}
	}
	for _, n := range t.SensorFusion {
		if !finite(n.X, n.Y, n.VX, n.VY, n.S, n.D) {
			return fmt.Errorf("%w: sensor fusion entry %d is not finite", ErrMalformedTelemetry, n.ID)
		}
	}
	return nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Result is everything one cycle produced.
type Result struct {
	Trajectory Trajectory  `json:"trajectory"`
	Flags      HazardFlags `json:"flags"`
	Decision   Decision    `json:"decision"`
	State      State       `json:"state"`
	EgoS       float64     `json:"ego_s"` // s the cycle planned from
}

// Planner plans one vehicle. It is not safe for concurrent use.
type Planner struct {
	m      *roadmap.Map
	params Params
	state  State
}

// New returns a Planner on m in the initial lane and speed of p.
func New(m *roadmap.Map, p Params) (*Planner, error) {
	if m == nil {
		return nil, errors.New("planner: nil map")
	}
	if p.MaxS == 0 {
		p.MaxS = m.MaxS()
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("planner: invalid params: %w", err)
	}
	pl := &Planner{m: m, params: p}
	pl.Reset()
	return pl, nil
}

// Params returns the parameters the planner was built with.
func (pl *Planner) Params() Params { return pl.params }

// State returns the state carried into the next cycle.
func (pl *Planner) State() State { return pl.state }

// Reset restores the initial lane and reference speed.
func (pl *Planner) Reset() {
	pl.state = State{Lane: pl.params.InitialLane, ReferenceSpeed: pl.params.InitialSpeed}
}

// Advance plans one cycle. On error the carried state is left unchanged
// and the caller should skip this tick.
func (pl *Planner) Advance(t Telemetry) (Result, error) {
	if err := t.validate(pl.params.Horizon); err != nil {
		return Result{}, err
	}

	unconsumed := len(t.PreviousPathX)
	egoS := t.S
	if unconsumed > 0 {
		egoS = t.EndPathS
	}

	flags := AnalyzeNeighbors(t.SensorFusion, egoS, pl.state.Lane, unconsumed, pl.params)
	decision := DecideLane(flags, pl.state.Lane, pl.params.LaneCount)

	next := State{Lane: decision.Lane, ReferenceSpeed: pl.state.ReferenceSpeed}
	traj, err := Synthesize(pl.m, SynthesisInput{
		X:          t.X,
		Y:          t.Y,
		Yaw:        units.DegToRad(t.Yaw),
		S:          egoS,
		PreviousX:  t.PreviousPathX,
		PreviousY:  t.PreviousPathY,
		Decelerate: decision.Decelerate,
	}, &next, pl.params)
	if err != nil {
		return Result{}, err
	}

	pl.state = next
	return Result{
		Trajectory: traj,
		Flags:      flags,
		Decision:   decision,
		State:      next,
		EgoS:       egoS,
	}, nil
}
