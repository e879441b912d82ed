package planner

import (
	"fmt"
	"math"

	"github.com/banshee-data/path-planner/internal/config"
	"github.com/banshee-data/path-planner/internal/units"
)

// Params holds every tunable constant of the planner. Distances are in
// metres, times in seconds and speeds in m/s.
type Params struct {
	TimeStep       float64 `json:"time_step"`       // seconds between trajectory points
	Horizon        int     `json:"horizon"`         // points per emitted trajectory
	LaneWidth      float64 `json:"lane_width"`      // metres
	LaneCount      int     `json:"lane_count"`      // lanes, 0 is leftmost
	SafetyDistance float64 `json:"safety_distance"` // hazard window and anchor spacing
	SpeedLimit     float64 `json:"speed_limit"`     // m/s
	SpeedIncrement float64 `json:"speed_increment"` // m/s change per trajectory point
	InitialLane    int     `json:"initial_lane"`
	InitialSpeed   float64 `json:"initial_speed"` // m/s
	// MaxS is the loop length used to wrap s differences between the ego
	// vehicle and its neighbours. Zero disables wrapping; New fills it
	// from the map.
	MaxS float64 `json:"max_s"`
}

// DefaultParams returns the constants the highway simulator expects.
func DefaultParams() Params {
	return Params{
		TimeStep:       0.02,
		Horizon:        50,
		LaneWidth:      4,
		LaneCount:      3,
		SafetyDistance: 32,
		SpeedLimit:     22.1,
		SpeedIncrement: 0.1,
		InitialLane:    1,
		InitialSpeed:   0,
	}
}

// ParamsFromTuning builds Params from a loaded tuning config, converting
// speed values from the config's units to m/s.
func ParamsFromTuning(cfg *config.TuningConfig) Params {
	u := cfg.GetSpeedUnits()
	return Params{
		TimeStep:       cfg.GetTimeStep(),
		Horizon:        cfg.GetHorizonLength(),
		LaneWidth:      cfg.GetLaneWidth(),
		LaneCount:      cfg.GetLaneCount(),
		SafetyDistance: cfg.GetSafetyDistance(),
		SpeedLimit:     units.ConvertToMPS(cfg.GetSpeedLimit(), u),
		SpeedIncrement: units.ConvertToMPS(cfg.GetSpeedIncrement(), u),
		InitialLane:    cfg.GetInitialLane(),
		MaxS:           cfg.GetMaxS(),
	}
}

// Validate reports the first parameter that cannot drive the planner.
func (p Params) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"time_step", p.TimeStep},
		{"lane_width", p.LaneWidth},
		{"safety_distance", p.SafetyDistance},
		{"speed_limit", p.SpeedLimit},
		{"speed_increment", p.SpeedIncrement},
	}
	for _, f := range positive {
		if !(f.v > 0) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%s must be positive and finite, got %v", f.name, f.v)
		}
	}
	if p.Horizon < 1 {
		return fmt.Errorf("horizon must be at least 1, got %d", p.Horizon)
	}
	if p.LaneCount < 1 {
		return fmt.Errorf("lane_count must be at least 1, got %d", p.LaneCount)
	}
	if p.InitialLane < 0 || p.InitialLane >= p.LaneCount {
		return fmt.Errorf("initial_lane must be in [0, %d), got %d", p.LaneCount, p.InitialLane)
	}
	if p.InitialSpeed < 0 || math.IsNaN(p.InitialSpeed) {
		return fmt.Errorf("initial_speed must not be negative, got %v", p.InitialSpeed)
	}
	if p.MaxS < 0 || math.IsNaN(p.MaxS) {
		return fmt.Errorf("max_s must not be negative, got %v", p.MaxS)
	}
	return nil
}

// laneCenter returns the d value at the middle of lane.
func (p Params) laneCenter(lane int) float64 {
	return p.LaneWidth*float64(lane) + p.LaneWidth/2
}

// inLane reports whether d lies in the half-open band of lane.
func (p Params) inLane(d float64, lane int) bool {
	lo := p.LaneWidth * float64(lane)
	return d >= lo && d < lo+p.LaneWidth
}
