package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/path-planner/internal/units"
)

// DefaultConfigPath is the path to the canonical planner defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/planner.defaults.json"

// TuningConfig represents the root configuration for planner parameters.
// The schema matches the /api/config endpoint so the same JSON can be
// used for both startup configuration and inspection of a running server.
type TuningConfig struct {
	// Cycle timing
	TimeStep      *float64 `json:"time_step,omitempty"`      // seconds between trajectory points
	HorizonLength *int     `json:"horizon_length,omitempty"` // points emitted per cycle

	// Road geometry
	LaneWidth *float64 `json:"lane_width,omitempty"` // metres
	LaneCount *int     `json:"lane_count,omitempty"`
	MaxS      *float64 `json:"max_s,omitempty"` // track length before s wraps to 0

	// Behaviour
	SafetyDistance *float64 `json:"safety_distance,omitempty"` // metres; hazard window and anchor spacing
	InitialLane    *int     `json:"initial_lane,omitempty"`    // 0 is the leftmost lane

	// Speed ramp
	SpeedLimit     *float64 `json:"speed_limit,omitempty"`     // in SpeedUnits
	SpeedIncrement *float64 `json:"speed_increment,omitempty"` // in SpeedUnits per point
	SpeedUnits     *string  `json:"speed_units,omitempty"`     // mps, mph, kmph
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated
// from the compiled defaults.
func DefaultTuningConfig() *TuningConfig {
	return EmptyTuningConfig().Effective()
}

// Effective returns a copy of c with every omitted field filled from the
// compiled defaults. This is the form served by /api/config.
func (c *TuningConfig) Effective() *TuningConfig {
	return &TuningConfig{
		TimeStep:       ptrFloat64(c.GetTimeStep()),
		HorizonLength:  ptrInt(c.GetHorizonLength()),
		LaneWidth:      ptrFloat64(c.GetLaneWidth()),
		LaneCount:      ptrInt(c.GetLaneCount()),
		MaxS:           ptrFloat64(c.GetMaxS()),
		SafetyDistance: ptrFloat64(c.GetSafetyDistance()),
		InitialLane:    ptrInt(c.GetInitialLane()),
		SpeedLimit:     ptrFloat64(c.GetSpeedLimit()),
		SpeedIncrement: ptrFloat64(c.GetSpeedIncrement()),
		SpeedUnits:     ptrString(c.GetSpeedUnits()),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from cmd/tools/plot-session/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.TimeStep != nil && *c.TimeStep <= 0 {
		return fmt.Errorf("time_step must be positive, got %f", *c.TimeStep)
	}
	if c.HorizonLength != nil && *c.HorizonLength < 1 {
		return fmt.Errorf("horizon_length must be at least 1, got %d", *c.HorizonLength)
	}
	if c.LaneWidth != nil && *c.LaneWidth <= 0 {
		return fmt.Errorf("lane_width must be positive, got %f", *c.LaneWidth)
	}
	if c.LaneCount != nil && *c.LaneCount < 1 {
		return fmt.Errorf("lane_count must be at least 1, got %d", *c.LaneCount)
	}
	if c.MaxS != nil && *c.MaxS <= 0 {
		return fmt.Errorf("max_s must be positive, got %f", *c.MaxS)
	}
	if c.SafetyDistance != nil && *c.SafetyDistance <= 0 {
		return fmt.Errorf("safety_distance must be positive, got %f", *c.SafetyDistance)
	}
	if c.InitialLane != nil {
		if lane := *c.InitialLane; lane < 0 || lane >= c.GetLaneCount() {
			return fmt.Errorf("initial_lane must be in [0, %d), got %d", c.GetLaneCount(), lane)
		}
	}
	if c.SpeedLimit != nil && *c.SpeedLimit <= 0 {
		return fmt.Errorf("speed_limit must be positive, got %f", *c.SpeedLimit)
	}
	if c.SpeedIncrement != nil && *c.SpeedIncrement <= 0 {
		return fmt.Errorf("speed_increment must be positive, got %f", *c.SpeedIncrement)
	}
	if c.SpeedUnits != nil && !units.IsValid(*c.SpeedUnits) {
		return fmt.Errorf("speed_units must be one of %s, got %q", units.GetValidUnitsString(), *c.SpeedUnits)
	}
	return nil
}

// GetTimeStep returns the time_step value or the default.
func (c *TuningConfig) GetTimeStep() float64 {
	if c.TimeStep == nil {
		return 0.02
	}
	return *c.TimeStep
}

// GetHorizonLength returns the horizon_length value or the default.
func (c *TuningConfig) GetHorizonLength() int {
	if c.HorizonLength == nil {
		return 50
	}
	return *c.HorizonLength
}

// GetLaneWidth returns the lane_width value or the default.
func (c *TuningConfig) GetLaneWidth() float64 {
	if c.LaneWidth == nil {
		return 4.0
	}
	return *c.LaneWidth
}

// GetLaneCount returns the lane_count value or the default.
func (c *TuningConfig) GetLaneCount() int {
	if c.LaneCount == nil {
		return 3
	}
	return *c.LaneCount
}

// GetMaxS returns the max_s value or the default (length of the highway loop).
func (c *TuningConfig) GetMaxS() float64 {
	if c.MaxS == nil {
		return 6945.554
	}
	return *c.MaxS
}

// GetSafetyDistance returns the safety_distance value or the default.
func (c *TuningConfig) GetSafetyDistance() float64 {
	if c.SafetyDistance == nil {
		return 32.0
	}
	return *c.SafetyDistance
}

// GetInitialLane returns the initial_lane value or the default.
func (c *TuningConfig) GetInitialLane() int {
	if c.InitialLane == nil {
		return 1
	}
	return *c.InitialLane
}

// GetSpeedLimit returns the speed_limit value or the default, in SpeedUnits.
func (c *TuningConfig) GetSpeedLimit() float64 {
	if c.SpeedLimit == nil {
		return 22.1
	}
	return *c.SpeedLimit
}

// GetSpeedIncrement returns the speed_increment value or the default, in SpeedUnits.
func (c *TuningConfig) GetSpeedIncrement() float64 {
	if c.SpeedIncrement == nil {
		return 0.1
	}
	return *c.SpeedIncrement
}

// GetSpeedUnits returns the speed_units value or the default.
func (c *TuningConfig) GetSpeedUnits() string {
	if c.SpeedUnits == nil || *c.SpeedUnits == "" {
		return units.MPS
	}
	return *c.SpeedUnits
}
