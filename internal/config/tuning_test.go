package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultTuningConfig(t *testing.T) {
	cfg := DefaultTuningConfig()

	// Test that defaults are set via pointers
	if cfg.TimeStep == nil || *cfg.TimeStep != 0.02 {
		t.Errorf("Expected TimeStep 0.02, got %v", cfg.TimeStep)
	}
	if cfg.HorizonLength == nil || *cfg.HorizonLength != 50 {
		t.Errorf("Expected HorizonLength 50, got %v", cfg.HorizonLength)
	}
	if cfg.SafetyDistance == nil || *cfg.SafetyDistance != 32 {
		t.Errorf("Expected SafetyDistance 32, got %v", cfg.SafetyDistance)
	}
	if cfg.SpeedUnits == nil || *cfg.SpeedUnits != "mps" {
		t.Errorf("Expected SpeedUnits 'mps', got %v", cfg.SpeedUnits)
	}

	// Test getter methods
	if cfg.GetLaneWidth() != 4 {
		t.Errorf("GetLaneWidth() = %f, want 4", cfg.GetLaneWidth())
	}
	if cfg.GetLaneCount() != 3 {
		t.Errorf("GetLaneCount() = %d, want 3", cfg.GetLaneCount())
	}
	if cfg.GetInitialLane() != 1 {
		t.Errorf("GetInitialLane() = %d, want 1", cfg.GetInitialLane())
	}
	if cfg.GetSpeedLimit() != 22.1 {
		t.Errorf("GetSpeedLimit() = %f, want 22.1", cfg.GetSpeedLimit())
	}
	if cfg.GetSpeedIncrement() != 0.1 {
		t.Errorf("GetSpeedIncrement() = %f, want 0.1", cfg.GetSpeedIncrement())
	}
	if cfg.GetMaxS() != 6945.554 {
		t.Errorf("GetMaxS() = %f, want 6945.554", cfg.GetMaxS())
	}
}

func TestLoadTuningConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.json")

	testJSON := `{
  "time_step": 0.05,
  "horizon_length": 30,
  "lane_count": 4,
  "initial_lane": 3,
  "speed_units": "mph"
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadTuningConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GetTimeStep() != 0.05 {
		t.Errorf("Expected TimeStep 0.05, got %f", cfg.GetTimeStep())
	}
	if cfg.GetHorizonLength() != 30 {
		t.Errorf("Expected HorizonLength 30, got %d", cfg.GetHorizonLength())
	}
	if cfg.GetLaneCount() != 4 {
		t.Errorf("Expected LaneCount 4, got %d", cfg.GetLaneCount())
	}
	if cfg.GetInitialLane() != 3 {
		t.Errorf("Expected InitialLane 3, got %d", cfg.GetInitialLane())
	}
	if cfg.GetSpeedUnits() != "mph" {
		t.Errorf("Expected SpeedUnits mph, got %q", cfg.GetSpeedUnits())
	}
	// Omitted fields keep their defaults
	if cfg.GetSafetyDistance() != 32 {
		t.Errorf("Expected default SafetyDistance 32, got %f", cfg.GetSafetyDistance())
	}
}

func TestLoadTuningConfigMissing(t *testing.T) {
	_, err := LoadTuningConfig("/nonexistent/path/to/config.json")
	if err == nil {
		t.Error("Expected error when loading missing file, got nil")
	}
}

func TestLoadTuningConfigInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid_config.json")

	invalidJSON := `{
  "time_step": "fast"
`
	if err := os.WriteFile(configPath, []byte(invalidJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadTuningConfig(configPath)
	if err == nil {
		t.Error("Expected error when loading invalid JSON, got nil")
	}
}

func TestLoadTuningConfigRejectsNonJSON(t *testing.T) {
	_, err := LoadTuningConfig("/some/path/config.yaml")
	if err == nil {
		t.Error("Expected error for non-.json extension, got nil")
	}
}

func TestLoadTuningConfigRejectsLargeFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "large.json")

	largeData := make([]byte, 2*1024*1024)
	if err := os.WriteFile(configPath, largeData, 0644); err != nil {
		t.Fatalf("Failed to write large file: %v", err)
	}

	_, err := LoadTuningConfig(configPath)
	if err == nil {
		t.Error("Expected error for file size > 1MB, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *TuningConfig
		wantErr bool
	}{
		{
			name:    "valid config",
			cfg:     DefaultTuningConfig(),
			wantErr: false,
		},
		{
			name:    "empty config is valid",
			cfg:     &TuningConfig{},
			wantErr: false,
		},
		{
			name:    "zero time step",
			cfg:     &TuningConfig{TimeStep: ptrFloat64(0)},
			wantErr: true,
		},
		{
			name:    "empty horizon",
			cfg:     &TuningConfig{HorizonLength: ptrInt(0)},
			wantErr: true,
		},
		{
			name:    "negative lane width",
			cfg:     &TuningConfig{LaneWidth: ptrFloat64(-4)},
			wantErr: true,
		},
		{
			name:    "initial lane beyond default lane count",
			cfg:     &TuningConfig{InitialLane: ptrInt(3)},
			wantErr: true,
		},
		{
			name:    "initial lane within widened road",
			cfg:     &TuningConfig{InitialLane: ptrInt(3), LaneCount: ptrInt(5)},
			wantErr: false,
		},
		{
			name:    "negative initial lane",
			cfg:     &TuningConfig{InitialLane: ptrInt(-1)},
			wantErr: true,
		},
		{
			name:    "zero speed increment",
			cfg:     &TuningConfig{SpeedIncrement: ptrFloat64(0)},
			wantErr: true,
		},
		{
			name:    "unknown speed units",
			cfg:     &TuningConfig{SpeedUnits: ptrString("furlongs")},
			wantErr: true,
		},
		{
			name:    "zero max s",
			cfg:     &TuningConfig{MaxS: ptrFloat64(0)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetSpeedUnitsEmptyString(t *testing.T) {
	cfg := &TuningConfig{SpeedUnits: ptrString("")}
	if got := cfg.GetSpeedUnits(); got != "mps" {
		t.Errorf("GetSpeedUnits() = %q, want mps", got)
	}
}

func TestLoadDefaultConfigFile(t *testing.T) {
	cfg, err := LoadTuningConfig("../../config/planner.defaults.json")
	if err != nil {
		t.Fatalf("Failed to load defaults: %v", err)
	}
	compiled := EmptyTuningConfig()
	if cfg.GetSpeedLimit() != compiled.GetSpeedLimit() {
		t.Errorf("defaults file speed_limit %f disagrees with compiled default %f", cfg.GetSpeedLimit(), compiled.GetSpeedLimit())
	}
	if cfg.GetHorizonLength() != compiled.GetHorizonLength() {
		t.Errorf("defaults file horizon_length %d disagrees with compiled default %d", cfg.GetHorizonLength(), compiled.GetHorizonLength())
	}
	if cfg.GetMaxS() != compiled.GetMaxS() {
		t.Errorf("defaults file max_s %f disagrees with compiled default %f", cfg.GetMaxS(), compiled.GetMaxS())
	}
}

func TestLoadExampleConfigFile(t *testing.T) {
	cfg, err := LoadTuningConfig("../../config/planner.example.json")
	if err != nil {
		t.Fatalf("Failed to load example: %v", err)
	}
	if cfg.GetSpeedUnits() != "mph" {
		t.Errorf("Expected mph, got %q", cfg.GetSpeedUnits())
	}
	if cfg.GetSafetyDistance() != 30 {
		t.Errorf("Expected 30, got %f", cfg.GetSafetyDistance())
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	if cfg.GetLaneCount() != 3 {
		t.Errorf("Expected 3 lanes, got %d", cfg.GetLaneCount())
	}
}

func TestEffectiveFillsDefaults(t *testing.T) {
	cfg := &TuningConfig{SafetyDistance: ptrFloat64(25), SpeedUnits: ptrString("mph")}
	eff := cfg.Effective()

	if eff.SafetyDistance == nil || *eff.SafetyDistance != 25 {
		t.Errorf("Effective() dropped safety_distance: %v", eff.SafetyDistance)
	}
	if eff.SpeedUnits == nil || *eff.SpeedUnits != "mph" {
		t.Errorf("Effective() dropped speed_units: %v", eff.SpeedUnits)
	}
	if eff.HorizonLength == nil || *eff.HorizonLength != 50 {
		t.Errorf("Effective() horizon_length = %v, want 50", eff.HorizonLength)
	}
	if eff.MaxS == nil || *eff.MaxS != 6945.554 {
		t.Errorf("Effective() max_s = %v, want 6945.554", eff.MaxS)
	}

	// The copy is independent of the original.
	*eff.SafetyDistance = 10
	if *cfg.SafetyDistance != 25 {
		t.Errorf("Effective() shares pointers with the original")
	}
}
