package session

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/banshee-data/path-planner/internal/db"
	"github.com/banshee-data/path-planner/internal/roadmap"
)

// newLineMap returns a straight road along +x; lane 1 runs along y=-6.
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

// telemetry is the simulator's telemetry object.
type telemetry struct {
	X             float64     `json:"x"`
	Y             float64     `json:"y"`
	S             float64     `json:"s"`
	D             float64     `json:"d"`
	Yaw           float64     `json:"yaw"`
	Speed         float64     `json:"speed"`
	PreviousPathX []float64   `json:"previous_path_x"`
	PreviousPathY []float64   `json:"previous_path_y"`
	EndPathS      float64     `json:"end_path_s"`
	EndPathD      float64     `json:"end_path_d"`
	SensorFusion  [][]float64 `json:"sensor_fusion"`
}

// egoAt returns a stationary ego in lane 1 of the line map at x.
func egoAt(x float64) telemetry {
	return telemetry{
		X: x, Y: -6, S: x, D: 6,
		PreviousPathX: []float64{},
		PreviousPathY: []float64{},
		SensorFusion:  [][]float64{},
	}
}

// frame wraps tel in a telemetry event frame.
func frame(t *testing.T, tel telemetry) string {
	t.Helper()
	body, err := json.Marshal([]any{EventTelemetry, tel})
	require.NoError(t, err)
	return "42" + string(body)
}

// decodeControl parses a control frame.
func decodeControl(t *testing.T, reply string) (xs, ys []float64) {
	t.Helper()
	require.Equal(t, "42", reply[:2])
	name, data, err := DecodeEvent(reply[2:])
	require.NoError(t, err)
	require.Equal(t, EventControl, name)
	var body struct {
		X []float64 `json:"next_x"`
		Y []float64 `json:"next_y"`
	}
	require.NoError(t, json.Unmarshal(data, &body))
	return body.X, body.Y
}

// fakeRecorder collects everything recorded. It is safe for concurrent use.
type fakeRecorder struct {
	mu       sync.Mutex
	started  map[string]string
	ended    map[string]int
	cycles   []db.CycleRecord
	failNext bool
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{started: map[string]string{}, ended: map[string]int{}}
}

func (f *fakeRecorder) RecordSessionStart(id, remote string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started[id] = remote
	return nil
}

func (f *fakeRecorder) RecordSessionEnd(id string, _ time.Time, cycles int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ended[id] = cycles
	return nil
}

func (f *fakeRecorder) RecordCycle(rec db.CycleRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return errors.New("disk full")
	}
	f.cycles = append(f.cycles, rec)
	return nil
}

func (f *fakeRecorder) snapshot() (map[string]string, map[string]int, []db.CycleRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	started := make(map[string]string, len(f.started))
	for k, v := range f.started {
		started[k] = v
	}
	ended := make(map[string]int, len(f.ended))
	for k, v := range f.ended {
		ended[k] = v
	}
	return started, ended, append([]db.CycleRecord(nil), f.cycles...)
}
