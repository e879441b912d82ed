// Package session speaks the simulator's socket.io-style websocket
// protocol and runs one planner per connection.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/banshee-data/path-planner/internal/planner"
)

// Event names used on the wire.
const (
	EventTelemetry = "telemetry"
	EventControl   = "control"
	EventManual    = "manual"
)

// eventPrefix marks a socket.io event frame: 4 is a message, 2 an event.
const eventPrefix = "42"

// ManualMessage is the reply to a frame without data.
const ManualMessage = `42["manual",{}]`

// ErrMalformedMessage is returned when a frame cannot be decoded.
var ErrMalformedMessage = errors.New("session: malformed message")

// sensorFusionFields is the row layout [id, x, y, vx, vy, s, d].
const sensorFusionFields = 7

// IsEvent reports whether raw is a socket.io event frame carrying more
// than the prefix.
func IsEvent(raw string) bool {
	return len(raw) > len(eventPrefix) && strings.HasPrefix(raw, eventPrefix)
}

// ExtractPayload returns the JSON array of an event frame. It returns
// false when the frame carries null or has no array.
func ExtractPayload(raw string) (string, bool) {
	if strings.Contains(raw, "null") {
		return "", false
	}
	start := strings.IndexByte(raw, '[')
	end := strings.LastIndexByte(raw, ']')
	if start < 0 || end < start {
		return "", false
	}
	return raw[start : end+1], true
}

// DecodeEvent splits a payload of the form ["name", {...}] into the event
// name and its raw data object.
func DecodeEvent(payload string) (string, json.RawMessage, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &parts); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if len(parts) == 0 {
		return "", nil, fmt.Errorf("%w: empty event", ErrMalformedMessage)
	}
	var name string
	if err := json.Unmarshal(parts[0], &name); err != nil {
		return "", nil, fmt.Errorf("%w: event name: %v", ErrMalformedMessage, err)
	}
	var data json.RawMessage
	if len(parts) > 1 {
		data = parts[1]
	}
	return name, data, nil
}

type telemetryJSON struct {
	X             *float64    `json:"x"`
	Y             *float64    `json:"y"`
	S             *float64    `json:"s"`
	D             *float64    `json:"d"`
	Yaw           *float64    `json:"yaw"`
	Speed         *float64    `json:"speed"`
	PreviousPathX []float64   `json:"previous_path_x"`
	PreviousPathY []float64   `json:"previous_path_y"`
	EndPathS      *float64    `json:"end_path_s"`
	EndPathD      *float64    `json:"end_path_d"`
	SensorFusion  [][]float64 `json:"sensor_fusion"`
}

// DecodeTelemetry converts a telemetry data object into planner input.
// Every ego field is required, and end_path_s/end_path_d are required
// whenever the previous path is non-empty.
func DecodeTelemetry(data json.RawMessage) (planner.Telemetry, error) {
	if len(data) == 0 {
		return planner.Telemetry{}, fmt.Errorf("%w: telemetry without data", ErrMalformedMessage)
	}
	var in telemetryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return planner.Telemetry{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	required := []struct {
		name string
		v    *float64
	}{
		{"x", in.X}, {"y", in.Y}, {"s", in.S}, {"d", in.D}, {"yaw", in.Yaw}, {"speed", in.Speed},
	}
	for _, r := range required {
		if r.v == nil {
			return planner.Telemetry{}, fmt.Errorf("%w: missing %q", ErrMalformedMessage, r.name)
		}
	}

	t := planner.Telemetry{
		X: *in.X, Y: *in.Y, S: *in.S, D: *in.D,
		Yaw:           *in.Yaw,
		Speed:         *in.Speed,
		PreviousPathX: in.PreviousPathX,
		PreviousPathY: in.PreviousPathY,
	}
	if len(in.PreviousPathX) > 0 || len(in.PreviousPathY) > 0 {
		if in.EndPathS == nil || in.EndPathD == nil {
			return planner.Telemetry{}, fmt.Errorf("%w: previous path without end_path_s/end_path_d", ErrMalformedMessage)
		}
	}
	if in.EndPathS != nil {
		t.EndPathS = *in.EndPathS
	}
	if in.EndPathD != nil {
		t.EndPathD = *in.EndPathD
	}

	t.SensorFusion = make([]planner.Neighbor, 0, len(in.SensorFusion))
	for i, row := range in.SensorFusion {
		if len(row) < sensorFusionFields {
			return planner.Telemetry{}, fmt.Errorf("%w: sensor_fusion row %d has %d fields, want %d",
				ErrMalformedMessage, i, len(row), sensorFusionFields)
		}
		t.SensorFusion = append(t.SensorFusion, planner.Neighbor{
			ID: int(row[0]),
			X:  row[1], Y: row[2],
			VX: row[3], VY: row[4],
			S: row[5], D: row[6],
		})
	}
	return t, nil
}

// EncodeControl frames a trajectory as a control event.
func EncodeControl(traj planner.Trajectory) (string, error) {
	if traj.X == nil {
		traj.X = []float64{}
	}
	if traj.Y == nil {
		traj.Y = []float64{}
	}
	body, err := json.Marshal([]any{EventControl, traj})
	if err != nil {
		return "", err
	}
	return eventPrefix + string(body), nil
}
