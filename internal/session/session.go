package session

import (
	"time"

	"github.com/banshee-data/path-planner/internal/db"
	"github.com/banshee-data/path-planner/internal/planner"
	"github.com/banshee-data/path-planner/internal/timeutil"
)

// Recorder persists sessions and their planned cycles. *db.DB implements it.
type Recorder interface {
	RecordSessionStart(sessionID, remoteAddr string, started time.Time) error
	RecordSessionEnd(sessionID string, ended time.Time, cycles int) error
	RecordCycle(rec db.CycleRecord) error
}

// Session is one simulator connection and its planner. Handle must be
// called from a single goroutine.
type Session struct {
	ID      string
	Remote  string
	Started time.Time

	planner  *planner.Planner
	recorder Recorder
	registry *Registry
	clock    timeutil.Clock
	logf     func(format string, v ...interface{})

	cycles   int
	rejected int
}

// Cycles returns the number of planned cycles.
func (s *Session) Cycles() int { return s.cycles }

// Rejected returns the number of frames that were rejected.
func (s *Session) Rejected() int { return s.rejected }

// Planner returns the session's planner.
func (s *Session) Planner() *planner.Planner { return s.planner }

// Handle processes one websocket frame and returns the reply to send, if
// any. Frames that are not events are ignored, an event without data is
// answered with ManualMessage, and a telemetry event is planned and
// answered with a control event. A rejected frame gets no reply and the
// planner state is left as it was.
func (s *Session) Handle(raw string) (string, bool) {
	if !IsEvent(raw) {
		return "", false
	}

	payload, ok := ExtractPayload(raw)
	if !ok {
		return ManualMessage, true
	}

	event, data, err := DecodeEvent(payload)
	if err != nil {
		s.reject(err)
		return "", false
	}
	if event != EventTelemetry {
		return "", false
	}

	tel, err := DecodeTelemetry(data)
	if err != nil {
		s.reject(err)
		return "", false
	}

	prevLane := s.planner.State().Lane
	start := s.clock.Now()
	res, err := s.planner.Advance(tel)
	latency := s.clock.Since(start)
	if err != nil {
		s.reject(err)
		return "", false
	}

	reply, err := EncodeControl(res.Trajectory)
	if err != nil {
		s.reject(err)
		return "", false
	}

	if res.Decision.Lane != prevLane {
		s.logf("lane %d -> %d (%s) at s=%.1f", prevLane, res.Decision.Lane, res.Decision.Action, res.EgoS)
	}

	index := s.cycles
	s.cycles++
	s.track(res, latency, start)
	s.record(index, tel, res, latency, start)
	return reply, true
}

func (s *Session) reject(err error) {
	s.rejected++
	s.logf("rejected frame: %v", err)
	if s.registry != nil {
		s.registry.Update(s.ID, func(info *Info) { info.Rejected = s.rejected })
	}
}

func (s *Session) track(res planner.Result, latency time.Duration, at time.Time) {
	if s.registry == nil {
		return
	}
	s.registry.Update(s.ID, func(info *Info) {
		info.Cycles = s.cycles
		info.State = res.State
		info.LastFlags = res.Flags
		info.LastDecision = res.Decision
		info.LastLatency = latency
		info.LastUpdate = at
	})
}

func (s *Session) record(index int, tel planner.Telemetry, res planner.Result, latency time.Duration, at time.Time) {
	if s.recorder == nil {
		return
	}
	rec := db.CycleRecord{
		SessionID:         s.ID,
		CycleIndex:        index,
		RecordedAt:        at,
		EgoX:              tel.X,
		EgoY:              tel.Y,
		EgoS:              tel.S,
		EgoD:              tel.D,
		EgoYawDeg:         tel.Yaw,
		EgoSpeedMPS:       tel.SpeedMPS(),
		PlannedS:          res.EgoS,
		Unconsumed:        len(tel.PreviousPathX),
		NeighborCount:     len(tel.SensorFusion),
		BlockedAhead:      res.Flags.Ahead,
		BlockedLeft:       res.Flags.Left,
		BlockedRight:      res.Flags.Right,
		Action:            string(res.Decision.Action),
		Lane:              res.State.Lane,
		ReferenceSpeedMPS: res.State.ReferenceSpeed,
		Latency:           latency,
		TrajectoryX:       res.Trajectory.X,
		TrajectoryY:       res.Trajectory.Y,
	}
	if err := s.recorder.RecordCycle(rec); err != nil {
		s.logf("failed to record cycle %d: %v", index, err)
	}
}
