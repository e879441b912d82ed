package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a requested session does not exist.
var ErrNotFound = errors.New("db: not found")

// SessionRecord is one simulator connection.
type SessionRecord struct {
	SessionID  string     `json:"session_id"`
	RemoteAddr string     `json:"remote_addr"`
	Started    time.Time  `json:"started"`
	Ended      *time.Time `json:"ended,omitempty"`
	CycleCount int        `json:"cycle_count"`
}

// CycleRecord is one planned cycle of a session.
type CycleRecord struct {
	ID          int64     `json:"cycle_id"`
	SessionID   string    `json:"session_id"`
	CycleIndex  int       `json:"cycle_index"`
	RecordedAt  time.Time `json:"recorded_at"`
	EgoX        float64   `json:"ego_x"`
	EgoY        float64   `json:"ego_y"`
	EgoS        float64   `json:"ego_s"`
	EgoD        float64   `json:"ego_d"`
	EgoYawDeg   float64   `json:"ego_yaw_deg"`
	EgoSpeedMPS float64   `json:"ego_speed_mps"`
	// PlannedS is the s the cycle planned from (end of the remainder when one exists).
	PlannedS          float64       `json:"planned_s"`
	Unconsumed        int           `json:"unconsumed"`
	NeighborCount     int           `json:"neighbor_count"`
	BlockedAhead      bool          `json:"blocked_ahead"`
	BlockedLeft       bool          `json:"blocked_left"`
	BlockedRight      bool          `json:"blocked_right"`
	Action            string        `json:"action"`
	Lane              int           `json:"lane"`
	ReferenceSpeedMPS float64       `json:"reference_speed_mps"`
	Latency           time.Duration `json:"latency_nanos"`
	TrajectoryX       []float64     `json:"next_x"`
	TrajectoryY       []float64     `json:"next_y"`
}

// Stats summarises everything recorded so far.
type Stats struct {
	Sessions       int            `json:"sessions"`
	OpenSessions   int            `json:"open_sessions"`
	Cycles         int            `json:"cycles"`
	MeanLatencyMs  float64        `json:"mean_latency_ms"`
	MaxLatencyMs   float64        `json:"max_latency_ms"`
	ActionCounts   map[string]int `json:"action_counts"`
	MaxRefSpeedMPS float64        `json:"max_reference_speed_mps"`
}

type trajectoryJSON struct {
	X []float64 `json:"next_x"`
	Y []float64 `json:"next_y"`
}

// RecordSessionStart inserts a new session row.
func (db *DB) RecordSessionStart(sessionID, remoteAddr string, started time.Time) error {
	_, err := db.Exec(`INSERT INTO planner_sessions (session_id, remote_addr, started_unix_nanos)
		VALUES (?, ?, ?)`, sessionID, remoteAddr, started.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to record session start: %w", err)
	}
	return nil
}

// RecordSessionEnd stamps the end time and final cycle count of a session.
func (db *DB) RecordSessionEnd(sessionID string, ended time.Time, cycles int) error {
	res, err := db.Exec(`UPDATE planner_sessions SET ended_unix_nanos = ?, cycle_count = ?
		WHERE session_id = ?`, ended.UnixNano(), cycles, sessionID)
	if err != nil {
		return fmt.Errorf("failed to record session end: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	return nil
}

// RecordCycle stores one cycle and bumps the session's cycle count.
func (db *DB) RecordCycle(rec CycleRecord) error {
	traj, err := json.Marshal(trajectoryJSON{X: rec.TrajectoryX, Y: rec.TrajectoryY})
	if err != nil {
		return fmt.Errorf("failed to marshal trajectory: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO planner_cycles (
			session_id, cycle_index, recorded_unix_nanos,
			ego_x, ego_y, ego_s, ego_d, ego_yaw_deg, ego_speed_mps,
			planned_s, unconsumed, neighbor_count,
			blocked_ahead, blocked_left, blocked_right,
			action, lane, reference_speed_mps, latency_nanos, trajectory_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.CycleIndex, rec.RecordedAt.UnixNano(),
		rec.EgoX, rec.EgoY, rec.EgoS, rec.EgoD, rec.EgoYawDeg, rec.EgoSpeedMPS,
		rec.PlannedS, rec.Unconsumed, rec.NeighborCount,
		rec.BlockedAhead, rec.BlockedLeft, rec.BlockedRight,
		rec.Action, rec.Lane, rec.ReferenceSpeedMPS, rec.Latency.Nanoseconds(), string(traj),
	)
	if err != nil {
		return fmt.Errorf("failed to insert cycle %d for session %s: %w", rec.CycleIndex, rec.SessionID, err)
	}

	if _, err := tx.Exec(`UPDATE planner_sessions SET cycle_count = cycle_count + 1
		WHERE session_id = ?`, rec.SessionID); err != nil {
		return fmt.Errorf("failed to update cycle count: %w", err)
	}
	return tx.Commit()
}

const sessionColumns = `session_id, remote_addr, started_unix_nanos, ended_unix_nanos, cycle_count`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (SessionRecord, error) {
	var (
		s       SessionRecord
		started int64
		ended   sql.NullInt64
	)
	if err := row.Scan(&s.SessionID, &s.RemoteAddr, &started, &ended, &s.CycleCount); err != nil {
		return s, err
	}
	s.Started = time.Unix(0, started)
	if ended.Valid {
		e := time.Unix(0, ended.Int64)
		s.Ended = &e
	}
	return s, nil
}

// Sessions returns up to limit sessions, newest first. A limit <= 0 means no limit.
func (db *DB) Sessions(limit int) ([]SessionRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.Query(`SELECT `+sessionColumns+` FROM planner_sessions
		ORDER BY started_unix_nanos DESC, session_id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []SessionRecord{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Session returns a single session by id.
func (db *DB) Session(sessionID string) (SessionRecord, error) {
	row := db.QueryRow(`SELECT `+sessionColumns+` FROM planner_sessions WHERE session_id = ?`, sessionID)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return s, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	return s, err
}

// Cycles returns up to limit cycles of a session in cycle order. A limit <= 0
// means no limit.
func (db *DB) Cycles(sessionID string, limit int) ([]CycleRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.Query(`SELECT
			cycle_id, session_id, cycle_index, recorded_unix_nanos,
			ego_x, ego_y, ego_s, ego_d, ego_yaw_deg, ego_speed_mps,
			planned_s, unconsumed, neighbor_count,
			blocked_ahead, blocked_left, blocked_right,
			action, lane, reference_speed_mps, latency_nanos, trajectory_json
		FROM planner_cycles WHERE session_id = ?
		ORDER BY cycle_index LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cycles := []CycleRecord{}
	for rows.Next() {
		var (
			c        CycleRecord
			recorded int64
			latency  int64
			traj     string
		)
		if err := rows.Scan(
			&c.ID, &c.SessionID, &c.CycleIndex, &recorded,
			&c.EgoX, &c.EgoY, &c.EgoS, &c.EgoD, &c.EgoYawDeg, &c.EgoSpeedMPS,
			&c.PlannedS, &c.Unconsumed, &c.NeighborCount,
			&c.BlockedAhead, &c.BlockedLeft, &c.BlockedRight,
			&c.Action, &c.Lane, &c.ReferenceSpeedMPS, &latency, &traj,
		); err != nil {
			return nil, err
		}
		c.RecordedAt = time.Unix(0, recorded)
		c.Latency = time.Duration(latency)

		var tj trajectoryJSON
		if err := json.Unmarshal([]byte(traj), &tj); err != nil {
			return nil, fmt.Errorf("cycle %d: failed to decode trajectory: %w", c.ID, err)
		}
		c.TrajectoryX, c.TrajectoryY = tj.X, tj.Y
		cycles = append(cycles, c)
	}
	return cycles, rows.Err()
}

// Stats aggregates counts and latency over all recorded cycles.
func (db *DB) Stats() (Stats, error) {
	st := Stats{ActionCounts: map[string]int{}}

	if err := db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(ended_unix_nanos IS NULL), 0)
		FROM planner_sessions`).Scan(&st.Sessions, &st.OpenSessions); err != nil {
		return st, fmt.Errorf("failed to count sessions: %w", err)
	}

	var meanNanos, maxNanos float64
	if err := db.QueryRow(`SELECT COUNT(*), COALESCE(AVG(latency_nanos), 0),
			COALESCE(MAX(latency_nanos), 0), COALESCE(MAX(reference_speed_mps), 0)
		FROM planner_cycles`).Scan(&st.Cycles, &meanNanos, &maxNanos, &st.MaxRefSpeedMPS); err != nil {
		return st, fmt.Errorf("failed to aggregate cycles: %w", err)
	}
	st.MeanLatencyMs = meanNanos / float64(time.Millisecond)
	st.MaxLatencyMs = maxNanos / float64(time.Millisecond)

	rows, err := db.Query(`SELECT action, COUNT(*) FROM planner_cycles GROUP BY action`)
	if err != nil {
		return st, err
	}
	defer rows.Close()
	for rows.Next() {
		var action string
		var n int
		if err := rows.Scan(&action, &n); err != nil {
			return st, err
		}
		st.ActionCounts[action] = n
	}
	return st, rows.Err()
}
