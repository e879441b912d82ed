package db

import (
	"path/filepath"
	"testing"
	"time"
)

// newTestDB opens a fresh database in a temporary directory.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "planner.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// sampleCycle returns a plausible cycle record for session id.
func sampleCycle(id string, index int, recorded time.Time) CycleRecord {
	return CycleRecord{
		SessionID:         id,
		CycleIndex:        index,
		RecordedAt:        recorded,
		EgoX:              909.48,
		EgoY:              1128.67,
		EgoS:              124.83,
		EgoD:              6.16,
		EgoYawDeg:         0,
		EgoSpeedMPS:       float64(index) * 0.1,
		PlannedS:          124.83 + float64(index),
		Unconsumed:        47,
		NeighborCount:     12,
		Action:            "keep_lane",
		Lane:              1,
		ReferenceSpeedMPS: float64(index) * 0.1,
		Latency:           time.Duration(index+1) * time.Millisecond,
		TrajectoryX:       []float64{909.5, 909.7, 909.9},
		TrajectoryY:       []float64{1128.7, 1128.7, 1128.7},
	}
}
