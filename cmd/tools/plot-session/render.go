package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/path-planner/internal/db"
	"github.com/banshee-data/path-planner/internal/plot"
	"github.com/banshee-data/path-planner/internal/roadmap"
)

// SessionStore is the read side of the cycle recorder used here.
type SessionStore interface {
	Sessions(limit int) ([]db.SessionRecord, error)
	Cycles(sessionID string, limit int) ([]db.CycleRecord, error)
}

// resolveSession returns sessionID, or the most recently started session
// when sessionID is empty.
func resolveSession(store SessionStore, sessionID string) (string, error) {
	if sessionID != "" {
		return sessionID, nil
	}
	sessions, err := store.Sessions(1)
	if err != nil {
		return "", err
	}
	if len(sessions) == 0 {
		return "", fmt.Errorf("no recorded sessions")
	}
	return sessions[0].SessionID, nil
}

// RenderSession writes <id>-trajectory.png and <id>-speed.png into outDir
// and returns the paths written. m may be nil.
func RenderSession(store SessionStore, sessionID, outDir string, limit int, m *roadmap.Map) ([]string, error) {
	id, err := resolveSession(store, sessionID)
	if err != nil {
		return nil, err
	}
	cycles, err := store.Cycles(id, limit)
	if err != nil {
		return nil, fmt.Errorf("load cycles for %s: %w", id, err)
	}
	traces := plot.FromCycles(cycles)
	if len(traces) == 0 {
		return nil, fmt.Errorf("session %s: %w", id, plot.ErrNoCycles)
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, err
	}

	short := id
	if len(short) > 8 {
		short = short[:8]
	}
	opts := plot.Options{Title: fmt.Sprintf("Session %s (%d cycles)", short, len(traces))}
	if m != nil {
		opts.Waypoints = make([]roadmap.Waypoint, m.Len())
		for i := range opts.Waypoints {
			opts.Waypoints[i] = m.Waypoint(i)
		}
	}

	trajectory := filepath.Join(outDir, short+"-trajectory.png")
	if err := plot.SaveTrajectoryPNG(trajectory, traces, opts); err != nil {
		return nil, err
	}
	speed := filepath.Join(outDir, short+"-speed.png")
	if err := plot.SaveSpeedPNG(speed, traces, "Reference speed, "+short); err != nil {
		return nil, err
	}
	return []string{trajectory, speed}, nil
}
