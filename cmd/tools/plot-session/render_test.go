package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/path-planner/internal/db"
	"github.com/banshee-data/path-planner/internal/monitoring"
	"github.com/banshee-data/path-planner/internal/plot"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func newStore(t *testing.T) *db.DB {
	t.Helper()
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(original) })

	store, err := db.NewDB(filepath.Join(t.TempDir(), "planner.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func recordSession(t *testing.T, store *db.DB, id string, started time.Time, n int) {
	t.Helper()
	require.NoError(t, store.RecordSessionStart(id, "127.0.0.1:1", started))
	for i := 0; i < n; i++ {
		x := float64(i) * 2
		require.NoError(t, store.RecordCycle(db.CycleRecord{
			SessionID:         id,
			CycleIndex:        i,
			RecordedAt:        started.Add(time.Duration(i) * 20 * time.Millisecond),
			EgoX:              x,
			EgoY:              -6,
			EgoSpeedMPS:       float64(i) * 0.5,
			Action:            "keep_lane",
			Lane:              1,
			ReferenceSpeedMPS: float64(i) * 0.5,
			Latency:           time.Millisecond,
			TrajectoryX:       []float64{x, x + 0.1, x + 0.2},
			TrajectoryY:       []float64{-6, -6, -6},
		}))
	}
}

func TestRenderSessionLatest(t *testing.T) {
	store := newStore(t)
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	recordSession(t, store, "aaaaaaaa-older", start, 3)
	recordSession(t, store, "bbbbbbbb-newer", start.Add(time.Minute), 5)

	out := filepath.Join(t.TempDir(), "plots")
	files, err := RenderSession(store, "", out, 0, nil)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(out, "bbbbbbbb-trajectory.png"), files[0])
	assert.Equal(t, filepath.Join(out, "bbbbbbbb-speed.png"), files[1])

	for _, f := range files {
		data, err := os.ReadFile(f)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, pngMagic), "%s is not a PNG", f)
	}
}

func TestRenderSessionExplicitID(t *testing.T) {
	store := newStore(t)
	recordSession(t, store, "s1", time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), 4)

	files, err := RenderSession(store, "s1", t.TempDir(), 2, nil)
	require.NoError(t, err)
	assert.Contains(t, files[0], "s1-trajectory.png")
}

func TestRenderSessionErrors(t *testing.T) {
	store := newStore(t)

	_, err := RenderSession(store, "", t.TempDir(), 0, nil)
	assert.Error(t, err, "empty database")

	require.NoError(t, store.RecordSessionStart("empty", "127.0.0.1:1", time.Now()))
	_, err = RenderSession(store, "empty", t.TempDir(), 0, nil)
	assert.True(t, errors.Is(err, plot.ErrNoCycles), "got %v", err)
}

type brokenStore struct{}

func (brokenStore) Sessions(int) ([]db.SessionRecord, error) { return nil, fmt.Errorf("disk on fire") }
func (brokenStore) Cycles(string, int) ([]db.CycleRecord, error) {
	return nil, fmt.Errorf("disk on fire")
}

func TestRenderSessionStoreFailure(t *testing.T) {
	_, err := RenderSession(brokenStore{}, "", t.TempDir(), 0, nil)
	assert.ErrorContains(t, err, "disk on fire")

	_, err = RenderSession(brokenStore{}, "s1", t.TempDir(), 0, nil)
	assert.ErrorContains(t, err, "load cycles for s1")
}
