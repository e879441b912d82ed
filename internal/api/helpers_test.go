package api

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/banshee-data/path-planner/internal/config"
	"github.com/banshee-data/path-planner/internal/db"
	"github.com/banshee-data/path-planner/internal/session"
)

var testStart = time.Unix(1700000000, 0)

// newTestStore opens a database holding one session "rec" with n cycles.
// Cycle i has reference speed i m/s and lane i%3.
func newTestStore(t *testing.T, n int) *db.DB {
	t.Helper()
	store, err := db.NewDB(filepath.Join(t.TempDir(), "planner.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.RecordSessionStart("rec", "127.0.0.1:5000", testStart))
	for i := 0; i < n; i++ {
		require.NoError(t, store.RecordCycle(db.CycleRecord{
			SessionID:         "rec",
			CycleIndex:        i,
			RecordedAt:        testStart.Add(time.Duration(i) * 20 * time.Millisecond),
			EgoX:              float64(i),
			EgoY:              -6,
			EgoS:              float64(i),
			EgoD:              6,
			EgoSpeedMPS:       float64(i),
			PlannedS:          float64(i),
			Action:            "keep_lane",
			Lane:              i % 3,
			ReferenceSpeedMPS: float64(i),
			TrajectoryX:       []float64{float64(i), float64(i) + 0.5, float64(i) + 1},
			TrajectoryY:       []float64{-6, -6, -6},
		}))
	}
	return store
}

func newTestServer(t *testing.T, store CycleStore, cfg *config.TuningConfig) (*Server, *session.Registry) {
	t.Helper()
	reg := session.NewRegistry()
	return NewServer(store, reg, cfg), reg
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(w, req)
	return w
}
