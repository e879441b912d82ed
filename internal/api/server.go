// Package api serves recorded and live planner sessions as JSON and
// go-echarts pages.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/banshee-data/path-planner/internal/config"
	"github.com/banshee-data/path-planner/internal/db"
	"github.com/banshee-data/path-planner/internal/httputil"
	"github.com/banshee-data/path-planner/internal/session"
	"github.com/banshee-data/path-planner/internal/units"
)

const defaultLimit = 100

// CycleStore is the read side of the recorder. *db.DB implements it.
type CycleStore interface {
	Sessions(limit int) ([]db.SessionRecord, error)
	Session(sessionID string) (db.SessionRecord, error)
	Cycles(sessionID string, limit int) ([]db.CycleRecord, error)
	Stats() (db.Stats, error)
}

// Server serves the planner API. store may be nil when recording is off.
type Server struct {
	store    CycleStore
	registry *session.Registry
	cfg      *config.TuningConfig
	units    string
	mux      *http.ServeMux
}

// NewServer returns a Server. Speeds are reported in the config's units.
func NewServer(store CycleStore, registry *session.Registry, cfg *config.TuningConfig) *Server {
	if cfg == nil {
		cfg = config.EmptyTuningConfig()
	}
	if registry == nil {
		registry = session.NewRegistry()
	}
	return &Server{
		store:    store,
		registry: registry,
		cfg:      cfg,
		units:    cfg.GetSpeedUnits(),
	}
}

// ServeMux returns the API routes. The mux is built once.
func (s *Server) ServeMux() *http.ServeMux {
	if s.mux != nil {
		return s.mux
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sessions", s.listSessions)
	mux.HandleFunc("/api/sessions/live", s.listLiveSessions)
	mux.HandleFunc("/api/cycles", s.listCycles)
	mux.HandleFunc("/api/stats", s.showStats)
	mux.HandleFunc("/api/config", s.showConfig)
	mux.HandleFunc("/api/charts/speed", s.speedChart)
	mux.HandleFunc("/api/charts/path", s.pathChart)
	s.mux = mux
	return mux
}

// cycleAPI is a recorded cycle with speeds in the display units.
type cycleAPI struct {
	db.CycleRecord
	EgoSpeed       float64 `json:"ego_speed"`
	ReferenceSpeed float64 `json:"reference_speed"`
	Units          string  `json:"units"`
}

func (s *Server) toAPI(c db.CycleRecord) cycleAPI {
	return cycleAPI{
		CycleRecord:    c,
		EgoSpeed:       units.ConvertSpeed(c.EgoSpeedMPS, s.units),
		ReferenceSpeed: units.ConvertSpeed(c.ReferenceSpeedMPS, s.units),
		Units:          s.units,
	}
}

// requireStore writes 503 and returns false when recording is off.
func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "recording is disabled")
		return false
	}
	return true
}

func parseLimit(r *http.Request) (int, error) {
	l := r.URL.Query().Get("limit")
	if l == "" {
		return defaultLimit, nil
	}
	n, err := strconv.Atoi(l)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid 'limit' parameter %q", l)
	}
	return n, nil
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if !s.requireStore(w) {
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	sessions, err := s.store.Sessions(limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to retrieve sessions: %v", err))
		return
	}
	httputil.WriteJSONOK(w, sessions)
}

func (s *Server) listLiveSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.registry.List())
}

// loadCycles resolves the session_id query parameter and returns its
// cycles, writing the error response itself on failure.
func (s *Server) loadCycles(w http.ResponseWriter, r *http.Request, limit int) (string, []db.CycleRecord, bool) {
	id := r.URL.Query().Get("session_id")
	if id == "" {
		httputil.BadRequest(w, "missing 'session_id' parameter")
		return "", nil, false
	}
	if _, err := s.store.Session(id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			httputil.NotFound(w, fmt.Sprintf("session %s not found", id))
		} else {
			httputil.InternalServerError(w, fmt.Sprintf("Failed to retrieve session: %v", err))
		}
		return "", nil, false
	}
	cycles, err := s.store.Cycles(id, limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to retrieve cycles: %v", err))
		return "", nil, false
	}
	return id, cycles, true
}

func (s *Server) listCycles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if !s.requireStore(w) {
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	_, cycles, ok := s.loadCycles(w, r, limit)
	if !ok {
		return
	}
	out := make([]cycleAPI, len(cycles))
	for i, c := range cycles {
		out[i] = s.toAPI(c)
	}
	httputil.WriteJSONOK(w, out)
}

func (s *Server) showStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if !s.requireStore(w) {
		return
	}
	st, err := s.store.Stats()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to retrieve stats: %v", err))
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"recorded":      st,
		"live_sessions": s.registry.Len(),
	})
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.cfg.Effective())
}
