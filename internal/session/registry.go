package session

import (
	"sort"
	"sync"
	"time"

	"github.com/banshee-data/path-planner/internal/planner"
)

// Info is a snapshot of one live session.
type Info struct {
	ID           string              `json:"session_id"`
	Remote       string              `json:"remote_addr"`
	Started      time.Time           `json:"started"`
	LastUpdate   time.Time           `json:"last_update"`
	Cycles       int                 `json:"cycles"`
	Rejected     int                 `json:"rejected"`
	State        planner.State       `json:"state"`
	LastFlags    planner.HazardFlags `json:"last_flags"`
	LastDecision planner.Decision    `json:"last_decision"`
	LastLatency  time.Duration       `json:"last_latency_nanos"`
}

// Registry tracks live sessions. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]Info
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]Info)}
}

// Add registers a session, replacing any entry with the same id.
func (r *Registry) Add(info Info) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[info.ID] = info
}

// Update applies fn to the entry for id. It is a no-op for unknown ids.
func (r *Registry) Update(id string, fn func(*Info)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.sessions[id]
	if !ok {
		return
	}
	fn(&info)
	r.sessions[id] = info
}

// Remove drops a session.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Get returns the entry for id.
func (r *Registry) Get(id string) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.sessions[id]
	return info, ok
}

// List returns all live sessions, oldest first.
func (r *Registry) List() []Info {
	r.mu.RLock()
	out := make([]Info, 0, len(r.sessions))
	for _, info := range r.sessions {
		out = append(out, info)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Started.Equal(out[j].Started) {
			return out[i].ID < out[j].ID
		}
		return out[i].Started.Before(out[j].Started)
	})
	return out
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
