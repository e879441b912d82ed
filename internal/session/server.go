package session

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/banshee-data/path-planner/internal/httputil"
	"github.com/banshee-data/path-planner/internal/monitoring"
	"github.com/banshee-data/path-planner/internal/planner"
	"github.com/banshee-data/path-planner/internal/roadmap"
	"github.com/banshee-data/path-planner/internal/timeutil"
)

// maxFrameBytes bounds a single telemetry frame.
const maxFrameBytes = 1 << 20

// Config configures a Server.
type Config struct {
	Map    *roadmap.Map
	Params planner.Params

	// Optional.
	Recorder Recorder
	Registry *Registry
	Clock    timeutil.Clock
}

// Server accepts simulator websocket connections and gives each one its
// own planner.
type Server struct {
	cfg Config

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer validates cfg and returns a Server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Map == nil {
		return nil, errors.New("session: nil map")
	}
	// Build one planner up front so bad params fail here, not per connection.
	if _, err := planner.New(cfg.Map, cfg.Params); err != nil {
		return nil, err
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	if cfg.Registry == nil {
		cfg.Registry = NewRegistry()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{cfg: cfg, ctx: ctx, cancel: cancel}, nil
}

// Registry returns the registry of live sessions.
func (srv *Server) Registry() *Registry { return srv.cfg.Registry }

// NewSession starts a session for a connection from remote.
func (srv *Server) NewSession(remote string) (*Session, error) {
	pl, err := planner.New(srv.cfg.Map, srv.cfg.Params)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	s := &Session{
		ID:       id,
		Remote:   remote,
		Started:  srv.cfg.Clock.Now(),
		planner:  pl,
		recorder: srv.cfg.Recorder,
		registry: srv.cfg.Registry,
		clock:    srv.cfg.Clock,
		logf:     monitoring.Prefixed(fmt.Sprintf("[session %s] ", id[:8])),
	}
	if s.recorder != nil {
		if err := s.recorder.RecordSessionStart(s.ID, s.Remote, s.Started); err != nil {
			return nil, fmt.Errorf("failed to record session start: %w", err)
		}
	}
	s.registry.Add(Info{
		ID:      s.ID,
		Remote:  s.Remote,
		Started: s.Started,
		State:   pl.State(),
	})
	s.logf("connected from %s", remote)
	return s, nil
}

// EndSession unregisters s and records its end.
func (srv *Server) EndSession(s *Session) {
	s.registry.Remove(s.ID)
	if s.recorder != nil {
		if err := s.recorder.RecordSessionEnd(s.ID, srv.cfg.Clock.Now(), s.cycles); err != nil {
			s.logf("failed to record session end: %v", err)
		}
	}
	s.logf("disconnected after %d cycles (%d rejected)", s.cycles, s.rejected)
}

// ServeHTTP upgrades websocket requests into sessions. Plain requests for
// the root get a small status page.
func (srv *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !isWebsocketUpgrade(r) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		httputil.WriteHTML(w, func(out io.Writer) error {
			return statusPage.Execute(out, srv.cfg.Registry.List())
		})
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// The simulator does not send an Origin the default policy accepts.
		InsecureSkipVerify: true,
	})
	if err != nil {
		monitoring.Logf("websocket accept from %s failed: %v", r.RemoteAddr, err)
		return
	}
	conn.SetReadLimit(maxFrameBytes)

	s, err := srv.NewSession(r.RemoteAddr)
	if err != nil {
		monitoring.Logf("failed to start session for %s: %v", r.RemoteAddr, err)
		conn.Close(websocket.StatusInternalError, "session unavailable")
		return
	}

	srv.wg.Add(1)
	defer srv.wg.Done()
	defer srv.EndSession(s)

	if err := srv.serve(srv.ctx, conn, s); err != nil {
		s.logf("connection closed: %v", err)
		conn.Close(websocket.StatusInternalError, "")
		return
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

func (srv *Server) serve(ctx context.Context, conn *websocket.Conn, s *Session) error {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			continue
		}
		reply, ok := s.Handle(string(data))
		if !ok {
			continue
		}
		if err := conn.Write(ctx, websocket.MessageText, []byte(reply)); err != nil {
			return err
		}
	}
}

// Close ends every open session and waits for their handlers to return.
func (srv *Server) Close() {
	srv.cancel()
	srv.wg.Wait()
}

func isWebsocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

var statusPage = template.Must(template.New("status").Parse(`<!doctype html>
<html><head><title>path planner</title></head>
<body>
<h1>Path planner</h1>
<p>{{len .}} live session(s)</p>
{{if .}}<table>
<tr><th>session</th><th>remote</th><th>cycles</th><th>lane</th><th>speed (m/s)</th><th>action</th></tr>
{{range .}}<tr><td>{{.ID}}</td><td>{{.Remote}}</td><td>{{.Cycles}}</td><td>{{.State.Lane}}</td><td>{{printf "%.2f" .State.ReferenceSpeed}}</td><td>{{.LastDecision.Action}}</td></tr>
{{end}}</table>{{end}}
<p><a href="/api/sessions">recorded sessions</a> &middot; <a href="/debug/">debug</a></p>
</body></html>
`))
