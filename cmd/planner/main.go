// Command planner serves the highway simulator: every websocket
// connection gets its own path planner, and every planned cycle is
// recorded to SQLite for the HTTP API and debug pages.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/path-planner/internal/api"
	"github.com/banshee-data/path-planner/internal/config"
	"github.com/banshee-data/path-planner/internal/db"
	"github.com/banshee-data/path-planner/internal/planner"
	"github.com/banshee-data/path-planner/internal/roadmap"
	"github.com/banshee-data/path-planner/internal/session"
	"github.com/banshee-data/path-planner/internal/version"
)

var (
	configPath  = flag.String("config", "", "Path to a tuning config JSON file (defaults are compiled in)")
	mapPath     = flag.String("map", "data/highway_map.csv", "Waypoint map: one \"x y s dx dy\" row per line")
	maxS        = flag.Float64("max-s", 0, "Track length before s wraps to 0 (overrides max_s from the config)")
	listen      = flag.String("listen", ":4567", "Listen address")
	dbPath      = flag.String("db", "planner.db", "SQLite database for recorded cycles (empty disables recording)")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// loadTuning returns the config at path, or the compiled defaults when
// path is empty. A positive maxSOverride replaces max_s.
func loadTuning(path string, maxSOverride float64) (*config.TuningConfig, error) {
	cfg := config.EmptyTuningConfig()
	if path != "" {
		var err error
		if cfg, err = config.LoadTuningConfig(path); err != nil {
			return nil, err
		}
	}
	if maxSOverride > 0 {
		cfg.MaxS = &maxSOverride
	}
	return cfg, nil
}

// newHandler mounts the simulator endpoint at "/", the API under /api/
// and, when store is non-nil, the recorder's debug pages under /debug/.
func newHandler(sessions *session.Server, apiServer *api.Server, store *db.DB) (http.Handler, error) {
	mux := apiServer.ServeMux()
	if store != nil {
		if err := store.AttachAdminRoutes(mux); err != nil {
			return nil, err
		}
	}
	mux.Handle("/", sessions)
	return api.LoggingMiddleware(mux), nil
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg, err := loadTuning(*configPath, *maxS)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	params := planner.ParamsFromTuning(cfg)

	m, err := roadmap.LoadFile(*mapPath, cfg.GetMaxS())
	if err != nil {
		log.Fatalf("failed to load map: %v", err)
	}
	log.Printf("loaded %d waypoints from %s (max_s=%.3f)", m.Len(), *mapPath, m.MaxS())

	var store *db.DB
	var recorder session.Recorder
	var cycleStore api.CycleStore
	if *dbPath != "" {
		store, err = db.NewDB(*dbPath)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer store.Close()
		recorder, cycleStore = store, store
	} else {
		log.Printf("recording disabled")
	}

	registry := session.NewRegistry()
	sessions, err := session.NewServer(session.Config{
		Map:      m,
		Params:   params,
		Recorder: recorder,
		Registry: registry,
	})
	if err != nil {
		log.Fatalf("failed to create session server: %v", err)
	}

	handler, err := newHandler(sessions, api.NewServer(cycleStore, registry, cfg), store)
	if err != nil {
		log.Fatalf("failed to mount routes: %v", err)
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wg.Add(1)
	go func() {
		defer wg.Done()

		server := &http.Server{
			Addr:    *listen,
			Handler: handler,
		}

		go func() {
			log.Printf("listening on %s (%s)", *listen, version.String())
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}

		// Hijacked websocket connections are not covered by Shutdown.
		sessions.Close()
		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
