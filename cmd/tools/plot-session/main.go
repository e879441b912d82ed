// Command plot-session renders a recorded planner session to PNG.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/banshee-data/path-planner/internal/db"
	"github.com/banshee-data/path-planner/internal/roadmap"
)

func main() {
	dbPath := flag.String("db", "planner.db", "path to sqlite DB file")
	sessionID := flag.String("session", "", "session id (default: latest session)")
	outDir := flag.String("out", "plots", "output directory")
	limit := flag.Int("limit", 0, "max cycles to draw (0 for all)")
	mapPath := flag.String("map", "", "optional waypoint map drawn under the trajectories")
	maxS := flag.Float64("max-s", 6945.554, "track length of the map")
	flag.Parse()

	if _, err := os.Stat(*dbPath); err != nil {
		log.Fatalf("DB path %s not accessible: %v", *dbPath, err)
	}

	store, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close()

	var m *roadmap.Map
	if *mapPath != "" {
		if m, err = roadmap.LoadFile(*mapPath, *maxS); err != nil {
			log.Fatalf("load map: %v", err)
		}
	}

	files, err := RenderSession(store, *sessionID, *outDir, *limit, m)
	if err != nil {
		log.Fatalf("render failed: %v", err)
	}
	for _, f := range files {
		log.Printf("wrote %s", f)
	}
}
