package roadmap

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Load reads a waypoint table in the highway map layout: one waypoint per
// line as whitespace-separated "x y s dx dy". Blank lines and lines
// starting with '#' are skipped.
func Load(r io.Reader, maxS float64) (*Map, error) {
	var waypoints []Waypoint

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 5 {
			return nil, fmt.Errorf("roadmap: line %d: expected 5 fields, got %d", lineNo, len(fields))
		}
		var vals [5]float64
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("roadmap: line %d field %d: %w", lineNo, i+1, err)
			}
			vals[i] = v
		}
		waypoints = append(waypoints, Waypoint{X: vals[0], Y: vals[1], S: vals[2], DX: vals[3], DY: vals[4]})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("roadmap: read waypoints: %w", err)
	}

	return New(waypoints, maxS)
}

// LoadFile opens path and calls Load.
func LoadFile(path string, maxS float64) (*Map, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("roadmap: open map file: %w", err)
	}
	defer f.Close()

	m, err := Load(f, maxS)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
