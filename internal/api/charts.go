package api

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/path-planner/internal/db"
	"github.com/banshee-data/path-planner/internal/httputil"
	"github.com/banshee-data/path-planner/internal/units"
)

type renderer interface {
	Render(w io.Writer) error
}

func writeChart(w http.ResponseWriter, c renderer) {
	var buf bytes.Buffer
	if err := c.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// speedChart renders reference speed, measured ego speed and lane per
// cycle of a recorded session.
// Query params:
//   - session_id (required)
func (s *Server) speedChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if !s.requireStore(w) {
		return
	}
	id, cycles, ok := s.loadCycles(w, r, 0)
	if !ok {
		return
	}

	x := make([]int, len(cycles))
	ref := make([]opts.LineData, len(cycles))
	ego := make([]opts.LineData, len(cycles))
	lane := make([]opts.LineData, len(cycles))
	for i, c := range cycles {
		x[i] = c.CycleIndex
		ref[i] = opts.LineData{Value: units.ConvertSpeed(c.ReferenceSpeedMPS, s.units)}
		ego[i] = opts.LineData{Value: units.ConvertSpeed(c.EgoSpeedMPS, s.units)}
		lane[i] = opts.LineData{Value: c.Lane}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Planner speed", Width: "100%", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Reference speed and lane", Subtitle: fmt.Sprintf("session=%s cycles=%d", id, len(cycles))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "cycle", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: fmt.Sprintf("speed (%s) / lane", s.units)}),
	)
	line.SetXAxis(x).
		AddSeries("reference speed", ref).
		AddSeries("ego speed", ego).
		AddSeries("lane", lane)

	writeChart(w, line)
}

// pathChart renders the planned trajectory of one cycle with the ego
// position it was planned from.
// Query params:
//   - session_id (required)
//   - cycle (optional; defaults to the last recorded cycle)
func (s *Server) pathChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if !s.requireStore(w) {
		return
	}
	id, cycles, ok := s.loadCycles(w, r, 0)
	if !ok {
		return
	}
	if len(cycles) == 0 {
		httputil.NotFound(w, fmt.Sprintf("session %s has no cycles", id))
		return
	}

	c := cycles[len(cycles)-1]
	if v := r.URL.Query().Get("cycle"); v != "" {
		idx, err := strconv.Atoi(v)
		if err != nil {
			httputil.BadRequest(w, fmt.Sprintf("invalid 'cycle' parameter %q", v))
			return
		}
		found, ok := findCycle(cycles, idx)
		if !ok {
			httputil.NotFound(w, fmt.Sprintf("cycle %d not found", idx))
			return
		}
		c = found
	}

	pts := make([]opts.ScatterData, len(c.TrajectoryX))
	minX, maxX := c.EgoX, c.EgoX
	minY, maxY := c.EgoY, c.EgoY
	for i := range c.TrajectoryX {
		x, y := c.TrajectoryX[i], c.TrajectoryY[i]
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
		pts[i] = opts.ScatterData{Value: []interface{}{x, y}}
	}
	// Square the view so lane offsets are not exaggerated.
	half := math.Max(maxX-minX, maxY-minY)/2*1.1 + 1
	cx, cy := (minX+maxX)/2, (minY+maxY)/2

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Planned path", Width: "800px", Height: "800px"}),
		charts.WithTitleOpts(opts.Title{Title: "Planned trajectory", Subtitle: fmt.Sprintf("session=%s cycle=%d action=%s lane=%d", id, c.CycleIndex, c.Action, c.Lane)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Min: cx - half, Max: cx + half, Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Min: cy - half, Max: cy + half, Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("trajectory", pts, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
	scatter.AddSeries("ego", []opts.ScatterData{{Value: []interface{}{c.EgoX, c.EgoY}}},
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 12}))

	writeChart(w, scatter)
}

func findCycle(cycles []db.CycleRecord, index int) (db.CycleRecord, bool) {
	for _, c := range cycles {
		if c.CycleIndex == index {
			return c, true
		}
	}
	return db.CycleRecord{}, false
}
