// Package plot renders recorded planner cycles to PNG with gonum/plot.
package plot

import (
	"errors"
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/path-planner/internal/db"
	"github.com/banshee-data/path-planner/internal/roadmap"
)

// ErrNoCycles is returned when there is nothing to draw.
var ErrNoCycles = errors.New("plot: no cycles")

// CycleTrace is the part of a recorded cycle the renderer draws.
type CycleTrace struct {
	Index          int
	EgoX, EgoY     float64
	X, Y           []float64
	Lane           int
	ReferenceSpeed float64 // m/s
	Action         string
}

// FromCycles converts recorded cycles into traces.
func FromCycles(cycles []db.CycleRecord) []CycleTrace {
	out := make([]CycleTrace, len(cycles))
	for i, c := range cycles {
		out[i] = CycleTrace{
			Index:          c.CycleIndex,
			EgoX:           c.EgoX,
			EgoY:           c.EgoY,
			X:              c.TrajectoryX,
			Y:              c.TrajectoryY,
			Lane:           c.Lane,
			ReferenceSpeed: c.ReferenceSpeedMPS,
			Action:         c.Action,
		}
	}
	return out
}

// Options controls the rendered image.
type Options struct {
	Title  string
	Width  vg.Length // default 10in
	Height vg.Length // default 10in

	// Waypoints, when set, are drawn under the trajectories.
	Waypoints []roadmap.Waypoint
}

func (o Options) size() (vg.Length, vg.Length) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = 10 * vg.Inch
	}
	if h <= 0 {
		h = 10 * vg.Inch
	}
	return w, h
}

// NewTrajectoryPlot builds a world-frame plot with one line per cycle,
// coloured by lane, and a marker at each ego position.
func NewTrajectoryPlot(cycles []CycleTrace, opts Options) (*plot.Plot, error) {
	if len(cycles) == 0 {
		return nil, ErrNoCycles
	}

	p := plot.New()
	p.Title.Text = opts.Title
	if p.Title.Text == "" {
		p.Title.Text = fmt.Sprintf("Planned trajectories (%d cycles)", len(cycles))
	}
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"
	p.Add(plotter.NewGrid())

	if len(opts.Waypoints) > 0 {
		pts := make(plotter.XYs, len(opts.Waypoints))
		for i, wp := range opts.Waypoints {
			pts[i] = plotter.XY{X: wp.X, Y: wp.Y}
		}
		road, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, err
		}
		road.GlyphStyle.Color = color.Gray{Y: 160}
		road.GlyphStyle.Radius = vg.Points(1.5)
		road.GlyphStyle.Shape = draw.CrossGlyph{}
		p.Add(road)
		p.Legend.Add("waypoints", road)
	}

	maxLane := 0
	for _, c := range cycles {
		if c.Lane > maxLane {
			maxLane = c.Lane
		}
	}
	colors := generateColors(maxLane + 1)
	labelled := make(map[int]bool)

	ego := make(plotter.XYs, 0, len(cycles))
	for _, c := range cycles {
		ego = append(ego, plotter.XY{X: c.EgoX, Y: c.EgoY})
		n := len(c.X)
		if len(c.Y) < n {
			n = len(c.Y)
		}
		if n < 2 {
			continue
		}
		pts := make(plotter.XYs, n)
		for i := 0; i < n; i++ {
			pts[i] = plotter.XY{X: c.X[i], Y: c.Y[i]}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("cycle %d: %w", c.Index, err)
		}
		line.Width = vg.Points(1)
		if c.Lane >= 0 {
			line.Color = colors[c.Lane]
		}
		p.Add(line)
		if c.Lane >= 0 && !labelled[c.Lane] {
			p.Legend.Add(fmt.Sprintf("lane %d", c.Lane), line)
			labelled[c.Lane] = true
		}
	}

	egoScatter, err := plotter.NewScatter(ego)
	if err != nil {
		return nil, err
	}
	egoScatter.GlyphStyle.Color = color.Black
	egoScatter.GlyphStyle.Radius = vg.Points(2)
	egoScatter.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(egoScatter)
	p.Legend.Add("ego", egoScatter)

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// NewSpeedPlot builds a plot of reference speed against cycle index.
func NewSpeedPlot(cycles []CycleTrace, title string) (*plot.Plot, error) {
	if len(cycles) == 0 {
		return nil, ErrNoCycles
	}
	p := plot.New()
	p.Title.Text = title
	if p.Title.Text == "" {
		p.Title.Text = "Reference speed"
	}
	p.X.Label.Text = "Cycle"
	p.Y.Label.Text = "Speed (m/s)"
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(cycles))
	for i, c := range cycles {
		pts[i] = plotter.XY{X: float64(c.Index), Y: c.ReferenceSpeed}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.Width = vg.Points(1)
	line.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	p.Add(line)
	return p, nil
}

// RenderTrajectory writes the trajectory plot as PNG to w.
func RenderTrajectory(w io.Writer, cycles []CycleTrace, opts Options) error {
	p, err := NewTrajectoryPlot(cycles, opts)
	if err != nil {
		return err
	}
	width, height := opts.size()
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("render trajectory plot: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// SaveTrajectoryPNG writes the trajectory plot to path.
func SaveTrajectoryPNG(path string, cycles []CycleTrace, opts Options) error {
	p, err := NewTrajectoryPlot(cycles, opts)
	if err != nil {
		return err
	}
	width, height := opts.size()
	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("save trajectory plot: %w", err)
	}
	return nil
}

// SaveSpeedPNG writes the reference speed plot to path.
func SaveSpeedPNG(path string, cycles []CycleTrace, title string) error {
	p, err := NewSpeedPlot(cycles, title)
	if err != nil {
		return err
	}
	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save speed plot: %w", err)
	}
	return nil
}
