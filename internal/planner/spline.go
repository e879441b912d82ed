package planner

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/spatial/r2"
)

// ErrDegenerateAnchors is returned when the local-frame anchors cannot
// define y = f(x), for example when the previous path doubles back.
var ErrDegenerateAnchors = errors.New("planner: anchors not strictly increasing in local x")

// toLocal moves p into the frame with origin ref and x axis along heading.
func toLocal(p, ref r2.Vec, heading float64) r2.Vec {
	return r2.Rotate(r2.Sub(p, ref), -heading, r2.Vec{})
}

// toWorld is the inverse of toLocal.
func toWorld(p, ref r2.Vec, heading float64) r2.Vec {
	return r2.Add(r2.Rotate(p, heading, r2.Vec{}), ref)
}

// fitSpline fits a natural cubic spline through local-frame anchors.
func fitSpline(anchors []r2.Vec) (*interp.NaturalCubic, error) {
	if len(anchors) < 3 {
		return nil, fmt.Errorf("%w: need at least 3 anchors, got %d", ErrDegenerateAnchors, len(anchors))
	}
	xs := make([]float64, len(anchors))
	ys := make([]float64, len(anchors))
	for i, a := range anchors {
		if math.IsNaN(a.Y) || math.IsInf(a.Y, 0) {
			return nil, fmt.Errorf("%w: anchor %d has y=%v", ErrDegenerateAnchors, i, a.Y)
		}
		if i > 0 && !(a.X > xs[i-1]) {
			return nil, fmt.Errorf("%w: anchor %d at x=%.3f after x=%.3f", ErrDegenerateAnchors, i, a.X, xs[i-1])
		}
		xs[i], ys[i] = a.X, a.Y
	}
	if math.IsNaN(xs[0]) || math.IsInf(xs[0], 0) || math.IsInf(xs[len(xs)-1], 0) {
		return nil, fmt.Errorf("%w: non-finite anchor x", ErrDegenerateAnchors)
	}

	var s interp.NaturalCubic
	if err := s.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("fit spline: %w", err)
	}
	return &s, nil
}
