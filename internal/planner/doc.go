// Package planner is the per-cycle highway motion planner.
//
// Each cycle runs three stages over one telemetry snapshot:
//
//   - AnalyzeNeighbors flags the current lane and its neighbours as
//     blocked when another vehicle is inside the safety window.
//   - DecideLane shifts one lane left, then right, or asks to slow down.
//   - Synthesize fits a natural cubic spline through sparse anchors in the
//     vehicle frame and resamples it under a per-step speed ramp.
//
// A Planner owns the state that carries between cycles (lane and
// reference speed). It is not safe for concurrent use; give each vehicle
// session its own Planner and share the read-only roadmap.Map.
package planner
