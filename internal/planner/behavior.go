package planner

// Action names the outcome of a behaviour decision.
type Action string

const (
	ActionKeepLane   Action = "keep_lane"
	ActionShiftLeft  Action = "shift_left"
	ActionShiftRight Action = "shift_right"
	ActionDecelerate Action = "decelerate"
)

// Decision is the lane to target this cycle and whether to slow down.
type Decision struct {
	Lane       int    `json:"lane"`
	Decelerate bool   `json:"decelerate"`
	Action     Action `json:"action"`
}

// DecideLane picks the target lane from the hazard flags. It only reacts
// when the lane ahead is blocked: left is preferred over right, and when
// neither neighbour lane exists or is clear the lane is kept and the
// vehicle decelerates. The returned lane is always in [0, laneCount).
func DecideLane(flags HazardFlags, lane, laneCount int) Decision {
	if !flags.Ahead {
		return Decision{Lane: lane, Action: ActionKeepLane}
	}
	if lane > 0 && !flags.Left {
		return Decision{Lane: lane - 1, Action: ActionShiftLeft}
	}
	if lane < laneCount-1 && !flags.Right {
		return Decision{Lane: lane + 1, Action: ActionShiftRight}
	}
	return Decision{Lane: lane, Decelerate: true, Action: ActionDecelerate}
}
