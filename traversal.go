package pick_place

import "time"

// DefaultLegDuration is the nominal time allotted to one traversal leg.
const DefaultLegDuration = 600 * time.Millisecond

// ArmPose is one joint-position reading in radians, in the configured joint
// order.
type ArmPose []float64

// Waypoint is a full-arm target with the same joint order as ArmPose.
type Waypoint []float64

// Phase is the sub-state of a two-waypoint traversal.
type Phase int

const (
	// PhaseMiddle heads for the intermediate waypoint.
	PhaseMiddle Phase = iota
	// PhaseGoal heads for the final waypoint. It is terminal for a cycle.
	PhaseGoal
)

func (p Phase) String() string {
	switch p {
	case PhaseMiddle:
		return "middle"
	case PhaseGoal:
		return "goal"
	default:
		return "unknown"
	}
}

// Step is one traversal decision: the phase to persist and the command to
// publish.
type Step struct {
	Phase    Phase
	Target   Waypoint
	Duration time.Duration
}

// Traversal moves the arm through a middle waypoint to a goal waypoint.
// It holds no per-cycle state; callers persist the returned phase.
type Traversal struct {
	Threshold   float64
	LegDuration time.Duration
}

// NewTraversal returns a Traversal, substituting defaults for zero values.
func NewTraversal(threshold float64, legDuration time.Duration) Traversal {
	if threshold <= 0 {
		threshold = DefaultClosenessThreshold
	}
	if legDuration <= 0 {
		legDuration = DefaultLegDuration
	}
	return Traversal{Threshold: threshold, LegDuration: legDuration}
}

// Advance decides the next command. In PhaseMiddle the middle waypoint is
// commanded at half the leg duration and the phase moves to PhaseGoal once
// current is close to middle. In PhaseGoal the goal is commanded at the full
// leg duration and the phase stays put.
func (t Traversal) Advance(phase Phase, middle, goal Waypoint, current ArmPose) Step {
	if phase >= PhaseGoal {
		return Step{Phase: PhaseGoal, Target: goal, Duration: t.LegDuration}
	}
	next := PhaseMiddle
	if IsClose(middle, current, t.Threshold) {
		next = PhaseGoal
	}
	return Step{Phase: next, Target: middle, Duration: t.LegDuration / 2}
}
