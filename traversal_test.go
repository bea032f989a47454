package pick_place

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewTraversalDefaults(t *testing.T) {
	tr := NewTraversal(0, 0)
	assert.Equal(t, DefaultClosenessThreshold, tr.Threshold)
	assert.Equal(t, DefaultLegDuration, tr.LegDuration)

	tr = NewTraversal(0.1, 2*time.Second)
	assert.Equal(t, 0.1, tr.Threshold)
	assert.Equal(t, 2*time.Second, tr.LegDuration)
}

func TestTraversalAdvance(t *testing.T) {
	tr := NewTraversal(0.05, 600*time.Millisecond)
	middle := Waypoint{1.76, 0.42, -1.0, 2.0, 3.58, -1.51, 0.0}
	goal := Waypoint{1.76, 2.06, -0.63, 1.5, 3.27, -1.51, 0.0}

	t.Run("far from middle stays in middle phase", func(t *testing.T) {
		current := ArmPose{1.51, 0.0, -1.13, 3.14, 3.58, -1.51, 0.0}
		step := tr.Advance(PhaseMiddle, middle, goal, current)
		assert.Equal(t, PhaseMiddle, step.Phase)
		assert.Equal(t, middle, step.Target)
		assert.Equal(t, 300*time.Millisecond, step.Duration)
	})

	t.Run("arriving at middle switches to goal phase", func(t *testing.T) {
		current := ArmPose{1.77, 0.41, -1.0, 2.01, 3.58, -1.51, 0.0}
		step := tr.Advance(PhaseMiddle, middle, goal, current)
		assert.Equal(t, PhaseGoal, step.Phase)
		assert.Equal(t, middle, step.Target)
		assert.Equal(t, 300*time.Millisecond, step.Duration)
	})

	t.Run("goal phase commands goal at full duration", func(t *testing.T) {
		current := ArmPose{1.76, 0.42, -1.0, 2.0, 3.58, -1.51, 0.0}
		step := tr.Advance(PhaseGoal, middle, goal, current)
		assert.Equal(t, PhaseGoal, step.Phase)
		assert.Equal(t, goal, step.Target)
		assert.Equal(t, 600*time.Millisecond, step.Duration)
	})

	t.Run("goal phase never regresses", func(t *testing.T) {
		// Far from every waypoint.
		current := ArmPose{0, 0, 0, 0, 0, 0, 0}
		phase := PhaseGoal
		for i := 0; i < 5; i++ {
			step := tr.Advance(phase, middle, goal, current)
			assert.Equal(t, PhaseGoal, step.Phase)
			phase = step.Phase
		}
	})
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "middle", PhaseMiddle.String())
	assert.Equal(t, "goal", PhaseGoal.String())
	assert.Equal(t, "unknown", Phase(7).String())
}

func TestTraversalExactArrivalAndNearMiss(t *testing.T) {
	tr := NewTraversal(0.05, DefaultLegDuration)
	middle := Waypoint{1.76, 0.42, -1.0, 2.0, 3.58, -1.51, 0.0}
	goal := Waypoint{1.76, 2.06, -0.63, 1.5, 3.27, -1.51, 0.0}

	step := tr.Advance(PhaseMiddle, middle, goal, ArmPose(middle))
	assert.Equal(t, PhaseGoal, step.Phase)
	assert.Equal(t, middle, step.Target)

	offByOne := ArmPose{1.76, 0.42, -1.0, 2.06, 3.58, -1.51, 0.0}
	step = tr.Advance(PhaseMiddle, middle, goal, offByOne)
	assert.Equal(t, PhaseMiddle, step.Phase)
	assert.Equal(t, middle, step.Target)
}
