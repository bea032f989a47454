package pick_place

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/referenceframe"
)

// MotionSink accepts joint-space targets. Publish does not wait for the arm
// to arrive.
type MotionSink interface {
	Publish(ctx context.Context, target Waypoint, duration time.Duration) error
}

// FeedbackSource reports the current joint positions of the arm.
type FeedbackSource interface {
	ArmPose(ctx context.Context) (ArmPose, error)
}

// jointMover is the part of arm.Arm used to command motion.
type jointMover interface {
	MoveToJointPositions(ctx context.Context, positions []referenceframe.Input, extra map[string]interface{}) error
}

// jointReader is the part of arm.Arm used for feedback.
type jointReader interface {
	JointPositions(ctx context.Context, extra map[string]interface{}) ([]referenceframe.Input, error)
}

// armMotionSink forwards targets to a Viam arm. The leg duration travels in
// the extra map the same way speed and acceleration overrides do.
type armMotionSink struct {
	arm    jointMover
	logger logging.Logger
}

func newArmMotionSink(a jointMover, logger logging.Logger) *armMotionSink {
	return &armMotionSink{arm: a, logger: logger}
}

func (s *armMotionSink) Publish(ctx context.Context, target Waypoint, duration time.Duration) error {
	extra := map[string]interface{}{
		"duration_s": duration.Seconds(),
	}
	if err := s.arm.MoveToJointPositions(ctx, target, extra); err != nil {
		return errors.Wrap(err, "failed to move to joint positions")
	}
	s.logger.Debugf("Commanded %v over %v", []float64(target), duration)
	return nil
}

type armFeedback struct {
	arm jointReader
}

func (f *armFeedback) ArmPose(ctx context.Context) (ArmPose, error) {
	inputs, err := f.arm.JointPositions(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read joint positions")
	}
	return ArmPose(inputs), nil
}
