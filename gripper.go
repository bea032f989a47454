package pick_place

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.viam.com/rdk/components/gripper"
	"go.viam.com/rdk/logging"
)

// Actuator engages and disengages the end effector. Each call issues exactly
// one command and does not wait for the attach state to change.
type Actuator interface {
	Engage(ctx context.Context) error
	Disengage(ctx context.Context) error
}

// AttachSource reports whether the end effector currently holds a part.
type AttachSource interface {
	Attached(ctx context.Context) (bool, error)
}

// ActuationError is returned when the end effector rejects a command or
// cannot be reached.
type ActuationError struct {
	Op  string
	Err error
}

func (e *ActuationError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *ActuationError) Unwrap() error {
	return e.Err
}

const (
	opEngage    = "engage"
	opDisengage = "disengage"
)

// grabber is the part of gripper.Gripper used for actuation.
type grabber interface {
	Grab(ctx context.Context, extra map[string]interface{}) (bool, error)
	Open(ctx context.Context, extra map[string]interface{}) error
}

// holdingReporter is the part of gripper.Gripper used for attach state.
type holdingReporter interface {
	IsHoldingSomething(ctx context.Context, extra map[string]interface{}) (gripper.HoldingStatus, error)
}

// gripperActuator drives a Viam gripper: Grab engages, Open disengages.
type gripperActuator struct {
	gripper grabber
	logger  logging.Logger
}

func newGripperActuator(g grabber, logger logging.Logger) *gripperActuator {
	return &gripperActuator{gripper: g, logger: logger}
}

func (a *gripperActuator) Engage(ctx context.Context) error {
	grabbed, err := a.gripper.Grab(ctx, nil)
	if err != nil {
		return &ActuationError{Op: opEngage, Err: err}
	}
	// Grab's result is advisory; attach state is read from the AttachSource.
	a.logger.Debugf("Gripper grab issued (reported grabbed=%v)", grabbed)
	return nil
}

func (a *gripperActuator) Disengage(ctx context.Context) error {
	if err := a.gripper.Open(ctx, nil); err != nil {
		return &ActuationError{Op: opDisengage, Err: err}
	}
	a.logger.Debug("Gripper open issued")
	return nil
}

type gripperAttachSource struct {
	gripper holdingReporter
}

func (s *gripperAttachSource) Attached(ctx context.Context) (bool, error) {
	status, err := s.gripper.IsHoldingSomething(ctx, nil)
	if err != nil {
		return false, errors.Wrap(err, "failed to read gripper holding status")
	}
	return status.IsHoldingSomething, nil
}

// pinSetter is the part of board.GPIOPin used to switch a vacuum generator.
type pinSetter interface {
	Set(ctx context.Context, high bool, extra map[string]interface{}) error
}

// pinReader is the part of board.GPIOPin used to sense vacuum attachment.
type pinReader interface {
	Get(ctx context.Context, extra map[string]interface{}) (bool, error)
}

// vacuumActuator drives a suction cup through a single enable pin.
type vacuumActuator struct {
	pin    pinSetter
	logger logging.Logger
}

func (a *vacuumActuator) Engage(ctx context.Context) error {
	if err := a.pin.Set(ctx, true, nil); err != nil {
		return &ActuationError{Op: opEngage, Err: err}
	}
	a.logger.Debug("Vacuum enabled")
	return nil
}

func (a *vacuumActuator) Disengage(ctx context.Context) error {
	if err := a.pin.Set(ctx, false, nil); err != nil {
		return &ActuationError{Op: opDisengage, Err: err}
	}
	a.logger.Debug("Vacuum disabled")
	return nil
}

type pinAttachSource struct {
	pin pinReader
}

func (s *pinAttachSource) Attached(ctx context.Context) (bool, error) {
	high, err := s.pin.Get(ctx, nil)
	if err != nil {
		return false, errors.Wrap(err, "failed to read attach sense pin")
	}
	return high, nil
}
