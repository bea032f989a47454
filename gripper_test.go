package pick_place

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.viam.com/rdk/components/gripper"
	"go.viam.com/rdk/logging"
)

type fakeGripper struct {
	grabs   int
	opens   int
	holding bool
	err     error
}

func (g *fakeGripper) Grab(context.Context, map[string]interface{}) (bool, error) {
	g.grabs++
	return g.err == nil, g.err
}

func (g *fakeGripper) Open(context.Context, map[string]interface{}) error {
	g.opens++
	return g.err
}

func (g *fakeGripper) IsHoldingSomething(context.Context, map[string]interface{}) (gripper.HoldingStatus, error) {
	if g.err != nil {
		return gripper.HoldingStatus{}, g.err
	}
	return gripper.HoldingStatus{IsHoldingSomething: g.holding}, nil
}

type fakePin struct {
	sets []bool
	high bool
	err  error
}

func (p *fakePin) Set(_ context.Context, high bool, _ map[string]interface{}) error {
	p.sets = append(p.sets, high)
	return p.err
}

func (p *fakePin) Get(context.Context, map[string]interface{}) (bool, error) {
	return p.high, p.err
}

func TestGripperActuator(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)

	t.Run("one command per call", func(t *testing.T) {
		g := &fakeGripper{}
		act := newGripperActuator(g, logger)

		require.NoError(t, act.Engage(ctx))
		require.NoError(t, act.Disengage(ctx))
		assert.Equal(t, 1, g.grabs)
		assert.Equal(t, 1, g.opens)
	})

	t.Run("failures are actuation errors", func(t *testing.T) {
		g := &fakeGripper{err: errors.New("stalled")}
		act := newGripperActuator(g, logger)

		var actErr *ActuationError
		err := act.Engage(ctx)
		require.True(t, errors.As(err, &actErr))
		assert.Equal(t, opEngage, actErr.Op)

		err = act.Disengage(ctx)
		require.True(t, errors.As(err, &actErr))
		assert.Equal(t, opDisengage, actErr.Op)
		assert.Equal(t, 1, g.grabs)
		assert.Equal(t, 1, g.opens)
	})
}

func TestGripperAttachSource(t *testing.T) {
	ctx := context.Background()
	g := &fakeGripper{holding: true}
	src := &gripperAttachSource{gripper: g}

	attached, err := src.Attached(ctx)
	require.NoError(t, err)
	assert.True(t, attached)

	g.holding = false
	attached, err = src.Attached(ctx)
	require.NoError(t, err)
	assert.False(t, attached)

	g.err = errors.New("unreachable")
	_, err = src.Attached(ctx)
	assert.ErrorContains(t, err, "holding status")
}

func TestVacuumActuator(t *testing.T) {
	ctx := context.Background()
	pin := &fakePin{}
	act := &vacuumActuator{pin: pin, logger: logging.NewTestLogger(t)}

	require.NoError(t, act.Engage(ctx))
	require.NoError(t, act.Disengage(ctx))
	assert.Equal(t, []bool{true, false}, pin.sets)

	pin.err = errors.New("gpio busy")
	var actErr *ActuationError
	require.True(t, errors.As(act.Engage(ctx), &actErr))
	assert.Equal(t, opEngage, actErr.Op)
}

func TestPinAttachSource(t *testing.T) {
	ctx := context.Background()
	pin := &fakePin{high: true}
	src := &pinAttachSource{pin: pin}

	attached, err := src.Attached(ctx)
	require.NoError(t, err)
	assert.True(t, attached)

	pin.err = errors.New("gpio busy")
	_, err = src.Attached(ctx)
	assert.ErrorContains(t, err, "attach sense pin")
}
