package main

import (
	"context"
	"sync"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	pickPlace "pick_place"
)

// simCell is a kinematic stand-in for an arm, a vacuum gripper, a frame
// system and a tray camera. It implements every collaborator the sequencer
// needs.
type simCell struct {
	mu sync.Mutex

	pose     pickPlace.ArmPose
	target   pickPlace.Waypoint
	rate     float64
	commands int

	frames map[string]pickPlace.Waypoint

	engaged        bool
	engagedFor     int
	attached       bool
	attachDelay    int
	engageFailures int
	delivered      int
}

func newSimCell(s Scenario) *simCell {
	pose := make(pickPlace.ArmPose, len(s.InitialPose))
	copy(pose, s.InitialPose)
	return &simCell{
		pose:           pose,
		rate:           s.ConvergeRate,
		frames:         s.Frames,
		attachDelay:    s.AttachDelay,
		engageFailures: s.EngageFailures,
	}
}

func (c *simCell) collaborators() pickPlace.Collaborators {
	return pickPlace.Collaborators{
		Transformer: c,
		Actuator:    c,
		Attach:      c,
		Inventory:   c,
		Motion:      c,
	}
}

// step advances the simulation by one tick.
func (c *simCell) step() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.target != nil {
		for i := range c.pose {
			c.pose[i] += (c.target[i] - c.pose[i]) * c.rate
		}
	}
	if c.engaged && !c.attached {
		c.engagedFor++
		if c.engagedFor >= c.attachDelay {
			c.attached = true
		}
	}
}

func (c *simCell) ArmPose(context.Context) (pickPlace.ArmPose, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(pickPlace.ArmPose, len(c.pose))
	copy(out, c.pose)
	return out, nil
}

func (c *simCell) Publish(_ context.Context, target pickPlace.Waypoint, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = target
	c.commands++
	return nil
}

func (c *simCell) RelativePosition(_ context.Context, targetFrame, _ string) (r3.Vector, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	anchor, ok := c.frames[targetFrame]
	if !ok {
		return r3.Vector{}, errors.Wrapf(pickPlace.ErrTransformUnavailable, "no frame %q", targetFrame)
	}
	return r3.Vector{
		X: c.pose[0] - anchor[0],
		Y: c.pose[1] - anchor[1],
		Z: c.pose[2] - anchor[2],
	}, nil
}

func (c *simCell) Engage(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.engageFailures > 0 {
		c.engageFailures--
		return &pickPlace.ActuationError{Op: "engage", Err: errors.New("simulated vacuum fault")}
	}
	if !c.engaged {
		c.engaged = true
		c.engagedFor = 0
	}
	return nil
}

func (c *simCell) Disengage(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attached {
		c.delivered++
	}
	c.engaged = false
	c.attached = false
	return nil
}

func (c *simCell) Attached(context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attached, nil
}

// ActiveSlot counts the parts delivered to the tray.
func (c *simCell) ActiveSlot(context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.delivered, nil
}
