package pick_place

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.viam.com/rdk/logging"
)

// DefaultJointCount is the number of joints in the reference arm.
const DefaultJointCount = 7

// Collaborators are the external interfaces the sequencer reads from and
// commands on every tick.
type Collaborators struct {
	Transformer Transformer
	Actuator    Actuator
	Attach      AttachSource
	Inventory   InventorySource
	Motion      MotionSink
}

func (c Collaborators) validate() error {
	switch {
	case c.Transformer == nil:
		return errors.New("transformer is required")
	case c.Actuator == nil:
		return errors.New("actuator is required")
	case c.Attach == nil:
		return errors.New("attach source is required")
	case c.Inventory == nil:
		return errors.New("inventory source is required")
	case c.Motion == nil:
		return errors.New("motion sink is required")
	}
	return nil
}

// Cell is the geometry the sequencer works in: the tool frame, the slots in
// inventory order and an optional pose to command on the first tick.
type Cell struct {
	ToolFrame string       `json:"tool_frame" yaml:"tool_frame"`
	HomePose  Waypoint     `json:"home_pose,omitempty" yaml:"home_pose,omitempty"`
	Slots     []SlotConfig `json:"slots" yaml:"slots"`

	// InventoryOffset is subtracted from the inventory count to get the
	// active slot index.
	InventoryOffset int `json:"inventory_offset,omitempty" yaml:"inventory_offset,omitempty"`
}

// Validate checks the cell against the arm's joint count.
func (c Cell) Validate(dof int) error {
	if c.ToolFrame == "" {
		return fmt.Errorf("tool_frame must be specified")
	}
	if len(c.Slots) == 0 {
		return fmt.Errorf("at least one slot must be configured")
	}
	if c.InventoryOffset < 0 {
		return fmt.Errorf("inventory_offset must not be negative, got %d", c.InventoryOffset)
	}
	if len(c.HomePose) != 0 && len(c.HomePose) != dof {
		return fmt.Errorf("home_pose: expected %d joint positions, got %d", dof, len(c.HomePose))
	}
	for i, s := range c.Slots {
		if err := s.Validate(dof); err != nil {
			return fmt.Errorf("slot %d: %w", i, err)
		}
	}
	return nil
}

// Sequencer runs the per-slot pick-and-place state machine. OnArmPose is the
// only entry point that mutates slot state; ticks are serialized.
type Sequencer struct {
	logger    logging.Logger
	metrics   *Metrics
	traversal Traversal
	collab    Collaborators
	toolFrame string
	homePose  Waypoint
	dof       int

	mu    sync.Mutex
	slots []*slot
	homed bool
}

// NewSequencer validates the cell and returns a sequencer with every slot
// idle. A nil metrics gets a private registry.
func NewSequencer(
	cell Cell,
	dof int,
	traversal Traversal,
	collab Collaborators,
	metrics *Metrics,
	logger logging.Logger,
) (*Sequencer, error) {
	if dof <= 0 {
		dof = DefaultJointCount
	}
	if err := cell.Validate(dof); err != nil {
		return nil, errors.Wrap(err, "invalid cell")
	}
	if err := collab.validate(); err != nil {
		return nil, err
	}
	if metrics == nil {
		metrics = NewMetrics()
	}

	slots := make([]*slot, len(cell.Slots))
	for i, cfg := range cell.Slots {
		slots[i] = newSlot(i, cfg)
	}

	return &Sequencer{
		logger:    logger,
		metrics:   metrics,
		traversal: NewTraversal(traversal.Threshold, traversal.LegDuration),
		collab:    collab,
		toolFrame: cell.ToolFrame,
		homePose:  cell.HomePose,
		dof:       dof,
		slots:     slots,
		homed:     len(cell.HomePose) == 0,
	}, nil
}

// Metrics returns the sequencer's counters.
func (s *Sequencer) Metrics() *Metrics {
	return s.metrics
}

// Status returns a copy of every slot's progress.
func (s *Sequencer) Status() []SlotStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]SlotStatus, len(s.slots))
	for i, sl := range s.slots {
		out[i] = sl.status()
	}
	return out
}

// AllDone reports whether every slot has been released.
func (s *Sequencer) AllDone() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sl := range s.slots {
		if !sl.completed {
			return false
		}
	}
	return true
}

// OnArmPose handles one feedback tick. Only the slot selected by the
// inventory source is advanced. Errors are returned when the tick could not
// be evaluated at all; actuation and transform failures are logged and
// retried on the next tick instead.
func (s *Sequencer) OnArmPose(ctx context.Context, pose ArmPose) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(pose) != s.dof {
		return fmt.Errorf("expected %d joint positions in feedback, got %d", s.dof, len(pose))
	}
	s.metrics.Ticks.Inc()

	if !s.homed {
		s.homed = true
		s.logger.Info("Sending arm to home pose")
		s.publish(ctx, s.homePose, s.traversal.LegDuration)
		return nil
	}

	index, err := s.collab.Inventory.ActiveSlot(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to read active slot")
	}
	if index < 0 || index >= len(s.slots) {
		s.logger.Debugf("No slot matches inventory index %d", index)
		return nil
	}

	sl := s.slots[index]
	if sl.completed {
		return nil
	}

	attached, err := s.collab.Attach.Attached(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to read attach state")
	}

	s.advance(ctx, sl, attached, pose)
	return nil
}

func (s *Sequencer) advance(ctx context.Context, sl *slot, attached bool, pose ArmPose) {
	if sl.state == SlotIdle {
		sl.begin()
		s.logger.Infof("Slot %s: %s -> %s (cycle %s)", sl.cfg.Name, SlotIdle, SlotApproaching, sl.cycleID)
	}

	switch {
	case attached && sl.state == SlotApproaching:
		sl.state = SlotAttached
		s.logger.Infof("Slot %s: %s -> %s", sl.cfg.Name, SlotApproaching, SlotAttached)
	case !attached && sl.state == SlotAttached:
		sl.state = SlotApproaching
		s.logger.Warnf("Slot %s: part no longer attached, back to %s", sl.cfg.Name, SlotApproaching)
	}

	switch sl.state {
	case SlotApproaching:
		s.approach(ctx, sl, pose)
	case SlotAttached:
		s.transport(ctx, sl, pose)
	}
}

// approach tries to grasp at the source and keeps the arm on the approach
// path while the attach state is false.
func (s *Sequencer) approach(ctx context.Context, sl *slot, pose ArmPose) {
	if s.withinTolerance(ctx, sl.cfg.SourceFrame, sl.cfg.SourceTolerance) {
		sl.engageAttempts++
		s.metrics.EngageAttempts.WithLabelValues(sl.cfg.Name).Inc()
		if err := s.collab.Actuator.Engage(ctx); err != nil {
			s.metrics.EngageFailures.WithLabelValues(sl.cfg.Name).Inc()
			s.logger.Warnf("Slot %s: %v", sl.cfg.Name, err)
		}
	}

	step := s.traversal.Advance(sl.approachPhase, sl.cfg.approachMiddle(), sl.cfg.Near, pose)
	s.logPhase(sl, "approach", sl.approachPhase, step.Phase)
	sl.approachPhase = step.Phase
	s.publish(ctx, step.Target, step.Duration)
}

// transport carries the part along middle -> goal and releases it once the
// destination is within tolerance.
func (s *Sequencer) transport(ctx context.Context, sl *slot, pose ArmPose) {
	step := s.traversal.Advance(sl.transportPhase, sl.cfg.Middle, sl.cfg.Goal, pose)
	s.logPhase(sl, "transport", sl.transportPhase, step.Phase)
	sl.transportPhase = step.Phase
	s.publish(ctx, step.Target, step.Duration)

	if !s.withinTolerance(ctx, sl.cfg.DestinationFrame, sl.cfg.DestinationTolerance) {
		return
	}

	sl.releaseAttempts++
	s.metrics.ReleaseAttempts.WithLabelValues(sl.cfg.Name).Inc()
	if err := s.collab.Actuator.Disengage(ctx); err != nil {
		s.metrics.ReleaseFailures.WithLabelValues(sl.cfg.Name).Inc()
		s.logger.Warnf("Slot %s: %v", sl.cfg.Name, err)
		return
	}

	sl.complete()
	s.metrics.SlotsCompleted.Inc()
	s.logger.Infof("Slot %s: %s -> %s (cycle %s)", sl.cfg.Name, SlotAttached, SlotDone, sl.cycleID)
}

// withinTolerance evaluates a tolerance check. A missing transform counts as
// not satisfied.
func (s *Sequencer) withinTolerance(ctx context.Context, frame string, tol Tolerance) bool {
	rel, err := s.collab.Transformer.RelativePosition(ctx, frame, s.toolFrame)
	if err != nil {
		s.metrics.TransformMisses.WithLabelValues(frame).Inc()
		if errors.Is(err, ErrTransformUnavailable) {
			s.logger.Warnf("Skipping %s tolerance check: %v", frame, err)
		} else {
			s.logger.Warnf("Skipping %s tolerance check, lookup failed: %v", frame, err)
		}
		return false
	}
	ok := tol.Contains(rel)
	s.logger.Debugf("Tool relative to %s: %v, within %s: %v", frame, rel, tol, ok)
	return ok
}

func (s *Sequencer) publish(ctx context.Context, target Waypoint, duration time.Duration) {
	if err := s.collab.Motion.Publish(ctx, target, duration); err != nil {
		s.metrics.MotionFailures.Inc()
		s.logger.Warnf("Motion command failed: %v", err)
	}
}

func (s *Sequencer) logPhase(sl *slot, leg string, from, to Phase) {
	if from != to {
		s.logger.Infof("Slot %s: %s reached middle waypoint, heading for %s", sl.cfg.Name, leg, to)
		return
	}
	s.logger.Debugf("Slot %s: %s toward %s waypoint", sl.cfg.Name, leg, to)
}
