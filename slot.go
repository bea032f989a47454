package pick_place

import (
	"fmt"

	"github.com/google/uuid"
)

// SlotState is the progress of one order slot.
type SlotState int

const (
	SlotIdle SlotState = iota
	SlotApproaching
	SlotAttached
	SlotDone
)

func (s SlotState) String() string {
	switch s {
	case SlotIdle:
		return "idle"
	case SlotApproaching:
		return "approaching"
	case SlotAttached:
		return "attached"
	case SlotDone:
		return "done"
	default:
		return "unknown"
	}
}

// SlotConfig is the fixed geometry of one order slot.
type SlotConfig struct {
	Name             string `json:"name" yaml:"name"`
	SourceFrame      string `json:"source_frame" yaml:"source_frame"`
	DestinationFrame string `json:"destination_frame" yaml:"destination_frame"`

	SourceTolerance      Tolerance `json:"source_tolerance" yaml:"source_tolerance"`
	DestinationTolerance Tolerance `json:"destination_tolerance" yaml:"destination_tolerance"`

	// ApproachMiddle and Near bracket the approach to the source while the
	// part is not yet attached. ApproachMiddle defaults to Middle.
	ApproachMiddle Waypoint `json:"approach_middle,omitempty" yaml:"approach_middle,omitempty"`
	Near           Waypoint `json:"near" yaml:"near"`

	// Middle and Goal bracket the transport to the destination.
	Middle Waypoint `json:"middle" yaml:"middle"`
	Goal   Waypoint `json:"goal" yaml:"goal"`
}

// Validate checks frames, tolerances and that every waypoint has dof axes.
func (c SlotConfig) Validate(dof int) error {
	if c.SourceFrame == "" {
		return fmt.Errorf("source_frame must be specified")
	}
	if c.DestinationFrame == "" {
		return fmt.Errorf("destination_frame must be specified")
	}
	if err := c.SourceTolerance.Validate(); err != nil {
		return fmt.Errorf("source_tolerance: %w", err)
	}
	if err := c.DestinationTolerance.Validate(); err != nil {
		return fmt.Errorf("destination_tolerance: %w", err)
	}
	waypoints := []struct {
		name     string
		waypoint Waypoint
		optional bool
	}{
		{"approach_middle", c.ApproachMiddle, true},
		{"near", c.Near, false},
		{"middle", c.Middle, false},
		{"goal", c.Goal, false},
	}
	for _, wp := range waypoints {
		if wp.optional && len(wp.waypoint) == 0 {
			continue
		}
		if len(wp.waypoint) != dof {
			return fmt.Errorf("%s: expected %d joint positions, got %d", wp.name, dof, len(wp.waypoint))
		}
	}
	return nil
}

func (c SlotConfig) approachMiddle() Waypoint {
	if len(c.ApproachMiddle) > 0 {
		return c.ApproachMiddle
	}
	return c.Middle
}

// slot is the mutable progress of one order slot. Only the Sequencer touches
// it, and only while holding its lock.
type slot struct {
	index int
	cfg   SlotConfig

	state          SlotState
	approachPhase  Phase
	transportPhase Phase
	completed      bool
	cycleID        string

	engageAttempts  int
	releaseAttempts int
}

func newSlot(index int, cfg SlotConfig) *slot {
	if cfg.Name == "" {
		cfg.Name = fmt.Sprintf("slot_%d", index)
	}
	return &slot{index: index, cfg: cfg}
}

// begin starts a new grasp-to-release cycle.
func (s *slot) begin() {
	s.state = SlotApproaching
	s.approachPhase = PhaseMiddle
	s.transportPhase = PhaseMiddle
	s.cycleID = uuid.NewString()
}

func (s *slot) complete() {
	s.state = SlotDone
	s.completed = true
}

// SlotStatus is a point-in-time copy of a slot's progress.
type SlotStatus struct {
	Index           int       `json:"index"`
	Name            string    `json:"name"`
	State           SlotState `json:"state"`
	ApproachPhase   Phase     `json:"approach_phase"`
	TransportPhase  Phase     `json:"transport_phase"`
	Completed       bool      `json:"completed"`
	CycleID         string    `json:"cycle_id,omitempty"`
	EngageAttempts  int       `json:"engage_attempts"`
	ReleaseAttempts int       `json:"release_attempts"`
}

func (s *slot) status() SlotStatus {
	return SlotStatus{
		Index:           s.index,
		Name:            s.cfg.Name,
		State:           s.state,
		ApproachPhase:   s.approachPhase,
		TransportPhase:  s.transportPhase,
		Completed:       s.completed,
		CycleID:         s.cycleID,
		EngageAttempts:  s.engageAttempts,
		ReleaseAttempts: s.releaseAttempts,
	}
}

// Map renders the status for DoCommand responses.
func (s SlotStatus) Map() map[string]interface{} {
	return map[string]interface{}{
		"index":            s.Index,
		"name":             s.Name,
		"state":            s.State.String(),
		"approach_phase":   s.ApproachPhase.String(),
		"transport_phase":  s.TransportPhase.String(),
		"completed":        s.Completed,
		"cycle_id":         s.CycleID,
		"engage_attempts":  s.EngageAttempts,
		"release_attempts": s.ReleaseAttempts,
	}
}
