package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	pickPlace "pick_place"
)

// Scenario describes a simulated cell run.
type Scenario struct {
	Name string `yaml:"name"`

	MaxTicks    int     `yaml:"max_ticks"`
	RenderEvery int     `yaml:"render_every"`
	Threshold   float64 `yaml:"closeness_threshold,omitempty"`

	// ConvergeRate is the fraction of the remaining joint error closed per tick.
	ConvergeRate float64 `yaml:"converge_rate"`
	// AttachDelay is the number of ticks between engage and attach.
	AttachDelay int `yaml:"attach_delay"`
	// EngageFailures makes the first N engage commands fail.
	EngageFailures int `yaml:"engage_failures,omitempty"`

	InitialPose pickPlace.Waypoint `yaml:"initial_pose"`

	// Frames anchors each named frame at a joint configuration. The tool's
	// position relative to a frame is the difference of the first three joints.
	Frames map[string]pickPlace.Waypoint `yaml:"frames"`

	Cell pickPlace.Cell `yaml:"cell"`
}

// ReferenceScenario runs the reference cell with frames anchored at the
// waypoints where the tool sits over each bin and the tray.
func ReferenceScenario() Scenario {
	cell := pickPlace.DefaultReferenceCell()
	return Scenario{
		Name:         "reference",
		MaxTicks:     600,
		RenderEvery:  50,
		ConvergeRate: 0.5,
		AttachDelay:  1,
		InitialPose:  pickPlace.Waypoint{0, 0, 0, 0, 0, 0, 0},
		Frames: map[string]pickPlace.Waypoint{
			"bin7_frame":            cell.Slots[0].Near,
			"bin6_frame":            cell.Slots[2].Near,
			"agv1_load_point_frame": cell.Slots[0].Goal,
		},
		Cell: cell,
	}
}

func (s *Scenario) setDefaults() {
	if s.MaxTicks <= 0 {
		s.MaxTicks = 600
	}
	if s.RenderEvery <= 0 {
		s.RenderEvery = 50
	}
	if s.ConvergeRate <= 0 || s.ConvergeRate > 1 {
		s.ConvergeRate = 0.5
	}
	if len(s.Cell.Slots) == 0 {
		s.Cell = pickPlace.DefaultReferenceCell()
	}
	if len(s.InitialPose) == 0 {
		s.InitialPose = make(pickPlace.Waypoint, len(s.Cell.Slots[0].Goal))
	}
}

// Validate checks that every frame the cell refers to is anchored.
func (s *Scenario) Validate() error {
	dof := len(s.InitialPose)
	if dof < 3 {
		return fmt.Errorf("initial_pose needs at least 3 joints, got %d", dof)
	}
	if err := s.Cell.Validate(dof); err != nil {
		return err
	}
	for i, slot := range s.Cell.Slots {
		for _, frame := range []string{slot.SourceFrame, slot.DestinationFrame} {
			anchor, ok := s.Frames[frame]
			if !ok {
				return fmt.Errorf("slot %d: frame %q has no anchor", i, frame)
			}
			if len(anchor) < 3 {
				return fmt.Errorf("frame %q: anchor needs at least 3 joints", frame)
			}
		}
	}
	return nil
}

// LoadScenario reads a YAML scenario file and fills defaults.
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("failed to read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Scenario{}, fmt.Errorf("failed to parse scenario YAML: %w", err)
	}
	s.setDefaults()
	if err := s.Validate(); err != nil {
		return Scenario{}, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return s, nil
}
