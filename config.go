package pick_place

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/resource"
)

const (
	// DefaultFeedbackRateHz is how often the arm's joints are sampled.
	DefaultFeedbackRateHz = 10.0

	// ReferenceInventoryOffset is the number of fixtures the reference cell's
	// tray camera counts before any part is delivered.
	ReferenceInventoryOffset = 2
)

// ReferenceJointNames is the joint order of the reference cell's waypoints.
var ReferenceJointNames = []string{
	"elbow_joint",
	"linear_arm_actuator_joint",
	"shoulder_lift_joint",
	"shoulder_pan_joint",
	"wrist_1_joint",
	"wrist_2_joint",
	"wrist_3_joint",
}

// Config is the attribute set of the sequencer service.
type Config struct {
	Arm string `json:"arm"`

	// Either Gripper, or VacuumBoard with VacuumPin and AttachPin.
	Gripper     string `json:"gripper,omitempty"`
	VacuumBoard string `json:"vacuum_board,omitempty"`
	VacuumPin   string `json:"vacuum_pin,omitempty"`
	AttachPin   string `json:"attach_pin,omitempty"`

	InventorySensor string `json:"inventory_sensor"`
	InventoryKey    string `json:"inventory_key,omitempty"`
	// InventoryOffset overrides the cell's offset when set.
	InventoryOffset *int `json:"inventory_offset,omitempty"`

	// Geometry comes from Slots or from CellFile; with neither the reference
	// cell is used. ToolFrame and HomePose override the cell's values.
	ToolFrame string       `json:"tool_frame,omitempty"`
	HomePose  []float64    `json:"home_pose,omitempty"`
	Slots     []SlotConfig `json:"slots,omitempty"`
	CellFile  string       `json:"cell_file,omitempty"`

	JointCount         int     `json:"joint_count,omitempty"`
	FeedbackRateHz     float64 `json:"feedback_rate_hz,omitempty"`
	TransformWaitSec   float64 `json:"transform_wait_s,omitempty"`
	LegDurationSec     float64 `json:"leg_duration_s,omitempty"`
	ClosenessThreshold float64 `json:"closeness_threshold,omitempty"`
	FrameUnitScale     float64 `json:"frame_unit_scale,omitempty"`
}

// Validate ensures all parts of the config are valid and returns the
// required dependencies.
func (cfg *Config) Validate(path string) ([]string, []string, error) {
	if cfg.Arm == "" {
		return nil, nil, resource.NewConfigValidationFieldRequiredError(path, "arm")
	}
	if cfg.InventorySensor == "" {
		return nil, nil, resource.NewConfigValidationFieldRequiredError(path, "inventory_sensor")
	}

	usesVacuum := cfg.VacuumBoard != "" || cfg.VacuumPin != "" || cfg.AttachPin != ""
	switch {
	case cfg.Gripper != "" && usesVacuum:
		return nil, nil, fmt.Errorf("%s: specify either gripper or vacuum_board, not both", path)
	case cfg.Gripper == "" && !usesVacuum:
		return nil, nil, fmt.Errorf("%s: must specify gripper or vacuum_board", path)
	case usesVacuum && (cfg.VacuumBoard == "" || cfg.VacuumPin == "" || cfg.AttachPin == ""):
		return nil, nil, fmt.Errorf("%s: vacuum_board, vacuum_pin and attach_pin must be set together", path)
	}

	if len(cfg.Slots) > 0 && cfg.CellFile != "" {
		return nil, nil, fmt.Errorf("%s: specify either slots or cell_file, not both", path)
	}

	if cfg.InventoryKey == "" {
		cfg.InventoryKey = DefaultInventoryKey
	}
	if cfg.JointCount == 0 {
		cfg.JointCount = DefaultJointCount
	}
	if cfg.FeedbackRateHz <= 0 {
		cfg.FeedbackRateHz = DefaultFeedbackRateHz
	}
	if cfg.TransformWaitSec <= 0 {
		cfg.TransformWaitSec = DefaultTransformWait.Seconds()
	}
	if cfg.LegDurationSec <= 0 {
		cfg.LegDurationSec = DefaultLegDuration.Seconds()
	}
	if cfg.ClosenessThreshold <= 0 {
		cfg.ClosenessThreshold = DefaultClosenessThreshold
	}
	if cfg.FrameUnitScale == 0 {
		cfg.FrameUnitScale = DefaultFrameUnitScale
	}
	if cfg.ToolFrame == "" && cfg.Gripper != "" {
		cfg.ToolFrame = cfg.Gripper
	}

	if len(cfg.Slots) > 0 {
		cell := Cell{ToolFrame: cfg.ToolFrame, HomePose: cfg.HomePose, Slots: cfg.Slots}
		if err := cell.Validate(cfg.JointCount); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	deps := []string{cfg.Arm, cfg.InventorySensor}
	if cfg.Gripper != "" {
		deps = append(deps, cfg.Gripper)
	} else {
		deps = append(deps, cfg.VacuumBoard)
	}
	return deps, nil, nil
}

func (cfg *Config) feedbackInterval() time.Duration {
	return time.Duration(float64(time.Second) / cfg.FeedbackRateHz)
}

func (cfg *Config) transformWait() time.Duration {
	return time.Duration(cfg.TransformWaitSec * float64(time.Second))
}

func (cfg *Config) traversal() Traversal {
	return NewTraversal(cfg.ClosenessThreshold, time.Duration(cfg.LegDurationSec*float64(time.Second)))
}

// ResolveCell returns the geometry to run with. fromFile reports whether it
// was read from CellFile. A configured file that cannot be read is an error;
// the reference cell is only used when no geometry is configured at all.
func (cfg *Config) ResolveCell(logger logging.Logger) (cell Cell, fromFile bool, err error) {
	switch {
	case len(cfg.Slots) > 0:
		cell = Cell{Slots: cfg.Slots}
	case cfg.CellFile != "":
		cell, err = LoadCellFromFile(resolveDataPath(cfg.CellFile))
		if err != nil {
			return Cell{}, false, err
		}
		fromFile = true
		if logger != nil {
			logger.Infof("Loaded %d slots from %s", len(cell.Slots), cfg.CellFile)
		}
	default:
		if logger != nil {
			logger.Warn("No slots or cell_file configured, using reference cell")
		}
		cell = DefaultReferenceCell()
	}

	if cfg.ToolFrame != "" {
		cell.ToolFrame = cfg.ToolFrame
	}
	if len(cfg.HomePose) > 0 {
		cell.HomePose = cfg.HomePose
	}
	if cfg.InventoryOffset != nil {
		cell.InventoryOffset = *cfg.InventoryOffset
	}

	dof := cfg.JointCount
	if dof == 0 {
		dof = DefaultJointCount
	}
	if err := cell.Validate(dof); err != nil {
		return Cell{}, false, fmt.Errorf("cell validation failed: %w", err)
	}
	return cell, fromFile, nil
}

// resolveDataPath makes relative paths relative to the module data directory.
func resolveDataPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	moduleDataDir := os.Getenv("VIAM_MODULE_DATA")
	if moduleDataDir == "" {
		moduleDataDir = "/tmp" // Fallback if VIAM_MODULE_DATA not set
	}
	return filepath.Join(moduleDataDir, path)
}

// LoadCellFromFile reads a JSON cell file.
func LoadCellFromFile(filePath string) (Cell, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return Cell{}, fmt.Errorf("failed to read cell file: %w", err)
	}
	var cell Cell
	if err := json.Unmarshal(data, &cell); err != nil {
		return Cell{}, fmt.Errorf("failed to parse cell JSON: %w", err)
	}
	return cell, nil
}

// SaveCellToFile writes a cell as indented JSON.
func SaveCellToFile(filePath string, cell Cell) error {
	data, err := json.MarshalIndent(cell, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cell: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write cell file: %w", err)
	}
	return nil
}

// DefaultReferenceCell is the two-bin, one-tray cell the sequencer was first
// commissioned on. Waypoints follow ReferenceJointNames.
func DefaultReferenceCell() Cell {
	goal := Waypoint{1.76, 2.06, -0.63, 1.5, 3.27, -1.51, 0.0}
	bins := BoxTolerance(0.25, 0.25, 0.1)
	tray := BoxTolerance(0.4, 0.4, 1.0)

	slot0Near := Waypoint{1.76, 0.42, -0.47, 3.23, 3.58, -1.51, 0.0}

	return Cell{
		ToolFrame:       "vacuum_gripper_link",
		HomePose:        Waypoint{1.51, 0.0, -1.13, 3.14, 3.58, -1.51, 0.0},
		InventoryOffset: ReferenceInventoryOffset,
		Slots: []SlotConfig{
			{
				Name:                 "slot_0",
				SourceFrame:          "bin7_frame",
				DestinationFrame:     "agv1_load_point_frame",
				SourceTolerance:      bins,
				DestinationTolerance: tray,
				ApproachMiddle:       slot0Near,
				Near:                 slot0Near,
				Middle:               Waypoint{1.76, 0.42, -1.0, 2.0, 3.58, -1.51, 0.0},
				Goal:                 goal,
			},
			{
				Name:                 "slot_1",
				SourceFrame:          "bin7_frame",
				DestinationFrame:     "agv1_load_point_frame",
				SourceTolerance:      bins,
				DestinationTolerance: tray,
				Near:                 Waypoint{2.0, 0.44, -0.48, 3.50, 3.58, -1.51, 0.0},
				Middle:               Waypoint{1.76, 0.5, -1.0, 2.0, 3.58, -1.51, 0.0},
				Goal:                 goal,
			},
			{
				Name:                 "slot_2",
				SourceFrame:          "bin6_frame",
				DestinationFrame:     "agv1_load_point_frame",
				SourceTolerance:      bins,
				DestinationTolerance: tray,
				Near:                 Waypoint{2.0, -0.37, -0.50, 3.50, 3.52, -1.51, 0.0},
				Middle:               Waypoint{1.76, -0.46, -1.0, 2.0, 3.58, -1.51, 0.0},
				Goal:                 goal,
			},
		},
	}
}

