package pick_place

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.viam.com/rdk/components/arm"
	"go.viam.com/rdk/components/board"
	"go.viam.com/rdk/components/gripper"
	"go.viam.com/rdk/components/sensor"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/resource"
	"go.viam.com/rdk/robot/framesystem"
	"go.viam.com/rdk/services/generic"
)

var Model = resource.NewModel("devrel", "pick-place", "sequencer")

func init() {
	resource.RegisterService(generic.API, Model,
		resource.Registration[resource.Resource, *Config]{
			Constructor: newPickPlaceSequencer,
		},
	)
}

type pickPlaceSequencer struct {
	resource.Named
	resource.AlwaysRebuild

	logger   logging.Logger
	seq      *Sequencer
	feedback FeedbackSource
	interval time.Duration

	paused   atomic.Bool
	finished atomic.Bool

	workers    sync.WaitGroup
	cancelCtx  context.Context
	cancelFunc func()
}

func newPickPlaceSequencer(ctx context.Context, deps resource.Dependencies, rawConf resource.Config, logger logging.Logger) (resource.Resource, error) {
	conf, err := resource.NativeConfig[*Config](rawConf)
	if err != nil {
		return nil, err
	}

	cell, _, err := conf.ResolveCell(logger)
	if err != nil {
		return nil, err
	}

	a, err := arm.FromDependencies(deps, conf.Arm)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get arm %q", conf.Arm)
	}

	collab, err := collaboratorsFromDependencies(deps, conf, cell.InventoryOffset, logger)
	if err != nil {
		return nil, err
	}
	collab.Motion = newArmMotionSink(a, logger)

	return NewPickPlaceSequencer(ctx, rawConf.ResourceName(), conf, cell, collab, &armFeedback{arm: a}, logger)
}

func collaboratorsFromDependencies(
	deps resource.Dependencies,
	conf *Config,
	inventoryOffset int,
	logger logging.Logger,
) (Collaborators, error) {
	var collab Collaborators

	if conf.Gripper != "" {
		g, err := gripper.FromDependencies(deps, conf.Gripper)
		if err != nil {
			return collab, errors.Wrapf(err, "failed to get gripper %q", conf.Gripper)
		}
		collab.Actuator = newGripperActuator(g, logger)
		collab.Attach = &gripperAttachSource{gripper: g}
	} else {
		b, err := board.FromDependencies(deps, conf.VacuumBoard)
		if err != nil {
			return collab, errors.Wrapf(err, "failed to get board %q", conf.VacuumBoard)
		}
		vacuum, err := b.GPIOPinByName(conf.VacuumPin)
		if err != nil {
			return collab, errors.Wrapf(err, "failed to get vacuum pin %q", conf.VacuumPin)
		}
		attach, err := b.GPIOPinByName(conf.AttachPin)
		if err != nil {
			return collab, errors.Wrapf(err, "failed to get attach pin %q", conf.AttachPin)
		}
		collab.Actuator = &vacuumActuator{pin: vacuum, logger: logger}
		collab.Attach = &pinAttachSource{pin: attach}
	}

	s, err := sensor.FromDependencies(deps, conf.InventorySensor)
	if err != nil {
		return collab, errors.Wrapf(err, "failed to get inventory sensor %q", conf.InventorySensor)
	}
	collab.Inventory = &sensorInventory{sensor: s, key: conf.InventoryKey, offset: inventoryOffset}

	fs, err := framesystem.FromDependencies(deps)
	if err != nil {
		return collab, errors.Wrap(err, "frame system service not available")
	}
	collab.Transformer = newFrameTransformer(fs, conf.transformWait(), conf.FrameUnitScale, logger)

	return collab, nil
}

// NewPickPlaceSequencer builds the service around an already resolved cell
// and collaborators and starts the feedback loop.
func NewPickPlaceSequencer(
	ctx context.Context,
	name resource.Name,
	conf *Config,
	cell Cell,
	collab Collaborators,
	feedback FeedbackSource,
	logger logging.Logger,
) (resource.Resource, error) {
	seq, err := NewSequencer(cell, conf.JointCount, conf.traversal(), collab, NewMetrics(), logger)
	if err != nil {
		return nil, err
	}

	interval := DefaultFeedbackInterval
	if conf.FeedbackRateHz > 0 {
		interval = conf.feedbackInterval()
	}

	cancelCtx, cancelFunc := context.WithCancel(context.Background())
	s := &pickPlaceSequencer{
		Named:      name.AsNamed(),
		logger:     logger,
		seq:        seq,
		feedback:   feedback,
		interval:   interval,
		cancelCtx:  cancelCtx,
		cancelFunc: cancelFunc,
	}

	s.workers.Add(1)
	go s.run()

	logger.Infof("Pick-and-place sequencer started with %d slots, tool frame %s, inventory offset %d, feedback every %v",
		len(cell.Slots), cell.ToolFrame, cell.InventoryOffset, interval)
	return s, nil
}

// DefaultFeedbackInterval is the tick period at DefaultFeedbackRateHz.
const DefaultFeedbackInterval = 100 * time.Millisecond

func (s *pickPlaceSequencer) run() {
	defer s.workers.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.cancelCtx.Done():
			return
		case <-ticker.C:
			if s.paused.Load() {
				continue
			}
			if err := s.tick(s.cancelCtx); err != nil {
				if s.cancelCtx.Err() != nil {
					return
				}
				s.logger.Warnf("Tick failed: %v", err)
			}
		}
	}
}

func (s *pickPlaceSequencer) tick(ctx context.Context) error {
	pose, err := s.feedback.ArmPose(ctx)
	if err != nil {
		return err
	}
	if err := s.seq.OnArmPose(ctx, pose); err != nil {
		return err
	}
	if s.seq.AllDone() && !s.finished.Swap(true) {
		s.logger.Info("All slots completed")
	}
	return nil
}

func (s *pickPlaceSequencer) DoCommand(ctx context.Context, cmd map[string]interface{}) (map[string]interface{}, error) {
	switch cmd["command"] {
	case "status":
		return s.status(), nil

	case "tick":
		err := s.tick(ctx)
		result := s.status()
		result["success"] = err == nil
		return result, err

	case "pause":
		s.paused.Store(true)
		s.logger.Info("Feedback ticks paused")
		return map[string]interface{}{"paused": true}, nil

	case "resume":
		s.paused.Store(false)
		s.logger.Info("Feedback ticks resumed")
		return map[string]interface{}{"paused": false}, nil

	case "metrics":
		return s.seq.Metrics().Totals()

	default:
		return nil, fmt.Errorf("unknown command: %v", cmd["command"])
	}
}

func (s *pickPlaceSequencer) status() map[string]interface{} {
	statuses := s.seq.Status()
	slots := make([]interface{}, len(statuses))
	for i, st := range statuses {
		slots[i] = st.Map()
	}
	return map[string]interface{}{
		"slots":    slots,
		"paused":   s.paused.Load(),
		"all_done": s.seq.AllDone(),
	}
}

func (s *pickPlaceSequencer) Close(context.Context) error {
	s.logger.Info("Closing pick-and-place sequencer")
	s.cancelFunc()
	s.workers.Wait()
	return nil
}
