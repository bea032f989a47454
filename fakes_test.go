package pick_place

import (
	"context"
	"sync"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

type fakeTransformer struct {
	mu        sync.Mutex
	positions map[string]r3.Vector
	errs      map[string]error
	calls     int
}

func newFakeTransformer() *fakeTransformer {
	return &fakeTransformer{
		positions: map[string]r3.Vector{},
		errs:      map[string]error{},
	}
}

func (f *fakeTransformer) set(frame string, p r3.Vector) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.positions[frame] = p
	delete(f.errs, frame)
}

func (f *fakeTransformer) fail(frame string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[frame] = err
}

func (f *fakeTransformer) RelativePosition(_ context.Context, targetFrame, toolFrame string) (r3.Vector, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.errs[targetFrame]; ok {
		return r3.Vector{}, err
	}
	p, ok := f.positions[targetFrame]
	if !ok {
		return r3.Vector{}, errors.Wrapf(ErrTransformUnavailable, "%s in %s", toolFrame, targetFrame)
	}
	return p, nil
}

type fakeActuator struct {
	mu           sync.Mutex
	engages      int
	disengages   int
	engageErr    error
	disengageErr error
}

func (f *fakeActuator) Engage(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.engages++
	if f.engageErr != nil {
		return &ActuationError{Op: opEngage, Err: f.engageErr}
	}
	return nil
}

func (f *fakeActuator) Disengage(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disengages++
	if f.disengageErr != nil {
		return &ActuationError{Op: opDisengage, Err: f.disengageErr}
	}
	return nil
}

type fakeAttach struct {
	attached bool
	err      error
}

func (f *fakeAttach) Attached(context.Context) (bool, error) {
	return f.attached, f.err
}

type fakeInventory struct {
	index int
	err   error
	calls int
}

func (f *fakeInventory) ActiveSlot(context.Context) (int, error) {
	f.calls++
	return f.index, f.err
}

type publishedCommand struct {
	target   Waypoint
	duration time.Duration
}

type fakeMotion struct {
	mu        sync.Mutex
	published []publishedCommand
	err       error
}

func (f *fakeMotion) Publish(_ context.Context, target Waypoint, duration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, publishedCommand{target: target, duration: duration})
	return f.err
}

func (f *fakeMotion) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

func (f *fakeMotion) last() publishedCommand {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.published[len(f.published)-1]
}

type fakeFeedback struct {
	mu   sync.Mutex
	pose ArmPose
	err  error
}

func (f *fakeFeedback) ArmPose(context.Context) (ArmPose, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pose, f.err
}

type fakeCollaborators struct {
	transformer *fakeTransformer
	actuator    *fakeActuator
	attach      *fakeAttach
	inventory   *fakeInventory
	motion      *fakeMotion
}

func newFakeCollaborators() *fakeCollaborators {
	return &fakeCollaborators{
		transformer: newFakeTransformer(),
		actuator:    &fakeActuator{},
		attach:      &fakeAttach{},
		inventory:   &fakeInventory{},
		motion:      &fakeMotion{},
	}
}

func (f *fakeCollaborators) collaborators() Collaborators {
	return Collaborators{
		Transformer: f.transformer,
		Actuator:    f.actuator,
		Attach:      f.attach,
		Inventory:   f.inventory,
		Motion:      f.motion,
	}
}

const (
	testSourceFrame      = "bin"
	testDestinationFrame = "tray"
	testDOF              = 3
)

var (
	testMiddle = Waypoint{0, 0, 0}
	testNear   = Waypoint{1, 1, 1}
	testGoal   = Waypoint{2, 2, 2}
)

func testSlotConfig() SlotConfig {
	return SlotConfig{
		SourceFrame:          testSourceFrame,
		DestinationFrame:     testDestinationFrame,
		SourceTolerance:      BoxTolerance(0.25, 0.25, 0.1),
		DestinationTolerance: BoxTolerance(0.4, 0.4, 1.0),
		Near:                 testNear,
		Middle:               testMiddle,
		Goal:                 testGoal,
	}
}

func testCell(slots int) Cell {
	cell := Cell{ToolFrame: "tool"}
	for i := 0; i < slots; i++ {
		cell.Slots = append(cell.Slots, testSlotConfig())
	}
	return cell
}
