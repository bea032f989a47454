package pick_place

import (
	"context"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/referenceframe"
	"go.viam.com/rdk/spatialmath"
	goutils "go.viam.com/utils"
)

const (
	// DefaultTransformWait bounds how long a single lookup waits for frames.
	DefaultTransformWait = time.Second
	// DefaultFrameUnitScale converts frame system millimetres to metres.
	DefaultFrameUnitScale = 0.001

	transformPollInterval = 20 * time.Millisecond
)

// ErrTransformUnavailable is returned when a relative position cannot be
// resolved within the bounded wait.
var ErrTransformUnavailable = errors.New("transform unavailable")

// Transformer resolves the position of a tool frame relative to a target
// frame.
type Transformer interface {
	RelativePosition(ctx context.Context, targetFrame, toolFrame string) (r3.Vector, error)
}

// FrameSystem is the part of the Viam frame system service used for
// lookups.
type FrameSystem interface {
	TransformPose(
		ctx context.Context,
		pose *referenceframe.PoseInFrame,
		dst string,
		additionalTransforms []*referenceframe.LinkInFrame,
	) (*referenceframe.PoseInFrame, error)
}

type frameTransformer struct {
	fs     FrameSystem
	wait   time.Duration
	poll   time.Duration
	scale  float64
	logger logging.Logger
}

func newFrameTransformer(fs FrameSystem, wait time.Duration, scale float64, logger logging.Logger) *frameTransformer {
	if wait <= 0 {
		wait = DefaultTransformWait
	}
	if scale == 0 {
		scale = DefaultFrameUnitScale
	}
	return &frameTransformer{
		fs:     fs,
		wait:   wait,
		poll:   transformPollInterval,
		scale:  scale,
		logger: logger,
	}
}

// RelativePosition expresses the tool frame origin in the target frame,
// retrying until the frames resolve or the wait expires.
func (t *frameTransformer) RelativePosition(ctx context.Context, targetFrame, toolFrame string) (r3.Vector, error) {
	waitCtx, cancel := context.WithTimeout(ctx, t.wait)
	defer cancel()

	origin := referenceframe.NewPoseInFrame(toolFrame, spatialmath.NewZeroPose())
	for {
		pif, err := t.fs.TransformPose(waitCtx, origin, targetFrame, nil)
		if err == nil {
			return pif.Pose().Point().Mul(t.scale), nil
		}
		t.logger.Debugf("Transform %s -> %s not ready: %v", toolFrame, targetFrame, err)
		if !goutils.SelectContextOrWait(waitCtx, t.poll) {
			return r3.Vector{}, errors.Wrapf(ErrTransformUnavailable, "%s in %s after %v: %v", toolFrame, targetFrame, t.wait, err)
		}
	}
}
