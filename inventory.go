package pick_place

import (
	"context"
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// DefaultInventoryKey is the readings key holding the part count.
const DefaultInventoryKey = "count"

// InventorySource reports which order slot is active.
type InventorySource interface {
	ActiveSlot(ctx context.Context) (int, error)
}

// readingsProvider is the part of sensor.Sensor used for inventory.
type readingsProvider interface {
	Readings(ctx context.Context, extra map[string]interface{}) (map[string]interface{}, error)
}

// sensorInventory turns a part count reading into a slot index. The offset
// discounts objects the counting sensor always sees, such as fixtures.
type sensorInventory struct {
	sensor readingsProvider
	key    string
	offset int
}

func (s *sensorInventory) ActiveSlot(ctx context.Context) (int, error) {
	readings, err := s.sensor.Readings(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to read inventory sensor")
	}
	raw, ok := readings[s.key]
	if !ok {
		return 0, fmt.Errorf("inventory reading %q missing", s.key)
	}
	count, err := readingToInt(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "inventory reading %q", s.key)
	}
	return count - s.offset, nil
}

func readingToInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint32:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	default:
		return 0, fmt.Errorf("unsupported reading type %T", v)
	}
}

// floatToInt rounds counts from vision sensors, which report them as floats.
func floatToInt(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("reading %v is not a count", f)
	}
	return int(math.Round(f)), nil
}
