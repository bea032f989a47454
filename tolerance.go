package pick_place

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// ToleranceBox is a symmetric acceptance region: each axis of a relative
// position must lie strictly inside (-bound, +bound).
type ToleranceBox struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// WithinBox reports whether p lies strictly inside box. Points on the boundary
// are outside.
func WithinBox(p r3.Vector, box ToleranceBox) bool {
	return math.Abs(p.X) < box.X && math.Abs(p.Y) < box.Y && math.Abs(p.Z) < box.Z
}

// WithinBand reports whether each axis of p lies strictly between the matching
// axes of lower and upper.
func WithinBand(p, upper, lower r3.Vector) bool {
	return p.X < upper.X && p.X > lower.X &&
		p.Y < upper.Y && p.Y > lower.Y &&
		p.Z < upper.Z && p.Z > lower.Z
}

// Tolerance is the configured acceptance region of a source or destination.
// Exactly one of Box or the Upper/Lower pair is set.
type Tolerance struct {
	Box   *ToleranceBox `json:"box,omitempty" yaml:"box,omitempty"`
	Upper *r3.Vector    `json:"upper,omitempty" yaml:"upper,omitempty"`
	Lower *r3.Vector    `json:"lower,omitempty" yaml:"lower,omitempty"`
}

// BoxTolerance returns a symmetric Tolerance.
func BoxTolerance(x, y, z float64) Tolerance {
	return Tolerance{Box: &ToleranceBox{X: x, Y: y, Z: z}}
}

// BandTolerance returns an asymmetric Tolerance.
func BandTolerance(upper, lower r3.Vector) Tolerance {
	return Tolerance{Upper: &upper, Lower: &lower}
}

// Contains reports whether p is inside the tolerance region. An unset
// tolerance contains nothing.
func (t Tolerance) Contains(p r3.Vector) bool {
	switch {
	case t.Box != nil:
		return WithinBox(p, *t.Box)
	case t.Upper != nil && t.Lower != nil:
		return WithinBand(p, *t.Upper, *t.Lower)
	default:
		return false
	}
}

// Validate checks that exactly one tolerance form is set and that it encloses
// a non-empty region.
func (t Tolerance) Validate() error {
	hasBand := t.Upper != nil || t.Lower != nil
	switch {
	case t.Box != nil && hasBand:
		return fmt.Errorf("tolerance must set either box or upper/lower, not both")
	case t.Box != nil:
		if t.Box.X <= 0 || t.Box.Y <= 0 || t.Box.Z <= 0 {
			return fmt.Errorf("tolerance box bounds must be positive, got %+v", *t.Box)
		}
	case hasBand:
		if t.Upper == nil || t.Lower == nil {
			return fmt.Errorf("tolerance band needs both upper and lower bounds")
		}
		if t.Upper.X <= t.Lower.X || t.Upper.Y <= t.Lower.Y || t.Upper.Z <= t.Lower.Z {
			return fmt.Errorf("tolerance upper bound %v must exceed lower bound %v on every axis", *t.Upper, *t.Lower)
		}
	default:
		return fmt.Errorf("tolerance must set box or upper/lower")
	}
	return nil
}

func (t Tolerance) String() string {
	switch {
	case t.Box != nil:
		return fmt.Sprintf("box(%.3f, %.3f, %.3f)", t.Box.X, t.Box.Y, t.Box.Z)
	case t.Upper != nil && t.Lower != nil:
		return fmt.Sprintf("band(%v .. %v)", *t.Lower, *t.Upper)
	default:
		return "unset"
	}
}
