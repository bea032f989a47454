package pick_place

import (
	"math"

	"github.com/pkg/errors"
)

// DefaultClosenessThreshold is the per-axis arrival threshold in radians.
const DefaultClosenessThreshold = 0.05

// ErrDimensionMismatch is the panic value cause when two joint vectors of
// different length are compared.
var ErrDimensionMismatch = errors.New("joint vectors differ in length")

// IsClose reports whether every axis of actual is strictly within threshold of
// the matching axis of target. Comparing vectors of unequal length is a
// programming error and panics.
func IsClose(target, actual []float64, threshold float64) bool {
	if len(target) != len(actual) {
		panic(errors.Wrapf(ErrDimensionMismatch, "target has %d axes, actual has %d", len(target), len(actual)))
	}
	for i := range target {
		// NaN on either side is never close.
		if !(math.Abs(target[i]-actual[i]) < threshold) {
			return false
		}
	}
	return true
}
