package facematch

import (
	"errors"
	"fmt"
	"math"
)

// ErrDimensionMismatch is returned when two descriptors cannot be compared.
var ErrDimensionMismatch = errors.New("descriptor dimension mismatch")

// EuclideanDistance computes the L2 distance between two descriptors.
// Returns ErrDimensionMismatch for empty or differently sized inputs.
func EuclideanDistance(a, b Descriptor) (float64, error) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}

	d := math.Sqrt(sum)
	if math.IsNaN(d) {
		return 0, fmt.Errorf("%w: descriptor contains NaN", ErrDimensionMismatch)
	}
	return d, nil
}
