package vector

import (
	"errors"
	"fmt"
)

// ErrZeroVector is returned by cosine comparisons involving a vector whose
// magnitude is zero.
var ErrZeroVector = errors.New("vector: cosine similarity with zero-magnitude vector")

// DimensionMismatchError reports two vectors of unequal length being compared
// or inserted next to each other.
type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// CheckDimensions returns a *DimensionMismatchError when a and b differ in length.
func CheckDimensions(a, b []float32) error {
	if len(a) != len(b) {
		return &DimensionMismatchError{Expected: len(a), Actual: len(b)}
	}
	return nil
}
