package face

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFace is returned when an image contains no detectable face.
	ErrNoFace = errors.New("face: no face detected")

	// ErrUnavailable marks a systemic extractor failure (service down, circuit
	// open) as opposed to a problem with a single image.
	ErrUnavailable = errors.New("face: extractor unavailable")
)

// MultipleFacesError is returned when an image holds more than one face and
// the extractor policy does not disambiguate.
type MultipleFacesError struct {
	Count int
}

func (e *MultipleFacesError) Error() string {
	return fmt.Sprintf("face: %d faces detected, expected exactly one", e.Count)
}
