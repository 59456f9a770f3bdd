package rank

import (
	"errors"
	"fmt"

	"github.com/viant/lookalike/embedding"
)

// ErrInvalidK is returned for k <= 0.
var ErrInvalidK = errors.New("rank: k must be positive")

// InsufficientDataError reports k larger than the number of candidates under
// the Strict policy.
type InsufficientDataError struct {
	Requested int
	Available int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("rank: requested %d neighbors, only %d available", e.Requested, e.Available)
}

// Outcome classifies a ranking error for metrics and logs.
func Outcome(err error) string {
	var insufficient *InsufficientDataError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidK):
		return "invalid_k"
	case errors.Is(err, embedding.ErrNotFound):
		return "not_found"
	case errors.As(err, &insufficient):
		return "insufficient"
	}
	return "error"
}
