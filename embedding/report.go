package embedding

import "time"

// Reason classifies why an entity was left out of the store.
type Reason string

const (
	// ReasonNoFace means the extractor found no face.
	ReasonNoFace Reason = "no_face"
	// ReasonMultipleFaces means the extractor found more than one face.
	ReasonMultipleFaces Reason = "multiple_faces"
	// ReasonUnreadable means the raw image could not be loaded or decoded.
	ReasonUnreadable Reason = "unreadable"
	// ReasonExtractFailed covers any other per-entity extractor failure,
	// including a per-call timeout.
	ReasonExtractFailed Reason = "extract_failed"
	// ReasonDimensionMismatch means the embedding length differs from the
	// store dimension.
	ReasonDimensionMismatch Reason = "dimension_mismatch"
	// ReasonInvalid means the entity had no identifier or no loader.
	ReasonInvalid Reason = "invalid"
	// ReasonAborted marks entities left unprocessed after the build stopped.
	ReasonAborted Reason = "aborted"
)

// Skip records one entity excluded from the store.
type Skip struct {
	ID     string
	Reason Reason
	Err    error
}

// Report summarizes a Build run.
type Report struct {
	BuildID  string
	Started  time.Time
	Duration time.Duration
	// Indexed lists identifiers inserted by this build, in input order.
	Indexed []string
	// Replaced lists identifiers that occurred more than once in the input and
	// were overwritten by a later entity.
	Replaced []string
	Skipped  []Skip
}

// Count returns the number of skips with reason.
func (r *Report) Count(reason Reason) int {
	n := 0
	for _, s := range r.Skipped {
		if s.Reason == reason {
			n++
		}
	}
	return n
}

// SkippedIDs returns the skipped identifiers in input order.
func (r *Report) SkippedIDs() []string {
	out := make([]string, 0, len(r.Skipped))
	for _, s := range r.Skipped {
		out = append(out, s.ID)
	}
	return out
}
