// Package rank produces deterministic top-K nearest-neighbor rankings over an
// embedding store.
//
// Results are ascending by distance; equal distances are ordered by
// identifier (byte-wise lexicographic), so output is reproducible across runs
// and platforms. The query entity is excluded from its own ranking unless
// WithSelf is given.
//
// When k exceeds the number of comparable entities the Clamp policy (default)
// returns every candidate and marks the result as clamped, while the Strict
// policy fails with *InsufficientDataError. A store holding only the query
// yields an empty result under both policies.
package rank
