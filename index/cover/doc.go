// Package cover provides a Euclidean kNN index backed by a cover tree.
//
// The tree works in float32; the index over-fetches and re-scores candidates
// in float64 so the reported distances and their order match the exact scan.
package cover
