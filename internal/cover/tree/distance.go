package tree

import "github.com/viant/vec/search"

// DistanceFunc computes the distance between two vectors. It must be a
// metric: pruning relies on the triangle inequality.
type DistanceFunc func(a, b []float32) float32

// Euclidean returns the L2 distance.
func Euclidean(a, b []float32) float32 {
	return search.Float32s(a).EuclideanDistance(b)
}
