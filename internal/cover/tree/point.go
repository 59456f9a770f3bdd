package tree

// Point is a stored vector with its identifier.
type Point struct {
	ID     string
	Vector []float32
}

// NewPoint constructs a point.
func NewPoint(id string, vector []float32) *Point {
	return &Point{ID: id, Vector: vector}
}
