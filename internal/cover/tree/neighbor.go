package tree

// Neighbor is a point returned by a kNN search.
type Neighbor struct {
	Point    *Point
	Distance float32
}

func closer(a, b Neighbor) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.Point.ID < b.Point.ID
}

// neighbors is a max-heap: the root is the worst kept neighbor.
type neighbors []Neighbor

func (h neighbors) Len() int           { return len(h) }
func (h neighbors) Less(i, j int) bool { return closer(h[j], h[i]) }
func (h neighbors) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *neighbors) Push(x any) {
	*h = append(*h, x.(Neighbor))
}

func (h *neighbors) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
