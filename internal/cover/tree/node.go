package tree

type node struct {
	level    int32
	point    *Point
	children []*node
	// radius bounds the distance from point to any descendant.
	radius float32
}
