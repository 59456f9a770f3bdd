// Package tree implements a cover tree for Euclidean kNN search.
package tree

import (
	"container/heap"
	"math"
	"sync"
)

// Tree is a cover tree. Insert and Search may be called concurrently.
type Tree struct {
	mu       sync.RWMutex
	root     *node
	base     float32
	distance DistanceFunc
	size     int
	// stale is set by Insert; Search recomputes subtree radii first.
	stale bool
}

// New constructs a tree with the given base (values <= 1 default to 1.3). A
// nil distance defaults to Euclidean.
func New(base float32, distance DistanceFunc) *Tree {
	if base <= 1 {
		base = 1.3
	}
	if distance == nil {
		distance = Euclidean
	}
	return &Tree{base: base, distance: distance}
}

// Len returns the number of inserted points.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.size
}

// Insert adds a point.
func (t *Tree) Insert(point *Point) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.size++
	t.stale = true
	if t.root == nil {
		t.root = &node{point: point}
		return
	}
	d := t.distance(point.Vector, t.root.point.Vector)
	for d >= t.cover(t.root.level) && !math.IsInf(float64(d), 1) {
		t.root.level++
	}
	n := t.root
	for {
		var next *node
		for _, child := range n.children {
			if t.distance(point.Vector, child.point.Vector) < t.cover(child.level) {
				next = child
				break
			}
		}
		if next == nil {
			n.children = append(n.children, &node{point: point, level: n.level - 1})
			return
		}
		n = next
	}
}

func (t *Tree) cover(level int32) float32 {
	return float32(math.Pow(float64(t.base), float64(level)))
}

// Search returns up to k nearest points, ascending by distance then id,
// using best-first traversal with subtree radius pruning.
func (t *Tree) Search(query []float32, k int) []Neighbor {
	if k <= 0 {
		return nil
	}
	t.readLock()
	defer t.mu.RUnlock()
	if t.root == nil {
		return nil
	}
	found := &neighbors{}
	queue := &nodeQueue{}
	rootDist := t.distance(query, t.root.point.Vector)
	heap.Push(queue, nodeItem{node: t.root, lb: rootDist - t.root.radius, dist: rootDist})
	for queue.Len() > 0 {
		top := heap.Pop(queue).(nodeItem)
		if found.Len() == k && top.lb > bound((*found)[0].Distance) {
			break
		}
		candidate := Neighbor{Point: top.node.point, Distance: top.dist}
		if found.Len() < k {
			heap.Push(found, candidate)
		} else if closer(candidate, (*found)[0]) {
			(*found)[0] = candidate
			heap.Fix(found, 0)
		}
		for _, child := range top.node.children {
			d := t.distance(query, child.point.Vector)
			lb := d - child.radius
			if found.Len() == k && lb > bound((*found)[0].Distance) {
				continue
			}
			heap.Push(queue, nodeItem{node: child, lb: lb, dist: d})
		}
	}
	result := make([]Neighbor, found.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(found).(Neighbor)
	}
	return result
}

// bound widens the pruning radius to absorb float32 rounding in the triangle
// inequality, so points tied with the current worst neighbor are still visited.
func bound(worst float32) float32 {
	return worst + 1e-5*(1+worst)
}

// readLock acquires the read lock with up-to-date radii.
func (t *Tree) readLock() {
	for {
		t.mu.RLock()
		if !t.stale {
			return
		}
		t.mu.RUnlock()
		t.mu.Lock()
		if t.stale {
			t.updateRadius(t.root)
			t.stale = false
		}
		t.mu.Unlock()
	}
}

func (t *Tree) updateRadius(n *node) float32 {
	if n == nil {
		return 0
	}
	var radius float32
	for _, child := range n.children {
		if r := t.distance(n.point.Vector, child.point.Vector) + t.updateRadius(child); r > radius {
			radius = r
		}
	}
	n.radius = radius
	return radius
}

type nodeItem struct {
	node *node
	lb   float32
	dist float32
}

type nodeQueue []nodeItem

func (q nodeQueue) Len() int           { return len(q) }
func (q nodeQueue) Less(i, j int) bool { return q[i].lb < q[j].lb }
func (q nodeQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x any)        { *q = append(*q, x.(nodeItem)) }
func (q *nodeQueue) Pop() any {
	old := *q
	n := len(old)
	x := old[n-1]
	*q = old[:n-1]
	return x
}
