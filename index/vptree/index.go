package vptree

import (
	"container/heap"
	"fmt"
	"math"
	"sort"

	"github.com/viant/lookalike/internal/records"
	"github.com/viant/lookalike/vector"
)

// slack widens pruning bounds to absorb float64 rounding in the triangle
// inequality, so equal-distance entries are never pruned.
const slack = 1e-9

// Index is a vantage-point tree over Euclidean distance.
type Index struct {
	ids  []string
	vecs [][]float32
	dim  int
	root *node
}

type node struct {
	idx   int
	thr   float64
	left  *node // distance to vantage point <= thr
	right *node // distance to vantage point >= thr
}

// Build constructs the tree.
func (i *Index) Build(ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("vptree: ids and vectors length mismatch: %d != %d", len(ids), len(vectors))
	}
	i.ids = append([]string(nil), ids...)
	i.vecs = append([][]float32(nil), vectors...)
	i.root = nil
	if len(vectors) == 0 {
		i.dim = 0
		return nil
	}
	i.dim = len(vectors[0])
	for j := range vectors {
		if len(vectors[j]) != i.dim {
			return fmt.Errorf("vptree: %w", &vector.DimensionMismatchError{Expected: i.dim, Actual: len(vectors[j])})
		}
	}
	idxs := make([]int, len(vectors))
	for k := range idxs {
		idxs[k] = k
	}
	i.root = i.build(idxs)
	return nil
}

func (i *Index) build(idxs []int) *node {
	if len(idxs) == 0 {
		return nil
	}
	// last entry is the vantage point, keeping the build deterministic
	vp := idxs[len(idxs)-1]
	idxs = idxs[:len(idxs)-1]
	if len(idxs) == 0 {
		return &node{idx: vp}
	}
	dists := make(map[int]float64, len(idxs))
	for _, j := range idxs {
		dists[j] = i.distance(i.vecs[vp], j)
	}
	sort.Slice(idxs, func(a, b int) bool { return dists[idxs[a]] < dists[idxs[b]] })
	mid := len(idxs) / 2
	return &node{
		idx:   vp,
		thr:   dists[idxs[mid]],
		left:  i.build(append([]int(nil), idxs[:mid+1]...)),
		right: i.build(append([]int(nil), idxs[mid+1:]...)),
	}
}

// Len returns the number of entries.
func (i *Index) Len() int { return len(i.ids) }

// Query returns the k nearest entries, ascending by distance then id.
func (i *Index) Query(query []float32, k int) ([]string, []float64, error) {
	if len(i.vecs) == 0 {
		return nil, nil, nil
	}
	if len(query) != i.dim {
		return nil, nil, fmt.Errorf("vptree: %w", &vector.DimensionMismatchError{Expected: i.dim, Actual: len(query)})
	}
	if k <= 0 || k > len(i.ids) {
		k = len(i.ids)
	}
	h := &candidates{ids: i.ids}
	tau := math.Inf(1)
	var search func(n *node)
	search = func(n *node) {
		if n == nil {
			return
		}
		d := i.distance(query, n.idx)
		c := candidate{idx: n.idx, dist: d}
		if h.Len() < k {
			heap.Push(h, c)
		} else if h.before(c, h.items[0]) {
			h.items[0] = c
			heap.Fix(h, 0)
		}
		if h.Len() == k {
			tau = h.items[0].dist
		}
		bound := tau + slack*(1+tau)
		if d <= n.thr {
			if d-bound <= n.thr {
				search(n.left)
			}
			if d+bound >= n.thr {
				search(n.right)
			}
			return
		}
		if d+bound >= n.thr {
			search(n.right)
		}
		if d-bound <= n.thr {
			search(n.left)
		}
	}
	search(i.root)

	out := make([]candidate, h.Len())
	for n := len(out) - 1; n >= 0; n-- {
		out[n] = heap.Pop(h).(candidate)
	}
	ids := make([]string, len(out))
	dists := make([]float64, len(out))
	for n, c := range out {
		ids[n] = i.ids[c.idx]
		dists[n] = c.dist
	}
	return ids, dists, nil
}

func (i *Index) distance(q []float32, j int) float64 {
	d, _ := vector.L2Distance(q, i.vecs[j])
	return d
}

// MarshalBinary stores entries in the records layout; the tree is rebuilt on load.
func (i *Index) MarshalBinary() ([]byte, error) {
	return records.Marshal(i.dim, i.ids, i.vecs)
}

// UnmarshalBinary restores entries and rebuilds the tree.
func (i *Index) UnmarshalBinary(data []byte) error {
	_, ids, vecs, err := records.Unmarshal(data)
	if err != nil {
		return fmt.Errorf("vptree: %w", err)
	}
	return i.Build(ids, vecs)
}

type candidate struct {
	idx  int
	dist float64
}

// candidates is a max-heap on (dist, id): the root is the worst kept entry.
type candidates struct {
	ids   []string
	items []candidate
}

func (h *candidates) before(a, b candidate) bool {
	if a.dist != b.dist {
		return a.dist < b.dist
	}
	return h.ids[a.idx] < h.ids[b.idx]
}

func (h *candidates) Len() int           { return len(h.items) }
func (h *candidates) Less(a, b int) bool { return h.before(h.items[b], h.items[a]) }
func (h *candidates) Swap(a, b int)      { h.items[a], h.items[b] = h.items[b], h.items[a] }
func (h *candidates) Push(x any)         { h.items = append(h.items, x.(candidate)) }
func (h *candidates) Pop() any {
	old := h.items
	x := old[len(old)-1]
	h.items = old[:len(old)-1]
	return x
}
