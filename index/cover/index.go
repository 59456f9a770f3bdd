package cover

import (
	"fmt"
	"sort"

	"github.com/viant/lookalike/internal/cover/tree"
	"github.com/viant/lookalike/internal/records"
	"github.com/viant/lookalike/vector"
)

const defaultOverfetch = 8

// Index is a cover-tree index.
type Index struct {
	base      float32
	overfetch int
	tree      *tree.Tree
	ids       []string
	vecs      [][]float32
	dim       int
}

// Option configures an Index.
type Option func(*Index)

// WithBase sets the cover tree base (default 1.3).
func WithBase(base float32) Option {
	return func(i *Index) { i.base = base }
}

// WithOverfetch sets how many extra candidates are re-scored per query.
func WithOverfetch(n int) Option {
	return func(i *Index) {
		if n >= 0 {
			i.overfetch = n
		}
	}
}

// New returns an empty index.
func New(opts ...Option) *Index {
	i := &Index{overfetch: defaultOverfetch}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Build inserts all entries into a fresh tree.
func (i *Index) Build(ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("cover: ids and vectors length mismatch: %d != %d", len(ids), len(vectors))
	}
	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	t := tree.New(i.base, tree.Euclidean)
	for j, vec := range vectors {
		if len(vec) != dim {
			return fmt.Errorf("cover: %w", &vector.DimensionMismatchError{Expected: dim, Actual: len(vec)})
		}
		t.Insert(tree.NewPoint(ids[j], vec))
	}
	i.tree = t
	i.ids = append([]string(nil), ids...)
	i.vecs = append([][]float32(nil), vectors...)
	i.dim = dim
	return nil
}

// Len returns the number of entries.
func (i *Index) Len() int { return len(i.ids) }

// Query returns the k nearest entries, ascending by distance then id.
func (i *Index) Query(query []float32, k int) ([]string, []float64, error) {
	if i.tree == nil || len(i.ids) == 0 {
		return nil, nil, nil
	}
	if len(query) != i.dim {
		return nil, nil, fmt.Errorf("cover: %w", &vector.DimensionMismatchError{Expected: i.dim, Actual: len(query)})
	}
	if k <= 0 || k > len(i.ids) {
		k = len(i.ids)
	}
	found := i.tree.Search(query, k+i.overfetch)
	type scored struct {
		id   string
		dist float64
	}
	scoreds := make([]scored, len(found))
	for n, f := range found {
		d, _ := vector.L2Distance(query, f.Point.Vector)
		scoreds[n] = scored{id: f.Point.ID, dist: d}
	}
	sort.Slice(scoreds, func(a, b int) bool {
		if scoreds[a].dist != scoreds[b].dist {
			return scoreds[a].dist < scoreds[b].dist
		}
		return scoreds[a].id < scoreds[b].id
	})
	if k > len(scoreds) {
		k = len(scoreds)
	}
	ids := make([]string, k)
	dists := make([]float64, k)
	for n := 0; n < k; n++ {
		ids[n] = scoreds[n].id
		dists[n] = scoreds[n].dist
	}
	return ids, dists, nil
}

// MarshalBinary stores entries in the records layout; the tree is rebuilt on load.
func (i *Index) MarshalBinary() ([]byte, error) {
	return records.Marshal(i.dim, i.ids, i.vecs)
}

// UnmarshalBinary restores entries and rebuilds the tree.
func (i *Index) UnmarshalBinary(data []byte) error {
	_, ids, vecs, err := records.Unmarshal(data)
	if err != nil {
		return fmt.Errorf("cover: %w", err)
	}
	return i.Build(ids, vecs)
}
