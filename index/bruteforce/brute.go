package bruteforce

import (
	"fmt"
	"sort"

	"github.com/viant/lookalike/internal/records"
	"github.com/viant/lookalike/vector"
)

// Index is an exact Euclidean index.
type Index struct {
	ids  []string
	vecs [][]float32
	dim  int
}

// Build loads ids and vectors.
func (i *Index) Build(ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("bruteforce: ids and vectors length mismatch: %d != %d", len(ids), len(vectors))
	}
	if len(ids) == 0 {
		i.ids, i.vecs, i.dim = nil, nil, 0
		return nil
	}
	dim := len(vectors[0])
	for j := range vectors {
		if len(vectors[j]) != dim {
			return fmt.Errorf("bruteforce: %w", &vector.DimensionMismatchError{Expected: dim, Actual: len(vectors[j])})
		}
	}
	i.ids = append([]string(nil), ids...)
	i.vecs = append([][]float32(nil), vectors...)
	i.dim = dim
	return nil
}

// Len returns the number of entries.
func (i *Index) Len() int { return len(i.ids) }

// Query returns the k nearest entries, ascending by distance then id.
func (i *Index) Query(query []float32, k int) ([]string, []float64, error) {
	if len(i.vecs) == 0 {
		return nil, nil, nil
	}
	if len(query) != i.dim {
		return nil, nil, fmt.Errorf("bruteforce: %w", &vector.DimensionMismatchError{Expected: i.dim, Actual: len(query)})
	}
	type scored struct {
		idx  int
		dist float64
	}
	scoreds := make([]scored, len(i.vecs))
	for j := range i.vecs {
		d, _ := vector.L2Distance(query, i.vecs[j])
		scoreds[j] = scored{idx: j, dist: d}
	}
	sort.Slice(scoreds, func(a, b int) bool {
		if scoreds[a].dist != scoreds[b].dist {
			return scoreds[a].dist < scoreds[b].dist
		}
		return i.ids[scoreds[a].idx] < i.ids[scoreds[b].idx]
	})
	if k <= 0 || k > len(scoreds) {
		k = len(scoreds)
	}
	outIDs := make([]string, k)
	outDists := make([]float64, k)
	for n := 0; n < k; n++ {
		outIDs[n] = i.ids[scoreds[n].idx]
		outDists[n] = scoreds[n].dist
	}
	return outIDs, outDists, nil
}

// MarshalBinary stores entries in the records layout.
func (i *Index) MarshalBinary() ([]byte, error) {
	return records.Marshal(i.dim, i.ids, i.vecs)
}

// UnmarshalBinary restores the index from bytes.
func (i *Index) UnmarshalBinary(data []byte) error {
	_, ids, vecs, err := records.Unmarshal(data)
	if err != nil {
		return fmt.Errorf("bruteforce: %w", err)
	}
	return i.Build(ids, vecs)
}
