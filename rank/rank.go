package rank

import (
	"container/heap"
	"fmt"
	"sort"
)

// Source is the read side of an embedding store, see embedding.Store.
type Source interface {
	Get(id string) ([]float32, error)
	Range(fn func(id string, vec []float32) bool)
	Len() int
}

// Rank returns the k entities nearest to queryID. It fails with the store's
// not-found error when queryID is absent and with ErrInvalidK for k <= 0.
func Rank(store Source, queryID string, k int, opts ...Option) (*Result, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	query, err := store.Get(queryID)
	if err != nil {
		return nil, err
	}
	o := newOptions(opts)
	exclude := queryID
	if o.self {
		exclude = ""
	}
	result, err := scan(store, query, exclude, k, o)
	if err != nil {
		return nil, err
	}
	result.QueryID = queryID
	return result, nil
}

// RankVector ranks every entity against an external query vector, e.g. the
// embedding of an image that is not part of the store.
func RankVector(store Source, query []float32, k int, opts ...Option) (*Result, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	return scan(store, query, "", k, newOptions(opts))
}

func scan(store Source, query []float32, exclude string, k int, o *options) (*Result, error) {
	candidates := make([]Neighbor, 0, store.Len())
	var err error
	store.Range(func(id string, vec []float32) bool {
		if exclude != "" && id == exclude {
			return true
		}
		var d float64
		if d, err = o.metric.Distance(query, vec); err != nil {
			err = fmt.Errorf("rank: distance to %q: %w", id, err)
			return false
		}
		candidates = append(candidates, Neighbor{ID: id, Distance: d})
		return true
	})
	if err != nil {
		return nil, err
	}
	return finish(selectTop(candidates, k), len(candidates), k, o.policy)
}

// finish applies the policy to neighbors already ordered and cut to k.
func finish(neighbors []Neighbor, candidates, k int, policy Policy) (*Result, error) {
	if k > candidates && candidates > 0 && policy == Strict {
		return nil, &InsufficientDataError{Requested: k, Available: candidates}
	}
	return &Result{
		Neighbors:  neighbors,
		Candidates: candidates,
		Requested:  k,
		Clamped:    k > candidates,
	}, nil
}

func before(a, b Neighbor) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.ID < b.ID
}

// selectTop orders candidates and returns the first k. Small k relative to the
// candidate count uses a bounded heap instead of a full sort.
func selectTop(candidates []Neighbor, k int) []Neighbor {
	if k > len(candidates) {
		k = len(candidates)
	}
	if k < len(candidates)/4 {
		return heapTop(candidates, k)
	}
	sort.Slice(candidates, func(i, j int) bool { return before(candidates[i], candidates[j]) })
	return candidates[:k:k]
}

func heapTop(candidates []Neighbor, k int) []Neighbor {
	h := make(worst, 0, k)
	for _, c := range candidates {
		if len(h) < k {
			heap.Push(&h, c)
		} else if k > 0 && before(c, h[0]) {
			h[0] = c
			heap.Fix(&h, 0)
		}
	}
	out := make([]Neighbor, len(h))
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&h).(Neighbor)
	}
	return out
}

// worst is a max-heap on (distance, id).
type worst []Neighbor

func (h worst) Len() int           { return len(h) }
func (h worst) Less(i, j int) bool { return before(h[j], h[i]) }
func (h worst) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *worst) Push(x any)        { *h = append(*h, x.(Neighbor)) }
func (h *worst) Pop() any {
	old := *h
	x := old[len(old)-1]
	*h = old[:len(old)-1]
	return x
}
