package rank

import (
	"errors"
	"fmt"
	"time"

	"github.com/viant/lookalike/embedding"
	"github.com/viant/lookalike/index"
	"github.com/viant/lookalike/vector"
)

// Ranker answers repeated queries over a frozen store, optionally retrieving
// candidates through a kNN index. It is safe for concurrent use.
type Ranker struct {
	store *embedding.Store
	index index.Index
	opts  *options
}

// NewRanker freezes store and, when WithIndex is given, builds the index.
func NewRanker(store *embedding.Store, opts ...Option) (*Ranker, error) {
	if store == nil {
		return nil, errors.New("rank: store is nil")
	}
	o := newOptions(opts)
	store.Freeze()
	r := &Ranker{store: store, opts: o}
	if o.index == "" {
		return r, nil
	}
	if o.metric != vector.MetricL2 {
		return nil, fmt.Errorf("rank: index requires the l2 metric, got %s", o.metric)
	}
	ids := make([]string, 0, store.Len())
	vecs := make([][]float32, 0, store.Len())
	store.Range(func(id string, vec []float32) bool {
		ids = append(ids, id)
		vecs = append(vecs, vec)
		return true
	})
	idx, err := index.Build(o.index, ids, vecs)
	if err != nil {
		return nil, fmt.Errorf("rank: build %s index: %w", o.index, err)
	}
	r.index = idx
	o.logger.Info("ranker index built", "kind", o.index.Resolve(len(ids), store.Dim()), "count", len(ids))
	return r, nil
}

// Store returns the frozen store.
func (r *Ranker) Store() *embedding.Store { return r.store }

// Len returns the number of ranked entities.
func (r *Ranker) Len() int { return r.store.Len() }

// Rank returns the k entities nearest to queryID, see Rank.
func (r *Ranker) Rank(queryID string, k int) (result *Result, err error) {
	started := time.Now()
	defer func() { r.observe(started, queryID, k, result, err) }()
	if r.index == nil {
		var opts []Option
		if r.opts.self {
			opts = append(opts, WithSelf())
		}
		return Rank(r.store, queryID, k, append(opts, WithMetric(r.opts.metric), WithPolicy(r.opts.policy))...)
	}
	if k <= 0 {
		return nil, ErrInvalidK
	}
	query, err := r.store.Get(queryID)
	if err != nil {
		return nil, err
	}
	candidates := r.store.Len()
	exclude := ""
	if !r.opts.self {
		exclude = queryID
		candidates--
	}
	result, err = r.query(query, exclude, k, candidates)
	if err != nil {
		return nil, err
	}
	result.QueryID = queryID
	return result, nil
}

// RankVector ranks every entity against an external query vector.
func (r *Ranker) RankVector(query []float32, k int) (result *Result, err error) {
	started := time.Now()
	defer func() { r.observe(started, "", k, result, err) }()
	if r.index == nil {
		return RankVector(r.store, query, k, WithMetric(r.opts.metric), WithPolicy(r.opts.policy))
	}
	if k <= 0 {
		return nil, ErrInvalidK
	}
	return r.query(query, "", k, r.store.Len())
}

func (r *Ranker) query(query []float32, exclude string, k, candidates int) (*Result, error) {
	fetch := k
	if exclude != "" {
		fetch++
	}
	ids, dists, err := r.index.Query(query, min(fetch, r.index.Len()))
	if err != nil {
		return nil, fmt.Errorf("rank: index query: %w", err)
	}
	neighbors := make([]Neighbor, 0, min(k, len(ids)))
	for i, id := range ids {
		if id == exclude {
			continue
		}
		if len(neighbors) == k {
			break
		}
		neighbors = append(neighbors, Neighbor{ID: id, Distance: dists[i]})
	}
	return finish(neighbors, candidates, k, r.opts.policy)
}

func (r *Ranker) observe(started time.Time, queryID string, k int, result *Result, err error) {
	label := Outcome(err)
	returned := 0
	if result != nil {
		returned = len(result.Neighbors)
	}
	if r.opts.observer != nil {
		r.opts.observer.ObserveRank(time.Since(started), label, returned)
	}
	if err != nil {
		r.opts.logger.Debug("rank failed", "id", queryID, "k", k, "outcome", label, "error", err)
		return
	}
	r.opts.logger.Debug("ranked", "id", queryID, "k", k, "count", returned)
}
