package rank

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/lookalike/embedding"
	"github.com/viant/lookalike/index"
	"github.com/viant/lookalike/vector"
)

type countingObserver struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (o *countingObserver) ObserveRank(_ time.Duration, outcome string, _ int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.outcomes == nil {
		o.outcomes = map[string]int{}
	}
	o.outcomes[outcome]++
}

func TestRanker_FreezesStore(t *testing.T) {
	store := abcStore(t)
	r, err := NewRanker(store)
	require.NoError(t, err)
	assert.True(t, store.Frozen())
	assert.ErrorIs(t, store.Put("D", []float32{1, 2}), embedding.ErrFrozen)
	assert.Same(t, store, r.Store())
	assert.Equal(t, 3, r.Len())
}

func TestRanker_IndexMatchesScan(t *testing.T) {
	for _, kind := range []index.Kind{index.KindAuto, index.KindBrute, index.KindVPTree, index.KindCover} {
		t.Run(string(kind), func(t *testing.T) {
			store := randomStore(t, 300, 4, 9)
			exact := randomStore(t, 300, 4, 9)
			r, err := NewRanker(store, WithIndex(kind))
			require.NoError(t, err)
			for _, id := range store.IDs()[:30] {
				for _, k := range []int{1, 5, 40, 299, 500} {
					want, err := Rank(exact, id, k)
					require.NoError(t, err)
					got, err := r.Rank(id, k)
					require.NoError(t, err)
					assert.Equal(t, want, got, "id %s k %d", id, k)
				}
			}
			want, err := RankVector(exact, []float32{1, 2, 3, 0}, 10)
			require.NoError(t, err)
			got, err := r.RankVector([]float32{1, 2, 3, 0}, 10)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestRanker_Example(t *testing.T) {
	for _, kind := range []index.Kind{"", index.KindVPTree} {
		r, err := NewRanker(abcStore(t), WithIndex(kind), WithPolicy(Strict))
		require.NoError(t, err)
		res, err := r.Rank("A", 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"C", "B"}, res.IDs())

		_, err = r.Rank("A", 3)
		var insufficient *InsufficientDataError
		assert.ErrorAs(t, err, &insufficient)
	}
}

func TestRanker_SingleEntityWithIndex(t *testing.T) {
	store := newStore(t, map[string][]float32{"only": {1}})
	r, err := NewRanker(store, WithIndex(index.KindCover), WithPolicy(Strict))
	require.NoError(t, err)
	res, err := r.Rank("only", 4)
	require.NoError(t, err)
	assert.Empty(t, res.Neighbors)
	assert.Equal(t, 0, res.Candidates)
}

func TestRanker_SelfWithIndex(t *testing.T) {
	r, err := NewRanker(abcStore(t), WithIndex(index.KindBrute), WithSelf())
	require.NoError(t, err)
	res, err := r.Rank("A", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, res.IDs())
	assert.Equal(t, 3, res.Candidates)
}

func TestRanker_Errors(t *testing.T) {
	_, err := NewRanker(nil)
	assert.Error(t, err)
	_, err = NewRanker(abcStore(t), WithIndex(index.KindBrute), WithMetric(vector.MetricCosine))
	assert.Error(t, err)
	_, err = NewRanker(abcStore(t), WithIndex("hnsw"))
	assert.Error(t, err)

	obs := &countingObserver{}
	r, err := NewRanker(abcStore(t), WithIndex(index.KindVPTree), WithObserver(obs))
	require.NoError(t, err)
	_, err = r.Rank("missing", 1)
	assert.ErrorIs(t, err, embedding.ErrNotFound)
	_, err = r.Rank("A", 0)
	assert.ErrorIs(t, err, ErrInvalidK)
	_, err = r.Rank("A", 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"not_found": 1, "invalid_k": 1, "ok": 1}, obs.outcomes)
}
