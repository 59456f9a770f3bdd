package rank

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/lookalike/embedding"
	"github.com/viant/lookalike/vector"
)

func newStore(t *testing.T, items map[string][]float32) *embedding.Store {
	t.Helper()
	s := embedding.NewStore()
	for id, vec := range items {
		require.NoError(t, s.Put(id, vec))
	}
	return s
}

func abcStore(t *testing.T) *embedding.Store {
	return newStore(t, map[string][]float32{
		"A": {0, 0},
		"B": {3, 4},
		"C": {1, 1},
	})
}

func randomStore(t *testing.T, n, dim int, seed int64) *embedding.Store {
	rng := rand.New(rand.NewSource(seed))
	s := embedding.NewStore()
	for i := 0; i < n; i++ {
		vec := make([]float32, dim)
		for j := range vec {
			// coarse values produce many exact distance ties
			vec[j] = float32(rng.Intn(4))
		}
		require.NoError(t, s.Put(fmt.Sprintf("e%03d", i), vec))
	}
	return s
}

func TestRank_Example(t *testing.T) {
	res, err := Rank(abcStore(t), "A", 2)
	require.NoError(t, err)
	require.Len(t, res.Neighbors, 2)
	assert.Equal(t, "C", res.Neighbors[0].ID)
	assert.InDelta(t, math.Sqrt2, res.Neighbors[0].Distance, 1e-12)
	assert.Equal(t, "B", res.Neighbors[1].ID)
	assert.Equal(t, 5.0, res.Neighbors[1].Distance)
	assert.Equal(t, 2, res.Candidates)
	assert.Equal(t, "A", res.QueryID)
	assert.False(t, res.Clamped)
}

func TestRank_Errors(t *testing.T) {
	store := abcStore(t)
	_, err := Rank(store, "A", 0)
	assert.ErrorIs(t, err, ErrInvalidK)

	_, err = Rank(store, "Z", 1)
	assert.ErrorIs(t, err, embedding.ErrNotFound)
	var notFound *embedding.NotFoundError
	assert.True(t, errors.As(err, &notFound))

	_, err = Rank(embedding.NewStore(), "A", 1)
	assert.ErrorIs(t, err, embedding.ErrNotFound)
}

func TestRank_SingleEntity(t *testing.T) {
	store := newStore(t, map[string][]float32{"only": {1, 2}})
	for _, policy := range []Policy{Clamp, Strict} {
		res, err := Rank(store, "only", 3, WithPolicy(policy))
		require.NoError(t, err)
		assert.Empty(t, res.Neighbors)
		assert.Equal(t, 0, res.Candidates)
	}
}

func TestRank_Policy(t *testing.T) {
	store := abcStore(t)
	res, err := Rank(store, "A", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "B"}, res.IDs())
	assert.True(t, res.Clamped)
	assert.Equal(t, 5, res.Requested)

	_, err = Rank(store, "A", 5, WithPolicy(Strict))
	var insufficient *InsufficientDataError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 5, insufficient.Requested)
	assert.Equal(t, 2, insufficient.Available)

	res, err = Rank(store, "A", 2, WithPolicy(Strict))
	require.NoError(t, err)
	assert.Len(t, res.Neighbors, 2)
}

func TestRank_Self(t *testing.T) {
	res, err := Rank(abcStore(t), "A", 3, WithSelf())
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C", "B"}, res.IDs())
	assert.Equal(t, 0.0, res.Neighbors[0].Distance)
	assert.Equal(t, 3, res.Candidates)
}

func TestRank_Properties(t *testing.T) {
	store := randomStore(t, 200, 3, 1)
	ids := store.IDs()
	for _, id := range ids[:40] {
		for _, k := range []int{1, 7, 49, 50, 199} {
			res, err := Rank(store, id, k, WithPolicy(Strict))
			require.NoError(t, err)
			require.Len(t, res.Neighbors, k)
			for i, n := range res.Neighbors {
				assert.NotEqual(t, id, n.ID)
				if i > 0 {
					prev := res.Neighbors[i-1]
					assert.True(t, before(prev, n), "inversion at %d: %v then %v", i, prev, n)
				}
			}
		}
	}
}

func TestSelectTop_HeapMatchesSort(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	candidates := make([]Neighbor, 1000)
	for i := range candidates {
		candidates[i] = Neighbor{ID: fmt.Sprintf("n%04d", rng.Intn(5000)), Distance: float64(rng.Intn(20))}
	}
	sorted := append([]Neighbor(nil), candidates...)
	sort.Slice(sorted, func(i, j int) bool { return before(sorted[i], sorted[j]) })
	for _, k := range []int{0, 1, 10, 249, 250, 999, 1000, 2000} {
		got := selectTop(append([]Neighbor(nil), candidates...), k)
		want := sorted[:min(k, len(sorted))]
		for i := range want {
			assert.Equal(t, want[i].Distance, got[i].Distance, "k=%d i=%d", k, i)
			assert.Equal(t, want[i].ID, got[i].ID, "k=%d i=%d", k, i)
		}
		assert.Len(t, got, len(want))
	}
}

func TestRank_Cosine(t *testing.T) {
	store := newStore(t, map[string][]float32{
		"q":     {1, 0},
		"same":  {5, 0},
		"right": {0, 1},
		"diag":  {1, 1},
	})
	res, err := Rank(store, "q", 3, WithMetric(vector.MetricCosine))
	require.NoError(t, err)
	assert.Equal(t, []string{"same", "diag", "right"}, res.IDs())

	zero := newStore(t, map[string][]float32{"q": {1, 0}, "z": {0, 0}})
	_, err = Rank(zero, "q", 1, WithMetric(vector.MetricCosine))
	assert.ErrorIs(t, err, vector.ErrZeroVector)
	assert.Contains(t, err.Error(), `"z"`)

	// the same store ranks fine under L2
	res, err = Rank(zero, "q", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"z"}, res.IDs())
}

func TestRankVector(t *testing.T) {
	res, err := RankVector(abcStore(t), []float32{1, 1}, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A", "B"}, res.IDs())
	assert.Equal(t, 0.0, res.Neighbors[0].Distance)
	assert.Equal(t, "", res.QueryID)

	_, err = RankVector(abcStore(t), []float32{1}, 1)
	var mismatch *vector.DimensionMismatchError
	assert.True(t, errors.As(err, &mismatch))
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "invalid_k", Outcome(ErrInvalidK))
	assert.Equal(t, "not_found", Outcome(&embedding.NotFoundError{ID: "x"}))
	assert.Equal(t, "insufficient", Outcome(&InsufficientDataError{}))
	assert.Equal(t, "error", Outcome(errors.New("x")))
}
