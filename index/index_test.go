package index

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomData(rng *rand.Rand, n, dim int) ([]string, [][]float32) {
	ids := make([]string, n)
	vecs := make([][]float32, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("id-%04d", i)
		vecs[i] = make([]float32, dim)
		for j := range vecs[i] {
			vecs[i][j] = rng.Float32()*2 - 1
		}
	}
	return ids, vecs
}

func TestIndexes_MatchBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ids, vecs := randomData(rng, 500, 16)
	// duplicates produce exact distance ties
	ids = append(ids, "dup-b", "dup-a", "dup-c")
	vecs = append(vecs, vecs[0], vecs[0], vecs[0])

	brute, err := Build(KindBrute, ids, vecs)
	require.NoError(t, err)

	for _, kind := range []Kind{KindVPTree, KindCover} {
		t.Run(string(kind), func(t *testing.T) {
			idx, err := Build(kind, ids, vecs)
			require.NoError(t, err)
			assert.Equal(t, len(ids), idx.Len())
			for q := 0; q < 25; q++ {
				query := vecs[rng.Intn(len(vecs))]
				for _, k := range []int{1, 5, 20} {
					expectIDs, expectDists, err := brute.Query(query, k)
					require.NoError(t, err)
					gotIDs, gotDists, err := idx.Query(query, k)
					require.NoError(t, err)
					assert.Equal(t, expectIDs, gotIDs, "query %d k %d", q, k)
					assert.Equal(t, expectDists, gotDists, "query %d k %d", q, k)
				}
			}
		})
	}
}

func TestIndexes_TieOrderAndBinary(t *testing.T) {
	ids := []string{"A", "B", "C", "D", "E"}
	vecs := [][]float32{{0, 0}, {3, 4}, {1, 1}, {-1, -1}, {1, -1}}
	for _, kind := range []Kind{KindBrute, KindVPTree, KindCover} {
		t.Run(string(kind), func(t *testing.T) {
			idx, err := Build(kind, ids, vecs)
			require.NoError(t, err)
			gotIDs, gotDists, err := idx.Query([]float32{0, 0}, 0)
			require.NoError(t, err)
			assert.Equal(t, []string{"A", "C", "D", "E", "B"}, gotIDs)
			assert.Equal(t, 5.0, gotDists[4])

			data, err := idx.MarshalBinary()
			require.NoError(t, err)
			restored, err := New(kind)
			require.NoError(t, err)
			require.NoError(t, restored.UnmarshalBinary(data))
			againIDs, againDists, err := restored.Query([]float32{0, 0}, 2)
			require.NoError(t, err)
			assert.Equal(t, gotIDs[:2], againIDs)
			assert.Equal(t, gotDists[:2], againDists)

			_, _, err = idx.Query([]float32{1}, 1)
			assert.Error(t, err)
			assert.Error(t, restored.UnmarshalBinary([]byte{1, 2}))
		})
	}
}

func TestIndexes_Empty(t *testing.T) {
	for _, kind := range []Kind{KindBrute, KindVPTree, KindCover} {
		idx, err := Build(kind, nil, nil)
		require.NoError(t, err)
		ids, dists, err := idx.Query([]float32{1, 2}, 3)
		require.NoError(t, err)
		assert.Empty(t, ids)
		assert.Empty(t, dists)
		assert.Equal(t, 0, idx.Len())
	}
}

func TestIndexes_BuildErrors(t *testing.T) {
	for _, kind := range []Kind{KindBrute, KindVPTree, KindCover} {
		idx, err := New(kind)
		require.NoError(t, err)
		assert.Error(t, idx.Build([]string{"a"}, nil))
		assert.Error(t, idx.Build([]string{"a", "b"}, [][]float32{{1, 2}, {1}}))
	}
	_, err := New(KindAuto)
	assert.Error(t, err)
}

func TestKind(t *testing.T) {
	k, err := ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, KindAuto, k)
	k, err = ParseKind(" Cover ")
	require.NoError(t, err)
	assert.Equal(t, KindCover, k)
	_, err = ParseKind("hnsw")
	assert.Error(t, err)

	assert.Equal(t, KindBrute, KindAuto.Resolve(100, 128))
	assert.Equal(t, KindBrute, KindAuto.Resolve(5000, 32))
	assert.Equal(t, KindBrute, KindAuto.Resolve(4000, 512))
	assert.Equal(t, KindVPTree, KindAuto.Resolve(4096, 128))
	assert.Equal(t, KindCover, KindCover.Resolve(1, 1))
}
