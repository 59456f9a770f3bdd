package session

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/lookalike/embedding"
	"github.com/viant/lookalike/face"
	"github.com/viant/lookalike/rank"
)

func testRanker(t *testing.T) *rank.Ranker {
	t.Helper()
	store := embedding.NewStore()
	require.NoError(t, store.Put("A", []float32{0, 0}))
	require.NoError(t, store.Put("B", []float32{3, 4}))
	require.NoError(t, store.Put("C", []float32{1, 1}))
	r, err := rank.NewRanker(store)
	require.NoError(t, err)
	return r
}

func TestSession_Query(t *testing.T) {
	crops := face.NewCrops()
	queryImg := image.NewGray(image.Rect(0, 0, 2, 2))
	cImg := image.NewGray(image.Rect(0, 0, 3, 3))
	crops.Put("A", queryImg)
	crops.Put("C", cImg)

	var rendered *Presentation
	renderer := RendererFunc(func(_ context.Context, p *Presentation) error {
		rendered = p
		return nil
	})
	s, err := New(testRanker(t), crops, renderer)
	require.NoError(t, err)

	p, err := s.Query(context.Background(), "A", 0)
	require.NoError(t, err)
	assert.Same(t, p, rendered)
	assert.Equal(t, "A", p.Query)
	assert.Equal(t, []string{"C", "B"}, p.Result.IDs())
	assert.Equal(t, DefaultK, p.Result.Requested)
	assert.Same(t, queryImg, p.QueryImage)
	assert.Same(t, cImg, p.Image("C"))
	assert.Nil(t, p.Image("B"))
	assert.Same(t, queryImg, p.Image("A"))
}

func TestSession_Errors(t *testing.T) {
	noop := RendererFunc(func(context.Context, *Presentation) error { return nil })
	_, err := New(nil, nil, noop)
	assert.Error(t, err)
	_, err = New(testRanker(t), nil, nil)
	assert.Error(t, err)

	s, err := New(testRanker(t), nil, noop)
	require.NoError(t, err)
	_, err = s.Query(context.Background(), "missing", 1)
	assert.ErrorIs(t, err, embedding.ErrNotFound)

	p, err := s.Query(context.Background(), "B", 1)
	require.NoError(t, err)
	assert.Empty(t, p.Images)

	boom := errors.New("boom")
	failing, err := New(testRanker(t), nil, RendererFunc(func(context.Context, *Presentation) error { return boom }))
	require.NoError(t, err)
	p, err = failing.Query(context.Background(), "A", 1)
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, p)
}
