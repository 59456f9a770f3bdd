package embedding

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/lookalike/face"
	"github.com/viant/lookalike/source"
)

// faceImage encodes the number of faces in the image width and the embedding
// seed in its height.
func faceImage(faces, seed int) image.Image {
	return image.NewNRGBA(image.Rect(0, 0, 10+faces, 10+seed))
}

func countingExtractor(t *testing.T) *face.Extractor {
	detector := face.DetectorFunc(func(_ context.Context, img image.Image) ([]face.Region, error) {
		n := img.Bounds().Dx() - 10
		regions := make([]face.Region, n)
		for i := range regions {
			regions[i] = face.Region{Bounds: image.Rect(0, 0, 2+i, 2)}
		}
		return regions, nil
	})
	embedder := face.EmbedderFunc(func(_ context.Context, r face.Region) ([]float32, error) {
		return []float32{float32(r.Crop.Bounds().Dx()), 1}, nil
	})
	x, err := face.NewExtractor(detector, embedder)
	require.NoError(t, err)
	return x
}

type extractFunc func(ctx context.Context, img image.Image) (*face.Face, error)

func (f extractFunc) Extract(ctx context.Context, img image.Image) (*face.Face, error) {
	return f(ctx, img)
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes map[string]int
	builds   int
}

func (o *recordingObserver) ObserveEntity(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.outcomes == nil {
		o.outcomes = map[string]int{}
	}
	o.outcomes[outcome]++
}

func (o *recordingObserver) ObserveBuild(time.Duration, int, int) {
	o.mu.Lock()
	o.builds++
	o.mu.Unlock()
}

func TestBuild_SkipsZeroAndMultipleFaces(t *testing.T) {
	entities := source.Images(map[string]image.Image{
		"zero": faceImage(0, 0),
		"two":  faceImage(2, 0),
		"one":  faceImage(1, 0),
	})
	crops := face.NewCrops()
	observer := &recordingObserver{}
	store, report, err := Build(context.Background(), entities, countingExtractor(t),
		WithCrops(crops), WithObserver(observer), WithConcurrency(3))
	require.NoError(t, err)

	assert.Equal(t, 1, store.Len())
	assert.Equal(t, []string{"one"}, store.IDs())
	require.Len(t, report.Skipped, 2)
	assert.Equal(t, 1, report.Count(ReasonNoFace))
	assert.Equal(t, 1, report.Count(ReasonMultipleFaces))
	assert.ElementsMatch(t, []string{"zero", "two"}, report.SkippedIDs())
	for _, s := range report.Skipped {
		switch s.ID {
		case "zero":
			assert.Equal(t, ReasonNoFace, s.Reason)
			assert.ErrorIs(t, s.Err, face.ErrNoFace)
		case "two":
			assert.Equal(t, ReasonMultipleFaces, s.Reason)
		}
	}
	assert.Equal(t, []string{"one"}, report.Indexed)
	assert.NotEmpty(t, report.BuildID)

	_, ok := crops.Crop("one")
	assert.True(t, ok)
	assert.Equal(t, 1, crops.Len())
	assert.Equal(t, 1, observer.outcomes["indexed"])
	assert.Equal(t, 1, observer.outcomes[string(ReasonNoFace)])
	assert.Equal(t, 1, observer.builds)
}

func TestBuild_LaterDuplicateWins(t *testing.T) {
	first := faceImage(1, 1)
	second := faceImage(1, 2)
	extractor := extractFunc(func(_ context.Context, img image.Image) (*face.Face, error) {
		if img == first {
			time.Sleep(20 * time.Millisecond)
		}
		return &face.Face{Embedding: []float32{float32(img.Bounds().Dy())}}, nil
	})
	load := func(img image.Image) func(context.Context) (image.Image, error) {
		return func(context.Context) (image.Image, error) { return img, nil }
	}
	entities := []source.Entity{
		{ID: "dup", Load: load(first)},
		{ID: "dup", Load: load(second)},
	}
	store, report, err := Build(context.Background(), entities, extractor, WithConcurrency(2))
	require.NoError(t, err)
	got, err := store.Get("dup")
	require.NoError(t, err)
	assert.Equal(t, []float32{12}, got)
	assert.Equal(t, []string{"dup"}, report.Indexed)
	assert.Equal(t, []string{"dup"}, report.Replaced)
}

func TestBuild_ReplacementWithoutCropDropsOldCrop(t *testing.T) {
	first := faceImage(1, 1)
	second := faceImage(1, 2)
	extractor := extractFunc(func(_ context.Context, img image.Image) (*face.Face, error) {
		f := &face.Face{Embedding: []float32{float32(img.Bounds().Dy())}}
		if img == first {
			f.Crop = image.NewNRGBA(image.Rect(0, 0, 4, 4))
		}
		return f, nil
	})
	load := func(img image.Image) func(context.Context) (image.Image, error) {
		return func(context.Context) (image.Image, error) { return img, nil }
	}
	crops := face.NewCrops()
	entities := []source.Entity{
		{ID: "dup", Load: load(first)},
		{ID: "dup", Load: load(second)},
	}
	store, _, err := Build(context.Background(), entities, extractor, WithConcurrency(1), WithCrops(crops))
	require.NoError(t, err)
	got, err := store.Get("dup")
	require.NoError(t, err)
	assert.Equal(t, []float32{12}, got)
	_, ok := crops.Crop("dup")
	assert.False(t, ok)
	assert.Equal(t, 0, crops.Len())
}

func TestBuild_PerEntityFailures(t *testing.T) {
	boom := errors.New("boom")
	extractor := extractFunc(func(ctx context.Context, img image.Image) (*face.Face, error) {
		switch img.Bounds().Dx() {
		case 1:
			return &face.Face{Embedding: []float32{1, 2}}, nil
		case 2:
			return &face.Face{Embedding: []float32{1, 2, 3}}, nil
		case 3:
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return nil, boom
	})
	img := func(w int) func(context.Context) (image.Image, error) {
		return func(context.Context) (image.Image, error) {
			return image.NewGray(image.Rect(0, 0, w, 1)), nil
		}
	}
	entities := []source.Entity{
		{ID: "ok", Load: img(1)},
		{ID: "wide", Load: img(2)},
		{ID: "slow", Load: img(3)},
		{ID: "broken", Load: img(4)},
		{ID: "unreadable", Load: func(context.Context) (image.Image, error) { return nil, errors.New("bad file") }},
		{ID: "", Load: img(1)},
	}
	store, report, err := Build(context.Background(), entities, extractor,
		WithConcurrency(1), WithExtractTimeout(10*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, store.IDs())
	assert.Equal(t, 1, report.Count(ReasonDimensionMismatch))
	assert.Equal(t, 2, report.Count(ReasonExtractFailed))
	assert.Equal(t, 1, report.Count(ReasonUnreadable))
	assert.Equal(t, 1, report.Count(ReasonInvalid))
	assert.Equal(t, []string{"wide", "slow", "broken", "unreadable", ""}, report.SkippedIDs())
}

func TestBuild_UnavailableAborts(t *testing.T) {
	extractor := extractFunc(func(_ context.Context, img image.Image) (*face.Face, error) {
		if img.Bounds().Dx() == 2 {
			return nil, face.ErrUnavailable
		}
		return &face.Face{Embedding: []float32{1}}, nil
	})
	var entities []source.Entity
	for i, w := range []int{1, 2, 1, 1} {
		entities = append(entities, source.Entity{
			ID: string(rune('a' + i)),
			Load: func(context.Context) (image.Image, error) {
				return image.NewGray(image.Rect(0, 0, w, 1)), nil
			},
		})
	}
	store, report, err := Build(context.Background(), entities, extractor, WithConcurrency(1))
	require.Error(t, err)
	assert.ErrorIs(t, err, face.ErrUnavailable)
	require.NotNil(t, store)
	assert.True(t, store.Has("a"))
	assert.False(t, store.Has("b"))
	assert.Equal(t, []string{"a"}, report.Indexed)
	assert.Equal(t, 3, report.Count(ReasonAborted))
}

func TestBuild_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	entities := source.Images(map[string]image.Image{"a": faceImage(1, 0)})
	store, report, err := Build(ctx, entities, countingExtractor(t))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, 1, report.Count(ReasonAborted))
}

func TestBuild_IntoExistingStore(t *testing.T) {
	existing := NewStore()
	require.NoError(t, existing.Put("old", []float32{9, 9}))
	entities := source.Images(map[string]image.Image{"new": faceImage(1, 0)})
	store, _, err := Build(context.Background(), entities, countingExtractor(t), WithStore(existing))
	require.NoError(t, err)
	assert.Same(t, existing, store)
	assert.Equal(t, []string{"new", "old"}, store.IDs())
}
