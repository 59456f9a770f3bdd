package face

import (
	"context"
	"errors"
	"fmt"
	"image"
	"slices"
)

// Policy decides what happens when an image holds more than one face.
type Policy int

const (
	// SkipMultiple rejects the image with a *MultipleFacesError.
	SkipMultiple Policy = iota
	// LargestFace keeps the face with the largest bounding box; ties go to the
	// top-most, then left-most region.
	LargestFace
)

// ParsePolicy resolves "skip" or "largest".
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "", "skip":
		return SkipMultiple, nil
	case "largest":
		return LargestFace, nil
	}
	return 0, fmt.Errorf("face: unknown multiple-face policy %q", name)
}

func (p Policy) String() string {
	if p == LargestFace {
		return "largest"
	}
	return "skip"
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithPolicy sets the multiple-face policy.
func WithPolicy(p Policy) Option {
	return func(x *Extractor) { x.policy = p }
}

// Extractor turns an image into exactly one Face.
type Extractor struct {
	detector Detector
	embedder Embedder
	policy   Policy
}

// NewExtractor combines a detector with an embedder. The embedder may be nil
// when the detector returns regions that already carry embeddings.
func NewExtractor(detector Detector, embedder Embedder, opts ...Option) (*Extractor, error) {
	if detector == nil {
		return nil, errors.New("face: detector is nil")
	}
	x := &Extractor{detector: detector, embedder: embedder}
	for _, opt := range opts {
		opt(x)
	}
	return x, nil
}

// Extract detects faces in img and embeds the selected one. It returns
// ErrNoFace when nothing is detected and *MultipleFacesError when more than one
// face is found under the SkipMultiple policy.
func (x *Extractor) Extract(ctx context.Context, img image.Image) (*Face, error) {
	regions, err := x.detector.Detect(ctx, img)
	if err != nil {
		return nil, err
	}
	var region Region
	switch {
	case len(regions) == 0:
		return nil, ErrNoFace
	case len(regions) == 1:
		region = regions[0]
	case x.policy == LargestFace:
		region = largest(regions)
	default:
		return nil, &MultipleFacesError{Count: len(regions)}
	}
	if region.Crop == nil {
		region.Crop = Crop(img, region.Bounds)
	}
	embedding := region.Embedding
	if len(embedding) == 0 {
		if x.embedder == nil {
			return nil, errors.New("face: region has no embedding and no embedder is configured")
		}
		if embedding, err = x.embedder.Embed(ctx, region); err != nil {
			return nil, err
		}
	}
	if len(embedding) == 0 {
		return nil, ErrNoFace
	}
	return &Face{Bounds: region.Bounds, Crop: region.Crop, Embedding: embedding}, nil
}

func largest(regions []Region) Region {
	return slices.MaxFunc(regions, func(a, b Region) int {
		if c := a.Area() - b.Area(); c != 0 {
			return c
		}
		// MaxFunc keeps the first maximal element, so prefer smaller Y then X
		if c := b.Bounds.Min.Y - a.Bounds.Min.Y; c != 0 {
			return c
		}
		return b.Bounds.Min.X - a.Bounds.Min.X
	})
}
