package face

import (
	"context"
	"image"

	"github.com/disintegration/imaging"
)

// Region is one detected face.
type Region struct {
	// Bounds locates the face in the source image.
	Bounds image.Rectangle
	// Crop is the face cut out of the source image; detectors may leave it nil.
	Crop image.Image
	// Embedding is set by detectors that compute the feature vector together
	// with the location (typical for remote face services).
	Embedding []float32
}

// Area returns the pixel area of the region bounds.
func (r Region) Area() int {
	return r.Bounds.Dx() * r.Bounds.Dy()
}

// Face is the outcome of a successful extraction.
type Face struct {
	Bounds    image.Rectangle
	Crop      image.Image
	Embedding []float32
}

// Detector locates faces in an image.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]Region, error)
}

// Embedder converts one cropped face region into a feature vector.
type Embedder interface {
	Embed(ctx context.Context, region Region) ([]float32, error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(ctx context.Context, img image.Image) ([]Region, error)

// Detect calls f(ctx, img).
func (f DetectorFunc) Detect(ctx context.Context, img image.Image) ([]Region, error) {
	return f(ctx, img)
}

// EmbedderFunc adapts a function to the Embedder interface. Implementations
// can call any embedding provider as long as they return float32 values.
type EmbedderFunc func(ctx context.Context, region Region) ([]float32, error)

// Embed calls f(ctx, region).
func (f EmbedderFunc) Embed(ctx context.Context, region Region) ([]float32, error) {
	return f(ctx, region)
}

// Crop cuts bounds out of img. The result is a copy with its origin at (0,0);
// nil is returned when bounds do not overlap the image.
func Crop(img image.Image, bounds image.Rectangle) image.Image {
	if img == nil {
		return nil
	}
	r := bounds.Intersect(img.Bounds())
	if r.Empty() {
		return nil
	}
	return imaging.Crop(img, r)
}
