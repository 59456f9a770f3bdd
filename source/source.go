package source

import (
	"context"
	"fmt"
	"image"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register webp decoding
)

// Entity is one named subject with its raw image.
type Entity struct {
	ID   string
	Load func(ctx context.Context) (image.Image, error)
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// IsImage reports whether name has a supported image extension.
func IsImage(name string) bool {
	return imageExtensions[strings.ToLower(path.Ext(name))]
}

// Identifier derives the entity identifier from a file or object name.
func Identifier(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}

// Decode decodes an image, applying EXIF orientation.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("source: decode image: %w", err)
	}
	return img, nil
}

// Images wraps already decoded images, keyed by identifier, as entities in
// ascending identifier order.
func Images(images map[string]image.Image) []Entity {
	ids := make([]string, 0, len(images))
	for id := range images {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]Entity, 0, len(ids))
	for _, id := range ids {
		img := images[id]
		out = append(out, Entity{ID: id, Load: func(context.Context) (image.Image, error) { return img, nil }})
	}
	return out
}
