package source

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
)

// Dir lists image files directly under dir, sorted by file name. Files that
// share a stem ("a.jpg", "a.png") yield the same identifier; builders keep the
// later one.
func Dir(dir string) ([]Entity, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("source: read dir %q: %w", dir, err)
	}
	var out []Entity
	for _, e := range entries {
		if e.IsDir() || !IsImage(e.Name()) {
			continue
		}
		file := filepath.Join(dir, e.Name())
		out = append(out, Entity{
			ID:   Identifier(e.Name()),
			Load: func(ctx context.Context) (image.Image, error) { return openFile(ctx, file) },
		})
	}
	return out, nil
}

func openFile(ctx context.Context, file string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("source: open %q: %w", file, err)
	}
	defer f.Close()
	return Decode(f)
}
