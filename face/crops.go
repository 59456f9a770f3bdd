package face

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
)

// Crops keeps the cropped face image of every indexed identifier so results
// can be rendered next to each other. It is safe for concurrent use.
type Crops struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewCrops returns an empty crop set.
func NewCrops() *Crops {
	return &Crops{images: make(map[string]image.Image)}
}

// Put records the crop for id, replacing any previous one.
func (c *Crops) Put(id string, img image.Image) {
	if img == nil {
		return
	}
	c.mu.Lock()
	c.images[id] = img
	c.mu.Unlock()
}

// Crop returns the crop recorded for id.
func (c *Crops) Crop(id string) (image.Image, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	img, ok := c.images[id]
	return img, ok
}

// Delete drops the crop for id.
func (c *Crops) Delete(id string) {
	c.mu.Lock()
	delete(c.images, id)
	c.mu.Unlock()
}

// Len returns the number of crops.
func (c *Crops) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// IDs returns the identifiers with a crop in sorted order.
func (c *Crops) IDs() []string {
	c.mu.RLock()
	ids := make([]string, 0, len(c.images))
	for id := range c.images {
		ids = append(ids, id)
	}
	c.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Save writes every crop as <dir>/<id>.png.
func (c *Crops) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("face: create crops dir: %w", err)
	}
	for _, id := range c.IDs() {
		img, _ := c.Crop(id)
		if err := imaging.Save(img, filepath.Join(dir, id+".png")); err != nil {
			return fmt.Errorf("face: save crop %q: %w", id, err)
		}
	}
	return nil
}

// LoadCrops reads the PNG files written by Save.
func LoadCrops(dir string) (*Crops, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("face: read crops dir: %w", err)
	}
	c := NewCrops()
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.EqualFold(filepath.Ext(name), ".png") {
			continue
		}
		img, err := imaging.Open(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("face: open crop %q: %w", name, err)
		}
		c.Put(strings.TrimSuffix(name, filepath.Ext(name)), img)
	}
	return c, nil
}
