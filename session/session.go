// Package session runs one lookalike query end to end: it ranks the query
// entity, resolves the cropped face of every entity involved and hands both
// to a renderer.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/viant/lookalike/rank"
)

// DefaultK is the number of neighbors shown when none is requested.
const DefaultK = 3

// Ranker ranks stored entities, see rank.Ranker.
type Ranker interface {
	Rank(queryID string, k int) (*rank.Result, error)
}

// CropSource resolves the cropped face of an entity, see face.Crops.
type CropSource interface {
	Crop(id string) (image.Image, bool)
}

// Presentation is everything a renderer needs for one query.
type Presentation struct {
	Query      string
	QueryImage image.Image
	Result     *rank.Result
	// Images holds the crops of ranked neighbors; entities without a crop
	// are absent.
	Images map[string]image.Image
}

// Image returns the crop for id, the query included.
func (p *Presentation) Image(id string) image.Image {
	if id == p.Query {
		return p.QueryImage
	}
	return p.Images[id]
}

// Renderer presents a ranking.
type Renderer interface {
	Render(ctx context.Context, p *Presentation) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, p *Presentation) error

// Render calls f(ctx, p).
func (f RendererFunc) Render(ctx context.Context, p *Presentation) error {
	return f(ctx, p)
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Session binds a ranker, a crop source and a renderer.
type Session struct {
	ranker   Ranker
	crops    CropSource
	renderer Renderer
	logger   *slog.Logger
}

// New creates a Session. crops may be nil when no images are available.
func New(ranker Ranker, crops CropSource, renderer Renderer, opts ...Option) (*Session, error) {
	if ranker == nil {
		return nil, errors.New("session: ranker is nil")
	}
	if renderer == nil {
		return nil, errors.New("session: renderer is nil")
	}
	s := &Session{ranker: ranker, crops: crops, renderer: renderer, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Query ranks the k entities nearest to id and renders the result. k <= 0
// selects DefaultK. Ranking errors are returned unchanged.
func (s *Session) Query(ctx context.Context, id string, k int) (*Presentation, error) {
	if k <= 0 {
		k = DefaultK
	}
	result, err := s.ranker.Rank(id, k)
	if err != nil {
		return nil, err
	}
	p := &Presentation{Query: id, Result: result, Images: make(map[string]image.Image, len(result.Neighbors))}
	if s.crops != nil {
		p.QueryImage, _ = s.crops.Crop(id)
		for _, n := range result.Neighbors {
			if img, ok := s.crops.Crop(n.ID); ok {
				p.Images[n.ID] = img
			}
		}
	}
	if missing := len(result.Neighbors) - len(p.Images); missing > 0 {
		s.logger.Debug("crops missing", "id", id, "count", missing)
	}
	if err := s.renderer.Render(ctx, p); err != nil {
		return p, fmt.Errorf("session: render %q: %w", id, err)
	}
	return p, nil
}
