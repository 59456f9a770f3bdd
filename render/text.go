package render

import (
	"context"
	"fmt"
	"io"

	"github.com/viant/lookalike/session"
)

// Text writes one line per neighbor: "rank N: ID (distance D)".
type Text struct {
	W io.Writer
}

// Render implements session.Renderer.
func (t *Text) Render(_ context.Context, p *session.Presentation) error {
	if _, err := fmt.Fprintf(t.W, "query: %s (%d candidates)\n", p.Query, p.Result.Candidates); err != nil {
		return err
	}
	for i, n := range p.Result.Neighbors {
		if _, err := fmt.Fprintf(t.W, "rank %d: %s (distance %.6f)\n", i+1, n.ID, n.Distance); err != nil {
			return err
		}
	}
	if p.Result.Clamped && len(p.Result.Neighbors) < p.Result.Requested {
		if _, err := fmt.Fprintf(t.W, "only %d of %d requested neighbors available\n", len(p.Result.Neighbors), p.Result.Requested); err != nil {
			return err
		}
	}
	return nil
}
