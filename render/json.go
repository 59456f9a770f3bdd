package render

import (
	"context"
	"encoding/json"
	"io"

	"github.com/viant/lookalike/rank"
	"github.com/viant/lookalike/session"
)

// Entry is one ranked neighbor with its 1-based position.
type Entry struct {
	Rank     int     `json:"rank"`
	ID       string  `json:"id"`
	Distance float64 `json:"distance"`
}

// Document is the JSON form of a ranking.
type Document struct {
	Query      string  `json:"query,omitempty"`
	Neighbors  []Entry `json:"neighbors"`
	Candidates int     `json:"candidates"`
	Requested  int     `json:"requested"`
	Clamped    bool    `json:"clamped"`
}

// NewDocument converts a ranking result.
func NewDocument(r *rank.Result) Document {
	doc := Document{
		Query:      r.QueryID,
		Neighbors:  make([]Entry, len(r.Neighbors)),
		Candidates: r.Candidates,
		Requested:  r.Requested,
		Clamped:    r.Clamped,
	}
	for i, n := range r.Neighbors {
		doc.Neighbors[i] = Entry{Rank: i + 1, ID: n.ID, Distance: n.Distance}
	}
	return doc
}

// JSON writes the ranking as an indented JSON document.
type JSON struct {
	W io.Writer
}

// Render implements session.Renderer.
func (j *JSON) Render(_ context.Context, p *session.Presentation) error {
	enc := json.NewEncoder(j.W)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(p.Result))
}
