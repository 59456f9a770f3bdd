package rank

// Neighbor is one ranked entity.
type Neighbor struct {
	ID       string  `json:"id"`
	Distance float64 `json:"distance"`
}

// Result is an ordered ranking.
type Result struct {
	// QueryID is empty for RankVector results.
	QueryID   string     `json:"query,omitempty"`
	Neighbors []Neighbor `json:"neighbors"`
	// Candidates is the number of entities compared against the query.
	Candidates int `json:"candidates"`
	Requested  int `json:"requested"`
	// Clamped is set when fewer than Requested neighbors were returned.
	Clamped bool `json:"clamped,omitempty"`
}

// IDs returns the neighbor identifiers in rank order.
func (r *Result) IDs() []string {
	out := make([]string, len(r.Neighbors))
	for i, n := range r.Neighbors {
		out[i] = n.ID
	}
	return out
}
