package rank

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/viant/lookalike/index"
	"github.com/viant/lookalike/vector"
)

// Policy decides what happens when k exceeds the number of candidates.
type Policy int

const (
	// Clamp returns all candidates and sets Result.Clamped.
	Clamp Policy = iota
	// Strict fails with *InsufficientDataError.
	Strict
)

// ParsePolicy resolves "clamp" or "strict"; "" means clamp.
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "", "clamp":
		return Clamp, nil
	case "strict":
		return Strict, nil
	}
	return 0, fmt.Errorf("rank: unknown policy %q", name)
}

func (p Policy) String() string {
	if p == Strict {
		return "strict"
	}
	return "clamp"
}

// Observer receives ranking outcomes, see metrics.Collector.
type Observer interface {
	ObserveRank(duration time.Duration, outcome string, returned int)
}

// Option configures ranking.
type Option func(*options)

type options struct {
	metric   vector.Metric
	policy   Policy
	self     bool
	index    index.Kind
	observer Observer
	logger   *slog.Logger
}

func newOptions(opts []Option) *options {
	o := &options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithMetric selects the distance metric (default L2). Under MetricCosine a
// stored zero-magnitude vector has no defined distance: every scan that reaches
// it fails with an error matching vector.ErrZeroVector, so such vectors must be
// kept out of stores ranked by cosine.
func WithMetric(m vector.Metric) Option {
	return func(o *options) { o.metric = m }
}

// WithPolicy selects the clamp or strict policy.
func WithPolicy(p Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithSelf keeps the query entity as a candidate at distance 0.
func WithSelf() Option {
	return func(o *options) { o.self = true }
}

// WithIndex makes a Ranker retrieve candidates through an index of the given
// kind. Only the L2 metric is supported. Ignored by Rank and RankVector.
func WithIndex(kind index.Kind) Option {
	return func(o *options) { o.index = kind }
}

// WithObserver reports every Ranker call.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithLogger sets the Ranker logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
