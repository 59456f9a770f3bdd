package embedding

import (
	"log/slog"
	"time"

	"github.com/viant/lookalike/face"
)

// Observer receives build progress, see metrics.Collector.
type Observer interface {
	ObserveEntity(outcome string)
	ObserveBuild(duration time.Duration, indexed, skipped int)
}

// Option configures Build.
type Option func(*builder)

// WithConcurrency sets the number of concurrent extractions (default 4).
func WithConcurrency(n int) Option {
	return func(b *builder) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithExtractTimeout bounds every extractor call; zero disables the limit.
func WithExtractTimeout(d time.Duration) Option {
	return func(b *builder) { b.timeout = d }
}

// WithLogger sets the build logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithCrops records the cropped face of every indexed entity.
func WithCrops(crops *face.Crops) Option {
	return func(b *builder) { b.crops = crops }
}

// WithObserver reports per-entity outcomes and build totals.
func WithObserver(o Observer) Option {
	return func(b *builder) { b.observer = o }
}

// WithStore builds into an existing store instead of a new one.
func WithStore(s *Store) Option {
	return func(b *builder) { b.store = s }
}
