package embedding

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/viant/lookalike/face"
	"github.com/viant/lookalike/source"
	"github.com/viant/lookalike/vector"
	"golang.org/x/sync/errgroup"
)

// Extractor turns one image into exactly one face, see face.Extractor.
type Extractor interface {
	Extract(ctx context.Context, img image.Image) (*face.Face, error)
}

type builder struct {
	concurrency int
	timeout     time.Duration
	logger      *slog.Logger
	crops       *face.Crops
	observer    Observer
	store       *Store
}

type outcome struct {
	face   *face.Face
	reason Reason
	err    error
}

// Build extracts one embedding per entity and inserts it into a store.
// Extraction runs concurrently; inserts happen in input order, so a later
// entity with a repeated identifier overwrites an earlier one.
//
// Per-entity failures are recorded in the report. Build returns an error only
// when the extractor is unavailable or ctx is done; the partially built store
// and report are returned together with that error.
func Build(ctx context.Context, entities []source.Entity, extractor Extractor, opts ...Option) (*Store, *Report, error) {
	b := &builder{concurrency: 4, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(b)
	}
	if b.store == nil {
		b.store = NewStore()
	}
	report := &Report{BuildID: uuid.NewString(), Started: time.Now()}
	if extractor == nil {
		return b.store, report, errors.New("embedding: extractor is nil")
	}
	logger := b.logger.With("build_id", report.BuildID)
	logger.Info("build started", "count", len(entities), "concurrency", b.concurrency)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	slots := make([]chan outcome, len(entities))
	for i := range slots {
		slots[i] = make(chan outcome, 1)
	}
	go func() {
		for i, entity := range entities {
			g.Go(func() error {
				o := b.extract(gctx, entity, extractor)
				slots[i] <- o
				if o.reason == ReasonAborted && errors.Is(o.err, face.ErrUnavailable) {
					return o.err
				}
				return nil
			})
		}
	}()

	seen := make(map[string]bool, len(entities))
	for i, entity := range entities {
		o := <-slots[i]
		if o.reason == "" {
			o = b.insert(entity.ID, o.face, seen, report)
		}
		if o.reason != "" {
			report.Skipped = append(report.Skipped, Skip{ID: entity.ID, Reason: o.reason, Err: o.err})
			logger.Debug("entity skipped", "id", entity.ID, "reason", o.reason, "error", o.err)
			b.observe(string(o.reason))
			continue
		}
		b.observe("indexed")
	}
	err := g.Wait()
	if err == nil && report.Count(ReasonAborted) > 0 {
		err = ctx.Err()
	}
	report.Duration = time.Since(report.Started)
	if b.observer != nil {
		b.observer.ObserveBuild(report.Duration, len(report.Indexed), len(report.Skipped))
	}
	if err != nil {
		logger.Error("build aborted", "indexed", len(report.Indexed), "skipped", len(report.Skipped), "error", err)
		return b.store, report, fmt.Errorf("embedding: build aborted: %w", err)
	}
	logger.Info("build finished", "indexed", len(report.Indexed), "skipped", len(report.Skipped), "duration", report.Duration)
	return b.store, report, nil
}

func (b *builder) extract(ctx context.Context, entity source.Entity, extractor Extractor) outcome {
	if entity.ID == "" || entity.Load == nil {
		return outcome{reason: ReasonInvalid, err: ErrInvalidID}
	}
	if err := ctx.Err(); err != nil {
		return outcome{reason: ReasonAborted, err: err}
	}
	img, err := entity.Load(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return outcome{reason: ReasonAborted, err: err}
		}
		return outcome{reason: ReasonUnreadable, err: err}
	}
	callCtx := ctx
	if b.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	f, err := extractor.Extract(callCtx, img)
	var multiple *face.MultipleFacesError
	switch {
	case err == nil && (f == nil || len(f.Embedding) == 0):
		return outcome{reason: ReasonNoFace, err: face.ErrNoFace}
	case err == nil:
		return outcome{face: f}
	case errors.Is(err, face.ErrNoFace):
		return outcome{reason: ReasonNoFace, err: err}
	case errors.As(err, &multiple):
		return outcome{reason: ReasonMultipleFaces, err: err}
	case errors.Is(err, face.ErrUnavailable), ctx.Err() != nil:
		return outcome{reason: ReasonAborted, err: err}
	}
	return outcome{reason: ReasonExtractFailed, err: err}
}

func (b *builder) insert(id string, f *face.Face, seen map[string]bool, report *Report) outcome {
	if err := b.store.Put(id, f.Embedding); err != nil {
		var mismatch *vector.DimensionMismatchError
		if errors.As(err, &mismatch) {
			return outcome{reason: ReasonDimensionMismatch, err: err}
		}
		return outcome{reason: ReasonInvalid, err: err}
	}
	if seen[id] {
		report.Replaced = append(report.Replaced, id)
	} else {
		seen[id] = true
		report.Indexed = append(report.Indexed, id)
	}
	if b.crops != nil {
		if f.Crop == nil {
			b.crops.Delete(id)
		} else {
			b.crops.Put(id, f.Crop)
		}
	}
	return outcome{}
}

func (b *builder) observe(outcome string) {
	if b.observer != nil {
		b.observer.ObserveEntity(outcome)
	}
}
