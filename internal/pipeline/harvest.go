package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/docuscout/docuscout/internal/corpus"
	"github.com/docuscout/docuscout/internal/extract"
	"github.com/docuscout/docuscout/internal/state"
)

// Harvester runs every registered extractor concurrently over the same
// corpus and writes each outcome into the shared extraction store. It is a
// barrier, not a race: it returns only once all extractors have completed or
// failed, and one extractor's failure never cancels the others.
type Harvester struct {
	perExtractor time.Duration // 0 means no per-extractor timeout
	log          *slog.Logger
}

func NewHarvester(perExtractor time.Duration, log *slog.Logger) *Harvester {
	return &Harvester{perExtractor: perExtractor, log: log}
}

// Run dispatches all extractors and joins them. The store is fully populated
// when Run returns; a failed extractor contributes an error-marked batch
// under its own key rather than aborting the run.
func (h *Harvester) Run(ctx context.Context, c *corpus.Corpus, extractors []extract.Extractor, store *state.Store) {
	results := make(chan extract.Batch, len(extractors))

	for _, ex := range extractors {
		go func(ex extract.Extractor) {
			results <- h.runOne(ctx, ex, c)
		}(ex)
	}

	for range extractors {
		batch := <-results
		if batch.Failed() {
			h.log.Error("extractor failed", "extractor", batch.Extractor, "error", batch.Err)
		} else {
			h.log.Info("extractor finished", "extractor", batch.Extractor, "findings", len(batch.Findings))
		}
		store.PutBatch(batch)
	}
}

// runOne isolates a single extractor: panics and errors both degrade to an
// error-marked batch.
func (h *Harvester) runOne(ctx context.Context, ex extract.Extractor, c *corpus.Corpus) (batch extract.Batch) {
	defer func() {
		if r := recover(); r != nil {
			batch = extract.Batch{Extractor: ex.Name(), Err: fmt.Sprintf("panic: %v", r)}
		}
	}()

	runCtx := ctx
	if h.perExtractor > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, h.perExtractor)
		defer cancel()
	}

	b, err := ex.Extract(runCtx, c)
	b.Extractor = ex.Name()
	if err != nil && b.Err == "" {
		b.Err = err.Error()
	}
	return b
}
