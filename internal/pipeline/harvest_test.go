package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/docuscout/docuscout/internal/corpus"
	"github.com/docuscout/docuscout/internal/extract"
	"github.com/docuscout/docuscout/internal/state"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeExtractor returns canned findings, an error, or panics.
type fakeExtractor struct {
	name     string
	findings []extract.Finding
	err      error
	panics   bool
	delay    time.Duration
}

func (f *fakeExtractor) Name() string { return f.name }

func (f *fakeExtractor) Extract(ctx context.Context, c *corpus.Corpus) (extract.Batch, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return extract.Batch{Extractor: f.name}, ctx.Err()
		}
	}
	if f.panics {
		panic("extractor blew up")
	}
	if f.err != nil {
		return extract.Batch{Extractor: f.name}, f.err
	}
	return extract.Batch{Extractor: f.name, Findings: f.findings}, nil
}

func TestHarvester_AllBatchesStored(t *testing.T) {
	extractors := []extract.Extractor{
		&fakeExtractor{name: "alpha", findings: []extract.Finding{
			{DocID: "a.pdf", Text: "Act A", Label: "act"},
		}},
		&fakeExtractor{name: "beta", findings: []extract.Finding{
			{DocID: "a.pdf", Text: "Act B", Label: "act"},
		}},
		&fakeExtractor{name: "gamma"},
	}

	store := state.NewStore()
	h := NewHarvester(0, discardLogger())
	h.Run(context.Background(), corpus.New(), extractors, store)

	if got := len(store.Batches()); got != 3 {
		t.Fatalf("expected 3 batches after barrier, got %d", got)
	}
	for _, name := range []string{"alpha", "beta", "gamma"} {
		if _, ok := store.Batch(name); !ok {
			t.Errorf("missing batch for %s", name)
		}
	}
}

func TestHarvester_FailureIsolated(t *testing.T) {
	extractors := []extract.Extractor{
		&fakeExtractor{name: "ok", findings: []extract.Finding{
			{DocID: "a.pdf", Text: "Act A", Label: "act"},
		}},
		&fakeExtractor{name: "broken", err: errors.New("model unavailable")},
	}

	store := state.NewStore()
	NewHarvester(0, discardLogger()).Run(context.Background(), corpus.New(), extractors, store)

	broken, _ := store.Batch("broken")
	if !broken.Failed() {
		t.Error("failing extractor must produce an error-marked batch")
	}
	good, _ := store.Batch("ok")
	if good.Failed() || len(good.Findings) != 1 {
		t.Errorf("sibling extractor must be unaffected: %+v", good)
	}
}

func TestHarvester_PanicDegradesToErrorBatch(t *testing.T) {
	extractors := []extract.Extractor{
		&fakeExtractor{name: "panicky", panics: true},
		&fakeExtractor{name: "steady"},
	}

	store := state.NewStore()
	NewHarvester(0, discardLogger()).Run(context.Background(), corpus.New(), extractors, store)

	panicked, ok := store.Batch("panicky")
	if !ok || !panicked.Failed() {
		t.Fatalf("panicking extractor must still leave a batch: %+v", panicked)
	}
	if steady, _ := store.Batch("steady"); steady.Failed() {
		t.Error("panic must not take down siblings")
	}
}

func TestHarvester_PerExtractorTimeout(t *testing.T) {
	extractors := []extract.Extractor{
		&fakeExtractor{name: "slow", delay: 500 * time.Millisecond},
		&fakeExtractor{name: "fast"},
	}

	store := state.NewStore()
	NewHarvester(20*time.Millisecond, discardLogger()).Run(context.Background(), corpus.New(), extractors, store)

	slow, _ := store.Batch("slow")
	if !slow.Failed() {
		t.Error("timed-out extractor must be error-marked")
	}
	if fast, _ := store.Batch("fast"); fast.Failed() {
		t.Error("timeout applies per extractor, not to the run")
	}
}
