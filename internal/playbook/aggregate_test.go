package playbook

import (
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/docuscout/docuscout/internal/extract"
	"github.com/docuscout/docuscout/internal/state"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDeterministicMerge_DedupAcrossExtractors(t *testing.T) {
	batches := []extract.Batch{
		{Extractor: "statutes", Findings: []extract.Finding{
			{DocID: "doc1.pdf", Text: "Act A", Label: "act"},
			{DocID: "doc1.pdf", Text: "Act B", Label: "act"},
		}},
		{Extractor: "GLiNER", Findings: []extract.Finding{
			{DocID: "doc1.pdf", Text: "Act A", Label: "statute"},
		}},
	}

	pb, err := DeterministicMerge{}.Merge(batches)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pb.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(pb.Entries))
	}
	got := pb.Entries[0].Entities
	if len(got) != 2 || got[0] != "Act A" || got[1] != "Act B" {
		t.Errorf("expected [Act A, Act B], got %v", got)
	}
}

func TestDeterministicMerge_DedupIsCaseSensitive(t *testing.T) {
	batches := []extract.Batch{
		{Extractor: "statutes", Findings: []extract.Finding{
			{DocID: "doc1.pdf", Text: "GDPR", Label: "act"},
			{DocID: "doc1.pdf", Text: "gdpr", Label: "act"},
		}},
	}
	pb, _ := DeterministicMerge{}.Merge(batches)
	if len(pb.Entries[0].Entities) != 2 {
		t.Errorf("case-differing entities must both survive, got %v", pb.Entries[0].Entities)
	}
}

func TestDeterministicMerge_OmitsDocumentsWithoutFindings(t *testing.T) {
	// doc2 appears in no finding: no entry may exist for it, not even empty.
	batches := []extract.Batch{
		{Extractor: "statutes", Findings: []extract.Finding{
			{DocID: "doc1.pdf", Text: "Minimum Wages Act", Label: "act"},
		}},
		{Extractor: "GLiNER"},
	}
	pb, _ := DeterministicMerge{}.Merge(batches)
	if len(pb.Entries) != 1 {
		t.Fatalf("expected exactly 1 entry, got %d", len(pb.Entries))
	}
	if pb.Entries[0].DocID != "doc1.pdf" {
		t.Errorf("unexpected entry for %q", pb.Entries[0].DocID)
	}
}

func TestDeterministicMerge_SkipsFailedBatches(t *testing.T) {
	batches := []extract.Batch{
		{Extractor: "ok", Findings: []extract.Finding{
			{DocID: "doc1.pdf", Text: "Companies Act", Label: "act"},
		}},
		{Extractor: "broken", Err: "service unavailable", Findings: []extract.Finding{
			{DocID: "doc9.pdf", Text: "Ghost Act", Label: "act"},
		}},
	}
	pb, _ := DeterministicMerge{}.Merge(batches)
	if len(pb.Entries) != 1 || pb.Entries[0].DocID != "doc1.pdf" {
		t.Fatalf("failed batch must not contribute, got %+v", pb.Entries)
	}
}

func TestDeterministicMerge_TrimsWhitespace(t *testing.T) {
	batches := []extract.Batch{
		{Extractor: "statutes", Findings: []extract.Finding{
			{DocID: "doc1.pdf", Text: "  Contract Act ", Label: "act"},
			{DocID: "doc1.pdf", Text: "Contract Act", Label: "statute"},
		}},
	}
	pb, _ := DeterministicMerge{}.Merge(batches)
	if len(pb.Entries[0].Entities) != 1 {
		t.Errorf("trimmed duplicates must merge, got %v", pb.Entries[0].Entities)
	}
}

func TestBuildPlaybook_DeterministicMergeIsPrimaryPath(t *testing.T) {
	store := state.NewStore()
	store.PutBatch(extract.Batch{Extractor: "GLiNER", Findings: []extract.Finding{
		{DocID: "doc1", Text: "GDPR", Label: "act"},
	}})

	agg := NewAggregator(nil, discardLogger())
	pb, err := agg.BuildPlaybook(store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pb.Fallback() {
		t.Fatal("deterministic merge should have succeeded without fallback")
	}
}

func TestBuildPlaybook_ErrorsWhenNothingAnywhere(t *testing.T) {
	store := state.NewStore()
	store.PutBatch(extract.Batch{Extractor: "GLiNER"})
	store.PutBatch(extract.Batch{Extractor: "statutes", Err: "boom"})

	agg := NewAggregator(nil, discardLogger())
	if _, err := agg.BuildPlaybook(store); err == nil {
		t.Fatal("expected error when no extractor produced findings")
	}
}

func TestBuildPlaybook_MirrorsPlaybookIntoStore(t *testing.T) {
	store := state.NewStore()
	store.PutBatch(extract.Batch{Extractor: "statutes", Findings: []extract.Finding{
		{DocID: "doc1.pdf", Text: "ESI Act", Label: "act"},
	}})

	agg := NewAggregator(nil, discardLogger())
	if _, err := agg.BuildPlaybook(store); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data := store.Playbook()
	if len(data) == 0 {
		t.Fatal("expected serialized playbook mirrored into store")
	}
	if _, err := Parse(data); err != nil {
		t.Errorf("mirrored playbook must parse: %v", err)
	}
}

// fabricatingStrategy returns entities that no extractor ever produced.
type fabricatingStrategy struct{}

func (fabricatingStrategy) Name() string { return "fabricating" }
func (fabricatingStrategy) Merge(batches []extract.Batch) (*Playbook, error) {
	return &Playbook{Entries: []Entry{
		{DocID: "doc1.pdf", Entities: []string{"Invented Act", "Minimum Wages Act"}},
	}}, nil
}

func TestBuildPlaybook_DiscardsUntraceableSynthesizedEntities(t *testing.T) {
	store := state.NewStore()
	store.PutBatch(extract.Batch{Extractor: "statutes", Findings: []extract.Finding{
		{DocID: "doc1.pdf", Text: "Minimum Wages Act", Label: "act"},
	}})

	agg := NewAggregator(fabricatingStrategy{}, discardLogger())
	pb, err := agg.BuildPlaybook(store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ents := pb.Entries[0].Entities
	if len(ents) != 1 || ents[0] != "Minimum Wages Act" {
		t.Errorf("fabricated entity must be discarded, got %v", ents)
	}
}

// failingStrategy always errors, forcing the deterministic baseline.
type failingStrategy struct{}

func (failingStrategy) Name() string { return "failing" }
func (failingStrategy) Merge(batches []extract.Batch) (*Playbook, error) {
	return nil, fmt.Errorf("synthesis unavailable")
}

func TestBuildPlaybook_SynthesisFailureFallsBackToDeterministic(t *testing.T) {
	store := state.NewStore()
	store.PutBatch(extract.Batch{Extractor: "statutes", Findings: []extract.Finding{
		{DocID: "doc1.pdf", Text: "Income Tax Act", Label: "act"},
	}})

	agg := NewAggregator(failingStrategy{}, discardLogger())
	pb, err := agg.BuildPlaybook(store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pb.Fallback() || len(pb.Entries) != 1 {
		t.Fatalf("expected deterministic entries, got %+v", pb)
	}
}
