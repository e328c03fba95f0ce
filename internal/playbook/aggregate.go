package playbook

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/docuscout/docuscout/internal/extract"
	"github.com/docuscout/docuscout/internal/state"
)

// Strategy merges raw extraction batches into a canonical playbook. The
// deterministic merge below is the reproducible baseline; a semantic
// synthesis strategy may be layered on top and is always validated against
// the raw findings before being trusted.
type Strategy interface {
	Name() string
	Merge(batches []extract.Batch) (*Playbook, error)
}

// Aggregator builds the canonical playbook from the shared extraction store.
type Aggregator struct {
	synthesis Strategy // optional; nil means deterministic merge only
	log       *slog.Logger
}

func NewAggregator(synthesis Strategy, log *slog.Logger) *Aggregator {
	return &Aggregator{synthesis: synthesis, log: log}
}

// BuildPlaybook reads all batches from the store, merges them, and mirrors
// the result back into the store for reuse within the run. If no merge path
// yields a non-empty playbook, the fallback builder runs; only when that too
// produces nothing is an error returned.
func (a *Aggregator) BuildPlaybook(store *state.Store) (*Playbook, error) {
	batches := store.Batches()

	pb := a.merge(batches)
	if pb.Empty() {
		a.log.Warn("primary merge produced no playbook, building fallback")
		fallback, err := BuildFallback(batches)
		if err != nil {
			return nil, fmt.Errorf("aggregation failed and fallback builder errored: %w", err)
		}
		pb = fallback
	}
	if pb.Empty() {
		return nil, fmt.Errorf("aggregation produced no playbook: no extractor yielded findings")
	}

	if data, err := pb.Marshal(); err == nil {
		store.PutPlaybook(data)
	}
	return pb, nil
}

// merge runs the synthesis strategy when configured, falling back to the
// deterministic baseline on any failure or validation miss.
func (a *Aggregator) merge(batches []extract.Batch) *Playbook {
	if a.synthesis != nil {
		pb, err := a.synthesis.Merge(batches)
		if err != nil {
			a.log.Warn("synthesis merge failed, using deterministic merge",
				"strategy", a.synthesis.Name(), "error", err)
		} else {
			pb = filterTraceable(pb, batches)
			if !pb.Empty() {
				return pb
			}
			a.log.Warn("synthesis merge yielded nothing traceable, using deterministic merge",
				"strategy", a.synthesis.Name())
		}
	}
	det := DeterministicMerge{}
	pb, _ := det.Merge(batches)
	return pb
}

// DeterministicMerge is the reproducible baseline merge: collect, normalize,
// deduplicate per document, drop labels.
type DeterministicMerge struct{}

func (DeterministicMerge) Name() string { return "deterministic" }

func (DeterministicMerge) Merge(batches []extract.Batch) (*Playbook, error) {
	// Entity sets per document, exact case-sensitive dedup.
	byDoc := make(map[string]map[string]bool)
	var docOrder []string

	for _, b := range batches {
		if b.Failed() {
			continue
		}
		for _, f := range b.Findings {
			text := strings.TrimSpace(f.Text)
			if text == "" {
				continue
			}
			set, ok := byDoc[f.DocID]
			if !ok {
				set = make(map[string]bool)
				byDoc[f.DocID] = set
				docOrder = append(docOrder, f.DocID)
			}
			set[text] = true
		}
	}
	sort.Strings(docOrder)

	pb := &Playbook{}
	for _, docID := range docOrder {
		set := byDoc[docID]
		if len(set) == 0 {
			// Documents with zero surviving entities are omitted entirely.
			continue
		}
		entities := make([]string, 0, len(set))
		for name := range set {
			entities = append(entities, name)
		}
		sort.Strings(entities)
		pb.Entries = append(pb.Entries, Entry{DocID: docID, Entities: entities})
	}
	return pb, nil
}

// filterTraceable discards synthesized entities that do not match any raw
// finding text, guarding against fabricated entries. Entries left empty are
// dropped with their document.
func filterTraceable(pb *Playbook, batches []extract.Batch) *Playbook {
	if pb == nil {
		return &Playbook{}
	}
	known := make(map[string]bool)
	for _, b := range batches {
		if b.Failed() {
			continue
		}
		for _, f := range b.Findings {
			known[strings.TrimSpace(f.Text)] = true
		}
	}

	out := &Playbook{}
	for _, e := range pb.Entries {
		var kept []string
		seen := make(map[string]bool)
		for _, name := range e.Entities {
			name = strings.TrimSpace(name)
			if !known[name] || seen[name] {
				continue
			}
			seen[name] = true
			kept = append(kept, name)
		}
		if len(kept) > 0 {
			out.Entries = append(out.Entries, Entry{DocID: e.DocID, Entities: kept})
		}
	}
	return out
}
