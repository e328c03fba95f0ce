package research

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/docuscout/docuscout/internal/atomicfile"
	"github.com/docuscout/docuscout/internal/playbook"
)

// Synthesizer converts raw lookup results into typed compliance records per
// (document, law) pair, associating each entity back to every document whose
// playbook entry contains it.
type Synthesizer struct {
	log *slog.Logger
}

func NewSynthesizer(log *slog.Logger) *Synthesizer {
	return &Synthesizer{log: log}
}

// Keywords in a trusted result that signal a recent amendment.
var amendmentKeywords = []string{
	"amend", "amendment", "notification", "revised", "revision",
	"w.e.f.", "with effect from", "substituted", "inserted", "gazette",
}

// BuildRecords derives one ComplianceRecord per (document, law) pair.
// Status is deterministic: no usable results means NotFound, amendment
// language means UpdateIdentified, anything else NoRecentAmendments.
func (s *Synthesizer) BuildRecords(pb *playbook.Playbook, lookups map[string]RawLookupResult) []DocRecords {
	byDoc := pb.EntitiesByDoc()

	docIDs := make([]string, 0, len(byDoc))
	for docID := range byDoc {
		docIDs = append(docIDs, docID)
	}
	sort.Strings(docIDs)

	var out []DocRecords
	for _, docID := range docIDs {
		dr := DocRecords{DocID: docID}
		seen := make(map[string]bool)
		for _, entity := range byDoc[docID] {
			if seen[entity] {
				continue
			}
			seen[entity] = true
			dr.Laws = append(dr.Laws, recordFor(entity, lookups[entity]))
		}
		if len(dr.Laws) > 0 {
			out = append(out, dr)
		}
	}
	return out
}

func recordFor(entity string, res RawLookupResult) ComplianceRecord {
	rec := ComplianceRecord{LawName: entity}

	if res.Failed() {
		rec.Status = StatusNotFound
		rec.Description = fmt.Sprintf("Lookup failed: %s", res.Err)
		return rec
	}
	if len(res.Results) == 0 {
		rec.Status = StatusNotFound
		rec.Description = "No recent official updates found on allowed domains."
		return rec
	}

	first := res.Results[0]
	rec.Description = truncate(first.Content, 400)
	rec.Source = first.URL
	rec.Status = StatusNoRecentAmendments

	for _, hit := range res.Results {
		if containsAmendmentLanguage(hit.Content) || containsAmendmentLanguage(hit.Title) {
			rec.Status = StatusUpdateIdentified
			rec.LatestChange = truncate(hit.Content, 400)
			rec.Source = hit.URL
			break
		}
	}
	return rec
}

func containsAmendmentLanguage(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range amendmentKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// WriteRecords persists compliance records to path with all-or-nothing
// semantics, overwriting any prior file.
func (s *Synthesizer) WriteRecords(records []DocRecords, path string) error {
	data, err := MarshalRecords(records)
	if err != nil {
		return fmt.Errorf("marshal compliance records: %w", err)
	}
	if err := atomicfile.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write compliance records: %w", err)
	}
	s.log.Info("wrote compliance records", "path", path, "documents", len(records))
	return nil
}
