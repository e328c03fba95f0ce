package extract

import (
	"context"
	"strings"

	"github.com/docuscout/docuscout/internal/corpus"
)

// Finding is one labeled span or entity attributed to one document by one
// extractor. Label is a free-form category tag ("statute", "act", "insight").
type Finding struct {
	DocID      string  `json:"doc_id"`
	Text       string  `json:"text"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Batch is the complete output of one extractor across all documents in one
// harvest run. A failed extractor produces a Batch with Err set and no
// findings; the batch is immutable once written to the shared store.
type Batch struct {
	Extractor string    `json:"extractor"`
	Findings  []Finding `json:"findings"`
	Err       string    `json:"error,omitempty"`
}

// Failed reports whether the extractor that produced this batch failed.
func (b Batch) Failed() bool {
	return b.Err != ""
}

// Extractor produces typed findings from a document corpus. Implementations
// adapt their native output into the Finding shape at this boundary so the
// aggregator never branches on raw shapes.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, c *corpus.Corpus) (Batch, error)
}

// ValidateFinding checks a finding for validity, trimming its text in place.
// Returns false for findings that should be dropped.
func ValidateFinding(f *Finding) bool {
	if f == nil {
		return false
	}
	f.Text = strings.TrimSpace(f.Text)
	if len(f.Text) < 2 || len(f.Text) > 300 {
		return false
	}
	if f.DocID == "" {
		return false
	}
	if f.Confidence < 0 {
		f.Confidence = 0
	}
	if f.Confidence > 1 {
		f.Confidence = 1
	}
	return true
}
