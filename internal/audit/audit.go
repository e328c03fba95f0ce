// Package audit cross-references compliance research against the documents
// themselves and renders the final risk report.
package audit

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/docuscout/docuscout/internal/corpus"
	"github.com/docuscout/docuscout/internal/playbook"
	"github.com/docuscout/docuscout/internal/research"
)

// Verdict classifies a document's alignment with one law's compliance record.
type Verdict string

const (
	VerdictViolation Verdict = "Violation"
	VerdictWarning   Verdict = "Warning"
	VerdictCompliant Verdict = "Compliant"
	VerdictNotFound  Verdict = "NotFound"
)

// Finding is the atomic unit of the report: one verdict for one
// (document, law) pair with its evidence.
type Finding struct {
	DocID     string  `json:"filename"`
	LawName   string  `json:"law_name"`
	Verdict   Verdict `json:"verdict"`
	Evidence  string  `json:"evidence,omitempty"`
	Rationale string  `json:"rationale"`
	Citation  string  `json:"citation,omitempty"`
}

// DocSection groups one document's findings. Sections never interleave
// findings from different documents.
type DocSection struct {
	DocID    string    `json:"filename"`
	Findings []Finding `json:"findings"`
}

// Summary aggregates verdict counts across the report.
type Summary struct {
	Documents  int `json:"documents"`
	Laws       int `json:"laws"`
	Violations int `json:"violations"`
	Warnings   int `json:"warnings"`
	Compliant  int `json:"compliant"`
	NotFound   int `json:"not_found"`
}

// Report is the complete audit output, fully regenerated each run.
type Report struct {
	GeneratedAt time.Time    `json:"generated_at"`
	Sections    []DocSection `json:"sections"`
	Summary     Summary      `json:"summary"`
}

// Auditor performs the per-document batch cross-reference.
type Auditor struct {
	log *slog.Logger
}

func NewAuditor(log *slog.Logger) *Auditor {
	return &Auditor{log: log}
}

// Audit cross-references every compliance record against its document's
// text. Each document's text is scanned in a single pass over one shared
// buffer regardless of how many laws apply to it.
func (a *Auditor) Audit(pb *playbook.Playbook, records []research.DocRecords, c *corpus.Corpus) (*Report, error) {
	if pb.Empty() {
		return nil, fmt.Errorf("audit: empty playbook")
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("audit: no compliance records")
	}

	// Restrict to documents the playbook knows about, in stable order.
	inPlaybook := pb.EntitiesByDoc()
	byDoc := make(map[string][]research.ComplianceRecord)
	var docOrder []string
	for _, dr := range records {
		if _, ok := inPlaybook[dr.DocID]; !ok {
			continue
		}
		if _, ok := byDoc[dr.DocID]; !ok {
			docOrder = append(docOrder, dr.DocID)
		}
		byDoc[dr.DocID] = append(byDoc[dr.DocID], dr.Laws...)
	}
	sort.Strings(docOrder)

	report := &Report{GeneratedAt: time.Now()}
	for _, docID := range docOrder {
		section := a.auditDocument(docID, byDoc[docID], c.Get(docID))
		report.Sections = append(report.Sections, section)
	}

	report.Summary = summarize(report.Sections)
	return report, nil
}

// auditDocument scans one document's full text once and classifies every
// applicable law against it.
func (a *Auditor) auditDocument(docID string, laws []research.ComplianceRecord, doc *corpus.Document) DocSection {
	section := DocSection{DocID: docID}

	var text, lower string
	if doc != nil {
		text = doc.FullText()
		lower = lowerASCII(text)
	}

	for _, rec := range laws {
		f := Finding{DocID: docID, LawName: rec.LawName, Citation: rec.Source}

		if doc == nil {
			f.Verdict = VerdictNotFound
			f.Rationale = "Document text unavailable; unable to verify."
			section.Findings = append(section.Findings, f)
			continue
		}

		idx := strings.Index(lower, lowerASCII(rec.LawName))
		if idx < 0 {
			f.Verdict = VerdictNotFound
			f.Rationale = fmt.Sprintf("%q is not mentioned in the document text.", rec.LawName)
			section.Findings = append(section.Findings, f)
			continue
		}

		f.Evidence = Window(text, idx, len(rec.LawName))
		f.Verdict, f.Rationale = classify(rec, f.Evidence)
		section.Findings = append(section.Findings, f)
	}
	return section
}

// lowerASCII lowercases ASCII letters only. Unlike strings.ToLower it never
// changes byte lengths (some Unicode case folds do, e.g. U+0130), so indexes
// found in the lowered buffer remain valid offsets into the original text.
func lowerASCII(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}

// classify applies the verdict policy for a law found in the document text.
func classify(rec research.ComplianceRecord, evidence string) (Verdict, string) {
	switch rec.Status {
	case research.StatusNoRecentAmendments:
		if contradicted, why := DetectContradiction(evidence, rec.LatestChange); contradicted {
			return VerdictViolation, why
		}
		return VerdictCompliant, "Law referenced in the document; no recent amendments require changes."
	case research.StatusUpdateIdentified:
		if contradicted, why := DetectContradiction(evidence, rec.LatestChange); contradicted {
			return VerdictViolation, why
		}
		return VerdictWarning, "A recent amendment was identified; the referencing clause should be reviewed."
	default:
		// Lookup produced nothing authoritative for this law.
		return VerdictNotFound, "No authoritative source data available; unable to assess compliance."
	}
}

func summarize(sections []DocSection) Summary {
	s := Summary{Documents: len(sections)}
	for _, sec := range sections {
		for _, f := range sec.Findings {
			s.Laws++
			switch f.Verdict {
			case VerdictViolation:
				s.Violations++
			case VerdictWarning:
				s.Warnings++
			case VerdictCompliant:
				s.Compliant++
			case VerdictNotFound:
				s.NotFound++
			}
		}
	}
	return s
}
