package playbook

import (
	"reflect"
	"testing"

	"github.com/docuscout/docuscout/internal/extract"
)

func TestBuildFallback_ClauseShape(t *testing.T) {
	batches := []extract.Batch{
		{Extractor: "GLiNER", Findings: []extract.Finding{
			{DocID: "doc1", Text: "GDPR", Label: "act"},
		}},
	}

	pb, err := BuildFallback(batches)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pb.Clauses) != 1 {
		t.Fatalf("expected 1 clause, got %d", len(pb.Clauses))
	}
	want := Clause{
		Name:     "GDPR",
		Type:     "Act",
		Sources:  []string{"GLiNER"},
		Contexts: []string{"Extracted from doc1"},
	}
	if !reflect.DeepEqual(pb.Clauses[0], want) {
		t.Errorf("clause mismatch:\n got %+v\nwant %+v", pb.Clauses[0], want)
	}
}

func TestBuildFallback_DedupOnNameAndType(t *testing.T) {
	batches := []extract.Batch{
		{Extractor: "GLiNER", Findings: []extract.Finding{
			{DocID: "doc1", Text: "Companies Act", Label: "act"},
			{DocID: "doc2", Text: "Companies Act", Label: "act"},
		}},
		{Extractor: "statutes", Findings: []extract.Finding{
			{DocID: "doc1", Text: "Companies Act", Label: "act"},
			{DocID: "doc1", Text: "Companies Act", Label: "section"},
		}},
	}

	pb, err := BuildFallback(batches)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Same name with the same type merges; a different type is a new clause.
	if len(pb.Clauses) != 2 {
		t.Fatalf("expected 2 clauses, got %d: %+v", len(pb.Clauses), pb.Clauses)
	}
	merged := pb.Clauses[0]
	if !reflect.DeepEqual(merged.Sources, []string{"GLiNER", "statutes"}) {
		t.Errorf("sources not merged: %v", merged.Sources)
	}
	if !reflect.DeepEqual(merged.Contexts, []string{"Extracted from doc1", "Extracted from doc2"}) {
		t.Errorf("contexts not merged: %v", merged.Contexts)
	}
}

func TestBuildFallback_EmptyLabelBecomesClause(t *testing.T) {
	batches := []extract.Batch{
		{Extractor: "retrieval", Findings: []extract.Finding{
			{DocID: "doc1", Text: "arbitration clause", Label: ""},
		}},
	}
	pb, _ := BuildFallback(batches)
	if pb.Clauses[0].Type != "Clause" {
		t.Errorf("empty label should default to Clause, got %q", pb.Clauses[0].Type)
	}
}

func TestBuildFallback_SkipsFailedBatches(t *testing.T) {
	batches := []extract.Batch{
		{Extractor: "broken", Err: "timeout", Findings: []extract.Finding{
			{DocID: "doc1", Text: "Ghost Act", Label: "act"},
		}},
	}
	pb, err := BuildFallback(batches)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pb.Empty() {
		t.Errorf("failed batches must not contribute, got %+v", pb.Clauses)
	}
}

func TestBuildFallback_NoInput(t *testing.T) {
	pb, err := BuildFallback(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pb.Empty() {
		t.Errorf("expected empty playbook, got %+v", pb)
	}
}

func TestTitleCase(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"act", "Act"},
		{"legal provision", "Legal Provision"},
		{"ACT", "ACT"},
		{"", "Clause"},
		{"  ", "Clause"},
	}
	for _, c := range cases {
		if got := titleCase(c.in); got != c.want {
			t.Errorf("titleCase(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
