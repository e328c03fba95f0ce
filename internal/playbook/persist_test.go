package playbook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/docuscout/docuscout/internal/extract"
	"github.com/docuscout/docuscout/internal/state"
)

func TestPersister_ExportWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dynamic_playbook.json")
	pb := &Playbook{Entries: []Entry{
		{DocID: "lease.pdf", Entities: []string{"Transfer of Property Act, 1882"}},
	}}

	p := NewPersister(discardLogger())
	if err := p.Export(pb, state.NewStore(), path); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	got, err := Parse(data)
	if err != nil {
		t.Fatalf("exported playbook must parse: %v", err)
	}
	if len(got.Entries) != 1 || got.Entries[0].DocID != "lease.pdf" {
		t.Errorf("unexpected entries: %+v", got.Entries)
	}
}

func TestPersister_ExportOverwritesPrior(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dynamic_playbook.json")
	p := NewPersister(discardLogger())
	store := state.NewStore()

	first := &Playbook{Entries: []Entry{{DocID: "old.pdf", Entities: []string{"Old Act"}}}}
	if err := p.Export(first, store, path); err != nil {
		t.Fatalf("first export: %v", err)
	}
	second := &Playbook{Entries: []Entry{{DocID: "new.pdf", Entities: []string{"New Act"}}}}
	if err := p.Export(second, store, path); err != nil {
		t.Fatalf("second export: %v", err)
	}

	data, _ := os.ReadFile(path)
	got, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got.Entries) != 1 || got.Entries[0].DocID != "new.pdf" {
		t.Errorf("prior content must be fully replaced, got %+v", got.Entries)
	}
}

func TestPersister_EmptyPlaybookUsesFallbackFromStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dynamic_playbook.json")
	store := state.NewStore()
	store.PutBatch(extract.Batch{Extractor: "GLiNER", Findings: []extract.Finding{
		{DocID: "doc1", Text: "GDPR", Label: "act"},
	}})

	p := NewPersister(discardLogger())
	if err := p.Export(&Playbook{}, store, path); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, _ := os.ReadFile(path)
	got, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !got.Fallback() {
		t.Fatalf("expected fallback shape, got %+v", got)
	}
	if got.Clauses[0].Name != "GDPR" {
		t.Errorf("unexpected clause: %+v", got.Clauses[0])
	}
}

func TestPersister_FailsWhenNothingToExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dynamic_playbook.json")
	p := NewPersister(discardLogger())
	if err := p.Export(&Playbook{}, state.NewStore(), path); err == nil {
		t.Fatal("expected error when playbook and store are both empty")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("failed export must not create a file")
	}
}

func TestPersister_FailedWriteLeavesPriorFileIntact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dynamic_playbook.json")
	prior := []byte(`{"playbook": [{"filename": "keep.pdf", "legal_entities": ["Keep Act"]}]}`)
	if err := os.WriteFile(path, prior, 0o644); err != nil {
		t.Fatal(err)
	}

	// Writing through a path whose parent directory does not exist fails
	// before any rename can happen.
	badPath := filepath.Join(dir, "missing", "dynamic_playbook.json")
	pb := &Playbook{Entries: []Entry{{DocID: "new.pdf", Entities: []string{"New Act"}}}}
	p := NewPersister(discardLogger())
	if err := p.Export(pb, state.NewStore(), badPath); err == nil {
		t.Fatal("expected write error")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("prior file must survive: %v", err)
	}
	if string(data) != string(prior) {
		t.Errorf("prior content changed:\n got %s\nwant %s", data, prior)
	}
}
