package playbook

import (
	"fmt"
	"log/slog"

	"github.com/docuscout/docuscout/internal/atomicfile"
	"github.com/docuscout/docuscout/internal/state"
)

// Persister serializes the playbook to durable storage. Writes are
// all-or-nothing: a failed write leaves any prior file untouched.
type Persister struct {
	log *slog.Logger
}

func NewPersister(log *slog.Logger) *Persister {
	return &Persister{log: log}
}

// Export writes the playbook to path. When no usable playbook is supplied it
// builds the fallback representation from the store's raw batches once
// before failing permanently.
func (p *Persister) Export(pb *Playbook, store *state.Store, path string) error {
	if pb.Empty() {
		p.log.Warn("no playbook to export, trying fallback builder")
		fallback, err := BuildFallback(store.Batches())
		if err != nil {
			return fmt.Errorf("export: no playbook and fallback builder failed: %w", err)
		}
		if fallback.Empty() {
			return fmt.Errorf("export: no playbook available and fallback is empty")
		}
		pb = fallback
	}

	data, err := pb.Marshal()
	if err != nil {
		return fmt.Errorf("export: marshal playbook: %w", err)
	}
	if err := atomicfile.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("export playbook: %w", err)
	}
	p.log.Info("exported playbook", "path", path,
		"entries", len(pb.Entries), "clauses", len(pb.Clauses))
	return nil
}
