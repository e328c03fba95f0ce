// Package state holds the run-scoped shared store that pipeline stages
// communicate through. Keys are stage-scoped strings ("clausehunter:gliner",
// "clausehunter:playbook"); each key has exactly one logical writer per run
// and is read-only once written.
package state

import (
	"sort"
	"strings"
	"sync"

	"github.com/docuscout/docuscout/internal/extract"
)

// Key prefix mirrors the pipeline stage that owns extraction batches.
const extractionPrefix = "clausehunter:"

// Store is the shared extraction store for one pipeline run.
type Store struct {
	mu      sync.Mutex
	batches map[string]extract.Batch
	// playbook holds the serialized canonical playbook for reuse within the
	// run; the typed value lives with its owner in the playbook package.
	playbook []byte
}

func NewStore() *Store {
	return &Store{batches: make(map[string]extract.Batch)}
}

// PutBatch records one extractor's complete output under its own key.
// The harvester is the sole caller.
func (s *Store) PutBatch(b extract.Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[extractionPrefix+strings.ToLower(b.Extractor)] = b
}

// Batch returns the batch stored under the given extractor name.
func (s *Store) Batch(extractor string) (extract.Batch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.batches[extractionPrefix+strings.ToLower(extractor)]
	return b, ok
}

// Batches returns all stored batches ordered by key, so the aggregator sees
// a stable view regardless of extractor completion order.
func (s *Store) Batches() []extract.Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.batches))
	for k := range s.batches {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]extract.Batch, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.batches[k])
	}
	return out
}

// PutPlaybook mirrors the serialized playbook into the store for reuse
// within the same run. The aggregator is the sole caller.
func (s *Store) PutPlaybook(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playbook = data
}

// Playbook returns the mirrored playbook bytes, or nil if unset.
func (s *Store) Playbook() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playbook
}
