package pipeline

import (
	"sync"
	"time"
)

// RunStatus represents the state of a pipeline run.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// RunKind distinguishes the two separately-triggered pipeline halves.
type RunKind string

const (
	KindIngest RunKind = "ingest" // harvest -> aggregate -> persist
	KindAudit  RunKind = "audit"  // research -> audit
)

// Run tracks the state of a single pipeline run.
type Run struct {
	mu sync.Mutex

	ID   string  `json:"run_id"`
	Kind RunKind `json:"kind"`

	Status RunStatus `json:"status"`
	Phase  string    `json:"phase"`
	Error  string    `json:"error,omitempty"`

	Documents int  `json:"documents"`
	Entities  int  `json:"entities"`
	Fallback  bool `json:"fallback"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SetPhase updates the run's phase atomically.
func (r *Run) SetPhase(phase string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Phase = phase
	r.UpdatedAt = time.Now()
}

// Complete marks the run finished.
func (r *Run) Complete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = StatusCompleted
	r.Phase = "done"
	r.UpdatedAt = time.Now()
}

// Fail marks the run failed with a stage-labeled error message.
func (r *Run) Fail(stage string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = StatusFailed
	r.Phase = stage
	r.Error = stage + ": " + err.Error()
	r.UpdatedAt = time.Now()
}

// SetCounts records document/entity totals.
func (r *Run) SetCounts(documents, entities int, fallback bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Documents = documents
	r.Entities = entities
	r.Fallback = fallback
	r.UpdatedAt = time.Now()
}

// RunSnapshot is a read-only, JSON-safe copy of run state.
type RunSnapshot struct {
	ID        string    `json:"run_id"`
	Kind      RunKind   `json:"kind"`
	Status    RunStatus `json:"status"`
	Phase     string    `json:"phase"`
	Error     string    `json:"error,omitempty"`
	Documents int       `json:"documents"`
	Entities  int       `json:"entities"`
	Fallback  bool      `json:"fallback"`
}

// Snapshot returns a JSON-safe copy of the run state.
func (r *Run) Snapshot() RunSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RunSnapshot{
		ID:        r.ID,
		Kind:      r.Kind,
		Status:    r.Status,
		Phase:     r.Phase,
		Error:     r.Error,
		Documents: r.Documents,
		Entities:  r.Entities,
		Fallback:  r.Fallback,
	}
}

// RunStore is a thread-safe in-memory run registry with TTL eviction.
type RunStore struct {
	mu   sync.Mutex
	runs map[string]*Run
	ttl  time.Duration
}

func NewRunStore(ttl time.Duration) *RunStore {
	return &RunStore{
		runs: make(map[string]*Run),
		ttl:  ttl,
	}
}

func (s *RunStore) Put(run *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
}

func (s *RunStore) Get(id string) *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[id]
}

// Cleanup removes expired runs.
func (s *RunStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, run := range s.runs {
		run.mu.Lock()
		expired := now.Sub(run.UpdatedAt) > s.ttl && run.Status != StatusRunning
		run.mu.Unlock()
		if expired {
			delete(s.runs, id)
		}
	}
}
