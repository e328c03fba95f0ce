package pipeline

import (
	"errors"
	"testing"
	"time"
)

func TestRun_StateTransitions(t *testing.T) {
	run := &Run{ID: generateULID(), Kind: KindIngest, Status: StatusRunning, CreatedAt: time.Now()}

	run.SetPhase("harvesting")
	if s := run.Snapshot(); s.Phase != "harvesting" || s.Status != StatusRunning {
		t.Errorf("after SetPhase: %+v", s)
	}

	run.SetCounts(4, 12, false)
	run.Complete()
	s := run.Snapshot()
	if s.Status != StatusCompleted || s.Phase != "done" {
		t.Errorf("after Complete: %+v", s)
	}
	if s.Documents != 4 || s.Entities != 12 || s.Fallback {
		t.Errorf("counts lost: %+v", s)
	}
}

func TestRun_FailCarriesStage(t *testing.T) {
	run := &Run{ID: generateULID(), Kind: KindAudit, Status: StatusRunning}
	run.Fail("research", errors.New("search api down"))

	s := run.Snapshot()
	if s.Status != StatusFailed {
		t.Errorf("status = %s", s.Status)
	}
	if s.Error != "research: search api down" {
		t.Errorf("error = %q", s.Error)
	}
	if s.Phase != "research" {
		t.Errorf("phase = %q", s.Phase)
	}
}

func TestRunStore_PutGet(t *testing.T) {
	store := NewRunStore(time.Hour)
	run := &Run{ID: "r1", Status: StatusRunning}
	store.Put(run)

	if got := store.Get("r1"); got != run {
		t.Error("stored run not returned")
	}
	if got := store.Get("missing"); got != nil {
		t.Error("unknown ID must return nil")
	}
}

func TestRunStore_CleanupSkipsRunning(t *testing.T) {
	store := NewRunStore(10 * time.Millisecond)
	old := time.Now().Add(-time.Minute)
	store.Put(&Run{ID: "done", Status: StatusCompleted, UpdatedAt: old})
	store.Put(&Run{ID: "active", Status: StatusRunning, UpdatedAt: old})

	store.Cleanup()

	if store.Get("done") != nil {
		t.Error("expired completed run must be evicted")
	}
	if store.Get("active") == nil {
		t.Error("running runs are never evicted")
	}
}

func TestGenerateULID(t *testing.T) {
	a, b := generateULID(), generateULID()
	if len(a) != 26 {
		t.Errorf("ulid length = %d", len(a))
	}
	if a == b {
		t.Error("consecutive ulids must differ")
	}
}
