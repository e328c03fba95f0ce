package research

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBatchLookup_OneLookupPerDistinctEntity(t *testing.T) {
	var mu sync.Mutex
	queries := make(map[string]int)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		json.NewDecoder(r.Body).Decode(&req)
		mu.Lock()
		queries[req.Query]++
		mu.Unlock()
		json.NewEncoder(w).Encode(searchResponse{Results: []SearchResult{
			{Title: "hit", URL: "https://indiacode.nic.in/x", Content: "summary"},
		}})
	}))
	defer srv.Close()

	r := NewResearcher(NewClient(srv.URL, "k"), []string{"indiacode.nic.in"}, 4, 10*time.Second, nil, discardLogger())

	// Five references, two distinct entities.
	entities := []string{
		"Minimum Wages Act", "Companies Act", "Minimum Wages Act",
		"Minimum Wages Act", "Companies Act",
	}
	out := r.BatchLookup(context.Background(), entities, "India")

	if len(out) != 2 {
		t.Fatalf("expected 2 results, got %d", len(out))
	}
	mu.Lock()
	defer mu.Unlock()
	total := 0
	for q, n := range queries {
		if n != 1 {
			t.Errorf("query issued %d times: %q", n, q)
		}
		total += n
	}
	if total != 2 {
		t.Errorf("expected exactly 2 upstream calls, got %d", total)
	}
}

func TestBatchLookup_FailureIsolatedPerEntity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		json.NewDecoder(r.Body).Decode(&req)
		if strings.Contains(req.Query, "Broken Act") {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(searchResponse{Results: []SearchResult{
			{Title: "hit", URL: "https://rbi.org.in/x", Content: "ok"},
		}})
	}))
	defer srv.Close()

	r := NewResearcher(NewClient(srv.URL, "k"), []string{"rbi.org.in"}, 4, 10*time.Second, nil, discardLogger())
	out := r.BatchLookup(context.Background(), []string{"Broken Act", "Banking Regulation Act"}, "India")

	broken, ok := out["Broken Act"]
	if !ok || !broken.Failed() {
		t.Fatalf("expected error-marked result for Broken Act, got %+v", broken)
	}
	good := out["Banking Regulation Act"]
	if good.Failed() || len(good.Results) != 1 {
		t.Errorf("sibling lookup must succeed unaffected: %+v", good)
	}
}

func TestBatchLookup_EmptyAndDuplicateEntitiesDropped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(searchResponse{})
	}))
	defer srv.Close()

	r := NewResearcher(NewClient(srv.URL, "k"), []string{"rbi.org.in"}, 4, 10*time.Second, nil, discardLogger())
	out := r.BatchLookup(context.Background(), []string{"", "Act A", "", "Act A"}, "India")
	if len(out) != 1 {
		t.Errorf("expected 1 result, got %d", len(out))
	}
}

func TestBatchLookup_TimeoutMarksEntityFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		json.NewEncoder(w).Encode(searchResponse{})
	}))
	defer srv.Close()

	r := NewResearcher(NewClient(srv.URL, "k"), []string{"rbi.org.in"}, 4, 20*time.Millisecond, nil, discardLogger())
	out := r.BatchLookup(context.Background(), []string{"Slow Act"}, "India")
	if res := out["Slow Act"]; !res.Failed() {
		t.Errorf("expected timeout to mark lookup failed: %+v", res)
	}
}

func TestBatchLookup_RecordsLatencyStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(searchResponse{})
	}))
	defer srv.Close()

	stats := NewLookupStats(time.Hour)
	r := NewResearcher(NewClient(srv.URL, "k"), []string{"rbi.org.in"}, 4, 10*time.Second, stats, discardLogger())
	r.BatchLookup(context.Background(), []string{"Act A", "Act B"}, "India")

	snap := stats.Snapshot()
	if snap.Count != 2 {
		t.Errorf("expected 2 recorded lookups, got %d", snap.Count)
	}
}
