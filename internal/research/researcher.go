package research

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RawLookupResult is the outcome of one entity's external lookup. A failed
// lookup carries Err and no results; it never aborts sibling lookups.
type RawLookupResult struct {
	Entity  string
	Results []SearchResult
	Err     string
}

// Failed reports whether this entity's lookup failed.
func (r RawLookupResult) Failed() bool {
	return r.Err != ""
}

// Researcher dispatches one concurrent lookup per distinct entity name and
// joins them with barrier semantics.
type Researcher struct {
	client  *Client
	domains []string
	log     *slog.Logger

	maxConcurrent int
	perLookup     time.Duration
	maxResults    int
	stats         *LookupStats
}

func NewResearcher(client *Client, domains []string, maxConcurrent int, perLookup time.Duration, stats *LookupStats, log *slog.Logger) *Researcher {
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	if perLookup <= 0 {
		perLookup = 45 * time.Second
	}
	return &Researcher{
		client:        client,
		domains:       domains,
		log:           log,
		maxConcurrent: maxConcurrent,
		perLookup:     perLookup,
		maxResults:    5,
		stats:         stats,
	}
}

// BatchLookup looks up every distinct entity exactly once, concurrently.
// The same entity referenced by multiple documents still gets one lookup;
// callers share the result across documents. A lookup that fails or times
// out degrades to an error-marked result for that entity only. No lookup is
// retried within a run.
func (r *Researcher) BatchLookup(ctx context.Context, entities []string, jurisdiction string) map[string]RawLookupResult {
	distinct := make([]string, 0, len(entities))
	seen := make(map[string]bool, len(entities))
	for _, e := range entities {
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		distinct = append(distinct, e)
	}

	results := make(chan RawLookupResult, len(distinct))
	sem := make(chan struct{}, r.maxConcurrent)

	for _, entity := range distinct {
		sem <- struct{}{}
		go func(entity string) {
			defer func() { <-sem }()
			results <- r.lookup(ctx, entity, jurisdiction)
		}(entity)
	}

	// Barrier join: gather every result, individual failures isolated.
	out := make(map[string]RawLookupResult, len(distinct))
	for range distinct {
		res := <-results
		if res.Failed() {
			r.log.Warn("lookup failed", "entity", res.Entity, "error", res.Err)
		}
		out[res.Entity] = res
	}
	return out
}

func (r *Researcher) lookup(ctx context.Context, entity, jurisdiction string) RawLookupResult {
	lookupCtx, cancel := context.WithTimeout(ctx, r.perLookup)
	defer cancel()

	query := fmt.Sprintf("what is %s official summary and latest amendments %s 2024 2025", entity, jurisdiction)
	start := time.Now()
	hits, err := r.client.Search(lookupCtx, query, r.domains, r.maxResults)
	if r.stats != nil {
		r.stats.Record(time.Since(start).Milliseconds())
	}
	if err != nil {
		return RawLookupResult{Entity: entity, Err: err.Error()}
	}
	return RawLookupResult{Entity: entity, Results: hits}
}
