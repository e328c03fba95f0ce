package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/docuscout/docuscout/internal/audit"
	"github.com/docuscout/docuscout/internal/config"
	"github.com/docuscout/docuscout/internal/corpus"
	"github.com/docuscout/docuscout/internal/extract"
	"github.com/docuscout/docuscout/internal/playbook"
	"github.com/docuscout/docuscout/internal/research"
	"github.com/docuscout/docuscout/internal/state"
)

// ErrRunInFlight is returned when a new run is requested while another is
// still executing. Runs are serialized because playbook and report use
// last-writer-wins overwrite semantics.
var ErrRunInFlight = errors.New("another run is already in flight")

// Runner coordinates the two pipeline halves: ingest (harvest, aggregate,
// persist) and audit (research, cross-reference). At most one run executes
// at a time.
type Runner struct {
	cfg        config.Config
	sources    *config.Sources
	extractors []extract.Extractor
	harvester  *Harvester
	aggregator *playbook.Aggregator
	persister  *playbook.Persister
	researcher *research.Researcher
	synth      *research.Synthesizer
	auditor    *audit.Auditor
	log        *slog.Logger

	runs     *RunStore
	inflight chan struct{} // capacity 1: the external serialization point

	// baseCtx scopes background runs to the server lifetime. Runs must not
	// inherit the triggering request's context: net/http cancels it as soon
	// as the 202 response is written, which would kill the run mid-flight.
	baseCtx context.Context

	mu    sync.Mutex
	store *state.Store       // latest run's shared extraction store
	pb    *playbook.Playbook // latest playbook

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRunner(cfg config.Config, sources *config.Sources, extractors []extract.Extractor,
	aggregator *playbook.Aggregator, researcher *research.Researcher, log *slog.Logger) *Runner {
	return &Runner{
		cfg:        cfg,
		sources:    sources,
		extractors: extractors,
		harvester:  NewHarvester(cfg.ExtractorTimeout, log),
		aggregator: aggregator,
		persister:  playbook.NewPersister(log),
		researcher: researcher,
		synth:      research.NewSynthesizer(log),
		auditor:    audit.NewAuditor(log),
		log:        log,
		runs:       NewRunStore(cfg.RunTTL),
		inflight:   make(chan struct{}, 1),
	}
}

// Start establishes the run lifetime context and launches the run store
// cleanup loop.
func (r *Runner) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.baseCtx = runCtx

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				r.runs.Cleanup()
			}
		}
	}()
}

// Stop cancels in-flight work and waits for it to finish.
func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

// GetRun returns a run by ID.
func (r *Runner) GetRun(id string) *Run {
	return r.runs.Get(id)
}

// StartIngest begins an asynchronous harvest-aggregate-persist run.
func (r *Runner) StartIngest(ctx context.Context) (*Run, error) {
	return r.start(ctx, KindIngest, r.runIngest)
}

// StartAudit begins an asynchronous research-audit run.
func (r *Runner) StartAudit(ctx context.Context) (*Run, error) {
	return r.start(ctx, KindAudit, r.runAudit)
}

// start admits at most one run. The caller's context covers admission only;
// the run itself executes under the server-lifetime context so it survives
// the request that triggered it.
func (r *Runner) start(ctx context.Context, kind RunKind, fn func(context.Context, *Run)) (*Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	select {
	case r.inflight <- struct{}{}:
	default:
		return nil, ErrRunInFlight
	}

	now := time.Now()
	run := &Run{
		ID:        generateULID(),
		Kind:      kind,
		Status:    StatusRunning,
		Phase:     "starting",
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.runs.Put(run)

	runCtx := r.baseCtx
	if runCtx == nil {
		runCtx = context.Background()
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() { <-r.inflight }()
		fn(runCtx, run)
	}()
	return run, nil
}

// runIngest executes Harvester -> Aggregator -> Persister.
func (r *Runner) runIngest(ctx context.Context, run *Run) {
	log := r.log.With("run_id", run.ID, "kind", run.Kind)

	run.SetPhase("loading corpus")
	c, failures, err := corpus.LoadDir(r.cfg.CorpusDir)
	if err != nil {
		log.Error("corpus load failed", "error", err)
		run.Fail("corpus", err)
		return
	}
	for name, ferr := range failures {
		log.Warn("document skipped", "file", name, "error", ferr)
	}
	if c.Len() == 0 {
		run.Fail("corpus", fmt.Errorf("no loadable documents in %s", r.cfg.CorpusDir))
		return
	}
	log.Info("corpus loaded", "documents", c.Len(), "skipped", len(failures))

	run.SetPhase("harvesting")
	store := state.NewStore()
	r.harvester.Run(ctx, c, r.extractors, store)

	run.SetPhase("aggregating")
	pb, err := r.aggregator.BuildPlaybook(store)
	if err != nil {
		log.Error("aggregation failed", "error", err)
		run.Fail("aggregation", err)
		return
	}

	run.SetPhase("exporting")
	if err := r.persister.Export(pb, store, r.cfg.PlaybookPath); err != nil {
		log.Error("export failed", "error", err)
		run.Fail("persistence", err)
		return
	}

	r.mu.Lock()
	r.store = store
	r.pb = pb
	r.mu.Unlock()

	run.SetCounts(c.Len(), len(pb.DistinctEntities()), pb.Fallback())
	run.Complete()
	log.Info("ingest run complete", "entities", len(pb.DistinctEntities()), "fallback", pb.Fallback())
}

// runAudit executes Researcher -> Synthesizer -> Auditor.
func (r *Runner) runAudit(ctx context.Context, run *Run) {
	log := r.log.With("run_id", run.ID, "kind", run.Kind)

	run.SetPhase("loading playbook")
	pb, err := r.currentPlaybook()
	if err != nil {
		log.Error("playbook unavailable", "error", err)
		run.Fail("playbook", err)
		return
	}

	entities := pb.DistinctEntities()
	if len(entities) == 0 {
		run.Fail("playbook", fmt.Errorf("playbook contains no entities"))
		return
	}

	run.SetPhase("researching")
	lookups := r.researcher.BatchLookup(ctx, entities, r.sources.Jurisdiction)

	run.SetPhase("synthesizing records")
	records := r.synth.BuildRecords(pb, lookups)
	if err := r.synth.WriteRecords(records, r.cfg.CompliancePath); err != nil {
		log.Error("compliance write failed", "error", err)
		run.Fail("persistence", err)
		return
	}

	run.SetPhase("auditing")
	c, failures, err := corpus.LoadDir(r.cfg.CorpusDir)
	if err != nil {
		log.Error("corpus load failed", "error", err)
		run.Fail("corpus", err)
		return
	}
	for name, ferr := range failures {
		log.Warn("document skipped", "file", name, "error", ferr)
	}

	report, err := r.auditor.Audit(pb, records, c)
	if err != nil {
		log.Error("audit failed", "error", err)
		run.Fail("audit", err)
		return
	}
	if err := audit.WriteReport(report, r.cfg.ReportPath, log); err != nil {
		run.Fail("persistence", err)
		return
	}

	run.SetCounts(report.Summary.Documents, len(entities), pb.Fallback())
	run.Complete()
	log.Info("audit run complete",
		"violations", report.Summary.Violations,
		"warnings", report.Summary.Warnings)
}

// currentPlaybook returns the playbook from the latest ingest run, falling
// back to the exported file (e.g. after a restart). A malformed file is a
// hard error.
func (r *Runner) currentPlaybook() (*playbook.Playbook, error) {
	r.mu.Lock()
	pb := r.pb
	r.mu.Unlock()
	if !pb.Empty() {
		return pb, nil
	}

	data, err := os.ReadFile(r.cfg.PlaybookPath)
	if err != nil {
		return nil, fmt.Errorf("no playbook in memory and none on disk: %w", err)
	}
	return playbook.Parse(data)
}

// LatestPlaybook exposes the current playbook for the API layer.
func (r *Runner) LatestPlaybook() (*playbook.Playbook, error) {
	return r.currentPlaybook()
}
