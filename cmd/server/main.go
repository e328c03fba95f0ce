package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docuscout/docuscout/internal/api"
	"github.com/docuscout/docuscout/internal/config"
	"github.com/docuscout/docuscout/internal/extract"
	"github.com/docuscout/docuscout/internal/llm"
	"github.com/docuscout/docuscout/internal/pipeline"
	"github.com/docuscout/docuscout/internal/playbook"
	"github.com/docuscout/docuscout/internal/research"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	sources, err := config.LoadSources(cfg.SourcesFile)
	if err != nil {
		log.Error("invalid sources configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	llmClient := llm.New(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	ner := extract.NewNERExtractor(cfg.NERURL, cfg.NERAPIKey)
	searchClient := research.NewClient(cfg.SearchURL, cfg.SearchAPIKey)

	extractors := []extract.Extractor{
		&extract.StatuteExtractor{},
		ner,
		extract.NewRetrievalExtractor(llmClient),
	}

	var synthesis playbook.Strategy
	if cfg.EnableSynthesis {
		synthesis = playbook.NewLLMSynthesis(llmClient, 2*time.Minute)
	}
	aggregator := playbook.NewAggregator(synthesis, log)

	stats := research.NewLookupStats(time.Hour)
	researcher := research.NewResearcher(searchClient, sources.TrustedDomains,
		cfg.MaxConcurrentLookups, cfg.LookupTimeout, stats, log)

	// Initialize pipeline.
	runner := pipeline.NewRunner(cfg, sources, extractors, aggregator, researcher, log)
	runner.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(runner, stats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		runner.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		llmClient.Close()
		ner.Close()
		searchClient.Close()
	}()

	log.Info("starting docuscout", "port", cfg.Port, "jurisdiction", sources.Jurisdiction)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
