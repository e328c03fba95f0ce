package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// LLM (semantic retrieval, optional playbook synthesis)
	AnthropicAPIKey string
	AnthropicModel  string

	// NER inference service
	NERURL    string
	NERAPIKey string

	// Legal research search API
	SearchURL    string
	SearchAPIKey string

	// Artifact paths
	CorpusDir      string
	PlaybookPath   string
	CompliancePath string
	ReportPath     string
	SourcesFile    string

	// Concurrency and timeouts
	MaxConcurrentLookups int
	LookupTimeout        time.Duration
	ExtractorTimeout     time.Duration

	// Synthesis merge on top of the deterministic baseline
	EnableSynthesis bool

	// Run state
	RunTTL time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8092"),

		APIKey: os.Getenv("DOCUSCOUT_API_KEY"),

		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),

		NERURL:    envOr("NER_URL", "http://localhost:8095"),
		NERAPIKey: os.Getenv("NER_API_KEY"),

		SearchURL:    envOr("SEARCH_URL", "https://api.tavily.com"),
		SearchAPIKey: os.Getenv("SEARCH_API_KEY"),

		CorpusDir:      envOr("CORPUS_DIR", "DB"),
		PlaybookPath:   envOr("PLAYBOOK_PATH", "dynamic_playbook.json"),
		CompliancePath: envOr("COMPLIANCE_PATH", "compliance_updates.json"),
		ReportPath:     envOr("REPORT_PATH", "risk_audit_report.md"),
		SourcesFile:    os.Getenv("SOURCES_FILE"),

		MaxConcurrentLookups: envInt("MAX_CONCURRENT_LOOKUPS", 8),
		LookupTimeout:        envDuration("LOOKUP_TIMEOUT", 45*time.Second),
		ExtractorTimeout:     envDuration("EXTRACTOR_TIMEOUT", 5*time.Minute),

		EnableSynthesis: envBool("ENABLE_SYNTHESIS", false),

		RunTTL: envDuration("RUN_TTL", 1*time.Hour),
	}

	if cfg.MaxConcurrentLookups <= 0 {
		cfg.MaxConcurrentLookups = 8
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = 45 * time.Second
	}
	if cfg.ExtractorTimeout <= 0 {
		cfg.ExtractorTimeout = 5 * time.Minute
	}
	if cfg.RunTTL <= 0 {
		cfg.RunTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("DOCUSCOUT_API_KEY is required")
	}
	if c.SearchAPIKey == "" {
		return fmt.Errorf("SEARCH_API_KEY is required")
	}
	if c.AnthropicAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
