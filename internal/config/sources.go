package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Sources is the trusted-source configuration for legal research lookups.
// Results referencing domains outside TrustedDomains are discarded before
// they reach any consumer.
type Sources struct {
	Jurisdiction   string   `yaml:"jurisdiction"`
	TrustedDomains []string `yaml:"trusted_domains"`
}

// DefaultSources returns the built-in walled garden of official Indian
// legal sources.
func DefaultSources() *Sources {
	return &Sources{
		Jurisdiction: "India",
		TrustedDomains: []string{
			"indiacode.nic.in",   // Official Central Acts
			"legislative.gov.in", // Legislative Department
			"egazette.nic.in",    // Official Gazette
			"rbi.org.in",         // Reserve Bank of India
			"sebi.gov.in",        // SEBI
			"mca.gov.in",         // Ministry of Corporate Affairs
			"indiankanoon.org",   // Case law / act text search
			"clc.gov.in",         // Chief Labour Commissioner
		},
	}
}

// LoadSources reads a YAML sources file, or returns the defaults when path
// is empty.
func LoadSources(path string) (*Sources, error) {
	if path == "" {
		return DefaultSources(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources %s: %w", path, err)
	}
	src := DefaultSources()
	if err := yaml.Unmarshal(data, src); err != nil {
		return nil, fmt.Errorf("parse sources %s: %w", path, err)
	}
	if src.Jurisdiction == "" {
		src.Jurisdiction = "India"
	}
	if len(src.TrustedDomains) == 0 {
		return nil, fmt.Errorf("sources %s: trusted_domains must not be empty", path)
	}
	return src, nil
}
