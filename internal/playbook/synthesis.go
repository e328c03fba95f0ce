package playbook

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/docuscout/docuscout/internal/extract"
	"github.com/docuscout/docuscout/internal/llm"
)

// LLMSynthesis curates the raw extraction results with the LLM: filtering
// noise and keeping only genuine legal entities. Its output is never trusted
// blindly; the aggregator traces every synthesized entity back to a raw
// finding and falls back to the deterministic merge on any failure.
type LLMSynthesis struct {
	client  *llm.Client
	timeout time.Duration
}

func NewLLMSynthesis(client *llm.Client, timeout time.Duration) *LLMSynthesis {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &LLMSynthesis{client: client, timeout: timeout}
}

func (s *LLMSynthesis) Name() string { return "llm-synthesis" }

const synthesisSystem = `You curate legal entity extraction results into a playbook. Respond with ONLY JSON, no other text.`

func (s *LLMSynthesis) Merge(batches []extract.Batch) (*Playbook, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	raw, err := s.client.Complete(ctx, synthesisSystem, buildSynthesisPrompt(batches))
	if err != nil {
		return nil, fmt.Errorf("synthesis completion: %w", err)
	}

	pb, err := Parse([]byte(llm.StripCodeBlock(raw)))
	if err != nil {
		return nil, fmt.Errorf("synthesis output: %w", err)
	}
	return pb, nil
}

// buildSynthesisPrompt summarizes every extractor's findings organized by
// document, using the exact document IDs so the model cannot invent its own.
func buildSynthesisPrompt(batches []extract.Batch) string {
	byDoc := make(map[string][]extract.Finding)
	var docOrder []string
	for _, b := range batches {
		if b.Failed() {
			continue
		}
		for _, f := range b.Findings {
			if _, ok := byDoc[f.DocID]; !ok {
				docOrder = append(docOrder, f.DocID)
			}
			byDoc[f.DocID] = append(byDoc[f.DocID], f)
		}
	}

	var sb strings.Builder
	sb.WriteString(`Below are raw legal entity extraction results for a set of documents.
Curate them into a playbook: keep genuine laws, acts, statutes and provisions;
drop fragments, duplicates and non-legal noise. Use ONLY entity text that
appears verbatim in the results, and the EXACT filenames shown.

Return JSON of the form:
{"playbook": [{"filename": "<exact filename>", "legal_entities": ["<entity>", ...]}]}

`)
	for i, docID := range docOrder {
		sb.WriteString(fmt.Sprintf("### File %d: %q\n", i+1, docID))
		for _, f := range byDoc[docID] {
			line, _ := json.Marshal(map[string]string{"text": f.Text, "label": f.Label})
			sb.Write(line)
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
