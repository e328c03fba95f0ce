package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/docuscout/docuscout/internal/corpus"
	"github.com/docuscout/docuscout/internal/llm"
)

// RetrievalExtractor asks the LLM for legal entities and insights grounded in
// the document text. It is the semantic counterpart to the pattern and model
// extractors and shares their output contract.
type RetrievalExtractor struct {
	client *llm.Client
}

func NewRetrievalExtractor(client *llm.Client) *RetrievalExtractor {
	return &RetrievalExtractor{client: client}
}

func (e *RetrievalExtractor) Name() string { return "retrieval" }

const retrievalSystem = `You extract legal references from contract documents. Respond with ONLY a JSON array, no other text.`

const retrievalPromptHeader = `Identify key legal entities and clauses in the document below.

Focus on the following identifiers and terms:
1. Constitutional/Statutory: Article, Section, Schedule, Constitution, Act
2. Legal Provisions: Provision, Clause, Rule, Regulation, Explanation, Proviso
3. Specific Statutes: IPC, CrPC, Evidence Act, Contract Act, Companies Act, NI Act
4. Key Concepts: Punishment, Penalty, Imprisonment, Notwithstanding

Return a JSON array of objects with fields:
- "text": the entity or clause reference exactly as it appears (string)
- "label": one of "statute", "act", "provision", "clause", "insight"

Only include references actually present in the text. Return [] if none.`

// Extract queries the LLM once per document. One bad document answer is
// skipped; the batch fails only when every document query failed.
func (e *RetrievalExtractor) Extract(ctx context.Context, c *corpus.Corpus) (Batch, error) {
	batch := Batch{Extractor: e.Name()}
	docErrs := 0

	for _, doc := range c.Documents() {
		prompt := buildRetrievalPrompt(doc)
		raw, err := e.client.Complete(ctx, retrievalSystem, prompt)
		if err != nil {
			if ctx.Err() != nil {
				batch.Err = ctx.Err().Error()
				return batch, ctx.Err()
			}
			docErrs++
			continue
		}

		var items []struct {
			Text  string `json:"text"`
			Label string `json:"label"`
		}
		if err := json.Unmarshal([]byte(llm.StripCodeBlock(raw)), &items); err != nil {
			docErrs++
			continue
		}
		for _, it := range items {
			label := it.Label
			if label == "" {
				label = "insight"
			}
			f := Finding{DocID: doc.ID, Text: it.Text, Label: label}
			if ValidateFinding(&f) {
				batch.Findings = append(batch.Findings, f)
			}
		}
	}

	if docErrs > 0 && docErrs == c.Len() {
		err := fmt.Errorf("retrieval failed for all %d documents", docErrs)
		batch.Err = err.Error()
		return batch, err
	}
	return batch, nil
}

// buildRetrievalPrompt bounds the document text so oversized corpora do not
// blow the context window; entities past the cap are still caught by the
// pattern and NER extractors.
func buildRetrievalPrompt(doc *corpus.Document) string {
	const maxChars = 24000
	text := doc.FullText()
	if len(text) > maxChars {
		text = text[:maxChars]
	}
	var sb strings.Builder
	sb.WriteString(retrievalPromptHeader)
	sb.WriteString("\n\n---\n")
	sb.WriteString(fmt.Sprintf("Document: %q\n", doc.ID))
	sb.WriteString("---\n")
	sb.WriteString(text)
	return sb.String()
}
