package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/docuscout/docuscout/internal/corpus"
)

// EntityLabels is the fixed label set requested from the NER service.
var EntityLabels = []string{
	"statute", "act", "provision", "section",
	"article", "clause", "regulation", "rule",
	"code", "law", "ordinance", "amendment",
}

// DefaultNERThreshold drops low-confidence model predictions.
const DefaultNERThreshold = 0.5

// NERExtractor calls a GLiNER-style inference service over HTTP. The model
// itself is a black box; only the prediction contract matters here.
type NERExtractor struct {
	baseURL    string
	apiKey     string
	threshold  float64
	httpClient *http.Client
}

func NewNERExtractor(baseURL, apiKey string) *NERExtractor {
	return &NERExtractor{
		baseURL:   baseURL,
		apiKey:    apiKey,
		threshold: DefaultNERThreshold,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

func (e *NERExtractor) Name() string { return "GLiNER" }

type nerRequest struct {
	Text      string   `json:"text"`
	Labels    []string `json:"labels"`
	Threshold float64  `json:"threshold"`
}

type nerResponse struct {
	Entities []struct {
		Text  string  `json:"text"`
		Label string  `json:"label"`
		Score float64 `json:"score"`
	} `json:"entities"`
	Error string `json:"error,omitempty"`
}

// Extract runs NER over the full text of every document. A prediction error
// on one document is recorded and the remaining documents still run; the
// batch only fails as a whole when every document failed.
func (e *NERExtractor) Extract(ctx context.Context, c *corpus.Corpus) (Batch, error) {
	batch := Batch{Extractor: e.Name()}
	docErrs := 0

	for _, doc := range c.Documents() {
		entities, err := e.predict(ctx, doc.FullText())
		if err != nil {
			if ctx.Err() != nil {
				batch.Err = ctx.Err().Error()
				return batch, ctx.Err()
			}
			docErrs++
			continue
		}
		for _, ent := range entities {
			f := Finding{DocID: doc.ID, Text: ent.Text, Label: ent.Label, Confidence: ent.Score}
			if ValidateFinding(&f) {
				batch.Findings = append(batch.Findings, f)
			}
		}
	}

	if docErrs > 0 && docErrs == c.Len() {
		err := fmt.Errorf("ner predictions failed for all %d documents", docErrs)
		batch.Err = err.Error()
		return batch, err
	}
	return batch, nil
}

type nerEntity struct {
	Text  string
	Label string
	Score float64
}

func (e *NERExtractor) predict(ctx context.Context, text string) ([]nerEntity, error) {
	body, err := json.Marshal(nerRequest{
		Text:      text,
		Labels:    EntityLabels,
		Threshold: e.threshold,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ner service: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ner service status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var apiResp nerResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if apiResp.Error != "" {
		return nil, fmt.Errorf("ner error: %s", apiResp.Error)
	}

	out := make([]nerEntity, 0, len(apiResp.Entities))
	for _, ent := range apiResp.Entities {
		if ent.Score < e.threshold {
			continue
		}
		out = append(out, nerEntity{Text: ent.Text, Label: ent.Label, Score: ent.Score})
	}
	return out, nil
}

// Close releases resources.
func (e *NERExtractor) Close() {
	e.httpClient.CloseIdleConnections()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
