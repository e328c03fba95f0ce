// Package playbook owns the canonical merged artifact of a pipeline run:
// the per-document, deduplicated legal entity lists that the researcher and
// auditor consume.
package playbook

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrMalformed reports structurally invalid playbook input. It is a hard
// error: callers must not silently recover from it.
var ErrMalformed = errors.New("malformed playbook")

// Entry is the canonical view of one document's legal entities. Entity
// strings are unique within an entry (case-sensitive exact match).
type Entry struct {
	DocID    string   `json:"filename"`
	Entities []string `json:"legal_entities"`
}

// Clause is the flattened fallback representation used when the primary
// merge path fails or produces nothing.
type Clause struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Sources  []string `json:"sources"`
	Contexts []string `json:"contexts"`
}

// contextPrefix marks the document a fallback clause was extracted from.
const contextPrefix = "Extracted from "

// Playbook is either the canonical per-document form (Entries) or the
// flattened fallback form (Clauses), never both.
type Playbook struct {
	Entries []Entry  `json:"playbook,omitempty"`
	Clauses []Clause `json:"clauses,omitempty"`
}

// Fallback reports whether this playbook carries the degraded flat shape.
func (p *Playbook) Fallback() bool {
	return len(p.Clauses) > 0
}

// Empty reports whether the playbook carries no entities at all.
func (p *Playbook) Empty() bool {
	return p == nil || (len(p.Entries) == 0 && len(p.Clauses) == 0)
}

// DistinctEntities returns the sorted set of entity names across all
// documents. The researcher looks each of these up exactly once.
func (p *Playbook) DistinctEntities() []string {
	seen := make(map[string]bool)
	if p == nil {
		return nil
	}
	for _, e := range p.Entries {
		for _, name := range e.Entities {
			seen[name] = true
		}
	}
	for _, c := range p.Clauses {
		seen[c.Name] = true
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// EntitiesByDoc returns document ID → entity names, resolving the fallback
// shape through its context markers.
func (p *Playbook) EntitiesByDoc() map[string][]string {
	out := make(map[string][]string)
	if p == nil {
		return out
	}
	for _, e := range p.Entries {
		out[e.DocID] = append(out[e.DocID], e.Entities...)
	}
	for _, c := range p.Clauses {
		for _, ctx := range c.Contexts {
			docID := strings.TrimPrefix(ctx, contextPrefix)
			if docID == "" {
				continue
			}
			out[docID] = append(out[docID], c.Name)
		}
	}
	return out
}

// Marshal serializes the playbook in its wire form.
func (p *Playbook) Marshal() ([]byte, error) {
	return json.MarshalIndent(p, "", "    ")
}

// Parse decodes and validates a serialized playbook. Invalid structure is a
// hard error wrapping ErrMalformed.
func Parse(data []byte) (*Playbook, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrMalformed)
	}
	var p Playbook
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if p.Empty() {
		return nil, fmt.Errorf("%w: no playbook entries or clauses", ErrMalformed)
	}
	for i, e := range p.Entries {
		if e.DocID == "" {
			return nil, fmt.Errorf("%w: entry %d has no filename", ErrMalformed, i)
		}
		if len(e.Entities) == 0 {
			return nil, fmt.Errorf("%w: entry %d (%s) has no entities", ErrMalformed, i, e.DocID)
		}
	}
	for i, c := range p.Clauses {
		if c.Name == "" {
			return nil, fmt.Errorf("%w: clause %d has no name", ErrMalformed, i)
		}
	}
	return &p, nil
}
