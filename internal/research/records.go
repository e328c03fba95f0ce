// Package research performs the batched external lookups behind the
// compliance audit: one lookup per distinct legal entity, results filtered
// to trusted sources and synthesized into per-document compliance records.
package research

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Status classifies what the external research found for one law.
type Status string

const (
	StatusUpdateIdentified   Status = "UpdateIdentified"
	StatusNoRecentAmendments Status = "NoRecentAmendments"
	StatusNotFound           Status = "NotFound"
)

// Valid reports whether the status is one of the known values.
func (s Status) Valid() bool {
	switch s {
	case StatusUpdateIdentified, StatusNoRecentAmendments, StatusNotFound:
		return true
	}
	return false
}

// ComplianceRecord is the research result for one (document, law) pair.
// Immutable once produced; the auditor treats it as ground truth.
type ComplianceRecord struct {
	LawName      string `json:"law_name"`
	Description  string `json:"description"`
	Status       Status `json:"status"`
	LatestChange string `json:"latest_change"`
	Source       string `json:"source"`
}

// DocRecords groups the compliance records scoped to one document.
type DocRecords struct {
	DocID string             `json:"filename"`
	Laws  []ComplianceRecord `json:"laws"`
}

// ErrMalformedRecords reports structurally invalid compliance input.
var ErrMalformedRecords = errors.New("malformed compliance records")

// ParseRecords decodes and validates the compliance updates file.
func ParseRecords(data []byte) ([]DocRecords, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrMalformedRecords)
	}
	var records []DocRecords
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecords, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no document entries", ErrMalformedRecords)
	}
	for i, dr := range records {
		if dr.DocID == "" {
			return nil, fmt.Errorf("%w: entry %d has no filename", ErrMalformedRecords, i)
		}
		for j, law := range dr.Laws {
			if law.LawName == "" {
				return nil, fmt.Errorf("%w: entry %d law %d has no name", ErrMalformedRecords, i, j)
			}
			if !law.Status.Valid() {
				return nil, fmt.Errorf("%w: entry %d law %q has unknown status %q",
					ErrMalformedRecords, i, law.LawName, law.Status)
			}
		}
	}
	return records, nil
}

// MarshalRecords serializes compliance records in their wire form.
func MarshalRecords(records []DocRecords) ([]byte, error) {
	return json.MarshalIndent(records, "", "    ")
}
