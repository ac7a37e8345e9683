package gallery

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ArtRecord is a submitted pixel-art drawing. Records are immutable once
// written; only deletion changes them.
type ArtRecord struct {
	ID        string          `json:"id"`        // UUIDv7, assigned on creation
	Name      string          `json:"name"`      // Non-empty title
	Author    string          `json:"author"`    // Non-empty author name
	Mapping   json.RawMessage `json:"mapping"`   // Cell values as submitted, stored verbatim
	Size      int             `json:"size"`      // Square dimension in cells
	CreatedAt int64           `json:"createdAt"` // Unix timestamp in milliseconds

	// Generation is the key layout the record was read from. It is not part
	// of the stored value.
	Generation Generation `json:"-"`
}

// Key returns the record's key in the layout it was read from.
func (r *ArtRecord) Key() RecordKey {
	return RecordKey{Generation: r.Generation, Size: r.Size, ID: r.ID}
}

// CreateRequest is the caller-supplied part of a new record.
type CreateRequest struct {
	Name    string          `json:"name"`
	Author  string          `json:"author"`
	Mapping json.RawMessage `json:"mapping"`
	Size    *int            `json:"size,omitempty"`
}

// Validate checks the request against the size limit. It does not apply
// defaults.
func (r *CreateRequest) Validate(maxSize int) error {
	if strings.TrimSpace(r.Name) == "" {
		return missing("name")
	}
	if strings.TrimSpace(r.Author) == "" {
		return missing("author")
	}
	if err := validateMapping(r.Mapping); err != nil {
		return err
	}
	if r.Size != nil {
		if *r.Size <= 0 {
			return invalid("size", "must be a positive integer")
		}
		if maxSize > 0 && *r.Size > maxSize {
			return invalid("size", "exceeds maximum")
		}
	}
	return nil
}

// emptyMappings are JSON values treated as a missing mapping.
var emptyMappings = [][]byte{
	[]byte("null"), []byte(`""`), []byte("false"), []byte("0"), []byte("{}"), []byte("[]"),
}

func validateMapping(m json.RawMessage) error {
	trimmed := bytes.TrimSpace(m)
	if len(trimmed) == 0 {
		return missing("mapping")
	}
	if !json.Valid(trimmed) {
		return invalid("mapping", "must be valid JSON")
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return invalid("mapping", "must be valid JSON")
	}
	for _, empty := range emptyMappings {
		if bytes.Equal(compact.Bytes(), empty) {
			return missing("mapping")
		}
	}
	return nil
}
