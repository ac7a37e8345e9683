// Package resolver expands the short record IDs shown by `easel list` into
// full IDs.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/dyluth/easel/pkg/gallery"
)

// MinShortIDLength is the minimum length of a short ID.
const MinShortIDLength = 6

// maxShown caps the matches listed by FormatAmbiguousError.
const maxShown = 10

// scanPageLimit asks for the largest page the gallery allows; it clamps.
const scanPageLimit = 1 << 16

// Records is the part of the gallery the resolver reads.
type Records interface {
	GetRecord(ctx context.Context, id string) (*gallery.ArtRecord, bool, error)
	ListRecords(ctx context.Context, opts gallery.ListOptions) (*gallery.ListResult, error)
}

// ResolveRecordID expands shortID into exactly one stored record ID.
//
// An ID that exists as given is returned unchanged, whatever its length.
// Otherwise shortID is matched against the end of every stored ID: version 7
// UUIDs begin with a timestamp, so their tails are what tell records apart,
// and the list table prints the last eight characters.
func ResolveRecordID(ctx context.Context, records Records, shortID string) (string, error) {
	if shortID == "" {
		return "", fmt.Errorf("record ID cannot be empty")
	}

	_, ok, err := records.GetRecord(ctx, shortID)
	if err != nil {
		return "", fmt.Errorf("failed to verify record existence: %w", err)
	}
	if ok {
		return shortID, nil
	}

	if len(shortID) < MinShortIDLength {
		return "", fmt.Errorf("short ID must be at least %d characters (got %d)", MinShortIDLength, len(shortID))
	}

	matches, err := scanSuffix(ctx, records, shortID)
	if err != nil {
		return "", fmt.Errorf("failed to search for record: %w", err)
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{ShortID: shortID}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousError{ShortID: shortID, Matches: matches}
	}
}

// scanSuffix walks every record. An interrupted migration can leave a record
// under both layouts, so IDs are deduplicated.
func scanSuffix(ctx context.Context, records Records, suffix string) ([]string, error) {
	seen := make(map[string]bool)
	var matches []string

	opts := gallery.ListOptions{Oldest: true, Limit: scanPageLimit}
	for {
		page, err := records.ListRecords(ctx, opts)
		if err != nil {
			return nil, err
		}
		for _, r := range page.Records {
			if strings.HasSuffix(r.ID, suffix) && !seen[r.ID] {
				seen[r.ID] = true
				matches = append(matches, r.ID)
			}
		}
		if page.NextCursor == "" {
			return matches, nil
		}
		opts.Cursor = page.NextCursor
	}
}

// NotFoundError indicates no record matched the short ID.
type NotFoundError struct {
	ShortID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no records found matching '%s'", e.ShortID)
}

// AmbiguousError indicates several records matched the short ID.
type AmbiguousError struct {
	ShortID string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous short ID '%s' matches %d records", e.ShortID, len(e.Matches))
}

// FormatAmbiguousError lists the matching IDs, up to ten, for the terminal.
func FormatAmbiguousError(err *AmbiguousError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Error: ambiguous short ID '%s' matches %d records:\n", err.ShortID, len(err.Matches))

	shown := min(len(err.Matches), maxShown)
	for _, id := range err.Matches[:shown] {
		fmt.Fprintf(&b, "  %s\n", id)
	}
	if len(err.Matches) > shown {
		fmt.Fprintf(&b, "  ...and %d more\n", len(err.Matches)-shown)
	}

	b.WriteString("\nUse a longer suffix to uniquely identify the record.")
	return b.String()
}

// IsNotFoundError checks if an error is a NotFoundError.
func IsNotFoundError(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// IsAmbiguousError checks if an error is an AmbiguousError.
func IsAmbiguousError(err error) bool {
	_, ok := err.(*AmbiguousError)
	return ok
}
