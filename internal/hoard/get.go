package hoard

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dyluth/easel/pkg/gallery"
)

// Getter reads a record by id under whichever key layout holds it.
type Getter interface {
	GetRecord(ctx context.Context, id string) (*gallery.ArtRecord, bool, error)
}

// GetRecord retrieves a single record by ID and writes it as pretty-printed JSON to the writer.
// Returns a *RecordNotFoundError if no key layout holds the record.
func GetRecord(ctx context.Context, records Getter, id string, w io.Writer) error {
	record, ok, err := records.GetRecord(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch record: %w", err)
	}
	if !ok {
		return &RecordNotFoundError{ID: id}
	}

	if err := FormatSingleJSON(w, record); err != nil {
		return fmt.Errorf("failed to format record: %w", err)
	}

	return nil
}

// RecordNotFoundError represents a specific "record not found" error.
// This allows callers to distinguish not-found errors from other failures.
type RecordNotFoundError struct {
	ID string
}

func (e *RecordNotFoundError) Error() string {
	return fmt.Sprintf("art with ID '%s' not found", e.ID)
}

// IsNotFound returns true if the error is a RecordNotFoundError.
func IsNotFound(err error) bool {
	var nf *RecordNotFoundError
	return errors.As(err, &nf)
}
