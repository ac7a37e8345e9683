package hoard

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/dyluth/easel/pkg/gallery"
)

// OutputFormat specifies how to format the record list output.
type OutputFormat string

const (
	// OutputFormatDefault uses a table format with truncated mappings
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSONL outputs complete records as line-delimited JSON
	OutputFormatJSONL OutputFormat = "jsonl"
)

// Lister pages through records.
type Lister interface {
	ListRecords(ctx context.Context, opts gallery.ListOptions) (*gallery.ListResult, error)
}

// ListRequest selects which records to walk.
type ListRequest struct {
	Size     int  // only records of this size when positive
	Max      int  // stop after this many matching records, 0 = all
	Oldest   bool // oldest first instead of newest first
	PageSize int  // records fetched per page, 0 = store default
}

// FilterCriteria defines filtering options for the list command.
// All filters are ANDed together.
type FilterCriteria struct {
	SinceTimestampMs int64  // Unix timestamp in milliseconds, 0 = no filter
	UntilTimestampMs int64  // Unix timestamp in milliseconds, 0 = no filter
	AuthorGlob       string // Glob pattern for author, empty = no filter
	NameGlob         string // Glob pattern for name, empty = no filter
}

// matchesFilter returns true if the record matches all filter criteria.
func (fc *FilterCriteria) matchesFilter(r *gallery.ArtRecord) bool {
	// Time filtering
	if fc.SinceTimestampMs > 0 && r.CreatedAt < fc.SinceTimestampMs {
		return false
	}
	if fc.UntilTimestampMs > 0 && r.CreatedAt > fc.UntilTimestampMs {
		return false
	}

	if fc.AuthorGlob != "" {
		matched, err := filepath.Match(fc.AuthorGlob, r.Author)
		if err != nil || !matched {
			return false
		}
	}
	if fc.NameGlob != "" {
		matched, err := filepath.Match(fc.NameGlob, r.Name)
		if err != nil || !matched {
			return false
		}
	}

	return true
}

// ListRecords walks every page of records and writes the matching ones to the provided writer.
// Applies filter criteria if provided.
func ListRecords(ctx context.Context, records Lister, req ListRequest, format OutputFormat, filters *FilterCriteria, w io.Writer) error {
	if format != OutputFormatDefault && format != OutputFormatJSONL {
		return fmt.Errorf("unknown output format: %s", format)
	}

	var matched []*gallery.ArtRecord
	opts := gallery.ListOptions{Size: req.Size, Limit: req.PageSize, Oldest: req.Oldest}
walk:
	for {
		page, err := records.ListRecords(ctx, opts)
		if err != nil {
			return fmt.Errorf("failed to list records: %w", err)
		}
		for _, r := range page.Records {
			if filters != nil && !filters.matchesFilter(r) {
				continue
			}
			matched = append(matched, r)
			if req.Max > 0 && len(matched) >= req.Max {
				break walk
			}
		}
		if page.NextCursor == "" {
			break
		}
		opts.Cursor = page.NextCursor
	}

	switch format {
	case OutputFormatJSONL:
		if err := FormatJSONL(w, matched); err != nil {
			return fmt.Errorf("failed to format JSONL output: %w", err)
		}
	default:
		FormatTable(w, matched)
	}

	return nil
}
