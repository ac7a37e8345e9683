package hoard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dyluth/easel/pkg/gallery"
)

// FormatTable writes records as a formatted table to the provided writer.
// The table includes columns: ID, GEN, SIZE, NAME, AUTHOR, AGE, and MAPPING (truncated).
// Returns the number of records formatted.
func FormatTable(w io.Writer, records []*gallery.ArtRecord) int {
	if len(records) == 0 {
		fmt.Fprintf(w, "No art found\n")
		return 0
	}

	// Print header row
	fmt.Fprintf(w, "%-10s %-4s %-4s %-20s %-14s %-8s %s\n",
		"ID", "GEN", "SIZE", "NAME", "AUTHOR", "AGE", "MAPPING")
	fmt.Fprintf(w, "%-10s %-4s %-4s %-20s %-14s %-8s %s\n",
		"----------", "----", "----", "--------------------", "--------------", "--------", "----------------------------------------")

	// Print data rows
	for _, r := range records {
		fmt.Fprintf(w, "%-10s %-4s %-4d %-20s %-14s %-8s %s\n",
			formatID(r.ID),
			formatGeneration(r.Generation),
			r.Size,
			truncate(r.Name, 20),
			truncate(r.Author, 14),
			formatTimestamp(r.CreatedAt),
			formatMapping(r.Mapping),
		)
	}

	// Print count
	countMsg := "record"
	if len(records) != 1 {
		countMsg = "records"
	}
	fmt.Fprintf(w, "\n%d %s found\n", len(records), countMsg)

	return len(records)
}

// FormatJSONL writes records as line-delimited JSON (JSONL) to the provided writer.
// Each record is written as a single JSON object on its own line.
// This format is ideal for streaming and processing with tools like jq.
func FormatJSONL(w io.Writer, records []*gallery.ArtRecord) error {
	for _, record := range records {
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal record to JSON: %w", err)
		}

		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}

	return nil
}

// FormatSingleJSON writes a single record as pretty-printed JSON to the provided writer.
// Used in get mode to display complete record details.
func FormatSingleJSON(w io.Writer, record *gallery.ArtRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record to JSON: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}

	// Add newline for clean output
	fmt.Fprintln(w)

	return nil
}

// formatID shows the last 8 characters of a record ID for compact display.
// Ids created close together share their leading timestamp digits.
func formatID(id string) string {
	if len(id) > 8 {
		return id[len(id)-8:]
	}
	return id
}

// formatGeneration shows which key layout a record was read from.
func formatGeneration(g gallery.Generation) string {
	if g == gallery.GenerationLegacy {
		return "1"
	}
	return "2"
}

// truncate shortens s to at most n characters for table display.
// Empty values return "-".
func truncate(s string, n int) string {
	if s == "" {
		return "-"
	}
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n-3]) + "..."
	}
	return s
}

// formatMapping compacts the mapping to one line with max 40 characters for table display.
func formatMapping(m json.RawMessage) string {
	if len(m) == 0 {
		return "-"
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, m); err != nil {
		return truncate(string(m), 40)
	}
	return truncate(compact.String(), 40)
}

// formatTimestamp formats Unix timestamp in milliseconds to human-readable time.
// Shows relative time like "2m ago", "1h ago", etc.
func formatTimestamp(timestampMs int64) string {
	if timestampMs == 0 {
		return "-"
	}

	diff := time.Since(time.UnixMilli(timestampMs))

	// Format as relative time
	switch {
	case diff < time.Minute:
		return fmt.Sprintf("%ds ago", int(diff.Seconds()))
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
}
