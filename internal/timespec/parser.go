// Package timespec parses the --since and --until flags of the list command.
package timespec

import (
	"fmt"
	"time"
)

// Parse turns spec into a Unix timestamp in milliseconds. spec is either an
// RFC3339 timestamp ("2025-10-29T13:00:00Z"), a calendar date
// ("2025-10-29", midnight UTC) or a Go duration ("1h30m") meaning that long
// before now.
func Parse(spec string, now time.Time) (int64, error) {
	if spec == "" {
		return 0, fmt.Errorf("empty time specification")
	}

	if t, err := time.Parse(time.RFC3339, spec); err == nil {
		return t.UnixMilli(), nil
	}
	if t, err := time.Parse(time.DateOnly, spec); err == nil {
		return t.UnixMilli(), nil
	}
	if d, err := time.ParseDuration(spec); err == nil {
		if d < 0 {
			return 0, fmt.Errorf("negative duration: %s", spec)
		}
		return now.Add(-d).UnixMilli(), nil
	}

	return 0, fmt.Errorf("invalid time specification: %s (use duration like '1h30m', a date like '2025-10-29' or RFC3339 like '2025-10-29T13:00:00Z')", spec)
}

// ParseRange parses both bounds. A zero bound means "unbounded"; when both
// are set since must be strictly before until.
func ParseRange(since, until string, now time.Time) (sinceMS, untilMS int64, err error) {
	if since != "" {
		sinceMS, err = Parse(since, now)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid --since: %w", err)
		}
	}

	if until != "" {
		untilMS, err = Parse(until, now)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid --until: %w", err)
		}
	}

	if sinceMS > 0 && untilMS > 0 && sinceMS >= untilMS {
		return 0, 0, fmt.Errorf("--since must be before --until")
	}

	return sinceMS, untilMS, nil
}
