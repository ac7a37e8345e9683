package kv

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"

	"github.com/dyluth/easel/pkg/keys"
)

const (
	// DefaultPageLimit applies when a page request has no positive limit.
	DefaultPageLimit = 20

	// MaxPageLimit caps the number of entries in a single page.
	MaxPageLimit = 200
)

// PageRequest asks for one page of a prefix scan.
type PageRequest struct {
	Prefix  keys.Key
	Cursor  string // NextCursor of the previous page, empty for the first page
	Limit   int
	Reverse bool
}

// Page is a bounded slice of a prefix scan. NextCursor is empty on the
// final page.
type Page struct {
	Entries    []Entry
	NextCursor string
}

// Paginator turns prefix scans into cursor-linked pages. A cursor encodes
// the last key yielded, so resuming never repeats a returned key and picks
// up keys inserted past it since the previous page.
type Paginator struct {
	store        *Store
	defaultLimit int
	maxLimit     int
}

// NewPaginator returns a Paginator over store. Non-positive limits fall back
// to DefaultPageLimit and MaxPageLimit.
func NewPaginator(store *Store, defaultLimit, maxLimit int) *Paginator {
	if maxLimit <= 0 {
		maxLimit = MaxPageLimit
	}
	if defaultLimit <= 0 {
		defaultLimit = DefaultPageLimit
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	return &Paginator{store: store, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// Limit normalizes a requested page size.
func (p *Paginator) Limit(requested int) int {
	switch {
	case requested <= 0:
		return p.defaultLimit
	case requested > p.maxLimit:
		return p.maxLimit
	}
	return requested
}

// Page fetches one page. A cursor is only meaningful with the prefix and
// direction that produced it; others resume at an arbitrary point.
func (p *Paginator) Page(ctx context.Context, req PageRequest) (Page, error) {
	var after []byte
	if req.Cursor != "" {
		raw, err := DecodeCursor(req.Cursor)
		if err != nil {
			return Page{}, err
		}
		if !bytes.HasPrefix(raw, req.Prefix.Encode()) {
			return Page{}, fmt.Errorf("%w: outside of scanned prefix", ErrInvalidCursor)
		}
		after = raw
	}

	entries, hasMore, err := p.store.Scan(ctx, ScanRequest{
		Prefix:     req.Prefix,
		StartAfter: after,
		Limit:      p.Limit(req.Limit),
		Reverse:    req.Reverse,
	})
	if err != nil {
		return Page{}, err
	}

	page := Page{Entries: entries}
	if hasMore && len(entries) > 0 {
		page.NextCursor = EncodeCursor(entries[len(entries)-1].Raw)
	}
	return page, nil
}

// EncodeCursor renders an encoded key as a URL-safe token.
func EncodeCursor(rawKey []byte) string {
	return base64.RawURLEncoding.EncodeToString(rawKey)
}

// DecodeCursor parses a token produced by EncodeCursor back into the raw
// key it names. The key need not decode as a tuple: pages may end on an
// entry written by something else.
func DecodeCursor(cursor string) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidCursor)
	}
	return raw, nil
}
