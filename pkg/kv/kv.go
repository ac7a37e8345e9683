// Package kv adapts ordered byte key-value engines to typed tuple keys.
//
// An Engine is any ordered, crash-consistent store that can put, get and
// delete single keys and scan a half-open byte range in either direction.
// Store wraps an Engine with keys.Key addressing, a per-call timeout and
// error classification: every engine failure surfaces as
// ErrStoreUnavailable, and absence is reported as a boolean, never as an
// error. Paginator builds bounded pages with opaque cursors on top of
// Store.Scan.
//
// Engines live in sub-packages: memkv (in-memory B-tree), rediskv (Redis
// sorted set) and pebblekv (Pebble LSM on disk).
package kv

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Engine.Get for an absent key. Store never
	// returns it.
	ErrNotFound = errors.New("key not found")

	// ErrClosed is returned by engines used after Close.
	ErrClosed = errors.New("engine closed")

	// ErrStoreUnavailable wraps every failure of the underlying engine,
	// including per-call timeouts.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrInvalidCursor is returned for a cursor that does not decode to a key.
	ErrInvalidCursor = errors.New("invalid cursor")
)

// Span is the half-open byte range [Start, End). A nil End means the end of
// the key space.
type Span struct {
	Start []byte
	End   []byte
}

// RawEntry is a key-value pair as stored by an Engine.
type RawEntry struct {
	Key   []byte
	Value []byte
}

// Engine is an ordered byte key-value store. Implementations must be safe
// for concurrent use and must not retain or expose caller-owned slices.
type Engine interface {
	// Set upserts a value. The last writer wins.
	Set(ctx context.Context, key, value []byte) error

	// Get returns the stored value or ErrNotFound.
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Delete removes a key. Deleting an absent key succeeds.
	Delete(ctx context.Context, key []byte) error

	// Scan returns up to limit entries inside span, ascending from
	// span.Start or, when reverse is set, descending from just below
	// span.End. A limit of zero or less returns every entry in the span.
	Scan(ctx context.Context, span Span, limit int, reverse bool) ([]RawEntry, error)

	// Ping verifies the engine is reachable.
	Ping(ctx context.Context) error

	// Close releases the engine's resources.
	Close() error
}
