// Package pebblekv is a durable kv.Engine on a local Pebble database.
package pebblekv

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/dyluth/easel/pkg/kv"
)

// Engine wraps a pebble.DB. Writes are synced before they return.
type Engine struct {
	// mu guards closed; pebble panics on use after Close.
	mu     sync.RWMutex
	db     *pebble.DB
	closed bool
}

var _ kv.Engine = (*Engine)(nil)

// Open opens or creates the database in dir. A nil fs selects the
// operating system's file system.
func Open(dir string, fs vfs.FS) (*Engine, error) {
	if dir == "" {
		return nil, fmt.Errorf("pebble directory cannot be empty")
	}
	if fs == nil {
		fs = vfs.Default
	}
	db, err := pebble.Open(dir, &pebble.Options{FS: fs})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", dir, err)
	}
	return &Engine{db: db}, nil
}

// Set implements kv.Engine.
func (e *Engine) Set(ctx context.Context, key, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return kv.ErrClosed
	}
	return e.db.Set(key, value, pebble.Sync)
}

// Get implements kv.Engine.
func (e *Engine) Get(ctx context.Context, key []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, kv.ErrClosed
	}
	v, closer, err := e.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return append([]byte{}, v...), nil
}

// Delete implements kv.Engine.
func (e *Engine) Delete(ctx context.Context, key []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return kv.ErrClosed
	}
	return e.db.Delete(key, pebble.Sync)
}

// Scan implements kv.Engine.
func (e *Engine) Scan(ctx context.Context, span kv.Span, limit int, reverse bool) ([]kv.RawEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, kv.ErrClosed
	}

	iter, err := e.db.NewIter(&pebble.IterOptions{
		LowerBound: span.Start,
		UpperBound: span.End,
	})
	if err != nil {
		return nil, err
	}

	var out []kv.RawEntry
	step := iter.Next
	valid := iter.First()
	if reverse {
		step = iter.Prev
		valid = iter.Last()
	}
	for ; valid; valid = step() {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, kv.RawEntry{
			Key:   append([]byte{}, iter.Key()...),
			Value: append([]byte{}, iter.Value()...),
		})
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

// Ping implements kv.Engine.
func (e *Engine) Ping(ctx context.Context) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return kv.ErrClosed
	}
	return ctx.Err()
}

// Close flushes and closes the database. Closing twice is a no-op.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return e.db.Close()
}
