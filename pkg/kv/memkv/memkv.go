// Package memkv is an in-memory kv.Engine backed by a B-tree. It is used for
// tests and single-process deployments that do not need durability.
package memkv

import (
	"bytes"
	"context"
	"sync"

	"github.com/dyluth/easel/pkg/kv"
	"github.com/google/btree"
)

// The degree of the entry btree.
const btreeDegree = 32

type item struct {
	key   []byte
	value []byte
}

// Less implements the btree.Item interface.
func (a *item) Less(b btree.Item) bool {
	return bytes.Compare(a.key, b.(*item).key) < 0
}

// Engine is a goroutine-safe ordered map.
type Engine struct {
	mu     sync.RWMutex
	tree   *btree.BTree
	closed bool
}

var _ kv.Engine = (*Engine)(nil)

// New returns an empty engine.
func New() *Engine {
	return &Engine{tree: btree.New(btreeDegree)}
}

// Set implements kv.Engine.
func (e *Engine) Set(ctx context.Context, key, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return kv.ErrClosed
	}
	e.tree.ReplaceOrInsert(&item{key: clone(key), value: clone(value)})
	return nil
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
	found := e.tree.Get(&item{key: key})
	if found == nil {
		return nil, kv.ErrNotFound
	}
	return clone(found.(*item).value), nil
}

// Delete implements kv.Engine.
func (e *Engine) Delete(ctx context.Context, key []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return kv.ErrClosed
	}
	e.tree.Delete(&item{key: key})
	return nil
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

	var out []kv.RawEntry
	collect := func(it *item) bool {
		out = append(out, kv.RawEntry{Key: clone(it.key), Value: clone(it.value)})
		return limit <= 0 || len(out) < limit
	}

	if !reverse {
		e.tree.AscendGreaterOrEqual(&item{key: span.Start}, func(i btree.Item) bool {
			it := i.(*item)
			if span.End != nil && bytes.Compare(it.key, span.End) >= 0 {
				return false
			}
			return collect(it)
		})
		return out, nil
	}

	descend := func(i btree.Item) bool {
		it := i.(*item)
		if bytes.Compare(it.key, span.Start) < 0 {
			return false
		}
		if span.End != nil && bytes.Equal(it.key, span.End) {
			return true
		}
		return collect(it)
	}
	if span.End == nil {
		e.tree.Descend(descend)
	} else {
		e.tree.DescendLessOrEqual(&item{key: span.End}, descend)
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

// Close drops the contents. Later calls fail with kv.ErrClosed.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.tree.Clear(false)
	return nil
}

// Len returns the number of stored keys.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tree.Len()
}

func clone(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return append([]byte(nil), b...)
}
