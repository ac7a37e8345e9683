package kv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dyluth/easel/pkg/keys"
)

// Observer receives the outcome of every engine call made through a Store.
// err is nil on success; a Get of an absent key counts as a success.
type Observer interface {
	ObserveStoreCall(op string, elapsed time.Duration, err error)
}

// Options configures a Store.
type Options struct {
	// Timeout bounds each engine call. Zero disables the bound.
	Timeout time.Duration

	// Observer, if set, is told about every engine call.
	Observer Observer
}

// Entry is a scanned key-value pair. Key is nil when Raw does not decode as
// a tuple key; such entries still advance pagination.
type Entry struct {
	Key   keys.Key
	Raw   []byte
	Value []byte
}

// ScanRequest describes a prefix range scan.
type ScanRequest struct {
	Prefix     keys.Key
	StartAfter []byte // encoded key; resume strictly after it, in scan direction
	Limit      int    // zero or less means no bound
	Reverse    bool
}

// Store is the typed-key view of an Engine.
// It is safe for concurrent use when the Engine is.
type Store struct {
	engine   Engine
	timeout  time.Duration
	observer Observer
}

// NewStore wraps engine.
func NewStore(engine Engine, opts Options) *Store {
	return &Store{
		engine:   engine,
		timeout:  opts.Timeout,
		observer: opts.Observer,
	}
}

// Put upserts value under key.
func (s *Store) Put(ctx context.Context, key keys.Key, value []byte) error {
	return s.call(ctx, "put", func(ctx context.Context) error {
		return s.engine.Set(ctx, key.Encode(), value)
	})
}

// Get returns the value under key. ok is false when the key is absent.
func (s *Store) Get(ctx context.Context, key keys.Key) (value []byte, ok bool, err error) {
	err = s.call(ctx, "get", func(ctx context.Context) error {
		v, err := s.engine.Get(ctx, key.Encode())
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		value, ok = v, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return value, ok, nil
}

// Delete removes key. Deleting an absent key succeeds.
func (s *Store) Delete(ctx context.Context, key keys.Key) error {
	return s.call(ctx, "delete", func(ctx context.Context) error {
		return s.engine.Delete(ctx, key.Encode())
	})
}

// Scan returns entries whose keys extend req.Prefix, in ascending key order
// or descending when req.Reverse is set. hasMore reports that at least one
// more matching entry exists past the last one returned.
func (s *Store) Scan(ctx context.Context, req ScanRequest) (entries []Entry, hasMore bool, err error) {
	prefix := req.Prefix.Encode()
	span := Span{Start: prefix, End: keys.PrefixEnd(prefix)}
	if req.StartAfter != nil {
		after := req.StartAfter
		if req.Reverse {
			if span.End == nil || bytes.Compare(after, span.End) < 0 {
				span.End = after
			}
		} else if next := keys.Next(after); bytes.Compare(next, span.Start) > 0 {
			span.Start = next
		}
	}
	if span.End != nil && bytes.Compare(span.Start, span.End) >= 0 {
		return nil, false, nil
	}

	fetch := req.Limit
	if fetch > 0 {
		fetch++
	}

	var raw []RawEntry
	err = s.call(ctx, "scan", func(ctx context.Context) error {
		var err error
		raw, err = s.engine.Scan(ctx, span, fetch, req.Reverse)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	if req.Limit > 0 && len(raw) > req.Limit {
		raw = raw[:req.Limit]
		hasMore = true
	}

	entries = make([]Entry, 0, len(raw))
	for _, r := range raw {
		e := Entry{Raw: r.Key, Value: r.Value}
		if k, err := keys.Decode(r.Key); err == nil {
			e.Key = k
		}
		entries = append(entries, e)
	}
	return entries, hasMore, nil
}

// Ping checks that the engine is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.call(ctx, "ping", s.engine.Ping)
}

// Close closes the underlying engine.
func (s *Store) Close() error {
	return s.engine.Close()
}

func (s *Store) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(ctx)
	if s.observer != nil {
		s.observer.ObserveStoreCall(op, time.Since(start), err)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
	}
	return nil
}
