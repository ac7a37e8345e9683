package kv_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dyluth/easel/pkg/keys"
	"github.com/dyluth/easel/pkg/kv"
	"github.com/dyluth/easel/pkg/kv/memkv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowEngine blocks every call until its context is done.
type slowEngine struct{ kv.Engine }

func (slowEngine) Get(ctx context.Context, _ []byte) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// failingEngine fails every call.
type failingEngine struct{ kv.Engine }

var errBoom = errors.New("boom")

func (failingEngine) Set(context.Context, []byte, []byte) error { return errBoom }
func (failingEngine) Scan(context.Context, kv.Span, int, bool) ([]kv.RawEntry, error) {
	return nil, errBoom
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
	errs  int
}

func (o *recordingObserver) ObserveStoreCall(op string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, op)
	if err != nil {
		o.errs++
	}
}

func newStore(t *testing.T) *kv.Store {
	t.Helper()
	s := kv.NewStore(memkv.New(), kv.Options{})
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStorePutGetDelete(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	k := keys.Make("art", "abc")

	_, ok, err := s.Get(ctx, k)
	require.NoError(t, err)
	assert.False(t, ok, "absence is not an error")

	require.NoError(t, s.Put(ctx, k, []byte("v")))
	v, ok, err := s.Get(ctx, k)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	require.NoError(t, s.Delete(ctx, k))
	require.NoError(t, s.Delete(ctx, k))
	_, ok, err = s.Get(ctx, k)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreScanPrefix(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, keys.Make("art", 5, "a"), nil))
	require.NoError(t, s.Put(ctx, keys.Make("art", 5, "b"), nil))
	require.NoError(t, s.Put(ctx, keys.Make("art", 8, "c"), nil))
	require.NoError(t, s.Put(ctx, keys.Make("art_size", 5), nil))
	require.NoError(t, s.Put(ctx, keys.Make("other", "x"), nil))

	t.Run("prefix bounds the scan", func(t *testing.T) {
		got, hasMore, err := s.Scan(ctx, kv.ScanRequest{Prefix: keys.Make("art")})
		require.NoError(t, err)
		assert.False(t, hasMore)
		require.Len(t, got, 3)
		assert.True(t, got[0].Key.Equal(keys.Make("art", 5, "a")))
		assert.True(t, got[2].Key.Equal(keys.Make("art", 8, "c")))
	})

	t.Run("narrower prefix", func(t *testing.T) {
		got, _, err := s.Scan(ctx, kv.ScanRequest{Prefix: keys.Make("art", 5)})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("limit reports more", func(t *testing.T) {
		got, hasMore, err := s.Scan(ctx, kv.ScanRequest{Prefix: keys.Make("art"), Limit: 2})
		require.NoError(t, err)
		assert.True(t, hasMore)
		assert.Len(t, got, 2)

		got, hasMore, err = s.Scan(ctx, kv.ScanRequest{Prefix: keys.Make("art"), Limit: 3})
		require.NoError(t, err)
		assert.False(t, hasMore, "exact fit has nothing more")
		assert.Len(t, got, 3)
	})

	t.Run("start after", func(t *testing.T) {
		after := keys.Make("art", 5, "a").Encode()
		got, _, err := s.Scan(ctx, kv.ScanRequest{Prefix: keys.Make("art"), StartAfter: after})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.True(t, got[0].Key.Equal(keys.Make("art", 5, "b")))
	})

	t.Run("reverse start after", func(t *testing.T) {
		after := keys.Make("art", 8, "c").Encode()
		got, _, err := s.Scan(ctx, kv.ScanRequest{Prefix: keys.Make("art"), StartAfter: after, Reverse: true})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.True(t, got[0].Key.Equal(keys.Make("art", 5, "b")))
	})

	t.Run("start after outside prefix", func(t *testing.T) {
		after := keys.Make("zzz").Encode()
		got, _, err := s.Scan(ctx, kv.ScanRequest{Prefix: keys.Make("art"), StartAfter: after})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestStoreScanKeepsUndecodableKeys(t *testing.T) {
	engine := memkv.New()
	s := kv.NewStore(engine, kv.Options{})
	ctx := context.Background()

	good := keys.Make("art", "a").Encode()
	bad := append(keys.Make("art").Encode(), 0xfe)
	require.NoError(t, engine.Set(ctx, good, nil))
	require.NoError(t, engine.Set(ctx, bad, nil))

	got, _, err := s.Scan(ctx, kv.ScanRequest{Prefix: keys.Make("art")})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.NotNil(t, got[0].Key)
	assert.Nil(t, got[1].Key)
	assert.Equal(t, bad, got[1].Raw)
}

func TestStoreTimeout(t *testing.T) {
	s := kv.NewStore(slowEngine{memkv.New()}, kv.Options{Timeout: 10 * time.Millisecond})
	_, _, err := s.Get(context.Background(), keys.Make("art", "x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, kv.ErrStoreUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStoreClassifiesEngineErrors(t *testing.T) {
	obs := &recordingObserver{}
	s := kv.NewStore(failingEngine{memkv.New()}, kv.Options{Observer: obs})
	ctx := context.Background()

	err := s.Put(ctx, keys.Make("art", "x"), nil)
	assert.ErrorIs(t, err, kv.ErrStoreUnavailable)
	assert.ErrorIs(t, err, errBoom)

	_, _, err = s.Scan(ctx, kv.ScanRequest{Prefix: keys.Make("art")})
	assert.ErrorIs(t, err, kv.ErrStoreUnavailable)

	assert.Equal(t, []string{"put", "scan"}, obs.calls)
	assert.Equal(t, 2, obs.errs)
}

func TestStoreObserverSeesMissAsSuccess(t *testing.T) {
	obs := &recordingObserver{}
	s := kv.NewStore(memkv.New(), kv.Options{Observer: obs})

	_, ok, err := s.Get(context.Background(), keys.Make("art", "x"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"get"}, obs.calls)
	assert.Zero(t, obs.errs)
}
