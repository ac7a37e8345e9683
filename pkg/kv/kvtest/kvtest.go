// Package kvtest holds a conformance suite shared by every kv.Engine
// implementation.
package kvtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/dyluth/easel/pkg/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunEngineTests exercises the kv.Engine contract. newEngine must return a
// fresh, empty engine; the suite closes it.
func RunEngineTests(t *testing.T, newEngine func(t *testing.T) kv.Engine) {
	t.Run("get missing key", func(t *testing.T) {
		e := open(t, newEngine)
		_, err := e.Get(context.Background(), []byte("missing"))
		assert.ErrorIs(t, err, kv.ErrNotFound)
	})

	t.Run("set then get", func(t *testing.T) {
		e := open(t, newEngine)
		ctx := context.Background()

		require.NoError(t, e.Set(ctx, []byte("k"), []byte("v1")))
		got, err := e.Get(ctx, []byte("k"))
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), got)

		require.NoError(t, e.Set(ctx, []byte("k"), []byte("v2")))
		got, err = e.Get(ctx, []byte("k"))
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), got, "last writer wins")
	})

	t.Run("empty value is stored", func(t *testing.T) {
		e := open(t, newEngine)
		ctx := context.Background()

		require.NoError(t, e.Set(ctx, []byte("marker"), []byte{}))
		got, err := e.Get(ctx, []byte("marker"))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("binary keys", func(t *testing.T) {
		e := open(t, newEngine)
		ctx := context.Background()

		keys := [][]byte{{0x00}, {0x00, 0x01}, {0x12, 0x00, 0xff}, {0xff}, {0xff, 0xff}}
		for i, k := range keys {
			require.NoError(t, e.Set(ctx, k, []byte{byte(i)}))
		}
		for i, k := range keys {
			got, err := e.Get(ctx, k)
			require.NoError(t, err)
			assert.Equal(t, []byte{byte(i)}, got)
		}

		all, err := e.Scan(ctx, kv.Span{Start: nil}, 0, false)
		require.NoError(t, err)
		require.Len(t, all, len(keys))
		for i, entry := range all {
			assert.Equal(t, keys[i], entry.Key)
		}
	})

	t.Run("caller slices are not retained", func(t *testing.T) {
		e := open(t, newEngine)
		ctx := context.Background()

		key := []byte("k")
		value := []byte("value")
		require.NoError(t, e.Set(ctx, key, value))
		value[0] = 'X'
		key[0] = 'z'

		got, err := e.Get(ctx, []byte("k"))
		require.NoError(t, err)
		assert.Equal(t, []byte("value"), got)

		got[0] = 'Y'
		again, err := e.Get(ctx, []byte("k"))
		require.NoError(t, err)
		assert.Equal(t, []byte("value"), again)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		e := open(t, newEngine)
		ctx := context.Background()

		require.NoError(t, e.Set(ctx, []byte("k"), []byte("v")))
		require.NoError(t, e.Delete(ctx, []byte("k")))
		require.NoError(t, e.Delete(ctx, []byte("k")))
		require.NoError(t, e.Delete(ctx, []byte("never-written")))

		_, err := e.Get(ctx, []byte("k"))
		assert.ErrorIs(t, err, kv.ErrNotFound)
	})

	t.Run("scan bounds and direction", func(t *testing.T) {
		e := open(t, newEngine)
		ctx := context.Background()
		fill(t, e, 10)

		span := kv.Span{Start: key(2), End: key(7)}

		forward, err := e.Scan(ctx, span, 0, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"k02", "k03", "k04", "k05", "k06"}, keysOf(forward))

		reverse, err := e.Scan(ctx, span, 0, true)
		require.NoError(t, err)
		assert.Equal(t, []string{"k06", "k05", "k04", "k03", "k02"}, keysOf(reverse))

		limited, err := e.Scan(ctx, span, 2, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"k02", "k03"}, keysOf(limited))

		limitedReverse, err := e.Scan(ctx, span, 2, true)
		require.NoError(t, err)
		assert.Equal(t, []string{"k06", "k05"}, keysOf(limitedReverse))
	})

	t.Run("scan with open end", func(t *testing.T) {
		e := open(t, newEngine)
		ctx := context.Background()
		fill(t, e, 5)

		tail, err := e.Scan(ctx, kv.Span{Start: key(3)}, 0, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"k03", "k04"}, keysOf(tail))

		newest, err := e.Scan(ctx, kv.Span{Start: key(1)}, 1, true)
		require.NoError(t, err)
		assert.Equal(t, []string{"k04"}, keysOf(newest))
	})

	t.Run("scan empty span", func(t *testing.T) {
		e := open(t, newEngine)
		ctx := context.Background()
		fill(t, e, 3)

		got, err := e.Scan(ctx, kv.Span{Start: []byte("x"), End: []byte("y")}, 0, false)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("scan returns values", func(t *testing.T) {
		e := open(t, newEngine)
		ctx := context.Background()
		fill(t, e, 3)

		got, err := e.Scan(ctx, kv.Span{Start: key(0), End: key(3)}, 0, false)
		require.NoError(t, err)
		require.Len(t, got, 3)
		for i, entry := range got {
			assert.Equal(t, []byte(fmt.Sprintf("v%02d", i)), entry.Value)
		}
	})

	t.Run("ping", func(t *testing.T) {
		e := open(t, newEngine)
		assert.NoError(t, e.Ping(context.Background()))
	})

	t.Run("cancelled context", func(t *testing.T) {
		e := open(t, newEngine)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.Error(t, e.Set(ctx, []byte("k"), []byte("v")))
	})
}

func open(t *testing.T, newEngine func(t *testing.T) kv.Engine) kv.Engine {
	t.Helper()
	e := newEngine(t)
	t.Cleanup(func() { e.Close() })
	return e
}

func key(i int) []byte {
	return []byte(fmt.Sprintf("k%02d", i))
}

func fill(t *testing.T, e kv.Engine, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, e.Set(context.Background(), key(i), []byte(fmt.Sprintf("v%02d", i))))
	}
}

func keysOf(entries []kv.RawEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = string(e.Key)
	}
	return out
}
