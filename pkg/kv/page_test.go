package kv_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/dyluth/easel/pkg/keys"
	"github.com/dyluth/easel/pkg/kv"
	"github.com/dyluth/easel/pkg/kv/memkv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, s *kv.Store, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, s.Put(context.Background(), keys.Make("art", fmt.Sprintf("id%02d", i)), nil))
	}
}

func idsOf(entries []kv.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i], _ = e.Key[len(e.Key)-1].Str()
	}
	return out
}

func TestPaginatorLimit(t *testing.T) {
	p := kv.NewPaginator(newStore(t), 0, 0)
	assert.Equal(t, kv.DefaultPageLimit, p.Limit(0))
	assert.Equal(t, kv.DefaultPageLimit, p.Limit(-3))
	assert.Equal(t, 7, p.Limit(7))
	assert.Equal(t, kv.MaxPageLimit, p.Limit(kv.MaxPageLimit+1))

	small := kv.NewPaginator(newStore(t), 50, 10)
	assert.Equal(t, 10, small.Limit(0), "default is capped by max")
}

func TestPaginatorWalksAllPages(t *testing.T) {
	s := newStore(t)
	seed(t, s, 3)
	p := kv.NewPaginator(s, 0, 0)
	ctx := context.Background()

	var seen []string
	cursor := ""
	for pages := 0; ; pages++ {
		require.Less(t, pages, 10, "pagination did not terminate")
		page, err := p.Page(ctx, kv.PageRequest{Prefix: keys.Make("art"), Cursor: cursor, Limit: 1})
		require.NoError(t, err)
		require.Len(t, page.Entries, 1)
		seen = append(seen, idsOf(page.Entries)...)
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	assert.Equal(t, []string{"id00", "id01", "id02"}, seen)
}

func TestPaginatorReverse(t *testing.T) {
	s := newStore(t)
	seed(t, s, 3)
	p := kv.NewPaginator(s, 0, 0)
	ctx := context.Background()

	first, err := p.Page(ctx, kv.PageRequest{Prefix: keys.Make("art"), Limit: 2, Reverse: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"id02", "id01"}, idsOf(first.Entries))
	require.NotEmpty(t, first.NextCursor)

	second, err := p.Page(ctx, kv.PageRequest{Prefix: keys.Make("art"), Cursor: first.NextCursor, Limit: 2, Reverse: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"id00"}, idsOf(second.Entries))
	assert.Empty(t, second.NextCursor)
}

func TestPaginatorEmpty(t *testing.T) {
	p := kv.NewPaginator(newStore(t), 0, 0)
	page, err := p.Page(context.Background(), kv.PageRequest{Prefix: keys.Make("art")})
	require.NoError(t, err)
	assert.Empty(t, page.Entries)
	assert.Empty(t, page.NextCursor)
}

func TestPaginatorSeesLaterInserts(t *testing.T) {
	s := newStore(t)
	seed(t, s, 2)
	p := kv.NewPaginator(s, 0, 0)
	ctx := context.Background()

	first, err := p.Page(ctx, kv.PageRequest{Prefix: keys.Make("art"), Limit: 1})
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, keys.Make("art", "id99"), nil))

	rest, err := p.Page(ctx, kv.PageRequest{Prefix: keys.Make("art"), Cursor: first.NextCursor, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"id01", "id99"}, idsOf(rest.Entries))
}

func TestPaginatorResumesAfterUndecodableKey(t *testing.T) {
	engine := memkv.New()
	s := kv.NewStore(engine, kv.Options{})
	ctx := context.Background()
	prefix := keys.Make("art")

	require.NoError(t, engine.Set(ctx, append(prefix.Encode(), 0x00), nil))
	require.NoError(t, s.Put(ctx, keys.Make("art", "a"), nil))

	p := kv.NewPaginator(s, 0, 0)
	first, err := p.Page(ctx, kv.PageRequest{Prefix: prefix, Limit: 1})
	require.NoError(t, err)
	require.Len(t, first.Entries, 1)
	assert.Nil(t, first.Entries[0].Key)
	require.NotEmpty(t, first.NextCursor)

	second, err := p.Page(ctx, kv.PageRequest{Prefix: prefix, Cursor: first.NextCursor, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, idsOf(second.Entries))
}

func TestInvalidCursor(t *testing.T) {
	p := kv.NewPaginator(newStore(t), 0, 0)
	ctx := context.Background()

	for name, cursor := range map[string]string{
		"not base64":    "!!!",
		"other prefix":  kv.EncodeCursor(keys.Make("zzz", "a").Encode()),
		"padding chars": "YQ==",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := p.Page(ctx, kv.PageRequest{Prefix: keys.Make("art"), Cursor: cursor})
			assert.ErrorIs(t, err, kv.ErrInvalidCursor)
		})
	}
}

func TestCursorRoundTrip(t *testing.T) {
	raw := keys.Make("art", 5, "x").Encode()
	got, err := kv.DecodeCursor(kv.EncodeCursor(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	_, err = kv.DecodeCursor("")
	assert.ErrorIs(t, err, kv.ErrInvalidCursor)
}
