package hoard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/easel/pkg/gallery"
	"github.com/dyluth/easel/pkg/kv"
	"github.com/dyluth/easel/pkg/kv/rediskv"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupGallery creates a gallery on a miniredis-backed engine
func setupGallery(t *testing.T) *gallery.Gallery {
	t.Helper()
	mr := miniredis.RunT(t)

	engine, err := rediskv.New(&redis.Options{Addr: mr.Addr()}, "test")
	require.NoError(t, err)

	g := gallery.New(kv.NewStore(engine, kv.Options{}), gallery.Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	t.Cleanup(func() { g.Close() })
	return g
}

func create(t *testing.T, g *gallery.Gallery, name, author string, size int) *gallery.ArtRecord {
	t.Helper()
	rec, err := g.CreateRecord(context.Background(), gallery.CreateRequest{
		Name:    name,
		Author:  author,
		Mapping: json.RawMessage(`[1]`),
		Size:    &size,
	})
	require.NoError(t, err)
	return rec
}

func jsonlNames(t *testing.T, out string) []string {
	t.Helper()
	var names []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		var r gallery.ArtRecord
		require.NoError(t, json.Unmarshal([]byte(line), &r))
		names = append(names, r.Name)
	}
	return names
}

func TestListRecords(t *testing.T) {
	g := setupGallery(t)
	ctx := context.Background()
	create(t, g, "one", "ada", 5)
	create(t, g, "two", "grace", 5)
	create(t, g, "three", "ada", 8)

	t.Run("walks every page", func(t *testing.T) {
		var buf bytes.Buffer
		err := ListRecords(ctx, g, ListRequest{PageSize: 1, Oldest: true}, OutputFormatJSONL, nil, &buf)
		require.NoError(t, err)
		assert.Equal(t, []string{"one", "two", "three"}, jsonlNames(t, buf.String()))
	})

	t.Run("size filter", func(t *testing.T) {
		var buf bytes.Buffer
		err := ListRecords(ctx, g, ListRequest{Size: 8}, OutputFormatJSONL, nil, &buf)
		require.NoError(t, err)
		assert.Equal(t, []string{"three"}, jsonlNames(t, buf.String()))
	})

	t.Run("author glob", func(t *testing.T) {
		var buf bytes.Buffer
		err := ListRecords(ctx, g, ListRequest{Oldest: true}, OutputFormatJSONL, &FilterCriteria{AuthorGlob: "a*"}, &buf)
		require.NoError(t, err)
		assert.Equal(t, []string{"one", "three"}, jsonlNames(t, buf.String()))
	})

	t.Run("name glob and max", func(t *testing.T) {
		var buf bytes.Buffer
		err := ListRecords(ctx, g, ListRequest{Max: 1, PageSize: 1}, OutputFormatJSONL, &FilterCriteria{NameGlob: "t*"}, &buf)
		require.NoError(t, err)
		assert.Equal(t, []string{"three"}, jsonlNames(t, buf.String()), "newest first")
	})

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, ListRecords(ctx, g, ListRequest{}, OutputFormatDefault, nil, &buf))
		assert.Contains(t, buf.String(), "3 records found")
	})

	t.Run("unknown format", func(t *testing.T) {
		err := ListRecords(ctx, g, ListRequest{}, OutputFormat("xml"), nil, io.Discard)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unknown output format")
	})
}

func TestMatchesFilter(t *testing.T) {
	r := &gallery.ArtRecord{Name: "heart", Author: "ada", CreatedAt: 1000}

	assert.True(t, (&FilterCriteria{}).matchesFilter(r))
	assert.True(t, (&FilterCriteria{SinceTimestampMs: 1000, UntilTimestampMs: 1000}).matchesFilter(r))
	assert.False(t, (&FilterCriteria{SinceTimestampMs: 1001}).matchesFilter(r))
	assert.False(t, (&FilterCriteria{UntilTimestampMs: 999}).matchesFilter(r))
	assert.False(t, (&FilterCriteria{AuthorGlob: "g*"}).matchesFilter(r))
	assert.False(t, (&FilterCriteria{NameGlob: "[invalid"}).matchesFilter(r))
}

type failingLister struct{}

func (failingLister) ListRecords(context.Context, gallery.ListOptions) (*gallery.ListResult, error) {
	return nil, errors.New("store down")
}

func TestListRecordsStoreError(t *testing.T) {
	err := ListRecords(context.Background(), failingLister{}, ListRequest{}, OutputFormatDefault, nil, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list records")
}
