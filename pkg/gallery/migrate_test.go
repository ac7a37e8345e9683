package gallery

import (
	"context"
	"testing"

	"github.com/dyluth/easel/pkg/keys"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate(t *testing.T) {
	f := setupGallery(t)
	ctx := context.Background()

	var legacyIDs []string
	for i := 0; i < 5; i++ {
		id := uuid.NewString()
		legacyIDs = append(legacyIDs, id)
		seedLegacy(t, f, id, "old")
	}
	current := f.create(t, req("new", 8))

	before := listAll(t, f.g, ListOptions{})

	stats, err := f.g.Migrate(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, MigrateStats{Scanned: 5, Migrated: 5}, stats)
	assert.Equal(t, 5, f.observer.migrated)

	for _, id := range legacyIDs {
		_, ok, err := f.store.Get(ctx, LegacyKey(id))
		require.NoError(t, err)
		assert.False(t, ok, "legacy key removed")

		rec, ok, err := f.g.GetRecord(ctx, id)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, GenerationSized, rec.Generation)
		assert.Equal(t, DefaultSize, rec.Size)
		assert.Equal(t, "old", rec.Name)
		assert.Equal(t, int64(1_600_000_000_000), rec.CreatedAt)
	}

	after := listAll(t, f.g, ListOptions{})
	assert.ElementsMatch(t, ids(before), ids(after), "migration neither loses nor duplicates records")

	five := listAll(t, f.g, ListOptions{Size: DefaultSize})
	assert.Len(t, five, 5, "migrated records join their size partition")

	_, ok, err := f.g.GetRecord(ctx, current.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMigrateIsIdempotent(t *testing.T) {
	f := setupGallery(t)
	ctx := context.Background()
	seedLegacy(t, f, uuid.NewString(), "old")

	_, err := f.g.Migrate(ctx, 0)
	require.NoError(t, err)

	stats, err := f.g.Migrate(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, MigrateStats{}, stats)
}

func TestMigrateFinishesInterruptedRecord(t *testing.T) {
	f := setupGallery(t)
	ctx := context.Background()
	id := uuid.NewString()
	seedLegacy(t, f, id, "old")

	// Simulate a pass that wrote the current key but died before deleting
	// the legacy one.
	legacy, ok, err := f.store.Get(ctx, LegacyKey(id))
	require.NoError(t, err)
	require.True(t, ok)
	rec, err := DecodeRecord(RecordKey{Generation: GenerationLegacy, ID: id}, legacy, DefaultSize)
	require.NoError(t, err)
	encoded, err := EncodeRecord(rec)
	require.NoError(t, err)
	require.NoError(t, f.store.Put(ctx, SizedKey(DefaultSize, id), encoded))

	stats, err := f.g.Migrate(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Migrated)

	all := listAll(t, f.g, ListOptions{})
	assert.Equal(t, []string{id}, ids(all))
}

func TestDeleteDuringMigrationRemovesBothCopies(t *testing.T) {
	f := setupGallery(t)
	ctx := context.Background()
	id := uuid.NewString()
	seedLegacy(t, f, id, "old")
	require.NoError(t, f.store.Put(ctx, SizedKey(DefaultSize, id), mustEncode(t, id)))

	deleted, err := f.g.DeleteRecord(ctx, id)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, ok, err := f.g.GetRecord(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMigrateSkipsUnrecognised(t *testing.T) {
	f := setupGallery(t)
	ctx := context.Background()
	require.NoError(t, f.store.Put(ctx, keys.Make("art", "a", "b"), nil))
	require.NoError(t, f.store.Put(ctx, LegacyKey("broken"), []byte{0xff}))
	seedLegacy(t, f, uuid.NewString(), "ok")

	stats, err := f.g.Migrate(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Scanned)
	assert.Equal(t, 1, stats.Migrated)
	assert.Equal(t, 2, stats.Skipped)
	assert.Contains(t, f.logs.String(), `key="(\"art\", \"broken\")" value=ff`)
}

func mustEncode(t *testing.T, id string) []byte {
	t.Helper()
	b, err := EncodeRecord(&ArtRecord{ID: id, Name: "n", Author: "a", Mapping: []byte(`[1]`), Size: DefaultSize})
	require.NoError(t, err)
	return b
}
