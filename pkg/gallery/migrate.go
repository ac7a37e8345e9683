package gallery

import (
	"context"
	"fmt"

	"github.com/dyluth/easel/pkg/kv"
)

// DefaultMigrateBatch is the scan batch size used when none is given.
const DefaultMigrateBatch = 100

// MigrateStats summarizes a migration pass.
type MigrateStats struct {
	Scanned  int // entries examined under the record prefix
	Migrated int // legacy records rewritten to the current layout
	Skipped  int // entries that were not records or did not decode
}

// Migrate rewrites every legacy record into the current layout. For each
// one it registers the size, writes the current key, then deletes the
// legacy key, so a record is never absent from both. An interrupted pass
// leaves at worst a record stored under both keys; running again finishes
// it. Running after completion changes nothing.
//
// Legacy keys sort before current keys, so the pass stops at the first
// current-layout entry.
func (g *Gallery) Migrate(ctx context.Context, batch int) (MigrateStats, error) {
	if batch <= 0 {
		batch = DefaultMigrateBatch
	}

	var stats MigrateStats
	var after []byte
	for {
		entries, hasMore, err := g.store.Scan(ctx, kv.ScanRequest{
			Prefix:     ScanPrefix(0),
			StartAfter: after,
			Limit:      batch,
		})
		if err != nil {
			return stats, fmt.Errorf("failed to scan records: %w", err)
		}

		for _, e := range entries {
			rk, ok := ParseRecordKey(e.Key)
			if ok && rk.Generation == GenerationSized {
				g.logMigration(stats)
				return stats, nil
			}
			stats.Scanned++
			after = e.Raw
			if !ok {
				g.logger.Warn("skipping unrecognised entry", "key", fmt.Sprintf("%x", e.Raw))
				stats.Skipped++
				continue
			}

			migrated, err := g.migrateOne(ctx, rk, e.Value)
			if err != nil {
				return stats, err
			}
			if migrated {
				stats.Migrated++
			} else {
				stats.Skipped++
			}
		}

		if !hasMore {
			g.logMigration(stats)
			return stats, nil
		}
	}
}

func (g *Gallery) migrateOne(ctx context.Context, legacy RecordKey, value []byte) (bool, error) {
	rec, err := DecodeRecord(legacy, value, g.defaultSize)
	if err != nil {
		g.logger.Warn("skipping undecodable record", "key", legacy.String(), "value", describeValue(value), "error", err)
		return false, nil
	}

	rec.Generation = GenerationSized
	encoded, err := EncodeRecord(rec)
	if err != nil {
		return false, err
	}

	if err := g.sizes.register(ctx, rec.Size); err != nil {
		return false, err
	}
	if err := g.store.Put(ctx, SizedKey(rec.Size, rec.ID), encoded); err != nil {
		return false, fmt.Errorf("failed to write migrated record %s: %w", rec.ID, err)
	}
	if err := g.store.Delete(ctx, legacy.Key()); err != nil {
		return false, fmt.Errorf("failed to delete legacy record %s: %w", rec.ID, err)
	}

	g.logger.Debug("migrated record", "id", rec.ID, "size", rec.Size)
	if g.observer != nil {
		g.observer.RecordsMigrated(1)
	}
	return true, nil
}

func (g *Gallery) logMigration(stats MigrateStats) {
	g.logger.Info("migration pass complete",
		"scanned", stats.Scanned,
		"migrated", stats.Migrated,
		"skipped", stats.Skipped)
}
