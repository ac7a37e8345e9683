package gallery

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/dyluth/easel/pkg/keys"
	"github.com/dyluth/easel/pkg/kv"
)

// sizeRegistry records every size a current-layout record has been written
// with. Lookups by id probe one key per registered size.
type sizeRegistry struct {
	store       *kv.Store
	defaultSize int
	logger      *slog.Logger

	// registered caches sizes this process has already written a marker
	// for. Markers are never removed, so the cache never goes stale.
	registered sync.Map // map[int]struct{}
}

// register writes the marker for size unless this process already has.
// It must complete before any record of that size is written.
func (r *sizeRegistry) register(ctx context.Context, size int) error {
	if _, ok := r.registered.Load(size); ok {
		return nil
	}
	if err := r.store.Put(ctx, SizeKey(size), []byte{}); err != nil {
		return fmt.Errorf("failed to register size %d: %w", size, err)
	}
	r.registered.Store(size, struct{}{})
	return nil
}

// known returns every registered size plus the default size, ascending.
func (r *sizeRegistry) known(ctx context.Context) ([]int, error) {
	entries, _, err := r.store.Scan(ctx, kv.ScanRequest{Prefix: keys.Make(SizeNamespace)})
	if err != nil {
		return nil, fmt.Errorf("failed to read size registry: %w", err)
	}

	seen := map[int]bool{r.defaultSize: true}
	sizes := []int{r.defaultSize}
	for _, e := range entries {
		size, ok := parseSizeKey(e)
		if !ok {
			r.logger.Warn("skipping unrecognised size registry entry", "key", fmt.Sprintf("%x", e.Raw))
			continue
		}
		if !seen[size] {
			seen[size] = true
			sizes = append(sizes, size)
		}
	}
	sort.Ints(sizes)
	return sizes, nil
}

func parseSizeKey(e kv.Entry) (int, bool) {
	if len(e.Key) != 2 {
		return 0, false
	}
	size, ok := e.Key[1].Int64()
	if !ok || size <= 0 || size > maxStoredSize {
		return 0, false
	}
	return int(size), true
}
