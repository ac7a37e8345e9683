package gallery

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dyluth/easel/internal/clock"
	"github.com/dyluth/easel/pkg/kv"
	"github.com/google/uuid"
)

const (
	// DefaultSize is the square size of records created without one.
	DefaultSize = 5

	// DefaultMaxSize is the largest size accepted unless configured otherwise.
	DefaultMaxSize = 64
)

// Observer is told about record lifecycle events. Implementations must be
// safe for concurrent use.
type Observer interface {
	RecordCreated(size int)
	RecordDeleted()
	RecordsMigrated(n int)
}

// Options configures a Gallery. Zero values select defaults.
type Options struct {
	Clock            clock.Clock // record timestamps; defaults to the system clock
	Logger           *slog.Logger
	Observer         Observer
	DefaultSize      int
	MaxSize          int
	DefaultPageLimit int
	MaxPageLimit     int
}

// Gallery creates, lists, reads and deletes art records.
// It is safe for concurrent use.
type Gallery struct {
	store       *kv.Store
	pages       *kv.Paginator
	sizes       *sizeRegistry
	clock       clock.Clock
	logger      *slog.Logger
	observer    Observer
	defaultSize int
	maxSize     int
}

// New returns a Gallery over store.
func New(store *kv.Store, opts Options) *Gallery {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxSize
	}
	if opts.DefaultSize <= 0 {
		opts.DefaultSize = DefaultSize
	}
	logger := opts.Logger.With("component", "gallery")

	return &Gallery{
		store: store,
		pages: kv.NewPaginator(store, opts.DefaultPageLimit, opts.MaxPageLimit),
		sizes: &sizeRegistry{
			store:       store,
			defaultSize: opts.DefaultSize,
			logger:      logger,
		},
		clock:       opts.Clock,
		logger:      logger,
		observer:    opts.Observer,
		defaultSize: opts.DefaultSize,
		maxSize:     opts.MaxSize,
	}
}

// CreateRecord validates req, assigns an id and timestamp, and stores the
// record under its current-layout key.
func (g *Gallery) CreateRecord(ctx context.Context, req CreateRequest) (*ArtRecord, error) {
	if err := req.Validate(g.maxSize); err != nil {
		return nil, err
	}

	size := g.defaultSize
	if req.Size != nil {
		size = *req.Size
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate record id: %w", err)
	}

	rec := &ArtRecord{
		ID:         id.String(),
		Name:       req.Name,
		Author:     req.Author,
		Mapping:    append([]byte(nil), req.Mapping...),
		Size:       size,
		CreatedAt:  g.clock.Now().UnixMilli(),
		Generation: GenerationSized,
	}
	value, err := EncodeRecord(rec)
	if err != nil {
		return nil, err
	}

	if err := g.sizes.register(ctx, size); err != nil {
		return nil, err
	}
	if err := g.store.Put(ctx, SizedKey(size, rec.ID), value); err != nil {
		return nil, fmt.Errorf("failed to store record: %w", err)
	}

	g.logger.Info("stored record", "id", rec.ID, "name", rec.Name, "author", rec.Author, "size", size)
	if g.observer != nil {
		g.observer.RecordCreated(size)
	}
	return rec, nil
}

// ListOptions selects a page of records.
type ListOptions struct {
	Limit  int    // page size; defaulted and clamped by the paginator
	Cursor string // NextCursor of the previous page
	Size   int    // when positive, only current-layout records of this size
	Oldest bool   // list oldest first instead of newest first
}

// ListResult is one page of records. NextCursor is empty on the last page.
type ListResult struct {
	Records    []*ArtRecord
	NextCursor string
}

// ListRecords returns one page of records. Entries that are not records, or
// whose values do not decode, are skipped with a warning, so a page may hold
// fewer records than the limit while NextCursor is still set.
func (g *Gallery) ListRecords(ctx context.Context, opts ListOptions) (*ListResult, error) {
	if opts.Size < 0 {
		return nil, invalid("size", "must be a positive integer")
	}

	page, err := g.pages.Page(ctx, kv.PageRequest{
		Prefix:  ScanPrefix(opts.Size),
		Cursor:  opts.Cursor,
		Limit:   opts.Limit,
		Reverse: !opts.Oldest,
	})
	if err != nil {
		if isInvalidCursor(err) {
			return nil, &ValidationError{Field: "cursor", Reason: "malformed", Err: err}
		}
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	result := &ListResult{
		Records:    make([]*ArtRecord, 0, len(page.Entries)),
		NextCursor: page.NextCursor,
	}
	for _, e := range page.Entries {
		if rec, ok := g.decodeEntry(e); ok {
			result.Records = append(result.Records, rec)
		}
	}
	return result, nil
}

func (g *Gallery) decodeEntry(e kv.Entry) (*ArtRecord, bool) {
	rk, ok := ParseRecordKey(e.Key)
	if !ok {
		g.logger.Warn("skipping unrecognised entry", "key", fmt.Sprintf("%x", e.Raw))
		return nil, false
	}
	rec, err := DecodeRecord(rk, e.Value, g.defaultSize)
	if err != nil {
		g.logger.Warn("skipping undecodable record", "key", rk.String(), "value", describeValue(e.Value), "error", err)
		return nil, false
	}
	return rec, true
}

// GetRecord returns the record with id under whichever layout holds it.
// ok is false when no layout does.
func (g *Gallery) GetRecord(ctx context.Context, id string) (rec *ArtRecord, ok bool, err error) {
	found, err := g.resolve(ctx, id, false)
	if err != nil {
		return nil, false, err
	}
	if len(found) == 0 {
		return nil, false, nil
	}
	rec, err = DecodeRecord(found[0].key, found[0].value, g.defaultSize)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

// DeleteRecord removes the record with id from every layout holding it.
// deleted is false when none did; deleting twice is not an error.
func (g *Gallery) DeleteRecord(ctx context.Context, id string) (deleted bool, err error) {
	found, err := g.resolve(ctx, id, true)
	if err != nil {
		return false, err
	}
	for _, p := range found {
		if err := g.store.Delete(ctx, p.key.Key()); err != nil {
			return false, fmt.Errorf("failed to delete %s: %w", p.key, err)
		}
	}
	if len(found) == 0 {
		return false, nil
	}

	g.logger.Info("deleted record", "id", id, "generation", found[0].key.Generation.String())
	if g.observer != nil {
		g.observer.RecordDeleted()
	}
	return true, nil
}

// KnownSizes returns the sizes lookups probe, ascending.
func (g *Gallery) KnownSizes(ctx context.Context) ([]int, error) {
	return g.sizes.known(ctx)
}

// Ping checks that the store is reachable.
func (g *Gallery) Ping(ctx context.Context) error {
	return g.store.Ping(ctx)
}

// Close closes the underlying store.
func (g *Gallery) Close() error {
	return g.store.Close()
}
