package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dyluth/easel/internal/clock"
	"github.com/dyluth/easel/internal/config"
	"github.com/dyluth/easel/internal/metrics"
	"github.com/dyluth/easel/internal/printer"
	"github.com/dyluth/easel/pkg/gallery"
	"github.com/dyluth/easel/pkg/kv"
	"github.com/dyluth/easel/pkg/kv/memkv"
	"github.com/dyluth/easel/pkg/kv/pebblekv"
	"github.com/dyluth/easel/pkg/kv/rediskv"
	"github.com/redis/go-redis/v9"
)

// backend is an opened store with the gallery on top of it.
type backend struct {
	gallery *gallery.Gallery
	metrics *metrics.Metrics
}

// Close releases the engine.
func (b *backend) Close() error {
	return b.gallery.Close()
}

// openBackend opens the configured engine and verifies it answers.
func openBackend(ctx context.Context, cfg *config.EaselConfig, logger *slog.Logger) (*backend, error) {
	engine, err := openEngine(cfg.Store)
	if err != nil {
		return nil, printer.ErrorWithContext(
			"failed to open store",
			err.Error(),
			storeContext(cfg.Store),
			[]string{"Check the store section of easel.yml"},
		)
	}

	m := metrics.New()
	store := kv.NewStore(engine, kv.Options{
		Timeout:  cfg.Store.Timeout,
		Observer: m,
	})
	g := gallery.New(store, gallery.Options{
		Clock:            clock.Real(),
		Logger:           logger,
		Observer:         m,
		DefaultSize:      cfg.Records.DefaultSize,
		MaxSize:          cfg.Records.MaxSize,
		DefaultPageLimit: cfg.Records.DefaultPageLimit,
		MaxPageLimit:     cfg.Records.MaxPageLimit,
	})

	if err := g.Ping(ctx); err != nil {
		g.Close()
		return nil, printer.ErrorWithContext(
			"store unreachable",
			fmt.Sprintf("Error: %v", err),
			storeContext(cfg.Store),
			[]string{
				"Check that the store is running and reachable",
				fmt.Sprintf("Set %s to point at another Redis server", config.EnvRedisURL),
			},
		)
	}

	return &backend{gallery: g, metrics: m}, nil
}

func openEngine(sc *config.StoreConfig) (kv.Engine, error) {
	switch sc.Backend {
	case config.BackendMemory:
		return memkv.New(), nil
	case config.BackendRedis:
		opts, err := redis.ParseURL(sc.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		return rediskv.New(opts, sc.RedisKeyPrefix)
	case config.BackendPebble:
		return pebblekv.Open(sc.PebbleDir, nil)
	default:
		return nil, fmt.Errorf("unknown backend: %s", sc.Backend)
	}
}

func storeContext(sc *config.StoreConfig) map[string]string {
	ctx := map[string]string{"Backend": sc.Backend}
	switch sc.Backend {
	case config.BackendRedis:
		ctx["Redis URL"] = sc.RedisURL
		ctx["Key prefix"] = sc.RedisKeyPrefix
	case config.BackendPebble:
		ctx["Directory"] = sc.PebbleDir
	}
	return ctx
}

// openForInspection loads the configuration and opens the backend for a
// one-shot command. The memory engine starts empty, so inspecting it is
// almost certainly a mistake and gets a warning.
func openForInspection(ctx context.Context) (*backend, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Store.Backend == config.BackendMemory {
		printer.Warning("store backend is memory; it holds no records between runs\n")
	}
	return openBackend(ctx, cfg, logger)
}
