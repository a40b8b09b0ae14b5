// Package app assembles the FAQ engine components from configuration for the
// command-line and HTTP entry points.
package app

import (
	"context"
	"fmt"

	"github.com/spherical-ai/spherical/libs/faq-engine/internal/assistant"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/cache"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/config"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/domain"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/fallback"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/ingest"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/matching"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/observability"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/reference"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/storage"
)

// NewLogger builds the process logger from the observability settings.
func NewLogger(cfg *config.Config, serviceName string) *observability.Logger {
	if serviceName == "" {
		serviceName = cfg.Observability.ServiceName
	}
	return observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: serviceName,
	})
}

// LoadTable loads the reference table from the configured dataset source.
func LoadTable(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*reference.Table, error) {
	log := logger.WithOperation("load_table")

	var (
		table *reference.Table
		err   error
	)
	switch cfg.Dataset.Source {
	case config.SourceCSV:
		table, err = ingest.LoadTable(cfg.Dataset.Path)
	case config.SourceSQLite, config.SourcePostgres:
		table, err = loadFromDatabase(ctx, cfg)
	default:
		err = fmt.Errorf("unsupported dataset source: %s", cfg.Dataset.Source)
	}
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("source", cfg.Dataset.Source).
		Int("records", table.Len()).
		Int("categories", len(table.DistinctCategories())).
		Msg("Reference table loaded")

	return table, nil
}

func loadFromDatabase(ctx context.Context, cfg *config.Config) (*reference.Table, error) {
	dbCfg := cfg.Database
	dbCfg.Driver = cfg.Dataset.Source

	db, err := storage.Open(ctx, dbCfg)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	repo := storage.NewReferenceRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		return nil, err
	}
	return repo.LoadTable(ctx)
}

// ImportTable replaces the stored reference table with table and checks that
// the database holds exactly the imported rows afterwards.
func ImportTable(ctx context.Context, dbCfg config.DatabaseConfig, table *reference.Table, progress func(done int), logger *observability.Logger) (*storage.ImportResult, error) {
	log := logger.WithOperation("import_table")

	db, err := storage.Open(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	repo := storage.NewReferenceRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		return nil, err
	}

	result, err := repo.ReplaceAll(ctx, table.Records(), progress)
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}

	stored, err := repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	if stored != result.Rows {
		return nil, domain.IOError(fmt.Sprintf("imported %d rows but %s holds %d", result.Rows, dbCfg.Driver, stored), nil)
	}

	log.Info().
		Str("driver", dbCfg.Driver).
		Str("batch_id", result.BatchID.String()).
		Int("rows", stored).
		Msg("Reference table imported")

	return result, nil
}

// NewCache returns the fallback answer cache, or nil when caching is off.
func NewCache(ctx context.Context, cfg config.CacheConfig) (cache.Client, error) {
	switch cfg.Driver {
	case config.CacheNone, "":
		return nil, nil
	case config.CacheMemory:
		return cache.NewMemoryClient(cfg.MaxEntries), nil
	case config.CacheRedis:
		client, err := cache.NewRedisClient(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported cache driver: %s", cfg.Driver)
	}
}

// Runtime is an assembled assistant plus the resources it holds. Cache is nil
// when the answer cache is off.
type Runtime struct {
	Service *assistant.Service
	Cache   *fallback.CacheInvalidator
	Logger  *observability.Logger
	cache   cache.Client
}

// Close releases the cache connection.
func (r *Runtime) Close() error {
	if r.cache != nil {
		return r.cache.Close()
	}
	return nil
}

// NewRuntime wires the full query path. It fails before loading anything when
// the fallback credential is missing.
func NewRuntime(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*Runtime, error) {
	if err := cfg.RequireCredential(); err != nil {
		return nil, err
	}

	table, err := LoadTable(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("load reference table: %w", err)
	}

	cacheClient, err := NewCache(ctx, cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}

	generator, err := fallback.New(cfg.Fallback, cacheClient, cfg.Cache.TTL, logger)
	if err != nil {
		if cacheClient != nil {
			_ = cacheClient.Close()
		}
		return nil, fmt.Errorf("create fallback: %w", err)
	}

	engine := matching.NewEngine(matching.EngineConfig{Threshold: cfg.Matching.Threshold})
	service := assistant.NewService(table, engine, generator, assistant.Config{
		SystemPrompt:    cfg.Fallback.SystemPrompt,
		MaxOutputTokens: cfg.Fallback.MaxOutputTokens,
		Timeout:         cfg.Fallback.Timeout,
	}, logger)

	rt := &Runtime{
		Service: service,
		Logger:  logger,
		cache:   cacheClient,
	}
	if cacheClient != nil {
		rt.Cache = fallback.NewCacheInvalidator(cacheClient, cfg.Fallback, logger)
	}
	return rt, nil
}
