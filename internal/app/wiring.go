package app

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/mdb-curator/internal/data/db"
	"github.com/yungbote/mdb-curator/internal/data/graph"
	"github.com/yungbote/mdb-curator/internal/data/repos/audit"
	"github.com/yungbote/mdb-curator/internal/modules/curation"
	"github.com/yungbote/mdb-curator/internal/modules/similarity"
	"github.com/yungbote/mdb-curator/internal/platform/embedcache"
	"github.com/yungbote/mdb-curator/internal/platform/logger"
	"github.com/yungbote/mdb-curator/internal/platform/neo4jdb"
	"github.com/yungbote/mdb-curator/internal/platform/openai"
	"github.com/yungbote/mdb-curator/internal/services"
)

// Core is everything a curation front end needs: the graph, the scorer and the service.
type Core struct {
	Log      *logger.Logger
	Cfg      Config
	Store    graph.Store
	Curation services.CurationService

	closers []func(ctx context.Context) error
}

func NewCore(ctx context.Context, log *logger.Logger, cfg Config) (*Core, error) {
	c := &Core{Log: log, Cfg: cfg}

	store, err := c.wireGraph(ctx)
	if err != nil {
		c.Close(ctx)
		return nil, err
	}
	c.Store = store

	scorer, err := c.wireScorer()
	if err != nil {
		c.Close(ctx)
		return nil, err
	}

	var events audit.CurationEventRepo
	if cfg.Audit.Enabled() {
		gdb, err := db.Open(log, cfg.Audit)
		if err != nil {
			c.Close(ctx)
			return nil, fmt.Errorf("init audit db: %w", err)
		}
		c.closers = append(c.closers, func(context.Context) error { return closeGorm(gdb) })
		events = audit.NewCurationEventRepo(gdb, log)
	} else {
		log.Info("Audit trail disabled (no AUDIT_DB_DSN or AUDIT_SQLITE_PATH)")
	}

	alloc := curation.NewAllocator(log, curation.AllocatorOptions{MaxAttempts: cfg.NanoIDTries})
	c.Curation = services.NewCurationService(log, store, alloc, scorer, services.CurationOptions{
		Threshold: cfg.Synonyms.Threshold,
		Events:    events,
	})
	return c, nil
}

func (c *Core) wireGraph(ctx context.Context) (graph.Store, error) {
	switch c.Cfg.GraphBackend {
	case GraphBackendMemory:
		c.Log.Warn("Using in-memory graph store; nothing is persisted")
		return graph.NewMemStore(), nil
	default:
		client, err := neo4jdb.New(c.Log, c.Cfg.Neo4j)
		if err != nil {
			return nil, fmt.Errorf("init neo4j: %w", err)
		}
		store, err := graph.NewNeo4jStore(ctx, client, c.Log)
		if err != nil {
			_ = client.Close(ctx)
			return nil, err
		}
		c.closers = append(c.closers, store.Close)
		return store, nil
	}
}

func (c *Core) wireScorer() (curation.Scorer, error) {
	if c.Cfg.Synonyms.SimilarityMode == SimilarityLexical {
		c.Log.Info("Synonym similarity: lexical (Jaro-Winkler)")
		return similarity.NewLexicalScorer(), nil
	}

	embedder, err := openai.NewClient(c.Log, c.Cfg.OpenAI)
	if err != nil {
		return nil, fmt.Errorf("init openai: %w", err)
	}

	var cache embedcache.Cache
	if c.Cfg.RedisAddr != "" {
		cache, err = embedcache.NewRedisCache(c.Log, embedcache.RedisConfig{
			Addr:  c.Cfg.RedisAddr,
			TTL:   c.Cfg.Synonyms.CacheTTL,
			Model: c.Cfg.OpenAI.EmbedModel,
		})
		if err != nil {
			return nil, fmt.Errorf("init embedding cache: %w", err)
		}
	} else {
		cache = embedcache.NewMemoryCache(c.Cfg.OpenAI.EmbedModel, c.Cfg.Synonyms.CacheEntries)
	}
	c.closers = append(c.closers, func(context.Context) error { return cache.Close() })

	c.Log.Info("Synonym similarity: embeddings", "model", c.Cfg.OpenAI.EmbedModel, "redis", c.Cfg.RedisAddr != "")
	return similarity.NewEmbeddingScorer(c.Log, embedder, similarity.EmbeddingOptions{
		Cache:       cache,
		BatchSize:   c.Cfg.Synonyms.BatchSize,
		Concurrency: c.Cfg.Synonyms.Concurrency,
	}), nil
}

// Close releases resources in reverse order of acquisition.
func (c *Core) Close(ctx context.Context) error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

func closeGorm(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
