package main

import (
	"context"
	"time"

	"github.com/jonathan/resume-analyzer/internal/cache"
	"github.com/jonathan/resume-analyzer/internal/config"
	"github.com/jonathan/resume-analyzer/internal/db"
	"github.com/jonathan/resume-analyzer/internal/docstore"
	"github.com/jonathan/resume-analyzer/internal/ingestion"
	"github.com/jonathan/resume-analyzer/internal/observability"
	"github.com/jonathan/resume-analyzer/internal/pipeline"
	"github.com/jonathan/resume-analyzer/internal/ranking"
	"github.com/jonathan/resume-analyzer/internal/rendering"
	"go.uber.org/zap"
)

const connectTimeout = 10 * time.Second

// backends holds the optional storage connections. Any of them may be nil.
type backends struct {
	db    *db.DB
	docs  *docstore.Store
	cache *cache.ResultCache
}

// connectBackends opens whatever cfg configures. A backend that cannot be
// reached is logged and skipped so the analyzer still runs without it.
func connectBackends(ctx context.Context, cfg *config.Config, log *zap.Logger, withCache bool) *backends {
	b := &backends{}
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Warn("database unavailable, continuing without persistence", zap.Error(err))
		} else if err := database.Migrate(ctx); err != nil {
			log.Warn("database migration failed, continuing without persistence", zap.Error(err))
			database.Close()
		} else {
			b.db = database
		}
	}

	if cfg.DevMode && cfg.Mongo.URI != "" {
		docs, err := docstore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			log.Warn("diagnostics store unavailable", zap.Error(err))
		} else {
			b.docs = docs
		}
	}

	if withCache && cfg.Redis.Addr != "" {
		rc, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.TTL)
		if err != nil {
			log.Warn("result cache unavailable", zap.Error(err))
		} else {
			b.cache = rc
		}
	}
	return b
}

// diagnosticsStore prefers Mongo and falls back to Postgres
func (b *backends) diagnosticsStore() observability.DiagnosticsStore {
	if b.docs != nil {
		return b.docs
	}
	if b.db != nil {
		return b.db
	}
	return nil
}

func (b *backends) Close() {
	if b.cache != nil {
		_ = b.cache.Close()
	}
	if b.docs != nil {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		_ = b.docs.Close(ctx)
	}
	if b.db != nil {
		b.db.Close()
	}
}

// loadRules returns the configured rule set, or the built-in one
func loadRules(cfg *config.Config) (ranking.RuleSet, error) {
	if cfg.RulesPath == "" {
		return ranking.DefaultRules(), nil
	}
	return ranking.LoadRules(cfg.RulesPath)
}

// buildAnalyzer wires the extraction chain, scorer, report generator and
// diagnostics publisher from cfg
func buildAnalyzer(cfg *config.Config, log *zap.Logger, store observability.DiagnosticsStore) (*pipeline.Analyzer, error) {
	rules, err := loadRules(cfg)
	if err != nil {
		return nil, err
	}

	var publisher *observability.Publisher
	if store != nil {
		publisher = observability.NewPublisher(observability.PublisherOptions{
			DevMode:    cfg.DevMode,
			Collection: cfg.Mongo.Collection,
			Store:      store,
			Logger:     log,
		})
	}

	return pipeline.New(pipeline.Options{
		Chain: ingestion.NewChain(ingestion.Options{
			Capabilities: ingestion.DefaultCapabilities(),
			Logger:       log,
			MaxFileSize:  cfg.MaxFileSize,
		}),
		Scorer: ranking.NewScorer(rules),
		Generator: rendering.NewGenerator(rendering.Options{
			FontPath: cfg.Report.FontPath,
			Compress: cfg.Report.Compress,
			Logger:   log,
		}),
		Publisher:    publisher,
		PreviewLimit: cfg.PreviewLimit,
		Logger:       log,
	}), nil
}

// openInput reads a local file or downloads urlStr
func openInput(ctx context.Context, cfg *config.Config, log *zap.Logger, path, urlStr string) (ingestion.File, error) {
	if urlStr == "" {
		return ingestion.OpenFile(path)
	}
	file, _, err := ingestion.FetchFile(ctx, urlStr, ingestion.FetchOptions{
		UseBrowser: cfg.Fetch.UseBrowser,
		Timeout:    cfg.Fetch.Timeout,
		MaxBytes:   cfg.MaxFileSize,
		Logger:     log,
	})
	return file, err
}
