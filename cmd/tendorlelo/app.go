package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Dev7-web/tendorlelo/internal/config"
	"github.com/Dev7-web/tendorlelo/internal/db"
	dbBadger "github.com/Dev7-web/tendorlelo/internal/db/badger"
	dbRedis "github.com/Dev7-web/tendorlelo/internal/db/redis"
	"github.com/Dev7-web/tendorlelo/internal/domain"
	logpkg "github.com/Dev7-web/tendorlelo/internal/logger"
	"github.com/Dev7-web/tendorlelo/internal/matching"
	"github.com/Dev7-web/tendorlelo/internal/metrics"
	companyrepo "github.com/Dev7-web/tendorlelo/internal/repository/company"
	"github.com/Dev7-web/tendorlelo/internal/repository/embcache"
	historyrepo "github.com/Dev7-web/tendorlelo/internal/repository/history"
	tenderrepo "github.com/Dev7-web/tendorlelo/internal/repository/tender"
	openaiTransport "github.com/Dev7-web/tendorlelo/internal/transport/openai"
	catalogusecase "github.com/Dev7-web/tendorlelo/internal/usecase/catalog"
	embeddingusecase "github.com/Dev7-web/tendorlelo/internal/usecase/embedding"
	healthusecase "github.com/Dev7-web/tendorlelo/internal/usecase/health"
	searchusecase "github.com/Dev7-web/tendorlelo/internal/usecase/search"
)

// app is the composition root shared by every subcommand.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	store   db.Store
	catalog *catalogusecase.Service
	search  *searchusecase.Service
	health  *healthusecase.Service
}

func newApp(ctx context.Context, env string) (*app, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	store, err := openStore(cfg.Database, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		_ = logger.Sync()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database",
		zap.String("driver", cfg.Database.Driver),
		zap.Strings("addrs", cfg.Database.Addrs),
	)

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Timeout:    time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		Logger:     logger,
	})
	docEmbedder := buildEmbedder(base, cfg, cfg.Embedding.DocumentInstruction, store, logger)
	queryEmbedder := buildEmbedder(base, cfg, cfg.Embedding.QueryInstruction, store, logger)

	// A nil interface, not a typed nil pointer, disables extraction.
	var extractor domain.MetadataExtractor
	if cfg.Extractor.Model != "" {
		extractor = openaiTransport.NewExtractor(&openaiTransport.ExtractorConfig{
			APIKey:  cfg.Extractor.APIKey,
			BaseURL: cfg.Extractor.BaseURL,
			Model:   cfg.Extractor.Model,
			Timeout: time.Duration(cfg.Extractor.TimeoutSec) * time.Second,
			Retry:   cfg.Extractor.Retry,
			Logger:  logger,
		})
	}
	logger.Info("Providers configured",
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Bool("embedding_cache", cfg.Embedding.Cache.Enabled),
		zap.String("extractor_model", cfg.Extractor.Model),
	)

	prefix := cfg.Storage.KeyPrefix
	tenders := tenderrepo.New(store, prefix, logger)
	companies := companyrepo.New(store, prefix, logger)
	history := historyrepo.New(store, prefix, cfg.Matching.HistoryRetention, logger)

	scorer := matching.NewScorer(nil, cfg.Matching.Weights, cfg.Matching.Boost)

	a := &app{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		catalog: catalogusecase.New(tenders, companies, history, extractor, docEmbedder),
		search: searchusecase.New(tenders, companies, history, queryEmbedder, scorer, searchusecase.Config{
			CandidateCap: cfg.Matching.CandidateCap,
			Workers:      cfg.Matching.Workers,
			HistoryTopN:  cfg.Matching.HistoryTopN,
		}),
		health: healthusecase.New(store, 5*time.Second,
			healthusecase.Probe{Name: "embedding", Check: base},
		),
	}
	return a, nil
}

func (a *app) close() {
	a.store.Close()
	_ = a.logger.Sync()
}

// context returns ctx carrying the application logger.
func (a *app) context(ctx context.Context) context.Context {
	return logpkg.ContextWithLogger(ctx, a.logger)
}

func openStore(cfg config.DatabaseConfig, logger *zap.Logger) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverRedis:
		s, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.Addrs, Password: cfg.Password})
		if err != nil {
			return nil, fmt.Errorf("create redis store: %w", err)
		}
		return s, nil
	case config.DriverBadger:
		s, err := dbBadger.Open(dbBadger.Config{Path: cfg.BadgerPath}, logger)
		if err != nil {
			return nil, fmt.Errorf("open badger store: %w", err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction.
func buildEmbedder(
	base domain.Embedder,
	cfg config.Config,
	instruction string,
	store db.Store,
	logger *zap.Logger,
) domain.Embedder {
	embedder := base
	if cfg.Embedding.Cache.Enabled {
		embedder = embcache.New(base, store, embcache.Config{
			Prefix: cfg.Storage.KeyPrefix,
			Model:  cfg.Embedding.Model,
			TTL:    time.Duration(cfg.Embedding.Cache.TTLHours) * time.Hour,
		}, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddingusecase.NewInstrumentedEmbedder(
		embedder, cfg.Embedding.Provider, cfg.Embedding.Model, logger,
	)

	// Outermost, so the cache key includes the instruction.
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder
}
