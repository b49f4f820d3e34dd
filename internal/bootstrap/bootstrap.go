package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kirillkom/smartcare-assistant/internal/config"
	"github.com/kirillkom/smartcare-assistant/internal/core/attribution"
	"github.com/kirillkom/smartcare-assistant/internal/core/ports"
	"github.com/kirillkom/smartcare-assistant/internal/core/usecase"
	"github.com/kirillkom/smartcare-assistant/internal/infrastructure/cache"
	"github.com/kirillkom/smartcare-assistant/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/smartcare-assistant/internal/infrastructure/queue/nats"
	"github.com/kirillkom/smartcare-assistant/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/smartcare-assistant/internal/infrastructure/resilience"
	"github.com/kirillkom/smartcare-assistant/internal/infrastructure/vector/qdrant"
	"github.com/kirillkom/smartcare-assistant/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	Metrics *metrics.HTTPServerMetrics

	ChatUC    *usecase.ChatUseCase
	HistoryUC *usecase.HistoryUseCase

	db     *sql.DB
	qdrant *qdrant.Client

	closeFn func()
}

// New wires the chat pipeline: retrieval, attribution, completion, persistence and turn events.
func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	sources, err := config.LoadSources(cfg.SourcesConfigPath)
	if err != nil {
		return nil, err
	}
	enabled := config.EnabledSources(sources)
	if len(enabled) == 0 {
		return nil, errors.New("no knowledge sources enabled")
	}

	httpMetrics := metrics.NewHTTPServerMetrics(service)
	executor := newExecutor(cfg, httpMetrics)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	repo := postgres.NewMessageRepository(db)

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	embedCache, closeCache, err := newEmbeddingCaches(ctx, cfg)
	if err != nil {
		queue.Close()
		_ = db.Close()
		return nil, err
	}

	ollamaClient := ollama.NewWithOptions(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, ollama.Options{
		Timeout:            cfg.CompletionTimeout,
		ResilienceExecutor: executor,
	})
	embedder := cache.NewCachedEmbedder(ollama.NewEmbedder(ollamaClient), ollamaClient.EmbedModel(), cfg.EmbeddingCacheTTL, embedCache...)

	completer, err := newCompleter(cfg, ollamaClient, executor)
	if err != nil {
		closeCache()
		queue.Close()
		_ = db.Close()
		return nil, err
	}

	vectorDB := qdrant.NewWithOptions(cfg.QdrantURL, cfg.QdrantCollection, qdrant.Options{
		Timeout:            cfg.RetrievalTimeout,
		ResilienceExecutor: executor,
	})
	retrievers := make([]usecase.NamedRetriever, 0, len(enabled))
	for _, src := range enabled {
		retrievers = append(retrievers, usecase.NamedRetriever{
			Label:     src.Label,
			Retriever: qdrant.NewNamespaceRetriever(embedder, vectorDB, src.Namespace, cfg.RetrievalTopK),
		})
	}
	registry := usecase.NewSourceRegistry(cfg.RetrievalTimeout, httpMetrics, retrievers...)

	attrCfg := AttributionConfig(cfg, sources)
	chatUC := usecase.NewChatUseCase(
		registry,
		attribution.NewAssembler(attrCfg),
		completer,
		attribution.NewFilter(attrCfg, attribution.NewPhraseDetector(attrCfg)),
		repo,
		queue,
		httpMetrics,
		usecase.ChatLimits{
			HistoryMessages:   cfg.HistoryMessages,
			CompletionTimeout: cfg.CompletionTimeout,
		},
	)

	slog.Info("pipeline_ready",
		"sources", registry.Labels(),
		"completion_provider", cfg.CompletionProvider,
		"embedding_cache_tiers", len(embedCache),
	)

	return &App{
		Config:  cfg,
		Metrics: httpMetrics,

		ChatUC:    chatUC,
		HistoryUC: usecase.NewHistoryUseCase(repo),

		db:     db,
		qdrant: vectorDB,

		closeFn: func() {
			closeCache()
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

// Ready checks the stores every turn depends on.
func (a *App) Ready(ctx context.Context) error {
	if err := a.db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	if err := a.qdrant.Ready(ctx); err != nil {
		return fmt.Errorf("qdrant: %w", err)
	}
	return nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func newExecutor(cfg config.Config, observer resilience.Observer) *resilience.Executor {
	return resilience.NewExecutor(
		resilience.ServiceConfig(cfg.RetryMaxAttempts, cfg.BreakerEnabled),
		resilience.WithObserver(observer),
	)
}

// newEmbeddingCaches returns the cache tiers, fastest first. Redis is optional.
func newEmbeddingCaches(ctx context.Context, cfg config.Config) ([]ports.EmbeddingCache, func(), error) {
	tiers := make([]ports.EmbeddingCache, 0, 2)
	if cfg.EmbeddingCacheSize > 0 {
		tiers = append(tiers, cache.NewLocalLRU(cfg.EmbeddingCacheSize))
	}
	if cfg.RedisAddr == "" {
		return tiers, func() {}, nil
	}
	redisCache, err := cache.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, fmt.Errorf("init redis cache: %w", err)
	}
	tiers = append(tiers, redisCache)
	return tiers, func() { _ = redisCache.Close() }, nil
}
