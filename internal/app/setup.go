package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"github.com/jackc/pgx/v5/pgxpool"
	"google.golang.org/genai"

	"github.com/Biswanathdas1996/modern-sdlc-tool/db"
	"github.com/Biswanathdas1996/modern-sdlc-tool/internal/api"
	"github.com/Biswanathdas1996/modern-sdlc-tool/internal/config"
	"github.com/Biswanathdas1996/modern-sdlc-tool/internal/ingest"
	"github.com/Biswanathdas1996/modern-sdlc-tool/internal/knowledge"
	"github.com/Biswanathdas1996/modern-sdlc-tool/internal/observability"
	"github.com/Biswanathdas1996/modern-sdlc-tool/internal/rag"
	"github.com/Biswanathdas1996/modern-sdlc-tool/internal/sqlc"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup; call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized.
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	// Tracing must be set up before Genkit so the TracerProvider is ready.
	a.otelCleanup = provideOtelShutdown(ctx, cfg, logger)

	pool, err := provideDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.DBPool = pool

	g, rawEmbedder, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	// Gemini embedding models return 3072 dimensions natively; request
	// Matryoshka truncation to the schema's dimension. Ollama embedders must
	// already produce matching vectors, so no options there.
	var embedOpts []knowledge.EmbedderOption
	if cfg.Provider != config.ProviderOllama {
		dim := int32(knowledge.EmbeddingDimension)
		embedOpts = append(embedOpts, knowledge.WithEmbedOptions(
			&genai.EmbedContentConfig{OutputDimensionality: &dim}))
	}
	embedder, err := knowledge.NewEmbedder(rawEmbedder, knowledge.EmbeddingDimension, embedOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	queries := sqlc.New(pool)
	a.Store = knowledge.NewStore(queries, logger.With("component", "store"))
	a.Registry = knowledge.NewRegistry(queries, logger.With("component", "registry"))

	chunker, err := knowledge.NewChunker(cfg.ChunkMaxSize, cfg.ChunkMinSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("creating chunker: %w", err)
	}

	captioner := rag.NewVisionCaptioner(g, cfg.FullModelName())
	a.Pipeline = ingest.NewPipeline(
		knowledge.NewTextParser(),
		chunker,
		embedder,
		a.Store,
		a.Registry,
		logger.With("component", "pipeline"),
		ingest.WithCaptioner(captioner),
		ingest.WithCaptionTimeout(time.Duration(cfg.CaptionTimeoutSeconds)*time.Second),
		ingest.WithMaxUploadSize(int64(cfg.MaxUploadMB)<<20),
	)

	retriever := rag.NewRetriever(a.Store, embedder, logger.With("component", "retriever"),
		rag.WithTopK(cfg.SearchTopK),
		rag.WithMinScore(cfg.SearchMinScore),
	)
	generator := rag.NewGenkitGenerator(g, cfg.FullModelName())
	a.Chat = rag.NewChat(retriever, a.Registry, generator, logger.With("component", "chat"))

	server, err := api.NewServer(api.ServerConfig{
		Logger:      logger.With("component", "api"),
		Pipeline:    a.Pipeline,
		Registry:    a.Registry,
		Stats:       a.Store,
		Chat:        a.Chat,
		Pool:        pool,
		CORSOrigins: cfg.CORSOrigins,
		IsDev:       cfg.DevMode,
		TrustProxy:  cfg.TrustProxy,
		RateBurst:   cfg.RateBurst,
	})
	if err != nil {
		return nil, fmt.Errorf("creating server: %w", err)
	}
	a.Server = server

	return a, nil
}

// provideOtelShutdown sets up OTLP trace export when enabled. Returns a
// cleanup that flushes pending spans.
func provideOtelShutdown(ctx context.Context, cfg *config.Config, logger *slog.Logger) func() {
	if !cfg.Tracing.Enabled {
		return func() {}
	}

	shutdown, err := observability.SetupTracing(ctx, observability.Config{
		Endpoint:    cfg.Tracing.Endpoint,
		Environment: cfg.Tracing.Environment,
		ServiceName: cfg.Tracing.ServiceName,
	}, logger)
	if err != nil {
		logger.Warn("setting up tracing", "error", err)
		return func() {}
	}

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("shutting down tracer provider", "error", err)
		}
	}
}

// provideDBPool runs migrations and creates the PostgreSQL connection pool.
func provideDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// provideGenkit initializes Genkit with the configured AI provider and
// returns the registered embedder. Supports gemini (default) and ollama.
func provideGenkit(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*genkit.Genkit, ai.Embedder, error) {
	switch cfg.Provider {
	case config.ProviderOllama:
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g := genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))
		if g == nil {
			return nil, nil, errors.New("initializing genkit with ollama provider")
		}
		// Ollama requires explicit model registration (no auto-discovery).
		ollamaPlugin.DefineModel(g, ollama.ModelDefinition{
			Name: cfg.ModelName,
			Type: "chat",
		}, nil)
		ollamaPlugin.DefineEmbedder(g, cfg.OllamaHost, cfg.EmbedderModel, nil)
		logger.Info("initialized Genkit with ollama provider",
			"model", cfg.ModelName, "host", cfg.OllamaHost)

		embedder := ollama.Embedder(g, cfg.OllamaHost)
		if embedder == nil {
			return nil, nil, fmt.Errorf("embedder %q not found for provider %q", cfg.EmbedderModel, cfg.Provider)
		}
		return g, embedder, nil

	default: // gemini
		g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, nil, errors.New("initializing genkit with gemini provider")
		}
		logger.Info("initialized Genkit with gemini provider", "model", cfg.ModelName)

		embedder := googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
		if embedder == nil {
			return nil, nil, fmt.Errorf("embedder %q not found for provider %q", cfg.EmbedderModel, cfg.Provider)
		}
		return g, embedder, nil
	}
}
