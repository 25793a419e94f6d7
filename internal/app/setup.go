package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/secondbrainhq/secondbrain/db"
	"github.com/secondbrainhq/secondbrain/internal/agent"
	"github.com/secondbrainhq/secondbrain/internal/config"
	"github.com/secondbrainhq/secondbrain/internal/ingest"
	"github.com/secondbrainhq/secondbrain/internal/knowledge"
	"github.com/secondbrainhq/secondbrain/internal/log"
	"github.com/secondbrainhq/secondbrain/internal/observability"
	"github.com/secondbrainhq/secondbrain/internal/rag"
)

// Setup creates and initializes the application. On failure it cleans up
// everything already initialized before returning.
//
// Tracing must be set up before Genkit initialization so Genkit's
// TracerProvider carries the span processor.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	a := &App{Config: cfg, Logger: logger}

	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	if cfg.TracingEnabled {
		shutdown, err := observability.Setup(ctx, observability.Config{
			Endpoint:    cfg.OTLPEndpoint,
			ServiceName: "secondbrain",
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("setting up tracing: %w", err)
		}
		a.otelShutdown = shutdown
	}

	g, embedder, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g
	a.Embedder = knowledge.NewEmbedder(embedder)

	pool, err := provideDBPool(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.DBPool = pool

	store, err := knowledge.NewStore(pool, logger)
	if err != nil {
		return nil, fmt.Errorf("creating knowledge store: %w", err)
	}
	a.Store = store

	retriever, err := rag.NewRetriever(store, a.Embedder, rag.Config{
		TopK:           cfg.TopK,
		ScoreThreshold: cfg.ScoreThreshold,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating retriever: %w", err)
	}
	a.Retriever = retriever

	orchestrator, err := provideOrchestrator(g, cfg, retriever, logger)
	if err != nil {
		return nil, err
	}
	a.Orchestrator = orchestrator

	indexer, err := ingest.NewIndexer(store, a.Embedder, cfg.ChunkSize, cfg.ChunkOverlap, logger)
	if err != nil {
		return nil, fmt.Errorf("creating indexer: %w", err)
	}
	a.Indexer = indexer

	return a, nil
}

// provideGenkit initializes Genkit with the configured AI provider and
// returns the embedder the provider registered.
func provideGenkit(ctx context.Context, cfg *config.Config, logger log.Logger) (*genkit.Genkit, ai.Embedder, error) {
	provider := cfg.Provider
	if provider == "" {
		provider = config.ProviderGemini
	}

	switch provider {
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
		return g, ollama.Embedder(g, cfg.OllamaHost), nil

	default: // gemini
		g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, nil, errors.New("initializing genkit with gemini provider")
		}
		logger.Info("initialized Genkit with gemini provider", "model", cfg.ModelName)
		return g, googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel), nil
	}
}

// provideOrchestrator assembles the guard, synthesizer, and orchestrator.
// Guardrails can be disabled in config; a nil guard skips both guard
// stages.
func provideOrchestrator(g *genkit.Genkit, cfg *config.Config, retriever *rag.Retriever, logger log.Logger) (*agent.Orchestrator, error) {
	var guard *agent.Guard
	if cfg.Guardrails {
		var err error
		guard, err = agent.NewGuard(agent.NewGenkitClassifier(g, cfg.ModelName), cfg.MaxQueryLength, logger)
		if err != nil {
			return nil, fmt.Errorf("creating guard: %w", err)
		}
	} else {
		logger.Warn("guardrails disabled")
	}

	synthesizer, err := agent.NewSynthesizer(
		agent.NewGenkitGenerator(g, cfg.ModelName),
		agent.SynthesizerConfig{MaxAttempts: cfg.SynthesisMaxAttempts},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("creating synthesizer: %w", err)
	}

	orchestrator, err := agent.NewOrchestrator(retriever, synthesizer, guard, cfg.MaxQueryLength, logger)
	if err != nil {
		return nil, fmt.Errorf("creating orchestrator: %w", err)
	}
	return orchestrator, nil
}

// provideDBPool runs migrations and creates the PostgreSQL connection pool.
func provideDBPool(ctx context.Context, cfg *config.Config, logger log.Logger) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
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
	poolCfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// NewFetcher builds the bookmark page fetcher from config.
func NewFetcher(cfg *config.Config, logger log.Logger) *ingest.Fetcher {
	return ingest.NewFetcher(ingest.FetchConfig{
		Parallelism:   cfg.FetchParallelism,
		Delay:         time.Duration(cfg.FetchDelayMs) * time.Millisecond,
		Timeout:       time.Duration(cfg.FetchTimeoutMs) * time.Millisecond,
		MaxPageLength: cfg.MaxPageLength,
	}, logger)
}
