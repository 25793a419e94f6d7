// Package app wires configuration, storage, AI providers, and the query
// pipeline into a runnable application.
package app

import (
	"context"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/secondbrainhq/secondbrain/internal/agent"
	"github.com/secondbrainhq/secondbrain/internal/config"
	"github.com/secondbrainhq/secondbrain/internal/ingest"
	"github.com/secondbrainhq/secondbrain/internal/knowledge"
	"github.com/secondbrainhq/secondbrain/internal/log"
	"github.com/secondbrainhq/secondbrain/internal/rag"
)

// App is the application container. Setup builds it top to bottom; Close
// releases resources in reverse order.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit       *genkit.Genkit
	DBPool       *pgxpool.Pool
	Store        *knowledge.Store
	Embedder     *knowledge.Embedder
	Retriever    *rag.Retriever
	Orchestrator *agent.Orchestrator
	Indexer      *ingest.Indexer

	otelShutdown func(context.Context) error
}

// Close shuts down the application, flushing traces and closing the
// database pool.
func (a *App) Close() error {
	a.Logger.Info("shutting down application")

	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.otelShutdown(ctx); err != nil {
			a.Logger.Warn("shutting down tracer provider", "error", err)
		}
	}

	if a.DBPool != nil {
		a.DBPool.Close()
		a.Logger.Debug("database pool closed")
	}

	return nil
}

// NewMemory creates a conversation memory sized per the configuration.
func (a *App) NewMemory() *agent.Memory {
	return agent.NewMemory(a.Config.MaxTurns)
}
