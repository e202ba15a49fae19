// Package app wires the application together: configuration, database pool,
// Genkit provider plugins, the knowledge base components, and the HTTP
// server. Setup builds everything; Close releases it in reverse order.
package app

import (
	"log/slog"

	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Biswanathdas1996/modern-sdlc-tool/internal/api"
	"github.com/Biswanathdas1996/modern-sdlc-tool/internal/config"
	"github.com/Biswanathdas1996/modern-sdlc-tool/internal/ingest"
	"github.com/Biswanathdas1996/modern-sdlc-tool/internal/knowledge"
	"github.com/Biswanathdas1996/modern-sdlc-tool/internal/rag"
)

// App is the application container. Fields are populated by Setup.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Genkit *genkit.Genkit
	DBPool *pgxpool.Pool

	Store    *knowledge.Store
	Registry *knowledge.Registry
	Pipeline *ingest.Pipeline
	Chat     *rag.Chat
	Server   *api.Server

	otelCleanup func()
}

// Close releases all resources acquired by Setup. Safe to call on a
// partially initialized App.
func (a *App) Close() error {
	if a.Logger != nil {
		a.Logger.Info("shutting down application")
	}

	if a.DBPool != nil {
		a.DBPool.Close()
	}
	if a.otelCleanup != nil {
		a.otelCleanup()
	}
	return nil
}
