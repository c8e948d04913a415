// Package app wires the application together: configuration, database,
// Genkit, retrieval, and the chat agent, built once at startup and shared
// by the CLI commands and the HTTP server.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/retriva/retriva/internal/chat"
	"github.com/retriva/retriva/internal/config"
	"github.com/retriva/retriva/internal/ingest"
	"github.com/retriva/retriva/internal/loader"
	"github.com/retriva/retriva/internal/log"
	"github.com/retriva/retriva/internal/observability"
	"github.com/retriva/retriva/internal/retrieve"
	"github.com/retriva/retriva/internal/session"
	"github.com/retriva/retriva/internal/vector"
)

// App holds all initialized components.
type App struct {
	Config       *config.Config
	Logger       log.Logger
	Genkit       *genkit.Genkit
	Embedder     ai.Embedder
	DBPool       *pgxpool.Pool
	Store        *vector.Store
	Retriever    *retrieve.Retriever
	SessionStore *session.Store
	Ingestor     *ingest.Ingestor
	Agent        *chat.Chat
	Flow         *chat.Flow

	otelShutdown func(context.Context) error
}

// New builds the application. Construction order matters: tracing first so
// Genkit spans are captured, then the database, then everything that
// depends on both.
//
// cfg must come from config.Load, which validates it; New only guards
// against a nil pointer.
func New(ctx context.Context, cfg *config.Config, logger log.Logger) (*App, error) {
	if cfg == nil {
		return nil, config.ErrConfigNil
	}

	var otelShutdown func(context.Context) error
	if cfg.TracingEnabled {
		var err error
		otelShutdown, err = observability.SetupTracing(ctx, observability.Config{
			Endpoint:    cfg.TracingEndpoint,
			ServiceName: cfg.ServiceName,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to set up tracing: %w", err)
		}
	}

	pool, err := provideDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	g, err := provideGenkit(ctx)
	if err != nil {
		pool.Close()
		return nil, err
	}

	embedder := provideEmbedder(g, cfg)

	store := vector.NewStore(vector.NewPostgres(pool, logger), embedder, logger)

	retriever, err := retrieve.New(store, retrieve.Config{
		Collection: cfg.Collection,
		Timeout:    time.Duration(cfg.RetrievalTimeout) * time.Second,
		Logger:     logger,
	})
	if err != nil {
		pool.Close()
		return nil, err
	}

	// Registered so the Dev UI and future flows can invoke retrieval
	// directly, outside the chat agent's tool path.
	retriever.Define(g, "hybrid-documents")

	sessions := session.NewStore(pool, logger)

	searchTool := chat.DefineSearchTool(g, retriever, cfg.TopK, logger)

	agent, err := chat.New(chat.Config{
		Genkit:       g,
		SessionStore: sessions,
		Logger:       logger,
		Tools:        []ai.Tool{searchTool},
		ModelName:    cfg.FullModelName(),
		Temperature:  float64(cfg.Temperature),
		MaxTurns:     cfg.MaxTurns,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create chat agent: %w", err)
	}

	flow, err := chat.InitFlow(g, agent)
	if err != nil {
		pool.Close()
		return nil, err
	}

	ingestor, err := ingest.New(ingest.Config{
		Store:  store,
		Loader: loader.New(nil),
		Logger: logger,
	})
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &App{
		Config:       cfg,
		Logger:       logger,
		Genkit:       g,
		Embedder:     embedder,
		DBPool:       pool,
		Store:        store,
		Retriever:    retriever,
		SessionStore: sessions,
		Ingestor:     ingestor,
		Agent:        agent,
		Flow:         flow,

		otelShutdown: otelShutdown,
	}, nil
}

// Close releases resources: pending trace spans are flushed, then the
// database pool is closed.
func (a *App) Close() {
	if a.otelShutdown != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.otelShutdown(shutdownCtx); err != nil {
			a.Logger.Warn("failed to shut down tracer provider", "error", err)
		}
	}

	if a.DBPool != nil {
		a.DBPool.Close()
	}
}
