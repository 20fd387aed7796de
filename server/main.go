package main

import (
	"context"
	"log"
	"os"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meikuraledutech/flow"
	"github.com/meikuraledutech/flow/api"
	"github.com/meikuraledutech/flow/config"
	"github.com/meikuraledutech/flow/engine"
	"github.com/meikuraledutech/flow/graph"
	"github.com/meikuraledutech/flow/memory"
	"github.com/meikuraledutech/flow/openai"
	"github.com/meikuraledutech/flow/postgres"
	"github.com/meikuraledutech/flow/sqlite"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger := config.NewLogger(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	// ── Persistence ───────────────────────────────────────────────────
	var store flow.Store
	switch cfg.Store.Backend {
	case config.StorePostgres:
		pool, err := pgxpool.New(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			log.Fatalf("connect: %v", err)
		}
		defer pool.Close()
		store = postgres.New(pool)
	case config.StoreSQLite:
		s, err := sqlite.Open(cfg.Store.SQLitePath)
		if err != nil {
			log.Fatalf("open sqlite: %v", err)
		}
		defer s.Close()
		store = s
	default:
		store = memory.New()
	}
	if err := store.CreateSchema(ctx); err != nil {
		log.Fatalf("schema: %v", err)
	}

	// ── Graph store ───────────────────────────────────────────────────
	g := graph.New(store, graph.WithLogger(logger), graph.WithAutoSave(cfg.AutoSave))
	g.LoadWorkflows(ctx)

	// ── Executor ──────────────────────────────────────────────────────
	newExecutor := func(apiKey string) (engine.TaskExecutor, error) {
		if apiKey == "" {
			apiKey = cfg.OpenAI.APIKey
		}
		executor, err := openai.New(apiKey,
			openai.WithModel(cfg.OpenAI.Model),
			openai.WithBaseURL(cfg.OpenAI.BaseURL),
			openai.WithTimeout(cfg.OpenAI.Timeout),
		)
		if err != nil {
			return nil, err
		}
		return executor, nil
	}

	app := fiber.New()
	api.New(store, g, newExecutor, api.WithLogger(logger)).Register(app)

	logger.Info("flow server starting", "addr", cfg.Server.Addr, "store", cfg.Store.Backend)
	log.Fatal(app.Listen(cfg.Server.Addr))
}
