package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Tarunjit45/ExamGenius/internal/ai"
	"github.com/Tarunjit45/ExamGenius/internal/api"
	"github.com/Tarunjit45/ExamGenius/internal/curriculum"
	"github.com/Tarunjit45/ExamGenius/internal/notify"
	"github.com/Tarunjit45/ExamGenius/internal/platform/cache"
	"github.com/Tarunjit45/ExamGenius/internal/platform/config"
	"github.com/Tarunjit45/ExamGenius/internal/platform/database"
	"github.com/Tarunjit45/ExamGenius/internal/platform/sqlite"
	"github.com/Tarunjit45/ExamGenius/internal/quest"
	"github.com/Tarunjit45/ExamGenius/internal/session"
	"github.com/Tarunjit45/ExamGenius/internal/studyai"
)

// app is the wired service and the resources it holds open.
type app struct {
	handler   http.Handler
	providers []string
	closers   []func()
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func newApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()
	checks := map[string]api.HealthCheck{}

	var db *database.DB
	if cfg.NeedsDatabase() {
		db, err = database.New(ctx, cfg.Database.URL, database.WithPoolSize(cfg.Database.MaxConns, cfg.Database.MinConns))
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if err := db.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrating database: %w", err)
		}
		checks["database"] = db.HealthCheck
	}

	var c *cache.Cache
	if cfg.NeedsCache() {
		c, err = cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			return nil, fmt.Errorf("connecting to cache: %w", err)
		}
		a.closers = append(a.closers, func() {
			if err := c.Close(); err != nil {
				slog.Warn("closing cache", "error", err)
			}
		})
		checks["cache"] = c.HealthCheck
	}

	kv, closeKV, err := newSessionKV(cfg, db, c)
	if err != nil {
		return nil, err
	}
	if closeKV != nil {
		a.closers = append(a.closers, closeKV)
	}
	store := session.NewStore(kv, session.WithKeyPrefix(cfg.Store.KeyPrefix))

	router := newRouter(cfg, c)
	if !router.HasProvider() {
		return nil, ai.ErrNoProviders
	}
	a.providers = router.Providers()
	checks["ai"] = router.HealthCheck

	library, err := curriculum.NewLibrary(cfg.CurriculumPath)
	if err != nil {
		return nil, fmt.Errorf("loading curriculum: %w", err)
	}

	hub := notify.NewHub(notify.WithOriginPatterns(cfg.Server.AllowedOrigins...))
	notifier := notify.NewGateway()
	notifier.Register("websocket", hub)

	var events quest.EventLogger = quest.NopEventLogger{}
	if cfg.EventsEnabled {
		events = quest.NewPostgresEventLogger(db.Pool)
	}

	engine := quest.NewEngine(quest.EngineConfig{
		Gateway:   studyai.New(router),
		Store:     store,
		Events:    events,
		Notifier:  notifier,
		Library:   library,
		AITimeout: cfg.AI.Timeout,
	})

	srv := api.NewServer(api.Config{
		Engine:  engine,
		Auth:    api.NewAuthenticator([]byte(cfg.Auth.JWTSecret)),
		Library: library,
		Hub:     hub,
		Checks:  checks,
	})
	a.handler = srv.Routes()

	slog.Info("service wired",
		"store", cfg.Store.Driver,
		"syllabi", library.Len(),
		"events", cfg.EventsEnabled,
		"token_budget", cfg.AI.TokenBudget,
	)
	return a, nil
}

// newSessionKV opens the session backend selected by cfg.Store.Driver.
// db and c must be connected when the driver needs them.
func newSessionKV(cfg *config.Config, db *database.DB, c *cache.Cache) (session.KV, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreMemory:
		return session.NewMemoryKV(), nil, nil
	case config.StoreRedis:
		if c == nil {
			return nil, nil, fmt.Errorf("redis session store needs a cache connection")
		}
		return session.NewRedisKV(c.Client, cfg.Store.TTL), nil, nil
	case config.StorePostgres:
		if db == nil {
			return nil, nil, fmt.Errorf("postgres session store needs a database connection")
		}
		kv, err := session.NewPostgresKV(db.Pool)
		if err != nil {
			return nil, nil, fmt.Errorf("opening postgres session store: %w", err)
		}
		return kv, nil, nil
	case config.StoreSQLite:
		sqlDB, err := sqlite.Open(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite session store: %w", err)
		}
		kv, err := session.NewSQLiteKV(sqlDB)
		if err != nil {
			sqlDB.Close()
			return nil, nil, fmt.Errorf("opening sqlite session store: %w", err)
		}
		closeDB := func() {
			if err := sqlDB.Close(); err != nil {
				slog.Warn("closing sqlite", "error", err)
			}
		}
		return kv, closeDB, nil
	}
	return nil, nil, fmt.Errorf("unknown session store driver %q", cfg.Store.Driver)
}

// newRouter registers every configured provider in fallback order. Token
// budgets are shared through the cache when one is configured.
func newRouter(cfg *config.Config, c *cache.Cache) *ai.Router {
	var opts []ai.RouterOption
	if cfg.AI.TokenBudget > 0 && c != nil {
		opts = append(opts, ai.WithBudget(ai.NewRedisBudget(c.Client, int64(cfg.AI.TokenBudget), cfg.AI.BudgetWindow)))
	}
	router := ai.NewRouter(opts...)

	if key := cfg.AI.Google.APIKey; key != "" {
		router.Register("google", ai.NewGoogleProvider(key), ai.GoogleTaskModels())
	}
	if key := cfg.AI.OpenAI.APIKey; key != "" {
		router.Register("openai", ai.NewOpenAIProvider(key), nil)
	}
	if key := cfg.AI.DeepSeek.APIKey; key != "" {
		router.Register("deepseek", ai.NewDeepSeekProvider(key), nil)
	}
	if key := cfg.AI.OpenRouter.APIKey; key != "" {
		router.Register("openrouter", ai.NewOpenRouterProvider(key), nil)
	}
	if cfg.AI.Ollama.Enabled {
		var ollamaOpts []ai.OllamaOption
		if cfg.AI.Ollama.Model != "" {
			ollamaOpts = append(ollamaOpts, ai.WithOllamaModel(cfg.AI.Ollama.Model))
		}
		router.Register("ollama", ai.NewOllamaProvider(cfg.AI.Ollama.URL, ollamaOpts...), nil)
	}
	return router
}
