// Package app builds the service graph from a Config. The server, the bot,
// the serverless entry point and the CLI commands all start here.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/arnavshah/oncall-api-go/pkg/auth"
	"github.com/arnavshah/oncall-api-go/pkg/classifier"
	"github.com/arnavshah/oncall-api-go/pkg/config"
	"github.com/arnavshah/oncall-api-go/pkg/database"
	"github.com/arnavshah/oncall-api-go/pkg/directory"
	"github.com/arnavshah/oncall-api-go/pkg/handlers"
	"github.com/arnavshah/oncall-api-go/pkg/history"
	"github.com/arnavshah/oncall-api-go/pkg/metrics"
	"github.com/arnavshah/oncall-api-go/pkg/oncall"
	"github.com/arnavshah/oncall-api-go/pkg/roster"
	"github.com/arnavshah/oncall-api-go/pkg/selector"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type App struct {
	Config  config.Config
	Log     *slog.Logger
	Service *oncall.Service
	Metrics *metrics.Metrics

	db      *gorm.DB
	watcher *roster.WatchedSource
	closers []func() error
}

// New loads the zone directory and wires history, roster, selector and
// classifier as configured. The database is only opened when something needs it.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}
	a := &App{Config: cfg, Log: log, Metrics: metrics.New()}

	dir, err := directory.Load(cfg.ZonesPath)
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	store, err := a.historyStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	var src roster.Source = roster.NewFileSource(cfg.RosterPath)
	if cfg.WatchRoster {
		a.watcher, err = roster.NewWatchedSource(cfg.RosterPath, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, a.watcher.Close)
		src = a.watcher
	}

	opts := []selector.Option{selector.WithLocation(loc), selector.WithLogger(log)}
	if cfg.SerializeSelections {
		opts = append(opts, selector.WithSerializedUpdates())
	}

	cls, err := a.classifier(ctx, dir)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Service = &oncall.Service{
		Directory:  dir,
		Roster:     src,
		Selector:   selector.New(store, opts...),
		History:    store,
		Classifier: cls,
		Metrics:    a.Metrics,
		Log:        log,
	}

	log.Info("on-call service ready",
		"zones", cfg.ZonesPath,
		"buildings", len(dir.Buildings()),
		"roster", cfg.RosterPath,
		"watch_roster", cfg.WatchRoster,
		"history", cfg.HistoryBackend,
		"llm", cfg.LLMProvider,
		"timezone", loc.String(),
	)
	return a, nil
}

func (a *App) historyStore(ctx context.Context) (history.Store, error) {
	switch a.Config.HistoryBackend {
	case "memory":
		return history.NewMemoryStore(nil), nil
	case "db":
		db, err := a.DB()
		if err != nil {
			return nil, err
		}
		return history.NewDBStore(db), nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: a.Config.RedisAddr})
		a.closers = append(a.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis %s: %w", a.Config.RedisAddr, err)
		}
		return history.NewRedisStore(client, a.Config.RedisKey), nil
	default:
		return history.NewFileStore(a.Config.HistoryPath), nil
	}
}

func (a *App) classifier(ctx context.Context, dir *directory.Directory) (*classifier.Classifier, error) {
	cfg := a.Config

	var llm classifier.Completer
	switch cfg.LLMProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			a.Log.Warn("OPENAI_API_KEY is not set, text classification disabled")
			return nil, nil
		}
		c, err := classifier.NewOpenAIClient(classifier.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
			Rate:   cfg.LLMRate,
			Burst:  cfg.LLMBurst,
		}, a.Log)
		if err != nil {
			return nil, err
		}
		llm = c
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			a.Log.Warn("GEMINI_API_KEY is not set, text classification disabled")
			return nil, nil
		}
		c, err := classifier.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, c.Close)
		llm = c
	default:
		return nil, nil
	}

	return classifier.New(llm, dir, a.Log), nil
}

// DB opens the database on first use.
func (a *App) DB() (*gorm.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := database.Open(database.Options{
		DSN:        a.Config.DatabaseURL,
		SQLitePath: a.Config.DataPath,
		Quiet:      a.Config.LogLevel != "debug",
	})
	if err != nil {
		return nil, err
	}
	a.db = db
	return db, nil
}

// Handler returns the HTTP handler set, creating the admin user if needed.
func (a *App) Handler() (*handlers.Handler, error) {
	db, err := a.DB()
	if err != nil {
		return nil, err
	}
	if err := auth.EnsureAdminExists(db, a.Config.AdminUsername, a.Config.AdminPassword); err != nil {
		return nil, fmt.Errorf("ensure admin: %w", err)
	}
	if a.Config.JWTSecret == "" || a.Config.APIMasterSecret == "" {
		a.Log.Warn("JWT_SECRET or API_MASTER_SECRET is empty, admin sessions and API keys are not secure")
	}

	return &handlers.Handler{
		DB:            db,
		Auth:          a.Authenticator(),
		Service:       a.Service,
		Metrics:       a.Metrics,
		Log:           a.Log,
		RequireAPIKey: a.Config.RequireAPIKey,
	}, nil
}

func (a *App) Authenticator() *auth.Authenticator {
	return auth.New(a.Config.JWTSecret, a.Config.APIMasterSecret)
}

// WatchRoster blocks reloading the roster until ctx is done. Without
// WATCH_ROSTER it just waits for ctx.
func (a *App) WatchRoster(ctx context.Context) error {
	if a.watcher == nil {
		<-ctx.Done()
		return nil
	}
	return a.watcher.Run(ctx)
}

func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
		a.db = nil
	}
	return errors.Join(errs...)
}
