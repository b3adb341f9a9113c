package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/arnavshah/oncall-api-go/pkg/app"
	"github.com/arnavshah/oncall-api-go/pkg/bot"
	"github.com/arnavshah/oncall-api-go/pkg/config"
	"github.com/arnavshah/oncall-api-go/pkg/directory"
	"github.com/arnavshah/oncall-api-go/pkg/handlers"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

type ServerCmd struct {
	WithBot bool `help:"also run the Telegram bot in this process"`
}

func (cmd *ServerCmd) Run(ctx context.Context, cfg *config.Config) error {
	log := cfg.Logger()
	gin.SetMode(cfg.GinMode)

	a, err := app.New(ctx, *cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	h, err := a.Handler()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return a.WatchRoster(ctx)
	})

	if cmd.WithBot {
		g.Go(func() error {
			return bot.Start(ctx, cfg.TelegramBotToken, a.Service, a.Service.Directory, log)
		})
	}

	return g.Wait()
}

type BotCmd struct{}

// Run serves the bot. With API_BASE_URL set it calls that server, otherwise
// it selects in-process against the local roster and history.
func (cmd *BotCmd) Run(ctx context.Context, cfg *config.Config) error {
	log := cfg.Logger()

	if cfg.APIBaseURL != "" {
		dir, err := directory.Load(cfg.ZonesPath)
		if err != nil {
			return err
		}
		log.Info("bot using remote API", "endpoint", cfg.APIBaseURL+"/api/suggest-person")
		return bot.Start(ctx, cfg.TelegramBotToken, bot.NewAPIClient(cfg.APIBaseURL, cfg.APIKey, log), dir, log)
	}

	a, err := app.New(ctx, *cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.WatchRoster(ctx)
	})
	g.Go(func() error {
		err := bot.Start(ctx, cfg.TelegramBotToken, a.Service, a.Service.Directory, log)
		if err == nil {
			err = context.Canceled
		}
		return err
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
