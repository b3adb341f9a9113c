package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/arnavshah/oncall-api-go/pkg/app"
	"github.com/arnavshah/oncall-api-go/pkg/config"
	"github.com/arnavshah/oncall-api-go/pkg/handlers"
	"github.com/gin-gonic/gin"
)

var r http.Handler

func init() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("config", "err", err)
		r = unavailable(err)
		return
	}
	log := cfg.Logger()
	gin.SetMode(gin.ReleaseMode)

	// A serverless instance has no file watcher loop.
	cfg.WatchRoster = false

	a, err := app.New(context.Background(), cfg, log)
	if err != nil {
		log.Error("startup failed", "err", err)
		r = unavailable(err)
		return
	}
	h, err := a.Handler()
	if err != nil {
		log.Error("startup failed", "err", err)
		r = unavailable(err)
		return
	}

	r = handlers.NewRouter(h)
}

func unavailable(error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	})
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, r_req *http.Request) {
	r.ServeHTTP(w, r_req)
}
