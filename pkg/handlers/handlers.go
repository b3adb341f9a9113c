package handlers

import (
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/arnavshah/oncall-api-go/pkg/auth"
	"github.com/arnavshah/oncall-api-go/pkg/metrics"
	"github.com/arnavshah/oncall-api-go/pkg/models"
	"github.com/arnavshah/oncall-api-go/pkg/oncall"
	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

//go:embed static/*
var staticEmbed embed.FS

// Handler contains dependencies for the route handlers
type Handler struct {
	DB            *gorm.DB
	Auth          *auth.Authenticator
	Service       *oncall.Service
	Metrics       *metrics.Metrics
	Log           *slog.Logger
	RequireAPIKey bool
}

func (h *Handler) log() *slog.Logger {
	if h.Log != nil {
		return h.Log
	}
	return slog.Default()
}

func bearer(c *gin.Context) string {
	token := c.GetHeader("Authorization")
	return strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
}

// RequestID tags every request with a ULID, or keeps the caller's X-Request-ID
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = ulid.Make().String()
		}
		c.Set("requestID", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// AuthMiddleware verifies the JWT token for admin routes
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		claims, err := h.Auth.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set("username", claims.Username)
		c.Next()
	}
}

// APIKeyMiddleware verifies HMAC API keys on /api routes when keys are
// required. A key must be registered (not revoked) and under its daily
// rate limit; accepted keys are stored on the context for usage tracking.
func (h *Handler) APIKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := bearer(c)
		if key == "" {
			if h.RequireAPIKey {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API Key required"})
				return
			}
			c.Next()
			return
		}

		userID, err := h.Auth.VerifyHMACKey(key)
		if err != nil {
			if h.RequireAPIKey {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API Key signature"})
				return
			}
			c.Next()
			return
		}

		apiKey, err := auth.TouchAPIKey(h.DB, key)
		if errors.Is(err, auth.ErrKeyNotRegistered) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API Key revoked or unknown"})
			return
		}
		if err != nil {
			h.log().Error("could not record api key", "user", userID, "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Could not verify API key"})
			return
		}

		used, err := h.requestsToday(apiKey.ID)
		if err != nil {
			h.log().Error("could not read api usage", "key_id", apiKey.ID, "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Could not verify API key"})
			return
		}
		if apiKey.RateLimit > 0 && used >= apiKey.RateLimit {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      "Daily rate limit exceeded",
				"rate_limit": apiKey.RateLimit,
			})
			return
		}

		c.Set("apiKey", apiKey)
		c.Set("userID", userID)
		c.Next()
	}
}

// respondError maps the service error taxonomy onto HTTP statuses
func (h *Handler) respondError(c *gin.Context, err error) {
	log := h.log().With("request_id", c.GetString("requestID"), "path", c.FullPath())

	switch {
	case errors.Is(err, models.ErrInputMissing):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrBuildingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrClassifierUnavailable):
		log.Error("classifier failed", "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Classifier unavailable", "message": err.Error()})
	case errors.Is(err, models.ErrStorageUnavailable):
		log.Error("storage unavailable", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "message": err.Error()})
	default:
		log.Error("request failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "message": err.Error()})
	}
}

// Health reports liveness
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "API is running"})
}

// AdminInterface serves the admin web interface from embedded files
func (h *Handler) AdminInterface(c *gin.Context) {
	data, err := staticEmbed.ReadFile("static/index.html")
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "static/index.html not found in embedded FS"})
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", data)
}

// GetStaticFS returns the embedded filesystem for static assets
func (h *Handler) GetStaticFS() http.FileSystem {
	sub, err := fs.Sub(staticEmbed, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
