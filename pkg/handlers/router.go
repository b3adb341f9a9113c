package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"
)

// Version is reported by GET /
const Version = "1.0.0"

// NewRouter wires every route onto a fresh gin engine
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), sloggin.New(h.log()), gin.Recovery())

	r.StaticFS("/static", h.GetStaticFS())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "On-call Suggestion API",
			"version": Version,
		})
	})
	r.GET("/health", h.Health)
	if h.Metrics != nil {
		r.GET("/metrics", gin.WrapH(h.Metrics.Handler()))
	}

	r.GET("/admin", h.AdminInterface)
	r.POST("/admin/login", h.Login)

	admin := r.Group("/admin")
	admin.Use(h.AuthMiddleware())
	{
		admin.POST("/keys", h.GenerateKey)
		admin.GET("/keys", h.ListKeys)
		admin.PUT("/keys/:id", h.UpdateKeyLimit)
		admin.DELETE("/keys/:id", h.RevokeKey)
		admin.GET("/usage/:id", h.GetUsage)
	}

	api := r.Group("/api")
	api.Use(h.APIKeyMiddleware())
	{
		api.POST("/suggest-person", h.SuggestPerson)
		api.POST("/suggest-from-text", h.SuggestFromText)
		api.POST("/detect-building", h.DetectBuilding)
		api.POST("/detect-zone", h.DetectZone)
		api.GET("/buildings", h.ListBuildings)
		api.GET("/zones", h.ListZones)
		api.GET("/history", h.SelectionHistory)
		api.GET("/usage", h.GetMyUsage)
		api.POST("/validate-roster", h.ValidateRoster)
	}

	return r
}
