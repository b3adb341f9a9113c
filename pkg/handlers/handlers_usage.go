package handlers

import (
	"net/http"

	"github.com/arnavshah/oncall-api-go/pkg/database"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func apiKeyFrom(c *gin.Context) (*database.APIKey, bool) {
	raw, exists := c.Get("apiKey")
	if !exists {
		return nil, false
	}
	apiKey, ok := raw.(*database.APIKey)
	return apiKey, ok
}

// RecordUsage bumps the calling key's counters with a single upsert. The day
// is the service's date in TIMEZONE, the same day selection counts use.
// Anonymous requests are not recorded.
func (h *Handler) RecordUsage(c *gin.Context, suggestions, classifications int) {
	apiKey, ok := apiKeyFrom(c)
	if !ok {
		return
	}

	today := h.Service.Today()

	err := h.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count":         gorm.Expr("request_count + ?", 1),
			"total_suggestions":     gorm.Expr("total_suggestions + ?", suggestions),
			"total_classifications": gorm.Expr("total_classifications + ?", classifications),
		}),
	}).Create(&database.APIUsage{
		KeyID:                apiKey.ID,
		Date:                 today,
		RequestCount:         1,
		TotalSuggestions:     suggestions,
		TotalClassifications: classifications,
	}).Error
	if err != nil {
		h.log().Warn("could not record usage", "key_id", apiKey.ID, "err", err)
	}
}

// requestsToday returns how many requests the key made on the service's current date
func (h *Handler) requestsToday(keyID uint) (int, error) {
	var usage database.APIUsage
	err := h.DB.Where(&database.APIUsage{KeyID: keyID, Date: h.Service.Today()}).Limit(1).Find(&usage).Error
	return usage.RequestCount, err
}

// GetMyUsage returns usage stats for the authenticated API key
func (h *Handler) GetMyUsage(c *gin.Context) {
	apiKey, ok := apiKeyFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "API Key required"})
		return
	}

	var usage []database.APIUsage
	if err := h.DB.Where("key_id = ?", apiKey.ID).Order("date desc").Limit(30).Find(&usage).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch usage details"})
		return
	}

	var totalRequests, totalSuggestions, totalClassifications int64
	for _, u := range usage {
		totalRequests += int64(u.RequestCount)
		totalSuggestions += int64(u.TotalSuggestions)
		totalClassifications += int64(u.TotalClassifications)
	}

	c.JSON(http.StatusOK, gin.H{
		"key_name":      apiKey.Name,
		"rate_limit":    apiKey.RateLimit,
		"usage_history": usage,
		"totals": gin.H{
			"requests":        totalRequests,
			"suggestions":     totalSuggestions,
			"classifications": totalClassifications,
		},
	})
}
