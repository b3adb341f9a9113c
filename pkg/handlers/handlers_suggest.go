package handlers

import (
	"net/http"

	"github.com/arnavshah/oncall-api-go/pkg/models"
	"github.com/gin-gonic/gin"
)

// SuggestPerson handles POST /api/suggest-person
func (h *Handler) SuggestPerson(c *gin.Context) {
	var input models.SuggestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sug, err := h.Service.Suggest(c.Request.Context(), input.Building)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.RecordUsage(c, 1, 0)
	c.JSON(http.StatusOK, sug.Response())
}

// SuggestFromText handles POST /api/suggest-from-text
func (h *Handler) SuggestFromText(c *gin.Context) {
	var input models.IssueInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sug, err := h.Service.SuggestFromText(c.Request.Context(), input.ShortDescription, input.Description)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.RecordUsage(c, 1, 1)
	c.JSON(http.StatusOK, sug.Response())
}

// DetectBuilding handles POST /api/detect-building
func (h *Handler) DetectBuilding(c *gin.Context) {
	var input models.IssueInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b, err := h.Service.DetectBuilding(c.Request.Context(), input.ShortDescription, input.Description)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.RecordUsage(c, 0, 1)
	c.JSON(http.StatusOK, b)
}

// DetectZone handles POST /api/detect-zone
func (h *Handler) DetectZone(c *gin.Context) {
	var input models.IssueInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	zone, err := h.Service.DetectZone(c.Request.Context(), input.ShortDescription, input.Description)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.RecordUsage(c, 0, 1)
	c.JSON(http.StatusOK, gin.H{"zone": zone})
}

// ListBuildings returns the zone directory
func (h *Handler) ListBuildings(c *gin.Context) {
	buildings := h.Service.Directory.Buildings()
	h.RecordUsage(c, 0, 0)
	c.JSON(http.StatusOK, gin.H{"count": len(buildings), "buildings": buildings})
}

// ListZones returns buildings grouped by zone
func (h *Handler) ListZones(c *gin.Context) {
	h.RecordUsage(c, 0, 0)
	c.JSON(http.StatusOK, gin.H{"zones": h.Service.Directory.Zones()})
}

// SelectionHistory returns the selection counts for ?date= (today by default)
func (h *Handler) SelectionHistory(c *gin.Context) {
	date := c.Query("date")
	counts, err := h.Service.SelectionCounts(c.Request.Context(), date)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if date == "" {
		date = h.Service.Today()
	}
	h.RecordUsage(c, 0, 0)
	c.JSON(http.StatusOK, gin.H{"date": date, "counts": counts})
}
