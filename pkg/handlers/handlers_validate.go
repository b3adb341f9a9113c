package handlers

import (
	"net/http"

	"github.com/arnavshah/oncall-api-go/pkg/models"
	"github.com/arnavshah/oncall-api-go/pkg/roster"
	"github.com/gin-gonic/gin"
)

// ValidateRoster checks a roster body before it is published
func (h *Handler) ValidateRoster(c *gin.Context) {
	var shifts []models.ShiftEntry
	if err := c.ShouldBindJSON(&shifts); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	h.RecordUsage(c, 0, 0)
	c.JSON(http.StatusOK, roster.Validate(shifts, h.Service.Directory))
}
