package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/shopfloor-app/services"
	"github.com/yeremiapane/shopfloor-app/utils"
)

type ScanController struct {
	Presence *services.PresenceService
	Timeout  time.Duration
}

func NewScanController(db *gorm.DB, timeout time.Duration) *ScanController {
	return &ScanController{Presence: services.NewPresenceService(db), Timeout: timeout}
}

// RecordScan is called by a terminal each time a badge is read. Events reach
// displays through the scan feed, not from here.
func (sc *ScanController) RecordScan(c *gin.Context) {
	var req struct {
		TokenID   string `json:"token_id"`
		ScannerID string `json:"scanner_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := requestContext(c, sc.Timeout)
	defer cancel()

	result, err := sc.Presence.RecordScan(ctx, req.TokenID, req.ScannerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, result.Message, result)
}
