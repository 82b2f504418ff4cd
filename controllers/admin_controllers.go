package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/shopfloor-app/models"
	"github.com/yeremiapane/shopfloor-app/services"
	"github.com/yeremiapane/shopfloor-app/utils"
)

type AdminController struct {
	DB       *gorm.DB
	Presence *services.PresenceService
	Timeout  time.Duration
}

func NewAdminController(db *gorm.DB, timeout time.Duration) *AdminController {
	return &AdminController{DB: db, Presence: services.NewPresenceService(db), Timeout: timeout}
}

type DashboardStats struct {
	Workers struct {
		Active   int64 `json:"active"`
		LoggedIn int64 `json:"logged_in"`
		Inactive int64 `json:"inactive"`
	} `json:"workers"`
	Orders struct {
		Total       int64 `json:"total"`
		TotalPieces int64 `json:"total_pieces"`
		Bundles     int64 `json:"bundles"`
	} `json:"orders"`
	OpenAssignments int64 `json:"open_assignments"`
	Scans           struct {
		Today       int64 `json:"today"`
		ErrorsToday int64 `json:"errors_today"`
		ForcedToday int64 `json:"forced_today"`
	} `json:"scans"`
	ActiveScanners int64 `json:"active_scanners"`
}

// GetDashboardStats aggregates floor counters for the admin overview.
func (ac *AdminController) GetDashboardStats(c *gin.Context) {
	ctx, cancel := requestContext(c, ac.Timeout)
	defer cancel()
	db := ac.DB.WithContext(ctx)

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var stats DashboardStats
	queries := []*gorm.DB{
		db.Model(&models.Worker{}).Where("active = ?", true).Count(&stats.Workers.Active),
		db.Model(&models.Worker{}).Where("active = ? AND is_logged_in = ?", true, true).Count(&stats.Workers.LoggedIn),
		db.Model(&models.Worker{}).Where("active = ?", false).Count(&stats.Workers.Inactive),
		db.Model(&models.ProductionOrder{}).Count(&stats.Orders.Total),
		db.Model(&models.ProductionOrder{}).Select("COALESCE(SUM(total_pieces), 0)").Scan(&stats.Orders.TotalPieces),
		db.Model(&models.Bundle{}).Count(&stats.Orders.Bundles),
		db.Model(&models.Assignment{}).Where("completed_at IS NULL").Count(&stats.OpenAssignments),
		db.Model(&models.ScanLog{}).Where("scanned_at >= ?", startOfDay).Count(&stats.Scans.Today),
		db.Model(&models.ScanLog{}).Where("scanned_at >= ? AND action = ?", startOfDay, models.ScanActionError).Count(&stats.Scans.ErrorsToday),
		db.Model(&models.Worker{}).Where("is_logged_in = ?", true).Distinct("last_scanner_id").Count(&stats.ActiveScanners),
	}
	for _, q := range queries {
		if q.Error != nil {
			respondServiceError(c, q.Error)
			return
		}
	}

	// Forced logouts are identified by metadata, which is not queryable
	// portably across drivers.
	var logouts []models.ScanLog
	if err := db.Select("id", "metadata").
		Where("scanned_at >= ? AND action = ?", startOfDay, models.ScanActionLogout).
		Find(&logouts).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	for _, l := range logouts {
		if l.Metadata.Forced() {
			stats.Scans.ForcedToday++
		}
	}

	utils.RespondJSON(c, http.StatusOK, "Dashboard stats retrieved successfully", stats)
}

// GetScanLogs lists the audit trail, newest first.
func (ac *AdminController) GetScanLogs(c *gin.Context) {
	var filter services.ScanLogFilter
	if v := c.Query("worker_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, &services.ValidationError{Field: "worker_id", Message: "must be a positive integer"})
			return
		}
		filter.WorkerID = uint(id)
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, &services.ValidationError{Field: "limit", Message: "must be an integer"})
			return
		}
		filter.Limit = limit
	}
	filter.ScannerID = c.Query("scanner_id")
	filter.Action = c.Query("action")

	ctx, cancel := requestContext(c, ac.Timeout)
	defer cancel()

	logs, err := ac.Presence.ListScanLogs(ctx, filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Scan logs retrieved", logs)
}
