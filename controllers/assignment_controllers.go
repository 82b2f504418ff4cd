package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/shopfloor-app/hub"
	"github.com/yeremiapane/shopfloor-app/services"
	"github.com/yeremiapane/shopfloor-app/utils"
)

type AssignmentController struct {
	Bundles   *services.BundleService
	Presence  *services.PresenceService
	Publisher services.Publisher
	Timeout   time.Duration
}

func NewAssignmentController(db *gorm.DB, publisher services.Publisher, timeout time.Duration) *AssignmentController {
	return &AssignmentController{
		Bundles:   services.NewBundleService(db, nil),
		Presence:  services.NewPresenceService(db),
		Publisher: publisher,
		Timeout:   timeout,
	}
}

// AssignBundle hands a bundle to a worker, closing their previous assignment.
func (ac *AssignmentController) AssignBundle(c *gin.Context) {
	var req struct {
		WorkerID uint `json:"worker_id"`
		BundleID uint `json:"bundle_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := requestContext(c, ac.Timeout)
	defer cancel()

	assignment, err := ac.Bundles.AssignBundle(ctx, req.WorkerID, req.BundleID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	bundle, err := ac.Presence.CurrentBundleState(ctx, assignment.WorkerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	// A logged-in worker's terminal refreshes; otherwise only admins hear of it.
	channel := hub.AdminChannel
	if assignment.Worker != nil && assignment.Worker.IsLoggedIn {
		channel = assignment.Worker.LastScannerID
	}
	ac.Publisher.BroadcastToScanner(channel, hub.Message{
		Event: hub.EventBundleAssigned,
		Data: gin.H{
			"worker_id": assignment.WorkerID,
			"bundle":    bundle,
		},
	})

	utils.RespondJSON(c, http.StatusCreated, "Bundle assigned", gin.H{
		"assignment": assignment,
		"bundle":     bundle,
	})
}

func (ac *AssignmentController) GetWorkerAssignments(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c, ac.Timeout)
	defer cancel()

	assignments, err := ac.Bundles.ListAssignments(ctx, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Assignments retrieved", assignments)
}
