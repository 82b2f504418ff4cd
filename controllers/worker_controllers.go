package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/shopfloor-app/hub"
	"github.com/yeremiapane/shopfloor-app/services"
	"github.com/yeremiapane/shopfloor-app/utils"
)

type WorkerController struct {
	Workers   *services.WorkerService
	Presence  *services.PresenceService
	Publisher services.Publisher
	Timeout   time.Duration
}

func NewWorkerController(db *gorm.DB, publisher services.Publisher, timeout time.Duration) *WorkerController {
	return &WorkerController{
		Workers:   services.NewWorkerService(db),
		Presence:  services.NewPresenceService(db),
		Publisher: publisher,
		Timeout:   timeout,
	}
}

func (wc *WorkerController) CreateWorker(c *gin.Context) {
	var req services.WorkerInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := requestContext(c, wc.Timeout)
	defer cancel()

	worker, err := wc.Workers.RegisterWorker(ctx, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	wc.Publisher.BroadcastToScanner(hub.AdminChannel, hub.Message{Event: hub.EventWorkerUpdate, Data: worker})
	utils.RespondJSON(c, http.StatusCreated, "Worker registered", worker)
}

// BulkCreateWorkers registers a parsed roster in one transaction.
func (wc *WorkerController) BulkCreateWorkers(c *gin.Context) {
	var req struct {
		Workers []services.WorkerInput `json:"workers" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := requestContext(c, wc.Timeout)
	defer cancel()

	workers, err := wc.Workers.RegisterWorkers(ctx, req.Workers)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Workers registered", workers)
}

func (wc *WorkerController) GetAllWorkers(c *gin.Context) {
	includeInactive, _ := strconv.ParseBool(c.Query("include_inactive"))
	filter := services.WorkerFilter{
		State:           c.Query("state"),
		Department:      c.Query("department"),
		IncludeInactive: includeInactive,
	}

	ctx, cancel := requestContext(c, wc.Timeout)
	defer cancel()

	workers, err := wc.Workers.ListWorkers(ctx, filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Workers retrieved", workers)
}

func (wc *WorkerController) GetWorkerByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c, wc.Timeout)
	defer cancel()

	worker, err := wc.Workers.GetWorker(ctx, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	bundle, err := wc.Presence.CurrentBundleState(ctx, worker.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Worker retrieved", gin.H{
		"worker":      worker,
		"login_state": worker.LoginState(),
		"bundle":      bundle,
	})
}

func (wc *WorkerController) DeactivateWorker(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c, wc.Timeout)
	defer cancel()

	worker, err := wc.Workers.DeactivateWorker(ctx, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	// Terminals drop a deactivated worker from their display too.
	wc.Publisher.Broadcast(hub.Message{Event: hub.EventWorkerUpdate, Data: worker})
	utils.RespondJSON(c, http.StatusOK, "Worker deactivated", worker)
}

// GetCurrentBundle serves terminal displays that look a worker up by badge.
func (wc *WorkerController) GetCurrentBundle(c *gin.Context) {
	ctx, cancel := requestContext(c, wc.Timeout)
	defer cancel()

	worker, err := wc.Workers.GetWorkerByToken(ctx, c.Param("token"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	bundle, err := wc.Presence.CurrentBundleState(ctx, worker.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Current bundle retrieved", gin.H{
		"worker": services.NewWorkerState(*worker),
		"bundle": bundle,
	})
}
