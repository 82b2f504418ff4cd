package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeremiapane/shopfloor-app/models"
	"github.com/yeremiapane/shopfloor-app/utils"
)

// UnknownScanner is recorded when a terminal does not identify itself.
const UnknownScanner = "UNKNOWN"

// Reasons stored on error scan logs.
const (
	ReasonUnknownToken   = "unknown_token"
	ReasonInactiveWorker = "inactive_worker"
	ReasonDeactivated    = "deactivated"
)

// WorkerState is the public view of a worker shown on terminals.
type WorkerState struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	TokenID    string `json:"token_id"`
	Department string `json:"department"`
	LoginState string `json:"login_state"`
}

func NewWorkerState(w models.Worker) WorkerState {
	return WorkerState{
		ID:         w.ID,
		Name:       w.Name,
		TokenID:    w.TokenID,
		Department: w.Department,
		LoginState: w.LoginState(),
	}
}

// BundleState is the read-only projection of a worker's current assignment.
type BundleState struct {
	AssignmentID    uint               `json:"assignment_id"`
	BundleID        uint               `json:"bundle_id"`
	BundleNumber    int                `json:"bundle_number"`
	OrderID         uint               `json:"order_id"`
	OrderNumber     string             `json:"order_number"`
	Brand           string             `json:"brand"`
	PiecesAssigned  int                `json:"pieces_assigned"`
	PiecesCompleted int                `json:"pieces_completed"`
	PiecesRemaining int                `json:"pieces_remaining"`
	AssignedAt      time.Time          `json:"assigned_at"`
	Operations      []models.Operation `json:"operations"`
}

type ScanResult struct {
	Worker        WorkerState   `json:"worker"`
	Action        string        `json:"action"`
	Bundle        *BundleState  `json:"bundle"`
	ForcedLogouts []WorkerState `json:"forced_logouts"`
	Message       string        `json:"message"`
}

// PresenceService runs the scan-driven login/logout state machine.
type PresenceService struct {
	db *gorm.DB
}

func NewPresenceService(db *gorm.DB) *PresenceService {
	return &PresenceService{db: db}
}

// RecordScan toggles the presence of the worker holding tokenID. Any other
// worker still logged in on scannerID is logged out first. All state changes
// and their logs commit together.
func (s *PresenceService) RecordScan(ctx context.Context, tokenID, scannerID string) (*ScanResult, error) {
	tokenID = strings.TrimSpace(tokenID)
	if tokenID == "" {
		return nil, &ValidationError{Field: "token_id", Message: "is required"}
	}
	scannerID = strings.TrimSpace(scannerID)
	if scannerID == "" {
		scannerID = UnknownScanner
	}

	result := ScanResult{ForcedLogouts: []WorkerState{}}
	var rejected error

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		// Rejected tokens are logged without touching the scanner registry.
		var worker models.Worker
		err := tx.Where("token_id = ?", tokenID).First(&worker).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			rejected = &NotFoundError{Entity: "worker", Key: tokenID}
			return appendLog(tx, tokenID, nil, models.ScanActionError, scannerID, now,
				models.ScanMetadata{models.MetaReason: ReasonUnknownToken})
		case err != nil:
			return fmt.Errorf("failed to resolve token: %w", err)
		}
		if !worker.Active {
			rejected = &NotFoundError{Entity: "worker", Key: tokenID}
			return appendLog(tx, tokenID, &worker.ID, models.ScanActionError, scannerID, now,
				models.ScanMetadata{models.MetaReason: ReasonInactiveWorker})
		}

		if err := lockScanner(tx, scannerID, now); err != nil {
			return err
		}

		// Re-read under the row lock; the worker may have toggled or been
		// deactivated since the first read.
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&worker, worker.ID).Error; err != nil {
			return fmt.Errorf("failed to lock worker %d: %w", worker.ID, err)
		}
		if !worker.Active {
			rejected = &NotFoundError{Entity: "worker", Key: tokenID}
			return appendLog(tx, tokenID, &worker.ID, models.ScanActionError, scannerID, now,
				models.ScanMetadata{models.MetaReason: ReasonInactiveWorker})
		}

		var occupants []models.Worker
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("is_logged_in = ? AND last_scanner_id = ? AND id <> ?", true, scannerID, worker.ID).
			Order("id ASC").
			Find(&occupants).Error; err != nil {
			return fmt.Errorf("failed to load scanner occupants: %w", err)
		}

		for i := range occupants {
			occupant := &occupants[i]
			if err := tx.Model(occupant).Updates(map[string]interface{}{"is_logged_in": false}).Error; err != nil {
				return fmt.Errorf("failed to force logout of worker %d: %w", occupant.ID, err)
			}
			occupant.IsLoggedIn = false
			if err := appendLog(tx, occupant.TokenID, &occupant.ID, models.ScanActionLogout, scannerID, now,
				models.ScanMetadata{models.MetaForced: true}); err != nil {
				return err
			}
			result.ForcedLogouts = append(result.ForcedLogouts, NewWorkerState(*occupant))
		}

		action := models.ScanActionLogin
		updates := map[string]interface{}{"is_logged_in": true, "last_scanner_id": scannerID}
		if worker.IsLoggedIn {
			action = models.ScanActionLogout
			updates = map[string]interface{}{"is_logged_in": false}
		}
		if err := tx.Model(&worker).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to toggle worker %d: %w", worker.ID, err)
		}
		worker.IsLoggedIn = action == models.ScanActionLogin
		if worker.IsLoggedIn {
			worker.LastScannerID = scannerID
		}

		if err := appendLog(tx, worker.TokenID, &worker.ID, action, scannerID, now, models.ScanMetadata{}); err != nil {
			return err
		}

		result.Worker = NewWorkerState(worker)
		result.Action = action
		return nil
	})
	if err != nil {
		utils.ErrorLogger.WithFields(logrus.Fields{
			"token_id":   tokenID,
			"scanner_id": scannerID,
		}).Errorf("Scan rolled back: %v", err)
		return nil, err
	}
	if rejected != nil {
		utils.InfoLogger.WithFields(logrus.Fields{
			"token_id":   tokenID,
			"scanner_id": scannerID,
		}).Warn("Scan rejected")
		return nil, rejected
	}

	bundle, err := s.CurrentBundleState(ctx, result.Worker.ID)
	if err != nil {
		return nil, err
	}
	result.Bundle = bundle
	result.Message = scanMessage(result)

	utils.InfoLogger.WithFields(logrus.Fields{
		"worker":     result.Worker.TokenID,
		"scanner_id": scannerID,
		"action":     result.Action,
		"forced":     len(result.ForcedLogouts),
	}).Info("Scan recorded")
	return &result, nil
}

// CurrentBundleState returns the worker's open assignment, or nil when the
// worker has none.
func (s *PresenceService) CurrentBundleState(ctx context.Context, workerID uint) (*BundleState, error) {
	var assignment models.Assignment
	err := s.db.WithContext(ctx).
		Preload("Bundle.Order").
		Preload("Bundle.Operations", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") }).
		Where("worker_id = ? AND completed_at IS NULL", workerID).
		Order("assigned_at DESC, id DESC").
		First(&assignment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load current bundle: %w", err)
	}
	if assignment.Bundle == nil {
		return nil, nil
	}

	bundle := assignment.Bundle
	state := &BundleState{
		AssignmentID:    assignment.ID,
		BundleID:        bundle.ID,
		BundleNumber:    bundle.BundleNumber,
		OrderID:         bundle.OrderID,
		PiecesAssigned:  bundle.PiecesAssigned,
		PiecesCompleted: bundle.PiecesCompleted,
		PiecesRemaining: bundle.PiecesRemaining(),
		AssignedAt:      assignment.AssignedAt,
		Operations:      bundle.Operations,
	}
	if bundle.Order != nil {
		state.OrderNumber = bundle.Order.OrderNumber
		state.Brand = bundle.Order.Brand
	}
	if state.Operations == nil {
		state.Operations = []models.Operation{}
	}
	return state, nil
}

// ScanLogFilter narrows ListScanLogs. Zero values match everything.
type ScanLogFilter struct {
	WorkerID  uint
	ScannerID string
	Action    string
	Limit     int
}

const (
	defaultScanLogLimit = 100
	maxScanLogLimit     = 1000
)

// ListScanLogs returns audit entries, newest first.
func (s *PresenceService) ListScanLogs(ctx context.Context, filter ScanLogFilter) ([]models.ScanLog, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultScanLogLimit
	}
	if limit > maxScanLogLimit {
		limit = maxScanLogLimit
	}

	query := s.db.WithContext(ctx).Model(&models.ScanLog{})
	if filter.WorkerID != 0 {
		query = query.Where("worker_id = ?", filter.WorkerID)
	}
	if filter.ScannerID != "" {
		query = query.Where("scanner_id = ?", filter.ScannerID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}

	var logs []models.ScanLog
	if err := query.Order("id DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to list scan logs: %w", err)
	}
	return logs, nil
}

// lockScanner upserts the scanner row and takes its row lock, serializing
// scans made on the same terminal.
func lockScanner(tx *gorm.DB, scannerID string, now time.Time) error {
	scanner := models.Scanner{ScannerID: scannerID, LastSeenAt: now, CreatedAt: now}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "scanner_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"last_seen_at": now}),
	}).Create(&scanner).Error; err != nil {
		return fmt.Errorf("failed to register scanner %s: %w", scannerID, err)
	}

	var locked models.Scanner
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("scanner_id = ?", scannerID).
		First(&locked).Error; err != nil {
		return fmt.Errorf("failed to lock scanner %s: %w", scannerID, err)
	}
	return nil
}

func appendLog(tx *gorm.DB, tokenID string, workerID *uint, action, scannerID string, at time.Time, meta models.ScanMetadata) error {
	entry := models.ScanLog{
		TokenID:   tokenID,
		WorkerID:  workerID,
		Action:    action,
		ScannerID: scannerID,
		Metadata:  meta,
		ScannedAt: at,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to append %s log: %w", action, err)
	}
	return nil
}

func scanMessage(r ScanResult) string {
	var msg string
	if r.Action == models.ScanActionLogin {
		msg = "Welcome, " + r.Worker.Name
	} else {
		msg = "Goodbye, " + r.Worker.Name
	}
	switch n := len(r.ForcedLogouts); n {
	case 0:
	case 1:
		msg += fmt.Sprintf(" (%s was logged out from this scanner)", r.ForcedLogouts[0].Name)
	default:
		msg += fmt.Sprintf(" (%d workers were logged out from this scanner)", n)
	}
	return msg
}
