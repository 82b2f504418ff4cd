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

// DistributePieces splits total pieces over n bundles. The first total%n
// bundles carry one extra piece, so the result always sums to total.
func DistributePieces(total, n int) ([]int, error) {
	if total < 0 {
		return nil, &ValidationError{Field: "total_pieces", Message: "must not be negative"}
	}
	if n <= 0 {
		return nil, &ValidationError{Field: "bundle_count", Message: "must be positive"}
	}
	if n > models.MaxBundleCount {
		return nil, &ValidationError{Field: "bundle_count", Message: fmt.Sprintf("must not exceed %d", models.MaxBundleCount)}
	}

	base, remainder := total/n, total%n
	out := make([]int, n)
	for i := range out {
		out[i] = base
		if i < remainder {
			out[i]++
		}
	}
	return out, nil
}

// createBatchSize keeps multi-row inserts under SQLite's bound-parameter limit.
const createBatchSize = 100

// OrderInput is what the bulk-upload collaborator hands over after parsing a sheet.
type OrderInput struct {
	OrderNumber string
	TotalPieces int
	BundleCount int
	Brand       string
	SourceFile  string
	// Operations overrides the configured routing when non-nil.
	Operations []string
}

// BundleService owns production orders, their bundles and bundle assignments.
type BundleService struct {
	db         *gorm.DB
	operations []string
}

func NewBundleService(db *gorm.DB, operations []string) *BundleService {
	return &BundleService{db: db, operations: operations}
}

// CreateOrderWithBundles stores the order, its bundles and each bundle's
// operations in one transaction.
func (s *BundleService) CreateOrderWithBundles(ctx context.Context, in OrderInput) (*models.ProductionOrder, error) {
	orderNumber := utils.CleanText(in.OrderNumber)
	if orderNumber == "" {
		return nil, &ValidationError{Field: "order_number", Message: "is required"}
	}
	distribution, err := DistributePieces(in.TotalPieces, in.BundleCount)
	if err != nil {
		return nil, err
	}

	routing := s.operations
	if in.Operations != nil {
		routing = in.Operations
	}
	var operationNames []string
	for _, name := range routing {
		if name = utils.CleanText(name); name != "" {
			operationNames = append(operationNames, name)
		}
	}
	if len(operationNames) > models.MaxRoutingSteps {
		return nil, &ValidationError{Field: "operations", Message: fmt.Sprintf("must not exceed %d steps", models.MaxRoutingSteps)}
	}

	order := models.ProductionOrder{
		OrderNumber: orderNumber,
		TotalPieces: in.TotalPieces,
		BundleCount: in.BundleCount,
		Brand:       utils.CleanText(in.Brand),
		SourceFile:  strings.TrimSpace(in.SourceFile),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.ProductionOrder{}).Where("order_number = ?", orderNumber).Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to check order number: %w", err)
		}
		if existing > 0 {
			return &ConflictError{Entity: "order", Key: orderNumber}
		}

		if err := tx.Create(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &ConflictError{Entity: "order", Key: orderNumber}
			}
			return fmt.Errorf("failed to create order: %w", err)
		}

		bundles := make([]models.Bundle, len(distribution))
		for i, pieces := range distribution {
			bundles[i] = models.Bundle{
				OrderID:         order.ID,
				BundleNumber:    i + 1,
				PiecesAssigned:  pieces,
				PiecesCompleted: 0,
			}
		}
		if err := tx.CreateInBatches(&bundles, createBatchSize).Error; err != nil {
			return fmt.Errorf("failed to create bundles: %w", err)
		}

		if len(operationNames) > 0 {
			operations := make([]models.Operation, 0, len(bundles)*len(operationNames))
			for _, b := range bundles {
				for seq, name := range operationNames {
					operations = append(operations, models.Operation{
						BundleID: b.ID,
						Sequence: seq + 1,
						Name:     name,
						Status:   models.OperationStatusPending,
					})
				}
			}
			if err := tx.CreateInBatches(&operations, createBatchSize).Error; err != nil {
				return fmt.Errorf("failed to create operations: %w", err)
			}
			for i := range bundles {
				start := i * len(operationNames)
				bundles[i].Operations = operations[start : start+len(operationNames)]
			}
		}

		order.Bundles = bundles
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"order":   order.OrderNumber,
		"pieces":  order.TotalPieces,
		"bundles": len(order.Bundles),
	}).Info("Production order created")
	return &order, nil
}

// AssignBundle closes the worker's open assignments and opens a new one for
// bundleID, atomically.
func (s *BundleService) AssignBundle(ctx context.Context, workerID, bundleID uint) (*models.Assignment, error) {
	if workerID == 0 {
		return nil, &InvalidReferenceError{Entity: "worker", ID: workerID}
	}
	if bundleID == 0 {
		return nil, &InvalidReferenceError{Entity: "bundle", ID: bundleID}
	}

	var assignment models.Assignment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var worker models.Worker
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&worker, workerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &InvalidReferenceError{Entity: "worker", ID: workerID}
			}
			return fmt.Errorf("failed to load worker: %w", err)
		}
		if !worker.Active {
			return &ValidationError{Field: "worker_id", Message: "worker is deactivated"}
		}

		var bundle models.Bundle
		if err := tx.First(&bundle, bundleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &InvalidReferenceError{Entity: "bundle", ID: bundleID}
			}
			return fmt.Errorf("failed to load bundle: %w", err)
		}

		now := time.Now()
		if err := tx.Model(&models.Assignment{}).
			Where("worker_id = ? AND completed_at IS NULL", workerID).
			Update("completed_at", now).Error; err != nil {
			return fmt.Errorf("failed to close open assignments: %w", err)
		}

		assignment = models.Assignment{
			WorkerID:   workerID,
			BundleID:   bundleID,
			AssignedAt: now,
		}
		if err := tx.Create(&assignment).Error; err != nil {
			return fmt.Errorf("failed to create assignment: %w", err)
		}
		assignment.Worker = &worker
		assignment.Bundle = &bundle
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"worker_id": workerID,
		"bundle_id": bundleID,
	}).Info("Bundle assigned")
	return &assignment, nil
}

func (s *BundleService) ListOrders(ctx context.Context) ([]models.ProductionOrder, error) {
	var orders []models.ProductionOrder
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// GetOrder loads an order with its bundles and their operations.
func (s *BundleService) GetOrder(ctx context.Context, id uint) (*models.ProductionOrder, error) {
	var order models.ProductionOrder
	err := s.db.WithContext(ctx).
		Preload("Bundles", func(db *gorm.DB) *gorm.DB { return db.Order("bundle_number ASC") }).
		Preload("Bundles.Operations", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") }).
		First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "order", Key: fmt.Sprint(id)}
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return &order, nil
}

// ListAssignments returns a worker's assignment history, newest first.
func (s *BundleService) ListAssignments(ctx context.Context, workerID uint) ([]models.Assignment, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Worker{}).Where("id = ?", workerID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to load worker: %w", err)
	}
	if count == 0 {
		return nil, &NotFoundError{Entity: "worker", Key: fmt.Sprint(workerID)}
	}

	var assignments []models.Assignment
	err := s.db.WithContext(ctx).
		Preload("Bundle").
		Where("worker_id = ?", workerID).
		Order("assigned_at DESC, id DESC").
		Find(&assignments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return assignments, nil
}
