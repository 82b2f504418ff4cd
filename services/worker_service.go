package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeremiapane/shopfloor-app/models"
	"github.com/yeremiapane/shopfloor-app/utils"
)

const generatedTokenLength = 12

// WorkerInput registers one worker. TokenID is generated when empty.
type WorkerInput struct {
	Name       string `json:"name"`
	TokenID    string `json:"token_id"`
	Department string `json:"department"`
}

// WorkerFilter narrows ListWorkers.
type WorkerFilter struct {
	State           string
	Department      string
	IncludeInactive bool
}

type WorkerService struct {
	db *gorm.DB
}

func NewWorkerService(db *gorm.DB) *WorkerService {
	return &WorkerService{db: db}
}

// GenerateToken returns a fresh badge token.
func GenerateToken() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:generatedTokenLength]
}

func (s *WorkerService) RegisterWorker(ctx context.Context, in WorkerInput) (*models.Worker, error) {
	workers, err := s.RegisterWorkers(ctx, []WorkerInput{in})
	if err != nil {
		return nil, err
	}
	return &workers[0], nil
}

// RegisterWorkers creates every worker or none of them.
func (s *WorkerService) RegisterWorkers(ctx context.Context, inputs []WorkerInput) ([]models.Worker, error) {
	if len(inputs) == 0 {
		return nil, &ValidationError{Field: "workers", Message: "at least one worker is required"}
	}

	workers := make([]models.Worker, 0, len(inputs))
	seen := make(map[string]bool, len(inputs))
	for i, in := range inputs {
		name := utils.CleanText(in.Name)
		if name == "" {
			return nil, &ValidationError{Field: fmt.Sprintf("workers[%d].name", i), Message: "is required"}
		}
		token := strings.TrimSpace(in.TokenID)
		if token == "" {
			token = GenerateToken()
		}
		if seen[token] {
			return nil, &ConflictError{Entity: "worker token", Key: token}
		}
		seen[token] = true

		workers = append(workers, models.Worker{
			Name:       name,
			TokenID:    token,
			Department: utils.CleanText(in.Department),
			Active:     true,
		})
	}

	tokens := make([]string, 0, len(workers))
	for _, w := range workers {
		tokens = append(tokens, w.TokenID)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken []string
		if err := tx.Model(&models.Worker{}).Where("token_id IN ?", tokens).Pluck("token_id", &taken).Error; err != nil {
			return fmt.Errorf("failed to check tokens: %w", err)
		}
		if len(taken) > 0 {
			return &ConflictError{Entity: "worker token", Key: taken[0]}
		}

		if err := tx.Create(&workers).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &ConflictError{Entity: "worker token", Key: strings.Join(tokens, ",")}
			}
			return fmt.Errorf("failed to create workers: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithField("count", len(workers)).Info("Workers registered")
	return workers, nil
}

func (s *WorkerService) ListWorkers(ctx context.Context, filter WorkerFilter) ([]models.Worker, error) {
	query := s.db.WithContext(ctx).Model(&models.Worker{})
	if !filter.IncludeInactive {
		query = query.Where("active = ?", true)
	}
	switch strings.ToUpper(filter.State) {
	case "":
	case models.LoginStateIn:
		query = query.Where("is_logged_in = ?", true)
	case models.LoginStateOut:
		query = query.Where("is_logged_in = ?", false)
	default:
		return nil, &ValidationError{Field: "state", Message: "must be IN or OUT"}
	}
	if filter.Department != "" {
		query = query.Where("department = ?", filter.Department)
	}

	var workers []models.Worker
	if err := query.Order("name ASC, id ASC").Find(&workers).Error; err != nil {
		return nil, fmt.Errorf("failed to list workers: %w", err)
	}
	return workers, nil
}

func (s *WorkerService) GetWorker(ctx context.Context, id uint) (*models.Worker, error) {
	var worker models.Worker
	if err := s.db.WithContext(ctx).First(&worker, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "worker", Key: fmt.Sprint(id)}
		}
		return nil, fmt.Errorf("failed to load worker: %w", err)
	}
	return &worker, nil
}

func (s *WorkerService) GetWorkerByToken(ctx context.Context, tokenID string) (*models.Worker, error) {
	tokenID = strings.TrimSpace(tokenID)
	if tokenID == "" {
		return nil, &ValidationError{Field: "token_id", Message: "is required"}
	}
	var worker models.Worker
	if err := s.db.WithContext(ctx).Where("token_id = ? AND active = ?", tokenID, true).First(&worker).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "worker", Key: tokenID}
		}
		return nil, fmt.Errorf("failed to load worker: %w", err)
	}
	return &worker, nil
}

// DeactivateWorker retires a worker. A worker still logged in is logged out
// and the logout is recorded.
func (s *WorkerService) DeactivateWorker(ctx context.Context, id uint) (*models.Worker, error) {
	var worker models.Worker
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&worker, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "worker", Key: fmt.Sprint(id)}
			}
			return fmt.Errorf("failed to load worker: %w", err)
		}

		wasIn := worker.IsLoggedIn
		if err := tx.Model(&worker).Updates(map[string]interface{}{
			"active":       false,
			"is_logged_in": false,
		}).Error; err != nil {
			return fmt.Errorf("failed to deactivate worker: %w", err)
		}
		worker.Active = false
		worker.IsLoggedIn = false

		if wasIn {
			return appendLog(tx, worker.TokenID, &worker.ID, models.ScanActionLogout, worker.LastScannerID, time.Now(),
				models.ScanMetadata{models.MetaReason: ReasonDeactivated})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{"worker_id": worker.ID, "token_id": worker.TokenID}).Info("Worker deactivated")
	return &worker, nil
}
