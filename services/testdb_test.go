package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/shopfloor-app/database"
	"github.com/yeremiapane/shopfloor-app/models"
)

var errWriteFailed = errors.New("write failed")

// failCreates makes every insert matched by match fail before it reaches the database.
func failCreates(t *testing.T, db *gorm.DB, match func(tx *gorm.DB) bool) {
	t.Helper()
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_create", func(tx *gorm.DB) {
		if match(tx) {
			_ = tx.AddError(errWriteFailed)
		}
	}))
}

var testOperations = []string{"cutting", "stitching", "finishing", "packing"}

// setupTestDB opens a private in-memory SQLite database for one test.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func mustRegister(t *testing.T, db *gorm.DB, name, token string) *models.Worker {
	t.Helper()
	w, err := NewWorkerService(db).RegisterWorker(context.Background(), WorkerInput{Name: name, TokenID: token, Department: "sewing"})
	require.NoError(t, err)
	return w
}

func mustReload(t *testing.T, db *gorm.DB, id uint) models.Worker {
	t.Helper()
	var w models.Worker
	require.NoError(t, db.First(&w, id).Error)
	return w
}

func countLogs(t *testing.T, db *gorm.DB, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(&models.ScanLog{})
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}
