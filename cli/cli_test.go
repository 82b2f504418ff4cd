package cli

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/shopfloor-app/config"
	"github.com/yeremiapane/shopfloor-app/database"
	"github.com/yeremiapane/shopfloor-app/models"
)

func init() {
	color.NoColor = true
}

func useTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	previous := openDB
	openDB = func(*config.Config) (*gorm.DB, error) { return db, nil }
	t.Cleanup(func() { openDB = previous })
	return db
}

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDistributeCmd(t *testing.T) {
	out, err := run(t, DistributeCmd(), "1119", "--bundles", "12")
	require.NoError(t, err)

	assert.Contains(t, out, "1119 pieces in 12 bundles")
	assert.Equal(t, 3, strings.Count(out, " 94\n"))
	assert.Equal(t, 9, strings.Count(out, " 93\n"))
}

func TestDistributeCmdRejectsBadInput(t *testing.T) {
	_, err := run(t, DistributeCmd(), "many")
	assert.Error(t, err)

	_, err = run(t, DistributeCmd(), "10", "--bundles", "0")
	assert.Error(t, err)

	_, err = run(t, DistributeCmd(), "1", "--bundles", "2000000000")
	assert.Error(t, err)
}

func TestSeedScanAndList(t *testing.T) {
	db := useTestDB(t)

	out, err := run(t, SeedCmd(), "--pieces", "120")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ worker ABC123")
	assert.Contains(t, out, "✓ order DEMO-001")

	out, err = run(t, SeedCmd(), "--pieces", "120")
	require.NoError(t, err)
	assert.Contains(t, out, "- worker ABC123 exists")
	assert.Contains(t, out, "- order DEMO-001 exists")

	_, err = run(t, ScanCmd(), "ABC123", "--scanner", "S1")
	require.NoError(t, err)
	out, err = run(t, ScanCmd(), "XYZ999", "--scanner", "S1")
	require.NoError(t, err)
	assert.Contains(t, out, "IN  Budi Santoso (XYZ999)")
	assert.Contains(t, out, "Ana Putri (ABC123) forced out")

	out, err = run(t, WorkersCmd(), "--state", "IN")
	require.NoError(t, err)
	assert.Contains(t, out, "XYZ999")
	assert.NotContains(t, out, "ABC123")

	_, err = run(t, ScanCmd(), "NOBODY")
	assert.Error(t, err)

	var errors int64
	require.NoError(t, db.Model(&models.ScanLog{}).Where("action = ?", models.ScanActionError).Count(&errors).Error)
	assert.EqualValues(t, 1, errors)
}

func TestMigrateCmd(t *testing.T) {
	useTestDB(t)
	t.Setenv("ADMIN_EMAIL", "boss@example.com")
	t.Setenv("ADMIN_PASSWORD", "password123")

	out, err := run(t, MigrateCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "Schema ready")
}
