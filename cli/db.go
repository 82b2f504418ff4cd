// Package cli holds the floorctl commands used by supervisors and for demos.
package cli

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yeremiapane/shopfloor-app/config"
	"github.com/yeremiapane/shopfloor-app/database"
)

// openDB connects and migrates. Tests replace it with an in-memory database.
var openDB = func(cfg *config.Config) (*gorm.DB, error) {
	db, err := config.InitDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
