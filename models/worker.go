package models

import "time"

// Login states reported to terminals.
const (
	LoginStateIn  = "IN"
	LoginStateOut = "OUT"
)

// Worker is a shop-floor operator identified by the token printed on their QR badge.
// Rows are never hard-deleted; Active=false retires a worker.
type Worker struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"type:varchar(255);not null" json:"name"`
	TokenID       string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"token_id"`
	Department    string    `gorm:"type:varchar(100);index" json:"department"`
	IsLoggedIn    bool      `gorm:"not null;default:false;index:idx_worker_presence,priority:2" json:"is_logged_in"`
	LastScannerID string    `gorm:"type:varchar(64);not null;default:'';index:idx_worker_presence,priority:1" json:"last_scanner_id"`
	Active        bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`
}

func (w Worker) LoginState() string {
	if w.IsLoggedIn {
		return LoginStateIn
	}
	return LoginStateOut
}
