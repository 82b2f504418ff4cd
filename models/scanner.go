package models

import "time"

// Scanner is a physical terminal. The row doubles as the lock that
// serializes scans made on the same device.
type Scanner struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ScannerID  string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"scanner_id"`
	LastSeenAt time.Time `gorm:"not null" json:"last_seen_at"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}
