package models

import "time"

// Assignment links a worker to a bundle. CompletedAt is nil while it is the
// worker's current assignment; a worker has at most one such row.
type Assignment struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	WorkerID    uint       `gorm:"not null;index:idx_assignment_open,priority:1" json:"worker_id"`
	Worker      *Worker    `gorm:"foreignKey:WorkerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"worker,omitempty"`
	BundleID    uint       `gorm:"not null;index" json:"bundle_id"`
	Bundle      *Bundle    `gorm:"foreignKey:BundleID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"bundle,omitempty"`
	AssignedAt  time.Time  `gorm:"not null" json:"assigned_at"`
	CompletedAt *time.Time `gorm:"index:idx_assignment_open,priority:2" json:"completed_at"`
}

func (a Assignment) IsOpen() bool {
	return a.CompletedAt == nil
}
