package models

import "time"

// Scan actions.
const (
	ScanActionLogin  = "login"
	ScanActionLogout = "logout"
	ScanActionError  = "error"
)

// Recognized ScanMetadata keys.
const (
	MetaReason = "reason"
	MetaForced = "forced"
)

// ScanMetadata is the open annotation map stored with each scan log.
type ScanMetadata map[string]interface{}

func (m ScanMetadata) Forced() bool {
	forced, _ := m[MetaForced].(bool)
	return forced
}

func (m ScanMetadata) Reason() string {
	reason, _ := m[MetaReason].(string)
	return reason
}

// ScanLog is the append-only audit trail of presence transitions.
type ScanLog struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	TokenID   string       `gorm:"type:varchar(64);not null;index" json:"token_id"`
	WorkerID  *uint        `gorm:"index" json:"worker_id"`
	Worker    *Worker      `gorm:"foreignKey:WorkerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"worker,omitempty"`
	Action    string       `gorm:"type:varchar(10);not null;index" json:"action"`
	ScannerID string       `gorm:"type:varchar(64);not null;index" json:"scanner_id"`
	Metadata  ScanMetadata `gorm:"type:text;serializer:json" json:"metadata"`
	ScannedAt time.Time    `gorm:"not null;index" json:"timestamp"`
}
