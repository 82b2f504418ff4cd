package models

import "time"

// Upper bounds for one order's split and routing.
const (
	MaxBundleCount  = 1000
	MaxRoutingSteps = 50
)

// ProductionOrder is created once per bulk upload and is not edited afterwards.
type ProductionOrder struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OrderNumber string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"order_number"`
	TotalPieces int       `gorm:"not null" json:"total_pieces"`
	BundleCount int       `gorm:"not null" json:"bundle_count"`
	Brand       string    `gorm:"type:varchar(100)" json:"brand"`
	SourceFile  string    `gorm:"type:varchar(255)" json:"source_file"`
	Bundles     []Bundle  `gorm:"foreignKey:OrderID" json:"bundles,omitempty"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

type Bundle struct {
	ID              uint             `gorm:"primaryKey" json:"id"`
	OrderID         uint             `gorm:"not null;uniqueIndex:idx_order_bundle" json:"order_id"`
	Order           *ProductionOrder `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"order,omitempty"`
	BundleNumber    int              `gorm:"not null;uniqueIndex:idx_order_bundle" json:"bundle_number"`
	PiecesAssigned  int              `gorm:"not null" json:"pieces_assigned"`
	PiecesCompleted int              `gorm:"not null;default:0" json:"pieces_completed"`
	Operations      []Operation      `gorm:"foreignKey:BundleID" json:"operations,omitempty"`
	CreatedAt       time.Time        `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time        `gorm:"not null" json:"updated_at"`
}

func (b Bundle) PiecesRemaining() int {
	if remaining := b.PiecesAssigned - b.PiecesCompleted; remaining > 0 {
		return remaining
	}
	return 0
}

const OperationStatusPending = "pending"

// Operation is one step of a bundle's sewing routing.
type Operation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BundleID  uint      `gorm:"not null;index" json:"bundle_id"`
	Sequence  int       `gorm:"not null" json:"sequence"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Status    string    `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
