package models

import "time"

// Back-office roles. Supervisors can read everything but change nothing.
const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
)

// User is an administrator account for the back office.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255); not null" json:"name"`
	Email     string    `gorm:"type:varchar(255); unique;not null" json:"email"`
	Password  string    `gorm:"type:varchar(255); not null" json:"-"`
	Role      string    `gorm:"type:varchar(50); not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Worker{},
		&Scanner{},
		&ProductionOrder{},
		&Bundle{},
		&Operation{},
		&Assignment{},
		&ScanLog{},
	}
}
