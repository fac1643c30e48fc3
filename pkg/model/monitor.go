package model

import (
	"time"

	"github.com/google/uuid"
)

type CheckStatus string

const (
	CheckSuccess CheckStatus = "success"
	CheckFailed  CheckStatus = "failed"
)

// Monitor configuration is owned by the control plane.
type Monitor struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID        uuid.UUID `gorm:"type:uuid;not null;index"`
	ProjectID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Name            string    `gorm:"not null"`
	URL             string    `gorm:"not null"`
	IntervalSeconds int       `gorm:"default:30"`
	Enabled         bool      `gorm:"default:true;index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (Monitor) TableName() string {
	return "monitors"
}

// MonitorCheck is one probe result. Rows are append-only; health is derived
// from the most recent N rows, never stored here.
type MonitorCheck struct {
	ID         uuid.UUID   `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MonitorID  uuid.UUID   `gorm:"type:uuid;not null;index:idx_monitor_checked_at"`
	Status     CheckStatus `gorm:"type:varchar(20);not null"`
	StatusCode *int
	DurationMs int64     `gorm:"not null"`
	CheckedAt  time.Time `gorm:"index:idx_monitor_checked_at"`
}

func (MonitorCheck) TableName() string {
	return "monitor_checks"
}
