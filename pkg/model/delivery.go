package model

import (
	"time"

	"github.com/google/uuid"
)

type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
	DeliveryAbandoned DeliveryStatus = "abandoned"
)

// DeliveryAttempt tracks the delivery state of a single event. The row is
// created the first time the event is claimed and updated on every outcome;
// at most one row exists per event and a delivered row is terminal.
type DeliveryAttempt struct {
	ID              uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	EventID         uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex"`
	Event           *WebhookEvent  `gorm:"foreignKey:EventID"`
	EndpointID      uuid.UUID      `gorm:"type:uuid;not null;index"`
	Status          DeliveryStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	AttemptCount    int            `gorm:"not null;default:0"`
	StatusCode      *int
	ResponseExcerpt string     `gorm:"type:varchar(512)"`
	NextAttemptAt   *time.Time `gorm:"index"`
	DeliveredAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (DeliveryAttempt) TableName() string {
	return "delivery_attempts"
}

func (d DeliveryStatus) Terminal() bool {
	return d == DeliveryDelivered || d == DeliveryAbandoned
}
