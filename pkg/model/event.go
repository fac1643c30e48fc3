package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Tenant and Project are owned by the control plane; the dispatcher only
// ever reads them through foreign keys.
type Tenant struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name      string    `gorm:"not null;uniqueIndex"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Project struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Tenant    *Tenant   `gorm:"foreignKey:TenantID"`
	Name      string    `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WebhookEvent is written by the ingestion API and immutable afterwards.
// The dispatcher reads it during claim cycles and never updates it.
type WebhookEvent struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;index"`
	EndpointID uuid.UUID `gorm:"type:uuid;not null;index"`
	EventType  string    `gorm:"not null;index"`
	Payload    JSONB     `gorm:"type:jsonb;not null"`
	CreatedAt  time.Time `gorm:"index"`
}

func (WebhookEvent) TableName() string {
	return "webhook_events"
}

// Endpoint configuration lives in the control plane; the dispatcher resolves
// it by id to find the destination URL and enabled flag.
type Endpoint struct {
	ID         uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID   uuid.UUID      `gorm:"type:uuid;not null;index"`
	ProjectID  uuid.UUID      `gorm:"type:uuid;not null;index"`
	Name       string         `gorm:"not null"`
	URL        string         `gorm:"not null"`
	EventTypes pq.StringArray `gorm:"type:text[]"`
	Enabled    bool           `gorm:"default:true;index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Endpoint) TableName() string {
	return "endpoints"
}
