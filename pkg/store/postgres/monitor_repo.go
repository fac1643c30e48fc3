package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hookpulse/hookpulse/pkg/model"
)

type MonitorRepository struct {
	db *gorm.DB
}

func NewMonitorRepository(db *gorm.DB) *MonitorRepository {
	return &MonitorRepository{db: db}
}

// ListEnabled spans tenants; monitor probing is administrative work like
// the claim step, so no tenant context is set here.
func (r *MonitorRepository) ListEnabled(ctx context.Context) ([]model.Monitor, error) {
	var monitors []model.Monitor
	err := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("created_at ASC").
		Find(&monitors).Error
	return monitors, err
}

func (r *MonitorRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Monitor, error) {
	var monitor model.Monitor
	err := r.db.WithContext(ctx).First(&monitor, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &monitor, nil
}

func (r *MonitorRepository) AppendCheck(ctx context.Context, check *model.MonitorCheck) error {
	return r.db.WithContext(ctx).Create(check).Error
}

// RecentChecks returns the newest checks first, capped at limit.
func (r *MonitorRepository) RecentChecks(ctx context.Context, monitorID uuid.UUID, limit int) ([]model.MonitorCheck, error) {
	var checks []model.MonitorCheck
	err := r.db.WithContext(ctx).
		Where("monitor_id = ?", monitorID).
		Order("checked_at DESC").
		Limit(limit).
		Find(&checks).Error
	return checks, err
}
