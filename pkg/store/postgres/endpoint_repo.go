package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hookpulse/hookpulse/pkg/model"
)

type EndpointRepository struct {
	db *gorm.DB
}

func NewEndpointRepository(db *gorm.DB) *EndpointRepository {
	return &EndpointRepository{db: db}
}

// GetByID resolves an endpoint inside a transaction scoped to its tenant.
// The tenant context drives the store's row-level security policies, so a
// lookup can never leak another tenant's configuration.
func (r *EndpointRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Endpoint, error) {
	var endpoint model.Endpoint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`SELECT set_config('hookpulse.tenant_id', ?, true)`, tenantID.String()).Error; err != nil {
			return err
		}
		return tx.First(&endpoint, "id = ? AND tenant_id = ?", id, tenantID).Error
	})
	if err != nil {
		return nil, err
	}
	return &endpoint, nil
}
