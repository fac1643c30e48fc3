package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hookpulse/hookpulse/pkg/model"
)

// ClaimedEvent is one event handed to a worker for a single delivery
// attempt, together with the attempt count accumulated so far.
type ClaimedEvent struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	EndpointID   uuid.UUID
	EventType    string
	Payload      model.JSONB
	CreatedAt    time.Time
	AttemptCount int
}

type LedgerRepository struct {
	db         *gorm.DB
	claimLease time.Duration
}

func NewLedgerRepository(db *gorm.DB, claimLease time.Duration) *LedgerRepository {
	if claimLease <= 0 {
		claimLease = 60 * time.Second
	}
	return &LedgerRepository{db: db, claimLease: claimLease}
}

// ClaimBatch selects up to limit eligible events oldest-first and marks
// their attempt rows pending inside the same transaction. Row locks with
// SKIP LOCKED keep concurrent dispatcher replicas disjoint; the pending
// upsert keeps the events out of the eligible set once the locks release.
// Rows left pending past the claim lease belong to a worker that died
// mid-flight and become eligible again.
func (r *LedgerRepository) ClaimBatch(ctx context.Context, limit int) ([]ClaimedEvent, error) {
	if limit <= 0 {
		limit = 10
	}

	var claimed []ClaimedEvent
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Raw(`
			SELECT e.id, e.tenant_id, e.endpoint_id, e.event_type, e.payload, e.created_at,
			       COALESCE(a.attempt_count, 0) AS attempt_count
			FROM webhook_events e
			LEFT JOIN delivery_attempts a ON a.event_id = e.id
			WHERE a.id IS NULL
			   OR (a.status = 'failed' AND a.next_attempt_at <= NOW())
			   OR (a.status = 'pending' AND a.updated_at <= NOW() - make_interval(secs => ?))
			ORDER BY e.created_at ASC
			LIMIT ?
			FOR UPDATE OF e SKIP LOCKED
		`, r.claimLease.Seconds(), limit).Scan(&claimed).Error
		if err != nil {
			return err
		}

		for _, ev := range claimed {
			err := tx.Exec(`
				INSERT INTO delivery_attempts (id, event_id, endpoint_id, status, attempt_count, created_at, updated_at)
				VALUES (gen_random_uuid(), ?, ?, 'pending', 0, NOW(), NOW())
				ON CONFLICT (event_id) DO UPDATE
				SET status = 'pending', updated_at = NOW()
				WHERE delivery_attempts.status <> 'delivered'
			`, ev.ID, ev.EndpointID).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *LedgerRepository) MarkDelivered(ctx context.Context, eventID uuid.UUID, statusCode int, deliveredAt time.Time) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE delivery_attempts
		SET status = 'delivered', attempt_count = attempt_count + 1,
		    status_code = ?, delivered_at = ?, updated_at = NOW()
		WHERE event_id = ? AND status <> 'delivered'
	`, statusCode, deliveredAt, eventID).Error
}

func (r *LedgerRepository) MarkFailed(ctx context.Context, eventID uuid.UUID, statusCode *int, excerpt string, nextAttemptAt time.Time) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE delivery_attempts
		SET status = 'failed', attempt_count = attempt_count + 1,
		    status_code = ?, response_excerpt = ?, next_attempt_at = ?, updated_at = NOW()
		WHERE event_id = ? AND status <> 'delivered'
	`, statusCode, excerpt, nextAttemptAt, eventID).Error
}

func (r *LedgerRepository) MarkAbandoned(ctx context.Context, eventID uuid.UUID, statusCode *int, excerpt string) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE delivery_attempts
		SET status = 'abandoned', attempt_count = attempt_count + 1,
		    status_code = ?, response_excerpt = ?, next_attempt_at = NULL, updated_at = NOW()
		WHERE event_id = ? AND status <> 'delivered'
	`, statusCode, excerpt, eventID).Error
}

func (r *LedgerRepository) ListAttempts(ctx context.Context, status model.DeliveryStatus, limit, offset int) ([]model.DeliveryAttempt, int64, error) {
	var attempts []model.DeliveryAttempt
	var total int64

	query := r.db.WithContext(ctx).Model(&model.DeliveryAttempt{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("updated_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&attempts).Error

	return attempts, total, err
}
