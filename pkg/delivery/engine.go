package delivery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hookpulse/hookpulse/pkg/model"
	"github.com/hookpulse/hookpulse/pkg/store/postgres"
)

// Ledger is the slice of the delivery ledger the engine needs.
type Ledger interface {
	ClaimBatch(ctx context.Context, limit int) ([]postgres.ClaimedEvent, error)
	MarkDelivered(ctx context.Context, eventID uuid.UUID, statusCode int, deliveredAt time.Time) error
	MarkFailed(ctx context.Context, eventID uuid.UUID, statusCode *int, excerpt string, nextAttemptAt time.Time) error
	MarkAbandoned(ctx context.Context, eventID uuid.UUID, statusCode *int, excerpt string) error
}

// EndpointResolver looks up destination configuration by id.
type EndpointResolver interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Endpoint, error)
}

// Recorder receives one observation per processed event plus a per-cycle
// marker.
type Recorder interface {
	ObserveDelivery(tenantID, endpointID, outcome string, duration time.Duration)
	ObserveCycle(result string)
}

const (
	OutcomeSuccess   = "success"
	OutcomeFailed    = "failed"
	OutcomeAbandoned = "abandoned"

	CycleEmpty     = "empty"
	CycleProcessed = "processed"
)

// Engine moves events from ingested to delivered or abandoned. Safe to run
// as multiple replicas: the ledger's claim keeps them disjoint.
type Engine struct {
	ledger    Ledger
	endpoints EndpointResolver
	sender    *Sender
	retry     *RetryPolicy
	recorder  Recorder
	logger    *zap.Logger
	batchSize int
}

func NewEngine(ledger Ledger, endpoints EndpointResolver, sender *Sender, retry *RetryPolicy, recorder Recorder, logger *zap.Logger, batchSize int) *Engine {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &Engine{
		ledger:    ledger,
		endpoints: endpoints,
		sender:    sender,
		retry:     retry,
		recorder:  recorder,
		logger:    logger,
		batchSize: batchSize,
	}
}

// RunCycle claims one batch and delivers it with one goroutine per event.
// Once ctx is cancelled no new deliveries start; unstarted claims stay
// pending and fall back into the eligible set when their lease expires.
func (e *Engine) RunCycle(ctx context.Context) error {
	claimed, err := e.ledger.ClaimBatch(ctx, e.batchSize)
	if err != nil {
		return fmt.Errorf("claiming events: %w", err)
	}

	if len(claimed) == 0 {
		e.recorder.ObserveCycle(CycleEmpty)
		return nil
	}

	var wg sync.WaitGroup
	for _, ev := range claimed {
		if ctx.Err() != nil {
			e.logger.Info("delivery cycle interrupted",
				zap.Int("remaining", len(claimed)),
			)
			break
		}
		wg.Add(1)
		go func(ev postgres.ClaimedEvent) {
			defer wg.Done()
			e.deliverOne(ctx, ev)
		}(ev)
	}
	wg.Wait()

	e.recorder.ObserveCycle(CycleProcessed)
	return nil
}

func (e *Engine) deliverOne(ctx context.Context, ev postgres.ClaimedEvent) {
	start := time.Now()

	// Outcome writes must land even when shutdown cancels ctx mid-flight,
	// otherwise a completed delivery would be retried on next start.
	ctx = context.WithoutCancel(ctx)

	endpoint, err := e.endpoints.GetByID(ctx, ev.TenantID, ev.EndpointID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			e.abandon(ctx, ev, nil, "endpoint not found", start)
			return
		}
		// lookup infrastructure failure, not a verdict on the endpoint
		e.fail(ctx, ev, nil, fmt.Sprintf("endpoint lookup: %v", err), start)
		return
	}
	if !endpoint.Enabled {
		e.abandon(ctx, ev, nil, "endpoint disabled", start)
		return
	}

	res := e.sender.Send(ctx, endpoint.URL, ev.ID, ev.EventType, ev.Payload)
	switch {
	case res.Success():
		if err := e.ledger.MarkDelivered(ctx, ev.ID, res.StatusCode, time.Now()); err != nil {
			e.logger.Error("failed to record delivery",
				zap.Error(err), zap.String("event_id", ev.ID.String()))
			return
		}
		e.recorder.ObserveDelivery(ev.TenantID.String(), ev.EndpointID.String(), OutcomeSuccess, time.Since(start))

	case res.Permanent():
		e.abandon(ctx, ev, &res.StatusCode, res.Excerpt, start)

	default:
		var code *int
		excerpt := res.Excerpt
		if res.Err != nil {
			excerpt = res.Err.Error()
		} else {
			code = &res.StatusCode
		}
		e.fail(ctx, ev, code, excerpt, start)
	}
}

// fail records a transient failure, abandoning when retries are exhausted.
func (e *Engine) fail(ctx context.Context, ev postgres.ClaimedEvent, statusCode *int, excerpt string, start time.Time) {
	attempts := ev.AttemptCount + 1
	if e.retry.Exhausted(attempts) {
		e.abandon(ctx, ev, statusCode, excerpt, start)
		return
	}

	next := e.retry.NextAttemptAt(time.Now(), attempts)
	if err := e.ledger.MarkFailed(ctx, ev.ID, statusCode, excerpt, next); err != nil {
		e.logger.Error("failed to record transient failure",
			zap.Error(err), zap.String("event_id", ev.ID.String()))
		return
	}
	e.logger.Warn("delivery failed, will retry",
		zap.String("event_id", ev.ID.String()),
		zap.Int("attempt", attempts),
		zap.Time("next_attempt_at", next),
	)
	e.recorder.ObserveDelivery(ev.TenantID.String(), ev.EndpointID.String(), OutcomeFailed, time.Since(start))
}

func (e *Engine) abandon(ctx context.Context, ev postgres.ClaimedEvent, statusCode *int, excerpt string, start time.Time) {
	if err := e.ledger.MarkAbandoned(ctx, ev.ID, statusCode, excerpt); err != nil {
		e.logger.Error("failed to record abandonment",
			zap.Error(err), zap.String("event_id", ev.ID.String()))
		return
	}
	e.logger.Warn("delivery abandoned",
		zap.String("event_id", ev.ID.String()),
		zap.String("reason", excerpt),
	)
	e.recorder.ObserveDelivery(ev.TenantID.String(), ev.EndpointID.String(), OutcomeAbandoned, time.Since(start))
}
