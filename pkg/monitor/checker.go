package monitor

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hookpulse/hookpulse/pkg/model"
	redisstore "github.com/hookpulse/hookpulse/pkg/store/redis"
)

// MonitorSource enumerates the monitors to probe.
type MonitorSource interface {
	ListEnabled(ctx context.Context) ([]model.Monitor, error)
}

// CheckLog is the append-only probe history.
type CheckLog interface {
	AppendCheck(ctx context.Context, check *model.MonitorCheck) error
	RecentChecks(ctx context.Context, monitorID uuid.UUID, limit int) ([]model.MonitorCheck, error)
}

// StatusCache receives the derived health after each probe. Optional.
type StatusCache interface {
	Set(ctx context.Context, status redisstore.MonitorStatus) error
}

// Recorder receives one observation per completed probe.
type Recorder interface {
	ObserveMonitorCheck(monitorID, status string, duration time.Duration)
}

// Checker probes every enabled monitor once per cycle and appends honest,
// timestamped results to the check log. A failed probe is one more row,
// never an escalation.
type Checker struct {
	monitors MonitorSource
	log      CheckLog
	cache    StatusCache
	recorder Recorder
	client   *http.Client
	logger   *zap.Logger

	interval      time.Duration
	maxInFlight   int
	failureWindow int
}

func NewChecker(monitors MonitorSource, log CheckLog, cache StatusCache, recorder Recorder, logger *zap.Logger, interval, timeout time.Duration, maxInFlight, failureWindow int) *Checker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if maxInFlight <= 0 {
		maxInFlight = 20
	}
	if failureWindow <= 0 {
		failureWindow = 3
	}
	return &Checker{
		monitors:      monitors,
		log:           log,
		cache:         cache,
		recorder:      recorder,
		client:        &http.Client{Timeout: timeout},
		logger:        logger,
		interval:      interval,
		maxInFlight:   maxInFlight,
		failureWindow: failureWindow,
	}
}

// RunCycle probes all enabled monitors with bounded fan-out. The cycle has
// a soft deadline of twice the check interval; monitors not reached in time
// are simply probed next cycle, never queued.
func (c *Checker) RunCycle(ctx context.Context) error {
	monitors, err := c.monitors.ListEnabled(ctx)
	if err != nil {
		return fmt.Errorf("listing monitors: %w", err)
	}
	if len(monitors) == 0 {
		return nil
	}

	cycleCtx, cancel := context.WithTimeout(ctx, 2*c.interval)
	defer cancel()

	sem := make(chan struct{}, c.maxInFlight)
	var wg sync.WaitGroup

	for _, m := range monitors {
		select {
		case <-cycleCtx.Done():
			c.logger.Warn("monitor cycle deadline reached",
				zap.Int("monitors", len(monitors)),
			)
			wg.Wait()
			return nil
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(m model.Monitor) {
			defer wg.Done()
			defer func() { <-sem }()
			c.checkOne(cycleCtx, m)
		}(m)
	}

	wg.Wait()
	return nil
}

func (c *Checker) checkOne(ctx context.Context, m model.Monitor) {
	// The probe itself outlives cycle cancellation; it is bounded by the
	// client timeout and its result is still worth recording.
	ctx = context.WithoutCancel(ctx)

	status, statusCode, duration := c.probe(ctx, m.URL)

	check := &model.MonitorCheck{
		MonitorID:  m.ID,
		Status:     status,
		StatusCode: statusCode,
		DurationMs: duration.Milliseconds(),
		CheckedAt:  time.Now(),
	}
	if err := c.log.AppendCheck(ctx, check); err != nil {
		c.logger.Error("failed to append monitor check",
			zap.Error(err), zap.String("monitor_id", m.ID.String()))
		return
	}

	c.recorder.ObserveMonitorCheck(m.ID.String(), string(status), duration)
	c.updateHealth(ctx, m)
}

func (c *Checker) probe(ctx context.Context, url string) (model.CheckStatus, *int, time.Duration) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return model.CheckFailed, nil, time.Since(start)
	}

	resp, err := c.client.Do(req)
	duration := time.Since(start)
	if err != nil {
		return model.CheckFailed, nil, duration
	}
	defer resp.Body.Close()

	code := resp.StatusCode
	if code >= 200 && code < 300 {
		return model.CheckSuccess, &code, duration
	}
	return model.CheckFailed, &code, duration
}

func (c *Checker) updateHealth(ctx context.Context, m model.Monitor) {
	if c.cache == nil {
		return
	}

	recent, err := c.log.RecentChecks(ctx, m.ID, c.failureWindow)
	if err != nil {
		c.logger.Warn("failed to load recent checks",
			zap.Error(err), zap.String("monitor_id", m.ID.String()))
		return
	}

	status := redisstore.MonitorStatus{
		MonitorID: m.ID.String(),
		Healthy:   !Unhealthy(recent, c.failureWindow),
		CheckedAt: time.Now(),
	}
	if err := c.cache.Set(ctx, status); err != nil {
		c.logger.Warn("failed to cache monitor status",
			zap.Error(err), zap.String("monitor_id", m.ID.String()))
	}
}
