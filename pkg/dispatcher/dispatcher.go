package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Engine is one periodic unit of work: a whole delivery or monitor cycle.
type Engine interface {
	RunCycle(ctx context.Context) error
}

// Pinger is the startup reachability probe for the event store.
type Pinger interface {
	Ping(ctx context.Context) error
}

type state int

const (
	stateStopped state = iota
	stateRunning
	stateStopping
)

// Dispatcher owns the two engine loops and their shutdown. Each loop ticks
// on its own interval so a slow cycle in one never delays the other.
type Dispatcher struct {
	delivery Engine
	monitor  Engine
	store    Pinger
	logger   *zap.Logger

	deliveryInterval time.Duration
	monitorInterval  time.Duration
	shutdownGrace    time.Duration

	mu     sync.Mutex
	st     state
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(delivery, monitor Engine, store Pinger, logger *zap.Logger, deliveryInterval, monitorInterval, shutdownGrace time.Duration) *Dispatcher {
	if deliveryInterval <= 0 {
		deliveryInterval = 5 * time.Second
	}
	if monitorInterval <= 0 {
		monitorInterval = 30 * time.Second
	}
	if shutdownGrace <= 0 {
		shutdownGrace = 5 * time.Second
	}
	return &Dispatcher{
		delivery:         delivery,
		monitor:          monitor,
		store:            store,
		logger:           logger,
		deliveryInterval: deliveryInterval,
		monitorInterval:  monitorInterval,
		shutdownGrace:    shutdownGrace,
	}
}

// Start verifies the event store is reachable, then launches both loops and
// returns. Startup failures are fatal and propagate; per-cycle failures
// later are logged inside the loops and never stop them.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.st != stateStopped {
		return fmt.Errorf("dispatcher already started")
	}

	if d.store != nil {
		if err := d.store.Ping(ctx); err != nil {
			return fmt.Errorf("event store unreachable: %w", err)
		}
	}

	loopCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.st = stateRunning

	d.wg.Add(2)
	go d.runLoop(loopCtx, "delivery", d.deliveryInterval, d.delivery)
	go d.runLoop(loopCtx, "monitor", d.monitorInterval, d.monitor)

	d.logger.Info("dispatcher started",
		zap.Duration("delivery_interval", d.deliveryInterval),
		zap.Duration("monitor_interval", d.monitorInterval),
	)
	return nil
}

// Stop signals both loops and waits up to the grace period for the in-flight
// cycles to finish. Returns after the grace period regardless; deliveries
// still in flight run to their own timeout and write their outcome, while
// unstarted claims are recovered by the claim lease on next start. Calling
// Stop again is a no-op.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.st != stateRunning {
		d.mu.Unlock()
		return
	}
	d.st = stateStopping
	cancel := d.cancel
	d.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("dispatcher stopped")
	case <-time.After(d.shutdownGrace):
		d.logger.Warn("shutdown grace elapsed with cycles still in flight",
			zap.Duration("grace", d.shutdownGrace),
		)
	}

	d.mu.Lock()
	d.st = stateStopped
	d.mu.Unlock()
}

func (d *Dispatcher) runLoop(ctx context.Context, name string, interval time.Duration, engine Engine) {
	defer d.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	d.runCycle(ctx, name, engine)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("loop shutting down", zap.String("loop", name))
			return
		case <-ticker.C:
			d.runCycle(ctx, name, engine)
		}
	}
}

// runCycle shields the loop from anything a cycle does: errors are logged,
// panics are recovered, and the loop ticks again on schedule.
func (d *Dispatcher) runCycle(ctx context.Context, name string, engine Engine) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("cycle panicked",
				zap.String("loop", name), zap.Any("panic", r))
		}
	}()

	if err := engine.RunCycle(ctx); err != nil {
		d.logger.Error("cycle failed",
			zap.String("loop", name), zap.Error(err))
	}
}
