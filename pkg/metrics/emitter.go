package metrics

import (
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// aggregateLabel replaces a per-entity label once the cardinality budget is
// spent. A fixed value keeps the metric usable while bounding storage.
const aggregateLabel = "aggregate"

// Emitter publishes delivery and monitor observations under a fixed
// cardinality budget. Tenant-level labels are always emitted; per-endpoint
// labels only pass a sampling predicate, and every labeled metric falls
// back to an aggregate label once its distinct-label-set budget is spent.
type Emitter struct {
	logger *zap.Logger

	maxLabelSets    int
	sampleThreshold int64
	sampleRate      float64

	mu         sync.Mutex
	labelSets  map[string]map[string]struct{}
	overBudget map[string]bool
	volumeDay  string
	volume     map[string]int64

	randFloat func() float64
}

func NewEmitter(logger *zap.Logger, maxLabelSets int, sampleThreshold int64, sampleRate float64) *Emitter {
	if maxLabelSets <= 0 {
		maxLabelSets = 10000
	}
	if sampleThreshold <= 0 {
		sampleThreshold = 1000
	}
	if sampleRate <= 0 || sampleRate > 1 {
		sampleRate = 0.01
	}
	return &Emitter{
		logger:          logger,
		maxLabelSets:    maxLabelSets,
		sampleThreshold: sampleThreshold,
		sampleRate:      sampleRate,
		labelSets:       make(map[string]map[string]struct{}),
		overBudget:      make(map[string]bool),
		volume:          make(map[string]int64),
		randFloat:       rand.Float64,
	}
}

// ObserveDelivery records exactly one tenant-level histogram observation and
// counter increment for a processed event, plus a per-endpoint observation
// when the sampling predicate admits the endpoint.
func (e *Emitter) ObserveDelivery(tenantID, endpointID, outcome string, duration time.Duration) {
	DeliveriesTotal.WithLabelValues(tenantID, outcome).Inc()
	DeliveryDuration.WithLabelValues(tenantID, outcome).Observe(duration.Seconds())

	if !e.sampleEndpoint(endpointID) {
		return
	}

	endpointLabel := endpointID
	if !e.admitLabelSet("endpoint_delivery_duration", tenantID+"|"+endpointID+"|"+outcome) {
		endpointLabel = aggregateLabel
	}
	EndpointDeliveryDuration.WithLabelValues(tenantID, endpointLabel, outcome).Observe(duration.Seconds())
}

func (e *Emitter) ObserveCycle(result string) {
	DeliveryCyclesTotal.WithLabelValues(result).Inc()
}

// ObserveMonitorCheck records one observation per probe, labeled by monitor
// id. Monitor counts are small next to event volume, so per-entity labels
// are safe here up to the same hard budget.
func (e *Emitter) ObserveMonitorCheck(monitorID, status string, duration time.Duration) {
	monitorLabel := monitorID
	if !e.admitLabelSet("monitor_check", monitorID+"|"+status) {
		monitorLabel = aggregateLabel
	}
	MonitorChecksTotal.WithLabelValues(monitorLabel, status).Inc()
	MonitorCheckDuration.WithLabelValues(monitorLabel, status).Observe(duration.Seconds())
}

// sampleEndpoint admits low-volume endpoints at 100% and high-volume ones at
// the configured rate. Volume is an in-memory per-day count; replicas each
// keep their own, which is close enough for a sampling decision.
func (e *Emitter) sampleEndpoint(endpointID string) bool {
	day := time.Now().UTC().Format("2006-01-02")

	e.mu.Lock()
	if e.volumeDay != day {
		e.volumeDay = day
		e.volume = make(map[string]int64)
	}
	e.volume[endpointID]++
	count := e.volume[endpointID]
	e.mu.Unlock()

	if count <= e.sampleThreshold {
		return true
	}
	return e.randFloat() < e.sampleRate
}

// admitLabelSet tracks distinct label combinations per metric and refuses
// new ones past the budget, logging once per metric on first refusal.
func (e *Emitter) admitLabelSet(metric, labels string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	sets, ok := e.labelSets[metric]
	if !ok {
		sets = make(map[string]struct{})
		e.labelSets[metric] = sets
	}

	if _, seen := sets[labels]; seen {
		return true
	}

	if len(sets) >= e.maxLabelSets {
		if !e.overBudget[metric] {
			e.overBudget[metric] = true
			e.logger.Warn("metric label budget exceeded, degrading to aggregate label",
				zap.String("metric", metric),
				zap.Int("max_label_sets", e.maxLabelSets),
			)
		}
		return false
	}

	sets[labels] = struct{}{}
	return true
}
