package monitor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hookpulse/hookpulse/pkg/model"
	redisstore "github.com/hookpulse/hookpulse/pkg/store/redis"
)

type fakeSource struct {
	monitors []model.Monitor
}

func (s *fakeSource) ListEnabled(ctx context.Context) ([]model.Monitor, error) {
	return s.monitors, nil
}

type fakeLog struct {
	mu     sync.Mutex
	checks map[uuid.UUID][]model.MonitorCheck
}

func newFakeLog() *fakeLog {
	return &fakeLog{checks: make(map[uuid.UUID][]model.MonitorCheck)}
}

func (l *fakeLog) AppendCheck(ctx context.Context, check *model.MonitorCheck) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	// prepend: RecentChecks returns newest first
	l.checks[check.MonitorID] = append([]model.MonitorCheck{*check}, l.checks[check.MonitorID]...)
	return nil
}

func (l *fakeLog) RecentChecks(ctx context.Context, monitorID uuid.UUID, limit int) ([]model.MonitorCheck, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	checks := l.checks[monitorID]
	if len(checks) > limit {
		checks = checks[:limit]
	}
	return checks, nil
}

func (l *fakeLog) count(monitorID uuid.UUID) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.checks[monitorID])
}

type fakeCache struct {
	mu       sync.Mutex
	statuses map[string]redisstore.MonitorStatus
}

func newFakeCache() *fakeCache {
	return &fakeCache{statuses: make(map[string]redisstore.MonitorStatus)}
}

func (c *fakeCache) Set(ctx context.Context, status redisstore.MonitorStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses[status.MonitorID] = status
	return nil
}

type nopRecorder struct{}

func (nopRecorder) ObserveMonitorCheck(monitorID, status string, duration time.Duration) {}

func makeMonitor(url string) model.Monitor {
	return model.Monitor{
		ID:              uuid.New(),
		TenantID:        uuid.New(),
		ProjectID:       uuid.New(),
		Name:            "checkout",
		URL:             url,
		IntervalSeconds: 30,
		Enabled:         true,
	}
}

func newTestChecker(source MonitorSource, log CheckLog, cache StatusCache, maxInFlight int) *Checker {
	return NewChecker(source, log, cache, nopRecorder{}, zap.NewNop(), 30*time.Second, time.Second, maxInFlight, 3)
}

func TestRunCycleAppendsSuccessCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	m := makeMonitor(server.URL)
	log := newFakeLog()
	checker := newTestChecker(&fakeSource{monitors: []model.Monitor{m}}, log, nil, 20)

	if err := checker.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle() error: %v", err)
	}

	checks := log.checks[m.ID]
	if len(checks) != 1 {
		t.Fatalf("expected 1 check row, got %d", len(checks))
	}
	if checks[0].Status != model.CheckSuccess {
		t.Fatalf("expected success, got %s", checks[0].Status)
	}
	if checks[0].StatusCode == nil || *checks[0].StatusCode != http.StatusOK {
		t.Fatalf("expected status code 200, got %v", checks[0].StatusCode)
	}
}

func TestRunCycleRecordsFailureEveryCycle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	m := makeMonitor(server.URL)
	log := newFakeLog()
	checker := newTestChecker(&fakeSource{monitors: []model.Monitor{m}}, log, nil, 20)

	for cycle := 0; cycle < 3; cycle++ {
		if err := checker.RunCycle(context.Background()); err != nil {
			t.Fatalf("cycle %d error: %v", cycle, err)
		}
	}

	if got := log.count(m.ID); got != 3 {
		t.Fatalf("expected one failed row per cycle, got %d", got)
	}
	for _, check := range log.checks[m.ID] {
		if check.Status != model.CheckFailed {
			t.Fatalf("expected failed status, got %s", check.Status)
		}
		if check.StatusCode != nil {
			t.Fatalf("expected nil status code for a network error")
		}
	}
}

func TestRunCycleNon2xxIsFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "teapot", http.StatusTeapot)
	}))
	defer server.Close()

	m := makeMonitor(server.URL)
	log := newFakeLog()
	checker := newTestChecker(&fakeSource{monitors: []model.Monitor{m}}, log, nil, 20)

	if err := checker.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle() error: %v", err)
	}

	checks := log.checks[m.ID]
	if len(checks) != 1 || checks[0].Status != model.CheckFailed {
		t.Fatalf("expected one failed check, got %v", checks)
	}
	if checks[0].StatusCode == nil || *checks[0].StatusCode != http.StatusTeapot {
		t.Fatalf("expected status code recorded, got %v", checks[0].StatusCode)
	}
}

func TestRunCycleBoundsFanOut(t *testing.T) {
	var inFlight, maxInFlight atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cur := inFlight.Add(1)
		for {
			prev := maxInFlight.Load()
			if cur <= prev || maxInFlight.CompareAndSwap(prev, cur) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var monitors []model.Monitor
	for i := 0; i < 8; i++ {
		monitors = append(monitors, makeMonitor(server.URL))
	}

	log := newFakeLog()
	checker := newTestChecker(&fakeSource{monitors: monitors}, log, nil, 2)

	if err := checker.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle() error: %v", err)
	}

	if got := maxInFlight.Load(); got > 2 {
		t.Fatalf("expected at most 2 probes in flight, saw %d", got)
	}
	total := 0
	for _, m := range monitors {
		total += log.count(m.ID)
	}
	if total != 8 {
		t.Fatalf("expected all 8 monitors checked, got %d", total)
	}
}

func TestRunCycleUpdatesHealthCache(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	m := makeMonitor(server.URL)
	log := newFakeLog()
	cache := newFakeCache()
	checker := newTestChecker(&fakeSource{monitors: []model.Monitor{m}}, log, cache, 20)

	for cycle := 0; cycle < 3; cycle++ {
		if err := checker.RunCycle(context.Background()); err != nil {
			t.Fatalf("cycle %d error: %v", cycle, err)
		}
	}

	status, ok := cache.statuses[m.ID.String()]
	if !ok {
		t.Fatalf("expected cached status for monitor")
	}
	if status.Healthy {
		t.Fatalf("expected monitor unhealthy after 3 consecutive failures")
	}
}

func TestRunCycleHealthyUntilWindowFilled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	m := makeMonitor(server.URL)
	log := newFakeLog()
	cache := newFakeCache()
	checker := newTestChecker(&fakeSource{monitors: []model.Monitor{m}}, log, cache, 20)

	for cycle := 0; cycle < 2; cycle++ {
		if err := checker.RunCycle(context.Background()); err != nil {
			t.Fatalf("cycle %d error: %v", cycle, err)
		}
	}

	status := cache.statuses[m.ID.String()]
	if !status.Healthy {
		t.Fatalf("expected monitor still healthy after only 2 failures")
	}
}
