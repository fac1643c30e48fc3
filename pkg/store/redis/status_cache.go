package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// MonitorStatus is the derived health of a monitor as of its latest check.
// The check log in postgres stays the source of truth; this cache exists so
// the read path does not rescan the log on every dashboard refresh.
type MonitorStatus struct {
	MonitorID string    `json:"monitor_id"`
	Healthy   bool      `json:"healthy"`
	CheckedAt time.Time `json:"checked_at"`
}

type StatusCache struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewStatusCache(rdb redis.UniversalClient, ttl time.Duration) *StatusCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &StatusCache{rdb: rdb, ttl: ttl}
}

func statusKey(monitorID string) string {
	return fmt.Sprintf("monitor:status:%s", monitorID)
}

// Set overwrites the cached status. The TTL means a monitor that stops being
// checked (disabled, deleted) ages out instead of reporting stale health.
func (c *StatusCache) Set(ctx context.Context, status MonitorStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("marshaling monitor status: %w", err)
	}

	if err := c.rdb.Set(ctx, statusKey(status.MonitorID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("setting monitor status: %w", err)
	}

	return nil
}

// Get returns (nil, nil) when no status is cached.
func (c *StatusCache) Get(ctx context.Context, monitorID string) (*MonitorStatus, error) {
	data, err := c.rdb.Get(ctx, statusKey(monitorID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting monitor status: %w", err)
	}

	var status MonitorStatus
	if err := json.Unmarshal([]byte(data), &status); err != nil {
		return nil, fmt.Errorf("unmarshaling monitor status: %w", err)
	}

	return &status, nil
}
