// Package reportcache stores computed daily reports between refreshes.
package reportcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"attendview/internal/attendance"
)

// DefaultTTL bounds how stale a cached report can get without a refresh job.
const DefaultTTL = 2 * time.Minute

type entry struct {
	rep     attendance.DailyReport
	expires time.Time
}

// Memory is an in-process cache.
type Memory struct {
	mu      sync.RWMutex
	ttl     time.Duration
	reports map[string]entry
	now     func() time.Time
}

// NewMemory creates an in-memory cache. A non-positive ttl uses DefaultTTL.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{ttl: ttl, reports: make(map[string]entry), now: time.Now}
}

// Get returns the cached report for date.
func (m *Memory) Get(_ context.Context, date string) (attendance.DailyReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.reports[date]
	if !ok || !m.now().Before(e.expires) {
		return attendance.DailyReport{}, attendance.ErrCacheMiss
	}
	return e.rep, nil
}

// Put stores rep under its date.
func (m *Memory) Put(_ context.Context, rep attendance.DailyReport) error {
	if rep.Date == "" {
		return errors.New("reportcache: report has no date")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[rep.Date] = entry{rep: rep, expires: m.now().Add(m.ttl)}
	return nil
}

// Purge drops every cached report.
func (m *Memory) Purge(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.reports)
	return nil
}

// Redis stores reports as JSON strings with an expiry.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedis creates a redis-backed cache.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl, prefix: "attendview:report:"}
}

// Get returns the cached report for date.
func (r *Redis) Get(ctx context.Context, date string) (attendance.DailyReport, error) {
	b, err := r.client.Get(ctx, r.prefix+date).Bytes()
	if errors.Is(err, redis.Nil) {
		return attendance.DailyReport{}, attendance.ErrCacheMiss
	}
	if err != nil {
		return attendance.DailyReport{}, fmt.Errorf("reportcache: get %s: %w", date, err)
	}
	var rep attendance.DailyReport
	if err := json.Unmarshal(b, &rep); err != nil {
		return attendance.DailyReport{}, fmt.Errorf("reportcache: decode %s: %w", date, err)
	}
	return rep, nil
}

// Put stores rep under its date.
func (r *Redis) Put(ctx context.Context, rep attendance.DailyReport) error {
	if rep.Date == "" {
		return errors.New("reportcache: report has no date")
	}
	b, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("reportcache: encode %s: %w", rep.Date, err)
	}
	return r.client.Set(ctx, r.prefix+rep.Date, b, r.ttl).Err()
}

// Purge deletes every cached report key.
func (r *Redis) Purge(ctx context.Context) error {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("reportcache: scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}
