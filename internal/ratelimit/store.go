// Package ratelimit throttles transaction submission per client.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Result is the outcome of one Allow call.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the whole number of seconds until the window frees a slot.
func (r *Result) RetryAfter(now time.Time) int {
	secs := int(r.ResetAt.Sub(now).Seconds() + 0.999)
	if secs < 1 {
		return 1
	}
	return secs
}

// Store counts requests per key inside a window.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

// MemoryStore keeps a sliding window of request timestamps per key. It is not
// shared between nodes; use RedisStore behind a load balancer. Keys whose
// window has emptied are dropped at most once per window.
type MemoryStore struct {
	mu        sync.Mutex
	windows   map[string][]time.Time
	now       func() time.Time
	lastSweep time.Time
}

type MemoryOption func(*MemoryStore)

func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{windows: make(map[string][]time.Time), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Allow(_ context.Context, key string, limit int, window time.Duration) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= window {
		s.sweep(now.Add(-window))
		s.lastSweep = now
	}
	stamps := evict(s.windows[key], now.Add(-window))
	if len(stamps) >= limit {
		s.windows[key] = stamps
		return &Result{Allowed: false, Limit: limit, ResetAt: stamps[0].Add(window)}, nil
	}
	stamps = append(stamps, now)
	s.windows[key] = stamps
	return &Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(stamps),
		ResetAt:   stamps[0].Add(window),
	}, nil
}

// sweep evicts every key and forgets those left empty. Caller holds s.mu.
func (s *MemoryStore) sweep(cutoff time.Time) {
	for key, stamps := range s.windows {
		if stamps = evict(stamps, cutoff); len(stamps) == 0 {
			delete(s.windows, key)
		} else {
			s.windows[key] = stamps
		}
	}
}

// evict drops timestamps at or before cutoff.
func evict(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for ; i < len(stamps); i++ {
		if stamps[i].After(cutoff) {
			break
		}
	}
	return stamps[i:]
}

const redisKeyPrefix = "landlocked:ratelimit:"

// RedisStore counts requests in fixed windows shared by every node.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	k := redisKeyPrefix + key
	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		p.ExpireNX(ctx, k, window)
		ttl = p.PTTL(ctx, k)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("rate limit %s: %w", key, err)
	}

	count := int(incr.Val())
	remaining := ttl.Val()
	if remaining <= 0 {
		remaining = window
	}
	res := &Result{Limit: limit, ResetAt: time.Now().Add(remaining)}
	if count > limit {
		return res, nil
	}
	res.Allowed = true
	res.Remaining = limit - count
	return res, nil
}
