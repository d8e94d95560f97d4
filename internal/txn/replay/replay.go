// Package replay remembers recently submitted transaction hashes so
// duplicates are refused before they reach the ledger. The ledger's own
// record of committed hashes is authoritative; a guard only needs to cover
// in-flight and recently failed submissions.
package replay

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrReplayed is returned when a hash has already been claimed.
var ErrReplayed = errors.New("transaction already submitted")

// Guard claims transaction hashes for ttl.
type Guard interface {
	Claim(ctx context.Context, hash string, ttl time.Duration) error
	Release(ctx context.Context, hash string) error
}

const defaultSweepInterval = time.Minute

// MemoryGuard is a process-local Guard for single-node deployments and tests.
// Expired hashes are dropped at most once per sweep interval.
type MemoryGuard struct {
	mu            sync.Mutex
	expires       map[string]time.Time
	now           func() time.Time
	sweepInterval time.Duration
	lastSweep     time.Time
}

type MemoryOption func(*MemoryGuard)

// WithClock overrides the time source.
func WithClock(now func() time.Time) MemoryOption {
	return func(g *MemoryGuard) {
		g.now = now
	}
}

// WithSweepInterval sets how often Claim scans for expired hashes.
func WithSweepInterval(d time.Duration) MemoryOption {
	return func(g *MemoryGuard) {
		g.sweepInterval = d
	}
}

func NewMemoryGuard(opts ...MemoryOption) *MemoryGuard {
	g := &MemoryGuard{
		expires:       make(map[string]time.Time),
		now:           time.Now,
		sweepInterval: defaultSweepInterval,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *MemoryGuard) Claim(_ context.Context, hash string, ttl time.Duration) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if exp, ok := g.expires[hash]; ok && now.Before(exp) {
		return ErrReplayed
	}
	g.expires[hash] = now.Add(ttl)

	if now.Sub(g.lastSweep) >= g.sweepInterval {
		for h, exp := range g.expires {
			if !now.Before(exp) {
				delete(g.expires, h)
			}
		}
		g.lastSweep = now
	}
	return nil
}

func (g *MemoryGuard) Release(_ context.Context, hash string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.expires, hash)
	return nil
}

const keyPrefix = "landlocked:tx:"

// RedisGuard shares claimed hashes across nodes.
type RedisGuard struct {
	client *redis.Client
}

func NewRedisGuard(client *redis.Client) *RedisGuard {
	return &RedisGuard{client: client}
}

// Claim uses SET NX so exactly one concurrent submitter wins.
func (g *RedisGuard) Claim(ctx context.Context, hash string, ttl time.Duration) error {
	ok, err := g.client.SetNX(ctx, keyPrefix+hash, "1", ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrReplayed
	}
	return nil
}

func (g *RedisGuard) Release(ctx context.Context, hash string) error {
	return g.client.Del(ctx, keyPrefix+hash).Err()
}
