//go:build integration

package replay_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"landlocked/internal/txn/replay"
	"landlocked/pkg/testutil/containers"
)

type RedisGuardSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	guard *replay.RedisGuard
}

func TestRedisGuardSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisGuardSuite))
}

func (s *RedisGuardSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.guard = replay.NewRedisGuard(s.redis.Client)
}

func (s *RedisGuardSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisGuardSuite) TestClaimAndReplay() {
	ctx := context.Background()
	s.Require().NoError(s.guard.Claim(ctx, "abc", time.Minute))
	s.ErrorIs(s.guard.Claim(ctx, "abc", time.Minute), replay.ErrReplayed)

	s.Require().NoError(s.guard.Release(ctx, "abc"))
	s.NoError(s.guard.Claim(ctx, "abc", time.Minute))
}

func (s *RedisGuardSuite) TestClaimExpires() {
	ctx := context.Background()
	s.Require().NoError(s.guard.Claim(ctx, "short", 50*time.Millisecond))
	s.Eventually(func() bool {
		return s.guard.Claim(ctx, "short", time.Minute) == nil
	}, 2*time.Second, 25*time.Millisecond)
}

func (s *RedisGuardSuite) TestConcurrentClaimsHaveOneWinner() {
	ctx := context.Background()
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.guard.Claim(ctx, "race", time.Minute) == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), wins.Load())
}
