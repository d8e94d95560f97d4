//go:build integration

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landlocked/pkg/testutil/containers"
)

func TestRedisStoreFixedWindow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	rc := containers.NewRedisContainer(t)
	s := NewRedisStore(rc.Client)
	ctx := context.Background()

	for i := range 3 {
		res, err := s.Allow(ctx, "192.0.2.1", 3, time.Second)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 2-i, res.Remaining)
	}
	res, err := s.Allow(ctx, "192.0.2.1", 3, time.Second)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.WithinDuration(t, time.Now().Add(time.Second), res.ResetAt, time.Second)

	require.Eventually(t, func() bool {
		res, err := s.Allow(ctx, "192.0.2.1", 3, time.Second)
		return err == nil && res.Allowed
	}, 5*time.Second, 200*time.Millisecond)
}
