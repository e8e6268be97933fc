package cache

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilLeaderboard(t *testing.T) {
	var lb *Leaderboard
	assert.Nil(t, NewLeaderboard(nil))

	ctx := context.Background()
	assert.ErrorIs(t, lb.Update(ctx, 1, 10), ErrDisabled)
	_, err := lb.Top(ctx, 10)
	assert.ErrorIs(t, err, ErrDisabled)
	_, _, err = lb.Rank(ctx, 1)
	assert.ErrorIs(t, err, ErrDisabled)
}

// Integration-style test: runs only if REDIS_ADDR env is set.
func TestLeaderboardIntegration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}
	rdb := Connect(addr, os.Getenv("REDIS_PASSWORD"), 0)
	require.NotNil(t, rdb)
	defer rdb.Close()

	lb := NewLeaderboard(rdb)
	lb.key = "test:" + leaderboardKey
	ctx := context.Background()
	defer rdb.Del(ctx, lb.key)

	n, err := lb.Rebuild(ctx, func(add func(int64, int64) error) error {
		for id, earned := range map[int64]int64{1: 300, 2: 900, 3: 100} {
			if err := add(id, earned); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, lb.Update(ctx, 3, 1000))

	top, err := lb.Top(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []Score{{AccountID: 3, TotalEarned: 1000}, {AccountID: 2, TotalEarned: 900}}, top)

	rank, ok, err := lb.Rank(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(3), rank)

	_, ok, err = lb.Rank(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok)
}
