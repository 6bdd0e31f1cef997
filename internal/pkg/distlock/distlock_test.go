package distlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func redisForTest(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestRedisLockMutualExclusion(t *testing.T) {
	rdb := redisForTest(t)
	ctx := context.Background()

	first := NewRedisLock(rdb, "sweep", time.Minute)
	second := NewRedisLock(rdb, "sweep", time.Minute)

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "second instance must not get the same lock")

	require.NoError(t, first.Release(ctx))

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "lock should be free after release")
}

func TestRedisLockReleaseOnlyByOwner(t *testing.T) {
	rdb := redisForTest(t)
	ctx := context.Background()

	owner := NewRedisLock(rdb, "sweep", time.Minute)
	intruder := NewRedisLock(rdb, "sweep", time.Minute)

	ok, err := owner.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// A release by a non-owner must leave the lock held.
	require.NoError(t, intruder.Release(ctx))

	ok, err = intruder.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewLockPrefersRedis(t *testing.T) {
	rdb := redisForTest(t)
	lock := NewLock(rdb, nil, "sweep", time.Minute)
	_, isRedis := lock.(*RedisLock)
	assert.True(t, isRedis)

	lock = NewLock(nil, nil, "sweep", time.Minute)
	_, isPG := lock.(*PGAdvisoryLock)
	assert.True(t, isPG)
}
