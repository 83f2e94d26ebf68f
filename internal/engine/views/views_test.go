package views

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadauction-workers/internal/common/logger"
	"leadauction-workers/internal/engine/storage/memory"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	return mr, redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}

func TestRecordViewIdempotent(t *testing.T) {
	_, rdb := setupRedis(t)
	tracker := NewTracker(memory.New(), rdb, time.Minute, logger.NewTestLogger(t))
	ctx := context.Background()

	created, err := tracker.RecordView(ctx, "app-1", "bank-1")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = tracker.RecordView(ctx, "app-1", "bank-1")
	require.NoError(t, err)
	assert.False(t, created)

	count, err := tracker.DistinctViewers(ctx, "app-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDistinctViewersCached(t *testing.T) {
	mr, rdb := setupRedis(t)
	tracker := NewTracker(memory.New(), rdb, time.Minute, logger.NewTestLogger(t))
	ctx := context.Background()

	_, err := tracker.RecordView(ctx, "app-1", "bank-1")
	require.NoError(t, err)
	_, err = tracker.RecordView(ctx, "app-1", "bank-2")
	require.NoError(t, err)

	count, err := tracker.DistinctViewers(ctx, "app-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Second read comes from the cache.
	cached, err := mr.Get("lead:viewers:app-1")
	require.NoError(t, err)
	assert.Equal(t, "2", cached)

	count, err = tracker.DistinctViewers(ctx, "app-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestFirstViewInvalidatesCache(t *testing.T) {
	mr, rdb := setupRedis(t)
	tracker := NewTracker(memory.New(), rdb, time.Minute, logger.NewTestLogger(t))
	ctx := context.Background()

	_, err := tracker.RecordView(ctx, "app-1", "bank-1")
	require.NoError(t, err)

	count, err := tracker.DistinctViewers(ctx, "app-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = tracker.RecordView(ctx, "app-1", "bank-2")
	require.NoError(t, err)
	assert.False(t, mr.Exists("lead:viewers:app-1"))

	count, err = tracker.DistinctViewers(ctx, "app-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestTrackerWithoutRedis(t *testing.T) {
	tracker := NewTracker(memory.New(), nil, 0, logger.NewNoOpLogger())
	ctx := context.Background()

	created, err := tracker.RecordView(ctx, "app-1", "bank-1")
	require.NoError(t, err)
	assert.True(t, created)

	count, err := tracker.DistinctViewers(ctx, "app-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCacheFailuresFallBackToStore(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := memory.New()
	tracker := NewTracker(store, rdb, time.Minute, logger.NewTestLogger(t))
	ctx := context.Background()

	// store write succeeds even when the cache invalidation fails
	mock.ExpectDel("lead:viewers:app-1").SetErr(assert.AnError)
	created, err := tracker.RecordView(ctx, "app-1", "bank-1")
	require.NoError(t, err)
	assert.True(t, created)

	// unreadable cache falls through to the store, write failure is tolerated
	mock.ExpectGet("lead:viewers:app-1").SetErr(assert.AnError)
	mock.ExpectSet("lead:viewers:app-1", "1", time.Minute).SetErr(assert.AnError)
	count, err := tracker.DistinctViewers(ctx, "app-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestViewedApplications(t *testing.T) {
	tracker := NewTracker(memory.New(), nil, 0, logger.NewNoOpLogger())
	ctx := context.Background()

	for _, app := range []string{"app-1", "app-2", "app-3"} {
		_, err := tracker.RecordView(ctx, app, "bank-1")
		require.NoError(t, err)
	}
	_, err := tracker.RecordView(ctx, "app-1", "bank-2")
	require.NoError(t, err)

	count, err := tracker.ViewedApplications(ctx, "bank-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = tracker.ViewedApplications(ctx, "bank-2")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
