package expireauctions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadauction-workers/internal/common/logger"
	"leadauction-workers/internal/engine"
	"leadauction-workers/internal/engine/storage/memory"
	"leadauction-workers/internal/models"
)

func newTestHandler(t *testing.T) (*Handler, *memory.Store) {
	store := memory.New()
	log := logger.NewTestLogger(t)
	eng := engine.New(engine.Config{}, engine.Stores{
		Applications: store,
		Offers:       store,
		Views:        store,
		Rejections:   store,
		Audit:        store,
	}, nil, nil, log)
	return NewHandler(LoadConfig(), eng, log), store
}

func seedLiveAuction(t *testing.T, store *memory.Store, id string, endsAt time.Time) {
	t.Helper()
	_, err := store.CreateApplication(context.Background(), models.Application{
		ID:              id,
		OwnerBusinessID: "business-1",
		Status:          models.StatusLiveAuction,
		SubmittedAt:     endsAt.Add(-48 * time.Hour),
		AuctionEndTime:  &endsAt,
	})
	require.NoError(t, err)
}

func TestExecuteExpiresElapsedAuctions(t *testing.T) {
	h, store := newTestHandler(t)
	ctx := context.Background()

	seedLiveAuction(t, store, "app-stale", time.Now().UTC().Add(-time.Hour))
	seedLiveAuction(t, store, "app-fresh", time.Now().UTC().Add(time.Hour))

	output, err := h.execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, output.ExpiredCount)
	assert.NotEmpty(t, output.SweptAt)

	stale, err := store.GetApplication(ctx, "app-stale")
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, stale.Status)

	fresh, err := store.GetApplication(ctx, "app-fresh")
	require.NoError(t, err)
	assert.Equal(t, models.StatusLiveAuction, fresh.Status)
}

func TestExecuteSweepIsIdempotent(t *testing.T) {
	h, store := newTestHandler(t)
	ctx := context.Background()

	seedLiveAuction(t, store, "app-stale", time.Now().UTC().Add(-time.Hour))

	output, err := h.execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, output.ExpiredCount)

	output, err = h.execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, output.ExpiredCount)
}

func TestExecuteEmptyStore(t *testing.T) {
	h, _ := newTestHandler(t)

	output, err := h.execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, output.ExpiredCount)
}
