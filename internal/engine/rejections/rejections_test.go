package rejections

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadauction-workers/internal/engine/storage/memory"
)

func TestRejectAndList(t *testing.T) {
	reg := NewRegistry(memory.New())
	ctx := context.Background()

	rec, err := reg.Reject(ctx, "app-1", "bank-1", "industry outside risk appetite")
	require.NoError(t, err)
	assert.Equal(t, "app-1", rec.ApplicationID)
	assert.Equal(t, "bank-1", rec.ViewerID)

	_, err = reg.Reject(ctx, "app-1", "bank-2", "requested amount too small")
	require.NoError(t, err)

	records, err := reg.List(ctx, "app-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
}

func TestRejectIdempotentPerPair(t *testing.T) {
	reg := NewRegistry(memory.New())
	ctx := context.Background()

	first, err := reg.Reject(ctx, "app-1", "bank-1", "first reason")
	require.NoError(t, err)

	second, err := reg.Reject(ctx, "app-1", "bank-1", "updated reason")
	require.NoError(t, err)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	records, err := reg.List(ctx, "app-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "updated reason", records[0].Reason)
}

func TestIsRejectedBy(t *testing.T) {
	reg := NewRegistry(memory.New())
	ctx := context.Background()

	_, err := reg.Reject(ctx, "app-1", "bank-1", "not a fit")
	require.NoError(t, err)

	rejected, err := reg.IsRejectedBy(ctx, "app-1", "bank-1")
	require.NoError(t, err)
	assert.True(t, rejected)

	rejected, err = reg.IsRejectedBy(ctx, "app-1", "bank-2")
	require.NoError(t, err)
	assert.False(t, rejected)
}
