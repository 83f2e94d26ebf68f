package recordview

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadauction-workers/internal/common/errors"
	"leadauction-workers/internal/common/logger"
	"leadauction-workers/internal/engine"
	"leadauction-workers/internal/engine/storage/memory"
	"leadauction-workers/internal/models"
)

func newTestHandler(t *testing.T) *Handler {
	store := memory.New()
	log := logger.NewTestLogger(t)
	eng := engine.New(engine.Config{}, engine.Stores{
		Applications: store,
		Offers:       store,
		Views:        store,
		Rejections:   store,
		Audit:        store,
	}, nil, nil, log)
	return NewHandler(LoadConfig(), eng, log)
}

func openAuction(t *testing.T, h *Handler) string {
	t.Helper()
	app, err := h.engine.SubmitApplication(context.Background(),
		models.Actor{ID: "business-1", Role: models.RoleBusiness},
		engine.SubmitApplicationInput{
			FinancialProfile: map[string]interface{}{
				"requestedAmount": 100000,
				"industry":        "retail",
			},
		})
	require.NoError(t, err)
	return app.ID
}

func TestExecuteCountsDistinctViewers(t *testing.T) {
	h := newTestHandler(t)
	appID := openAuction(t, h)

	output, err := h.execute(context.Background(), &Input{
		ApplicationID: appID,
		ViewerID:      "bank-1",
	})
	require.NoError(t, err)
	assert.True(t, output.FirstView)
	assert.Equal(t, 1, output.DistinctViewers)

	// repeat view by the same bank does not inflate the count
	output, err = h.execute(context.Background(), &Input{
		ApplicationID: appID,
		ViewerID:      "bank-1",
	})
	require.NoError(t, err)
	assert.False(t, output.FirstView)
	assert.Equal(t, 1, output.DistinctViewers)

	output, err = h.execute(context.Background(), &Input{
		ApplicationID: appID,
		ViewerID:      "bank-2",
	})
	require.NoError(t, err)
	assert.True(t, output.FirstView)
	assert.Equal(t, 2, output.DistinctViewers)
}

func TestExecuteRequiresIdentifiers(t *testing.T) {
	h := newTestHandler(t)

	_, err := h.execute(context.Background(), &Input{ViewerID: "bank-1"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeValidationFailed, errors.CodeOf(err))

	_, err = h.execute(context.Background(), &Input{ApplicationID: "app-1"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeValidationFailed, errors.CodeOf(err))
}

func TestExecuteUnknownApplication(t *testing.T) {
	h := newTestHandler(t)

	_, err := h.execute(context.Background(), &Input{
		ApplicationID: "missing",
		ViewerID:      "bank-1",
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeResourceNotFound, errors.CodeOf(err))
}
