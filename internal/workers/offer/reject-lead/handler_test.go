package rejectlead

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

func TestExecuteRecordsRejection(t *testing.T) {
	h := newTestHandler(t)
	appID := openAuction(t, h)

	output, err := h.execute(context.Background(), &Input{
		ApplicationID: appID,
		BidderID:      "bank-1",
		Reason:        "outside lending criteria",
	})
	require.NoError(t, err)

	assert.Equal(t, appID, output.ApplicationID)
	assert.Equal(t, "bank-1", output.BidderID)
	assert.Equal(t, "outside lending criteria", output.Reason)
	assert.NotEmpty(t, output.RejectedAt)

	// the auction stays live for everyone else
	projection, err := h.engine.GetApplication(context.Background(), appID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusLiveAuction, projection.Application.Status)
	assert.Len(t, projection.Rejections, 1)
}

func TestExecuteRejectionIsUpsert(t *testing.T) {
	h := newTestHandler(t)
	appID := openAuction(t, h)

	_, err := h.execute(context.Background(), &Input{
		ApplicationID: appID,
		BidderID:      "bank-1",
		Reason:        "first pass",
	})
	require.NoError(t, err)

	output, err := h.execute(context.Background(), &Input{
		ApplicationID: appID,
		BidderID:      "bank-1",
		Reason:        "second pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "second pass", output.Reason)

	projection, err := h.engine.GetApplication(context.Background(), appID)
	require.NoError(t, err)
	assert.Len(t, projection.Rejections, 1)
}

func TestExecuteUnknownApplication(t *testing.T) {
	h := newTestHandler(t)

	_, err := h.execute(context.Background(), &Input{
		ApplicationID: "missing",
		BidderID:      "bank-1",
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeResourceNotFound, errors.CodeOf(err))
}
