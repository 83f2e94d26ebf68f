package declineoffer

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

func seedAuctionWithOffer(t *testing.T, h *Handler) (string, string) {
	t.Helper()
	ctx := context.Background()
	app, err := h.engine.SubmitApplication(ctx,
		models.Actor{ID: "business-1", Role: models.RoleBusiness},
		engine.SubmitApplicationInput{
			FinancialProfile: map[string]interface{}{
				"requestedAmount": 100000,
				"industry":        "retail",
			},
		})
	require.NoError(t, err)

	offer, err := h.engine.SubmitOffer(ctx,
		models.Actor{ID: "bank-1", Role: models.RoleBank},
		engine.SubmitOfferInput{
			ApplicationID: app.ID,
			BidderID:      "bank-1",
			Terms:         map[string]interface{}{"amount": 90000, "interestRate": 5.0},
			FeeAccepted:   true,
		})
	require.NoError(t, err)
	return app.ID, offer.ID
}

func TestExecuteDeclinesOffer(t *testing.T) {
	h := newTestHandler(t)
	appID, offerID := seedAuctionWithOffer(t, h)

	output, err := h.execute(context.Background(), &Input{
		ApplicationID: appID,
		OfferID:       offerID,
		ActorID:       "business-1",
		ActorRole:     "business",
	})
	require.NoError(t, err)
	assert.Equal(t, string(models.OfferRejected), output.OfferStatus)

	// declined offers do not close the auction
	projection, err := h.engine.GetApplication(context.Background(), appID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusLiveAuction, projection.Application.Status)
}

func TestExecuteDeclineIsIdempotent(t *testing.T) {
	h := newTestHandler(t)
	appID, offerID := seedAuctionWithOffer(t, h)

	input := &Input{
		ApplicationID: appID,
		OfferID:       offerID,
		ActorID:       "bank-1",
		ActorRole:     "bank",
	}
	_, err := h.execute(context.Background(), input)
	require.NoError(t, err)

	output, err := h.execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, string(models.OfferRejected), output.OfferStatus)
}

func TestExecuteRejectsForeignBank(t *testing.T) {
	h := newTestHandler(t)
	appID, offerID := seedAuctionWithOffer(t, h)

	_, err := h.execute(context.Background(), &Input{
		ApplicationID: appID,
		OfferID:       offerID,
		ActorID:       "bank-2",
		ActorRole:     "bank",
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeAuthorizationFailed, errors.CodeOf(err))
}
