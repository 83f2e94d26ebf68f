package submitoffer

import (
	"context"
	"testing"
	"time"

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

func validTerms() map[string]interface{} {
	return map[string]interface{}{
		"amount":       90000,
		"interestRate": 6.5,
		"termMonths":   36,
	}
}

func TestExecuteSubmitsOffer(t *testing.T) {
	h := newTestHandler(t)
	appID := openAuction(t, h)

	output, err := h.execute(context.Background(), &Input{
		ApplicationID: appID,
		BidderID:      "bank-1",
		Terms:         validTerms(),
		FeeAccepted:   true,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, output.OfferID)
	assert.Equal(t, string(models.OfferSubmitted), output.OfferStatus)

	submitted, err := time.Parse(time.RFC3339, output.SubmittedAt)
	require.NoError(t, err)
	expires, err := time.Parse(time.RFC3339, output.ExpiresAt)
	require.NoError(t, err)
	// offers stay valid until the auction window closes
	assert.WithinDuration(t, submitted.Add(48*time.Hour), expires, 2*time.Second)
}

func TestExecuteRequiresFeeAcknowledgment(t *testing.T) {
	h := newTestHandler(t)
	appID := openAuction(t, h)

	_, err := h.execute(context.Background(), &Input{
		ApplicationID: appID,
		BidderID:      "bank-1",
		Terms:         validTerms(),
		FeeAccepted:   false,
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeFeeNotAccepted, errors.CodeOf(err))

	offers, err := h.engine.ListOffers(context.Background(), appID)
	require.NoError(t, err)
	assert.Empty(t, offers)
}

func TestExecuteRejectsDuplicateBidder(t *testing.T) {
	h := newTestHandler(t)
	appID := openAuction(t, h)

	input := &Input{
		ApplicationID: appID,
		BidderID:      "bank-1",
		Terms:         validTerms(),
		FeeAccepted:   true,
	}
	_, err := h.execute(context.Background(), input)
	require.NoError(t, err)

	_, err = h.execute(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDuplicateOffer, errors.CodeOf(err))
}

func TestExecuteRejectsInvalidTerms(t *testing.T) {
	h := newTestHandler(t)
	appID := openAuction(t, h)

	_, err := h.execute(context.Background(), &Input{
		ApplicationID: appID,
		BidderID:      "bank-1",
		Terms: map[string]interface{}{
			"amount": 90000,
			// interestRate missing
		},
		FeeAccepted: true,
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeValidationFailed, errors.CodeOf(err))
}

func TestExecuteUnknownApplication(t *testing.T) {
	h := newTestHandler(t)

	_, err := h.execute(context.Background(), &Input{
		ApplicationID: "missing",
		BidderID:      "bank-1",
		Terms:         validTerms(),
		FeeAccepted:   true,
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeResourceNotFound, errors.CodeOf(err))
}
