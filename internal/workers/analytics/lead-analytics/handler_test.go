package leadanalytics

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

func seedLead(t *testing.T, h *Handler, withOffer bool) string {
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

	_, err = h.engine.RecordView(ctx,
		models.Actor{ID: "bank-1", Role: models.RoleBank}, app.ID)
	require.NoError(t, err)

	if withOffer {
		_, err = h.engine.SubmitOffer(ctx,
			models.Actor{ID: "bank-1", Role: models.RoleBank},
			engine.SubmitOfferInput{
				ApplicationID: app.ID,
				BidderID:      "bank-1",
				Terms:         map[string]interface{}{"amount": 90000, "interestRate": 5.0},
				FeeAccepted:   true,
			})
		require.NoError(t, err)
	}
	return app.ID
}

func TestExecuteLeadMetrics(t *testing.T) {
	h := newTestHandler(t)
	appID := seedLead(t, h, true)

	output, err := h.execute(context.Background(), &Input{ApplicationID: appID})
	require.NoError(t, err)
	require.NotNil(t, output.Lead)
	assert.Nil(t, output.Bidder)

	assert.Equal(t, appID, output.Lead.ApplicationID)
	assert.Equal(t, string(models.StatusLiveAuction), output.Lead.Status)
	assert.Equal(t, 1, output.Lead.OfferCount)
	assert.Equal(t, 1, output.Lead.DistinctViewers)
	require.NotNil(t, output.Lead.TimeToFirstOfferSeconds)
	assert.Nil(t, output.Lead.TimeToCompletionSeconds)
}

func TestExecuteBidderConversion(t *testing.T) {
	h := newTestHandler(t)
	seedLead(t, h, true)

	// bank-1 viewed two leads and bid on one of them
	seedLead(t, h, false)

	output, err := h.execute(context.Background(), &Input{BidderID: "bank-1"})
	require.NoError(t, err)
	require.NotNil(t, output.Bidder)
	assert.Nil(t, output.Lead)
	assert.InDelta(t, 0.5, output.Bidder.ConversionRate, 1e-9)
}

func TestExecuteRequiresSelector(t *testing.T) {
	h := newTestHandler(t)

	_, err := h.execute(context.Background(), &Input{})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeValidationFailed, errors.CodeOf(err))
}

func TestExecuteUnknownApplication(t *testing.T) {
	h := newTestHandler(t)

	_, err := h.execute(context.Background(), &Input{ApplicationID: "missing"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeResourceNotFound, errors.CodeOf(err))
}
