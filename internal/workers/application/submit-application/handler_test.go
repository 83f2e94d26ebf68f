package submitapplication

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

func validProfile() map[string]interface{} {
	return map[string]interface{}{
		"requestedAmount": 250000,
		"industry":        "hospitality",
		"currency":        "EUR",
	}
}

func TestExecuteSubmitsApplication(t *testing.T) {
	h := newTestHandler(t)

	output, err := h.execute(context.Background(), &Input{
		BusinessID:       "business-1",
		FinancialProfile: validProfile(),
		PriorityLevel:    "high",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, output.ApplicationID)
	assert.Equal(t, string(models.StatusLiveAuction), output.ApplicationStatus)
	assert.Equal(t, string(models.PriorityHigh), output.PriorityLevel)

	submitted, err := time.Parse(time.RFC3339, output.SubmittedAt)
	require.NoError(t, err)
	deadline, err := time.Parse(time.RFC3339, output.AuctionEndTime)
	require.NoError(t, err)
	assert.Equal(t, 48*time.Hour, deadline.Sub(submitted))
}

func TestExecuteDefaultsPriority(t *testing.T) {
	h := newTestHandler(t)

	output, err := h.execute(context.Background(), &Input{
		BusinessID:       "business-1",
		FinancialProfile: validProfile(),
	})
	require.NoError(t, err)
	assert.Equal(t, string(models.PriorityStandard), output.PriorityLevel)
}

func TestExecuteRequiresBusinessID(t *testing.T) {
	h := newTestHandler(t)

	_, err := h.execute(context.Background(), &Input{
		FinancialProfile: validProfile(),
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeValidationFailed, errors.CodeOf(err))
}

func TestExecuteRejectsInvalidProfile(t *testing.T) {
	h := newTestHandler(t)

	_, err := h.execute(context.Background(), &Input{
		BusinessID: "business-1",
		FinancialProfile: map[string]interface{}{
			"requestedAmount": 250000,
			// industry missing
		},
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeValidationFailed, errors.CodeOf(err))
}
