// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadauction-workers/internal/common/config"
	"leadauction-workers/internal/common/database"
	"leadauction-workers/internal/common/errors"
	"leadauction-workers/internal/common/logger"
	"leadauction-workers/internal/engine"
	"leadauction-workers/internal/engine/storage/memory"
	"leadauction-workers/internal/models"
)

// testStack assembles the engine over the in-memory store, the same way the
// worker manager assembles it over postgres.
type testStack struct {
	engine *engine.Engine
	store  *memory.Store
}

func newStack(t *testing.T) *testStack {
	store := memory.New()
	log := logger.NewTestLogger(t)
	eng := engine.New(engine.Config{}, engine.Stores{
		Applications: store,
		Offers:       store,
		Views:        store,
		Rejections:   store,
		Audit:        store,
	}, nil, nil, log)
	return &testStack{engine: eng, store: store}
}

func submitApp(t *testing.T, s *testStack, businessID string) string {
	t.Helper()
	app, err := s.engine.SubmitApplication(context.Background(),
		models.Actor{ID: businessID, Role: models.RoleBusiness},
		engine.SubmitApplicationInput{
			FinancialProfile: map[string]interface{}{
				"requestedAmount": 250000,
				"industry":        "hospitality",
				"currency":        "EUR",
			},
		})
	require.NoError(t, err)
	return app.ID
}

func submitBid(t *testing.T, s *testStack, appID, bidder string) string {
	t.Helper()
	offer, err := s.engine.SubmitOffer(context.Background(),
		models.Actor{ID: bidder, Role: models.RoleBank},
		engine.SubmitOfferInput{
			ApplicationID: appID,
			BidderID:      bidder,
			Terms:         map[string]interface{}{"amount": 225000, "interestRate": 6.0},
			FeeAccepted:   true,
		})
	require.NoError(t, err)
	return offer.ID
}

// Full lifecycle: submit, views, competing offers, one decline, settlement.
func TestAuctionLifecycle(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	appID := submitApp(t, s, "business-1")

	for _, bank := range []string{"bank-1", "bank-2", "bank-3"} {
		_, err := s.engine.RecordView(ctx, models.Actor{ID: bank, Role: models.RoleBank}, appID)
		require.NoError(t, err)
	}

	offer1 := submitBid(t, s, appID, "bank-1")
	offer2 := submitBid(t, s, appID, "bank-2")
	_, err := s.engine.RejectLead(ctx, models.Actor{ID: "bank-3", Role: models.RoleBank}, appID, "sector mismatch")
	require.NoError(t, err)

	// business declines one offer; the auction stays open
	_, err = s.engine.DeclineOffer(ctx, appID, offer1, models.Actor{ID: "business-1", Role: models.RoleBusiness})
	require.NoError(t, err)

	projection, err := s.engine.GetApplication(ctx, appID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusLiveAuction, projection.Application.Status)
	assert.Len(t, projection.Offers, 2)
	assert.Len(t, projection.Rejections, 1)

	// settlement
	app, err := s.engine.SelectOffer(ctx, appID, offer2, models.Actor{ID: "business-1", Role: models.RoleBusiness})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, app.Status)
	require.NotNil(t, app.SelectedOfferID)
	assert.Equal(t, offer2, *app.SelectedOfferID)

	projection, err = s.engine.GetApplication(ctx, appID)
	require.NoError(t, err)
	for _, offer := range projection.Offers {
		switch offer.ID {
		case offer2:
			assert.Equal(t, models.OfferAccepted, offer.Status)
		default:
			assert.Equal(t, models.OfferRejected, offer.Status)
		}
	}

	// the audit trail tells the whole story in order
	trail := projection.AuditTrail
	require.NotEmpty(t, trail)
	assert.Equal(t, models.StatusDraft, trail[0].FromStatus)
	assert.Equal(t, models.StatusLiveAuction, trail[0].ToStatus)
	assert.Equal(t, models.StatusCompleted, trail[len(trail)-1].ToStatus)
	for i := 1; i < len(trail); i++ {
		assert.False(t, trail[i].Timestamp.Before(trail[i-1].Timestamp))
	}

	// post-settlement writes fail closed
	_, err = s.engine.SubmitOffer(ctx, models.Actor{ID: "bank-4", Role: models.RoleBank},
		engine.SubmitOfferInput{
			ApplicationID: appID,
			BidderID:      "bank-4",
			Terms:         map[string]interface{}{"amount": 1, "interestRate": 1.0},
			FeeAccepted:   true,
		})
	assert.Equal(t, errors.ErrCodeAuctionClosed, errors.CodeOf(err))
}

// Two businesses settling concurrently must not interfere.
func TestIndependentAuctionsRunInParallel(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	appA := submitApp(t, s, "business-a")
	appB := submitApp(t, s, "business-b")
	offerA := submitBid(t, s, appA, "bank-1")
	offerB := submitBid(t, s, appB, "bank-1")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = s.engine.SelectOffer(ctx, appA, offerA, models.Actor{ID: "business-a", Role: models.RoleBusiness})
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = s.engine.SelectOffer(ctx, appB, offerB, models.Actor{ID: "business-b", Role: models.RoleBusiness})
	}()
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
}

// Concurrent settlement of one auction admits exactly one winner.
func TestConcurrentSettlementSingleWinner(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	appID := submitApp(t, s, "business-1")
	offers := []string{
		submitBid(t, s, appID, "bank-1"),
		submitBid(t, s, appID, "bank-2"),
		submitBid(t, s, appID, "bank-3"),
	}

	var wg sync.WaitGroup
	results := make([]error, len(offers))
	for i, offerID := range offers {
		wg.Add(1)
		go func(i int, offerID string) {
			defer wg.Done()
			_, results[i] = s.engine.SelectOffer(ctx, appID, offerID,
				models.Actor{ID: "business-1", Role: models.RoleBusiness})
		}(i, offerID)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
		} else {
			assert.Equal(t, errors.ErrCodeAlreadyDecided, errors.CodeOf(err))
		}
	}
	assert.Equal(t, 1, wins)

	offersAfter, err := s.engine.ListOffers(ctx, appID)
	require.NoError(t, err)
	accepted := 0
	for _, offer := range offersAfter {
		if offer.Status == models.OfferAccepted {
			accepted++
		}
	}
	assert.Equal(t, 1, accepted)
}

// Analytics across a settled lead: processing times and conversion.
func TestAnalyticsAfterSettlement(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	appID := submitApp(t, s, "business-1")

	viewed, err := s.engine.RecordView(ctx, models.Actor{ID: "bank-1", Role: models.RoleBank}, appID)
	require.NoError(t, err)
	assert.True(t, viewed)

	offerID := submitBid(t, s, appID, "bank-1")

	app, err := s.engine.SelectOffer(ctx, appID, offerID, models.Actor{ID: "business-1", Role: models.RoleBusiness})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, app.Status)

	lead, err := s.engine.ApplicationMetrics(ctx, appID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, lead.Status)
	assert.Equal(t, 1, lead.OfferCount)
	assert.Equal(t, 1, lead.DistinctViewers)
	require.NotNil(t, lead.TimeToCompletion)

	rate, err := s.engine.BidderConversion(ctx, "bank-1")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, rate, 1e-9)
}

// A lead nobody touches expires by sweep once the window elapses; terminal
// statuses are never revisited by later sweeps.
func TestExpirySweep(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	past := time.Now().UTC().Add(-time.Minute)
	_, err := s.store.CreateApplication(ctx, models.Application{
		ID:              "stale-lead",
		OwnerBusinessID: "business-1",
		Status:          models.StatusLiveAuction,
		SubmittedAt:     past.Add(-48 * time.Hour),
		AuctionEndTime:  &past,
	})
	require.NoError(t, err)

	expired, err := s.engine.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	expired, err = s.engine.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, expired)

	// late offer on the expired lead fails closed
	_, err = s.engine.SubmitOffer(ctx, models.Actor{ID: "bank-1", Role: models.RoleBank},
		engine.SubmitOfferInput{
			ApplicationID: "stale-lead",
			BidderID:      "bank-1",
			Terms:         map[string]interface{}{"amount": 1, "interestRate": 1.0},
			FeeAccepted:   true,
		})
	assert.Equal(t, errors.ErrCodeAuctionClosed, errors.CodeOf(err))
}

// TestLiveInfrastructure exercises the real postgres/redis wiring. It needs
// the docker-compose stack and is skipped in short mode.
func TestLiveInfrastructure(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping infrastructure tests in short mode")
	}

	cfg, err := config.Load()
	if err != nil {
		t.Skipf("config unavailable: %v", err)
	}

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	defer pg.Close()
	require.NoError(t, pg.Ping(context.Background()))

	rdb, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	defer rdb.Close()
	require.NoError(t, rdb.Ping(context.Background()))
}
