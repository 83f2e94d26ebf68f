package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadauction-workers/internal/engine/storage"
	"leadauction-workers/internal/models"
)

func setupMockDB(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func TestCreateApplicationGeneratesID(t *testing.T) {
	store, mock := setupMockDB(t)

	mock.ExpectExec(`INSERT INTO applications`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	app, err := store.CreateApplication(context.Background(), models.Application{
		OwnerBusinessID: "business-1",
		Status:          models.StatusDraft,
		FinancialProfile: map[string]interface{}{
			"requestedAmount": 100000.0,
			"industry":        "retail",
		},
		PriorityLevel: models.PriorityStandard,
		SubmittedAt:   time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, app.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOfferDuplicateBidder(t *testing.T) {
	store, mock := setupMockDB(t)

	mock.ExpectExec(`INSERT INTO offers`).
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := store.CreateOffer(context.Background(), models.Offer{
		ApplicationID: "app-1",
		BidderID:      "bank-1",
		Status:        models.OfferSubmitted,
		SubmittedAt:   time.Now().UTC(),
		ExpiresAt:     time.Now().UTC().Add(48 * time.Hour),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateOffer)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleApplicationCommitsOffersStatusAndAuditTogether(t *testing.T) {
	store, mock := setupMockDB(t)
	selected := "offer-1"

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE offers SET status = \$3\s+WHERE id = \$2 AND application_id = \$1`).
		WithArgs("app-1", "offer-1", string(models.OfferAccepted)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE offers SET status = \$3\s+WHERE application_id = \$1 AND id <> \$2 AND status = \$4`).
		WithArgs("app-1", "offer-1", string(models.OfferRejected), string(models.OfferSubmitted)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`UPDATE applications`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_log`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	_, err := store.SettleApplication(context.Background(), models.Application{
		ID:              "app-1",
		Status:          models.StatusCompleted,
		SelectedOfferID: &selected,
	}, "offer-1", models.AuditEntry{
		ApplicationID: "app-1",
		FromStatus:    models.StatusApprovedLeads,
		ToStatus:      models.StatusCompleted,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleApplicationUnknownOfferRollsBack(t *testing.T) {
	store, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE offers SET status = \$3\s+WHERE id = \$2 AND application_id = \$1`).
		WithArgs("app-1", "missing", string(models.OfferAccepted)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := store.SettleApplication(context.Background(), models.Application{
		ID:     "app-1",
		Status: models.StatusCompleted,
	}, "missing", models.AuditEntry{ApplicationID: "app-1"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleApplicationRollsBackWhenAuditInsertFails(t *testing.T) {
	store, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE offers SET status = \$3\s+WHERE id = \$2 AND application_id = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE offers SET status = \$3\s+WHERE application_id = \$1 AND id <> \$2 AND status = \$4`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE applications`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_log`).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := store.SettleApplication(context.Background(), models.Application{
		ID:     "app-1",
		Status: models.StatusCompleted,
	}, "offer-1", models.AuditEntry{ApplicationID: "app-1"})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionApplicationWritesStatusAndAuditInOneTransaction(t *testing.T) {
	store, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE applications`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_log`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	_, err := store.TransitionApplication(context.Background(), models.Application{
		ID:     "app-1",
		Status: models.StatusLiveAuction,
	}, models.AuditEntry{
		ApplicationID: "app-1",
		FromStatus:    models.StatusDraft,
		ToStatus:      models.StatusLiveAuction,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionApplicationNotFoundRollsBack(t *testing.T) {
	store, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE applications`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := store.TransitionApplication(context.Background(), models.Application{
		ID:     "missing",
		Status: models.StatusIgnored,
	}, models.AuditEntry{ApplicationID: "missing"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetApplicationScansRow(t *testing.T) {
	store, mock := setupMockDB(t)

	endTime := time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "owner_business_id", "status", "financial_profile", "priority_level",
		"submitted_at", "auction_end_time", "selected_offer_id", "document_ref",
	}).AddRow(
		"app-1", "business-1", "live_auction",
		[]byte(`{"requestedAmount":100000,"industry":"retail"}`), "standard",
		endTime.Add(-48*time.Hour), endTime, nil, nil,
	)
	mock.ExpectQuery(`SELECT .* FROM applications`).
		WithArgs("app-1").
		WillReturnRows(rows)

	app, err := store.GetApplication(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusLiveAuction, app.Status)
	assert.Equal(t, "retail", app.FinancialProfile["industry"])
	require.NotNil(t, app.AuctionEndTime)
	assert.Equal(t, endTime, *app.AuctionEndTime)
	assert.Nil(t, app.SelectedOfferID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetApplicationNotFound(t *testing.T) {
	store, mock := setupMockDB(t)

	mock.ExpectQuery(`SELECT .* FROM applications`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.GetApplication(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRecordViewConflictIsNotFirstView(t *testing.T) {
	store, mock := setupMockDB(t)

	mock.ExpectExec(`INSERT INTO application_views`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	created, err := store.RecordView(context.Background(), models.ViewRecord{
		ApplicationID: "app-1",
		ViewerID:      "bank-1",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertRejectionReturnsStoredRow(t *testing.T) {
	store, mock := setupMockDB(t)

	createdAt := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO lead_rejections`).
		WillReturnRows(sqlmock.NewRows([]string{
			"application_id", "viewer_id", "reason", "created_at",
		}).AddRow("app-1", "bank-1", "second pass", createdAt))

	rec, err := store.UpsertRejection(context.Background(), models.RejectionRecord{
		ApplicationID: "app-1",
		ViewerID:      "bank-1",
		Reason:        "second pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "second pass", rec.Reason)
	assert.Equal(t, createdAt, rec.CreatedAt)
}
