// Package postgres implements the storage interfaces backed by PostgreSQL.
// Uniqueness invariants — one offer per (application, bidder), one view and
// one rejection per (application, viewer) — are enforced by the schema, not
// by read-then-write sequences.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"leadauction-workers/internal/engine/storage"
	"leadauction-workers/internal/models"
)

const uniqueViolation = "23505"

type Store struct {
	db *sql.DB
}

var _ storage.ApplicationStore = (*Store)(nil)
var _ storage.OfferStore = (*Store)(nil)
var _ storage.ViewStore = (*Store)(nil)
var _ storage.RejectionStore = (*Store)(nil)
var _ storage.AuditStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}

// --- ApplicationStore --------------------------------------------------------

func (s *Store) CreateApplication(ctx context.Context, app models.Application) (models.Application, error) {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}

	profileJSON, err := json.Marshal(app.FinancialProfile)
	if err != nil {
		return models.Application{}, err
	}
	docJSON, err := marshalDocument(app.Document)
	if err != nil {
		return models.Application{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO applications (
			id, owner_business_id, status, financial_profile, priority_level,
			submitted_at, auction_end_time, selected_offer_id, document_ref
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		app.ID, app.OwnerBusinessID, string(app.Status), profileJSON,
		string(app.PriorityLevel), app.SubmittedAt, app.AuctionEndTime,
		app.SelectedOfferID, docJSON,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Application{}, storage.ErrAlreadyExists
		}
		return models.Application{}, err
	}
	return app, nil
}

func (s *Store) TransitionApplication(ctx context.Context, app models.Application, entry models.AuditEntry) (models.Application, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Application{}, err
	}
	defer tx.Rollback()

	if err := updateApplicationIn(ctx, tx, app); err != nil {
		return models.Application{}, err
	}
	if err := appendAuditEntryIn(ctx, tx, entry); err != nil {
		return models.Application{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Application{}, err
	}
	return app, nil
}

func (s *Store) SettleApplication(ctx context.Context, app models.Application, acceptedOfferID string, entry models.AuditEntry) (models.Application, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Application{}, err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE offers SET status = $3
		WHERE id = $2 AND application_id = $1`,
		app.ID, acceptedOfferID, string(models.OfferAccepted))
	if err != nil {
		return models.Application{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return models.Application{}, storage.ErrNotFound
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE offers SET status = $3
		WHERE application_id = $1 AND id <> $2 AND status = $4`,
		app.ID, acceptedOfferID,
		string(models.OfferRejected), string(models.OfferSubmitted))
	if err != nil {
		return models.Application{}, err
	}

	if err := updateApplicationIn(ctx, tx, app); err != nil {
		return models.Application{}, err
	}
	if err := appendAuditEntryIn(ctx, tx, entry); err != nil {
		return models.Application{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Application{}, err
	}
	return app, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func updateApplicationIn(ctx context.Context, e execer, app models.Application) error {
	profileJSON, err := json.Marshal(app.FinancialProfile)
	if err != nil {
		return err
	}

	result, err := e.ExecContext(ctx, `
		UPDATE applications
		SET status = $2, financial_profile = $3, priority_level = $4,
		    auction_end_time = $5, selected_offer_id = $6
		WHERE id = $1`,
		app.ID, string(app.Status), profileJSON, string(app.PriorityLevel),
		app.AuctionEndTime, app.SelectedOfferID,
	)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) GetApplication(ctx context.Context, id string) (models.Application, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_business_id, status, financial_profile, priority_level,
		       submitted_at, auction_end_time, selected_offer_id, document_ref
		FROM applications
		WHERE id = $1`, id)
	return scanApplication(row)
}

func (s *Store) ListApplicationsByStatus(ctx context.Context, status models.ApplicationStatus) ([]models.Application, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_business_id, status, financial_profile, priority_level,
		       submitted_at, auction_end_time, selected_offer_id, document_ref
		FROM applications
		WHERE status = $1
		ORDER BY submitted_at ASC`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanApplication(row rowScanner) (models.Application, error) {
	var (
		app         models.Application
		status      string
		priority    string
		profileRaw  []byte
		endTime     sql.NullTime
		selectedID  sql.NullString
		documentRaw []byte
	)
	err := row.Scan(&app.ID, &app.OwnerBusinessID, &status, &profileRaw,
		&priority, &app.SubmittedAt, &endTime, &selectedID, &documentRaw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Application{}, storage.ErrNotFound
		}
		return models.Application{}, err
	}

	app.Status = models.ApplicationStatus(status)
	app.PriorityLevel = models.PriorityLevel(priority)
	if len(profileRaw) > 0 {
		if err := json.Unmarshal(profileRaw, &app.FinancialProfile); err != nil {
			return models.Application{}, err
		}
	}
	if endTime.Valid {
		t := endTime.Time.UTC()
		app.AuctionEndTime = &t
	}
	if selectedID.Valid {
		id := selectedID.String
		app.SelectedOfferID = &id
	}
	doc, err := unmarshalDocument(documentRaw)
	if err != nil {
		return models.Application{}, err
	}
	app.Document = doc
	app.SubmittedAt = app.SubmittedAt.UTC()
	return app, nil
}

// --- OfferStore --------------------------------------------------------------

func (s *Store) CreateOffer(ctx context.Context, offer models.Offer) (models.Offer, error) {
	if offer.ID == "" {
		offer.ID = uuid.NewString()
	}

	termsJSON, err := json.Marshal(offer.Terms)
	if err != nil {
		return models.Offer{}, err
	}
	docJSON, err := marshalDocument(offer.Document)
	if err != nil {
		return models.Offer{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO offers (
			id, application_id, bidder_id, terms, status,
			submitted_at, expires_at, document_ref
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		offer.ID, offer.ApplicationID, offer.BidderID, termsJSON,
		string(offer.Status), offer.SubmittedAt, offer.ExpiresAt, docJSON,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Offer{}, storage.ErrDuplicateOffer
		}
		return models.Offer{}, err
	}
	return offer, nil
}

func (s *Store) UpdateOfferStatus(ctx context.Context, offerID string, status models.OfferStatus) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE offers SET status = $2 WHERE id = $1`,
		offerID, string(status))
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) GetOffer(ctx context.Context, id string) (models.Offer, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, application_id, bidder_id, terms, status,
		       submitted_at, expires_at, document_ref
		FROM offers
		WHERE id = $1`, id)
	return scanOffer(row)
}

func (s *Store) ListOffers(ctx context.Context, applicationID string) ([]models.Offer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, application_id, bidder_id, terms, status,
		       submitted_at, expires_at, document_ref
		FROM offers
		WHERE application_id = $1
		ORDER BY submitted_at ASC`, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Offer
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, offer)
	}
	return out, rows.Err()
}

func (s *Store) CountOffersByBidder(ctx context.Context, bidderID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM offers WHERE bidder_id = $1`, bidderID).Scan(&count)
	return count, err
}

func scanOffer(row rowScanner) (models.Offer, error) {
	var (
		offer       models.Offer
		status      string
		termsRaw    []byte
		documentRaw []byte
	)
	err := row.Scan(&offer.ID, &offer.ApplicationID, &offer.BidderID,
		&termsRaw, &status, &offer.SubmittedAt, &offer.ExpiresAt, &documentRaw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Offer{}, storage.ErrNotFound
		}
		return models.Offer{}, err
	}

	offer.Status = models.OfferStatus(status)
	if len(termsRaw) > 0 {
		if err := json.Unmarshal(termsRaw, &offer.Terms); err != nil {
			return models.Offer{}, err
		}
	}
	doc, err := unmarshalDocument(documentRaw)
	if err != nil {
		return models.Offer{}, err
	}
	offer.Document = doc
	offer.SubmittedAt = offer.SubmittedAt.UTC()
	offer.ExpiresAt = offer.ExpiresAt.UTC()
	return offer, nil
}

// --- ViewStore ---------------------------------------------------------------

func (s *Store) RecordView(ctx context.Context, rec models.ViewRecord) (bool, error) {
	if rec.FirstViewedAt.IsZero() {
		rec.FirstViewedAt = time.Now().UTC()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO application_views (application_id, viewer_id, first_viewed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (application_id, viewer_id) DO NOTHING`,
		rec.ApplicationID, rec.ViewerID, rec.FirstViewedAt,
	)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (s *Store) CountDistinctViewers(ctx context.Context, applicationID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM application_views WHERE application_id = $1`,
		applicationID).Scan(&count)
	return count, err
}

func (s *Store) CountViewedApplications(ctx context.Context, viewerID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM application_views WHERE viewer_id = $1`,
		viewerID).Scan(&count)
	return count, err
}

// --- RejectionStore ----------------------------------------------------------

func (s *Store) UpsertRejection(ctx context.Context, rec models.RejectionRecord) (models.RejectionRecord, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	// Redundant rejections refresh the reason but keep the original created_at.
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO lead_rejections (application_id, viewer_id, reason, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (application_id, viewer_id)
		DO UPDATE SET reason = EXCLUDED.reason
		RETURNING application_id, viewer_id, reason, created_at`,
		rec.ApplicationID, rec.ViewerID, rec.Reason, rec.CreatedAt,
	)

	var out models.RejectionRecord
	if err := row.Scan(&out.ApplicationID, &out.ViewerID, &out.Reason, &out.CreatedAt); err != nil {
		return models.RejectionRecord{}, err
	}
	out.CreatedAt = out.CreatedAt.UTC()
	return out, nil
}

func (s *Store) ListRejections(ctx context.Context, applicationID string) ([]models.RejectionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT application_id, viewer_id, reason, created_at
		FROM lead_rejections
		WHERE application_id = $1
		ORDER BY created_at ASC`, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.RejectionRecord
	for rows.Next() {
		var rec models.RejectionRecord
		if err := rows.Scan(&rec.ApplicationID, &rec.ViewerID, &rec.Reason, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.CreatedAt = rec.CreatedAt.UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// --- AuditStore --------------------------------------------------------------

func (s *Store) AppendAuditEntry(ctx context.Context, entry models.AuditEntry) error {
	return appendAuditEntryIn(ctx, s.db, entry)
}

func appendAuditEntryIn(ctx context.Context, e execer, entry models.AuditEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	_, err := e.ExecContext(ctx, `
		INSERT INTO audit_log (application_id, from_status, to_status, actor_id, actor_role, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ApplicationID, string(entry.FromStatus), string(entry.ToStatus),
		entry.Actor.ID, string(entry.Actor.Role), entry.Reason, entry.Timestamp,
	)
	return err
}

func (s *Store) ListAuditEntries(ctx context.Context, applicationID string) ([]models.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT application_id, from_status, to_status, actor_id, actor_role, reason, created_at
		FROM audit_log
		WHERE application_id = $1
		ORDER BY created_at ASC, id ASC`, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AuditEntry
	for rows.Next() {
		var (
			entry      models.AuditEntry
			fromStatus string
			toStatus   string
			actorRole  string
		)
		if err := rows.Scan(&entry.ApplicationID, &fromStatus, &toStatus,
			&entry.Actor.ID, &actorRole, &entry.Reason, &entry.Timestamp); err != nil {
			return nil, err
		}
		entry.FromStatus = models.ApplicationStatus(fromStatus)
		entry.ToStatus = models.ApplicationStatus(toStatus)
		entry.Actor.Role = models.Role(actorRole)
		entry.Timestamp = entry.Timestamp.UTC()
		out = append(out, entry)
	}
	return out, rows.Err()
}

// helpers ---------------------------------------------------------------------

func marshalDocument(doc *models.DocumentRef) ([]byte, error) {
	if doc == nil {
		return nil, nil
	}
	return json.Marshal(doc)
}

func unmarshalDocument(raw []byte) (*models.DocumentRef, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var doc models.DocumentRef
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
