// Package memory is an in-memory implementation of the storage interfaces.
// It is safe for concurrent use and is primarily intended for tests and
// local development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"leadauction-workers/internal/engine/storage"
	"leadauction-workers/internal/models"
)

type Store struct {
	mu           sync.RWMutex
	applications map[string]models.Application
	offers       map[string]models.Offer
	offersByApp  map[string][]string
	offerByPair  map[string]string // applicationID+"\x00"+bidderID -> offerID
	views        map[string]map[string]models.ViewRecord
	viewsByUser  map[string]map[string]struct{}
	rejections   map[string]map[string]models.RejectionRecord
	audit        map[string][]models.AuditEntry
}

var _ storage.ApplicationStore = (*Store)(nil)
var _ storage.OfferStore = (*Store)(nil)
var _ storage.ViewStore = (*Store)(nil)
var _ storage.RejectionStore = (*Store)(nil)
var _ storage.AuditStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		applications: make(map[string]models.Application),
		offers:       make(map[string]models.Offer),
		offersByApp:  make(map[string][]string),
		offerByPair:  make(map[string]string),
		views:        make(map[string]map[string]models.ViewRecord),
		viewsByUser:  make(map[string]map[string]struct{}),
		rejections:   make(map[string]map[string]models.RejectionRecord),
		audit:        make(map[string][]models.AuditEntry),
	}
}

func pairKey(applicationID, bidderID string) string {
	return applicationID + "\x00" + bidderID
}

// ApplicationStore implementation ---------------------------------------------

func (s *Store) CreateApplication(_ context.Context, app models.Application) (models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if app.ID == "" {
		app.ID = uuid.NewString()
	} else if _, exists := s.applications[app.ID]; exists {
		return models.Application{}, storage.ErrAlreadyExists
	}

	app.FinancialProfile = cloneMap(app.FinancialProfile)
	s.applications[app.ID] = app
	return cloneApplication(app), nil
}

func (s *Store) TransitionApplication(_ context.Context, app models.Application, entry models.AuditEntry) (models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.applications[app.ID]; !ok {
		return models.Application{}, storage.ErrNotFound
	}

	app.FinancialProfile = cloneMap(app.FinancialProfile)
	s.applications[app.ID] = app
	s.appendAuditLocked(entry)
	return cloneApplication(app), nil
}

func (s *Store) SettleApplication(_ context.Context, app models.Application, acceptedOfferID string, entry models.AuditEntry) (models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accepted, ok := s.offers[acceptedOfferID]
	if !ok || accepted.ApplicationID != app.ID {
		return models.Application{}, storage.ErrNotFound
	}
	if _, ok := s.applications[app.ID]; !ok {
		return models.Application{}, storage.ErrNotFound
	}

	accepted.Status = models.OfferAccepted
	s.offers[acceptedOfferID] = accepted
	for _, id := range s.offersByApp[app.ID] {
		if id == acceptedOfferID {
			continue
		}
		sibling := s.offers[id]
		if sibling.Status == models.OfferSubmitted {
			sibling.Status = models.OfferRejected
			s.offers[id] = sibling
		}
	}

	app.FinancialProfile = cloneMap(app.FinancialProfile)
	s.applications[app.ID] = app
	s.appendAuditLocked(entry)
	return cloneApplication(app), nil
}

func (s *Store) GetApplication(_ context.Context, id string) (models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.applications[id]
	if !ok {
		return models.Application{}, storage.ErrNotFound
	}
	return cloneApplication(app), nil
}

func (s *Store) ListApplicationsByStatus(_ context.Context, status models.ApplicationStatus) ([]models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Application
	for _, app := range s.applications {
		if app.Status == status {
			out = append(out, cloneApplication(app))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out, nil
}

// OfferStore implementation ----------------------------------------------------

func (s *Store) CreateOffer(_ context.Context, offer models.Offer) (models.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(offer.ApplicationID, offer.BidderID)
	if _, exists := s.offerByPair[key]; exists {
		return models.Offer{}, storage.ErrDuplicateOffer
	}

	if offer.ID == "" {
		offer.ID = uuid.NewString()
	} else if _, exists := s.offers[offer.ID]; exists {
		return models.Offer{}, storage.ErrAlreadyExists
	}

	offer.Terms = cloneMap(offer.Terms)
	s.offers[offer.ID] = offer
	s.offersByApp[offer.ApplicationID] = append(s.offersByApp[offer.ApplicationID], offer.ID)
	s.offerByPair[key] = offer.ID
	return cloneOffer(offer), nil
}

func (s *Store) UpdateOfferStatus(_ context.Context, offerID string, status models.OfferStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	offer, ok := s.offers[offerID]
	if !ok {
		return storage.ErrNotFound
	}
	offer.Status = status
	s.offers[offerID] = offer
	return nil
}

func (s *Store) GetOffer(_ context.Context, id string) (models.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	offer, ok := s.offers[id]
	if !ok {
		return models.Offer{}, storage.ErrNotFound
	}
	return cloneOffer(offer), nil
}

func (s *Store) ListOffers(_ context.Context, applicationID string) ([]models.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.offersByApp[applicationID]
	out := make([]models.Offer, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneOffer(s.offers[id]))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out, nil
}

func (s *Store) CountOffersByBidder(_ context.Context, bidderID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, offer := range s.offers {
		if offer.BidderID == bidderID {
			count++
		}
	}
	return count, nil
}

// ViewStore implementation -----------------------------------------------------

func (s *Store) RecordView(_ context.Context, rec models.ViewRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byViewer, ok := s.views[rec.ApplicationID]
	if !ok {
		byViewer = make(map[string]models.ViewRecord)
		s.views[rec.ApplicationID] = byViewer
	}
	if _, seen := byViewer[rec.ViewerID]; seen {
		return false, nil
	}

	if rec.FirstViewedAt.IsZero() {
		rec.FirstViewedAt = time.Now().UTC()
	}
	byViewer[rec.ViewerID] = rec

	apps, ok := s.viewsByUser[rec.ViewerID]
	if !ok {
		apps = make(map[string]struct{})
		s.viewsByUser[rec.ViewerID] = apps
	}
	apps[rec.ApplicationID] = struct{}{}
	return true, nil
}

func (s *Store) CountDistinctViewers(_ context.Context, applicationID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.views[applicationID]), nil
}

func (s *Store) CountViewedApplications(_ context.Context, viewerID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.viewsByUser[viewerID]), nil
}

// RejectionStore implementation ------------------------------------------------

func (s *Store) UpsertRejection(_ context.Context, rec models.RejectionRecord) (models.RejectionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byViewer, ok := s.rejections[rec.ApplicationID]
	if !ok {
		byViewer = make(map[string]models.RejectionRecord)
		s.rejections[rec.ApplicationID] = byViewer
	}

	if existing, seen := byViewer[rec.ViewerID]; seen {
		existing.Reason = rec.Reason
		byViewer[rec.ViewerID] = existing
		return existing, nil
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	byViewer[rec.ViewerID] = rec
	return rec, nil
}

func (s *Store) ListRejections(_ context.Context, applicationID string) ([]models.RejectionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byViewer := s.rejections[applicationID]
	out := make([]models.RejectionRecord, 0, len(byViewer))
	for _, rec := range byViewer {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// AuditStore implementation ----------------------------------------------------

func (s *Store) AppendAuditEntry(_ context.Context, entry models.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.appendAuditLocked(entry)
	return nil
}

func (s *Store) appendAuditLocked(entry models.AuditEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	s.audit[entry.ApplicationID] = append(s.audit[entry.ApplicationID], entry)
}

func (s *Store) ListAuditEntries(_ context.Context, applicationID string) ([]models.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.audit[applicationID]
	out := make([]models.AuditEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// helpers ----------------------------------------------------------------------

func cloneMap(in map[string]interface{}) map[string]interface{} {
	if in == nil {
		return nil
	}
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneApplication(app models.Application) models.Application {
	app.FinancialProfile = cloneMap(app.FinancialProfile)
	if app.AuctionEndTime != nil {
		end := *app.AuctionEndTime
		app.AuctionEndTime = &end
	}
	if app.SelectedOfferID != nil {
		sel := *app.SelectedOfferID
		app.SelectedOfferID = &sel
	}
	if app.Document != nil {
		doc := *app.Document
		app.Document = &doc
	}
	return app
}

func cloneOffer(offer models.Offer) models.Offer {
	offer.Terms = cloneMap(offer.Terms)
	if offer.Document != nil {
		doc := *offer.Document
		offer.Document = &doc
	}
	return offer
}
