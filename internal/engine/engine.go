// Package engine implements the auction lifecycle for financing leads: the
// status state machine, the time-boxed offer window, concurrent offer
// collection, winner selection and the append-only audit trail. Every
// mutating operation on an application runs inside that application's
// serialization scope; operations on different applications proceed in
// parallel.
package engine

import (
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"

	stderrors "leadauction-workers/internal/common/errors"
	"leadauction-workers/internal/common/logger"
	"leadauction-workers/internal/engine/audit"
	"leadauction-workers/internal/engine/rejections"
	"leadauction-workers/internal/engine/storage"
	"leadauction-workers/internal/engine/views"
	"leadauction-workers/internal/engine/window"
)

// Stores groups the persistence interfaces the engine runs on. A single
// struct usually implements all of them (memory.Store, postgres.Store).
type Stores struct {
	Applications storage.ApplicationStore
	Offers       storage.OfferStore
	Views        storage.ViewStore
	Rejections   storage.RejectionStore
	Audit        storage.AuditStore
}

// Config carries the tunables of the auction engine.
type Config struct {
	// WindowDuration is the length of the bidding window. Zero selects the
	// 48h default.
	WindowDuration time.Duration
	// OfferTTL optionally shortens an offer's validity below the auction
	// window; it is always capped at the window close. Zero means offers
	// stay valid until the window closes.
	OfferTTL time.Duration
	// ViewCacheTTL bounds staleness of cached distinct-viewer counts.
	ViewCacheTTL time.Duration
}

type Engine struct {
	apps       storage.ApplicationStore
	offers     storage.OfferStore
	window     *window.Scheduler
	audit      *audit.Log
	views      *views.Tracker
	rejections *rejections.Registry
	offerTTL   time.Duration
	locks      *lockTable
	logger     logger.Logger

	// now is replaceable in tests.
	now func() time.Time
}

// New wires an Engine over the given stores. es and rdb may be nil; the
// audit mirror and viewer-count cache are then disabled.
func New(cfg Config, stores Stores, es *elasticsearch.Client, rdb *redis.Client, log logger.Logger) *Engine {
	return &Engine{
		apps:       stores.Applications,
		offers:     stores.Offers,
		window:     window.NewScheduler(cfg.WindowDuration),
		audit:      audit.NewLog(stores.Audit, es, log),
		views:      views.NewTracker(stores.Views, rdb, cfg.ViewCacheTTL, log),
		rejections: rejections.NewRegistry(stores.Rejections),
		offerTTL:   cfg.OfferTTL,
		locks:      newLockTable(),
		logger:     log.WithFields(map[string]interface{}{"component": "auction-engine"}),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Window exposes the deadline scheduler for callers that surface remaining
// time.
func (e *Engine) Window() *window.Scheduler {
	return e.window
}

// storageError wraps unexpected store failures as retryable transport
// errors. Sentinel conditions are mapped by the callers before reaching
// this.
func storageError(err error) *stderrors.StandardError {
	return stderrors.NewStorageUnavailableError(err)
}
