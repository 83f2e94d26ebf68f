// Package views tracks which bank users have opened a live application. View
// records are idempotent per (application, viewer) pair and feed lead
// analytics, so distinct-viewer counts are cached in Redis with a short TTL.
package views

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"leadauction-workers/internal/common/logger"
	"leadauction-workers/internal/engine/storage"
	"leadauction-workers/internal/models"
)

// DefaultCacheTTL bounds staleness of the cached viewer counts. Analytics
// tolerate short lag; lifecycle decisions never read the cache.
const DefaultCacheTTL = 30 * time.Second

type Tracker struct {
	store    storage.ViewStore
	redis    *redis.Client
	cacheTTL time.Duration
	logger   logger.Logger
}

// NewTracker creates a view tracker. redis may be nil to disable caching.
func NewTracker(store storage.ViewStore, rdb *redis.Client, cacheTTL time.Duration, log logger.Logger) *Tracker {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	return &Tracker{
		store:    store,
		redis:    rdb,
		cacheTTL: cacheTTL,
		logger:   log.WithFields(map[string]interface{}{"component": "view-tracker"}),
	}
}

// RecordView marks the application viewed by the given user. Only the first
// view per pair creates a record; repeats return created=false and change
// nothing. A fresh first view invalidates the cached count.
func (t *Tracker) RecordView(ctx context.Context, applicationID, viewerID string) (bool, error) {
	created, err := t.store.RecordView(ctx, models.ViewRecord{
		ApplicationID: applicationID,
		ViewerID:      viewerID,
		FirstViewedAt: time.Now().UTC(),
	})
	if err != nil {
		return false, fmt.Errorf("record view: %w", err)
	}

	if created && t.redis != nil {
		if err := t.redis.Del(ctx, viewerCountKey(applicationID)).Err(); err != nil {
			t.logger.Warn("viewer count cache invalidation failed", map[string]interface{}{
				"applicationId": applicationID,
				"error":         err,
			})
		}
	}
	return created, nil
}

// DistinctViewers returns the number of distinct bank users that have viewed
// the application, served from cache when fresh.
func (t *Tracker) DistinctViewers(ctx context.Context, applicationID string) (int, error) {
	key := viewerCountKey(applicationID)
	if t.redis != nil {
		if val, err := t.redis.Get(ctx, key).Result(); err == nil {
			if count, convErr := strconv.Atoi(val); convErr == nil {
				return count, nil
			}
		}
	}

	count, err := t.store.CountDistinctViewers(ctx, applicationID)
	if err != nil {
		return 0, fmt.Errorf("count distinct viewers: %w", err)
	}

	if t.redis != nil {
		if err := t.redis.Set(ctx, key, strconv.Itoa(count), t.cacheTTL).Err(); err != nil {
			t.logger.Warn("viewer count cache write failed", map[string]interface{}{
				"applicationId": applicationID,
				"error":         err,
			})
		}
	}
	return count, nil
}

// ViewedApplications returns how many distinct applications the user has
// opened. Used as the denominator of per-bidder conversion rates.
func (t *Tracker) ViewedApplications(ctx context.Context, viewerID string) (int, error) {
	count, err := t.store.CountViewedApplications(ctx, viewerID)
	if err != nil {
		return 0, fmt.Errorf("count viewed applications: %w", err)
	}
	return count, nil
}

func viewerCountKey(applicationID string) string {
	return "lead:viewers:" + applicationID
}
