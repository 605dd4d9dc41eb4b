// Package cache keeps a short-lived Redis copy of per-month slot availability
// so repeated applicant browsing does not hammer the primary store. Booking
// and cancellation invalidate the affected month; stale reads are bounded by
// a small TTL either way, and the store remains the source of truth at
// booking time.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"attache/internal/scheduling/models"
	id "attache/pkg/domain"
)

const (
	slotsKeyPrefix = "sched:slots:"
	defaultTTL     = 30 * time.Second
)

// AvailabilityCache caches slot listings keyed by organization and month.
// A nil *AvailabilityCache is valid and disables caching.
type AvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Option configures an AvailabilityCache.
type Option func(*AvailabilityCache)

// WithTTL overrides the default entry TTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *AvailabilityCache) { c.ttl = ttl }
}

// New constructs an availability cache over a Redis client.
// Returns nil when client is nil so callers can wire it unconditionally.
func New(client *redis.Client, opts ...Option) *AvailabilityCache {
	if client == nil {
		return nil
	}
	c := &AvailabilityCache{client: client, ttl: defaultTTL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func key(orgID id.OrgID, month time.Time) string {
	return fmt.Sprintf("%s%s:%s", slotsKeyPrefix, orgID, month.Format("2006-01"))
}

// Get returns the cached listing, or (nil, false) on miss or any Redis error.
// Cache failures never fail the read path.
func (c *AvailabilityCache) Get(ctx context.Context, orgID id.OrgID, month time.Time) ([]*models.AppointmentSlot, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, key(orgID, month)).Bytes()
	if err != nil {
		return nil, false
	}
	var slots []*models.AppointmentSlot
	if err := json.Unmarshal(raw, &slots); err != nil {
		return nil, false
	}
	return slots, true
}

// Set stores a listing. Errors are ignored; the cache is best-effort.
func (c *AvailabilityCache) Set(ctx context.Context, orgID id.OrgID, month time.Time, slots []*models.AppointmentSlot) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(slots)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key(orgID, month), raw, c.ttl).Err()
}

// Invalidate drops the month entry covering the given slot date.
func (c *AvailabilityCache) Invalidate(ctx context.Context, orgID id.OrgID, date time.Time) {
	if c == nil {
		return
	}
	month := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
	_ = c.client.Del(ctx, key(orgID, month)).Err()
}
