package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/warp/quota-tracker/generic"
)

// =============================================================================
// CACHE - Time-to-live snapshot around a DataSource
// =============================================================================

// DefaultTTL matches how often the warehouse tables are refreshed upstream.
const DefaultTTL = time.Hour

// Cache reuses one snapshot of both tables until it expires. Within the TTL
// every caller sees the same snapshot ID and the same rows.
//
// A failed refresh keeps the previous snapshot in place and returns the error;
// the next call tries again.
type Cache struct {
	source generic.DataSource
	ttl    time.Duration
	now    func() time.Time
	log    zerolog.Logger

	mu      sync.Mutex
	current *generic.Snapshot
}

var _ generic.SnapshotSource = (*Cache)(nil)

type CacheOption func(*Cache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) CacheOption { return func(c *Cache) { c.now = now } }

func WithLogger(l zerolog.Logger) CacheOption { return func(c *Cache) { c.log = l } }

func NewCache(source generic.DataSource, ttl time.Duration, opts ...CacheOption) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{source: source, ttl: ttl, now: time.Now, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns the cached snapshot, fetching a new one once it expired.
// The lock is held across the fetch so concurrent callers share one refresh.
func (c *Cache) Snapshot(ctx context.Context) (*generic.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.current != nil && now.Before(c.current.ExpiresAt) {
		return c.current, nil
	}

	events, err := c.source.FetchEvents(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("refresh events failed")
		return nil, err
	}
	quotas, err := c.source.FetchQuotas(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("refresh quotas failed")
		return nil, err
	}

	c.current = &generic.Snapshot{
		ID:        uuid.NewString(),
		FetchedAt: now,
		ExpiresAt: now.Add(c.ttl),
		Events:    events,
		Quotas:    quotas,
	}
	c.log.Info().
		Str("snapshot", c.current.ID).
		Int("events", len(events)).
		Int("quotas", len(quotas)).
		Dur("took", c.now().Sub(now)).
		Time("expires_at", c.current.ExpiresAt).
		Msg("snapshot refreshed")
	return c.current, nil
}

// Invalidate forces the next Snapshot call to refetch.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		expired := *c.current
		expired.ExpiresAt = c.now()
		c.current = &expired
	}
}
