package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/quota-tracker/generic"
	"github.com/warp/quota-tracker/generic/store"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration)   { c.t = c.t.Add(d) }

func fixture() *store.Memory {
	return store.NewMemory(
		[]generic.EventRecord{{
			OccurredOn:          generic.NewDate(2024, time.January, 5),
			NationalityCategory: "filipina",
			LocationCategory:    "outside_uae",
		}},
		[]generic.QuotaRow{{
			NationalityCategory: "filipina",
			LocationCategory:    "outside_uae",
			QuotaAll:            decimal.NewFromInt(10),
			QuotaActive:         decimal.NewFromInt(4),
		}},
	)
}

func TestCache_ReusesSnapshotWithinTTL(t *testing.T) {
	// GIVEN: a cache with a one hour TTL
	src := fixture()
	clk := &clock{t: time.Date(2024, 1, 21, 9, 0, 0, 0, time.UTC)}
	cache := store.NewCache(src, time.Hour, store.WithClock(clk.now))
	ctx := context.Background()

	// WHEN: two reads happen inside the TTL
	first, err := cache.Snapshot(ctx)
	require.NoError(t, err)
	clk.advance(59 * time.Minute)
	second, err := cache.Snapshot(ctx)
	require.NoError(t, err)

	// THEN: both see the same snapshot and the source was read once
	assert.Equal(t, first.ID, second.ID)
	assert.NotEmpty(t, first.ID)
	assert.Len(t, second.Events, 1)
	events, quotas := src.Fetches()
	assert.Equal(t, 1, events)
	assert.Equal(t, 1, quotas)
}

func TestCache_RefetchesAfterExpiry(t *testing.T) {
	src := fixture()
	clk := &clock{t: time.Date(2024, 1, 21, 9, 0, 0, 0, time.UTC)}
	cache := store.NewCache(src, time.Hour, store.WithClock(clk.now))
	ctx := context.Background()

	first, err := cache.Snapshot(ctx)
	require.NoError(t, err)

	src.SetEvents(nil)
	clk.advance(time.Hour)
	second, err := cache.Snapshot(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Empty(t, second.Events)
	assert.Len(t, first.Events, 1, "an earlier snapshot is never mutated")
	assert.Equal(t, clk.t.Add(time.Hour), second.ExpiresAt)
}

func TestCache_FailedRefreshKeepsPreviousSnapshot(t *testing.T) {
	src := fixture()
	clk := &clock{t: time.Date(2024, 1, 21, 9, 0, 0, 0, time.UTC)}
	cache := store.NewCache(src, time.Hour, store.WithClock(clk.now))
	ctx := context.Background()

	first, err := cache.Snapshot(ctx)
	require.NoError(t, err)

	// WHEN: the source goes down after expiry
	src.Fail = errors.New("connection refused")
	clk.advance(2 * time.Hour)
	_, err = cache.Snapshot(ctx)

	// THEN: the error says the source is unavailable
	require.Error(t, err)
	assert.ErrorIs(t, err, generic.ErrSourceUnavailable)
	var fe *generic.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "events", fe.Table)

	// AND: once it recovers a fresh snapshot is served
	src.Fail = nil
	again, err := cache.Snapshot(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, again.ID)
}

func TestCache_Invalidate(t *testing.T) {
	src := fixture()
	clk := &clock{t: time.Date(2024, 1, 21, 9, 0, 0, 0, time.UTC)}
	cache := store.NewCache(src, time.Hour, store.WithClock(clk.now))
	ctx := context.Background()

	first, err := cache.Snapshot(ctx)
	require.NoError(t, err)
	expiresAt := first.ExpiresAt

	cache.Invalidate()
	second, err := cache.Snapshot(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, expiresAt, first.ExpiresAt, "holders of the old snapshot keep their copy")
	events, _ := src.Fetches()
	assert.Equal(t, 2, events)
}

func TestCache_DefaultTTL(t *testing.T) {
	src := fixture()
	clk := &clock{t: time.Date(2024, 1, 21, 9, 0, 0, 0, time.UTC)}
	cache := store.NewCache(src, 0, store.WithClock(clk.now))

	snap, err := cache.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, clk.t.Add(store.DefaultTTL), snap.ExpiresAt)
}
