package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/quota-tracker/generic"
	"github.com/warp/quota-tracker/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_ImportAndFetchEvents(t *testing.T) {
	// GIVEN: rows with full timestamps, a bad timestamp and a missing one
	s := newStore(t)
	ctx := context.Background()

	n, err := s.ImportEvents(ctx, []sqlite.Application{
		{Created: "2024-01-05 08:15:00", Nationality: "filipina", Location: "philippines", ActiveVisaStatus: "true"},
		{Created: "2023-01-10T10:00:00Z", Nationality: "filipina", Location: "outside_uae"},
		{Created: "not a date", Nationality: "filipina", Location: "outside_uae"},
		{Created: "", Nationality: "filipina", Location: "outside_uae"},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	// WHEN
	events, err := s.FetchEvents(ctx)
	require.NoError(t, err)

	// THEN: only rows with a leading date survive, truncated to the day
	require.Len(t, events, 2)
	assert.Equal(t, generic.NewDate(2024, time.January, 5), events[0].OccurredOn)
	assert.Equal(t, "philippines", events[0].LocationCategory)
	assert.Equal(t, "true", events[0].ActiveVisaFlag)
	assert.Equal(t, generic.NewDate(2023, time.January, 10), events[1].OccurredOn)
}

func TestStore_ImportQuotasReplaces(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.ImportQuotas(ctx, []generic.QuotaRow{
		{NationalityCategory: "ethiopian", LocationCategory: "outside_uae", QuotaAll: decimal.NewFromInt(4), QuotaActive: decimal.Zero},
	})
	require.NoError(t, err)

	n, err := s.ImportQuotas(ctx, []generic.QuotaRow{
		{NationalityCategory: "filipina", LocationCategory: "philippines", QuotaAll: decimal.RequireFromString("12.5"), QuotaActive: decimal.NewFromInt(5)},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	quotas, err := s.FetchQuotas(ctx)
	require.NoError(t, err)
	require.Len(t, quotas, 1)
	assert.Equal(t, "filipina", quotas[0].NationalityCategory)
	assert.Equal(t, "12.5", quotas[0].QuotaAll.String())
	assert.Equal(t, "5", quotas[0].QuotaActive.String())
}

func TestStore_DuplicateQuotaRollsBack(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	row := generic.QuotaRow{NationalityCategory: "filipina", LocationCategory: "philippines", QuotaAll: decimal.NewFromInt(1), QuotaActive: decimal.NewFromInt(1)}

	_, err := s.ImportQuotas(ctx, []generic.QuotaRow{row})
	require.NoError(t, err)

	_, err = s.ImportQuotas(ctx, []generic.QuotaRow{row, row})
	require.Error(t, err)

	quotas, err := s.FetchQuotas(ctx)
	require.NoError(t, err)
	assert.Len(t, quotas, 1, "the failed import leaves the previous table in place")
}

func TestStore_Reset(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.ImportEvents(ctx, []sqlite.Application{{Created: "2024-01-05", Nationality: "filipina", Location: "outside_uae"}})
	require.NoError(t, err)
	require.NoError(t, s.Reset(ctx))

	events, err := s.FetchEvents(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestStore_ClosedDatabaseIsUnavailable(t *testing.T) {
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.FetchEvents(context.Background())
	assert.ErrorIs(t, err, generic.ErrSourceUnavailable)
}
