/*
handlers_test.go - HTTP tests for the dashboard API

Tests for:
- Dashboard JSON for the default and an explicit segment
- Segment parameter validation
- Chart PNG rendering and unknown granularities
- Source failures surfacing as 502
- Import into the SQLite source and cache invalidation
*/
package api

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/quota-tracker/generic"
	"github.com/warp/quota-tracker/generic/store"
	"github.com/warp/quota-tracker/store/sqlite"
	"github.com/warp/quota-tracker/tracker"
)

type fixture struct {
	router http.Handler
	source *store.Memory
	cache  *store.Cache
}

func newFixture(t *testing.T, sq *sqlite.Store) *fixture {
	t.Helper()
	src := store.NewMemory(
		[]generic.EventRecord{
			{OccurredOn: generic.NewDate(2024, time.January, 5), NationalityCategory: "filipina", LocationCategory: "outside_uae"},
			{OccurredOn: generic.NewDate(2024, time.January, 20), NationalityCategory: "filipina", LocationCategory: "outside_uae"},
			{OccurredOn: generic.NewDate(2023, time.January, 10), NationalityCategory: "filipina", LocationCategory: "outside_uae"},
			{OccurredOn: generic.NewDate(2024, time.January, 8), NationalityCategory: "filipina", LocationCategory: "philippines", ActiveVisaFlag: "true"},
			{OccurredOn: generic.NewDate(2024, time.January, 9), NationalityCategory: "filipina", LocationCategory: "philippines", ActiveVisaFlag: "false"},
		},
		[]generic.QuotaRow{
			{NationalityCategory: "filipina", LocationCategory: "outside_uae", QuotaAll: decimal.NewFromInt(10), QuotaActive: decimal.Zero},
			{NationalityCategory: "filipina", LocationCategory: "philippines", QuotaAll: decimal.NewFromInt(6), QuotaActive: decimal.NewFromInt(2)},
		},
	)
	return newFixtureFrom(t, src, sq)
}

func newFixtureFrom(t *testing.T, src *store.Memory, sq *sqlite.Store) *fixture {
	t.Helper()
	var source generic.DataSource = src
	if sq != nil {
		source = sq
	}
	cache := store.NewCache(source, time.Hour)
	svc := tracker.NewService(cache, tracker.DefaultRules())
	svc.Now = func() time.Time { return time.Date(2024, 1, 21, 12, 0, 0, 0, time.UTC) }
	h := NewHandler(svc, cache, sq, zerolog.Nop())
	return &fixture{router: NewRouter(h, nil), source: src, cache: cache}
}

func (f *fixture) do(t *testing.T, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	rec := newFixture(t, nil).do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetDashboard_DefaultSegment(t *testing.T) {
	// GIVEN: no segment parameters
	f := newFixture(t, nil)

	// WHEN
	rec := f.do(t, http.MethodGet, "/api/dashboard", nil)

	// THEN: the default segment is used
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	d := decode[DashboardDTO](t, rec)
	assert.Equal(t, SegmentDTO{Nationality: "filipina", Location: "outside_uae"}, d.Segment)
	assert.Equal(t, "2024-01-21", d.Today)
	require.NotNil(t, d.LatestDay)
	assert.Equal(t, "2024-01-20", *d.LatestDay)
	assert.Equal(t, 310.0, d.Summary.MonthlyQuota)
	assert.Equal(t, 2, d.Summary.Delivered)
	assert.Equal(t, "0.6%", d.Display.PercentDelivered)
	assert.Contains(t, d.Forecast.RequiredAvg, "M")
	require.Len(t, d.Charts, 3)
	assert.Equal(t, "Monthly View", d.Charts[0].Title)
	assert.Nil(t, d.Charts[0].Current[1], "gaps serialize as null")
}

func TestGetDashboard_ActiveOnlySpecialSegment(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/api/dashboard?nationality=filipina&location=philippines&active=yes", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	d := decode[DashboardDTO](t, rec)
	assert.True(t, d.Segment.ActiveOnly)
	assert.Equal(t, 1, d.Summary.Delivered)
	assert.Equal(t, 62.0, d.Summary.MonthlyQuota)
}

func TestGetDashboard_InvalidActive(t *testing.T) {
	rec := newFixture(t, nil).do(t, http.MethodGet, "/api/dashboard?active=maybe", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Contains(t, resp.Details, "invalid segment")
}

func TestGetDashboard_SourceDown(t *testing.T) {
	src := store.NewMemory(nil, nil)
	src.Fail = errors.New("connection refused")

	rec := newFixtureFrom(t, src, nil).do(t, http.MethodGet, "/api/dashboard?nationality=a&location=b", nil)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestListSegments(t *testing.T) {
	rec := newFixture(t, nil).do(t, http.MethodGet, "/api/segments", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	opts := decode[SegmentOptionsDTO](t, rec)
	assert.Equal(t, []string{"filipina"}, opts.Nationalities)
	assert.Equal(t, []string{"outside_uae", "philippines"}, opts.Locations)
	assert.Equal(t, "outside_uae", opts.Default.Location)
}

func TestGetChartPNG(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/api/charts/M.png?width=400&height=200", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"))
}

func TestGetChartPNG_UnknownGranularity(t *testing.T) {
	rec := newFixture(t, nil).do(t, http.MethodGet, "/api/charts/Y.png", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefresh_Refetches(t *testing.T) {
	f := newFixture(t, nil)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/dashboard", nil).Code)

	rec := f.do(t, http.MethodPost, "/api/refresh", nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/dashboard", nil).Code)
	events, _ := f.source.Fetches()
	assert.Equal(t, 2, events)
}

func TestImport_RequiresSQLite(t *testing.T) {
	rec := newFixture(t, nil).do(t, http.MethodPost, "/api/admin/import", []byte(`{"applications":[]}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImport_LoadsRowsAndInvalidates(t *testing.T) {
	// GIVEN: an empty SQLite source
	sq, err := sqlite.New(":memory:")
	require.NoError(t, err)
	defer sq.Close()
	f := newFixture(t, sq)

	before := f.do(t, http.MethodGet, "/api/segments", nil)
	require.Equal(t, http.StatusOK, before.Code)
	assert.Empty(t, decode[SegmentOptionsDTO](t, before).Nationalities)

	// WHEN: rows are imported
	body := []byte(`{
		"applications": [
			{"application_created": "2024-01-05 09:00:00", "nationality": "ethiopian", "location": "outside_uae"},
			{"application_created": "2024-01-06T10:00:00Z", "nationality": "ethiopian", "location": "outside_uae"}
		],
		"quotas": [
			{"nationality": "ethiopian", "location": "outside_uae", "quota_all": "2.5", "quota_active": "0"}
		]
	}`)
	rec := f.do(t, http.MethodPost, "/api/admin/import", body)

	// THEN: the counts are reported and the next read sees the rows
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, ImportResultDTO{Applications: 2, Quotas: 1}, decode[ImportResultDTO](t, rec))

	dash := f.do(t, http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, dash.Code, dash.Body.String())
	d := decode[DashboardDTO](t, dash)
	assert.Equal(t, "ethiopian", d.Segment.Nationality)
	assert.Equal(t, 2, d.Summary.Delivered)
	assert.Equal(t, 77.5, d.Summary.MonthlyQuota)
}

func TestImport_BadBody(t *testing.T) {
	sq, err := sqlite.New(":memory:")
	require.NoError(t, err)
	defer sq.Close()

	rec := newFixture(t, sq).do(t, http.MethodPost, "/api/admin/import", []byte(`{"applications":`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
