/*
dashboard.go - One full recomputation for one segment

PURPOSE:
  Runs the whole derivation for a segment selection, start to finish:

    snapshot -> Filter -> QuotaFor -> ComputeForecast
             -> for each granularity: Bucket -> Mask -> Order -> Assemble

  Every call starts from the snapshot and derives everything again. Nothing
  is kept between calls, so the same snapshot, segment and day always give
  the same Dashboard.

YEARS:
  The current year is today's year and the prior year is the one before it.
  Only those two years ever reach the charts.

SEE ALSO:
  - filter.go: Segment rules
  - generic/table.go, generic/series.go: Period engine
*/
package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/warp/quota-tracker/generic"
)

// Build derives the dashboard of a segment from a snapshot.
func Build(snap *generic.Snapshot, seg generic.Segment, today time.Time, rules Rules) (*Dashboard, error) {
	if snap == nil {
		return nil, fmt.Errorf("%w: nil snapshot", generic.ErrNoData)
	}
	today = generic.Truncate(today)

	events := Filter(snap.Events, seg, rules)
	dates := generic.Dates(events)
	dailyQuota := QuotaFor(snap.Quotas, seg)
	forecast := generic.ComputeForecast(dates, dailyQuota, today)

	d := &Dashboard{
		Segment:    seg,
		Today:      today,
		SnapshotID: snap.ID,
		DailyQuota: dailyQuota,
		Forecast:   forecast,
		Summary: Summary{
			MonthlyQuota:     forecast.MonthlyQuota,
			Delivered:        forecast.DeliveredThisMonth,
			PercentDelivered: forecast.PercentDelivered,
			Forecast:         forecast.ForecastEndOfMonth,
			PercentForecast:  forecast.PercentForecast,
		},
		LatestDay: latest(dates),
	}
	d.Display = FormatSummary(d.Summary)

	currentYear := today.Year()
	for _, g := range generic.Granularities {
		chart, err := BuildChart(dates, g, currentYear, today, forecast)
		if err != nil {
			return nil, err
		}
		d.Charts = append(d.Charts, chart)
	}
	return d, nil
}

// BuildChart runs bucket, mask, order and assemble for one granularity.
func BuildChart(dates []time.Time, g generic.Granularity, currentYear int, today time.Time, f generic.QuotaForecast) (generic.ChartSpec, error) {
	t, err := generic.Bucket(dates, g, currentYear, currentYear-1)
	if err != nil {
		return generic.ChartSpec{}, err
	}
	t, err = generic.Mask(t, dates, today)
	if err != nil {
		return generic.ChartSpec{}, err
	}
	return generic.Assemble(generic.Order(t), f.RequiredAvg(g), today)
}

func latest(dates []time.Time) *time.Time {
	var max time.Time
	for _, d := range dates {
		if d.After(max) {
			max = d
		}
	}
	if max.IsZero() {
		return nil
	}
	return &max
}

// =============================================================================
// SERVICE - Binds a snapshot source, the rules and a clock
// =============================================================================

type Service struct {
	Source generic.SnapshotSource
	Rules  Rules
	// Now defaults to time.Now.
	Now func() time.Time
}

func NewService(source generic.SnapshotSource, rules Rules) *Service {
	return &Service{Source: source, Rules: rules, Now: time.Now}
}

func (s *Service) today() time.Time {
	if s.Now == nil {
		return generic.Today()
	}
	return generic.Truncate(s.Now().UTC())
}

// Dashboard derives the dashboard for seg as of today.
func (s *Service) Dashboard(ctx context.Context, seg generic.Segment) (*Dashboard, error) {
	snap, err := s.Source.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return Build(snap, seg, s.today(), s.Rules)
}

// Options lists the selectable segment values and the default selection.
func (s *Service) Options(ctx context.Context) (SegmentOptions, error) {
	snap, err := s.Source.Snapshot(ctx)
	if err != nil {
		return SegmentOptions{}, err
	}
	return Options(snap.Events, s.Rules), nil
}

// Resolve fills an incomplete selection from the defaults.
func (s *Service) Resolve(ctx context.Context, seg generic.Segment) (generic.Segment, error) {
	if seg.Nationality != "" && seg.Location != "" {
		return seg, nil
	}
	opts, err := s.Options(ctx)
	if err != nil {
		return generic.Segment{}, err
	}
	if seg.Nationality == "" {
		seg.Nationality = opts.Default.Nationality
	}
	if seg.Location == "" {
		seg.Location = opts.Default.Location
	}
	if seg.Nationality == "" || seg.Location == "" {
		return generic.Segment{}, fmt.Errorf("%w: no nationality or location to default to", generic.ErrInvalidSegment)
	}
	return seg, nil
}
