/*
Package generic provides the period engine behind the quota tracker.

PURPOSE:
  This package knows nothing about nationalities, visas or dashboards. It
  takes event dates and a daily quota and produces period tables, forecasts
  and chart series. Domain rules (which events count for which segment) live
  in the tracker package.

KEY CONCEPTS IN THIS FILE (types.go):
  - EventRecord: One application, as loaded from the data source
  - QuotaRow:    Daily quota figures for one (nationality, location) pair
  - Segment:     The active filter selection

DESIGN PRINCIPLES:
  1. Snapshots: Records are read-only once loaded; every recomputation starts
     from the same snapshot and derives everything again
  2. Precision: Quotas use decimal.Decimal so quota * days is exact
  3. Purity: Every engine function takes "today" as an argument

SEE ALSO:
  - period.go:   Granularity and PeriodKey
  - table.go:    Bucket, Mask, Order
  - forecast.go: Quota forecast
  - series.go:   Chart series
*/
package generic

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RECORDS - As produced by a DataSource
// =============================================================================

// EventRecord is one application. Records without a parseable date never
// leave the data source.
type EventRecord struct {
	OccurredOn          time.Time
	NationalityCategory string
	LocationCategory    string
	ActiveVisaFlag      string
}

// QuotaRow carries daily quotas for one segment, keyed by (nationality, location).
type QuotaRow struct {
	NationalityCategory string
	LocationCategory    string
	QuotaAll            decimal.Decimal // regardless of active visas
	QuotaActive         decimal.Decimal // considering active visas
}

// =============================================================================
// SEGMENT - The filter selection
// =============================================================================

type Segment struct {
	Nationality string
	Location    string
	ActiveOnly  bool
}

func (s Segment) String() string {
	mode := "all"
	if s.ActiveOnly {
		mode = "active"
	}
	return s.Nationality + "/" + s.Location + "/" + mode
}

// Dates extracts the event dates, in input order.
func Dates(events []EventRecord) []time.Time {
	out := make([]time.Time, len(events))
	for i, e := range events {
		out[i] = e.OccurredOn
	}
	return out
}
