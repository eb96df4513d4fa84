// Package tracker implements the application-quota tracker on top of the
// generic period engine. It owns the segment rules: which events count for a
// segment, which quota applies and which segment is selected by default.
package tracker

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/quota-tracker/generic"
)

// =============================================================================
// RULES - Segment-specific behaviour, configurable per deployment
// =============================================================================

// Rules names the segment values with special meaning. Comparisons against
// the special pair are case-insensitive.
type Rules struct {
	// Active-visa data only exists for this one segment.
	SpecialNationality string
	SpecialLocation    string
	// TrueMarker is the stored value of an active visa flag.
	TrueMarker string

	// Preferred selection when present in the data.
	DefaultNationality string
	DefaultLocation    string
}

func DefaultRules() Rules {
	return Rules{
		SpecialNationality: "filipina",
		SpecialLocation:    "philippines",
		TrueMarker:         "true",
		DefaultNationality: "filipina",
		DefaultLocation:    "outside_uae",
	}
}

// =============================================================================
// DASHBOARD - One full derivation for one segment
// =============================================================================

// Summary is the five-field monthly record, as raw numbers.
type Summary struct {
	MonthlyQuota     decimal.Decimal
	Delivered        int
	PercentDelivered decimal.Decimal
	Forecast         int
	PercentForecast  decimal.Decimal
}

// SummaryDisplay is Summary formatted for people.
type SummaryDisplay struct {
	MonthlyQuota     string
	Delivered        string
	PercentDelivered string
	Forecast         string
	PercentForecast  string
}

// SegmentOptions are the distinct values the selector may offer.
type SegmentOptions struct {
	Nationalities []string
	Locations     []string
	Default       generic.Segment
}

type Dashboard struct {
	Segment    generic.Segment
	Today      time.Time
	SnapshotID string

	DailyQuota decimal.Decimal
	Forecast   generic.QuotaForecast
	Summary    Summary
	Display    SummaryDisplay

	// LatestDay is the newest event date of the segment, nil without events.
	LatestDay *time.Time

	// Charts holds one chart per granularity, in generic.Granularities order.
	Charts []generic.ChartSpec
}

// Chart returns the chart of one granularity.
func (d *Dashboard) Chart(g generic.Granularity) (generic.ChartSpec, bool) {
	for _, c := range d.Charts {
		if c.Granularity == g {
			return c, true
		}
	}
	return generic.ChartSpec{}, false
}
