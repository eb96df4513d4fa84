/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON contract with the dashboard front end. Internal types keep
  decimals and time.Time; DTOs carry plain numbers and YYYY-MM-DD strings.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

NULLS:
  Series entries are pointers. A null in "prior" or "current" is a gap, a
  period with no data, and must never be drawn as zero. "required" is null
  everywhere outside the future keys.

SEE ALSO:
  - handlers.go: Uses these types
  - generic/series.go: ChartSpec
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/warp/quota-tracker/generic"
	"github.com/warp/quota-tracker/tracker"
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

type SegmentDTO struct {
	Nationality string `json:"nationality"`
	Location    string `json:"location"`
	ActiveOnly  bool   `json:"active_only"`
}

type SegmentOptionsDTO struct {
	Nationalities []string   `json:"nationalities"`
	Locations     []string   `json:"locations"`
	Default       SegmentDTO `json:"default"`
}

// SummaryDTO is the five-field monthly record as raw numbers.
type SummaryDTO struct {
	MonthlyQuota     float64 `json:"monthly_quota"`
	Delivered        int     `json:"delivered"`
	PercentDelivered float64 `json:"percent_delivered"`
	Forecast         int     `json:"forecast"`
	PercentForecast  float64 `json:"percent_forecast"`
}

// SummaryDisplayDTO uses the column headings of the KPI table as keys.
type SummaryDisplayDTO struct {
	MonthlyQuota     string `json:"Monthly Quota"`
	Delivered        string `json:"Delivered"`
	PercentDelivered string `json:"%D"`
	Forecast         string `json:"Forecast"`
	PercentForecast  string `json:"%F"`
}

type ForecastDTO struct {
	DailyQuota          float64            `json:"daily_quota"`
	YearLength          int                `json:"year_length"`
	AnnualQuota         float64            `json:"annual_quota"`
	DaysElapsed         int                `json:"days_elapsed"`
	DaysRemaining       int                `json:"days_remaining"`
	MonthlyQuota        float64            `json:"monthly_quota"`
	DeliveredThisMonth  int                `json:"delivered_this_month"`
	PercentDelivered    float64            `json:"percent_delivered"`
	ForecastEndOfMonth  int                `json:"forecast_end_of_month"`
	PercentForecast     float64            `json:"percent_forecast"`
	DeliveredThisYear   int                `json:"delivered_this_year"`
	RemainingDaysInYear int                `json:"remaining_days_in_year"`
	RequiredAvg         map[string]float64 `json:"required_avg"`
}

type ChartDTO struct {
	Granularity   string     `json:"granularity"`
	Title         string     `json:"title"`
	YAxisTitle    string     `json:"y_axis_title"`
	CurrentYear   int        `json:"current_year"`
	PriorYear     int        `json:"prior_year"`
	Labels        []string   `json:"labels"`
	TickLabels    []string   `json:"tick_labels"`
	Prior         []*int     `json:"prior"`
	Current       []*int     `json:"current"`
	Required      []*float64 `json:"required"`
	RequiredValue float64    `json:"required_value"`
}

type DashboardDTO struct {
	Segment    SegmentDTO        `json:"segment"`
	Today      string            `json:"today"`
	SnapshotID string            `json:"snapshot_id"`
	LatestDay  *string           `json:"latest_day"`
	Summary    SummaryDTO        `json:"summary"`
	Display    SummaryDisplayDTO `json:"display"`
	Forecast   ForecastDTO       `json:"forecast"`
	Charts     []ChartDTO        `json:"charts"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

type ApplicationRequest struct {
	ApplicationCreated string `json:"application_created"`
	Nationality        string `json:"nationality"`
	Location           string `json:"location"`
	ActiveVisaStatus   string `json:"active_visa_status"`
}

type QuotaRequest struct {
	Nationality string          `json:"nationality"`
	Location    string          `json:"location"`
	QuotaAll    decimal.Decimal `json:"quota_all"`
	QuotaActive decimal.Decimal `json:"quota_active"`
}

// ImportRequest appends applications and, when Quotas is non-nil, replaces the quota table.
type ImportRequest struct {
	Applications []ApplicationRequest `json:"applications"`
	Quotas       []QuotaRequest       `json:"quotas"`
}

type ImportResultDTO struct {
	Applications int `json:"applications"`
	Quotas       int `json:"quotas"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toSegmentDTO(s generic.Segment) SegmentDTO {
	return SegmentDTO{Nationality: s.Nationality, Location: s.Location, ActiveOnly: s.ActiveOnly}
}

func num(d decimal.Decimal) float64 {
	return d.Round(4).InexactFloat64()
}

func toDashboardDTO(d *tracker.Dashboard) DashboardDTO {
	dto := DashboardDTO{
		Segment:    toSegmentDTO(d.Segment),
		Today:      d.Today.Format(generic.DateLayout),
		SnapshotID: d.SnapshotID,
		Summary: SummaryDTO{
			MonthlyQuota:     num(d.Summary.MonthlyQuota),
			Delivered:        d.Summary.Delivered,
			PercentDelivered: num(d.Summary.PercentDelivered),
			Forecast:         d.Summary.Forecast,
			PercentForecast:  num(d.Summary.PercentForecast),
		},
		Display: SummaryDisplayDTO{
			MonthlyQuota:     d.Display.MonthlyQuota,
			Delivered:        d.Display.Delivered,
			PercentDelivered: d.Display.PercentDelivered,
			Forecast:         d.Display.Forecast,
			PercentForecast:  d.Display.PercentForecast,
		},
		Forecast: toForecastDTO(d.Forecast),
		Charts:   make([]ChartDTO, 0, len(d.Charts)),
	}
	if d.LatestDay != nil {
		s := d.LatestDay.Format(generic.DateLayout)
		dto.LatestDay = &s
	}
	for _, c := range d.Charts {
		dto.Charts = append(dto.Charts, toChartDTO(c))
	}
	return dto
}

func toForecastDTO(f generic.QuotaForecast) ForecastDTO {
	dto := ForecastDTO{
		DailyQuota:          num(f.DailyQuota),
		YearLength:          f.YearLength,
		AnnualQuota:         num(f.AnnualQuota),
		DaysElapsed:         f.DaysElapsed,
		DaysRemaining:       f.DaysRemaining,
		MonthlyQuota:        num(f.MonthlyQuota),
		DeliveredThisMonth:  f.DeliveredThisMonth,
		PercentDelivered:    num(f.PercentDelivered),
		ForecastEndOfMonth:  f.ForecastEndOfMonth,
		PercentForecast:     num(f.PercentForecast),
		DeliveredThisYear:   f.DeliveredThisYear,
		RemainingDaysInYear: f.RemainingDaysInYear,
		RequiredAvg:         make(map[string]float64, len(generic.Granularities)),
	}
	for _, g := range generic.Granularities {
		dto.RequiredAvg[string(g)] = num(f.RequiredAvg(g))
	}
	return dto
}

func toChartDTO(c generic.ChartSpec) ChartDTO {
	dto := ChartDTO{
		Granularity:   string(c.Granularity),
		Title:         c.Title,
		YAxisTitle:    c.YAxisTitle,
		CurrentYear:   c.CurrentYear,
		PriorYear:     c.PriorYear,
		Labels:        c.Labels,
		TickLabels:    c.TickLabels,
		Prior:         c.Prior,
		Current:       c.Current,
		RequiredValue: num(c.Required),
	}
	if c.HasRequired() {
		dto.Required = c.RequiredSeries()
	}
	return dto
}
