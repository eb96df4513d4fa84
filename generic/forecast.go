/*
forecast.go - Quota delivery, month-end forecast and required pace

PURPOSE:
  Answers three questions for one segment as of a given day:
  - How much of this month's quota has been delivered?
  - Where will the month end if the current daily rate holds?
  - What average per day/week/month is still needed to hit the annual quota?

KEY INSIGHT:
  The quota is defined per DAY. Every other target is derived from it:

    annual_quota  = daily_quota * days_in_year          (365 or 366)
    monthly_quota = daily_quota * days_in_current_month

  The month-end forecast extrapolates linearly from the days elapsed so far,
  today included:

    forecast = floor(delivered_this_month * days_in_month / days_elapsed)

  The required pace spreads what is left of the annual quota over the days
  left in the year, then scales by a nominal period length (30 for a month,
  7 for a week). The scaling is an approximation and does not look at real
  calendar boundaries.

ZERO DENOMINATORS:
  No quota, no elapsed days, no remaining days: the dependent figure is 0.
  Nothing here returns an error or a NaN. An exhausted quota or the last day
  of the year is a normal state.

SEE ALSO:
  - series.go: Draws the required pace over the future buckets
  - tracker/dashboard.go: Feeds filtered event dates and the segment's quota
*/
package generic

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// QuotaForecast is derived fresh on every recomputation.
type QuotaForecast struct {
	AsOf       time.Time
	DailyQuota decimal.Decimal
	YearLength int

	// Month to date
	DaysElapsed        int // first of month through today, inclusive
	DaysRemaining      int // after today through end of month
	MonthlyQuota       decimal.Decimal
	DeliveredThisMonth int
	PercentDelivered   decimal.Decimal
	ForecastEndOfMonth int
	PercentForecast    decimal.Decimal

	// Year to date
	AnnualQuota         decimal.Decimal
	DeliveredThisYear   int
	RemainingDaysInYear int
	RequiredPerDay      decimal.Decimal
}

// RequiredAvg is the pace needed per period of the given granularity.
func (f QuotaForecast) RequiredAvg(g Granularity) decimal.Decimal {
	return f.RequiredPerDay.Mul(decimal.NewFromInt(g.NominalDays()))
}

// ComputeForecast derives the forecast from the filtered event dates.
func ComputeForecast(dates []time.Time, dailyQuota decimal.Decimal, today time.Time) QuotaForecast {
	today = Truncate(today)
	year, month := today.Year(), today.Month()
	firstOfMonth := StartOfMonth(year, month)
	lastOfMonth := EndOfMonth(year, month)

	f := QuotaForecast{
		AsOf:                today,
		DailyQuota:          dailyQuota,
		YearLength:          DaysInYear(year),
		DaysElapsed:         DaysBetween(firstOfMonth, today) + 1,
		DaysRemaining:       DaysBetween(today, lastOfMonth),
		RemainingDaysInYear: DaysBetween(today, EndOfYear(year)),
	}
	daysInMonth := f.DaysElapsed + f.DaysRemaining

	f.AnnualQuota = dailyQuota.Mul(decimal.NewFromInt(int64(f.YearLength)))
	f.MonthlyQuota = dailyQuota.Mul(decimal.NewFromInt(int64(daysInMonth)))

	for _, d := range dates {
		d = Truncate(d)
		if d.Year() == year {
			f.DeliveredThisYear++
		}
		if !d.Before(firstOfMonth) && !d.After(today) {
			f.DeliveredThisMonth++
		}
	}

	if f.DaysElapsed > 0 {
		f.ForecastEndOfMonth = f.DeliveredThisMonth * daysInMonth / f.DaysElapsed
	}
	f.PercentDelivered = percentOf(f.DeliveredThisMonth, f.MonthlyQuota)
	f.PercentForecast = percentOf(f.ForecastEndOfMonth, f.MonthlyQuota)

	f.RequiredPerDay = decimal.Zero
	if f.RemainingDaysInYear > 0 {
		left := f.AnnualQuota.Sub(decimal.NewFromInt(int64(f.DeliveredThisYear)))
		f.RequiredPerDay = left.Div(decimal.NewFromInt(int64(f.RemainingDaysInYear)))
	}
	return f
}

func percentOf(n int, of decimal.Decimal) decimal.Decimal {
	if !of.IsPositive() {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(n)).Div(of).Mul(hundred)
}
