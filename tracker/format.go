package tracker

import (
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// FormatSummary renders counts with thousands separators and percentages
// with one decimal, e.g. "1,234" and "64.5%".
func FormatSummary(s Summary) SummaryDisplay {
	return SummaryDisplay{
		MonthlyQuota:     FormatCount(s.MonthlyQuota),
		Delivered:        humanize.Comma(int64(s.Delivered)),
		PercentDelivered: FormatPercent(s.PercentDelivered),
		Forecast:         humanize.Comma(int64(s.Forecast)),
		PercentForecast:  FormatPercent(s.PercentForecast),
	}
}

// FormatCount rounds to a whole number and groups thousands.
func FormatCount(d decimal.Decimal) string {
	return humanize.Comma(d.Round(0).IntPart())
}

func FormatPercent(d decimal.Decimal) string {
	return d.StringFixed(1) + "%"
}
