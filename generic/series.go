package generic

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CHART SPEC - Display-ready series handed to the chart renderer
// =============================================================================

// ChartSpec holds three series aligned on Labels:
//   - Prior:   prior-year counts, drawn muted and dashed
//   - Current: current-year counts with masked buckets left as gaps
//   - Future:  where the required-pace line is drawn, at height Required
//
// A nil entry in Prior or Current is a gap, never zero.
type ChartSpec struct {
	Granularity Granularity
	Title       string
	YAxisTitle  string
	CurrentYear int
	PriorYear   int

	Keys       []PeriodKey
	Labels     []string
	TickLabels []string

	HasPrior   bool
	HasCurrent bool
	Prior      []*int
	Current    []*int

	Future   []bool
	Required decimal.Decimal
}

// HasRequired reports whether any key carries the required-pace line.
func (c ChartSpec) HasRequired() bool {
	for _, f := range c.Future {
		if f {
			return true
		}
	}
	return false
}

// RequiredSeries returns the required pace aligned on Labels, nil outside the future keys.
func (c ChartSpec) RequiredSeries() []*float64 {
	out := make([]*float64, len(c.Future))
	v := c.Required.InexactFloat64()
	for i, f := range c.Future {
		if f {
			x := v
			out[i] = &x
		}
	}
	return out
}

// Assemble builds the chart for an ordered, masked table.
//
// "Future" has two definitions on purpose. Month and week charts treat every
// current-year bucket without a count as future. Day charts instead parse each
// key as a date in the current year and keep keys on or after tomorrow, so a
// past day without rows never gets the line. When the current year has no
// column at all, neither the current series nor the required line is drawn.
func Assemble(t *Table, required decimal.Decimal, today time.Time) (ChartSpec, error) {
	s, err := strategyFor(t.Granularity)
	if err != nil {
		return ChartSpec{}, err
	}

	c := ChartSpec{
		Granularity: t.Granularity,
		Title:       t.Granularity.Title(),
		YAxisTitle:  "Applications",
		CurrentYear: t.CurrentYear,
		PriorYear:   t.PriorYear,
		Keys:        append([]PeriodKey(nil), t.Keys...),
		Labels:      make([]string, len(t.Keys)),
		HasPrior:    t.HasYear(t.PriorYear),
		HasCurrent:  t.HasYear(t.CurrentYear),
		Prior:       make([]*int, len(t.Keys)),
		Current:     make([]*int, len(t.Keys)),
		Future:      make([]bool, len(t.Keys)),
		Required:    required,
	}

	for i, k := range t.Keys {
		c.Labels[i] = k.Label()
		if n, ok := t.Count(t.PriorYear, k); ok && c.HasPrior {
			c.Prior[i] = intPtr(n)
		}
		if !c.HasCurrent {
			continue
		}
		if n, ok := t.Count(t.CurrentYear, k); ok {
			c.Current[i] = intPtr(n)
		}
		c.Future[i] = s.future(k, t, today)
	}

	c.TickLabels = tickLabels(t.Granularity, c.Labels)
	return c, nil
}

// tickLabels thins the day axis to first-of-month markers.
func tickLabels(g Granularity, labels []string) []string {
	if g != GranularityDay {
		return append([]string(nil), labels...)
	}
	var ticks []string
	for _, l := range labels {
		if strings.HasPrefix(l, "01/") {
			ticks = append(ticks, l)
		}
	}
	return ticks
}

func intPtr(n int) *int { return &n }
