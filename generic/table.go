/*
table.go - Period buckets for a current year vs. prior year comparison

PURPOSE:
  Turns raw event dates into a two-column table of counts keyed by PeriodKey,
  then hides current-year buckets that cannot have been observed yet and puts
  the rows in display order.

PIPELINE:
  Bucket -> Mask -> Order

  Bucket: count events per (PeriodKey, year) for the two compared years.
  Mask:   drop current-year counts for buckets after "today".
  Order:  calendar order for months, numeric for weeks, month*100+day for days.

ABSENT vs ZERO:
  A (key, year) cell with no count is ABSENT, never zero. Absent cells render
  as gaps. A zero would read as a collapse in deliveries, which is wrong for a
  period that has not happened yet.

SEE ALSO:
  - period.go: PeriodKey and the per-granularity strategy table
  - series.go: Builds chart series from an ordered table
*/
package generic

import (
	"sort"
	"time"
)

// Table holds per-year counts for one granularity. Each step returns a new
// Table; none modifies its input.
type Table struct {
	Granularity Granularity
	CurrentYear int
	PriorYear   int

	// Keys are the table rows: every key seen in either year plus the fixed domain.
	Keys []PeriodKey

	counts  map[int]map[PeriodKey]int
	columns map[int]bool
}

// Count returns the count of a cell and whether the cell is present.
func (t *Table) Count(year int, k PeriodKey) (int, bool) {
	n, ok := t.counts[year][k]
	return n, ok
}

// HasYear reports whether any event of the year reached the table. A year
// keeps its column after masking even when every cell was masked.
func (t *Table) HasYear(year int) bool {
	return t.columns[year]
}

// Total sums the present cells of a year.
func (t *Table) Total(year int) int {
	total := 0
	for _, n := range t.counts[year] {
		total += n
	}
	return total
}

func (t *Table) clone() *Table {
	out := &Table{
		Granularity: t.Granularity,
		CurrentYear: t.CurrentYear,
		PriorYear:   t.PriorYear,
		Keys:        append([]PeriodKey(nil), t.Keys...),
		counts:      make(map[int]map[PeriodKey]int, len(t.counts)),
		columns:     make(map[int]bool, len(t.columns)),
	}
	for year, cells := range t.counts {
		c := make(map[PeriodKey]int, len(cells))
		for k, n := range cells {
			c[k] = n
		}
		out.counts[year] = c
	}
	for year, ok := range t.columns {
		out.columns[year] = ok
	}
	return out
}

// =============================================================================
// BUCKET
// =============================================================================

// Bucket counts dates per period key for the two compared years. Dates in any
// other year are ignored. Month tables always carry all twelve months.
func Bucket(dates []time.Time, g Granularity, currentYear, priorYear int) (*Table, error) {
	s, err := strategyFor(g)
	if err != nil {
		return nil, err
	}

	t := &Table{
		Granularity: g,
		CurrentYear: currentYear,
		PriorYear:   priorYear,
		counts:      map[int]map[PeriodKey]int{currentYear: {}, priorYear: {}},
		columns:     map[int]bool{},
	}

	seen := make(map[PeriodKey]bool)
	for _, k := range s.domain() {
		seen[k] = true
		t.Keys = append(t.Keys, k)
	}

	for _, d := range dates {
		year := d.Year()
		if year != currentYear && year != priorYear {
			continue
		}
		k := s.derive(d)
		t.counts[year][k]++
		t.columns[year] = true
		if !seen[k] {
			seen[k] = true
			t.Keys = append(t.Keys, k)
		}
	}
	return t, nil
}

// =============================================================================
// MASK
// =============================================================================

// Mask removes current-year counts for buckets that lie after today. dates must
// be the same dates the table was bucketed from; the day rule only keeps days
// that have a current-year row dated on or before today.
//
// Only the current-year column is touched, and only when it exists.
func Mask(t *Table, dates []time.Time, today time.Time) (*Table, error) {
	s, err := strategyFor(t.Granularity)
	if err != nil {
		return nil, err
	}
	out := t.clone()
	if !out.HasYear(out.CurrentYear) {
		return out, nil
	}

	in := maskInput{today: Truncate(today), observed: make(map[PeriodKey]bool)}
	if t.Granularity == GranularityDay {
		for _, d := range dates {
			if d.Year() == out.CurrentYear && !Truncate(d).After(in.today) {
				in.observed[s.derive(d)] = true
			}
		}
	}

	current := out.counts[out.CurrentYear]
	for _, k := range out.Keys {
		if s.masked(k, in) {
			delete(current, k)
		}
	}
	return out, nil
}

// =============================================================================
// ORDER
// =============================================================================

// Order sorts the rows chronologically within a year.
func Order(t *Table) *Table {
	out := t.clone()
	sort.SliceStable(out.Keys, func(i, j int) bool {
		return out.Keys[i].SortKey() < out.Keys[j].SortKey()
	})
	return out
}

// SortKeys orders a loose slice of keys the same way Order does.
func SortKeys(keys []PeriodKey) []PeriodKey {
	out := append([]PeriodKey(nil), keys...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortKey() < out[j].SortKey() })
	return out
}
