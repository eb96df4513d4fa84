package generic

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// GRANULARITY - The three fixed period sizes a chart can be drawn at
// =============================================================================

type Granularity string

const (
	GranularityMonth Granularity = "M"
	GranularityWeek  Granularity = "W"
	GranularityDay   Granularity = "D"
)

// Granularities lists every supported granularity in display order.
var Granularities = []Granularity{GranularityMonth, GranularityWeek, GranularityDay}

// ParseGranularity accepts the short codes and the long names, case-insensitively.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "month", "monthly":
		return GranularityMonth, nil
	case "w", "week", "weekly":
		return GranularityWeek, nil
	case "d", "day", "daily":
		return GranularityDay, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownGranularity, s)
}

// Title is the chart heading for the granularity.
func (g Granularity) Title() string {
	switch g {
	case GranularityMonth:
		return "Monthly View"
	case GranularityWeek:
		return "Weekly View"
	case GranularityDay:
		return "Daily View"
	}
	return string(g)
}

// NominalDays is the period length used to scale a daily pace. It is an
// approximation: a month always counts as 30 days.
func (g Granularity) NominalDays() int64 {
	switch g {
	case GranularityMonth:
		return 30
	case GranularityWeek:
		return 7
	}
	return 1
}

// =============================================================================
// PERIOD KEY - Bucket identity within a granularity
// =============================================================================

// PeriodKey identifies one bucket. Only the fields relevant to its granularity are set:
//   - Month: Month
//   - Week:  Week (ISO week number)
//   - Day:   Month and Day
//
// Keys of different granularities are never compared with each other.
type PeriodKey struct {
	Granularity Granularity
	Month       time.Month
	Week        int
	Day         int
}

func MonthKey(m time.Month) PeriodKey { return PeriodKey{Granularity: GranularityMonth, Month: m} }
func WeekKey(w int) PeriodKey         { return PeriodKey{Granularity: GranularityWeek, Week: w} }
func DayKey(m time.Month, d int) PeriodKey {
	return PeriodKey{Granularity: GranularityDay, Month: m, Day: d}
}

// Label is the axis label: "Jan", "11", "05/01".
func (k PeriodKey) Label() string {
	switch k.Granularity {
	case GranularityMonth:
		return k.Month.String()[:3]
	case GranularityWeek:
		return strconv.Itoa(k.Week)
	case GranularityDay:
		return fmt.Sprintf("%02d/%02d", k.Day, int(k.Month))
	}
	return ""
}

func (k PeriodKey) String() string { return k.Label() }

// SortKey orders keys of one granularity chronologically within a year.
// Day keys use month*100+day so "01/02" sorts after "20/01".
func (k PeriodKey) SortKey() int {
	switch k.Granularity {
	case GranularityMonth:
		return int(k.Month)
	case GranularityWeek:
		return k.Week
	case GranularityDay:
		return int(k.Month)*100 + k.Day
	}
	return 0
}

// Valid reports whether the key belongs to its granularity's key domain.
func (k PeriodKey) Valid() bool {
	switch k.Granularity {
	case GranularityMonth:
		return k.Month >= time.January && k.Month <= time.December
	case GranularityWeek:
		return k.Week >= 1 && k.Week <= 53
	case GranularityDay:
		if k.Month < time.January || k.Month > time.December || k.Day < 1 {
			return false
		}
		// 2000 is a leap year, so 29/02 is in the domain.
		return k.Day <= EndOfMonth(2000, k.Month).Day()
	}
	return false
}

// DateIn places a day key in a calendar year. It fails for keys that do not
// exist in that year, such as 29/02 outside leap years.
func (k PeriodKey) DateIn(year int) (time.Time, bool) {
	if k.Granularity != GranularityDay || !k.Valid() {
		return time.Time{}, false
	}
	if k.Day > EndOfMonth(year, k.Month).Day() {
		return time.Time{}, false
	}
	return NewDate(year, k.Month, k.Day), true
}

// ParsePeriodKey is the inverse of Label.
func ParsePeriodKey(g Granularity, label string) (PeriodKey, error) {
	label = strings.TrimSpace(label)
	var key PeriodKey
	switch g {
	case GranularityMonth:
		for m := time.January; m <= time.December; m++ {
			if strings.EqualFold(m.String()[:3], label) {
				return MonthKey(m), nil
			}
		}
		return PeriodKey{}, fmt.Errorf("%w: month %q", ErrInvalidPeriodKey, label)
	case GranularityWeek:
		w, err := strconv.Atoi(label)
		if err != nil {
			return PeriodKey{}, fmt.Errorf("%w: week %q", ErrInvalidPeriodKey, label)
		}
		key = WeekKey(w)
	case GranularityDay:
		dd, mm, ok := strings.Cut(label, "/")
		d, errD := strconv.Atoi(dd)
		m, errM := strconv.Atoi(mm)
		if !ok || errD != nil || errM != nil {
			return PeriodKey{}, fmt.Errorf("%w: day %q", ErrInvalidPeriodKey, label)
		}
		key = DayKey(time.Month(m), d)
	default:
		return PeriodKey{}, fmt.Errorf("%w: %q", ErrUnknownGranularity, g)
	}
	if !key.Valid() {
		return PeriodKey{}, fmt.Errorf("%w: %q", ErrInvalidPeriodKey, label)
	}
	return key, nil
}

// =============================================================================
// STRATEGY TABLE - Per-granularity derivation, domain and masking rules
// =============================================================================

// maskInput is what the masking predicates may look at.
type maskInput struct {
	today time.Time
	// observed holds current-year day keys that have a row dated on or before today.
	observed map[PeriodKey]bool
}

type periodStrategy struct {
	// derive maps an event date to its bucket.
	derive func(d time.Time) PeriodKey
	// domain returns keys that always appear as rows, observed or not.
	domain func() []PeriodKey
	// masked reports whether a current-year bucket is not yet observable.
	masked func(k PeriodKey, in maskInput) bool
	// future reports whether the required-pace line covers the key.
	future func(k PeriodKey, t *Table, today time.Time) bool
}

var strategies = map[Granularity]periodStrategy{
	GranularityMonth: {
		derive: func(d time.Time) PeriodKey { return MonthKey(d.Month()) },
		domain: func() []PeriodKey {
			keys := make([]PeriodKey, 0, 12)
			for m := time.January; m <= time.December; m++ {
				keys = append(keys, MonthKey(m))
			}
			return keys
		},
		// The current month stays, everything after it is masked.
		masked: func(k PeriodKey, in maskInput) bool { return k.Month > in.today.Month() },
		future: absentInCurrentYear,
	},
	GranularityWeek: {
		derive: func(d time.Time) PeriodKey { return WeekKey(ISOWeek(d)) },
		domain: func() []PeriodKey { return nil },
		masked: func(k PeriodKey, in maskInput) bool { return k.Week > ISOWeek(in.today) },
		future: absentInCurrentYear,
	},
	GranularityDay: {
		derive: func(d time.Time) PeriodKey { return DayKey(d.Month(), d.Day()) },
		domain: func() []PeriodKey { return nil },
		masked: func(k PeriodKey, in maskInput) bool { return !in.observed[k] },
		future: dayOnOrAfterTomorrow,
	},
}

func strategyFor(g Granularity) (periodStrategy, error) {
	s, ok := strategies[g]
	if !ok {
		return periodStrategy{}, fmt.Errorf("%w: %q", ErrUnknownGranularity, g)
	}
	return s, nil
}

// absentInCurrentYear treats every current-year bucket without a count as future,
// including past buckets that simply had no events.
func absentInCurrentYear(k PeriodKey, t *Table, _ time.Time) bool {
	_, ok := t.Count(t.CurrentYear, k)
	return !ok
}

// dayOnOrAfterTomorrow decides by date arithmetic, not by the mask: a sparse past
// day without rows is not future, and a key that does not exist this year is skipped.
func dayOnOrAfterTomorrow(k PeriodKey, t *Table, today time.Time) bool {
	d, ok := k.DateIn(t.CurrentYear)
	if !ok {
		return false
	}
	return !d.Before(Truncate(today).AddDate(0, 0, 1))
}
