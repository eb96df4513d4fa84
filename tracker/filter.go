package tracker

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/quota-tracker/generic"
)

// =============================================================================
// SEGMENT FILTER
// =============================================================================

// Filter keeps the events of a segment. Nationality and location must match
// exactly as stored. ActiveOnly narrows to flagged events only for the special
// segment; every other segment ignores it.
func Filter(events []generic.EventRecord, seg generic.Segment, rules Rules) []generic.EventRecord {
	activeOnly := seg.ActiveOnly && rules.isSpecial(seg)

	var out []generic.EventRecord
	for _, e := range events {
		if e.NationalityCategory != seg.Nationality || e.LocationCategory != seg.Location {
			continue
		}
		if activeOnly && e.ActiveVisaFlag != rules.TrueMarker {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (r Rules) isSpecial(seg generic.Segment) bool {
	return strings.EqualFold(seg.Nationality, r.SpecialNationality) &&
		strings.EqualFold(seg.Location, r.SpecialLocation)
}

// QuotaFor returns the segment's daily quota: the active-visa figure when
// ActiveOnly is set, the overall figure otherwise. A segment without a quota
// row has a quota of zero.
func QuotaFor(quotas []generic.QuotaRow, seg generic.Segment) decimal.Decimal {
	for _, q := range quotas {
		if q.NationalityCategory != seg.Nationality || q.LocationCategory != seg.Location {
			continue
		}
		if seg.ActiveOnly {
			return q.QuotaActive
		}
		return q.QuotaAll
	}
	return decimal.Zero
}

// =============================================================================
// SEGMENT OPTIONS AND DEFAULTS
// =============================================================================

// Options lists the distinct non-empty nationalities and locations, sorted.
func Options(events []generic.EventRecord, rules Rules) SegmentOptions {
	nats := make(map[string]bool)
	locs := make(map[string]bool)
	for _, e := range events {
		if e.NationalityCategory != "" {
			nats[e.NationalityCategory] = true
		}
		if e.LocationCategory != "" {
			locs[e.LocationCategory] = true
		}
	}
	opts := SegmentOptions{Nationalities: sortedKeys(nats), Locations: sortedKeys(locs)}
	opts.Default = generic.Segment{
		Nationality: pick(opts.Nationalities, rules.DefaultNationality),
		Location:    pick(opts.Locations, rules.DefaultLocation),
	}
	return opts
}

// DefaultSegment is the selection shown before the user picks anything.
func DefaultSegment(events []generic.EventRecord, rules Rules) generic.Segment {
	return Options(events, rules).Default
}

func pick(sorted []string, preferred string) string {
	for _, v := range sorted {
		if v == preferred {
			return v
		}
	}
	if len(sorted) == 0 {
		return ""
	}
	return sorted[0]
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
