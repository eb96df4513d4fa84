/*
errors.go - Centralized error types for the tracker

PURPOSE:
  All error types in one place. The period engine itself almost never fails:
  arithmetic edge cases resolve to zero. Errors come from bad client input
  (an unknown granularity, a malformed key) and from the data sources.

USAGE:
    if errors.Is(err, generic.ErrSourceUnavailable) {
        // warehouse down, serve 502
    }

SEE ALSO:
  - store.go: DataSource and FetchError
  - api/handlers.go: Maps these errors to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUnknownGranularity is returned for anything other than month, week or day.
	ErrUnknownGranularity = errors.New("unknown granularity")

	// ErrInvalidPeriodKey is returned when a label is outside its granularity's key domain.
	ErrInvalidPeriodKey = errors.New("invalid period key")

	// ErrInvalidSegment is returned when a segment selection is incomplete.
	ErrInvalidSegment = errors.New("invalid segment")

	// ErrSourceUnavailable is returned when the events or quotas could not be fetched.
	ErrSourceUnavailable = errors.New("data source unavailable")

	// ErrNoData is returned when there is nothing to render.
	ErrNoData = errors.New("no data")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// FetchError records which source and which table failed.
type FetchError struct {
	Source string // e.g. "sqlite", "warehouse"
	Table  string // "events" or "quotas"
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s from %s: %v", e.Table, e.Source, e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{ErrSourceUnavailable, e.Err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnknownGranularity) ||
		errors.Is(err, ErrInvalidPeriodKey) ||
		errors.Is(err, ErrInvalidSegment)
}

// IsNotFound returns true if there was nothing to show.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNoData)
}
