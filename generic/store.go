/*
store.go - Read interface to the data sources

PURPOSE:
  The tracker reads two tables and never writes them: application events and
  daily quotas. DataSource is that narrow read interface, so the warehouse,
  a local SQLite file and an in-memory fixture are interchangeable.

IMPLEMENTATIONS:
  - store/warehouse: Analytical warehouse over pgx
  - store/sqlite:    Local SQLite file, with import
  - generic/store:   Memory (fixture) and Cache (TTL snapshot wrapper)

IDEMPOTENCY:
  Both fetches are side-effect-free reads. Calling them twice returns the same
  rows unless the underlying table changed.

SEE ALSO:
  - generic/store/cache.go: Reuses one snapshot for a fixed time-to-live
*/
package generic

import (
	"context"
	"time"
)

// DataSource fetches the raw tables.
type DataSource interface {
	// FetchEvents returns every application with a valid date.
	FetchEvents(ctx context.Context) ([]EventRecord, error)

	// FetchQuotas returns one row per (nationality, location).
	FetchQuotas(ctx context.Context) ([]QuotaRow, error)
}

// Snapshot is one consistent read of both tables.
type Snapshot struct {
	ID        string
	FetchedAt time.Time
	ExpiresAt time.Time
	Events    []EventRecord
	Quotas    []QuotaRow
}

// SnapshotSource hands out snapshots; the Cache is the usual implementation.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}
