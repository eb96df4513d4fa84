/*
Package sqlite provides a SQLite-backed data source for local runs.

PURPOSE:
  Implements generic.DataSource on a local SQLite file so the tracker can run
  without warehouse credentials. The tables mirror the warehouse views:
  application rows with a raw timestamp string, and one quota row per segment.

KEY TABLES:
  applications: One row per application, raw "application_created" timestamp
  quotas:       Daily quotas per (nationality, location), primary key on both

DATE HANDLING:
  application_created is stored as the source system wrote it. Only the
  leading YYYY-MM-DD is used; rows whose prefix is not a date are dropped
  when fetched and counted in the log.

IMPORT:
  ImportEvents appends. ImportQuotas replaces the whole quota table in one
  transaction, the same way the upstream loader refreshes it.

USAGE:
  store, err := sqlite.New("./tracker.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  cache := store.NewCache(store, time.Hour)

SEE ALSO:
  - generic/store.go: DataSource interface
  - store/warehouse:  Production source
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/warp/quota-tracker/generic"
)

// Store implements generic.DataSource using SQLite.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	log zerolog.Logger
}

var _ generic.DataSource = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each connection to ":memory:" is its own database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, log: zerolog.Nop()}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// WithLogger sets the logger used for dropped-row reports.
func (s *Store) WithLogger(l zerolog.Logger) *Store {
	s.log = l
	return s
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS applications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		application_created TEXT,
		nationality TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		active_visa_status TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_applications_segment
		ON applications(nationality, location);

	CREATE TABLE IF NOT EXISTS quotas (
		nationality TEXT NOT NULL,
		location TEXT NOT NULL,
		quota_all TEXT NOT NULL,
		quota_active TEXT NOT NULL,
		PRIMARY KEY (nationality, location)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// DATA SOURCE (generic.DataSource interface)
// =============================================================================

// FetchEvents returns every application whose timestamp starts with a valid date.
func (s *Store) FetchEvents(ctx context.Context) ([]generic.EventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT application_created, nationality, location, active_visa_status
		FROM applications
		WHERE application_created IS NOT NULL
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, &generic.FetchError{Source: "sqlite", Table: "events", Err: err}
	}
	defer rows.Close()

	var (
		events  []generic.EventRecord
		dropped int
	)
	for rows.Next() {
		var created, nat, loc, flag string
		if err := rows.Scan(&created, &nat, &loc, &flag); err != nil {
			return nil, &generic.FetchError{Source: "sqlite", Table: "events", Err: err}
		}
		date, ok := generic.ParseEventDate(created)
		if !ok {
			dropped++
			continue
		}
		events = append(events, generic.EventRecord{
			OccurredOn:          date,
			NationalityCategory: nat,
			LocationCategory:    loc,
			ActiveVisaFlag:      flag,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &generic.FetchError{Source: "sqlite", Table: "events", Err: err}
	}
	if dropped > 0 {
		s.log.Warn().Int("dropped", dropped).Msg("applications without a valid date")
	}
	return events, nil
}

// FetchQuotas returns all quota rows.
func (s *Store) FetchQuotas(ctx context.Context) ([]generic.QuotaRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT nationality, location, quota_all, quota_active
		FROM quotas
		ORDER BY nationality, location
	`)
	if err != nil {
		return nil, &generic.FetchError{Source: "sqlite", Table: "quotas", Err: err}
	}
	defer rows.Close()

	var quotas []generic.QuotaRow
	for rows.Next() {
		var (
			q              generic.QuotaRow
			all, activeVal string
		)
		if err := rows.Scan(&q.NationalityCategory, &q.LocationCategory, &all, &activeVal); err != nil {
			return nil, &generic.FetchError{Source: "sqlite", Table: "quotas", Err: err}
		}
		q.QuotaAll = parseDecimal(all)
		q.QuotaActive = parseDecimal(activeVal)
		quotas = append(quotas, q)
	}
	if err := rows.Err(); err != nil {
		return nil, &generic.FetchError{Source: "sqlite", Table: "quotas", Err: err}
	}
	return quotas, nil
}

// =============================================================================
// IMPORT
// =============================================================================

// Application is an import row, with the timestamp as the source wrote it.
type Application struct {
	Created          string
	Nationality      string
	Location         string
	ActiveVisaStatus string
}

// ImportEvents appends applications atomically and returns how many were written.
func (s *Store) ImportEvents(ctx context.Context, apps []Application) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO applications (application_created, nationality, location, active_visa_status)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range apps {
		if _, err := stmt.ExecContext(ctx, nullString(a.Created), a.Nationality, a.Location, a.ActiveVisaStatus); err != nil {
			return 0, fmt.Errorf("failed to insert application: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit applications: %w", err)
	}
	return len(apps), nil
}

// ImportQuotas replaces the quota table.
func (s *Store) ImportQuotas(ctx context.Context, quotas []generic.QuotaRow) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM quotas"); err != nil {
		return 0, fmt.Errorf("failed to clear quotas: %w", err)
	}
	for _, q := range quotas {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO quotas (nationality, location, quota_all, quota_active)
			VALUES (?, ?, ?, ?)
		`, q.NationalityCategory, q.LocationCategory, q.QuotaAll.String(), q.QuotaActive.String())
		if err != nil {
			return 0, fmt.Errorf("failed to insert quota %s/%s: %w", q.NationalityCategory, q.LocationCategory, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit quotas: %w", err)
	}
	return len(quotas), nil
}

// Reset deletes all rows from both tables.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM applications; DELETE FROM quotas;"); err != nil {
		return fmt.Errorf("failed to reset: %w", err)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
