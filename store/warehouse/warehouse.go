/*
Package warehouse reads applications and quotas from the analytical warehouse.

PURPOSE:
  Production generic.DataSource. Connects with database/sql and the pgx
  driver, so any Postgres-protocol warehouse works. The view and table names
  are configuration, never hard-coded credentials.

QUERIES:
  Events keep only the leading YYYY-MM-DD of "Application Created" and skip
  rows where it is NULL. Rows whose prefix is not a real date are dropped
  here, at the boundary, and counted in the log.

SEE ALSO:
  - config/config.go: source.warehouse_dsn, source.events_view, source.quotas_table
*/
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/warp/quota-tracker/generic"
)

// Config names where the two tables live.
type Config struct {
	DSN         string
	EventsView  string
	QuotasTable string
}

type Source struct {
	db     *sql.DB
	events string
	quotas string
	log    zerolog.Logger
}

var _ generic.DataSource = (*Source)(nil)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// Open connects to the warehouse and checks the connection.
func Open(ctx context.Context, cfg Config, log zerolog.Logger) (*Source, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("warehouse DSN is required")
	}
	for _, name := range []string{cfg.EventsView, cfg.QuotasTable} {
		if !identifier.MatchString(name) {
			return nil, fmt.Errorf("invalid table name %q", name)
		}
	}

	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open warehouse: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &generic.FetchError{Source: "warehouse", Table: "connection", Err: err}
	}
	return &Source{db: db, events: cfg.EventsView, quotas: cfg.QuotasTable, log: log}, nil
}

func (s *Source) Close() error {
	return s.db.Close()
}

// FetchEvents returns every application with a valid date.
func (s *Source) FetchEvents(ctx context.Context) ([]generic.EventRecord, error) {
	query := fmt.Sprintf(`
		SELECT
			SUBSTR(application_created, 1, 10) AS application_date,
			COALESCE(nationality_category, '') AS nationality,
			COALESCE(location_category, '') AS location,
			COALESCE(active_visa_status, '') AS active_visa_status
		FROM %s
		WHERE application_created IS NOT NULL
	`, s.events)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &generic.FetchError{Source: "warehouse", Table: "events", Err: err}
	}
	defer rows.Close()

	var (
		events  []generic.EventRecord
		dropped int
	)
	for rows.Next() {
		var date, nat, loc, flag string
		if err := rows.Scan(&date, &nat, &loc, &flag); err != nil {
			return nil, &generic.FetchError{Source: "warehouse", Table: "events", Err: err}
		}
		d, ok := generic.ParseEventDate(date)
		if !ok {
			dropped++
			continue
		}
		events = append(events, generic.EventRecord{
			OccurredOn:          d,
			NationalityCategory: nat,
			LocationCategory:    loc,
			ActiveVisaFlag:      flag,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &generic.FetchError{Source: "warehouse", Table: "events", Err: err}
	}
	if dropped > 0 {
		s.log.Warn().Int("dropped", dropped).Str("view", s.events).Msg("applications without a valid date")
	}
	return events, nil
}

// FetchQuotas returns the daily quota table.
func (s *Source) FetchQuotas(ctx context.Context) ([]generic.QuotaRow, error) {
	query := fmt.Sprintf(`
		SELECT
			nationality_category,
			location_category,
			CAST(COALESCE(daily_quota_all, 0) AS TEXT),
			CAST(COALESCE(daily_quota_active, 0) AS TEXT)
		FROM %s
	`, s.quotas)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &generic.FetchError{Source: "warehouse", Table: "quotas", Err: err}
	}
	defer rows.Close()

	var quotas []generic.QuotaRow
	for rows.Next() {
		var (
			q           generic.QuotaRow
			all, active string
		)
		if err := rows.Scan(&q.NationalityCategory, &q.LocationCategory, &all, &active); err != nil {
			return nil, &generic.FetchError{Source: "warehouse", Table: "quotas", Err: err}
		}
		if q.QuotaAll, err = decimal.NewFromString(all); err != nil {
			q.QuotaAll = decimal.Zero
		}
		if q.QuotaActive, err = decimal.NewFromString(active); err != nil {
			q.QuotaActive = decimal.Zero
		}
		quotas = append(quotas, q)
	}
	if err := rows.Err(); err != nil {
		return nil, &generic.FetchError{Source: "warehouse", Table: "quotas", Err: err}
	}
	return quotas, nil
}
