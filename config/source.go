package config

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/warp/quota-tracker/generic"
	"github.com/warp/quota-tracker/generic/store"
	"github.com/warp/quota-tracker/store/sqlite"
	"github.com/warp/quota-tracker/store/warehouse"
)

// Opened is a connected data source. SQLite is non-nil only for the sqlite kind.
type Opened struct {
	Source generic.DataSource
	SQLite *sqlite.Store
	Close  func() error
}

// Open connects the configured data source.
func (c SourceConfig) Open(ctx context.Context, log zerolog.Logger) (*Opened, error) {
	switch c.Kind {
	case SourceSQLite:
		s, err := sqlite.New(c.SQLitePath)
		if err != nil {
			return nil, err
		}
		s.WithLogger(log)
		return &Opened{Source: s, SQLite: s, Close: s.Close}, nil

	case SourceWarehouse:
		s, err := warehouse.Open(ctx, warehouse.Config{
			DSN:         c.WarehouseDSN,
			EventsView:  c.EventsView,
			QuotasTable: c.QuotasTable,
		}, log)
		if err != nil {
			return nil, err
		}
		return &Opened{Source: s, Close: s.Close}, nil

	case SourceMemory:
		return &Opened{Source: store.NewMemory(nil, nil), Close: func() error { return nil }}, nil
	}
	return nil, fmt.Errorf("unknown source.kind %q", c.Kind)
}
