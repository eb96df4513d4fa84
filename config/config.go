// Package config loads the tracker configuration from a YAML file.
//
// A missing file is not an error: every field has a default. Command-line
// flags in cmd/* override the file, and QUOTA_TRACKER_WAREHOUSE_DSN overrides
// the warehouse DSN so credentials stay out of the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/warp/quota-tracker/tracker"
)

const EnvWarehouseDSN = "QUOTA_TRACKER_WAREHOUSE_DSN"

type SourceKind string

const (
	SourceSQLite    SourceKind = "sqlite"
	SourceWarehouse SourceKind = "warehouse"
	SourceMemory    SourceKind = "memory"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Source  SourceConfig  `yaml:"source"`
	Cache   CacheConfig   `yaml:"cache"`
	Log     LogConfig     `yaml:"log"`
	Tracker TrackerConfig `yaml:"tracker"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type SourceConfig struct {
	Kind         SourceKind `yaml:"kind"`
	SQLitePath   string     `yaml:"sqlite_path"`
	WarehouseDSN string     `yaml:"warehouse_dsn"`
	EventsView   string     `yaml:"events_view"`
	QuotasTable  string     `yaml:"quotas_table"`
}

type CacheConfig struct {
	TTL Duration `yaml:"ttl"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console or json
}

type TrackerConfig struct {
	DefaultNationality string `yaml:"default_nationality"`
	DefaultLocation    string `yaml:"default_location"`
	SpecialNationality string `yaml:"special_nationality"`
	SpecialLocation    string `yaml:"special_location"`
	TrueMarker         string `yaml:"true_marker"`
}

// Duration reads "1h", "90m" and the like.
type Duration struct{ time.Duration }

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalYAML() (any, error) { return d.String(), nil }

func Default() Config {
	rules := tracker.DefaultRules()
	return Config{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		},
		Source: SourceConfig{
			Kind:        SourceSQLite,
			SQLitePath:  "tracker.db",
			EventsView:  "applications_last_action",
			QuotasTable: "daily_quotas",
		},
		Cache: CacheConfig{TTL: Duration{time.Hour}},
		Log:   LogConfig{Level: "info", Format: "console"},
		Tracker: TrackerConfig{
			DefaultNationality: rules.DefaultNationality,
			DefaultLocation:    rules.DefaultLocation,
			SpecialNationality: rules.SpecialNationality,
			SpecialLocation:    rules.SpecialLocation,
			TrueMarker:         rules.TrueMarker,
		},
	}
}

// Load reads path over the defaults. An empty path or a missing file yields
// the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if dsn := os.Getenv(EnvWarehouseDSN); dsn != "" {
		cfg.Source.WarehouseDSN = dsn
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Source.Kind {
	case SourceSQLite:
		if c.Source.SQLitePath == "" {
			return fmt.Errorf("source.sqlite_path is required for sqlite")
		}
	case SourceWarehouse:
		if c.Source.EventsView == "" || c.Source.QuotasTable == "" {
			return fmt.Errorf("source.events_view and source.quotas_table are required for warehouse")
		}
	case SourceMemory:
	default:
		return fmt.Errorf("unknown source.kind %q", c.Source.Kind)
	}
	if c.Cache.TTL.Duration <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

// Rules converts the tracker section.
func (c Config) Rules() tracker.Rules {
	return tracker.Rules{
		SpecialNationality: c.Tracker.SpecialNationality,
		SpecialLocation:    c.Tracker.SpecialLocation,
		TrueMarker:         c.Tracker.TrueMarker,
		DefaultNationality: c.Tracker.DefaultNationality,
		DefaultLocation:    c.Tracker.DefaultLocation,
	}
}
