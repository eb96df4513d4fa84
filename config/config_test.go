package config_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/quota-tracker/config"
	"github.com/warp/quota-tracker/tracker"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tracker.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	t.Setenv(config.EnvWarehouseDSN, "")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, tracker.DefaultRules(), cfg.Rules())
	assert.Equal(t, time.Hour, cfg.Cache.TTL.Duration)
}

func TestLoad_OverridesFromFile(t *testing.T) {
	t.Setenv(config.EnvWarehouseDSN, "")
	path := writeConfig(t, `
server:
  port: 9090
source:
  kind: warehouse
  warehouse_dsn: postgres://reader@warehouse/analytics
cache:
  ttl: 15m
tracker:
  default_location: inside_uae
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, config.SourceWarehouse, cfg.Source.Kind)
	assert.Equal(t, "applications_last_action", cfg.Source.EventsView, "unset fields keep their default")
	assert.Equal(t, 15*time.Minute, cfg.Cache.TTL.Duration)
	assert.Equal(t, "inside_uae", cfg.Rules().DefaultLocation)
	assert.Equal(t, "filipina", cfg.Rules().SpecialNationality)
}

func TestLoad_EnvOverridesDSN(t *testing.T) {
	t.Setenv(config.EnvWarehouseDSN, "postgres://secret@warehouse/analytics")
	path := writeConfig(t, "source:\n  warehouse_dsn: postgres://file@warehouse/analytics\n")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://secret@warehouse/analytics", cfg.Source.WarehouseDSN)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv(config.EnvWarehouseDSN, "")

	tests := []struct {
		name string
		body string
	}{
		{"unknown kind", "source:\n  kind: csv\n"},
		{"bad ttl", "cache:\n  ttl: soon\n"},
		{"zero ttl", "cache:\n  ttl: 0s\n"},
		{"bad port", "server:\n  port: 70000\n"},
		{"not yaml", "server: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLogConfig_NewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := config.LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)

	log.Info().Msg("hidden")
	log.Warn().Str("snapshot", "abc").Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"snapshot":"abc"`)
	assert.Equal(t, zerolog.WarnLevel, log.GetLevel())
}

func TestSourceConfig_OpenSQLite(t *testing.T) {
	opened, err := config.SourceConfig{Kind: config.SourceSQLite, SQLitePath: ":memory:"}.Open(context.Background(), zerolog.Nop())
	require.NoError(t, err)
	defer opened.Close()

	require.NotNil(t, opened.SQLite)
	events, err := opened.Source.FetchEvents(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestSourceConfig_OpenUnknown(t *testing.T) {
	_, err := config.SourceConfig{Kind: "csv"}.Open(context.Background(), zerolog.Nop())
	assert.Error(t, err)
}
