package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "America/New_York", cfg.Portal.DefaultTimezone)
	assert.Equal(t, 100, cfg.Portal.MaxPageSize)
	assert.Same(t, cfg, GlobalConfig)
}

func TestLoad_FileKeepsUnsetDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("server:\n  port: \"9090\"\nportal:\n  default_timezone: Europe/Berlin\n")
	require.NoError(t, os.WriteFile(path, content, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "Europe/Berlin", cfg.Portal.DefaultTimezone)
	assert.Equal(t, "US", cfg.Portal.DefaultCountry)
	assert.Equal(t, 24, cfg.JWT.ExpireHour)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_DSN", "host=db user=portal")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("EXPORT_WEBHOOK_URL", "http://exporter:8000/events")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "host=db user=portal", cfg.Database.DSN)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "http://exporter:8000/events", cfg.Export.WebhookURL)
}

func TestParseRedisURL(t *testing.T) {
	tests := []struct {
		url      string
		addr     string
		password string
		db       int
	}{
		{"redis://localhost:6379", "localhost:6379", "", 0},
		{"redis://:secret@cache:6380/2", "cache:6380", "secret", 2},
		{"redis://user:pw@10.0.0.5:6379/0", "10.0.0.5:6379", "pw", 0},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.parseRedisURL(tt.url)
		assert.Equal(t, tt.addr, cfg.Redis.Addr, tt.url)
		assert.Equal(t, tt.password, cfg.Redis.Password, tt.url)
		assert.Equal(t, tt.db, cfg.Redis.DB, tt.url)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Portal.DefaultTimezone = "Asia/Tokyo"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", loaded.Portal.DefaultTimezone)
}
