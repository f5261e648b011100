package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope", "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "taskboard.db", cfg.Database.Path)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, 12, cfg.Digest.FreshnessHours)
	assert.Equal(t, 5, cfg.Digest.MorningHour)
	assert.Equal(t, 16, cfg.Digest.AfternoonHour)
	assert.Equal(t, 8, cfg.Dispatch.ReminderWorkers)
	assert.False(t, cfg.Push.Enabled)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestLoadConfigPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
  scheduler_token: "s3cret"
digest:
  freshness_hours: 6
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "s3cret", cfg.Server.SchedulerToken)
	assert.Equal(t, 6, cfg.Digest.FreshnessHours)

	// Untouched keys keep their defaults.
	assert.Equal(t, "taskboard.db", cfg.Database.Path)
	assert.Equal(t, 16, cfg.Digest.AfternoonHour)
	assert.Equal(t, "ANTHROPIC_API_KEY", cfg.AI.APIKeyEnv)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := defaultAppConfig()
	cfg.Server.Addr = ":7070"
	cfg.Timezone = "America/New_York"
	cfg.Push = PushConfig{Enabled: true, Endpoint: "https://push.example.com", APIKey: "k"}

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", loaded.Server.Addr)
	assert.Equal(t, "America/New_York", loaded.Timezone)
	assert.True(t, loaded.Push.Enabled)
	assert.Equal(t, "https://push.example.com", loaded.Push.Endpoint)
}

func TestLocationInvalidZone(t *testing.T) {
	cfg := &AppConfig{Timezone: "Mars/Olympus_Mons"}
	_, err := cfg.Location()
	assert.Error(t, err)
}
