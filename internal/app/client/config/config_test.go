package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_DIR", dir)
	// Пустые переменные окружения не перекрывают значения по умолчанию
	t.Setenv("APP_ENV", "")
	t.Setenv("DATA_PATH", "")
	t.Setenv("LEGACY_DATA_PATH", "")
	t.Setenv("MAX_DB_SIZE_MB", "")
	t.Setenv("STATS_DEBOUNCE_MS", "")
	t.Setenv("FALLBACK_QUOTA_MB", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, filepath.Join(dir, "lifelog.db"), cfg.DataPath)
	assert.Equal(t, filepath.Join(dir, "journal.db"), cfg.LegacyDataPath)
	assert.Equal(t, 300*time.Millisecond, cfg.StatsDebounce())
	assert.Equal(t, int64(1024*1024*1024), cfg.FallbackQuotaBytes())
	assert.Zero(t, cfg.MaxDBSizeBytes())
	assert.True(t, cfg.IsLocal())
}

func TestLoad_Env(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_DIR", dir)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("DATA_PATH", filepath.Join(dir, "custom.db"))
	t.Setenv("MAX_DB_SIZE_MB", "50")
	t.Setenv("STATS_DEBOUNCE_MS", "10")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.IsProd())
	assert.Equal(t, filepath.Join(dir, "custom.db"), cfg.DataPath)
	assert.Equal(t, int64(50*1024*1024), cfg.MaxDBSizeBytes())
	assert.Equal(t, 10*time.Millisecond, cfg.StatsDebounce())
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_DIR", dir)
	t.Setenv("APP_ENV", "")
	t.Setenv("API_ADDRESS", "")

	file := filepath.Join(dir, "lifelog.yaml")
	require.NoError(t, os.WriteFile(file, []byte("app_env: dev\napi_address: 127.0.0.1:9999\n"), 0600))

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.True(t, cfg.IsDev())
	assert.Equal(t, "127.0.0.1:9999", cfg.APIAddress)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown env", env: map[string]string{"APP_ENV": "staging"}},
		{name: "negative size", env: map[string]string{"APP_ENV": "local", "MAX_DB_SIZE_MB": "-1"}},
		{name: "zero quota", env: map[string]string{"APP_ENV": "local", "FALLBACK_QUOTA_MB": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CONFIG_DIR", t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load("")
			assert.Error(t, err)
			assert.Panics(t, func() { MustLoad("") })
		})
	}
}
