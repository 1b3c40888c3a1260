package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.OpenWeatherAPIKey)
	assert.Equal(t, "https://api.openweathermap.org/data/2.5", cfg.OpenWeatherBaseURL)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, weather.UnitsMetric, cfg.DefaultUnits)
	assert.Equal(t, DefaultOverviewCities, cfg.OverviewCities)
	assert.Equal(t, 10*time.Minute, cfg.OverviewRefreshInterval)
	assert.Equal(t, 30*time.Minute, cfg.OverviewMaxAge)
	assert.Equal(t, 0, cfg.BatchConcurrency)
	assert.Equal(t, 5, cfg.RecentSearchesLimit)
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "development", cfg.Env)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", " secret ")
	t.Setenv("OPENWEATHER_BASE_URL", "http://localhost:9000/data/2.5/")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("DEFAULT_UNITS", "Imperial")
	t.Setenv("OVERVIEW_CITIES", " London, ,Tokyo ,Paris")
	t.Setenv("BATCH_CONCURRENCY", "4")
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/weather.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.OpenWeatherAPIKey)
	assert.Equal(t, "http://localhost:9000/data/2.5", cfg.OpenWeatherBaseURL)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, weather.UnitsImperial, cfg.DefaultUnits)
	assert.Equal(t, []string{"London", "Tokyo", "Paris"}, cfg.OverviewCities)
	assert.Equal(t, 4, cfg.BatchConcurrency)

	opts := cfg.StoreOptions()
	assert.Equal(t, "sqlite", opts.Driver)
	assert.Equal(t, "/tmp/weather.db", opts.SQLitePath)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_units: imperial\nport: \"9090\"\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7070")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, weather.UnitsImperial, cfg.DefaultUnits)
	// Environment wins over the file.
	assert.Equal(t, "7070", cfg.Port)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"DEFAULT_UNITS":             "kelvin",
		"HTTP_TIMEOUT":              "soon",
		"OVERVIEW_REFRESH_INTERVAL": "0s",
		"BATCH_CONCURRENCY":         "-1",
		"RECENT_SEARCHES_LIMIT":     "many",
		"STORE_DRIVER":              "etcd",
		"PORT":                      "http",
	}

	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
