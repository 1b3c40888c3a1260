package config

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// DefaultOverviewCities are the cities shown on the world overview.
var DefaultOverviewCities = []string{
	"New York", "London", "Tokyo", "Dubai", "Paris",
	"Sydney", "Chennai", "Singapore", "Mumbai", "Shanghai",
	"Berlin", "Toronto", "São Paulo", "Cairo", "Moscow",
}

type AppConfig struct {
	// OpenWeatherAPIKey has no default; without it every lookup fails with a provider error.
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string `validate:"required,url"`

	// HTTPTimeout bounds each provider call, and so the overview barrier.
	HTTPTimeout time.Duration `validate:"gt=0"`

	DefaultUnits weather.Units `validate:"oneof=metric imperial"`

	OverviewCities          []string      `validate:"dive,required"`
	OverviewRefreshInterval time.Duration `validate:"gt=0"`
	OverviewMaxAge          time.Duration `validate:"gte=0"` // 0 = never stale
	BatchConcurrency        int           `validate:"gte=0"` // 0 = unlimited

	RecentSearchesLimit int `validate:"gte=1"`

	StoreDriver   string `validate:"oneof=memory sqlite redis"`
	SQLitePath    string `validate:"required_if=StoreDriver sqlite"`
	RedisAddr     string `validate:"required_if=StoreDriver redis"`
	RedisPassword string
	RedisDB       int `validate:"gte=0"`

	Port     string `validate:"required,numeric"`
	LogLevel string
	Env      string
}

var validate = validator.New()

// Load reads configuration from .env, an optional config.yaml and the environment,
// with sensible defaults. Environment variables win over the file.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &AppConfig{
		OpenWeatherAPIKey:  strings.TrimSpace(v.GetString("OPENWEATHER_API_KEY")),
		OpenWeatherBaseURL: strings.TrimRight(v.GetString("OPENWEATHER_BASE_URL"), "/"),
		OverviewCities:     splitList(v.GetString("OVERVIEW_CITIES")),
		StoreDriver:        strings.ToLower(v.GetString("STORE_DRIVER")),
		SQLitePath:         v.GetString("SQLITE_PATH"),
		RedisAddr:          v.GetString("REDIS_ADDR"),
		RedisPassword:      v.GetString("REDIS_PASSWORD"),
		Port:               v.GetString("PORT"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		Env:                v.GetString("APP_ENV"),
	}

	var err error
	if cfg.HTTPTimeout, err = durationOf(v, "HTTP_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.OverviewRefreshInterval, err = durationOf(v, "OVERVIEW_REFRESH_INTERVAL"); err != nil {
		return nil, err
	}
	if cfg.OverviewMaxAge, err = durationOf(v, "OVERVIEW_MAX_AGE"); err != nil {
		return nil, err
	}
	if cfg.BatchConcurrency, err = intOf(v, "BATCH_CONCURRENCY"); err != nil {
		return nil, err
	}
	if cfg.RecentSearchesLimit, err = intOf(v, "RECENT_SEARCHES_LIMIT"); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = intOf(v, "REDIS_DB"); err != nil {
		return nil, err
	}

	units, err := weather.ParseUnits(v.GetString("DEFAULT_UNITS"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_UNITS: %w", err)
	}
	cfg.DefaultUnits = units

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// StoreOptions selects the KV backend for persisted dashboard state.
func (c *AppConfig) StoreOptions() store.Options {
	return store.Options{
		Driver:        c.StoreDriver,
		SQLitePath:    c.SQLitePath,
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
		RedisDB:       c.RedisDB,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5")
	v.SetDefault("HTTP_TIMEOUT", "10s")
	v.SetDefault("DEFAULT_UNITS", string(weather.UnitsMetric))
	v.SetDefault("OVERVIEW_CITIES", strings.Join(DefaultOverviewCities, ","))
	v.SetDefault("OVERVIEW_REFRESH_INTERVAL", "10m")
	v.SetDefault("OVERVIEW_MAX_AGE", "30m")
	v.SetDefault("BATCH_CONCURRENCY", "0")
	v.SetDefault("RECENT_SEARCHES_LIMIT", "5")
	v.SetDefault("STORE_DRIVER", "memory")
	v.SetDefault("SQLITE_PATH", "dashboard.db")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", "0")
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_ENV", "development")
}

func durationOf(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func intOf(v *viper.Viper, key string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

// splitList splits a comma-separated list, trimming blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
