package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/example/checkin-scheduler/internal/airports"
	"github.com/example/checkin-scheduler/internal/checkin"
	"github.com/example/checkin-scheduler/internal/scheduler"
	"github.com/example/checkin-scheduler/internal/southwest"
)

type Config struct {
	SouthwestBaseURL   string
	SouthwestConfigURL string
	SouthwestAPIKey    string // empty: scrape config.js on every request
	AirportSearchURL   string
	HTTPTimeout        time.Duration

	RetryMaxAttempts int
	RetryInterval    time.Duration

	EarlyMargin       time.Duration
	TooEarly          time.Duration
	SuperviseInterval time.Duration

	DatabaseURL      string
	ListenAddr       string
	TriggerTokenHash string

	LogLevel  string
	LogFormat string
}

// FromEnv reads the process environment, after loading ./.env if present.
func FromEnv() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := Config{
		SouthwestBaseURL:   v.GetString("SOUTHWEST_BASE_URL"),
		SouthwestConfigURL: v.GetString("SOUTHWEST_CONFIG_URL"),
		SouthwestAPIKey:    strings.TrimSpace(v.GetString("SOUTHWEST_API_KEY")),
		AirportSearchURL:   v.GetString("AIRPORT_SEARCH_URL"),
		HTTPTimeout:        v.GetDuration("HTTP_TIMEOUT"),
		RetryMaxAttempts:   v.GetInt("RETRY_MAX_ATTEMPTS"),
		RetryInterval:      v.GetDuration("RETRY_INTERVAL"),
		EarlyMargin:        v.GetDuration("CHECKIN_EARLY_MARGIN"),
		TooEarly:           v.GetDuration("CHECKIN_TOO_EARLY"),
		SuperviseInterval:  v.GetDuration("SUPERVISE_INTERVAL"),
		DatabaseURL:        v.GetString("DATABASE_URL"),
		ListenAddr:         v.GetString("LISTEN_ADDR"),
		LogLevel:           strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:          strings.ToLower(v.GetString("LOG_FORMAT")),
	}

	hash, err := readSecret(v.GetString("TRIGGER_TOKEN_HASH"))
	if err != nil {
		return Config{}, fmt.Errorf("TRIGGER_TOKEN_HASH: %w", err)
	}
	cfg.TriggerTokenHash = hash

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SOUTHWEST_BASE_URL", southwest.DefaultBaseURL)
	v.SetDefault("SOUTHWEST_CONFIG_URL", southwest.DefaultConfigURL)
	v.SetDefault("SOUTHWEST_API_KEY", "")
	v.SetDefault("AIRPORT_SEARCH_URL", airports.DefaultSearchURL)
	v.SetDefault("HTTP_TIMEOUT", 20*time.Second)

	v.SetDefault("RETRY_MAX_ATTEMPTS", southwest.DefaultMaxAttempts)
	v.SetDefault("RETRY_INTERVAL", southwest.DefaultRetryInterval)

	v.SetDefault("CHECKIN_EARLY_MARGIN", checkin.DefaultEarlyMargin)
	v.SetDefault("CHECKIN_TOO_EARLY", checkin.DefaultTooEarly)
	v.SetDefault("SUPERVISE_INTERVAL", scheduler.DefaultSuperviseInterval)

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("LISTEN_ADDR", ":8080")
	v.SetDefault("TRIGGER_TOKEN_HASH", "")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func (c Config) Validate() error {
	if c.SouthwestBaseURL == "" {
		return fmt.Errorf("SOUTHWEST_BASE_URL is required")
	}
	if c.SouthwestAPIKey == "" && c.SouthwestConfigURL == "" {
		return fmt.Errorf("one of SOUTHWEST_API_KEY or SOUTHWEST_CONFIG_URL is required")
	}
	if c.AirportSearchURL == "" {
		return fmt.Errorf("AIRPORT_SEARCH_URL is required")
	}
	if c.RetryMaxAttempts < 1 {
		return fmt.Errorf("invalid RETRY_MAX_ATTEMPTS: must be at least 1")
	}
	for _, d := range []struct {
		key string
		val time.Duration
	}{
		{"HTTP_TIMEOUT", c.HTTPTimeout},
		{"RETRY_INTERVAL", c.RetryInterval},
		{"CHECKIN_TOO_EARLY", c.TooEarly},
		{"SUPERVISE_INTERVAL", c.SuperviseInterval},
	} {
		if d.val <= 0 {
			return fmt.Errorf("invalid %s: must be a positive duration such as 5s", d.key)
		}
	}
	if c.EarlyMargin < 0 {
		return fmt.Errorf("invalid CHECKIN_EARLY_MARGIN: must not be negative")
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q: want json or console", c.LogFormat)
	}
	return nil
}

// readSecret allows pointing a value at a file, for k8s secret mounts.
func readSecret(s string) (string, error) {
	if s == "" || !strings.HasPrefix(s, "/") {
		return s, nil
	}
	b, err := os.ReadFile(s)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
