package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Storage backends.
const (
	BackendJSON   = "json"
	BackendBadger = "badger"
)

// Config holds all application configuration.
// Values come from environment variables, optionally from a .env file in the
// working directory, with defaults. Environment variables win over the file.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Storage
	StorageBackend string // json | badger
	DataFile       string
	BadgerDir      string

	// Seed (only used when nothing has been persisted yet)
	SeedUsersFile     string
	SeedAdminLogin    string
	SeedAdminPassword string

	// Goals
	GoalBaseline decimal.Decimal

	// JWT / Auth
	JWTSecret    string
	JWTAccessTTL time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Observability
	OTLPEndpoint string
}

// DevJWTSecret is the JWT_SECRET default. serve accepts it only at debug level.
const DevJWTSecret = "technova-default-dev-secret-change-me"

var defaults = map[string]any{
	"PORT":                        8080,
	"LOG_LEVEL":                   "info",
	"STORAGE_BACKEND":             BackendJSON,
	"DATA_FILE":                   "data.json",
	"BADGER_DIR":                  "data/badger",
	"SEED_USERS_FILE":             "",
	"SEED_ADMIN_LOGIN":            "admin",
	"SEED_ADMIN_PASSWORD":         "admin",
	"GOAL_BASELINE":               "5000",
	"JWT_SECRET":                  DevJWTSecret,
	"JWT_ACCESS_TTL":              "8h",
	"MAX_RETRIES":                 3,
	"INITIAL_BACKOFF":             "100ms",
	"MAX_CONCURRENCY":             50,
	"OTEL_EXPORTER_OTLP_ENDPOINT": "",
}

// Load reads the configuration. The .env file is optional.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read .env: %w", err)
		}
	}
	return FromViper(v)
}

// FromViper builds a Config from v, applying defaults and environment overrides.
func FromViper(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	baseline, err := decimal.NewFromString(v.GetString("GOAL_BASELINE"))
	if err != nil {
		return nil, fmt.Errorf("GOAL_BASELINE: %w", err)
	}

	cfg := &Config{
		Port:     v.GetInt("PORT"),
		LogLevel: v.GetString("LOG_LEVEL"),

		StorageBackend: strings.ToLower(v.GetString("STORAGE_BACKEND")),
		DataFile:       v.GetString("DATA_FILE"),
		BadgerDir:      v.GetString("BADGER_DIR"),

		SeedUsersFile:     v.GetString("SEED_USERS_FILE"),
		SeedAdminLogin:    v.GetString("SEED_ADMIN_LOGIN"),
		SeedAdminPassword: v.GetString("SEED_ADMIN_PASSWORD"),

		GoalBaseline: baseline,

		JWTSecret:    v.GetString("JWT_SECRET"),
		JWTAccessTTL: v.GetDuration("JWT_ACCESS_TTL"),

		MaxRetries:     v.GetInt("MAX_RETRIES"),
		InitialBackoff: v.GetDuration("INITIAL_BACKOFF"),
		MaxConcurrency: v.GetInt("MAX_CONCURRENCY"),

		OTLPEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageBackend {
	case BackendJSON, BackendBadger:
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", BackendJSON, BackendBadger, c.StorageBackend)
	}
	if c.GoalBaseline.IsNegative() {
		return errors.New("GOAL_BASELINE must not be negative")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if c.JWTAccessTTL <= 0 {
		return errors.New("JWT_ACCESS_TTL must be positive")
	}
	if c.MaxRetries < 0 {
		return errors.New("MAX_RETRIES must not be negative")
	}
	return nil
}

// InsecureSecret reports whether the development JWT secret is in use
// outside debug level.
func (c *Config) InsecureSecret() bool {
	return c.JWTSecret == DevJWTSecret && c.LogLevel != "debug"
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
