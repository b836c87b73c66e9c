/*
Package config loads the server configuration.

SOURCES (later wins):
  1. Defaults (see Default)
  2. .env in the working directory, if present (godotenv; never overrides
     variables already set in the process environment)
  3. YAML file named by LEDGER_CONFIG
  4. Environment variables
  5. Command-line flags, applied by cmd/server

ENVIRONMENT VARIABLES:
  PORT                       HTTP port
  LEDGER_STORE               file | sqlite | redis | memory
  LEDGER_DATA_DIR            Directory of the file backend
  LEDGER_SQLITE_PATH         Database path of the sqlite backend
  REDIS_ADDR                 host:port of the redis backend
  REDIS_PASSWORD
  REDIS_DB
  REDIS_PREFIX               Key prefix (default "ledger")
  LEDGER_STATIC_DIR          Front-end directory served at /
  LEDGER_RANKING_STRATEGY    rebuild | incremental
  LEDGER_TODAY_STATS         Include todaysTransactions in dashboard stats
  LEDGER_RECONCILE_INTERVAL  Ranking reconciler period, "0" disables it
  LEDGER_ALLOWED_ORIGINS     Comma-separated CORS origins
  LEDGER_SCENARIOS           Enable POST /api/scenarios/load
  LOG_LEVEL                  debug | info | warn | error
  LOG_FORMAT                 text | json
  ENVIRONMENT                development | production | test

EXAMPLE YAML:
  server:
    port: 3000
    static_dir: ./front-end
  storage:
    kind: sqlite
    sqlite_path: ./data/ledger.db
  ledger:
    ranking_strategy: incremental
    reconcile_interval: 1m
  log:
    level: debug
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store kinds.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config holds all application configuration
type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		StaticDir      string   `yaml:"static_dir"`
		AllowedOrigins []string `yaml:"allowed_origins"`
		Scenarios      bool     `yaml:"scenarios"` // enables scenario loading
	} `yaml:"server"`

	Storage struct {
		Kind       string `yaml:"kind"`
		DataDir    string `yaml:"data_dir"`
		SQLitePath string `yaml:"sqlite_path"`
		Redis      struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"storage"`

	Ledger struct {
		RankingStrategy   string        `yaml:"ranking_strategy"`
		TodayStats        bool          `yaml:"today_stats"`
		ReconcileInterval time.Duration `yaml:"reconcile_interval"`
	} `yaml:"ledger"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	// Environment
	Environment string `yaml:"environment"` // "development" or "production"
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg := &Config{Environment: "development"}

	cfg.Server.Port = 3000
	cfg.Server.StaticDir = "./front-end"
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.Server.Scenarios = true

	cfg.Storage.Kind = StoreFile
	cfg.Storage.DataDir = "./data"
	cfg.Storage.SQLitePath = "ledger.db"
	cfg.Storage.Redis.Addr = "localhost:6379"
	cfg.Storage.Redis.Prefix = "ledger"

	cfg.Ledger.RankingStrategy = "rebuild"
	cfg.Ledger.TodayStats = true
	cfg.Ledger.ReconcileInterval = time.Minute

	cfg.Log.Level = "info"
	cfg.Log.Format = "text"

	return cfg
}

// Load builds the configuration from .env, the LEDGER_CONFIG file and the
// environment, then validates it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	if path := os.Getenv("LEDGER_CONFIG"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile decodes a YAML file over cfg. Keys absent from the file keep
// their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg with the environment variables that are set.
func (c *Config) ApplyEnv() error {
	setString(&c.Storage.Kind, "LEDGER_STORE")
	setString(&c.Storage.DataDir, "LEDGER_DATA_DIR")
	setString(&c.Storage.SQLitePath, "LEDGER_SQLITE_PATH")
	setString(&c.Storage.Redis.Addr, "REDIS_ADDR")
	setString(&c.Storage.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Storage.Redis.Prefix, "REDIS_PREFIX")
	setString(&c.Server.StaticDir, "LEDGER_STATIC_DIR")
	setString(&c.Ledger.RankingStrategy, "LEDGER_RANKING_STRATEGY")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
	setString(&c.Environment, "ENVIRONMENT")

	if err := setInt(&c.Server.Port, "PORT"); err != nil {
		return err
	}
	if err := setInt(&c.Storage.Redis.DB, "REDIS_DB"); err != nil {
		return err
	}
	if err := setBool(&c.Ledger.TodayStats, "LEDGER_TODAY_STATS"); err != nil {
		return err
	}
	if err := setBool(&c.Server.Scenarios, "LEDGER_SCENARIOS"); err != nil {
		return err
	}

	if v := os.Getenv("LEDGER_RECONCILE_INTERVAL"); v != "" {
		d, err := parseInterval(v)
		if err != nil {
			return fmt.Errorf("LEDGER_RECONCILE_INTERVAL: %w", err)
		}
		c.Ledger.ReconcileInterval = d
	}

	// Parse allowed origins
	if v := os.Getenv("LEDGER_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, origin := range strings.Split(v, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				origins = append(origins, origin)
			}
		}
		c.Server.AllowedOrigins = origins
	}

	return nil
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port)
	}

	switch c.Storage.Kind {
	case StoreFile:
		if c.Storage.DataDir == "" {
			return fmt.Errorf("data directory is required for the file store")
		}
	case StoreSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required for the sqlite store")
		}
	case StoreRedis:
		if c.Storage.Redis.Addr == "" {
			return fmt.Errorf("redis address is required for the redis store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store kind %q", c.Storage.Kind)
	}

	switch c.Ledger.RankingStrategy {
	case "", "rebuild", "incremental":
	default:
		return fmt.Errorf("unknown ranking strategy %q", c.Ledger.RankingStrategy)
	}

	if c.Ledger.ReconcileInterval < 0 {
		return fmt.Errorf("reconcile interval must not be negative")
	}

	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}

	return nil
}

// IsProduction reports whether the server runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// =============================================================================
// HELPERS
// =============================================================================

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s must be a boolean, got %q", key, v)
	}
	*dst = b
	return nil
}

// parseInterval accepts a Go duration ("30s", "1m") or a bare number of
// seconds.
func parseInterval(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(v)
}
