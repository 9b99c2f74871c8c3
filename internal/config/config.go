// Package config loads console configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/jacentio/canopy/hierarchy"
	"github.com/jacentio/canopy/store"
)

// Environment variables read by Load.
const (
	EnvDriver      = "CANOPY_DRIVER"
	EnvPath        = "CANOPY_DB"
	EnvTablePrefix = "CANOPY_TABLE_PREFIX"
	EnvEndpoint    = "CANOPY_DYNAMODB_ENDPOINT"
	EnvRegion      = "AWS_REGION"
	EnvShards      = "CANOPY_SHARDS"
	EnvLogLevel    = "CANOPY_LOG_LEVEL"
	EnvLevelPolicy = "CANOPY_LEVEL_POLICY"
)

// Config is the resolved console configuration. Build it with Load.
type Config struct {
	Store       store.Config
	LogLevel    slog.Level
	LevelPolicy hierarchy.LevelPolicy
}

// Load reads the given dotenv files (".env" when none are named) into the
// process environment and builds a Config from it. Missing files are
// skipped; variables already set in the environment win.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{Store: store.DefaultConfig()}
	cfg.Store.Driver = getEnv(EnvDriver, cfg.Store.Driver)
	cfg.Store.Path = getEnv(EnvPath, cfg.Store.Path)
	cfg.Store.TablePrefix = getEnv(EnvTablePrefix, "")
	cfg.Store.Endpoint = getEnv(EnvEndpoint, "")
	cfg.Store.Region = getEnv(EnvRegion, cfg.Store.Region)

	if v := os.Getenv(EnvShards); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvShards, err)
		}
		cfg.Store.NumShards = n
	}

	if err := cfg.SetDriver(cfg.Store.Driver); err != nil {
		return nil, err
	}
	if err := cfg.SetLogLevel(getEnv(EnvLogLevel, "info")); err != nil {
		return nil, err
	}

	policy, err := hierarchy.ParseLevelPolicy(os.Getenv(EnvLevelPolicy))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", EnvLevelPolicy, err)
	}
	cfg.LevelPolicy = policy

	cfg.Store.Validate()
	return cfg, nil
}

// SetDriver selects the storage driver.
func (c *Config) SetDriver(driver string) error {
	switch driver = strings.ToLower(driver); driver {
	case store.DriverSQLite, store.DriverDynamoDB, store.DriverMemory:
		c.Store.Driver = driver
		return nil
	}
	return fmt.Errorf("unknown driver %q", driver)
}

// SetLogLevel parses a slog level name such as "debug" or "warn".
func (c *Config) SetLogLevel(level string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	c.LogLevel = l
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
