package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/jacentio/canopy/hierarchy"
	"github.com/jacentio/canopy/internal/config"
	"github.com/jacentio/canopy/store"
)

// clearEnv blanks every variable Load reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		config.EnvDriver, config.EnvPath, config.EnvTablePrefix, config.EnvEndpoint,
		config.EnvRegion, config.EnvShards, config.EnvLogLevel, config.EnvLevelPolicy,
	} {
		t.Setenv(k, "")
	}
}

func missing(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load(missing(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store != store.DefaultConfig() {
		t.Errorf("expected default store config, got %+v", cfg.Store)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("expected info level, got %v", cfg.LogLevel)
	}
	if cfg.LevelPolicy != hierarchy.LevelCascade {
		t.Errorf("expected cascade policy, got %v", cfg.LevelPolicy)
	}
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvDriver, "DynamoDB")
	t.Setenv(config.EnvTablePrefix, "dev_")
	t.Setenv(config.EnvEndpoint, "http://localhost:8000")
	t.Setenv(config.EnvRegion, "eu-north-1")
	t.Setenv(config.EnvShards, "4")
	t.Setenv(config.EnvLogLevel, "debug")
	t.Setenv(config.EnvLevelPolicy, "shallow")

	cfg, err := config.Load(missing(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := store.DefaultConfig()
	want.Driver = store.DriverDynamoDB
	want.TablePrefix = "dev_"
	want.Endpoint = "http://localhost:8000"
	want.Region = "eu-north-1"
	want.NumShards = 4
	if cfg.Store != want {
		t.Errorf("expected %+v, got %+v", want, cfg.Store)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", cfg.LogLevel)
	}
	if cfg.LevelPolicy != hierarchy.LevelShallow {
		t.Errorf("expected shallow policy, got %v", cfg.LevelPolicy)
	}
}

func TestLoad_ClampsShards(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvShards, "1000")

	cfg, err := config.Load(missing(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.NumShards != 256 {
		t.Errorf("expected 256 shards, got %d", cfg.Store.NumShards)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv(config.EnvPath)
	os.Unsetenv(config.EnvDriver)

	path := filepath.Join(t.TempDir(), ".env")
	content := "CANOPY_DB=/tmp/from-dotenv.db\nCANOPY_DRIVER=memory\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv(config.EnvPath)
		os.Unsetenv(config.EnvDriver)
	})

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Path != "/tmp/from-dotenv.db" {
		t.Errorf("expected path from .env, got %q", cfg.Store.Path)
	}
	if cfg.Store.Driver != store.DriverMemory {
		t.Errorf("expected memory driver, got %q", cfg.Store.Driver)
	}
}

func TestLoad_EnvironmentWinsOverDotEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvPath, "explicit.db")

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("CANOPY_DB=dotenv.db\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Path != "explicit.db" {
		t.Errorf("expected explicit.db, got %q", cfg.Store.Path)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "driver", key: config.EnvDriver, value: "postgres"},
		{name: "shards", key: config.EnvShards, value: "many"},
		{name: "log level", key: config.EnvLogLevel, value: "chatty"},
		{name: "level policy", key: config.EnvLevelPolicy, value: "deep"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := config.Load(missing(t)); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestSetters(t *testing.T) {
	cfg := &config.Config{}
	if err := cfg.SetDriver("SQLite"); err != nil || cfg.Store.Driver != store.DriverSQLite {
		t.Errorf("expected sqlite driver, got %q (err %v)", cfg.Store.Driver, err)
	}
	if err := cfg.SetLogLevel("WARN"); err != nil || cfg.LogLevel != slog.LevelWarn {
		t.Errorf("expected warn level, got %v (err %v)", cfg.LogLevel, err)
	}
}
