package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file, applies defaults,
// and validates the result. Environment variables are not consulted;
// use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies SENTINEL_SECTION_FIELD environment overrides on top.
// Environment variables always win over file values.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	// Server
	if val := os.Getenv("SENTINEL_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if d, ok := envDuration("SENTINEL_SERVER_READ_TIMEOUT"); ok {
		cfg.Server.ReadTimeout = d
	}
	if d, ok := envDuration("SENTINEL_SERVER_WRITE_TIMEOUT"); ok {
		cfg.Server.WriteTimeout = d
	}
	if d, ok := envDuration("SENTINEL_SERVER_SHUTDOWN_TIMEOUT"); ok {
		cfg.Server.ShutdownTimeout = d
	}

	// Rules
	if val := os.Getenv("SENTINEL_RULES_MODE"); val != "" {
		cfg.Rules.Mode = val
	}
	if val := os.Getenv("SENTINEL_RULES_FILE_PATH"); val != "" {
		cfg.Rules.FilePath = val
	}
	if b, ok := envBool("SENTINEL_RULES_WATCH"); ok {
		cfg.Rules.Watch = b
	}
	if val := os.Getenv("SENTINEL_RULES_GIT_URL"); val != "" {
		cfg.Rules.Git.URL = val
	}
	if val := os.Getenv("SENTINEL_RULES_GIT_BRANCH"); val != "" {
		cfg.Rules.Git.Branch = val
	}
	if val := os.Getenv("SENTINEL_RULES_GIT_TOKEN"); val != "" {
		cfg.Rules.Git.Token = val
	}
	if val := os.Getenv("SENTINEL_RULES_SQLITE_PATH"); val != "" {
		cfg.Rules.SQLite.Path = val
	}

	// Decisions
	if val := os.Getenv("SENTINEL_DECISIONS_BACKEND"); val != "" {
		cfg.Decisions.Backend = val
	}
	if val := os.Getenv("SENTINEL_DECISIONS_SQLITE_PATH"); val != "" {
		cfg.Decisions.SQLite.Path = val
	}
	if d, ok := envDuration("SENTINEL_DECISIONS_RETENTION_MAX_AGE"); ok {
		cfg.Decisions.Retention.MaxAge = d
	}
	if val := os.Getenv("SENTINEL_DECISIONS_RETENTION_ARCHIVE_DIR"); val != "" {
		cfg.Decisions.Retention.ArchiveDir = val
	}

	// Telemetry
	if val := os.Getenv("SENTINEL_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("SENTINEL_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if b, ok := envBool("SENTINEL_TELEMETRY_METRICS_ENABLED"); ok {
		cfg.Telemetry.Metrics.Enabled = b
	}
	if b, ok := envBool("SENTINEL_TELEMETRY_TRACING_ENABLED"); ok {
		cfg.Telemetry.Tracing.Enabled = b
	}
	if val := os.Getenv("SENTINEL_TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
}

func envDuration(name string) (time.Duration, bool) {
	val := os.Getenv(name)
	if val == "" {
		return 0, false
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, false
	}
	return d, true
}

func envBool(name string) (bool, bool) {
	val := os.Getenv(name)
	if val == "" {
		return false, false
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, false
	}
	return b, true
}
