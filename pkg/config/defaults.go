package config

import "time"

// Default values applied to fields the config file leaves unset.
const (
	DefaultListenAddress   = ":8385"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultMaxHeaderBytes  = 1 << 20

	DefaultRulesMode         = "file"
	DefaultRulesFilePath     = "rules"
	DefaultGitBranch         = "main"
	DefaultGitPollInterval   = time.Minute
	DefaultMaxFileSize       = 1 << 20
	DefaultMaxConditionDepth = 10

	DefaultDecisionsBackend = "sqlite"
	DefaultDecisionsPath    = "data/decisions.db"
	DefaultAsyncBuffer      = 1000
	DefaultDecisionsTimeout = 5 * time.Second
	DefaultRetentionMaxAge  = 90 * 24 * time.Hour
	DefaultRetentionCron    = "0 3 * * *"

	DefaultLogLevel    = "info"
	DefaultLogFormat   = "json"
	DefaultMetricsPath = "/metrics"
	DefaultSampleRatio = 0.1
)

// DefaultConfig returns a fully defaulted configuration.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills unset fields with defaults in place.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}

	if cfg.Rules.Mode == "" {
		cfg.Rules.Mode = DefaultRulesMode
	}
	if cfg.Rules.FilePath == "" {
		cfg.Rules.FilePath = DefaultRulesFilePath
	}
	if cfg.Rules.Git.Branch == "" {
		cfg.Rules.Git.Branch = DefaultGitBranch
	}
	if cfg.Rules.Git.PollInterval == 0 {
		cfg.Rules.Git.PollInterval = DefaultGitPollInterval
	}
	if cfg.Rules.MaxFileSize == 0 {
		cfg.Rules.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.Rules.MaxConditionDepth == 0 {
		cfg.Rules.MaxConditionDepth = DefaultMaxConditionDepth
	}

	if cfg.Decisions.Backend == "" {
		cfg.Decisions.Backend = DefaultDecisionsBackend
	}
	if cfg.Decisions.SQLite.Path == "" {
		cfg.Decisions.SQLite.Path = DefaultDecisionsPath
	}
	if cfg.Decisions.AsyncBuffer == 0 {
		cfg.Decisions.AsyncBuffer = DefaultAsyncBuffer
	}
	if cfg.Decisions.WriteTimeout == 0 {
		cfg.Decisions.WriteTimeout = DefaultDecisionsTimeout
	}
	if cfg.Decisions.Retention.MaxAge == 0 {
		cfg.Decisions.Retention.MaxAge = DefaultRetentionMaxAge
	}
	if cfg.Decisions.Retention.Schedule == "" {
		cfg.Decisions.Retention.Schedule = DefaultRetentionCron
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultSampleRatio
	}
}
