package config

import "time"

// Config is the root configuration for the sentinel daemon.
type Config struct {
	// Server configures the HTTP API listener.
	Server ServerConfig `yaml:"server"`

	// Rules configures where the rule set comes from.
	Rules RulesConfig `yaml:"rules"`

	// Decisions configures the decision trail.
	Decisions DecisionsConfig `yaml:"decisions"`

	// Engine configures evaluation behavior.
	Engine EngineConfig `yaml:"engine"`

	// Telemetry configures logging, metrics, and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// ListenAddress is the address the API listens on (e.g., ":8385").
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum keep-alive wait between requests.
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits request header size.
	MaxHeaderBytes int `yaml:"max_header_bytes"`
}

// RulesConfig selects and configures the rule source.
type RulesConfig struct {
	// Mode selects the rule source: "file", "git", or "sqlite".
	Mode string `yaml:"mode"`

	// FilePath is the rule file or directory for file mode.
	FilePath string `yaml:"file_path"`

	// Watch reloads rules when the file source changes (file mode).
	Watch bool `yaml:"watch"`

	// Git configures the git rule source (git mode).
	Git GitRulesConfig `yaml:"git"`

	// SQLite configures the administrative rule store (sqlite mode).
	SQLite SQLiteRulesConfig `yaml:"sqlite"`

	// MaxFileSize bounds the size of a single rule file in bytes.
	MaxFileSize int64 `yaml:"max_file_size"`

	// MaxConditionDepth bounds predicate nesting in rule files.
	MaxConditionDepth int `yaml:"max_condition_depth"`
}

// GitRulesConfig configures the git rule source.
type GitRulesConfig struct {
	// URL is the repository to pull rules from.
	URL string `yaml:"url"`

	// Branch is the branch to track. Default: "main".
	Branch string `yaml:"branch"`

	// Path is the rule directory inside the repository.
	Path string `yaml:"path"`

	// CloneDir is the local working copy location.
	CloneDir string `yaml:"clone_dir"`

	// PollInterval is how often to check for new commits.
	PollInterval time.Duration `yaml:"poll_interval"`

	// Token authenticates HTTPS remotes.
	Token string `yaml:"token"`

	// SSHKeyPath authenticates SSH remotes.
	SSHKeyPath string `yaml:"ssh_key_path"`
}

// SQLiteRulesConfig configures the SQLite rule store.
type SQLiteRulesConfig struct {
	// Path is the database file path.
	Path string `yaml:"path"`
}

// DecisionsConfig configures the decision trail.
type DecisionsConfig struct {
	// Backend selects the storage backend: "memory" or "sqlite".
	Backend string `yaml:"backend"`

	// SQLite configures the SQLite backend.
	SQLite SQLiteDecisionsConfig `yaml:"sqlite"`

	// AsyncBuffer is the recorder's write channel capacity.
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout bounds individual storage writes.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// Retention configures scheduled archival.
	Retention RetentionConfig `yaml:"retention"`
}

// SQLiteDecisionsConfig configures the SQLite decision backend.
type SQLiteDecisionsConfig struct {
	// Path is the database file path.
	Path string `yaml:"path"`
}

// RetentionConfig configures decision archival.
type RetentionConfig struct {
	// MaxAge is how long records stay in the live trail.
	MaxAge time.Duration `yaml:"max_age"`

	// ArchiveDir is where archives are written. Empty disables archival.
	ArchiveDir string `yaml:"archive_dir"`

	// Schedule is the cron expression for archival runs.
	Schedule string `yaml:"schedule"`
}

// EngineConfig configures evaluation behavior.
type EngineConfig struct {
	// MaxNormalizeDepth bounds recursive widening of decoded payloads.
	MaxNormalizeDepth int `yaml:"max_normalize_depth"`
}

// TelemetryConfig groups observability settings.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `yaml:"level"`

	// Format is "json" or "text".
	Format string `yaml:"format"`

	// RedactCommands removes raw command text from log output above
	// debug level.
	RedactCommands bool `yaml:"redact_commands"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled exposes the metrics handler.
	Enabled bool `yaml:"enabled"`

	// Path is the metrics endpoint path.
	Path string `yaml:"path"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	// Enabled turns on span export.
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector address.
	Endpoint string `yaml:"endpoint"`

	// SampleRatio is the trace sampling ratio in [0, 1].
	SampleRatio float64 `yaml:"sample_ratio"`
}
