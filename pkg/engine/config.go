package engine

import (
	"log/slog"

	"aoss-hq/sentinel/pkg/normalize"
)

// Config tunes the evaluator.
type Config struct {
	// MaxNormalizeDepth bounds recursive widening of decoded payloads.
	// Non-positive values fall back to the normalizer default.
	MaxNormalizeDepth int

	// Logger receives evaluation diagnostics. Raw command text only
	// appears at debug level.
	Logger *slog.Logger
}

// DefaultConfig returns the evaluator defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxNormalizeDepth: normalize.DefaultMaxDepth,
	}
}
