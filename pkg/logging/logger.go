// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer

	// File receives a JSON copy of every log line when set (e.g. app.log).
	File io.Writer

	// RunID is attached to every line as run_id when set.
	RunID string
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	level := ParseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	var output io.Writer = cfg.Output
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: cfg.Output}
	}
	if cfg.File != nil {
		// The file copy always stays JSON so it can be grepped and shipped.
		output = zerolog.MultiLevelWriter(output, cfg.File)
	}

	ctx := zerolog.New(output).With().Timestamp()
	if cfg.RunID != "" {
		ctx = ctx.Str("run_id", cfg.RunID)
	}
	logger := ctx.Logger()

	log.Logger = logger

	return logger
}

// ParseLevel converts LogLevel to zerolog.Level. Unknown values map to info.
func ParseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Per-serial request start and success
//   - Cache hit/miss per serial
//   - Pacing delays
//
// Info: Normal operation events
//   - Run start/finish and configuration summary
//   - Shard start/finish with success and failure counts
//   - Progress lines while aggregating and writing
//
// Warn: Conditions that cost one row its data but not the run
//   - Non-200 responses from the lookup API
//   - Payloads that carry no attribute list
//   - Rows written without attributes
//   - Cache errors (fallback to direct request)
//
// Error: Error conditions requiring attention
//   - Transport failures (timeouts, DNS, connection resets, invalid JSON)
//   - Unreadable input or unwritable output
//
// Context Fields:
//   - component: emitting package (lookup-client, batch, report, pipeline, cache)
//   - run_id: identifier of one invocation
//   - serial: device serial number
//   - shard: shard index
//   - status: HTTP status code
//   - error_class: client, server, unexpected, network, decode
//   - duration: request or phase duration
