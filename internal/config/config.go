// Package config loads the device-lookup configuration from environment
// variables, overridden by command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/device-lookup/pkg/batch"
	"github.com/Sternrassler/device-lookup/pkg/cache"
	"github.com/Sternrassler/device-lookup/pkg/client"
	"github.com/Sternrassler/device-lookup/pkg/logging"
	"github.com/Sternrassler/device-lookup/pkg/pipeline"
	"github.com/Sternrassler/device-lookup/pkg/ratelimit"
	"github.com/Sternrassler/device-lookup/pkg/serials"
	"github.com/Sternrassler/device-lookup/pkg/sheet"
)

// ErrInvalid is wrapped by every validation and parse failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the complete run configuration.
type Config struct {
	Input       string
	Output      string
	Sheet       string
	BaseURL     string
	Placeholder string
	UserAgent   string
	SortHeader  bool

	Shards       int
	Concurrency  int
	PacingMin    time.Duration
	PacingMax    time.Duration
	FetchTimeout time.Duration

	RedisURL string
	CacheTTL time.Duration

	MetricsAddr string

	LogLevel  string
	LogPretty bool
	LogFile   string
}

// Load reads the environment and then parses args (without the program
// name) on top of it. Usage output goes to out. flag.ErrHelp is returned
// unwrapped for -h.
func Load(args []string, out io.Writer) (Config, error) {
	var cfg Config
	var envErrs []error

	fs := flag.NewFlagSet("device-lookup", flag.ContinueOnError)
	fs.SetOutput(out)

	fs.StringVar(&cfg.Input, "input", envOrDefault("LOOKUP_INPUT", "input_file.xlsx"), "Input file (.xlsx or .csv), serials in column A")
	fs.StringVar(&cfg.Output, "output", envOrDefault("LOOKUP_OUTPUT", "output_file.xlsx"), "Output file (.xlsx or .csv)")
	fs.StringVar(&cfg.Sheet, "sheet", envOrDefault("LOOKUP_SHEET", sheet.DefaultSheetName), "Output worksheet name")
	fs.StringVar(&cfg.BaseURL, "base-url", envOrDefault("LOOKUP_BASE_URL", client.DefaultBaseURL), "Lookup API endpoint")
	fs.StringVar(&cfg.Placeholder, "placeholder", envOrDefault("LOOKUP_PLACEHOLDER", serials.DefaultPlaceholder), "Rows containing this token are skipped (case-insensitive)")
	fs.StringVar(&cfg.UserAgent, "user-agent", envOrDefault("LOOKUP_USER_AGENT", "device-lookup/0.1.0"), "User-Agent header")
	fs.BoolVar(&cfg.SortHeader, "sort-header", envBoolOrDefault("LOOKUP_SORT_HEADER", false, &envErrs), "Sort attribute columns alphabetically")

	def := batch.DefaultConfig()
	fs.IntVar(&cfg.Shards, "shards", envIntOrDefault("LOOKUP_SHARDS", def.Shards, &envErrs), "Number of parallel shards")
	fs.IntVar(&cfg.Concurrency, "concurrency", envIntOrDefault("LOOKUP_CONCURRENCY", def.Concurrency, &envErrs), "Concurrent lookups per shard")
	fs.DurationVar(&cfg.PacingMin, "pacing-min", envDurationOrDefault("LOOKUP_PACING_MIN", ratelimit.DefaultMinDelay, &envErrs), "Minimum delay before each request")
	fs.DurationVar(&cfg.PacingMax, "pacing-max", envDurationOrDefault("LOOKUP_PACING_MAX", ratelimit.DefaultMaxDelay, &envErrs), "Maximum delay before each request (exclusive)")
	fs.DurationVar(&cfg.FetchTimeout, "fetch-timeout", envDurationOrDefault("LOOKUP_FETCH_TIMEOUT", def.FetchTimeout, &envErrs), "Timeout per lookup, pacing included")

	fs.StringVar(&cfg.RedisURL, "redis", envOrDefault("REDIS_URL", ""), "Redis URL or host:port for the response cache (empty disables caching)")
	fs.DurationVar(&cfg.CacheTTL, "cache-ttl", envDurationOrDefault("LOOKUP_CACHE_TTL", cache.DefaultTTL, &envErrs), "Response cache TTL")

	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", envOrDefault("METRICS_ADDR", ""), "Serve Prometheus metrics on this address (empty disables)")

	fs.StringVar(&cfg.LogLevel, "log-level", envOrDefault("LOG_LEVEL", string(logging.LevelInfo)), "Log level: debug, info, warn, error")
	fs.BoolVar(&cfg.LogPretty, "log-pretty", envBoolOrDefault("LOG_PRETTY", false, &envErrs), "Human-readable console logs")
	fs.StringVar(&cfg.LogFile, "log-file", envOrDefault("LOG_FILE", "app.log"), "Also append logs to this file (empty disables)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return Config{}, err
		}
		return Config{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if fs.NArg() > 0 {
		return Config{}, fmt.Errorf("%w: unexpected arguments %q", ErrInvalid, fs.Args())
	}
	if err := errors.Join(envErrs...); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the run cannot start with.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Input) == "" {
		errs = append(errs, errors.New("input path is required"))
	}
	if strings.TrimSpace(c.Output) == "" {
		errs = append(errs, errors.New("output path is required"))
	}
	if c.Shards < 1 {
		errs = append(errs, fmt.Errorf("shards must be >= 1 (got %d)", c.Shards))
	}
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be >= 1 (got %d)", c.Concurrency))
	}
	if c.PacingMin < 0 || c.PacingMax < c.PacingMin {
		errs = append(errs, fmt.Errorf("pacing window must satisfy 0 <= min <= max (got [%v, %v])", c.PacingMin, c.PacingMax))
	}
	if c.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("fetch timeout must be > 0 (got %v)", c.FetchTimeout))
	} else if c.PacingMax >= c.FetchTimeout {
		// The pacing delay runs inside the per-fetch timeout.
		errs = append(errs, fmt.Errorf("pacing max must be below the fetch timeout (got %v >= %v)", c.PacingMax, c.FetchTimeout))
	}
	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("base url must be absolute (got %q)", c.BaseURL))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.LogLevel))
	}
	if c.RedisURL != "" && c.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("cache ttl must be > 0 (got %v)", c.CacheTTL))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// Pipeline returns the pipeline section of the configuration.
func (c Config) Pipeline() pipeline.Config {
	return pipeline.Config{
		InputPath:   c.Input,
		OutputPath:  c.Output,
		SheetName:   c.Sheet,
		Placeholder: c.Placeholder,
		SortHeader:  c.SortHeader,
		Batch: batch.Config{
			Shards:       c.Shards,
			Concurrency:  c.Concurrency,
			FetchTimeout: c.FetchTimeout,
		},
	}
}

// Client returns the lookup client configuration, without cache or logger.
func (c Config) Client() client.Config {
	cfg := client.DefaultConfig(c.BaseURL)
	cfg.UserAgent = c.UserAgent
	cfg.PacingMin = c.PacingMin
	cfg.PacingMax = c.PacingMax
	return cfg
}

func envOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envIntOrDefault(key string, def int, errs *[]error) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %q is not an integer", key, v))
		return def
	}
	return n
}

func envDurationOrDefault(key string, def time.Duration, errs *[]error) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %q is not a duration", key, v))
		return def
	}
	return d
}

func envBoolOrDefault(key string, def bool, errs *[]error) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %q is not a boolean", key, v))
		return def
	}
	return b
}
