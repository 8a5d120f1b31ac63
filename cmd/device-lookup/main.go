package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Sternrassler/device-lookup/internal/config"
	"github.com/Sternrassler/device-lookup/pkg/cache"
	"github.com/Sternrassler/device-lookup/pkg/client"
	"github.com/Sternrassler/device-lookup/pkg/logging"
	"github.com/Sternrassler/device-lookup/pkg/metrics"
	"github.com/Sternrassler/device-lookup/pkg/pipeline"
	"github.com/Sternrassler/device-lookup/pkg/report"
	"github.com/Sternrassler/device-lookup/pkg/serials"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitConfig  = 2
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stderr))
}

// run executes one lookup run and returns the process exit code. Per-serial
// lookup failures do not change the exit code.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	cfg, err := config.Load(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "device-lookup: %v\n", err)
		return exitConfig
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.LogLevel(cfg.LogLevel)
	logCfg.Pretty = cfg.LogPretty
	logCfg.Output = stderr
	logCfg.RunID = uuid.NewString()
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(stderr, "device-lookup: log file disabled: %v\n", err)
		} else {
			defer f.Close()
			logCfg.File = f
		}
	}
	logger := logging.Setup(logCfg)

	logger.Info().
		Str("input", cfg.Input).
		Str("output", cfg.Output).
		Str("base_url", cfg.BaseURL).
		Int("shards", cfg.Shards).
		Int("concurrency", cfg.Concurrency).
		Dur("pacing_min", cfg.PacingMin).
		Dur("pacing_max", cfg.PacingMax).
		Bool("cache", cfg.RedisURL != "").
		Msg("Starting device lookup")

	if cfg.MetricsAddr != "" {
		srv := metrics.NewServer(cfg.MetricsAddr, logger)
		srv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn().Err(err).Msg("Metrics server shutdown failed")
			}
		}()
	}

	clientCfg := cfg.Client()
	clientCfg.Logger = &logger

	if cfg.RedisURL != "" {
		redisClient, err := connectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error().Err(err).Str("redis", cfg.RedisURL).Msg("Failed to connect to Redis")
			return exitFailure
		}
		defer redisClient.Close()

		logger.Info().Str("redis", cfg.RedisURL).Dur("ttl", cfg.CacheTTL).Msg("Response cache enabled")
		clientCfg.Cache = cache.NewResponseCache(cache.NewManager(redisClient), cfg.BaseURL, cfg.CacheTTL)
	}

	lookup, err := client.New(clientCfg)
	if err != nil {
		logger.Error().Err(err).Msg("Invalid client configuration")
		return exitConfig
	}

	summary, err := pipeline.Run(ctx, cfg.Pipeline(), lookup, logger)
	if err != nil {
		return exitCode(logger, err)
	}

	logger.Info().
		Int("total", summary.Total).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Dur("duration", summary.Duration).
		Msg("Device lookup finished")
	return exitOK
}

func exitCode(logger zerolog.Logger, err error) int {
	var inputErr *serials.InputError
	var outputErr *report.OutputError

	switch {
	case errors.As(err, &inputErr):
		logger.Error().Err(err).Str("path", inputErr.Path).Msg("Failed to read input")
	case errors.As(err, &outputErr):
		logger.Error().Err(err).Str("path", outputErr.Path).Msg("Failed to write report")
	default:
		logger.Error().Err(err).Msg("Run failed")
	}
	return exitFailure
}

// connectRedis accepts a redis:// URL or a bare host:port and pings the
// server before returning.
func connectRedis(ctx context.Context, target string) (*redis.Client, error) {
	opts := &redis.Options{Addr: target}
	if strings.Contains(target, "://") {
		parsed, err := redis.ParseURL(target)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	}

	redisClient := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := cache.NewManager(redisClient).Ping(pingCtx); err != nil {
		redisClient.Close()
		return nil, err
	}
	return redisClient, nil
}
