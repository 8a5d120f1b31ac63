// Package client provides the lookup API client: one GET per serial number,
// paced by a randomized delay, with every failure mode folded into an Outcome.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Sternrassler/device-lookup/pkg/cache"
	"github.com/Sternrassler/device-lookup/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for lookup client operations.
var (
	lookupRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lookup_requests_total",
		Help: "Total lookup requests by HTTP status",
	}, []string{"status"})

	lookupRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lookup_request_duration_seconds",
		Help:    "Lookup request duration in seconds, pacing excluded",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})

	lookupErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lookup_errors_total",
		Help: "Total lookup failures by class",
	}, []string{"class"})

	lookupMalformedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lookup_malformed_payloads_total",
		Help: "Total 200 responses without a usable attribute list",
	})
)

// DefaultBaseURL is the production device lookup endpoint.
const DefaultBaseURL = "https://pick.krohne.com/api/modern/device"

// maxErrorBodyDrain bounds how much of a non-200 body is read before closing,
// enough to let the connection be reused.
const maxErrorBodyDrain = 64 * 1024

// ResponseCache stores raw 200 bodies by serial. Lookup returns
// cache.ErrCacheMiss when nothing is stored.
type ResponseCache interface {
	Lookup(ctx context.Context, serial string) ([]byte, error)
	Store(ctx context.Context, serial string, body []byte) error
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the lookup endpoint; the serial is sent as ?serial=<id>.
	BaseURL string

	// UserAgent header sent with every request.
	UserAgent string

	// Pacing window for the randomized pre-request delay.
	PacingMin time.Duration
	PacingMax time.Duration

	// Timeout bounds each HTTP exchange, body included.
	Timeout time.Duration

	// Cache is optional; nil disables response caching.
	Cache ResponseCache

	// Logger overrides the component logger derived from the global one.
	Logger *zerolog.Logger
}

// DefaultConfig returns the reference configuration for baseURL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:   baseURL,
		UserAgent: "device-lookup/0.1.0",
		PacingMin: ratelimit.DefaultMinDelay,
		PacingMax: ratelimit.DefaultMaxDelay,
		Timeout:   30 * time.Second,
	}
}

// Client looks up device serials against the remote API.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	pacer      *ratelimit.Pacer
	cache      ResponseCache
	config     Config
	logger     zerolog.Logger
}

// New creates a new lookup client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url must be absolute (got %q)", cfg.BaseURL)
	}

	if cfg.PacingMin < 0 || cfg.PacingMax < cfg.PacingMin {
		return nil, fmt.Errorf("invalid pacing window [%v, %v)", cfg.PacingMin, cfg.PacingMax)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger := log.With().Str("component", "lookup-client").Logger()
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("component", "lookup-client").Logger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: base,
		pacer:   ratelimit.NewPacer(cfg.PacingMin, cfg.PacingMax),
		cache:   cfg.Cache,
		config:  cfg,
		logger:  logger,
	}, nil
}

// URL returns the request URL for serial.
func (c *Client) URL(serial string) string {
	u := *c.baseURL
	q := u.Query()
	q.Set("serial", serial)
	u.RawQuery = q.Encode()
	return u.String()
}

// Fetch looks up one serial. It never returns an error or panics: every
// failure is reported through the Outcome so one bad serial cannot abort a
// batch.
func (c *Client) Fetch(ctx context.Context, serial string) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Str("serial", serial).Interface("panic", r).Msg("Lookup panicked")
			out = c.transportFailure(serial, ErrorClassNetwork, fmt.Errorf("panic: %v", r))
		}
	}()

	if out, ok := c.fromCache(ctx, serial); ok {
		return out
	}

	delay, err := c.pacer.Wait(ctx)
	if err != nil {
		return c.transportFailure(serial, ErrorClassNetwork, fmt.Errorf("pacing wait: %w", err))
	}

	target := c.URL(serial)
	c.logger.Debug().
		Str("serial", serial).
		Dur("pacing", delay).
		Msg("Starting lookup request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return c.transportFailure(serial, ErrorClassNetwork, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		lookupRequestDuration.Observe(time.Since(start).Seconds())
		lookupRequestsTotal.WithLabelValues("network_error").Inc()
		return c.transportFailure(serial, ErrorClassNetwork, err)
	}
	defer resp.Body.Close()

	lookupRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		lookupRequestDuration.Observe(time.Since(start).Seconds())
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodyDrain))

		httpErr := &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status}
		lookupErrorsTotal.WithLabelValues(string(httpErr.Class())).Inc()
		c.logger.Warn().
			Str("serial", serial).
			Str("url", target).
			Int("status", resp.StatusCode).
			Str("error_class", string(httpErr.Class())).
			Msg("Lookup returned non-200 status")
		return Failure(serial, httpErr)
	}

	body, err := io.ReadAll(resp.Body)
	lookupRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return c.transportFailure(serial, ErrorClassNetwork, fmt.Errorf("read response body: %w", err))
	}

	out, ok := c.decode(serial, body)
	if !ok {
		return out
	}

	c.store(ctx, serial, body)

	c.logger.Debug().
		Str("serial", serial).
		Int("status", resp.StatusCode).
		Int("attributes", out.Attributes.Len()).
		Dur("duration", time.Since(start)).
		Msg("Lookup succeeded")

	return out
}

// decode parses a 200 body. A malformed payload still counts as a success
// with no attributes; invalid JSON is a transport failure.
func (c *Client) decode(serial string, body []byte) (Outcome, bool) {
	attrs, err := ParseAttributes(body)
	switch {
	case err == nil:
		return Success(serial, attrs), true
	case errors.Is(err, ErrMalformedPayload):
		lookupMalformedTotal.Inc()
		c.logger.Warn().
			Err(err).
			Str("serial", serial).
			Msg("Unexpected data format, no attributes extracted")
		return Success(serial, attrs), true
	default:
		return c.transportFailure(serial, ErrorClassDecode, err), false
	}
}

func (c *Client) fromCache(ctx context.Context, serial string) (Outcome, bool) {
	if c.cache == nil {
		return Outcome{}, false
	}

	body, err := c.cache.Lookup(ctx, serial)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("serial", serial).Msg("Cache lookup failed, fetching directly")
		}
		return Outcome{}, false
	}

	attrs, err := ParseAttributes(body)
	if err != nil && !errors.Is(err, ErrMalformedPayload) {
		c.logger.Warn().Err(err).Str("serial", serial).Msg("Cached body unreadable, fetching directly")
		return Outcome{}, false
	}
	out := Success(serial, attrs)
	out.Cached = true

	c.logger.Debug().Str("serial", serial).Msg("Lookup served from cache")
	return out, true
}

func (c *Client) store(ctx context.Context, serial string, body []byte) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Store(ctx, serial, body); err != nil {
		c.logger.Warn().Err(err).Str("serial", serial).Msg("Failed to cache response")
	}
}

func (c *Client) transportFailure(serial string, class ErrorClass, cause error) Outcome {
	lookupErrorsTotal.WithLabelValues(string(class)).Inc()
	c.logger.Error().
		Err(cause).
		Str("serial", serial).
		Str("error_class", string(class)).
		Msg("Lookup request failed")
	return Failure(serial, &TransportError{ErrorClass: class, Cause: cause})
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
