// Package ratelimit implements client-side pacing for the lookup API.
// Every request waits for a randomized delay first so that many parallel
// workers do not hit the remote service in lockstep.
package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var pacingDelaySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "lookup_pacing_delay_seconds",
	Help:    "Randomized delay applied before each lookup request",
	Buckets: []float64{0.1, 0.5, 1, 1.5, 2, 2.5, 3, 5},
})

// Default pacing window.
const (
	DefaultMinDelay = 1 * time.Second
	DefaultMaxDelay = 3 * time.Second
)

// Pacer draws a delay uniformly from [Min, Max) for every request.
// It is safe for concurrent use; each call draws independently.
type Pacer struct {
	min time.Duration
	max time.Duration

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewPacer creates a pacer for the given window. A max below min collapses
// the window to min; negative values are treated as zero.
func NewPacer(min, max time.Duration) *Pacer {
	if min < 0 {
		min = 0
	}
	if max < min {
		max = min
	}
	return &Pacer{
		min: min,
		max: max,
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Window returns the configured [min, max) bounds.
func (p *Pacer) Window() (time.Duration, time.Duration) {
	return p.min, p.max
}

// Next returns the next delay without sleeping.
func (p *Pacer) Next() time.Duration {
	span := p.max - p.min
	if span <= 0 {
		return p.min
	}

	p.mu.Lock()
	offset := time.Duration(p.rnd.Int63n(int64(span)))
	p.mu.Unlock()

	return p.min + offset
}

// Wait sleeps for the next delay or until ctx is done. It returns the delay
// that was drawn and ctx.Err() if the wait was cut short.
func (p *Pacer) Wait(ctx context.Context) (time.Duration, error) {
	delay := p.Next()
	pacingDelaySeconds.Observe(delay.Seconds())

	if delay <= 0 {
		return 0, ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return delay, ctx.Err()
	case <-timer.C:
		return delay, nil
	}
}
