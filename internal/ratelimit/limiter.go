// Package ratelimit paces outgoing requests to remote catalogs.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// Limiter wraps rate.Limiter with the provider name it throttles.
type Limiter struct {
	limiter *rate.Limiter
	name    string
}

// New creates a limiter allowing perSecond requests per second with a burst
// of one. A non-positive rate disables limiting.
func New(name string, perSecond float64) *Limiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	return &Limiter{
		limiter: rate.NewLimiter(limit, 1),
		name:    name,
	}
}

// Wait blocks until the next request may proceed or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	reservation := l.limiter.Reserve()
	delay := reservation.Delay()
	if delay == 0 {
		return nil
	}

	slog.Debug("Waiting for rate limit", "provider", l.name, "delay", delay)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		reservation.Cancel()
		return fmt.Errorf("rate limit wait for %s: %w", l.name, ctx.Err())
	}
}
