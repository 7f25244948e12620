package gitlab

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/kmensah/gitlab-insights/internal/errors"
)

// Limiter paces every outbound request of a client at a minimum interval of
// 1/rate, so the admission rate inside any sliding one-second window never
// exceeds the configured ceiling, including the first second after startup.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
}

// NewLimiter creates a limiter with the given requests-per-second ceiling.
func NewLimiter(requestsPerSecond float64) *Limiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &Limiter{
		interval: time.Duration(float64(time.Second) / requestsPerSecond),
	}
}

// Acquire blocks until the caller's admission slot arrives or the context is
// done. A context deadline elapsing first surfaces as a DeadlineExceeded
// error; the reserved slot is forfeited, never handed to a later caller.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return apperrors.NewDeadlineExceededError("rate limiter acquire aborted", err)
	}

	l.mu.Lock()
	now := time.Now()
	at := l.next
	if at.Before(now) {
		at = now
	}
	l.next = at.Add(l.interval)
	l.mu.Unlock()

	wait := at.Sub(now)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return apperrors.NewDeadlineExceededError("rate limiter acquire aborted", ctx.Err())
	case <-timer.C:
		return nil
	}
}
