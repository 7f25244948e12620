package gitlab

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/kmensah/gitlab-insights/internal/config"
	apperrors "github.com/kmensah/gitlab-insights/internal/errors"
)

// Classification is the retry policy's verdict on a failed attempt.
type Classification int

const (
	// Retryable failures are retried locally up to MaxAttempts.
	Retryable Classification = iota
	// Fatal failures propagate immediately.
	Fatal
)

// RetryPolicy computes retry decisions and backoff delays. It is a pure
// function over the attempt result and attempt count; the paginator drives
// the loop.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRetryPolicy creates a policy from the resolved configuration.
func NewRetryPolicy(cfg config.RetryConfig) *RetryPolicy {
	p := &RetryPolicy{
		MaxAttempts:    cfg.MaxAttempts,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
		Multiplier:     cfg.Multiplier,
		rnd:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = time.Second
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = time.Minute
	}
	if p.Multiplier <= 1 {
		p.Multiplier = 2.0
	}
	return p
}

// Classify maps an attempt failure to a retry verdict. Transient network
// failures and rate limit responses are retryable; everything else,
// authentication and malformed-request failures included, is fatal.
func (p *RetryPolicy) Classify(err error) Classification {
	if apperrors.Retryable(err) {
		return Retryable
	}
	return Fatal
}

// NextDelay computes the backoff before retry number attempt (1-based count
// of failures so far): exponential doubling from the initial backoff with
// jitter in [delay/2, delay], capped at the maximum. A server retry-after
// hint carried by err is used verbatim when it exceeds the computed delay.
func (p *RetryPolicy) NextDelay(attempt int, err error) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(p.InitialBackoff) * math.Pow(p.Multiplier, float64(attempt-1))
	if delay > float64(p.MaxBackoff) {
		delay = float64(p.MaxBackoff)
	}

	p.mu.Lock()
	jittered := delay/2 + p.rnd.Float64()*delay/2
	p.mu.Unlock()

	computed := time.Duration(jittered)
	if hint, ok := apperrors.RetryAfterHint(err); ok && hint > computed {
		return hint
	}
	return computed
}
