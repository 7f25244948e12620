package gitlab

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kmensah/gitlab-insights/internal/config"
	apperrors "github.com/kmensah/gitlab-insights/internal/errors"
)

func testPolicy() *RetryPolicy {
	return NewRetryPolicy(config.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Second,
		MaxBackoff:     60 * time.Second,
		Multiplier:     2.0,
	})
}

func TestClassify(t *testing.T) {
	policy := testPolicy()

	tests := []struct {
		name string
		err  error
		want Classification
	}{
		{"transient network", apperrors.NewTransientNetworkError("connection reset", nil), Retryable},
		{"rate limit", apperrors.NewRateLimitError(time.Second, 100, 0), Retryable},
		{"authentication", apperrors.NewAuthenticationError("bad token", nil), Fatal},
		{"authorization", apperrors.NewAuthorizationError("forbidden", nil), Fatal},
		{"not found", apperrors.NewNotFoundError("missing", nil), Fatal},
		{"validation", apperrors.NewValidationError("bad request", nil), Fatal},
		{"pagination", apperrors.NewPaginationError("issues", 3, "short page"), Fatal},
		{"untyped", errors.New("mystery"), Fatal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.Classify(tt.err))
		})
	}
}

func TestNextDelayJitterBounds(t *testing.T) {
	policy := testPolicy()
	err := apperrors.NewTransientNetworkError("boom", nil)

	// attempt 1: base 1s, jittered into [500ms, 1s]
	for i := 0; i < 50; i++ {
		delay := policy.NextDelay(1, err)
		assert.GreaterOrEqual(t, delay, 500*time.Millisecond)
		assert.LessOrEqual(t, delay, time.Second)
	}

	// attempt 3: base 4s, jittered into [2s, 4s]
	for i := 0; i < 50; i++ {
		delay := policy.NextDelay(3, err)
		assert.GreaterOrEqual(t, delay, 2*time.Second)
		assert.LessOrEqual(t, delay, 4*time.Second)
	}
}

func TestNextDelayCappedAtMax(t *testing.T) {
	policy := testPolicy()
	err := apperrors.NewTransientNetworkError("boom", nil)

	// attempt 20 would be ~145 hours uncapped.
	for i := 0; i < 20; i++ {
		delay := policy.NextDelay(20, err)
		assert.LessOrEqual(t, delay, 60*time.Second)
		assert.GreaterOrEqual(t, delay, 30*time.Second)
	}
}

func TestNextDelayHonorsRetryAfterHint(t *testing.T) {
	policy := testPolicy()

	// A server hint beyond the computed backoff is used verbatim.
	rateLimited := apperrors.NewRateLimitError(30*time.Second, 100, 0)
	assert.Equal(t, 30*time.Second, policy.NextDelay(1, rateLimited))

	// A hint below the computed backoff does not shorten the wait.
	shortHint := apperrors.NewRateLimitError(time.Millisecond, 100, 0)
	delay := policy.NextDelay(1, shortHint)
	assert.GreaterOrEqual(t, delay, 500*time.Millisecond)
}

func TestNewRetryPolicyDefaults(t *testing.T) {
	policy := NewRetryPolicy(config.RetryConfig{})

	assert.Equal(t, 3, policy.MaxAttempts)
	assert.Equal(t, time.Second, policy.InitialBackoff)
	assert.Equal(t, time.Minute, policy.MaxBackoff)
	assert.Equal(t, 2.0, policy.Multiplier)
}
