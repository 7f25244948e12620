package config

import "time"

// GitLabConfig holds connection settings for the remote GitLab API.
type GitLabConfig struct {
	URL   string
	Token string
	// RequestsPerSecond is the process-wide ceiling on outbound requests.
	RequestsPerSecond float64
	Timeout           time.Duration
	Retry             RetryConfig
}

// RetryConfig holds retry and backoff settings.
type RetryConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// DefaultGitLabConfig returns the default GitLab configuration
func DefaultGitLabConfig() GitLabConfig {
	return GitLabConfig{
		RequestsPerSecond: 3.0,
		Timeout:           30 * time.Second,
		Retry: RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: time.Second,
			MaxBackoff:     time.Minute,
			Multiplier:     2.0,
		},
	}
}

// CacheConfig holds per-operation-class cache expiries.
type CacheConfig struct {
	SnapshotTTL time.Duration
	TrendTTL    time.Duration
}

// DefaultCacheConfig returns the default cache TTLs
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		SnapshotTTL: 15 * time.Minute,
		TrendTTL:    30 * time.Minute,
	}
}
