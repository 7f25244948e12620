package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved, immutable configuration for the service.
// Resolution order: built-in defaults < YAML file < environment variables.
// The core packages accept this value object and never read env or files.
type Config struct {
	Port               string
	DBConnectionString string

	GitLab  GitLabConfig
	Cache   CacheConfig
	Scoring ScoringConfig

	// Contributors maps a canonical contributor name to its raw aliases
	// (names, usernames or emails).
	Contributors map[string][]string

	// WorkflowOrder is the explicit priority order for board workflow labels
	// when more than one applies to an issue.
	WorkflowOrder []string

	MaxConcurrentFetches int
}

// fileConfig mirrors the YAML layout of the optional config file.
type fileConfig struct {
	Port     string `yaml:"port"`
	Database struct {
		ConnectionString string `yaml:"connection_string"`
	} `yaml:"database"`
	GitLab struct {
		URL               string  `yaml:"url"`
		Token             string  `yaml:"token"`
		RateLimit         float64 `yaml:"rate_limit"`
		TimeoutSeconds    int     `yaml:"timeout_seconds"`
		MaxRetries        int     `yaml:"max_retries"`
		InitialBackoffSec float64 `yaml:"initial_backoff_seconds"`
		MaxBackoffSec     float64 `yaml:"max_backoff_seconds"`
	} `yaml:"gitlab"`
	Cache struct {
		SnapshotTTLMinutes int `yaml:"snapshot_ttl_minutes"`
		TrendTTLMinutes    int `yaml:"trend_ttl_minutes"`
	} `yaml:"cache"`
	Scoring       *ScoringConfig      `yaml:"scoring"`
	Contributors  map[string][]string `yaml:"contributors"`
	WorkflowOrder []string            `yaml:"workflow_order"`
	MaxConcurrent int                 `yaml:"max_concurrent_fetches"`
}

// Load resolves the configuration. configPath may be empty, in which case
// only defaults and environment variables apply. A missing file at an
// explicitly provided path is an error; standard locations are optional.
func Load(configPath string) (*Config, error) {
	cfg := &Config{
		Port:                 "8080",
		GitLab:               DefaultGitLabConfig(),
		Cache:                DefaultCacheConfig(),
		Scoring:              DefaultScoringConfig(),
		Contributors:         map[string][]string{},
		WorkflowOrder:        []string{"In Progress", "In Review", "Blocked", "To Do"},
		MaxConcurrentFetches: 5,
	}

	if err := applyFile(cfg, configPath); err != nil {
		return nil, err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Scoring.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, configPath string) error {
	explicit := configPath != ""
	candidates := []string{configPath}
	if !explicit {
		candidates = []string{"config/config.yaml", "config.yaml"}
	}

	var data []byte
	var err error
	for _, path := range candidates {
		if path == "" {
			continue
		}
		data, err = os.ReadFile(path)
		if err == nil {
			break
		}
		if explicit {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	if data == nil {
		return nil
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if fc.Port != "" {
		cfg.Port = fc.Port
	}
	if fc.Database.ConnectionString != "" {
		cfg.DBConnectionString = fc.Database.ConnectionString
	}
	if fc.GitLab.URL != "" {
		cfg.GitLab.URL = fc.GitLab.URL
	}
	if fc.GitLab.Token != "" {
		cfg.GitLab.Token = fc.GitLab.Token
	}
	if fc.GitLab.RateLimit > 0 {
		cfg.GitLab.RequestsPerSecond = fc.GitLab.RateLimit
	}
	if fc.GitLab.TimeoutSeconds > 0 {
		cfg.GitLab.Timeout = time.Duration(fc.GitLab.TimeoutSeconds) * time.Second
	}
	if fc.GitLab.MaxRetries > 0 {
		cfg.GitLab.Retry.MaxAttempts = fc.GitLab.MaxRetries
	}
	if fc.GitLab.InitialBackoffSec > 0 {
		cfg.GitLab.Retry.InitialBackoff = time.Duration(fc.GitLab.InitialBackoffSec * float64(time.Second))
	}
	if fc.GitLab.MaxBackoffSec > 0 {
		cfg.GitLab.Retry.MaxBackoff = time.Duration(fc.GitLab.MaxBackoffSec * float64(time.Second))
	}
	if fc.Cache.SnapshotTTLMinutes > 0 {
		cfg.Cache.SnapshotTTL = time.Duration(fc.Cache.SnapshotTTLMinutes) * time.Minute
	}
	if fc.Cache.TrendTTLMinutes > 0 {
		cfg.Cache.TrendTTL = time.Duration(fc.Cache.TrendTTLMinutes) * time.Minute
	}
	if fc.Scoring != nil {
		cfg.Scoring = mergeScoring(cfg.Scoring, *fc.Scoring)
	}
	if len(fc.Contributors) > 0 {
		cfg.Contributors = fc.Contributors
	}
	if len(fc.WorkflowOrder) > 0 {
		cfg.WorkflowOrder = fc.WorkflowOrder
	}
	if fc.MaxConcurrent > 0 {
		cfg.MaxConcurrentFetches = fc.MaxConcurrent
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DBConnectionString = getEnv("DB_CONNECTION_STRING", cfg.DBConnectionString)
	cfg.GitLab.URL = getEnv("GITLAB_URL", cfg.GitLab.URL)
	cfg.GitLab.Token = getEnv("GITLAB_API_TOKEN", cfg.GitLab.Token)

	if v := os.Getenv("GITLAB_RATE_LIMIT"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil || rps <= 0 {
			return fmt.Errorf("invalid GITLAB_RATE_LIMIT %q", v)
		}
		cfg.GitLab.RequestsPerSecond = rps
	}
	if v := os.Getenv("GITLAB_TIMEOUT_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return fmt.Errorf("invalid GITLAB_TIMEOUT_SECONDS %q", v)
		}
		cfg.GitLab.Timeout = time.Duration(secs) * time.Second
	}
	if v := os.Getenv("MAX_CONCURRENT_FETCHES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid MAX_CONCURRENT_FETCHES %q", v)
		}
		cfg.MaxConcurrentFetches = n
	}
	return nil
}

// Validate checks the minimum configuration needed to reach the remote API.
func (c *Config) Validate() error {
	if c.GitLab.URL == "" {
		return fmt.Errorf("GitLab URL not configured (set GITLAB_URL)")
	}
	if c.GitLab.Token == "" {
		return fmt.Errorf("GitLab API token not configured (set GITLAB_API_TOKEN)")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
