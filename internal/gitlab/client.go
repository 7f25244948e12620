package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/kmensah/gitlab-insights/internal/config"
	apperrors "github.com/kmensah/gitlab-insights/internal/errors"
)

const defaultPerPage = 100

// Client talks to the GitLab REST API. Every outbound request passes through
// the shared rate limiter; failed attempts are classified and retried by the
// retry policy.
type Client struct {
	client  *http.Client
	baseURL string
	limiter *Limiter
	policy  *RetryPolicy
	logger  *logrus.Logger
	perPage int
}

// ClientOption allows configuring the client
type ClientOption func(*Client)

// WithPerPage overrides the page size requested from list endpoints.
func WithPerPage(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.perPage = n
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client. Used by tests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.client = hc
	}
}

// WithLimiter replaces the shared rate limiter. A caller that owns several
// clients against the same instance can hand them one limiter.
func WithLimiter(l *Limiter) ClientOption {
	return func(c *Client) {
		c.limiter = l
	}
}

// NewClient creates a GitLab API client from the resolved configuration.
func NewClient(cfg config.GitLabConfig, logger *logrus.Logger, opts ...ClientOption) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	httpClient := oauth2.NewClient(context.Background(), ts)
	httpClient.Timeout = cfg.Timeout

	client := &Client{
		client:  httpClient,
		baseURL: strings.TrimRight(cfg.URL, "/") + "/api/v4",
		limiter: NewLimiter(cfg.RequestsPerSecond),
		policy:  NewRetryPolicy(cfg.Retry),
		logger:  logger,
		perPage: defaultPerPage,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// pageInfo carries the pagination metadata of a list response. Zero values
// mean the header was absent.
type pageInfo struct {
	Page       int
	NextPage   int
	PerPage    int
	TotalPages int
}

func parsePageInfo(h http.Header) pageInfo {
	atoi := func(key string) int {
		v, _ := strconv.Atoi(h.Get(key))
		return v
	}
	return pageInfo{
		Page:       atoi("X-Page"),
		NextPage:   atoi("X-Next-Page"),
		PerPage:    atoi("X-Per-Page"),
		TotalPages: atoi("X-Total-Pages"),
	}
}

// doAttempt performs one rate-limited request and decodes the body into
// result. The returned error is classified into the service error taxonomy.
func (c *Client) doAttempt(ctx context.Context, path string, query url.Values, result interface{}) (pageInfo, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return pageInfo{}, err
	}

	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return pageInfo{}, apperrors.NewInternalError("failed to create request", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return pageInfo{}, apperrors.NewDeadlineExceededError("request aborted", ctx.Err())
		}
		return pageInfo{}, apperrors.NewTransientNetworkError(fmt.Sprintf("request failed: GET %s", path), err)
	}
	defer resp.Body.Close()

	info := parsePageInfo(resp.Header)

	if resp.StatusCode != http.StatusOK {
		return info, c.classifyStatus(resp, path)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return info, apperrors.NewDeadlineExceededError("response read aborted", ctx.Err())
		}
		return info, apperrors.NewTransientNetworkError("failed to read response body", err)
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return info, apperrors.NewInternalError("failed to decode response", err)
		}
	}
	return info, nil
}

func (c *Client) classifyStatus(resp *http.Response, path string) error {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := time.Duration(0)
		if v := resp.Header.Get("Retry-After"); v != "" {
			if secs, err := strconv.Atoi(v); err == nil {
				retryAfter = time.Duration(secs) * time.Second
			}
		}
		limit, _ := strconv.Atoi(resp.Header.Get("RateLimit-Limit"))
		remaining, _ := strconv.Atoi(resp.Header.Get("RateLimit-Remaining"))
		return apperrors.NewRateLimitError(retryAfter, limit, remaining)
	case resp.StatusCode == http.StatusUnauthorized:
		return apperrors.NewAuthenticationError("invalid or expired token", nil)
	case resp.StatusCode == http.StatusForbidden:
		return apperrors.NewAuthorizationError("insufficient permissions for "+path, nil)
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.NewNotFoundError("resource not found: "+path, nil)
	case resp.StatusCode >= 500:
		return apperrors.NewTransientNetworkError(fmt.Sprintf("server error %d on %s", resp.StatusCode, path), nil)
	default:
		return apperrors.NewValidationError(fmt.Sprintf("unexpected status %d on %s", resp.StatusCode, path), nil)
	}
}

// withRetry drives the retry loop around one attempt. Retryable failures are
// retried with backoff up to the policy's attempt budget; exceeding it
// surfaces as RetriesExhausted.
func (c *Client) withRetry(ctx context.Context, resource string, fn func() error) error {
	var lastErr error
	for attempt := 1; ; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if c.policy.Classify(lastErr) == Fatal {
			return lastErr
		}
		if attempt >= c.policy.MaxAttempts {
			return apperrors.NewRetriesExhaustedError(attempt, lastErr)
		}

		delay := c.policy.NextDelay(attempt, lastErr)
		c.logger.WithFields(logrus.Fields{
			"resource": resource,
			"attempt":  attempt,
			"delay":    delay.String(),
		}).WithError(lastErr).Warn("Retrying request")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return apperrors.NewDeadlineExceededError("retry wait aborted", ctx.Err())
		case <-timer.C:
		}
	}
}

// getJSON fetches a single (non-paginated) resource.
func (c *Client) getJSON(ctx context.Context, resource, path string, query url.Values, result interface{}) error {
	return c.withRetry(ctx, resource, func() error {
		_, err := c.doAttempt(ctx, path, query, result)
		return err
	})
}

// GetProject fetches a single project by numeric ID or URL-encoded path.
func (c *Client) GetProject(ctx context.Context, projectID string) (*Project, error) {
	if projectID == "" {
		return nil, apperrors.NewValidationError("project id cannot be empty", nil)
	}
	var project Project
	if err := c.getJSON(ctx, "project", "projects/"+url.PathEscape(projectID), nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// GetGroup fetches a single group by numeric ID or URL-encoded path.
func (c *Client) GetGroup(ctx context.Context, groupID string) (*Group, error) {
	if groupID == "" {
		return nil, apperrors.NewValidationError("group id cannot be empty", nil)
	}
	var group Group
	if err := c.getJSON(ctx, "group", "groups/"+url.PathEscape(groupID), nil, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// GetGroupProjects lists the non-archived projects of a group, subgroups
// included.
func (c *Client) GetGroupProjects(ctx context.Context, groupID string) ([]*Project, error) {
	query := url.Values{}
	query.Set("include_subgroups", "true")
	query.Set("archived", "false")

	raw, err := c.fetchAll(ctx, "group projects", "groups/"+url.PathEscape(groupID)+"/projects", query)
	if err != nil {
		return nil, err
	}
	return decodeRecords[Project](raw)
}

// GetCommits lists repository commits inside the window, with line stats.
func (c *Client) GetCommits(ctx context.Context, projectID string, since, until time.Time) ([]*Commit, error) {
	query := url.Values{}
	query.Set("since", since.UTC().Format(time.RFC3339))
	query.Set("until", until.UTC().Format(time.RFC3339))
	query.Set("with_stats", "true")

	raw, err := c.fetchAll(ctx, "commits", "projects/"+url.PathEscape(projectID)+"/repository/commits", query)
	if err != nil {
		return nil, err
	}
	return decodeRecords[Commit](raw)
}

// GetIssues lists issues created inside the window, any state.
func (c *Client) GetIssues(ctx context.Context, projectID string, since, until time.Time) ([]*Issue, error) {
	query := url.Values{}
	query.Set("scope", "all")
	query.Set("created_after", since.UTC().Format(time.RFC3339))
	query.Set("created_before", until.UTC().Format(time.RFC3339))

	raw, err := c.fetchAll(ctx, "issues", "projects/"+url.PathEscape(projectID)+"/issues", query)
	if err != nil {
		return nil, err
	}
	return decodeRecords[Issue](raw)
}

// GetMergeRequests lists merge requests created inside the window, any state.
func (c *Client) GetMergeRequests(ctx context.Context, projectID string, since, until time.Time) ([]*MergeRequest, error) {
	query := url.Values{}
	query.Set("scope", "all")
	query.Set("created_after", since.UTC().Format(time.RFC3339))
	query.Set("created_before", until.UTC().Format(time.RFC3339))

	raw, err := c.fetchAll(ctx, "merge requests", "projects/"+url.PathEscape(projectID)+"/merge_requests", query)
	if err != nil {
		return nil, err
	}
	return decodeRecords[MergeRequest](raw)
}

// GetContributors lists the raw contributor identities of a repository.
func (c *Client) GetContributors(ctx context.Context, projectID string) ([]*Contributor, error) {
	raw, err := c.fetchAll(ctx, "contributors", "projects/"+url.PathEscape(projectID)+"/repository/contributors", nil)
	if err != nil {
		return nil, err
	}
	return decodeRecords[Contributor](raw)
}

func decodeRecords[T any](raw []json.RawMessage) ([]*T, error) {
	out := make([]*T, 0, len(raw))
	for _, r := range raw {
		var v T
		if err := json.Unmarshal(r, &v); err != nil {
			return nil, apperrors.NewInternalError("failed to decode record", err)
		}
		out = append(out, &v)
	}
	return out, nil
}
