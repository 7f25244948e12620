package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmensah/gitlab-insights/internal/cache"
	"github.com/kmensah/gitlab-insights/internal/config"
	apperrors "github.com/kmensah/gitlab-insights/internal/errors"
	"github.com/kmensah/gitlab-insights/internal/gitlab"
	"github.com/kmensah/gitlab-insights/internal/insights"
)

// stubFetcher serves canned GitLab data so handler tests exercise the full
// service path without HTTP round trips to an upstream.
type stubFetcher struct {
	project      *gitlab.Project
	projectErr   error
	commits      []*gitlab.Commit
	issues       []*gitlab.Issue
	merges       []*gitlab.MergeRequest
	contributors []*gitlab.Contributor
	contribErr   error
}

func (f *stubFetcher) GetProject(ctx context.Context, projectID string) (*gitlab.Project, error) {
	if f.projectErr != nil {
		return nil, f.projectErr
	}
	return f.project, nil
}

func (f *stubFetcher) GetGroup(ctx context.Context, groupID string) (*gitlab.Group, error) {
	return nil, apperrors.NewNotFoundError("group not found", nil)
}

func (f *stubFetcher) GetGroupProjects(ctx context.Context, groupID string) ([]*gitlab.Project, error) {
	return nil, apperrors.NewNotFoundError("group not found", nil)
}

func (f *stubFetcher) GetCommits(ctx context.Context, projectID string, since, until time.Time) ([]*gitlab.Commit, error) {
	return f.commits, nil
}

func (f *stubFetcher) GetIssues(ctx context.Context, projectID string, since, until time.Time) ([]*gitlab.Issue, error) {
	return f.issues, nil
}

func (f *stubFetcher) GetMergeRequests(ctx context.Context, projectID string, since, until time.Time) ([]*gitlab.MergeRequest, error) {
	return f.merges, nil
}

func (f *stubFetcher) GetContributors(ctx context.Context, projectID string) ([]*gitlab.Contributor, error) {
	if f.contribErr != nil {
		return nil, f.contribErr
	}
	return f.contributors, nil
}

var testUntil = time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

func healthyFetcher() *stubFetcher {
	day := testUntil.AddDate(0, 0, -20)
	closed := day.Add(36 * time.Hour)
	return &stubFetcher{
		project: &gitlab.Project{ID: 42, Name: "app", PathWithNamespace: "acme/app"},
		commits: []*gitlab.Commit{
			{ID: "c1", Title: "Normalize contributor identities", Message: "Normalize contributor identities",
				AuthorName: "Alice J.", AuthorEmail: "alice@x.com", CreatedAt: day,
				Stats: gitlab.CommitStats{Additions: 10, Deletions: 2}},
			{ID: "c2", Title: "Harden pagination consistency checks", Message: "Harden pagination consistency checks",
				AuthorName: "Bob", AuthorEmail: "bob@y.com", CreatedAt: day.Add(time.Hour),
				Stats: gitlab.CommitStats{Additions: 5, Deletions: 1}},
		},
		issues: []*gitlab.Issue{
			{ID: 1, State: "closed", CreatedAt: day, ClosedAt: &closed},
		},
		merges: []*gitlab.MergeRequest{
			{ID: 1, State: "merged", CreatedAt: day, MergedAt: &closed, Author: &gitlab.User{Username: "alice"}},
		},
		contributors: []*gitlab.Contributor{
			{Name: "Alice J.", Email: "alice@x.com", Commits: 1, Additions: 10, Deletions: 2},
			{Name: "Bob", Email: "bob@y.com", Commits: 1, Additions: 5, Deletions: 1},
		},
	}
}

func newTestRouter(t *testing.T, fetcher insights.Fetcher) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{
		GitLab:               config.DefaultGitLabConfig(),
		Cache:                config.DefaultCacheConfig(),
		Scoring:              config.DefaultScoringConfig(),
		Contributors:         map[string][]string{},
		WorkflowOrder:        []string{"In Progress", "In Review"},
		MaxConcurrentFetches: 2,
	}
	svc := insights.NewService(cfg, fetcher, cache.New(), nil, logger)
	return SetupRouter(NewHandler(svc, logger))
}

func doRequest(router *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// windowQuery pins the analysis window to the canned data's range.
func windowQuery() string {
	since := testUntil.AddDate(0, 0, -30)
	return "since=" + since.Format(time.RFC3339) + "&until=" + testUntil.Format(time.RFC3339)
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, healthyFetcher())
	w := doRequest(router, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestGetProjectSnapshot(t *testing.T) {
	router := newTestRouter(t, healthyFetcher())
	w := doRequest(router, http.MethodGet, "/api/v1/projects/42/snapshot?"+windowQuery(), nil)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	commits, ok := body["commits"].(map[string]interface{})
	require.True(t, ok, "snapshot must carry a commits section")
	assert.Equal(t, float64(2), commits["total"])
	target := body["target"].(map[string]interface{})
	assert.Equal(t, "42", target["id"])
}

func TestGetProjectScore(t *testing.T) {
	router := newTestRouter(t, healthyFetcher())
	w := doRequest(router, http.MethodGet, "/api/v1/projects/42/score?"+windowQuery(), nil)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	score := body["score"].(float64)
	assert.GreaterOrEqual(t, score, float64(0))
	assert.LessOrEqual(t, score, float64(100))
	assert.NotEmpty(t, body["grade"])
}

func TestGetProjectTrends(t *testing.T) {
	router := newTestRouter(t, healthyFetcher())
	w := doRequest(router, http.MethodGet, "/api/v1/projects/42/trends?"+windowQuery(), nil)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	metrics, ok := body["metrics"].([]interface{})
	require.True(t, ok)
	assert.Len(t, metrics, 5)
}

func TestGetProjectNotFound(t *testing.T) {
	fetcher := &stubFetcher{projectErr: apperrors.NewNotFoundError("project not found", nil)}
	router := newTestRouter(t, fetcher)
	w := doRequest(router, http.MethodGet, "/api/v1/projects/9999/snapshot", nil)

	require.Equal(t, http.StatusNotFound, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(apperrors.ErrNotFound), resp.Type)
}

func TestUpstreamFailureMapsToBadGateway(t *testing.T) {
	fetcher := &stubFetcher{
		projectErr: apperrors.NewRetriesExhaustedError(3, apperrors.NewTransientNetworkError("connection reset", nil)),
	}
	router := newTestRouter(t, fetcher)
	w := doRequest(router, http.MethodGet, "/api/v1/projects/42/snapshot", nil)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestContributorsUnavailableIsUnprocessable(t *testing.T) {
	fetcher := healthyFetcher()
	fetcher.contribErr = apperrors.NewAuthorizationError("contributors endpoint forbidden", nil)
	router := newTestRouter(t, fetcher)
	w := doRequest(router, http.MethodGet, "/api/v1/projects/42/contributors?"+windowQuery(), nil)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(apperrors.ErrInsufficientData), resp.Type)
}

func TestWindowValidation(t *testing.T) {
	router := newTestRouter(t, healthyFetcher())

	cases := []struct {
		name  string
		query string
	}{
		{"malformed since", "since=yesterday"},
		{"malformed until", "since=2025-06-01T00:00:00Z&until=tomorrow"},
		{"inverted range", "since=2025-07-01T00:00:00Z&until=2025-06-01T00:00:00Z"},
		{"non-numeric days", "days=month"},
		{"negative days", "days=-7"},
		{"zero days", "days=0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(router, http.MethodGet, "/api/v1/projects/42/snapshot?"+tc.query, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestExplicitRangeWinsOverDays(t *testing.T) {
	router := newTestRouter(t, healthyFetcher())
	// days alone would anchor the window at the wall clock, far past the
	// canned data; the explicit pair must take precedence.
	w := doRequest(router, http.MethodGet, "/api/v1/projects/42/snapshot?days=7&"+windowQuery(), nil)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	commits := body["commits"].(map[string]interface{})
	assert.Equal(t, float64(2), commits["total"])
}

func TestCompareProjects(t *testing.T) {
	router := newTestRouter(t, healthyFetcher())
	body, _ := json.Marshal(map[string]interface{}{
		"project_ids": []string{"42", "43"},
		"days":        30,
	})
	w := doRequest(router, http.MethodPost, "/api/v1/compare", body)

	require.Equal(t, http.StatusOK, w.Code)
	var cmp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cmp))
	entries := cmp["entries"].([]interface{})
	assert.Len(t, entries, 2)
	first := entries[0].(map[string]interface{})
	assert.Equal(t, float64(1), first["rank"])
}

func TestCompareProjectsBadBody(t *testing.T) {
	router := newTestRouter(t, healthyFetcher())

	w := doRequest(router, http.MethodPost, "/api/v1/compare", []byte(`{not json`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodPost, "/api/v1/compare", []byte(`{"days":30}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompareProjectsRequiresTwo(t *testing.T) {
	router := newTestRouter(t, healthyFetcher())
	body, _ := json.Marshal(map[string]interface{}{"project_ids": []string{"42"}})
	w := doRequest(router, http.MethodPost, "/api/v1/compare", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScoreHistoryWithoutStore(t *testing.T) {
	router := newTestRouter(t, healthyFetcher())
	w := doRequest(router, http.MethodGet, "/api/v1/history/42", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScoreHistoryRejectsBadKind(t *testing.T) {
	router := newTestRouter(t, healthyFetcher())
	w := doRequest(router, http.MethodGet, "/api/v1/history/42?kind=repository", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClearCache(t *testing.T) {
	router := newTestRouter(t, healthyFetcher())

	// Populate, then drop everything.
	doRequest(router, http.MethodGet, "/api/v1/projects/42/snapshot?"+windowQuery(), nil)
	w := doRequest(router, http.MethodDelete, "/api/v1/cache", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"dropped":-1}`, w.Body.String())

	stats := doRequest(router, http.MethodGet, "/api/v1/cache/stats", nil)
	require.Equal(t, http.StatusOK, stats.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(stats.Body.Bytes(), &body))
	assert.Equal(t, float64(0), body["total_entries"])
}

func TestRequestIDGenerated(t *testing.T) {
	router := newTestRouter(t, healthyFetcher())
	w := doRequest(router, http.MethodGet, "/health", nil)

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRequestIDHonored(t *testing.T) {
	router := newTestRouter(t, healthyFetcher())
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "trace-me-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "trace-me-123", w.Header().Get("X-Request-ID"))
}
