package insights

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmensah/gitlab-insights/internal/models"
)

func trendWindows() (models.Window, models.Window, models.Window) {
	until := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	window := models.Window{Since: until.AddDate(0, 0, -30), Until: until}
	prev, cur := window.Halves()
	return window, prev, cur
}

func snapshotWithCommits(w models.Window, total, authors int) *models.Snapshot {
	return &models.Snapshot{
		Window:       w,
		Commits:      &models.CommitMetrics{Total: total, UniqueAuthors: authors},
		Issues:       &models.IssueMetrics{},
		Merges:       &models.MergeMetrics{},
		Contributors: &models.ContributorMetrics{},
	}
}

func findMetric(t *testing.T, report *models.TrendReport, name string) models.MetricDelta {
	t.Helper()
	for _, m := range report.Metrics {
		if m.Metric == name {
			return m
		}
	}
	t.Fatalf("metric %s not in report", name)
	return models.MetricDelta{}
}

func TestAnalyzeNewActivityIsRising(t *testing.T) {
	window, prevW, curW := trendWindows()
	analyzer := NewAnalyzer(10)

	report := analyzer.Analyze(models.Target{Kind: models.TargetProject, ID: "1"}, window,
		snapshotWithCommits(prevW, 0, 0), snapshotWithCommits(curW, 20, 3))

	commits := findMetric(t, report, MetricCommits)
	assert.True(t, commits.New)
	assert.Equal(t, models.DirectionRising, commits.Direction)
	assert.Equal(t, 0.0, commits.PercentChange)
	assert.Equal(t, 20.0, commits.Delta)
}

func TestAnalyzeDirections(t *testing.T) {
	window, prevW, curW := trendWindows()
	analyzer := NewAnalyzer(10)
	target := models.Target{Kind: models.TargetProject, ID: "1"}

	tests := []struct {
		name      string
		prev, cur int
		direction models.Direction
		pct       float64
	}{
		{"rising", 10, 15, models.DirectionRising, 50},
		{"falling", 20, 10, models.DirectionFalling, -50},
		{"flat small increase", 100, 105, models.DirectionFlat, 5},
		{"flat small decrease", 100, 95, models.DirectionFlat, -5},
		{"boundary change is not flat", 100, 110, models.DirectionRising, 10},
		{"both zero", 0, 0, models.DirectionFlat, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := analyzer.Analyze(target, window,
				snapshotWithCommits(prevW, tt.prev, 1), snapshotWithCommits(curW, tt.cur, 1))
			commits := findMetric(t, report, MetricCommits)
			assert.Equal(t, tt.direction, commits.Direction)
			assert.InDelta(t, tt.pct, commits.PercentChange, 1e-9)
		})
	}
}

func TestAnalyzeCoversAllMetrics(t *testing.T) {
	window, prevW, curW := trendWindows()
	analyzer := NewAnalyzer(10)

	prev := &models.Snapshot{
		Window:  prevW,
		Commits: &models.CommitMetrics{Total: 10, UniqueAuthors: 2},
		Issues:  &models.IssueMetrics{Total: 5, Closed: 3},
		Merges:  &models.MergeMetrics{Merged: 4},
	}
	cur := &models.Snapshot{
		Window:  curW,
		Commits: &models.CommitMetrics{Total: 20, UniqueAuthors: 4},
		Issues:  &models.IssueMetrics{Total: 8, Closed: 2},
		Merges:  &models.MergeMetrics{Merged: 6},
	}

	report := analyzer.Analyze(models.Target{Kind: models.TargetProject, ID: "1"}, window, prev, cur)
	require.Len(t, report.Metrics, 5)
	assert.False(t, report.Partial)

	closed := findMetric(t, report, MetricIssuesClosed)
	assert.Equal(t, models.DirectionFalling, closed.Direction)

	contributors := findMetric(t, report, MetricActiveContributors)
	assert.Equal(t, 2.0, contributors.Previous)
	assert.Equal(t, 4.0, contributors.Current)
}

func TestAnalyzeMissingSectionMarksPartial(t *testing.T) {
	window, prevW, curW := trendWindows()
	analyzer := NewAnalyzer(10)

	prev := &models.Snapshot{
		Window:  prevW,
		Commits: &models.CommitMetrics{Total: 10},
	}
	cur := &models.Snapshot{
		Window:  curW,
		Commits: &models.CommitMetrics{Total: 12},
		Issues:  &models.IssueMetrics{Total: 3},
	}

	report := analyzer.Analyze(models.Target{Kind: models.TargetProject, ID: "1"}, window, prev, cur)
	assert.True(t, report.Partial)

	names := make(map[string]bool)
	for _, m := range report.Metrics {
		names[m.Metric] = true
	}
	assert.True(t, names[MetricCommits])
	assert.False(t, names[MetricIssuesOpened], "issues missing from the previous window must be skipped")
}

func TestAnalyzeWindowsRecorded(t *testing.T) {
	window, prevW, curW := trendWindows()
	analyzer := NewAnalyzer(10)

	report := analyzer.Analyze(models.Target{Kind: models.TargetGroup, ID: "acme"}, window,
		snapshotWithCommits(prevW, 1, 1), snapshotWithCommits(curW, 1, 1))

	assert.Equal(t, prevW, report.PreviousWindow)
	assert.Equal(t, curW, report.CurrentWindow)
	assert.Equal(t, window, report.Window)
	assert.Equal(t, models.TargetGroup, report.Target.Kind)
}
