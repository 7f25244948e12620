package insights

import (
	"math"
	"time"

	"github.com/kmensah/gitlab-insights/internal/models"
)

// Trend metric names, in report order.
const (
	MetricCommits            = "commits"
	MetricIssuesOpened       = "issues_opened"
	MetricIssuesClosed       = "issues_closed"
	MetricMergesMerged       = "merges_merged"
	MetricActiveContributors = "active_contributors"
)

// Analyzer compares a window's two halves metric by metric.
type Analyzer struct {
	minChangePct float64
	now          func() time.Time
}

// NewAnalyzer builds an analyzer. Changes smaller than minChangePct in
// either direction are reported as flat.
func NewAnalyzer(minChangePct float64) *Analyzer {
	return &Analyzer{minChangePct: minChangePct, now: time.Now}
}

// Analyze produces the two-window trend report for a target from the
// snapshots of the previous and current half-windows. Metrics missing from
// either snapshot are skipped and the report marked partial.
func (a *Analyzer) Analyze(target models.Target, window models.Window, previous, current *models.Snapshot) *models.TrendReport {
	report := &models.TrendReport{
		Target:         target,
		Window:         window,
		PreviousWindow: previous.Window,
		CurrentWindow:  current.Window,
		BuiltAt:        a.now().UTC(),
	}

	for _, m := range trendMetrics {
		prev, okPrev := m.extract(previous)
		cur, okCur := m.extract(current)
		if !okPrev || !okCur {
			report.Partial = true
			continue
		}
		report.Metrics = append(report.Metrics, a.delta(m.name, prev, cur))
	}
	return report
}

// delta computes one metric comparison. A metric appearing for the first
// time has no defined percent change; it is flagged New and reported rising
// so dashboards surface it.
func (a *Analyzer) delta(name string, prev, cur float64) models.MetricDelta {
	d := models.MetricDelta{
		Metric:    name,
		Previous:  prev,
		Current:   cur,
		Delta:     cur - prev,
		Direction: models.DirectionFlat,
	}
	if prev == 0 {
		if cur > 0 {
			d.New = true
			d.Direction = models.DirectionRising
		}
		return d
	}
	d.PercentChange = (cur - prev) / prev * 100
	if math.Abs(d.PercentChange) >= a.minChangePct {
		if d.PercentChange > 0 {
			d.Direction = models.DirectionRising
		} else {
			d.Direction = models.DirectionFalling
		}
	}
	return d
}

type trendMetric struct {
	name    string
	extract func(*models.Snapshot) (float64, bool)
}

var trendMetrics = []trendMetric{
	{MetricCommits, func(s *models.Snapshot) (float64, bool) {
		if s.Commits == nil {
			return 0, false
		}
		return float64(s.Commits.Total), true
	}},
	{MetricIssuesOpened, func(s *models.Snapshot) (float64, bool) {
		if s.Issues == nil {
			return 0, false
		}
		return float64(s.Issues.Total), true
	}},
	{MetricIssuesClosed, func(s *models.Snapshot) (float64, bool) {
		if s.Issues == nil {
			return 0, false
		}
		return float64(s.Issues.Closed), true
	}},
	{MetricMergesMerged, func(s *models.Snapshot) (float64, bool) {
		if s.Merges == nil {
			return 0, false
		}
		return float64(s.Merges.Merged), true
	}},
	{MetricActiveContributors, func(s *models.Snapshot) (float64, bool) {
		if s.Commits == nil {
			return 0, false
		}
		return float64(s.Commits.UniqueAuthors), true
	}},
}
