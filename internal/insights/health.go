package insights

import (
	"math"
	"sort"
	"time"

	"github.com/kmensah/gitlab-insights/internal/config"
	apperrors "github.com/kmensah/gitlab-insights/internal/errors"
	"github.com/kmensah/gitlab-insights/internal/models"
)

// Scorer computes weighted composite health scores from snapshots. Scoring
// is pure: the same snapshot and configuration always produce the same score.
type Scorer struct {
	cfg   config.ScoringConfig
	rules []recommendationRule
	now   func() time.Time
}

// recommendationRule is one advisory in the rule table. Applies must tolerate
// absent snapshot sections. Output ordering is severity descending, then
// table declaration order.
type recommendationRule struct {
	name     string
	severity models.Severity
	title    string
	action   string
	applies  func(cfg config.ScoringConfig, snap *models.Snapshot, score int) bool
}

// NewScorer builds a scorer with the given thresholds and the built-in
// recommendation rule table.
func NewScorer(cfg config.ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg, rules: recommendationRules, now: time.Now}
}

var recommendationRules = []recommendationRule{
	{
		name:     "overdue_issues",
		severity: models.SeverityCritical,
		title:    "Issues past their due date",
		action:   "Triage overdue issues and reschedule or close them",
		applies: func(_ config.ScoringConfig, s *models.Snapshot, _ int) bool {
			return s.Issues != nil && s.Issues.Overdue > 0
		},
	},
	{
		name:     "failing_health",
		severity: models.SeverityCritical,
		title:    "Overall health is failing",
		action:   "Review the lowest factor scores and address them first",
		applies: func(_ config.ScoringConfig, _ *models.Snapshot, score int) bool {
			return score < 60
		},
	},
	{
		name:     "declining_commit_activity",
		severity: models.SeverityWarning,
		title:    "Commit activity is declining",
		action:   "Check whether the project is winding down or blocked",
		applies: func(_ config.ScoringConfig, s *models.Snapshot, _ int) bool {
			return s.Commits != nil && s.Commits.Total > 0 && s.Commits.TrendCoefficient < -0.5
		},
	},
	{
		name:     "stale_project",
		severity: models.SeverityWarning,
		title:    "Fewer than one commit per week",
		action:   "Confirm the project is still actively maintained",
		applies: func(_ config.ScoringConfig, s *models.Snapshot, _ int) bool {
			return s.Commits != nil && s.Commits.WeeklyAverage < 1
		},
	},
	{
		name:     "single_contributor",
		severity: models.SeverityWarning,
		title:    "All recent commits come from one author",
		action:   "Spread ownership to reduce the bus factor",
		applies: func(_ config.ScoringConfig, s *models.Snapshot, _ int) bool {
			return s.Commits != nil && s.Commits.Total > 0 && s.Commits.UniqueAuthors < 2
		},
	},
	{
		name:     "slow_issue_resolution",
		severity: models.SeverityWarning,
		title:    "Issues take very long to resolve",
		action:   "Break large issues down or revisit prioritization",
		applies: func(cfg config.ScoringConfig, s *models.Snapshot, _ int) bool {
			return s.Issues != nil && s.Issues.ResolvedCount > 0 &&
				s.Issues.AvgResolutionDays > cfg.VerySlowResolutionDays
		},
	},
	{
		name:     "unassigned_issues",
		severity: models.SeverityWarning,
		title:    "Many open issues have no assignee",
		action:   "Assign owners so issues do not stall",
		applies: func(_ config.ScoringConfig, s *models.Snapshot, _ int) bool {
			return s.Issues != nil && s.Issues.Total > 0 &&
				float64(s.Issues.Unassigned) > 0.3*float64(s.Issues.Total)
		},
	},
	{
		name:     "low_merge_rate",
		severity: models.SeverityWarning,
		title:    "Most merge requests never land",
		action:   "Investigate stuck or abandoned merge requests",
		applies: func(_ config.ScoringConfig, s *models.Snapshot, _ int) bool {
			return s.Merges != nil && s.Merges.Total > 0 && s.Merges.MergeRate < 0.5
		},
	},
	{
		name:     "slow_merge_turnaround",
		severity: models.SeverityWarning,
		title:    "Merge requests stay open for a long time",
		action:   "Shrink review scope or add reviewers",
		applies: func(cfg config.ScoringConfig, s *models.Snapshot, _ int) bool {
			return s.Merges != nil && s.Merges.MergedWithTime > 0 &&
				s.Merges.AvgMergeHours > cfg.SlowMergeHours
		},
	},
	{
		name:     "poor_commit_messages",
		severity: models.SeverityInfo,
		title:    "Commit message hygiene is weak",
		action:   "Adopt a commit message convention",
		applies: func(_ config.ScoringConfig, s *models.Snapshot, _ int) bool {
			return s.Commits != nil && s.Commits.Total > 0 && s.Commits.MessageQuality < 50
		},
	},
}

// Score computes the composite health score for a snapshot. Factors whose
// underlying data is absent are excluded and the remaining weights
// renormalized; the result is marked Partial when a snapshot section is
// missing. Scoring a snapshot with no usable factor at all returns an
// insufficient data error.
func (sc *Scorer) Score(snap *models.Snapshot) (*models.HealthScore, error) {
	factors := make([]models.FactorScore, 0, 4)

	if snap.Commits != nil {
		factors = append(factors, models.FactorScore{
			Name:   models.FactorCommitActivity,
			Score:  sc.commitActivity(snap.Commits),
			Weight: sc.cfg.Weights.CommitActivity,
		})
	}
	if snap.Issues != nil && snap.Issues.Total > 0 {
		factors = append(factors, models.FactorScore{
			Name:   models.FactorIssueResolution,
			Score:  sc.issueResolution(snap.Issues),
			Weight: sc.cfg.Weights.IssueResolution,
		})
	}
	if snap.Merges != nil && snap.Merges.Total > 0 {
		factors = append(factors, models.FactorScore{
			Name:   models.FactorMergeEfficiency,
			Score:  sc.mergeEfficiency(snap.Merges),
			Weight: sc.cfg.Weights.MergeEfficiency,
		})
	}
	if snap.Contributors != nil && snap.Contributors.Total > 0 {
		factors = append(factors, models.FactorScore{
			Name:   models.FactorContributorDiversity,
			Score:  sc.contributorDiversity(snap.Contributors),
			Weight: sc.cfg.Weights.ContributorDiversity,
		})
	}
	if len(factors) == 0 {
		return nil, apperrors.NewInsufficientDataError(string(snap.Target.Kind)+" "+snap.Target.ID, nil)
	}

	var weighted, totalWeight float64
	for _, f := range factors {
		weighted += f.Score * f.Weight
		totalWeight += f.Weight
	}
	score := clampScore(int(math.Round(weighted / totalWeight)))

	hs := &models.HealthScore{
		Target:     snap.Target,
		Window:     snap.Window,
		Score:      score,
		Grade:      sc.cfg.Grade(score),
		Factors:    factors,
		Partial:    snap.Partial() || len(factors) < 4,
		ComputedAt: sc.now().UTC(),
	}
	hs.Recommendations = sc.recommend(snap, score)
	return hs, nil
}

// commitActivity normalizes weekly commit frequency against the configured
// ceiling and damps the score when the weekly trend is steeply negative.
func (sc *Scorer) commitActivity(m *models.CommitMetrics) float64 {
	score := clampFactor(m.WeeklyAverage / sc.cfg.CommitsPerWeekCeiling * 100)
	if m.TrendCoefficient < -0.5 {
		score *= 0.7
	}
	return score
}

// issueResolution starts from resolution speed against the slow thresholds
// and penalizes a high open backlog ratio.
func (sc *Scorer) issueResolution(m *models.IssueMetrics) float64 {
	score := 100.0
	if m.ResolvedCount > 0 {
		switch {
		case m.AvgResolutionDays > sc.cfg.VerySlowResolutionDays:
			score = 50
		case m.AvgResolutionDays > sc.cfg.SlowResolutionDays:
			score = 75
		}
	}
	if openRatio := float64(m.Open) / float64(m.Total); openRatio > 0.7 {
		score *= 0.7
	}
	return clampFactor(score)
}

// mergeEfficiency scores the merge rate, nudged by turnaround time when any
// merged request carries a usable merge timestamp.
func (sc *Scorer) mergeEfficiency(m *models.MergeMetrics) float64 {
	score := m.MergeRate * 100
	if m.MergedWithTime > 0 {
		switch {
		case m.AvgMergeHours <= sc.cfg.FastMergeHours:
			score += 10
		case m.AvgMergeHours > sc.cfg.SlowMergeHours:
			score -= 15
		}
	}
	return clampFactor(score)
}

func (sc *Scorer) contributorDiversity(m *models.ContributorMetrics) float64 {
	return clampFactor(float64(m.Total) / float64(sc.cfg.DiversityCeiling) * 100)
}

// recommend evaluates the rule table and orders fired rules by severity
// descending, preserving declaration order within a severity.
func (sc *Scorer) recommend(snap *models.Snapshot, score int) []models.Recommendation {
	fired := make([]models.Recommendation, 0, len(sc.rules))
	order := make(map[string]int, len(sc.rules))
	for i, rule := range sc.rules {
		order[rule.name] = i
		if rule.applies(sc.cfg, snap, score) {
			fired = append(fired, models.Recommendation{
				Rule:     rule.name,
				Severity: rule.severity,
				Title:    rule.title,
				Action:   rule.action,
			})
		}
	}
	sort.SliceStable(fired, func(i, j int) bool {
		if fired[i].Severity != fired[j].Severity {
			return fired[i].Severity > fired[j].Severity
		}
		return order[fired[i].Rule] < order[fired[j].Rule]
	})
	return fired
}

func clampFactor(score float64) float64 {
	return math.Min(100, math.Max(0, score))
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
