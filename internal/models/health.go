package models

import "time"

// Factor names used in health score sub-scores.
const (
	FactorCommitActivity       = "commit_activity"
	FactorIssueResolution      = "issue_resolution"
	FactorMergeEfficiency      = "merge_efficiency"
	FactorContributorDiversity = "contributor_diversity"
)

// Severity orders recommendations; higher fires first in the output.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// MarshalJSON renders the severity as its name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// FactorScore is one normalized sub-score of the composite.
type FactorScore struct {
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
	Weight float64 `json:"weight"`
}

// Recommendation is one fired advisory rule.
type Recommendation struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Title    string   `json:"title"`
	Action   string   `json:"action"`
}

// HealthScore is the weighted composite score for a snapshot. Score is an
// integer in [0, 100]; Grade follows the configured non-overlapping band
// table. Partial marks a score computed with missing factors, with the
// remaining weights renormalized.
type HealthScore struct {
	Target          Target           `json:"target"`
	Window          Window           `json:"window"`
	Score           int              `json:"score"`
	Grade           string           `json:"grade"`
	Factors         []FactorScore    `json:"factors"`
	Partial         bool             `json:"partial"`
	Recommendations []Recommendation `json:"recommendations"`
	ComputedAt      time.Time        `json:"computed_at"`
}
