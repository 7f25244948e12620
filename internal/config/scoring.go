package config

import (
	"fmt"
	"math"
)

// FactorWeights are the relative weights of the health score factors.
// They must sum to 1.0.
type FactorWeights struct {
	CommitActivity       float64 `yaml:"commit_activity"`
	IssueResolution      float64 `yaml:"issue_resolution"`
	MergeEfficiency      float64 `yaml:"merge_efficiency"`
	ContributorDiversity float64 `yaml:"contributor_diversity"`
}

// GradeBand maps a score lower bound (inclusive) to a letter grade.
type GradeBand struct {
	Min   int    `yaml:"min"`
	Grade string `yaml:"grade"`
}

// ScoringConfig holds normalization thresholds, weights and the grade table.
type ScoringConfig struct {
	Weights FactorWeights `yaml:"weights"`

	// CommitsPerWeekCeiling is the weekly commit frequency at which the
	// commit activity factor saturates at 100.
	CommitsPerWeekCeiling float64 `yaml:"commits_per_week_ceiling"`
	// DiversityCeiling is the contributor count at which the diversity
	// factor saturates at 100.
	DiversityCeiling int `yaml:"diversity_ceiling"`

	SlowResolutionDays     float64 `yaml:"slow_resolution_days"`
	VerySlowResolutionDays float64 `yaml:"very_slow_resolution_days"`
	FastMergeHours         float64 `yaml:"fast_merge_hours"`
	SlowMergeHours         float64 `yaml:"slow_merge_hours"`

	// MinTrendChangePct is the minimum percentage change before the trend
	// analyzer reports a direction other than flat.
	MinTrendChangePct float64 `yaml:"min_trend_change_pct"`

	// GradeBands must be sorted by Min descending and non-overlapping.
	GradeBands []GradeBand `yaml:"grade_bands"`
}

// DefaultScoringConfig returns the default scoring thresholds
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Weights: FactorWeights{
			CommitActivity:       0.30,
			IssueResolution:      0.25,
			MergeEfficiency:      0.25,
			ContributorDiversity: 0.20,
		},
		CommitsPerWeekCeiling:  15,
		DiversityCeiling:       5,
		SlowResolutionDays:     14,
		VerySlowResolutionDays: 30,
		FastMergeHours:         24,
		SlowMergeHours:         168,
		MinTrendChangePct:      10,
		GradeBands: []GradeBand{
			{Min: 90, Grade: "A"},
			{Min: 80, Grade: "B"},
			{Min: 70, Grade: "C"},
			{Min: 60, Grade: "D"},
			{Min: 0, Grade: "F"},
		},
	}
}

// Validate checks weight and grade table invariants.
func (s ScoringConfig) Validate() error {
	sum := s.Weights.CommitActivity + s.Weights.IssueResolution +
		s.Weights.MergeEfficiency + s.Weights.ContributorDiversity
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("scoring weights must sum to 1.0, got %.4f", sum)
	}
	if len(s.GradeBands) == 0 {
		return fmt.Errorf("grade bands cannot be empty")
	}
	for i := 1; i < len(s.GradeBands); i++ {
		if s.GradeBands[i].Min >= s.GradeBands[i-1].Min {
			return fmt.Errorf("grade bands must be sorted by min descending")
		}
	}
	if s.GradeBands[len(s.GradeBands)-1].Min != 0 {
		return fmt.Errorf("lowest grade band must start at 0")
	}
	return nil
}

// Grade maps a clamped score to its letter grade. Band lower bounds are
// inclusive.
func (s ScoringConfig) Grade(score int) string {
	for _, band := range s.GradeBands {
		if score >= band.Min {
			return band.Grade
		}
	}
	return s.GradeBands[len(s.GradeBands)-1].Grade
}

// mergeScoring overlays non-zero fields from file config onto defaults.
func mergeScoring(base ScoringConfig, override ScoringConfig) ScoringConfig {
	out := base
	zero := FactorWeights{}
	if override.Weights != zero {
		out.Weights = override.Weights
	}
	if override.CommitsPerWeekCeiling > 0 {
		out.CommitsPerWeekCeiling = override.CommitsPerWeekCeiling
	}
	if override.DiversityCeiling > 0 {
		out.DiversityCeiling = override.DiversityCeiling
	}
	if override.SlowResolutionDays > 0 {
		out.SlowResolutionDays = override.SlowResolutionDays
	}
	if override.VerySlowResolutionDays > 0 {
		out.VerySlowResolutionDays = override.VerySlowResolutionDays
	}
	if override.FastMergeHours > 0 {
		out.FastMergeHours = override.FastMergeHours
	}
	if override.SlowMergeHours > 0 {
		out.SlowMergeHours = override.SlowMergeHours
	}
	if override.MinTrendChangePct > 0 {
		out.MinTrendChangePct = override.MinTrendChangePct
	}
	if len(override.GradeBands) > 0 {
		out.GradeBands = override.GradeBands
	}
	return out
}
