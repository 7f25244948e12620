package models

import "time"

// TargetKind distinguishes the two analyzable target types.
type TargetKind string

const (
	TargetProject TargetKind = "project"
	TargetGroup   TargetKind = "group"
)

// Target identifies a project or group by numeric ID or full path.
type Target struct {
	Kind TargetKind `json:"kind"`
	ID   string     `json:"id"`
}

// Window is a half-open time interval [Since, Until).
type Window struct {
	Since time.Time `json:"since"`
	Until time.Time `json:"until"`
}

// Days returns the window length in fractional days.
func (w Window) Days() float64 {
	return w.Until.Sub(w.Since).Hours() / 24
}

// Weeks returns the window length in fractional weeks.
func (w Window) Weeks() float64 {
	return w.Days() / 7
}

// Halves splits the window into two equal adjacent sub-windows.
func (w Window) Halves() (previous, current Window) {
	mid := w.Since.Add(w.Until.Sub(w.Since) / 2)
	return Window{Since: w.Since, Until: mid}, Window{Since: mid, Until: w.Until}
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Since) && t.Before(w.Until)
}

// MetricSample is one time-bucketed measurement in a snapshot's series.
type MetricSample struct {
	Bucket time.Time `json:"bucket"`
	Count  int       `json:"count"`
}

// CommitMetrics summarizes commit activity inside the window.
type CommitMetrics struct {
	Total         int            `json:"total"`
	Additions     int            `json:"additions"`
	Deletions     int            `json:"deletions"`
	PerDay        []MetricSample `json:"per_day"`
	ByAuthor      map[string]int `json:"by_author"`
	UniqueAuthors int            `json:"unique_authors"`
	WeeklyAverage float64        `json:"weekly_average"`
	// TrendCoefficient is the normalized slope of the weekly commit counts,
	// in [-1, 1]; negative means declining activity.
	TrendCoefficient float64 `json:"trend_coefficient"`
	MostActiveDay    string  `json:"most_active_day"`
	// MessageQuality scores commit message hygiene in [0, 100].
	MessageQuality float64 `json:"message_quality"`
}

// IssueMetrics summarizes issue activity inside the window.
type IssueMetrics struct {
	Total       int     `json:"total"`
	Open        int     `json:"open"`
	Closed      int     `json:"closed"`
	ClosureRate float64 `json:"closure_rate"`
	// ResolvedCount is the number of closed issues with a usable resolution
	// time; the resolution averages below are meaningless when it is zero.
	ResolvedCount         int            `json:"resolved_count"`
	AvgResolutionDays     float64        `json:"avg_resolution_days"`
	MedianResolutionDays  float64        `json:"median_resolution_days"`
	Unassigned            int            `json:"unassigned"`
	Overdue               int            `json:"overdue"`
	ByLabel               map[string]int `json:"by_label"`
	// ByWorkflowState buckets issues by the first matching workflow label in
	// the configured ordering.
	ByWorkflowState map[string]int `json:"by_workflow_state"`
}

// MergeMetrics summarizes merge request activity inside the window.
type MergeMetrics struct {
	Total            int     `json:"total"`
	Open             int     `json:"open"`
	Merged           int     `json:"merged"`
	Closed           int     `json:"closed"`
	MergeRate        float64 `json:"merge_rate"`
	MergedWithTime   int     `json:"merged_with_time"`
	AvgMergeHours    float64 `json:"avg_merge_hours"`
	MedianMergeHours float64 `json:"median_merge_hours"`
	Authors          int     `json:"authors"`
}

// ContributorMetrics holds the canonical contributor set for the window.
type ContributorMetrics struct {
	Total        int                     `json:"total"`
	Contributors []*CanonicalContributor `json:"contributors"`
}

// Snapshot is the normalized point-in-time aggregate of a target's activity
// over a window. It is immutable once built and never outlives the cache TTL.
// A nil section means that section's fetch failed fatally; the reason is in
// SectionErrors.
type Snapshot struct {
	Target        Target              `json:"target"`
	Window        Window              `json:"window"`
	ProjectCount  int                 `json:"project_count"`
	Commits       *CommitMetrics      `json:"commits,omitempty"`
	Issues        *IssueMetrics       `json:"issues,omitempty"`
	Merges        *MergeMetrics       `json:"merges,omitempty"`
	Contributors  *ContributorMetrics `json:"contributors,omitempty"`
	SectionErrors map[string]string   `json:"section_errors,omitempty"`
	BuiltAt       time.Time           `json:"built_at"`
}

// Partial reports whether any section is absent.
func (s *Snapshot) Partial() bool {
	return s.Commits == nil || s.Issues == nil || s.Merges == nil || s.Contributors == nil
}
