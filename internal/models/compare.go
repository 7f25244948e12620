package models

import "time"

// ComparisonEntry is one project's standing in a comparison.
type ComparisonEntry struct {
	Target   Target `json:"target"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Grade    string `json:"grade"`
	Partial  bool   `json:"partial"`
	Commits  int    `json:"commits"`
	Rank     int    `json:"rank"`
	ScoreErr string `json:"error,omitempty"`
}

// Comparison ranks a set of projects by health score over the same window.
// Projects whose score could not be computed appear last with the reason in
// ScoreErr and no rank.
type Comparison struct {
	Window  Window            `json:"window"`
	Entries []ComparisonEntry `json:"entries"`
	BuiltAt time.Time         `json:"built_at"`
}
