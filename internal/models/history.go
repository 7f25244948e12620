package models

import "time"

// ScoreRecord is one persisted health score observation.
type ScoreRecord struct {
	ID         int64      `json:"id"`
	TargetKind TargetKind `json:"target_kind"`
	TargetID   string     `json:"target_id"`
	Score      int        `json:"score"`
	Grade      string     `json:"grade"`
	Partial    bool       `json:"partial"`
	ComputedAt time.Time  `json:"computed_at"`
}
