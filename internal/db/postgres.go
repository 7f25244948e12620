package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kmensah/gitlab-insights/internal/models"
)

// SaveScore appends one health score observation to the history.
func (s *PostgresStore) SaveScore(ctx context.Context, score *models.HealthScore) error {
	if score == nil {
		return fmt.Errorf("score cannot be nil")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO score_history (target_kind, target_id, score, grade, partial, computed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, score.Target.Kind, score.Target.ID, score.Score, score.Grade, score.Partial, score.ComputedAt)

	if err != nil {
		return fmt.Errorf("failed to save score: %w", err)
	}
	return nil
}

// ListScores returns up to limit observations for a target, newest first.
func (s *PostgresStore) ListScores(ctx context.Context, target models.Target, limit int) ([]*models.ScoreRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, target_kind, target_id, score, grade, partial, computed_at
		FROM score_history
		WHERE target_kind = $1 AND target_id = $2
		ORDER BY computed_at DESC
		LIMIT $3
	`, target.Kind, target.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query score history: %w", err)
	}
	defer rows.Close()

	var records []*models.ScoreRecord
	for rows.Next() {
		var r models.ScoreRecord
		if err := rows.Scan(&r.ID, &r.TargetKind, &r.TargetID, &r.Score, &r.Grade, &r.Partial, &r.ComputedAt); err != nil {
			return nil, fmt.Errorf("failed to scan score record: %w", err)
		}
		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating score history: %w", err)
	}

	return records, nil
}

// SaveSnapshot upserts the snapshot row for its target and window with an
// expiry ttl from now.
func (s *PostgresStore) SaveSnapshot(ctx context.Context, snap *models.Snapshot, ttl time.Duration) error {
	if snap == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}
	if ttl <= 0 {
		return fmt.Errorf("snapshot ttl must be positive")
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (target_kind, target_id, window_since, window_until, snapshot_json, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW() + $6 * INTERVAL '1 second', NOW(), NOW())
		ON CONFLICT (target_kind, target_id, window_since, window_until) DO UPDATE SET
			snapshot_json = EXCLUDED.snapshot_json,
			expires_at = EXCLUDED.expires_at,
			updated_at = NOW()
	`, snap.Target.Kind, snap.Target.ID, snap.Window.Since, snap.Window.Until, payload, int64(ttl.Seconds()))

	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the stored snapshot for a target and window together
// with the row's remaining lifetime, or nil when no row exists or the stored
// row has passed its expiry.
func (s *PostgresStore) LoadSnapshot(ctx context.Context, target models.Target, window models.Window) (*models.Snapshot, time.Duration, error) {
	var payload []byte
	var remainingSec float64

	err := s.db.QueryRowContext(ctx, `
		SELECT snapshot_json, EXTRACT(EPOCH FROM (expires_at - NOW())) FROM snapshots
		WHERE target_kind = $1 AND target_id = $2
		  AND window_since = $3 AND window_until = $4
		  AND expires_at > NOW()
	`, target.Kind, target.ID, window.Since, window.Until).Scan(&payload, &remainingSec)

	if err == sql.ErrNoRows {
		return nil, 0, nil
	} else if err != nil {
		return nil, 0, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return &snap, time.Duration(remainingSec * float64(time.Second)), nil
}
