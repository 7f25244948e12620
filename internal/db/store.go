package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/kmensah/gitlab-insights/internal/models"
)

// Store defines the persistence operations of the insights service. All of
// it is optional; the service runs fully in memory without a store.
type Store interface {
	// Score history
	SaveScore(ctx context.Context, score *models.HealthScore) error
	ListScores(ctx context.Context, target models.Target, limit int) ([]*models.ScoreRecord, error)

	// Snapshot persistence. Snapshots are stored with an expiry; a load
	// never returns an expired row and reports the row's remaining lifetime.
	SaveSnapshot(ctx context.Context, snap *models.Snapshot, ttl time.Duration) error
	LoadSnapshot(ctx context.Context, target models.Target, window models.Window) (*models.Snapshot, time.Duration, error)

	Close() error
}

// PostgresStore is the lib/pq backed Store.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(connectionString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Migrate() error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	if err := goose.Up(s.db, "internal/db/migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
