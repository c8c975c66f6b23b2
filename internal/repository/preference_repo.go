package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/billing-workflow/internal/application/port"
	"go.uber.org/zap"
)

// PreferenceRepository stores key/value client state such as the last
// selected company and the cached auth token
type PreferenceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPreferenceRepository creates a new preference repository
func NewPreferenceRepository(db *sql.DB, logger *zap.Logger) *PreferenceRepository {
	return &PreferenceRepository{
		db:     db,
		logger: logger,
	}
}

// Get returns the value stored under key, or a wrapped port.ErrNotFound
func (r *PreferenceRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM preferences WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("preference %s: %w", key, port.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read preference: %w", err)
	}
	return value, nil
}

// Set stores value under key, replacing any previous value
func (r *PreferenceRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	if err != nil {
		r.logger.Error("Failed to store preference", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to store preference: %w", err)
	}
	return nil
}

var _ port.PreferenceRepository = (*PreferenceRepository)(nil)
