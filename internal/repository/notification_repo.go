package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/garyjia/billing-workflow/internal/application/port"
	"github.com/garyjia/billing-workflow/internal/domain/entity"
	"go.uber.org/zap"
)

// NotificationRepository keeps the local notification history in sqlite
type NotificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB, logger *zap.Logger) *NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Append stores n and trims the history to the newest limit entries in one transaction
func (r *NotificationRepository) Append(ctx context.Context, n *entity.Notification, limit int) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	// stored as text, so one zone keeps created_at ordering lexical
	n.CreatedAt = n.CreatedAt.UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO notifications (kind, title, message, bill_number, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, n.Kind, n.Title, n.Message, n.BillNumber, n.Read, n.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to store notification",
			zap.String("kind", n.Kind),
			zap.Error(err))
		return fmt.Errorf("failed to store notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get notification id: %w", err)
	}

	if limit > 0 {
		trimmed, err := tx.ExecContext(ctx, `
			DELETE FROM notifications
			WHERE id NOT IN (
				SELECT id FROM notifications ORDER BY created_at DESC, id DESC LIMIT ?
			)
		`, limit)
		if err != nil {
			return fmt.Errorf("failed to trim notification history: %w", err)
		}
		if removed, _ := trimmed.RowsAffected(); removed > 0 {
			r.logger.Debug("Trimmed notification history", zap.Int64("removed", removed))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit notification: %w", err)
	}

	n.ID = id
	return nil
}

// List returns up to limit notifications, newest first
func (r *NotificationRepository) List(ctx context.Context, limit int) ([]*entity.Notification, error) {
	if limit <= 0 {
		limit = entity.NotificationHistoryLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, title, message, bill_number, is_read, created_at
		FROM notifications
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var out []*entity.Notification
	for rows.Next() {
		n := &entity.Notification{}
		if err := rows.Scan(&n.ID, &n.Kind, &n.Title, &n.Message, &n.BillNumber, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flags a notification as read
func (r *NotificationRepository) MarkRead(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "UPDATE notifications SET is_read = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("notification %d: %w", id, port.ErrNotFound)
	}
	return nil
}

var _ port.NotificationRepository = (*NotificationRepository)(nil)
