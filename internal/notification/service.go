package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/billing-workflow/internal/application/port"
	"github.com/garyjia/billing-workflow/internal/domain/entity"
	"go.uber.org/zap"
)

// chatTimeout bounds one best-effort chat delivery
const chatTimeout = 5 * time.Second

// Service records lifecycle notifications locally and mirrors them to chat
type Service struct {
	repo   port.NotificationRepository
	chat   port.ChatNotifier
	limit  int
	logger *zap.Logger
}

// NewService creates a notification service. chat may be nil.
func NewService(repo port.NotificationRepository, chat port.ChatNotifier, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		chat:   chat,
		limit:  entity.NotificationHistoryLimit,
		logger: logger,
	}
}

// Publish stores n in the capped history and forwards it to chat.
// Chat failures are logged and never returned.
func (s *Service) Publish(ctx context.Context, n entity.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	if err := s.repo.Append(ctx, &n, s.limit); err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}

	s.logger.Info("Notification recorded",
		zap.Int64("id", n.ID),
		zap.String("kind", n.Kind),
		zap.String("bill_number", n.BillNumber))

	if s.chat == nil {
		return nil
	}

	chatCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), chatTimeout)
	defer cancel()
	if err := s.chat.Notify(chatCtx, ChatText(n)); err != nil {
		s.logger.Warn("Failed to forward notification to chat",
			zap.String("kind", n.Kind),
			zap.Error(err))
	}
	return nil
}

// List returns the notification history, newest first
func (s *Service) List(ctx context.Context) ([]*entity.Notification, error) {
	list, err := s.repo.List(ctx, s.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return list, nil
}

// MarkRead flags one notification as read
func (s *Service) MarkRead(ctx context.Context, id int64) error {
	return s.repo.MarkRead(ctx, id)
}

// ChatText formats a notification as a chat message
func ChatText(n entity.Notification) string {
	var b strings.Builder
	b.WriteString(kindLabel(n.Kind))
	b.WriteString(n.Title)
	if n.BillNumber != "" && !strings.Contains(n.Title, n.BillNumber) {
		fmt.Fprintf(&b, " (%s)", n.BillNumber)
	}
	if n.Message != "" {
		b.WriteString("\n")
		b.WriteString(n.Message)
	}
	return b.String()
}

func kindLabel(kind string) string {
	switch kind {
	case entity.NotificationPermissionRequest:
		return "[Action required] "
	case entity.NotificationNumberFallback:
		return "[Warning] "
	case entity.NotificationBillCancelled:
		return "[Cancelled] "
	default:
		return ""
	}
}
