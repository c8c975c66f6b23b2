package port

import (
	"context"

	"github.com/garyjia/billing-workflow/internal/domain/entity"
)

// NotificationRepository stores the local, capped notification history
type NotificationRepository interface {
	Append(ctx context.Context, n *entity.Notification, limit int) error
	List(ctx context.Context, limit int) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, id int64) error
}

// PreferenceRepository stores advisory client-side values such as the
// last-selected company and the cached auth token
type PreferenceRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Preference keys
const (
	PrefLastCompany = "last_company"
	PrefAuthToken   = "auth_token"
)
