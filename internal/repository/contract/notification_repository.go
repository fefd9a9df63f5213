package contract

import (
	"context"

	"gym-membership-be/internal/entity"
)

type NotificationRepository interface {
	CreateBulk(ctx context.Context, notifications []*entity.Notification) error
	CreateAdmin(ctx context.Context, notification *entity.Notification) error
}

type AuditLogRepository interface {
	Create(ctx context.Context, log *entity.AuditLog) error
}

type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
}
