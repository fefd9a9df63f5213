package contract

import (
	"context"
	"time"

	"gym-membership-be/internal/entity"

	"github.com/google/uuid"
)

type EmailLedgerRepository interface {
	HasEvent(ctx context.Context, userId uuid.UUID, membershipId int64, eventType string) (bool, error)
	RecordEvent(ctx context.Context, event *entity.EmailEvent) error
	RecordFailure(ctx context.Context, failure *entity.EmailFailure) error
	ResolveFailures(ctx context.Context, userId uuid.UUID, membershipId int64, eventType string, at time.Time) (int64, error)
	FindOpenFailures(ctx context.Context, limit int) ([]*entity.EmailFailure, error)
}
