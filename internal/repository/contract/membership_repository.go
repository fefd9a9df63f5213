package contract

import (
	"context"
	"time"

	"gym-membership-be/internal/entity"

	"github.com/google/uuid"
)

type MembershipRepository interface {
	FindByID(ctx context.Context, id int64) (*entity.Membership, error)

	// Candidate queries. Every query filters on status explicitly.
	FindExpiringBetween(ctx context.Context, from, to time.Time) ([]*entity.Membership, error)
	FindGraceEligible(ctx context.Context, endedBefore time.Time) ([]*entity.Membership, error)
	FindLegacyExpired(ctx context.Context, endedBefore time.Time) ([]*entity.Membership, error)
	FindInGrace(ctx context.Context, now time.Time) ([]*entity.Membership, error)
	FindGraceEnded(ctx context.Context, now time.Time) ([]*entity.Membership, error)
	FindTrainerExpiringBetween(ctx context.Context, from, to time.Time) ([]*entity.Membership, error)
	FindTrainerGraceEligible(ctx context.Context, now time.Time) ([]*entity.Membership, error)
	FindTrainerInGrace(ctx context.Context, now time.Time) ([]*entity.Membership, error)
	FindTrainerGraceEnded(ctx context.Context, now time.Time) ([]*entity.Membership, error)

	// Guarded writes. The bool reports whether the guard matched a row.
	MoveToGrace(ctx context.Context, id int64, graceEnd time.Time, clearTrainer bool) (bool, error)
	DeleteExpiredGrace(ctx context.Context, id int64, now time.Time) (bool, error)
	ExpireLegacy(ctx context.Context, id int64) (bool, error)
	StartTrainerGrace(ctx context.Context, id int64, graceEnd time.Time) (bool, error)
	RevokeTrainerAccess(ctx context.Context, id int64, now time.Time) (bool, error)
	UpdateTrainerPeriod(ctx context.Context, id int64, trainerId *uuid.UUID, periodEnd time.Time) (bool, error)
}
