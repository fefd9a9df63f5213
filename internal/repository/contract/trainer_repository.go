package contract

import (
	"context"
	"time"

	"gym-membership-be/internal/entity"

	"github.com/google/uuid"
)

type AddonRepository interface {
	FindByID(ctx context.Context, id int64) (*entity.MembershipAddon, error)
	// FindByMembership returns every addon of the membership, oldest first.
	FindByMembership(ctx context.Context, membershipId int64) ([]*entity.MembershipAddon, error)
	Activate(ctx context.Context, id int64) (bool, error)
}

type AssignmentRepository interface {
	FindByMembership(ctx context.Context, membershipId int64) ([]*entity.TrainerAssignment, error)
	Create(ctx context.Context, assignment *entity.TrainerAssignment) error
	MarkAssigned(ctx context.Context, id int64, trainerId *uuid.UUID, start, end time.Time) (bool, error)
	// ExpireForMembership flips rows in any of the given statuses to expired.
	ExpireForMembership(ctx context.Context, membershipId int64, from ...entity.AssignmentStatus) (int64, error)
}
