package memory

import (
	"time"

	"gym-membership-be/internal/entity"

	"github.com/google/uuid"
)

func membershipFixture() entity.Membership {
	end := time.Now().Add(-48 * time.Hour)
	trainer := uuid.New()
	return entity.Membership{
		UserId:          uuid.New(),
		PlanName:        "Regular Monthly",
		Status:          entity.MembershipStatusActive,
		EndDate:         &end,
		TrainerAssigned: true,
		TrainerId:       &trainer,
	}
}
