package mapper

import (
	"time"

	"gym-membership-be/internal/entity"
	"gym-membership-be/internal/model"
)

type MembershipMapper struct{}

func NewMembershipMapper() *MembershipMapper {
	return &MembershipMapper{}
}

// ResolveEndDate prefers membership_end_date and falls back to the older end_date column.
func ResolveEndDate(primary, legacy *time.Time) *time.Time {
	if primary != nil {
		return primary
	}
	return legacy
}

func (m *MembershipMapper) ToEntity(mm *model.Membership) *entity.Membership {
	if mm == nil {
		return nil
	}
	return &entity.Membership{
		Id:                    mm.Id,
		UserId:                mm.UserId,
		PlanName:              mm.PlanName,
		PlanMode:              entity.ParsePlanMode(mm.PlanMode),
		PlanCategory:          entity.CategorizePlan(mm.PlanName),
		DurationMonths:        mm.DurationMonths,
		Price:                 mm.Price,
		Status:                entity.MembershipStatus(mm.Status),
		StartDate:             mm.StartDate,
		EndDate:               ResolveEndDate(mm.MembershipEndDate, mm.EndDate),
		GracePeriodEnd:        mm.GracePeriodEnd,
		TrainerAssigned:       mm.TrainerAssigned,
		TrainerId:             mm.TrainerId,
		TrainerPeriodEnd:      mm.TrainerPeriodEnd,
		TrainerGracePeriodEnd: mm.TrainerGracePeriodEnd,
		CreatedAt:             mm.CreatedAt,
		UpdatedAt:             mm.UpdatedAt,
	}
}

func (m *MembershipMapper) ToModel(e *entity.Membership) *model.Membership {
	if e == nil {
		return nil
	}
	return &model.Membership{
		Id:                    e.Id,
		UserId:                e.UserId,
		PlanName:              e.PlanName,
		PlanMode:              string(e.PlanMode),
		DurationMonths:        e.DurationMonths,
		Price:                 e.Price,
		Status:                string(e.Status),
		StartDate:             e.StartDate,
		MembershipEndDate:     e.EndDate,
		EndDate:               e.EndDate,
		GracePeriodEnd:        e.GracePeriodEnd,
		TrainerAssigned:       e.TrainerAssigned,
		TrainerId:             e.TrainerId,
		TrainerPeriodEnd:      e.TrainerPeriodEnd,
		TrainerGracePeriodEnd: e.TrainerGracePeriodEnd,
		CreatedAt:             e.CreatedAt,
		UpdatedAt:             e.UpdatedAt,
	}
}
