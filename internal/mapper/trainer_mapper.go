package mapper

import (
	"gym-membership-be/internal/entity"
	"gym-membership-be/internal/model"
)

type TrainerMapper struct{}

func NewTrainerMapper() *TrainerMapper {
	return &TrainerMapper{}
}

func (m *TrainerMapper) AddonToEntity(a *model.MembershipAddon) *entity.MembershipAddon {
	if a == nil {
		return nil
	}
	return &entity.MembershipAddon{
		Id:           a.Id,
		MembershipId: a.MembershipId,
		UserId:       a.UserId,
		AddonType:    entity.AddonType(a.AddonType),
		Status:       entity.AddonStatus(a.Status),
		Price:        a.Price,
		TrainerId:    a.TrainerId,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func (m *TrainerMapper) AddonToModel(a *entity.MembershipAddon) *model.MembershipAddon {
	if a == nil {
		return nil
	}
	return &model.MembershipAddon{
		Id:           a.Id,
		MembershipId: a.MembershipId,
		UserId:       a.UserId,
		AddonType:    string(a.AddonType),
		Status:       string(a.Status),
		Price:        a.Price,
		TrainerId:    a.TrainerId,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func (m *TrainerMapper) AssignmentToEntity(a *model.TrainerAssignment) *entity.TrainerAssignment {
	if a == nil {
		return nil
	}
	return &entity.TrainerAssignment{
		Id:             a.Id,
		MembershipId:   a.MembershipId,
		UserId:         a.UserId,
		TrainerId:      a.TrainerId,
		AssignmentType: entity.AssignmentType(a.AssignmentType),
		Status:         entity.AssignmentStatus(a.Status),
		PeriodStart:    a.PeriodStart,
		PeriodEnd:      a.PeriodEnd,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func (m *TrainerMapper) AssignmentToModel(a *entity.TrainerAssignment) *model.TrainerAssignment {
	if a == nil {
		return nil
	}
	return &model.TrainerAssignment{
		Id:             a.Id,
		MembershipId:   a.MembershipId,
		UserId:         a.UserId,
		TrainerId:      a.TrainerId,
		AssignmentType: string(a.AssignmentType),
		Status:         string(a.Status),
		PeriodStart:    a.PeriodStart,
		PeriodEnd:      a.PeriodEnd,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}
