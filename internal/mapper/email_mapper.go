package mapper

import (
	"gym-membership-be/internal/entity"
	"gym-membership-be/internal/model"
)

type EmailMapper struct{}

func NewEmailMapper() *EmailMapper {
	return &EmailMapper{}
}

func (m *EmailMapper) FailureToEntity(f *model.EmailFailure) *entity.EmailFailure {
	if f == nil {
		return nil
	}
	return &entity.EmailFailure{
		Id:            f.Id,
		UserId:        f.UserId,
		MembershipId:  f.MembershipId,
		EventType:     f.EventType,
		Recipient:     f.Recipient,
		LastError:     f.LastError,
		Attempts:      f.Attempts,
		LastAttemptAt: f.LastAttemptAt,
		ResolvedAt:    f.ResolvedAt,
		CreatedAt:     f.CreatedAt,
	}
}
