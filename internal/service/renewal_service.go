package service

import (
	"context"
	"errors"

	"gym-membership-be/internal/dto"
	"gym-membership-be/pkg/renewal"

	"github.com/google/uuid"
)

var ErrMembershipNotFound = renewal.ErrMembershipNotFound

type IRenewalService interface {
	ApproveTrainerRenewal(ctx context.Context, membershipId int64, adminId uuid.UUID) (*dto.TrainerRenewalResponse, error)
}

type renewalService struct {
	approver *renewal.Approver
}

func NewRenewalService(approver *renewal.Approver) IRenewalService {
	return &renewalService{approver: approver}
}

func (s *renewalService) ApproveTrainerRenewal(ctx context.Context, membershipId int64, adminId uuid.UUID) (*dto.TrainerRenewalResponse, error) {
	ap, err := s.approver.Approve(ctx, membershipId, adminId)
	if err != nil {
		return nil, err
	}
	rejected := ap.RejectedPayments
	if rejected == nil {
		rejected = []int64{}
	}
	return &dto.TrainerRenewalResponse{
		MembershipId:     ap.MembershipId,
		PaymentId:        ap.PaymentId,
		AddonId:          ap.AddonId,
		AssignmentId:     ap.AssignmentId,
		TrainerId:        ap.TrainerId,
		Amount:           ap.Amount,
		PeriodStart:      ap.PeriodStart,
		PeriodEnd:        ap.PeriodEnd,
		CappedAtEndDate:  ap.Capped,
		RejectedPayments: rejected,
	}, nil
}

// RejectionOf unwraps a workflow rejection for the transport layer.
func RejectionOf(err error) (*dto.RenewalRejectionResponse, bool) {
	var rej *renewal.RejectionError
	if !errors.As(err, &rej) {
		return nil, false
	}
	return &dto.RenewalRejectionResponse{Reason: rej.Error(), Candidates: rej.Candidates}, true
}
