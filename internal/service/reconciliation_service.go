package service

import (
	"context"
	"errors"
	"fmt"

	"gym-membership-be/internal/dto"
	"gym-membership-be/internal/pkg/logger"
	"gym-membership-be/internal/pkg/metrics"
	"gym-membership-be/internal/repository/unitofwork"
	"gym-membership-be/pkg/reconcile"
)

var ErrPaymentNotFound = errors.New("payment not found")

type IReconciliationService interface {
	ClassifyPayment(ctx context.Context, paymentId int64) (*dto.PaymentPurposeResponse, error)
}

type reconciliationService struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewReconciliationService(uowFactory unitofwork.RepositoryFactory, l logger.ILogger) IReconciliationService {
	return &reconciliationService{uowFactory: uowFactory, logger: l}
}

func (s *reconciliationService) ClassifyPayment(ctx context.Context, paymentId int64) (*dto.PaymentPurposeResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	payment, err := uow.PaymentRepository().FindByID(ctx, paymentId)
	if err != nil {
		return nil, fmt.Errorf("load payment: %w", err)
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}

	membership, err := uow.MembershipRepository().FindByID(ctx, payment.MembershipId)
	if err != nil {
		return nil, fmt.Errorf("load membership: %w", err)
	}
	if membership == nil {
		return nil, fmt.Errorf("payment %d: %w", paymentId, ErrMembershipNotFound)
	}

	payments, err := uow.PaymentRepository().FindByMembership(ctx, membership.Id)
	if err != nil {
		return nil, fmt.Errorf("load payments: %w", err)
	}
	addons, err := uow.AddonRepository().FindByMembership(ctx, membership.Id)
	if err != nil {
		return nil, fmt.Errorf("load addons: %w", err)
	}
	assignments, err := uow.AssignmentRepository().FindByMembership(ctx, membership.Id)
	if err != nil {
		return nil, fmt.Errorf("load assignments: %w", err)
	}

	res := reconcile.Classify(reconcile.Input{
		Payment:     payment,
		Membership:  membership,
		Payments:    payments,
		Addons:      addons,
		Assignments: assignments,
	})
	metrics.RecordClassification(string(res.Purpose), string(res.Confidence))
	s.logger.Debug("RECONCILE", "Payment classified", map[string]interface{}{
		"payment_id": paymentId,
		"purpose":    res.Purpose,
		"confidence": res.Confidence,
		"hypothesis": res.Hypothesis,
	})

	return &dto.PaymentPurposeResponse{
		PaymentId:           payment.Id,
		MembershipId:        membership.Id,
		Amount:              payment.Amount,
		Purpose:             string(res.Purpose),
		Confidence:          string(res.Confidence),
		Reason:              res.Reason,
		Hypothesis:          string(res.Hypothesis),
		RenewalPrice:        res.RenewalPrice,
		TrainerPrice:        res.TrainerPrice,
		MatchedAddonId:      res.MatchedAddonID,
		MatchedAssignmentId: res.MatchedAssignmentID,
	}, nil
}
