package mapper

import (
	"gym-membership-be/internal/entity"
	"gym-membership-be/internal/model"
)

type PaymentMapper struct{}

func NewPaymentMapper() *PaymentMapper {
	return &PaymentMapper{}
}

func (m *PaymentMapper) ToEntity(p *model.MembershipPayment) *entity.MembershipPayment {
	if p == nil {
		return nil
	}
	return &entity.MembershipPayment{
		Id:            p.Id,
		MembershipId:  p.MembershipId,
		UserId:        p.UserId,
		Amount:        p.Amount,
		Status:        entity.MembershipPaymentStatus(p.Status),
		TransactionId: p.TransactionId,
		VerifiedBy:    p.VerifiedBy,
		VerifiedAt:    p.VerifiedAt,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func (m *PaymentMapper) InvoiceToEntity(i *model.Invoice) *entity.Invoice {
	if i == nil {
		return nil
	}
	return &entity.Invoice{
		Id:            i.Id,
		InvoiceNumber: i.InvoiceNumber,
		PaymentId:     i.PaymentId,
		MembershipId:  i.MembershipId,
		UserId:        i.UserId,
		Amount:        i.Amount,
		Purpose:       entity.PaymentPurpose(i.Purpose),
		IssuedAt:      i.IssuedAt,
	}
}

func (m *PaymentMapper) InvoiceToModel(i *entity.Invoice) *model.Invoice {
	if i == nil {
		return nil
	}
	return &model.Invoice{
		Id:            i.Id,
		InvoiceNumber: i.InvoiceNumber,
		PaymentId:     i.PaymentId,
		MembershipId:  i.MembershipId,
		UserId:        i.UserId,
		Amount:        i.Amount,
		Purpose:       string(i.Purpose),
		IssuedAt:      i.IssuedAt,
	}
}
