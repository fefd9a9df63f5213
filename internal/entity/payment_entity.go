package entity

import (
	"time"

	"github.com/google/uuid"
)

type MembershipPaymentStatus string
type PaymentPurpose string

const (
	MembershipPaymentPending  MembershipPaymentStatus = "pending"
	MembershipPaymentVerified MembershipPaymentStatus = "verified"
	MembershipPaymentRejected MembershipPaymentStatus = "rejected"

	PurposeInitial           PaymentPurpose = "initial"
	PurposeMembershipRenewal PaymentPurpose = "membership_renewal"
	PurposeTrainerRenewal    PaymentPurpose = "trainer_renewal"
)

type MembershipPayment struct {
	Id            int64
	MembershipId  int64
	UserId        uuid.UUID
	Amount        float64
	Status        MembershipPaymentStatus
	TransactionId *string
	VerifiedBy    *uuid.UUID
	VerifiedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Invoice struct {
	Id            uuid.UUID
	InvoiceNumber string
	PaymentId     int64
	MembershipId  int64
	UserId        uuid.UUID
	Amount        float64
	Purpose       PaymentPurpose
	IssuedAt      time.Time
}
