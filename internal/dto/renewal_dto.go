package dto

import (
	"time"

	"github.com/google/uuid"
)

// --- Trainer Renewal ---

type ApproveTrainerRenewalRequest struct {
	MembershipId int64 `params:"id" validate:"required,gt=0"`
}

type TrainerRenewalResponse struct {
	MembershipId     int64      `json:"membership_id"`
	PaymentId        int64      `json:"payment_id"`
	AddonId          int64      `json:"addon_id"`
	AssignmentId     *int64     `json:"assignment_id,omitempty"`
	TrainerId        *uuid.UUID `json:"trainer_id,omitempty"`
	Amount           float64    `json:"amount"`
	PeriodStart      time.Time  `json:"period_start"`
	PeriodEnd        time.Time  `json:"period_end"`
	CappedAtEndDate  bool       `json:"capped_at_membership_end"`
	RejectedPayments []int64    `json:"rejected_payments"`
}

type RenewalRejectionResponse struct {
	Reason     string                 `json:"reason"`
	Candidates map[string]interface{} `json:"candidates,omitempty"`
}
