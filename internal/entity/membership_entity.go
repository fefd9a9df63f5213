package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type MembershipStatus string
type PlanCategory string
type PlanMode string

const (
	MembershipStatusAwaitingPayment MembershipStatus = "awaiting_payment"
	MembershipStatusPending         MembershipStatus = "pending"
	MembershipStatusActive          MembershipStatus = "active"
	MembershipStatusGracePeriod     MembershipStatus = "grace_period"
	MembershipStatusExpired         MembershipStatus = "expired"

	PlanCategoryRegularMonthly PlanCategory = "regular_monthly"
	PlanCategoryStandard       PlanCategory = "standard"

	PlanModeOnline PlanMode = "online"
	PlanModeInGym  PlanMode = "in_gym"
)

// CategorizePlan derives the category from a free-form plan name. Boys/Girls
// plans are sold as regular monthly memberships.
func CategorizePlan(planName string) PlanCategory {
	n := strings.ToLower(planName)
	if strings.Contains(n, "regular") && strings.Contains(n, "monthly") {
		return PlanCategoryRegularMonthly
	}
	if strings.Contains(n, "boys") || strings.Contains(n, "girls") {
		return PlanCategoryRegularMonthly
	}
	return PlanCategoryStandard
}

func ParsePlanMode(s string) PlanMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "online":
		return PlanModeOnline
	default:
		return PlanModeInGym
	}
}

type Membership struct {
	Id             int64
	UserId         uuid.UUID
	PlanName       string
	PlanMode       PlanMode
	PlanCategory   PlanCategory
	DurationMonths int
	Price          float64
	Status         MembershipStatus

	StartDate *time.Time
	// EndDate is resolved from the two legacy end-date columns.
	EndDate        *time.Time
	GracePeriodEnd *time.Time

	TrainerAssigned       bool
	TrainerId             *uuid.UUID
	TrainerPeriodEnd      *time.Time
	TrainerGracePeriodEnd *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (m *Membership) IsRegularMonthly() bool {
	return m.PlanCategory == PlanCategoryRegularMonthly
}

// InGraceAt reports whether the membership was inside its grace window at t.
func (m *Membership) InGraceAt(t time.Time) bool {
	if m.GracePeriodEnd == nil {
		return false
	}
	if m.EndDate != nil && t.Before(*m.EndDate) {
		return false
	}
	return t.Before(*m.GracePeriodEnd)
}

// HasTrainerAccess applies the grace-aware trainer access rule.
func (m *Membership) HasTrainerAccess(now time.Time) bool {
	if !m.TrainerAssigned {
		return false
	}
	if m.TrainerPeriodEnd == nil || now.Before(*m.TrainerPeriodEnd) {
		return true
	}
	return m.TrainerGracePeriodEnd != nil && now.Before(*m.TrainerGracePeriodEnd)
}
