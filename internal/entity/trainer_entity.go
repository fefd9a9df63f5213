package entity

import (
	"time"

	"github.com/google/uuid"
)

type AddonType string
type AddonStatus string
type AssignmentType string
type AssignmentStatus string

const (
	AddonTypePersonalTrainer AddonType = "personal_trainer"
	AddonTypeInGym           AddonType = "in_gym"

	AddonStatusPending  AddonStatus = "pending"
	AddonStatusActive   AddonStatus = "active"
	AddonStatusRejected AddonStatus = "rejected"
	AddonStatusExpired  AddonStatus = "expired"

	AssignmentTypeInitial AssignmentType = "initial"
	AssignmentTypeAddon   AssignmentType = "addon"

	AssignmentStatusPending  AssignmentStatus = "pending"
	AssignmentStatusAssigned AssignmentStatus = "assigned"
	AssignmentStatusActive   AssignmentStatus = "active"
	AssignmentStatusExpired  AssignmentStatus = "expired"
)

// MembershipAddon is a purchased extra on top of a membership. Price is the
// amount captured at purchase time.
type MembershipAddon struct {
	Id           int64
	MembershipId int64
	UserId       uuid.UUID
	AddonType    AddonType
	Status       AddonStatus
	Price        float64
	TrainerId    *uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type TrainerAssignment struct {
	Id             int64
	MembershipId   int64
	UserId         uuid.UUID
	TrainerId      *uuid.UUID
	AssignmentType AssignmentType
	Status         AssignmentStatus
	PeriodStart    *time.Time
	PeriodEnd      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
