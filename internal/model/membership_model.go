package model

import (
	"time"

	"github.com/google/uuid"
)

type Membership struct {
	Id             int64     `gorm:"primaryKey;autoIncrement"`
	UserId         uuid.UUID `gorm:"type:uuid;not null;index"`
	PlanName       string    `gorm:"type:varchar(255);not null"`
	PlanMode       string    `gorm:"type:varchar(20);not null;default:'in_gym'"`
	DurationMonths int       `gorm:"not null;default:1"`
	Price          float64   `gorm:"type:decimal(10,2);not null"`
	Status         string    `gorm:"type:varchar(30);not null;index"`
	StartDate      *time.Time
	// Two generations of the schema wrote the end date to different columns.
	MembershipEndDate *time.Time `gorm:"column:membership_end_date;index"`
	EndDate           *time.Time `gorm:"column:end_date"`
	GracePeriodEnd    *time.Time `gorm:"index"`

	TrainerAssigned       bool       `gorm:"default:false"`
	TrainerId             *uuid.UUID `gorm:"type:uuid"`
	TrainerPeriodEnd      *time.Time `gorm:"index"`
	TrainerGracePeriodEnd *time.Time

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Membership) TableName() string {
	return "memberships"
}
