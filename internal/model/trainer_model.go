package model

import (
	"time"

	"github.com/google/uuid"
)

type MembershipAddon struct {
	Id           int64      `gorm:"primaryKey;autoIncrement"`
	MembershipId int64      `gorm:"not null;index"`
	UserId       uuid.UUID  `gorm:"type:uuid;not null"`
	AddonType    string     `gorm:"type:varchar(30);not null"`
	Status       string     `gorm:"type:varchar(20);not null;index"`
	Price        float64    `gorm:"type:decimal(10,2);not null"`
	TrainerId    *uuid.UUID `gorm:"type:uuid"`
	CreatedAt    time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime"`
}

func (MembershipAddon) TableName() string {
	return "membership_addons"
}

type TrainerAssignment struct {
	Id             int64      `gorm:"primaryKey;autoIncrement"`
	MembershipId   int64      `gorm:"not null;index"`
	UserId         uuid.UUID  `gorm:"type:uuid;not null"`
	TrainerId      *uuid.UUID `gorm:"type:uuid"`
	AssignmentType string     `gorm:"type:varchar(20);not null"`
	Status         string     `gorm:"type:varchar(20);not null;index"`
	PeriodStart    *time.Time
	PeriodEnd      *time.Time
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

func (TrainerAssignment) TableName() string {
	return "trainer_assignments"
}
