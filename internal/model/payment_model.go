package model

import (
	"time"

	"github.com/google/uuid"
)

type MembershipPayment struct {
	Id            int64      `gorm:"primaryKey;autoIncrement"`
	MembershipId  int64      `gorm:"not null;index"`
	UserId        uuid.UUID  `gorm:"type:uuid;not null"`
	Amount        float64    `gorm:"type:decimal(10,2);not null"`
	Status        string     `gorm:"type:varchar(20);not null;index"`
	TransactionId *string    `gorm:"type:varchar(255)"`
	VerifiedBy    *uuid.UUID `gorm:"type:uuid"`
	VerifiedAt    *time.Time
	CreatedAt     time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

func (MembershipPayment) TableName() string {
	return "membership_payments"
}

type Invoice struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	InvoiceNumber string    `gorm:"type:varchar(50);uniqueIndex;not null"`
	PaymentId     int64     `gorm:"uniqueIndex;not null"`
	MembershipId  int64     `gorm:"not null;index"`
	UserId        uuid.UUID `gorm:"type:uuid;not null"`
	Amount        float64   `gorm:"type:decimal(10,2);not null"`
	Purpose       string    `gorm:"type:varchar(30);not null"`
	IssuedAt      time.Time `gorm:"not null"`
}

func (Invoice) TableName() string {
	return "invoices"
}
