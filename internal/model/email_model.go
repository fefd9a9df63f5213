package model

import (
	"time"

	"github.com/google/uuid"
)

type EmailEvent struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_email_events_key,priority:1"`
	MembershipId int64     `gorm:"not null;uniqueIndex:idx_email_events_key,priority:2"`
	EventType    string    `gorm:"type:varchar(80);not null;uniqueIndex:idx_email_events_key,priority:3"`
	SentAt       time.Time `gorm:"not null"`
}

func (EmailEvent) TableName() string {
	return "email_events"
}

type EmailFailure struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId        uuid.UUID `gorm:"type:uuid;not null;index:idx_email_failures_key,priority:1"`
	MembershipId  int64     `gorm:"not null;index:idx_email_failures_key,priority:2"`
	EventType     string    `gorm:"type:varchar(80);not null;index:idx_email_failures_key,priority:3"`
	Recipient     string    `gorm:"type:varchar(255)"`
	LastError     string    `gorm:"type:text"`
	Attempts      int       `gorm:"not null;default:1"`
	LastAttemptAt time.Time `gorm:"not null"`
	ResolvedAt    *time.Time
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

func (EmailFailure) TableName() string {
	return "email_failures"
}
