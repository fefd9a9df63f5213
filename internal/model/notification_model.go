package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Notification stores in-app messages for members.
type Notification struct {
	Id           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserId       uuid.UUID      `gorm:"type:uuid;not null;index:idx_notifications_user_created,priority:1"`
	MembershipId *int64         `gorm:"index"`
	Type         string         `gorm:"type:varchar(50);not null"`
	Title        string         `gorm:"type:varchar(200);not null"`
	Message      string         `gorm:"type:text;not null"`
	Metadata     datatypes.JSON `gorm:"type:jsonb"`
	IsRead       bool           `gorm:"default:false"`
	CreatedAt    time.Time      `gorm:"default:CURRENT_TIMESTAMP;index:idx_notifications_user_created,priority:2"`
}

func (Notification) TableName() string {
	return "notifications"
}

// AdminNotification is visible to every admin.
type AdminNotification struct {
	Id           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	MembershipId *int64         `gorm:"index"`
	Type         string         `gorm:"type:varchar(50);not null"`
	Title        string         `gorm:"type:varchar(200);not null"`
	Message      string         `gorm:"type:text;not null"`
	Metadata     datatypes.JSON `gorm:"type:jsonb"`
	IsRead       bool           `gorm:"default:false"`
	CreatedAt    time.Time      `gorm:"default:CURRENT_TIMESTAMP;index"`
}

func (AdminNotification) TableName() string {
	return "admin_notifications"
}
