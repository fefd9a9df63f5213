package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type MembershipAuditLog struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MembershipId   int64          `gorm:"not null;index"`
	Action         string         `gorm:"type:varchar(50);not null;index"`
	ActorId        *uuid.UUID     `gorm:"type:uuid"`
	PreviousStatus string         `gorm:"type:varchar(30)"`
	NewStatus      string         `gorm:"type:varchar(30)"`
	Details        datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt      time.Time      `gorm:"default:now();not null;index"`
}

func (MembershipAuditLog) TableName() string {
	return "membership_audit_logs"
}

type AdminSetting struct {
	Key       string    `gorm:"type:varchar(100);primaryKey"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (AdminSetting) TableName() string {
	return "admin_settings"
}
