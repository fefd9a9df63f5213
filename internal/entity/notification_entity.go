package entity

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationGraceStarted      NotificationType = "membership_grace_started"
	NotificationGraceMilestone    NotificationType = "membership_grace_milestone"
	NotificationMembershipEnded   NotificationType = "membership_terminated"
	NotificationTrainerGrace      NotificationType = "trainer_grace_started"
	NotificationTrainerMilestone  NotificationType = "trainer_grace_milestone"
	NotificationTrainerRevoked    NotificationType = "trainer_access_revoked"
	NotificationTrainerRenewed    NotificationType = "trainer_renewal_approved"
	NotificationLifecycleFailures NotificationType = "lifecycle_run_failures"
)

// Notification is an in-app message for a member. Admin notifications use
// the same shape with a nil RecipientId.
type Notification struct {
	Id           uuid.UUID
	RecipientId  *uuid.UUID
	MembershipId *int64
	Type         NotificationType
	Title        string
	Message      string
	Metadata     map[string]interface{}
	IsRead       bool
	CreatedAt    time.Time
}

type AuditLog struct {
	Id             uuid.UUID
	MembershipId   int64
	Action         string
	ActorId        *uuid.UUID
	PreviousStatus string
	NewStatus      string
	Details        map[string]interface{}
	CreatedAt      time.Time
}

type AdminSetting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}
