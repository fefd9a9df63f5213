package entity

import (
	"time"

	"github.com/google/uuid"
)

// EmailEventType is the idempotency key component for lifecycle emails.
type EmailEventType string

const (
	EmailExpiryWarning        EmailEventType = "membership_expiry_warning"
	EmailExpiryReminder       EmailEventType = "membership_expiry_reminder"
	EmailExpiresToday         EmailEventType = "membership_expires_today"
	EmailGraceStarted         EmailEventType = "membership_grace_started"
	EmailGraceReminder        EmailEventType = "membership_grace_reminder"
	EmailGraceEndsToday       EmailEventType = "membership_grace_ends_today"
	EmailMembershipTerminated EmailEventType = "membership_terminated"
	EmailTrainerExpiry        EmailEventType = "trainer_expiry_warning"
	EmailTrainerGraceStarted  EmailEventType = "trainer_grace_started"
	EmailTrainerGraceReminder EmailEventType = "trainer_grace_reminder"
	EmailTrainerRevoked       EmailEventType = "trainer_access_revoked"
	EmailTrainerRenewed       EmailEventType = "trainer_renewal_approved"
)

type EmailEvent struct {
	Id           uuid.UUID
	UserId       uuid.UUID
	MembershipId int64
	EventType    string
	SentAt       time.Time
}

type EmailFailure struct {
	Id            uuid.UUID
	UserId        uuid.UUID
	MembershipId  int64
	EventType     string
	Recipient     string
	LastError     string
	Attempts      int
	LastAttemptAt time.Time
	ResolvedAt    *time.Time
	CreatedAt     time.Time
}
