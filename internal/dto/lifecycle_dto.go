package dto

import "time"

// --- Lifecycle Run ---

type EmailCountResponse struct {
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type MembershipRunCounts struct {
	ExpiringFound     int `json:"expiring_found"`
	ReminderFound     int `json:"reminder_found"`
	ExpiresTodayFound int `json:"expires_today_found"`
	GraceEligible     int `json:"grace_eligible"`
	MovedToGrace      int `json:"moved_to_grace"`
	LegacyExpired     int `json:"legacy_expired"`
	InGraceFound      int `json:"in_grace_found"`
	Terminated        int `json:"terminated"`
}

type TrainerRunCounts struct {
	ExpiringFound int `json:"expiring_found"`
	GraceEligible int `json:"grace_eligible"`
	GraceStarted  int `json:"grace_started"`
	InGraceFound  int `json:"in_grace_found"`
	Revoked       int `json:"revoked"`
}

type LifecycleRunResponse struct {
	StartedAt        time.Time                     `json:"started_at"`
	DurationMs       int64                         `json:"duration_ms"`
	NotificationDays int                           `json:"notification_days"`
	Memberships      MembershipRunCounts           `json:"memberships"`
	Trainers         TrainerRunCounts              `json:"trainers"`
	Emails           map[string]EmailCountResponse `json:"emails"`
	Notifications    int                           `json:"notifications"`
	Errors           int                           `json:"errors"`
}
