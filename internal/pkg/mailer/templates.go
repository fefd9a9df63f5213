package mailer

import (
	"fmt"
	"html"
	"time"
)

type Template string

const (
	TemplateExpiryWarning        Template = "expiry_warning"
	TemplateExpiryReminder       Template = "expiry_reminder"
	TemplateExpiresToday         Template = "expires_today"
	TemplateGraceStarted         Template = "grace_started"
	TemplateGraceReminder        Template = "grace_reminder"
	TemplateGraceEndsToday       Template = "grace_ends_today"
	TemplateMembershipTerminated Template = "membership_terminated"
	TemplateTrainerExpiry        Template = "trainer_expiry_warning"
	TemplateTrainerGraceStarted  Template = "trainer_grace_started"
	TemplateTrainerGraceReminder Template = "trainer_grace_reminder"
	TemplateTrainerRevoked       Template = "trainer_access_revoked"
	TemplateTrainerRenewed       Template = "trainer_renewal_approved"
)

type TemplateData struct {
	FullName      string
	PlanName      string
	Date          time.Time
	DaysRemaining int
}

var subjects = map[Template]string{
	TemplateExpiryWarning:        "Your membership expires soon",
	TemplateExpiryReminder:       "Reminder: your membership ends in %d days",
	TemplateExpiresToday:         "Your membership expires today",
	TemplateGraceStarted:         "Your membership is in its grace period",
	TemplateGraceReminder:        "%d days left in your grace period",
	TemplateGraceEndsToday:       "Your grace period ends today",
	TemplateMembershipTerminated: "Your membership has ended",
	TemplateTrainerExpiry:        "Your personal trainer access expires soon",
	TemplateTrainerGraceStarted:  "Your personal trainer access is in its grace period",
	TemplateTrainerGraceReminder: "%d days left of personal trainer access",
	TemplateTrainerRevoked:       "Your personal trainer access has ended",
	TemplateTrainerRenewed:       "Your personal trainer renewal is approved",
}

var bodies = map[Template]string{
	TemplateExpiryWarning:        "Your <b>%s</b> membership ends on %s. Renew before then to keep training without interruption.",
	TemplateExpiryReminder:       "Your <b>%s</b> membership ends on %s. Renew now to avoid losing access.",
	TemplateExpiresToday:         "Your <b>%s</b> membership expires today (%s).",
	TemplateGraceStarted:         "Your <b>%s</b> membership has ended. You can still renew until %s before it is closed.",
	TemplateGraceReminder:        "Your <b>%s</b> membership grace period ends on %s.",
	TemplateGraceEndsToday:       "Today (%[2]s) is the last day to renew your <b>%[1]s</b> membership.",
	TemplateMembershipTerminated: "Your <b>%s</b> membership was closed on %s. You are welcome back any time.",
	TemplateTrainerExpiry:        "Personal trainer access on your <b>%s</b> membership ends on %s.",
	TemplateTrainerGraceStarted:  "Personal trainer access on your <b>%s</b> membership has ended. Renew until %s to keep your trainer.",
	TemplateTrainerGraceReminder: "Personal trainer access on your <b>%s</b> membership closes on %s.",
	TemplateTrainerRevoked:       "Personal trainer access on your <b>%s</b> membership ended on %s.",
	TemplateTrainerRenewed:       "Personal trainer access on your <b>%s</b> membership now runs until %s.",
}

// Render builds the subject and HTML body for a lifecycle template.
func Render(t Template, data TemplateData) (string, string) {
	subject := subjects[t]
	if data.DaysRemaining > 0 && (t == TemplateExpiryReminder || t == TemplateGraceReminder || t == TemplateTrainerGraceReminder) {
		subject = fmt.Sprintf(subject, data.DaysRemaining)
	}

	greeting := "Hi"
	if data.FullName != "" {
		greeting = "Hi " + html.EscapeString(data.FullName)
	}
	line := fmt.Sprintf(bodies[t], html.EscapeString(data.PlanName), data.Date.Format("02 Jan 2006"))

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>%s</h2>
			<p>%s,</p>
			<p>%s</p>
			<p>See you at the gym.</p>
		</div>
	`, html.EscapeString(subject), greeting, line)

	return subject, body
}
