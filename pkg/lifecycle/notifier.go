package lifecycle

import (
	"context"
	"fmt"
	"time"

	"gym-membership-be/internal/entity"
	"gym-membership-be/internal/pkg/logger"
	"gym-membership-be/internal/repository/unitofwork"
	"gym-membership-be/pkg/clock"
	"gym-membership-be/pkg/dispatch"
	"gym-membership-be/pkg/events"
	"gym-membership-be/pkg/grace"

	"github.com/google/uuid"
)

// Mailer is the subset of the email dispatcher the lifecycle sends through.
type Mailer interface {
	SendExpiryWarning(ctx context.Context, userId uuid.UUID, membershipId int64, planName string, endDate time.Time) dispatch.Result
	SendExpiryReminder(ctx context.Context, userId uuid.UUID, membershipId int64, planName string, endDate time.Time, daysLeft int) dispatch.Result
	SendExpiresToday(ctx context.Context, userId uuid.UUID, membershipId int64, planName string, endDate time.Time) dispatch.Result
	SendGraceStarted(ctx context.Context, userId uuid.UUID, membershipId int64, planName string, graceEnd time.Time) dispatch.Result
	SendGraceReminder(ctx context.Context, userId uuid.UUID, membershipId int64, planName string, graceEnd time.Time, daysLeft int) dispatch.Result
	SendGraceEndsToday(ctx context.Context, userId uuid.UUID, membershipId int64, planName string, graceEnd time.Time) dispatch.Result
	SendMembershipTerminated(ctx context.Context, userId uuid.UUID, membershipId int64, planName string, at time.Time) dispatch.Result
	SendTrainerExpiryWarning(ctx context.Context, userId uuid.UUID, membershipId int64, planName string, periodEnd time.Time) dispatch.Result
	SendTrainerGraceStarted(ctx context.Context, userId uuid.UUID, membershipId int64, planName string, graceEnd time.Time) dispatch.Result
	SendTrainerGraceReminder(ctx context.Context, userId uuid.UUID, membershipId int64, planName string, graceEnd time.Time, daysLeft int) dispatch.Result
	SendTrainerAccessRevoked(ctx context.Context, userId uuid.UUID, membershipId int64, planName string, at time.Time) dispatch.Result
}

var _ Mailer = (*dispatch.Dispatcher)(nil)

type Notifier struct {
	uowFactory    unitofwork.RepositoryFactory
	mailer        Mailer
	publisher     events.Publisher
	clock         clock.Clock
	logger        logger.ILogger
	membership    grace.Policy
	trainerAccess grace.Policy
	reminderDays  int
}

func NewNotifier(uowFactory unitofwork.RepositoryFactory, m Mailer, p events.Publisher, clk clock.Clock, l logger.ILogger, cfg Config) *Notifier {
	if p == nil {
		p = events.NopPublisher{}
	}
	return &Notifier{
		uowFactory:    uowFactory,
		mailer:        m,
		publisher:     p,
		clock:         clk,
		logger:        l,
		membership:    grace.MembershipPolicy.WithDays(cfg.GraceDays),
		trainerAccess: grace.TrainerPolicy.WithDays(cfg.TrainerGraceDays),
		reminderDays:  cfg.ReminderDays,
	}
}

// Announce emits the emails, notifications, audit entries and events that
// follow applied transitions.
func (n *Notifier) Announce(ctx context.Context, transitions []Transition, report *Report) {
	now := n.clock.Now()
	for _, t := range transitions {
		m := t.Membership
		switch t.Kind {
		case TransitionGraceStarted:
			report.email(string(entity.EmailGraceStarted),
				n.mailer.SendGraceStarted(ctx, m.UserId, m.Id, m.PlanName, t.GraceEnd))
			n.notify(ctx, report, m, entity.NotificationGraceStarted, "Membership grace period started",
				fmt.Sprintf("Your %s membership has ended. Renew before %s to keep your access.", m.PlanName, n.day(t.GraceEnd)),
				map[string]interface{}{"grace_period_end": t.GraceEnd, "trainer_cleared": t.TrainerCleared})
			n.audit(ctx, m, string(t.Kind), string(entity.MembershipStatusActive), string(entity.MembershipStatusGracePeriod),
				map[string]interface{}{"grace_period_end": t.GraceEnd, "trainer_cleared": t.TrainerCleared})
			n.publish(ctx, events.MembershipGraceStarted, m, map[string]interface{}{
				"grace_period_end": t.GraceEnd,
				"trainer_cleared":  t.TrainerCleared,
			})
			// the scan ran before this window opened, so its first milestone is checked here
			graceEnd := t.GraceEnd
			n.graceMilestone(ctx, report, m, &graceEnd, now)

		case TransitionLegacyExpired:
			n.audit(ctx, m, string(t.Kind), string(entity.MembershipStatusActive), string(entity.MembershipStatusExpired), nil)
			n.publish(ctx, events.MembershipExpired, m, nil)

		case TransitionTerminated:
			report.email(string(entity.EmailMembershipTerminated),
				n.mailer.SendMembershipTerminated(ctx, m.UserId, m.Id, m.PlanName, now))
			n.notifyAdmin(ctx, report, m, entity.NotificationMembershipEnded, "Membership terminated",
				fmt.Sprintf("Membership #%d (%s) was removed after its grace period ended.", m.Id, m.PlanName))
			n.audit(ctx, m, string(t.Kind), string(entity.MembershipStatusGracePeriod), "deleted",
				map[string]interface{}{"grace_period_end": t.GraceEnd})
			n.publish(ctx, events.MembershipTerminated, m, map[string]interface{}{"grace_period_end": t.GraceEnd})

		case TransitionTrainerGraceStarted:
			report.email(string(entity.EmailTrainerGraceStarted),
				n.mailer.SendTrainerGraceStarted(ctx, m.UserId, m.Id, m.PlanName, t.GraceEnd))
			n.notify(ctx, report, m, entity.NotificationTrainerGrace, "Trainer access grace period started",
				fmt.Sprintf("Your personal trainer period has ended. Renew before %s to keep your trainer.", n.day(t.GraceEnd)),
				map[string]interface{}{"trainer_grace_period_end": t.GraceEnd})
			n.publish(ctx, events.TrainerGraceStarted, m, map[string]interface{}{"trainer_grace_period_end": t.GraceEnd})
			graceEnd := t.GraceEnd
			n.trainerMilestone(ctx, report, m, &graceEnd, now)

		case TransitionTrainerRevoked:
			report.email(string(entity.EmailTrainerRevoked),
				n.mailer.SendTrainerAccessRevoked(ctx, m.UserId, m.Id, m.PlanName, now))
			n.notify(ctx, report, m, entity.NotificationTrainerRevoked, "Trainer access ended",
				"Your personal trainer access has ended. You can renew it from your membership page.", nil)
			n.audit(ctx, m, string(t.Kind), "trainer_grace_period", "trainer_revoked", nil)
			n.publish(ctx, events.TrainerAccessRevoked, m, nil)
		}
	}
}

// Remind sends the same-day emails and the grace milestone notifications.
func (n *Notifier) Remind(ctx context.Context, c *Candidates, report *Report) {
	now := c.Now
	tomorrow := n.clock.BusinessDayEnd(now)

	for _, m := range c.Expiring {
		if m.EndDate != nil {
			report.email(string(entity.EmailExpiryWarning),
				n.mailer.SendExpiryWarning(ctx, m.UserId, m.Id, m.PlanName, *m.EndDate))
		}
	}
	for _, m := range c.ExpiringReminder {
		if m.EndDate != nil {
			report.email(string(entity.EmailExpiryReminder),
				n.mailer.SendExpiryReminder(ctx, m.UserId, m.Id, m.PlanName, *m.EndDate, n.reminderDays))
		}
	}
	for _, m := range c.ExpiresToday {
		if m.EndDate != nil {
			report.email(string(entity.EmailExpiresToday),
				n.mailer.SendExpiresToday(ctx, m.UserId, m.Id, m.PlanName, *m.EndDate))
		}
	}

	for _, m := range c.InGrace {
		graceEnd := m.GracePeriodEnd
		n.graceMilestone(ctx, report, m, graceEnd, now)
		if graceEnd != nil && graceEnd.Before(tomorrow) {
			report.email(string(entity.EmailGraceEndsToday),
				n.mailer.SendGraceEndsToday(ctx, m.UserId, m.Id, m.PlanName, *graceEnd))
		}
	}

	for _, m := range c.TrainerExpiring {
		if m.TrainerPeriodEnd != nil {
			report.email(string(entity.EmailTrainerExpiry),
				n.mailer.SendTrainerExpiryWarning(ctx, m.UserId, m.Id, m.PlanName, *m.TrainerPeriodEnd))
		}
	}
	for _, m := range c.TrainerInGrace {
		n.trainerMilestone(ctx, report, m, m.TrainerGracePeriodEnd, now)
	}
}

// graceMilestone sends the membership grace reminder when graceEnd sits on a milestone today.
func (n *Notifier) graceMilestone(ctx context.Context, report *Report, m *entity.Membership, graceEnd *time.Time, now time.Time) {
	days, due := n.membership.Due(graceEnd, now, n.clock.Location())
	if !due {
		return
	}
	if n.once(ctx, m, fmt.Sprintf("%s_%d", entity.NotificationGraceMilestone, days), *graceEnd) {
		n.notify(ctx, report, m, entity.NotificationGraceMilestone, "Grace period reminder",
			fmt.Sprintf("%d day(s) left to renew your %s membership.", days, m.PlanName),
			map[string]interface{}{"days_remaining": days, "grace_period_end": *graceEnd})
	}
	report.email(string(entity.EmailGraceReminder),
		n.mailer.SendGraceReminder(ctx, m.UserId, m.Id, m.PlanName, *graceEnd, days))
}

func (n *Notifier) trainerMilestone(ctx context.Context, report *Report, m *entity.Membership, graceEnd *time.Time, now time.Time) {
	days, due := n.trainerAccess.Due(graceEnd, now, n.clock.Location())
	if !due {
		return
	}
	if n.once(ctx, m, fmt.Sprintf("%s_%d", entity.NotificationTrainerMilestone, days), *graceEnd) {
		n.notify(ctx, report, m, entity.NotificationTrainerMilestone, "Trainer access reminder",
			fmt.Sprintf("%d day(s) left to renew your personal trainer.", days),
			map[string]interface{}{"days_remaining": days, "trainer_grace_period_end": *graceEnd})
	}
	report.email(string(entity.EmailTrainerGraceReminder),
		n.mailer.SendTrainerGraceReminder(ctx, m.UserId, m.Id, m.PlanName, *graceEnd, days))
}

func (n *Notifier) day(t time.Time) string {
	return t.In(n.clock.Location()).Format("02 Jan 2006")
}

// once claims a ledger key for an in-app notification. Like the email
// ledger it fails open.
func (n *Notifier) once(ctx context.Context, m *entity.Membership, kind string, graceEnd time.Time) bool {
	key := fmt.Sprintf("inapp:%s:%s", kind, graceEnd.In(n.clock.Location()).Format("2006-01-02"))
	ledger := n.uowFactory.NewUnitOfWork(ctx).EmailLedgerRepository()

	seen, err := ledger.HasEvent(ctx, m.UserId, m.Id, key)
	if err != nil {
		n.logger.Warn(module, "Notification ledger check failed", map[string]interface{}{
			"membership_id": m.Id,
			"key":           key,
			"error":         err.Error(),
		})
	} else if seen {
		return false
	}
	if err := ledger.RecordEvent(ctx, &entity.EmailEvent{
		UserId:       m.UserId,
		MembershipId: m.Id,
		EventType:    key,
		SentAt:       n.clock.Now(),
	}); err != nil {
		n.logger.Warn(module, "Notification ledger write failed", map[string]interface{}{
			"membership_id": m.Id,
			"key":           key,
			"error":         err.Error(),
		})
	}
	return true
}

func (n *Notifier) notify(ctx context.Context, report *Report, m *entity.Membership, typ entity.NotificationType, title, message string, meta map[string]interface{}) {
	userId := m.UserId
	membershipId := m.Id
	err := n.uowFactory.NewUnitOfWork(ctx).NotificationRepository().CreateBulk(ctx, []*entity.Notification{{
		Id:           uuid.New(),
		RecipientId:  &userId,
		MembershipId: &membershipId,
		Type:         typ,
		Title:        title,
		Message:      message,
		Metadata:     meta,
		CreatedAt:    n.clock.Now(),
	}})
	if err != nil {
		report.add(&report.Errors, 1)
		n.logger.Error(module, "Failed to create notification", map[string]interface{}{
			"membership_id": m.Id,
			"type":          string(typ),
			"error":         err.Error(),
		})
		return
	}
	report.add(&report.Notifications, 1)
}

func (n *Notifier) notifyAdmin(ctx context.Context, report *Report, m *entity.Membership, typ entity.NotificationType, title, message string) {
	membershipId := m.Id
	err := n.uowFactory.NewUnitOfWork(ctx).NotificationRepository().CreateAdmin(ctx, &entity.Notification{
		Id:           uuid.New(),
		MembershipId: &membershipId,
		Type:         typ,
		Title:        title,
		Message:      message,
		Metadata:     map[string]interface{}{"user_id": m.UserId.String(), "plan_name": m.PlanName},
		CreatedAt:    n.clock.Now(),
	})
	if err != nil {
		report.add(&report.Errors, 1)
		n.logger.Error(module, "Failed to create admin notification", map[string]interface{}{
			"membership_id": m.Id,
			"error":         err.Error(),
		})
		return
	}
	report.add(&report.Notifications, 1)
}

func (n *Notifier) audit(ctx context.Context, m *entity.Membership, action, from, to string, details map[string]interface{}) {
	err := n.uowFactory.NewUnitOfWork(ctx).AuditLogRepository().Create(ctx, &entity.AuditLog{
		Id:             uuid.New(),
		MembershipId:   m.Id,
		Action:         action,
		PreviousStatus: from,
		NewStatus:      to,
		Details:        details,
		CreatedAt:      n.clock.Now(),
	})
	if err != nil {
		n.logger.Warn(module, "Failed to write audit log", map[string]interface{}{
			"membership_id": m.Id,
			"action":        action,
			"error":         err.Error(),
		})
	}
}

func (n *Notifier) publish(ctx context.Context, eventType string, m *entity.Membership, extra map[string]interface{}) {
	data := map[string]interface{}{
		"membership_id": m.Id,
		"user_id":       m.UserId.String(),
		"plan_name":     m.PlanName,
	}
	for k, v := range extra {
		data[k] = v
	}
	if err := n.publisher.Publish(ctx, events.New(eventType, data, n.clock.Now())); err != nil {
		n.logger.Warn(module, "Failed to publish event", map[string]interface{}{
			"event":         eventType,
			"membership_id": m.Id,
			"error":         err.Error(),
		})
	}
}
