package renewal

import (
	"context"
	"fmt"

	"gym-membership-be/internal/entity"
	"gym-membership-be/pkg/events"

	"github.com/google/uuid"
)

// afterApproval runs every follow-up of a committed approval. Each step logs
// its own failure and never undoes the approval.
func (a *Approver) afterApproval(ctx context.Context, m *entity.Membership, ap *Approval, adminId uuid.UUID) {
	uow := a.uowFactory.NewUnitOfWork(ctx)
	now := a.clock.Now()
	period := ap.PeriodEnd.In(a.clock.Location()).Format("02 Jan 2006")
	details := map[string]interface{}{
		"payment_id":        ap.PaymentId,
		"addon_id":          ap.AddonId,
		"amount":            ap.Amount,
		"period_start":      ap.PeriodStart,
		"period_end":        ap.PeriodEnd,
		"capped":            ap.Capped,
		"rejected_payments": ap.RejectedPayments,
	}

	actor := adminId
	prev := "trainer_pending"
	if m.TrainerGracePeriodEnd != nil {
		prev = "trainer_grace_period"
	}
	if err := uow.AuditLogRepository().Create(ctx, &entity.AuditLog{
		Id:             uuid.New(),
		MembershipId:   m.Id,
		Action:         "trainer_renewal_approved",
		ActorId:        &actor,
		PreviousStatus: prev,
		NewStatus:      "trainer_active",
		Details:        details,
		CreatedAt:      now,
	}); err != nil {
		a.warn("audit log", m.Id, err)
	}

	userId := m.UserId
	membershipId := m.Id
	userNote := &entity.Notification{
		Id:           uuid.New(),
		RecipientId:  &userId,
		MembershipId: &membershipId,
		Type:         entity.NotificationTrainerRenewed,
		Title:        "Personal trainer renewed",
		Message:      fmt.Sprintf("Your personal trainer renewal is approved. Access continues until %s.", period),
		Metadata:     map[string]interface{}{"payment_id": ap.PaymentId, "period_end": ap.PeriodEnd},
		CreatedAt:    now,
	}
	if err := uow.NotificationRepository().CreateBulk(ctx, []*entity.Notification{userNote}); err != nil {
		a.warn("user notification", m.Id, err)
	}
	adminNote := &entity.Notification{
		Id:           uuid.New(),
		MembershipId: &membershipId,
		Type:         entity.NotificationTrainerRenewed,
		Title:        "Trainer renewal approved",
		Message:      fmt.Sprintf("Membership #%d trainer access extended to %s.", m.Id, period),
		Metadata:     details,
		CreatedAt:    now,
	}
	if err := uow.NotificationRepository().CreateAdmin(ctx, adminNote); err != nil {
		a.warn("admin notification", m.Id, err)
	}

	if a.invoices != nil {
		if err := a.invoices.RequestInvoice(ctx, ap.PaymentId, entity.PurposeTrainerRenewal); err != nil {
			a.warn("invoice request", m.Id, err)
		}
	}

	if a.broadcaster != nil {
		a.broadcaster.Send(m.UserId, "notification", userNote)
		a.broadcaster.SendToAdmins("trainer_renewal_approved", ap)
	}

	data := map[string]interface{}{
		"membership_id": m.Id,
		"user_id":       m.UserId.String(),
		"admin_id":      adminId.String(),
		"payment_id":    ap.PaymentId,
		"addon_id":      ap.AddonId,
		"period_end":    ap.PeriodEnd,
	}
	if err := a.publisher.Publish(ctx, events.New(events.TrainerRenewalApproved, data, now)); err != nil {
		a.warn("event publish", m.Id, err)
	}

	if a.mailer != nil {
		if res := a.mailer.SendTrainerRenewed(ctx, m.UserId, m.Id, m.PlanName, ap.PeriodEnd); res.Err != nil {
			a.warn("renewal email", m.Id, res.Err)
		}
	}
}

func (a *Approver) warn(step string, membershipId int64, err error) {
	a.logger.Warn(module, "Post-approval step failed", map[string]interface{}{
		"step":          step,
		"membership_id": membershipId,
		"error":         err.Error(),
	})
}
