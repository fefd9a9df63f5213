// Package renewal approves a member's pending personal trainer renewal.
package renewal

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gym-membership-be/internal/entity"
	"gym-membership-be/internal/pkg/logger"
	"gym-membership-be/internal/pkg/metrics"
	"gym-membership-be/internal/repository/unitofwork"
	"gym-membership-be/pkg/clock"
	"gym-membership-be/pkg/dispatch"
	"gym-membership-be/pkg/events"
	"gym-membership-be/pkg/reconcile"

	"github.com/google/uuid"
)

const module = "RENEWAL"

const (
	// AddonPriceTolerance bounds how far the nearest addon price may be from the payment.
	AddonPriceTolerance = 10.0
	// AmountTolerance is the accepted difference between payment and addon price.
	AmountTolerance = 1.0
	// PeriodMonths is the length of one trainer renewal.
	PeriodMonths = 1
)

type Mailer interface {
	SendTrainerRenewed(ctx context.Context, userId uuid.UUID, membershipId int64, planName string, periodEnd time.Time) dispatch.Result
}

type InvoiceRequester interface {
	RequestInvoice(ctx context.Context, paymentId int64, purpose entity.PaymentPurpose) error
}

type Broadcaster interface {
	Send(userID uuid.UUID, kind string, data interface{})
	SendToAdmins(kind string, data interface{})
}

type Approval struct {
	MembershipId     int64      `json:"membership_id"`
	PaymentId        int64      `json:"payment_id"`
	AddonId          int64      `json:"addon_id"`
	AssignmentId     *int64     `json:"assignment_id,omitempty"`
	TrainerId        *uuid.UUID `json:"trainer_id,omitempty"`
	Amount           float64    `json:"amount"`
	PeriodStart      time.Time  `json:"period_start"`
	PeriodEnd        time.Time  `json:"period_end"`
	Capped           bool       `json:"capped"`
	RejectedPayments []int64    `json:"rejected_payments"`
}

type Approver struct {
	uowFactory  unitofwork.RepositoryFactory
	clock       clock.Clock
	logger      logger.ILogger
	mailer      Mailer
	invoices    InvoiceRequester
	broadcaster Broadcaster
	publisher   events.Publisher
}

type Option func(*Approver)

func WithMailer(m Mailer) Option              { return func(a *Approver) { a.mailer = m } }
func WithInvoices(i InvoiceRequester) Option  { return func(a *Approver) { a.invoices = i } }
func WithBroadcaster(b Broadcaster) Option    { return func(a *Approver) { a.broadcaster = b } }
func WithPublisher(p events.Publisher) Option { return func(a *Approver) { a.publisher = p } }

func NewApprover(uowFactory unitofwork.RepositoryFactory, clk clock.Clock, l logger.ILogger, opts ...Option) *Approver {
	a := &Approver{
		uowFactory: uowFactory,
		clock:      clk,
		logger:     l,
		publisher:  events.NopPublisher{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// PeriodEnd extends start by one renewal period without passing the
// membership end. A membership ending at or before start leaves no period.
func PeriodEnd(start time.Time, membershipEnd *time.Time) (time.Time, bool, error) {
	if membershipEnd != nil && !start.Before(*membershipEnd) {
		return time.Time{}, false, ErrNoTimeLeft
	}
	end := start.AddDate(0, PeriodMonths, 0)
	if membershipEnd != nil && end.After(*membershipEnd) {
		return *membershipEnd, true, nil
	}
	return end, false, nil
}

func latestPending(payments []*entity.MembershipPayment) *entity.MembershipPayment {
	var out *entity.MembershipPayment
	for _, p := range payments {
		if p.Status != entity.MembershipPaymentPending {
			continue
		}
		if out == nil || p.CreatedAt.After(out.CreatedAt) || (p.CreatedAt.Equal(out.CreatedAt) && p.Id > out.Id) {
			out = p
		}
	}
	return out
}

func pendingAddons(all []*entity.MembershipAddon, paidAt time.Time) []*entity.MembershipAddon {
	var windowed, pending []*entity.MembershipAddon
	for _, a := range all {
		if a.Status != entity.AddonStatusPending {
			continue
		}
		pending = append(pending, a)
		if a.AddonType == entity.AddonTypePersonalTrainer && reconcile.InWindow(a.CreatedAt, paidAt) {
			windowed = append(windowed, a)
		}
	}
	if len(windowed) > 0 {
		return windowed
	}
	return pending
}

func nearestByPrice(addons []*entity.MembershipAddon, amount float64) (*entity.MembershipAddon, float64) {
	var best *entity.MembershipAddon
	bestDiff := math.Inf(1)
	for _, a := range addons {
		d := math.Abs(a.Price - amount)
		if d < bestDiff {
			best, bestDiff = a, d
		}
	}
	return best, bestDiff
}

func pendingAssignment(all []*entity.TrainerAssignment, paidAt time.Time) *entity.TrainerAssignment {
	var windowed, pending []*entity.TrainerAssignment
	for _, a := range all {
		if a.Status != entity.AssignmentStatusPending || a.AssignmentType != entity.AssignmentTypeAddon {
			continue
		}
		pending = append(pending, a)
		if reconcile.InWindow(a.CreatedAt, paidAt) {
			windowed = append(windowed, a)
		}
	}
	list := windowed
	if len(list) == 0 {
		list = pending
	}
	if len(list) == 0 {
		return nil
	}
	sort.SliceStable(list, func(i, j int) bool {
		return math.Abs(float64(list[i].CreatedAt.Sub(paidAt))) < math.Abs(float64(list[j].CreatedAt.Sub(paidAt)))
	})
	return list[0]
}

func addonCandidates(addons []*entity.MembershipAddon) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(addons))
	for _, a := range addons {
		out = append(out, map[string]interface{}{
			"id":         a.Id,
			"type":       a.AddonType,
			"status":     a.Status,
			"price":      a.Price,
			"created_at": a.CreatedAt,
		})
	}
	return out
}

// Approve verifies the membership's pending trainer renewal payment and
// extends trainer access. The payment, addon, assignment and membership
// writes share one transaction; notifications afterwards are best-effort.
func (a *Approver) Approve(ctx context.Context, membershipId int64, adminId uuid.UUID) (*Approval, error) {
	approval, m, err := a.approve(ctx, membershipId, adminId)
	if err != nil {
		outcome := "error"
		var rejection *RejectionError
		if errors.As(err, &rejection) {
			outcome = "rejected"
		}
		metrics.RecordTrainerRenewal(outcome)
		a.logger.Warn(module, "Trainer renewal not approved", map[string]interface{}{
			"membership_id": membershipId,
			"admin_id":      adminId.String(),
			"error":         err.Error(),
		})
		return nil, err
	}
	metrics.RecordTrainerRenewal("approved")
	a.logger.Info(module, "Trainer renewal approved", map[string]interface{}{
		"membership_id": membershipId,
		"payment_id":    approval.PaymentId,
		"addon_id":      approval.AddonId,
		"period_end":    approval.PeriodEnd,
	})
	a.afterApproval(ctx, m, approval, adminId)
	return approval, nil
}

func (a *Approver) approve(ctx context.Context, membershipId int64, adminId uuid.UUID) (*Approval, *entity.Membership, error) {
	uow := a.uowFactory.NewUnitOfWork(ctx)

	m, err := uow.MembershipRepository().FindByID(ctx, membershipId)
	if err != nil {
		return nil, nil, fmt.Errorf("load membership: %w", err)
	}
	if m == nil {
		return nil, nil, reject(ErrMembershipNotFound, fmt.Sprintf("membership %d not found", membershipId), nil)
	}
	if m.Status != entity.MembershipStatusActive {
		return nil, nil, reject(ErrMembershipNotActive,
			fmt.Sprintf("membership %d is %s, trainer renewals need an active membership", m.Id, m.Status),
			map[string]interface{}{"status": m.Status})
	}

	payments, err := uow.PaymentRepository().FindByMembership(ctx, m.Id)
	if err != nil {
		return nil, nil, fmt.Errorf("load payments: %w", err)
	}
	payment := latestPending(payments)
	if payment == nil {
		return nil, nil, reject(ErrNoPendingPayment, fmt.Sprintf("membership %d has no pending payment", m.Id), nil)
	}

	addons, err := uow.AddonRepository().FindByMembership(ctx, m.Id)
	if err != nil {
		return nil, nil, fmt.Errorf("load addons: %w", err)
	}
	candidates := pendingAddons(addons, payment.CreatedAt)
	addon, diff := nearestByPrice(candidates, payment.Amount)
	if addon == nil || diff > AddonPriceTolerance {
		return nil, nil, reject(ErrNoMatchingAddon,
			fmt.Sprintf("no pending addon priced near the payment amount %.2f", payment.Amount),
			map[string]interface{}{"payment_id": payment.Id, "amount": payment.Amount, "addons": addonCandidates(candidates)})
	}
	if diff > AmountTolerance {
		return nil, nil, reject(ErrAmountMismatch,
			fmt.Sprintf("payment amount %.2f does not match addon price %.2f", payment.Amount, addon.Price),
			map[string]interface{}{"payment_id": payment.Id, "amount": payment.Amount, "addon_id": addon.Id, "addon_price": addon.Price})
	}

	trainerId := addon.TrainerId
	if trainerId == nil {
		trainerId = m.TrainerId
	}

	now := a.clock.Now()
	start := now
	if m.TrainerPeriodEnd != nil {
		start = *m.TrainerPeriodEnd
	}
	end, capped, err := PeriodEnd(start, m.EndDate)
	if err != nil {
		return nil, nil, reject(err,
			fmt.Sprintf("membership %d ends %s, trainer access would start %s", m.Id,
				m.EndDate.Format("2006-01-02"), start.Format("2006-01-02")),
			map[string]interface{}{"membership_end": *m.EndDate, "period_start": start})
	}

	assignments, err := uow.AssignmentRepository().FindByMembership(ctx, m.Id)
	if err != nil {
		return nil, nil, fmt.Errorf("load assignments: %w", err)
	}
	assignment := pendingAssignment(assignments, payment.CreatedAt)
	if assignment == nil {
		assignment = a.createAssignment(ctx, m, trainerId, now)
	}

	approval := &Approval{
		MembershipId: m.Id,
		PaymentId:    payment.Id,
		AddonId:      addon.Id,
		TrainerId:    trainerId,
		Amount:       payment.Amount,
		PeriodStart:  start,
		PeriodEnd:    end,
		Capped:       capped,
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, nil, fmt.Errorf("begin: %w", err)
	}
	defer uow.Rollback()

	rejected, err := uow.PaymentRepository().RejectOtherPending(ctx, m.Id, payment.Id)
	if err != nil {
		return nil, nil, fmt.Errorf("reject other payments: %w", err)
	}
	approval.RejectedPayments = rejected

	ok, err := uow.PaymentRepository().MarkVerified(ctx, payment.Id, &adminId, now)
	if err != nil {
		return nil, nil, fmt.Errorf("verify payment: %w", err)
	}
	if !ok {
		return nil, nil, reject(ErrConflict, fmt.Sprintf("payment %d is no longer pending", payment.Id), nil)
	}

	if ok, err = uow.AddonRepository().Activate(ctx, addon.Id); err != nil {
		return nil, nil, fmt.Errorf("activate addon: %w", err)
	}
	if !ok {
		return nil, nil, reject(ErrConflict, fmt.Sprintf("addon %d is no longer pending", addon.Id), nil)
	}

	if assignment != nil {
		if _, err := uow.AssignmentRepository().MarkAssigned(ctx, assignment.Id, trainerId, start, end); err != nil {
			return nil, nil, fmt.Errorf("assign trainer: %w", err)
		}
		id := assignment.Id
		approval.AssignmentId = &id
	}

	if ok, err = uow.MembershipRepository().UpdateTrainerPeriod(ctx, m.Id, trainerId, end); err != nil {
		return nil, nil, fmt.Errorf("update trainer period: %w", err)
	}
	if !ok {
		return nil, nil, reject(ErrConflict, fmt.Sprintf("membership %d changed during approval", m.Id), nil)
	}

	if err := uow.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit: %w", err)
	}
	return approval, m, nil
}

// createAssignment is bookkeeping only; a failure leaves the approval without an assignment row.
func (a *Approver) createAssignment(ctx context.Context, m *entity.Membership, trainerId *uuid.UUID, now time.Time) *entity.TrainerAssignment {
	row := &entity.TrainerAssignment{
		MembershipId:   m.Id,
		UserId:         m.UserId,
		TrainerId:      trainerId,
		AssignmentType: entity.AssignmentTypeAddon,
		Status:         entity.AssignmentStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := a.uowFactory.NewUnitOfWork(ctx).AssignmentRepository().Create(ctx, row); err != nil {
		a.logger.Warn(module, "Could not create trainer assignment", map[string]interface{}{
			"membership_id": m.Id,
			"error":         err.Error(),
		})
		return nil
	}
	return row
}
