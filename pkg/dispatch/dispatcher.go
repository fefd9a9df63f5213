// Package dispatch sends lifecycle emails exactly once per ledger key.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gym-membership-be/internal/entity"
	"gym-membership-be/internal/pkg/logger"
	"gym-membership-be/internal/pkg/mailer"
	"gym-membership-be/internal/pkg/metrics"
	"gym-membership-be/internal/repository/unitofwork"
	"gym-membership-be/pkg/clock"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
)

const module = "DISPATCH"

var ErrRecipientNotFound = errors.New("dispatch: recipient not found")

type Result struct {
	Success bool
	Skipped bool
	Err     error
}

type Dispatcher struct {
	uowFactory unitofwork.RepositoryFactory
	mailer     mailer.IEmailService
	logger     logger.ILogger
	clock      clock.Clock

	failOpen        bool
	maxTries        uint
	initialInterval time.Duration
	maxElapsed      time.Duration
}

type Option func(*Dispatcher)

// WithFailOpen controls whether a failed ledger lookup still sends.
func WithFailOpen(enabled bool) Option {
	return func(d *Dispatcher) { d.failOpen = enabled }
}

// WithRetry bounds delivery retries of transient failures.
func WithRetry(maxRetries int, initial, maxElapsed time.Duration) Option {
	return func(d *Dispatcher) {
		if maxRetries >= 0 {
			d.maxTries = uint(maxRetries) + 1
		}
		if initial > 0 {
			d.initialInterval = initial
		}
		if maxElapsed > 0 {
			d.maxElapsed = maxElapsed
		}
	}
}

func New(uowFactory unitofwork.RepositoryFactory, m mailer.IEmailService, l logger.ILogger, clk clock.Clock, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		uowFactory:      uowFactory,
		mailer:          m,
		logger:          l,
		clock:           clk,
		failOpen:        true,
		maxTries:        4,
		initialInterval: 500 * time.Millisecond,
		maxElapsed:      30 * time.Second,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type request struct {
	eventType     entity.EmailEventType
	template      mailer.Template
	userId        uuid.UUID
	membershipId  int64
	planName      string
	date          time.Time
	daysRemaining int
}

// key scopes a ledger row to one period so a renewed membership gets fresh emails.
func (d *Dispatcher) key(req request) string {
	day := req.date.In(d.clock.Location()).Format("2006-01-02")
	if req.daysRemaining > 0 {
		return fmt.Sprintf("%s_%d:%s", req.eventType, req.daysRemaining, day)
	}
	return fmt.Sprintf("%s:%s", req.eventType, day)
}

func (d *Dispatcher) SendExpiryWarning(ctx context.Context, userId uuid.UUID, membershipId int64, planName string, endDate time.Time) Result {
	return d.send(ctx, request{eventType: entity.EmailExpiryWarning, template: mailer.TemplateExpiryWarning,
		userId: userId, membershipId: membershipId, planName: planName, date: endDate})
}

func (d *Dispatcher) SendExpiryReminder(ctx context.Context, userId uuid.UUID, membershipId int64, planName string, endDate time.Time, daysLeft int) Result {
	return d.send(ctx, request{eventType: entity.EmailExpiryReminder, template: mailer.TemplateExpiryReminder,
		userId: userId, membershipId: membershipId, planName: planName, date: endDate, daysRemaining: daysLeft})
}

func (d *Dispatcher) SendExpiresToday(ctx context.Context, userId uuid.UUID, membershipId int64, planName string, endDate time.Time) Result {
	return d.send(ctx, request{eventType: entity.EmailExpiresToday, template: mailer.TemplateExpiresToday,
		userId: userId, membershipId: membershipId, planName: planName, date: endDate})
}

func (d *Dispatcher) SendGraceStarted(ctx context.Context, userId uuid.UUID, membershipId int64, planName string, graceEnd time.Time) Result {
	return d.send(ctx, request{eventType: entity.EmailGraceStarted, template: mailer.TemplateGraceStarted,
		userId: userId, membershipId: membershipId, planName: planName, date: graceEnd})
}

func (d *Dispatcher) SendGraceReminder(ctx context.Context, userId uuid.UUID, membershipId int64, planName string, graceEnd time.Time, daysLeft int) Result {
	return d.send(ctx, request{eventType: entity.EmailGraceReminder, template: mailer.TemplateGraceReminder,
		userId: userId, membershipId: membershipId, planName: planName, date: graceEnd, daysRemaining: daysLeft})
}

func (d *Dispatcher) SendGraceEndsToday(ctx context.Context, userId uuid.UUID, membershipId int64, planName string, graceEnd time.Time) Result {
	return d.send(ctx, request{eventType: entity.EmailGraceEndsToday, template: mailer.TemplateGraceEndsToday,
		userId: userId, membershipId: membershipId, planName: planName, date: graceEnd})
}

func (d *Dispatcher) SendMembershipTerminated(ctx context.Context, userId uuid.UUID, membershipId int64, planName string, at time.Time) Result {
	return d.send(ctx, request{eventType: entity.EmailMembershipTerminated, template: mailer.TemplateMembershipTerminated,
		userId: userId, membershipId: membershipId, planName: planName, date: at})
}

func (d *Dispatcher) SendTrainerExpiryWarning(ctx context.Context, userId uuid.UUID, membershipId int64, planName string, periodEnd time.Time) Result {
	return d.send(ctx, request{eventType: entity.EmailTrainerExpiry, template: mailer.TemplateTrainerExpiry,
		userId: userId, membershipId: membershipId, planName: planName, date: periodEnd})
}

func (d *Dispatcher) SendTrainerGraceStarted(ctx context.Context, userId uuid.UUID, membershipId int64, planName string, graceEnd time.Time) Result {
	return d.send(ctx, request{eventType: entity.EmailTrainerGraceStarted, template: mailer.TemplateTrainerGraceStarted,
		userId: userId, membershipId: membershipId, planName: planName, date: graceEnd})
}

func (d *Dispatcher) SendTrainerGraceReminder(ctx context.Context, userId uuid.UUID, membershipId int64, planName string, graceEnd time.Time, daysLeft int) Result {
	return d.send(ctx, request{eventType: entity.EmailTrainerGraceReminder, template: mailer.TemplateTrainerGraceReminder,
		userId: userId, membershipId: membershipId, planName: planName, date: graceEnd, daysRemaining: daysLeft})
}

func (d *Dispatcher) SendTrainerAccessRevoked(ctx context.Context, userId uuid.UUID, membershipId int64, planName string, at time.Time) Result {
	return d.send(ctx, request{eventType: entity.EmailTrainerRevoked, template: mailer.TemplateTrainerRevoked,
		userId: userId, membershipId: membershipId, planName: planName, date: at})
}

func (d *Dispatcher) SendTrainerRenewed(ctx context.Context, userId uuid.UUID, membershipId int64, planName string, periodEnd time.Time) Result {
	return d.send(ctx, request{eventType: entity.EmailTrainerRenewed, template: mailer.TemplateTrainerRenewed,
		userId: userId, membershipId: membershipId, planName: planName, date: periodEnd})
}

func (d *Dispatcher) send(ctx context.Context, req request) Result {
	key := d.key(req)
	details := map[string]interface{}{
		"user_id":       req.userId.String(),
		"membership_id": req.membershipId,
		"event":         key,
	}
	uow := d.uowFactory.NewUnitOfWork(ctx)
	ledger := uow.EmailLedgerRepository()

	sent, err := ledger.HasEvent(ctx, req.userId, req.membershipId, key)
	if err != nil {
		metrics.RecordIdempotencyFailOpen(string(req.eventType))
		if !d.failOpen {
			details["error"] = err.Error()
			d.logger.Error(module, "Idempotency check failed, email not sent", details)
			return Result{Err: fmt.Errorf("idempotency check: %w", err)}
		}
		details["error"] = err.Error()
		d.logger.Warn(module, "Idempotency check failed, sending anyway", details)
	} else if sent {
		metrics.RecordEmail(string(req.eventType), "skipped")
		return Result{Skipped: true}
	}

	user, err := uow.UserRepository().FindByID(ctx, req.userId)
	if err == nil && user == nil {
		err = ErrRecipientNotFound
	}
	if err != nil {
		d.recordFailure(ctx, req, key, "", err, 0)
		return Result{Err: err}
	}

	subject, body := mailer.Render(req.template, mailer.TemplateData{
		FullName:      user.FullName,
		PlanName:      req.planName,
		Date:          req.date.In(d.clock.Location()),
		DaysRemaining: req.daysRemaining,
	})
	attempts, err := d.deliver(ctx, mailer.Message{To: user.Email, Subject: subject, HTML: body})
	if err != nil {
		d.recordFailure(ctx, req, key, user.Email, err, attempts)
		return Result{Err: err}
	}

	now := d.clock.Now()
	if err := ledger.RecordEvent(ctx, &entity.EmailEvent{
		UserId:       req.userId,
		MembershipId: req.membershipId,
		EventType:    key,
		SentAt:       now,
	}); err != nil {
		details["error"] = err.Error()
		d.logger.Error(module, "Email sent but ledger write failed", details)
	}
	if _, err := ledger.ResolveFailures(ctx, req.userId, req.membershipId, key, now); err != nil {
		details["error"] = err.Error()
		d.logger.Warn(module, "Could not resolve earlier failures", details)
	}
	metrics.RecordEmail(string(req.eventType), "sent")
	return Result{Success: true}
}

// deliver retries transient failures with exponential backoff and reports how many attempts were made.
func (d *Dispatcher) deliver(ctx context.Context, msg mailer.Message) (int, error) {
	attempts := 0
	operation := func() (struct{}, error) {
		attempts++
		err := d.mailer.Send(ctx, msg)
		if err == nil {
			return struct{}{}, nil
		}
		if !mailer.IsTransient(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.initialInterval
	b.MaxInterval = 10 * d.initialInterval

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(d.maxTries),
		backoff.WithMaxElapsedTime(d.maxElapsed),
	)
	return attempts, err
}

func (d *Dispatcher) recordFailure(ctx context.Context, req request, key, recipient string, cause error, attempts int) {
	metrics.RecordEmail(string(req.eventType), "failed")
	d.logger.Error(module, "Email delivery failed", map[string]interface{}{
		"user_id":       req.userId.String(),
		"membership_id": req.membershipId,
		"event":         key,
		"attempts":      attempts,
		"error":         cause.Error(),
	})
	err := d.uowFactory.NewUnitOfWork(ctx).EmailLedgerRepository().RecordFailure(ctx, &entity.EmailFailure{
		UserId:        req.userId,
		MembershipId:  req.membershipId,
		EventType:     key,
		Recipient:     recipient,
		LastError:     cause.Error(),
		Attempts:      attempts,
		LastAttemptAt: d.clock.Now(),
	})
	if err != nil {
		d.logger.Error(module, "Could not record email failure", map[string]interface{}{
			"membership_id": req.membershipId,
			"event":         key,
			"error":         err.Error(),
		})
	}
}
