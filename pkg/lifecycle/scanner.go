// Package lifecycle advances memberships and trainer access through
// expiry, grace and termination.
package lifecycle

import (
	"context"
	"time"

	"gym-membership-be/internal/entity"
	"gym-membership-be/internal/pkg/logger"
	"gym-membership-be/internal/pkg/metrics"
	"gym-membership-be/internal/repository/contract"
	"gym-membership-be/internal/repository/unitofwork"
	"gym-membership-be/pkg/clock"
)

const module = "LIFECYCLE"

type Config struct {
	GraceDays        int
	TrainerGraceDays int
	// NotificationDays is the pre-expiry warning window.
	NotificationDays int
	// ReminderDays is the exact day count for the reminder email.
	ReminderDays int
}

func DefaultConfig() Config {
	return Config{GraceDays: 7, TrainerGraceDays: 3, NotificationDays: 7, ReminderDays: 5}
}

// Candidates holds every candidate set of one run. A membership may appear
// in several sets.
type Candidates struct {
	Now      time.Time
	DayStart time.Time

	Expiring         []*entity.Membership
	ExpiringReminder []*entity.Membership
	ExpiresToday     []*entity.Membership
	GraceEligible    []*entity.Membership
	LegacyExpired    []*entity.Membership
	InGrace          []*entity.Membership
	GraceEnded       []*entity.Membership

	TrainerExpiring      []*entity.Membership
	TrainerGraceEligible []*entity.Membership
	TrainerInGrace       []*entity.Membership
	TrainerGraceEnded    []*entity.Membership
}

type Scanner struct {
	uowFactory unitofwork.RepositoryFactory
	clock      clock.Clock
	logger     logger.ILogger
}

func NewScanner(uowFactory unitofwork.RepositoryFactory, clk clock.Clock, l logger.ILogger) *Scanner {
	return &Scanner{uowFactory: uowFactory, clock: clk, logger: l}
}

type query func(repo contract.MembershipRepository) ([]*entity.Membership, error)

// Scan runs every candidate query. A failing query yields an empty set and
// does not affect the others.
func (s *Scanner) Scan(ctx context.Context, cfg Config) *Candidates {
	now := s.clock.Now()
	today := s.clock.BusinessDayStart(now)
	tomorrow := s.clock.BusinessDayEnd(now)
	repo := s.uowFactory.NewUnitOfWork(ctx).MembershipRepository()

	run := func(name string, q query) []*entity.Membership {
		list, err := q(repo)
		if err != nil {
			metrics.RecordLifecycleError("scan_" + name)
			s.logger.Error(module, "Candidate query failed", map[string]interface{}{
				"query": name,
				"error": err.Error(),
			})
			return nil
		}
		return list
	}

	reminderDay := today.AddDate(0, 0, cfg.ReminderDays)
	legacyCutoff := today.AddDate(0, 0, -cfg.GraceDays)

	c := &Candidates{Now: now, DayStart: today}
	c.Expiring = run("expiring", func(r contract.MembershipRepository) ([]*entity.Membership, error) {
		return r.FindExpiringBetween(ctx, now, today.AddDate(0, 0, cfg.NotificationDays+1))
	})
	c.ExpiringReminder = run("expiring_reminder", func(r contract.MembershipRepository) ([]*entity.Membership, error) {
		return r.FindExpiringBetween(ctx, reminderDay, reminderDay.AddDate(0, 0, 1))
	})
	c.ExpiresToday = run("expires_today", func(r contract.MembershipRepository) ([]*entity.Membership, error) {
		return r.FindExpiringBetween(ctx, today, tomorrow)
	})
	c.GraceEligible = run("grace_eligible", func(r contract.MembershipRepository) ([]*entity.Membership, error) {
		return r.FindGraceEligible(ctx, today)
	})
	c.LegacyExpired = run("legacy_expired", func(r contract.MembershipRepository) ([]*entity.Membership, error) {
		return r.FindLegacyExpired(ctx, legacyCutoff)
	})
	c.InGrace = run("in_grace", func(r contract.MembershipRepository) ([]*entity.Membership, error) {
		return r.FindInGrace(ctx, now)
	})
	c.GraceEnded = run("grace_ended", func(r contract.MembershipRepository) ([]*entity.Membership, error) {
		return r.FindGraceEnded(ctx, now)
	})
	c.TrainerExpiring = run("trainer_expiring", func(r contract.MembershipRepository) ([]*entity.Membership, error) {
		return r.FindTrainerExpiringBetween(ctx, now, today.AddDate(0, 0, cfg.NotificationDays+1))
	})
	c.TrainerGraceEligible = run("trainer_grace_eligible", func(r contract.MembershipRepository) ([]*entity.Membership, error) {
		return r.FindTrainerGraceEligible(ctx, now)
	})
	c.TrainerInGrace = run("trainer_in_grace", func(r contract.MembershipRepository) ([]*entity.Membership, error) {
		return r.FindTrainerInGrace(ctx, now)
	})
	c.TrainerGraceEnded = run("trainer_grace_ended", func(r contract.MembershipRepository) ([]*entity.Membership, error) {
		return r.FindTrainerGraceEnded(ctx, now)
	})
	return c
}
