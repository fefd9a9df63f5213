package lifecycle

import (
	"context"
	"fmt"
	"time"

	"gym-membership-be/internal/entity"
	"gym-membership-be/internal/pkg/logger"
	"gym-membership-be/internal/pkg/metrics"
	"gym-membership-be/internal/repository/unitofwork"
	"gym-membership-be/pkg/clock"
	"gym-membership-be/pkg/grace"
)

type TransitionKind string

const (
	TransitionGraceStarted        TransitionKind = "grace_started"
	TransitionTerminated          TransitionKind = "terminated"
	TransitionLegacyExpired       TransitionKind = "legacy_expired"
	TransitionTrainerGraceStarted TransitionKind = "trainer_grace_started"
	TransitionTrainerRevoked      TransitionKind = "trainer_revoked"
)

// Transition is one applied state change. Membership is the row as it was
// read by the scanner.
type Transition struct {
	Kind           TransitionKind
	Membership     *entity.Membership
	GraceEnd       time.Time
	TrainerCleared bool
}

// Outcome is the result of applying one kind of transition to a candidate set.
type Outcome struct {
	Applied []Transition
	Skipped int
	Failed  int
}

type Engine struct {
	uowFactory    unitofwork.RepositoryFactory
	clock         clock.Clock
	logger        logger.ILogger
	membership    grace.Policy
	trainerAccess grace.Policy
}

func NewEngine(uowFactory unitofwork.RepositoryFactory, clk clock.Clock, l logger.ILogger, cfg Config) *Engine {
	return &Engine{
		uowFactory:    uowFactory,
		clock:         clk,
		logger:        l,
		membership:    grace.MembershipPolicy.WithDays(cfg.GraceDays),
		trainerAccess: grace.TrainerPolicy.WithDays(cfg.TrainerGraceDays),
	}
}

// apply runs fn for every candidate. A failing candidate is logged and the
// loop moves on.
func (e *Engine) apply(ctx context.Context, kind TransitionKind, list []*entity.Membership, fn func(m *entity.Membership) (*Transition, error)) Outcome {
	var out Outcome
	for _, m := range list {
		t, err := fn(m)
		if err != nil {
			out.Failed++
			metrics.RecordLifecycleError(string(kind))
			e.logger.Error(module, "Transition failed", map[string]interface{}{
				"transition":    string(kind),
				"membership_id": m.Id,
				"error":         err.Error(),
			})
			continue
		}
		if t == nil {
			out.Skipped++
			continue
		}
		metrics.RecordTransition(string(kind))
		e.logger.Info(module, "Transition applied", map[string]interface{}{
			"transition":    string(kind),
			"membership_id": m.Id,
		})
		out.Applied = append(out.Applied, *t)
	}
	return out
}

// ExpireLegacy moves rows that never had a grace period straight to expired.
func (e *Engine) ExpireLegacy(ctx context.Context, list []*entity.Membership) Outcome {
	repo := e.uowFactory.NewUnitOfWork(ctx).MembershipRepository()
	return e.apply(ctx, TransitionLegacyExpired, list, func(m *entity.Membership) (*Transition, error) {
		ok, err := repo.ExpireLegacy(ctx, m.Id)
		if err != nil || !ok {
			return nil, err
		}
		return &Transition{Kind: TransitionLegacyExpired, Membership: m}, nil
	})
}

// StartGrace opens the membership grace window. Regular monthly plans lose
// trainer access in the same write.
func (e *Engine) StartGrace(ctx context.Context, list []*entity.Membership) Outcome {
	return e.apply(ctx, TransitionGraceStarted, list, func(m *entity.Membership) (*Transition, error) {
		if m.EndDate == nil {
			return nil, nil
		}
		graceEnd := e.membership.ComputeGraceEnd(*m.EndDate)
		clear := m.IsRegularMonthly()

		if !clear {
			ok, err := e.uowFactory.NewUnitOfWork(ctx).MembershipRepository().MoveToGrace(ctx, m.Id, graceEnd, false)
			if err != nil || !ok {
				return nil, err
			}
			return &Transition{Kind: TransitionGraceStarted, Membership: m, GraceEnd: graceEnd}, nil
		}

		ok, err := e.inTx(ctx, func(uow unitofwork.UnitOfWork) (bool, error) {
			moved, err := uow.MembershipRepository().MoveToGrace(ctx, m.Id, graceEnd, true)
			if err != nil || !moved {
				return false, err
			}
			if _, err := uow.AssignmentRepository().ExpireForMembership(ctx, m.Id, entity.AssignmentStatusAssigned); err != nil {
				return false, fmt.Errorf("expire assignments: %w", err)
			}
			return true, nil
		})
		if err != nil || !ok {
			return nil, err
		}
		return &Transition{Kind: TransitionGraceStarted, Membership: m, GraceEnd: graceEnd, TrainerCleared: m.TrainerAssigned}, nil
	})
}

// Terminate deletes memberships whose grace window has closed.
func (e *Engine) Terminate(ctx context.Context, list []*entity.Membership) Outcome {
	now := e.clock.Now()
	repo := e.uowFactory.NewUnitOfWork(ctx).MembershipRepository()
	return e.apply(ctx, TransitionTerminated, list, func(m *entity.Membership) (*Transition, error) {
		ok, err := repo.DeleteExpiredGrace(ctx, m.Id, now)
		if err != nil || !ok {
			return nil, err
		}
		t := Transition{Kind: TransitionTerminated, Membership: m}
		if m.GracePeriodEnd != nil {
			t.GraceEnd = *m.GracePeriodEnd
		}
		return &t, nil
	})
}

func (e *Engine) StartTrainerGrace(ctx context.Context, list []*entity.Membership) Outcome {
	repo := e.uowFactory.NewUnitOfWork(ctx).MembershipRepository()
	return e.apply(ctx, TransitionTrainerGraceStarted, list, func(m *entity.Membership) (*Transition, error) {
		if m.TrainerPeriodEnd == nil {
			return nil, nil
		}
		graceEnd := e.trainerAccess.ComputeGraceEnd(*m.TrainerPeriodEnd)
		ok, err := repo.StartTrainerGrace(ctx, m.Id, graceEnd)
		if err != nil || !ok {
			return nil, err
		}
		return &Transition{Kind: TransitionTrainerGraceStarted, Membership: m, GraceEnd: graceEnd}, nil
	})
}

// RevokeTrainer clears trainer access and expires the live assignment.
func (e *Engine) RevokeTrainer(ctx context.Context, list []*entity.Membership) Outcome {
	now := e.clock.Now()
	return e.apply(ctx, TransitionTrainerRevoked, list, func(m *entity.Membership) (*Transition, error) {
		ok, err := e.inTx(ctx, func(uow unitofwork.UnitOfWork) (bool, error) {
			revoked, err := uow.MembershipRepository().RevokeTrainerAccess(ctx, m.Id, now)
			if err != nil || !revoked {
				return false, err
			}
			if _, err := uow.AssignmentRepository().ExpireForMembership(ctx, m.Id,
				entity.AssignmentStatusAssigned, entity.AssignmentStatusActive); err != nil {
				return false, fmt.Errorf("expire assignments: %w", err)
			}
			return true, nil
		})
		if err != nil || !ok {
			return nil, err
		}
		t := Transition{Kind: TransitionTrainerRevoked, Membership: m, TrainerCleared: true}
		if m.TrainerGracePeriodEnd != nil {
			t.GraceEnd = *m.TrainerGracePeriodEnd
		}
		return &t, nil
	})
}

// inTx commits only when fn reports a change.
func (e *Engine) inTx(ctx context.Context, fn func(uow unitofwork.UnitOfWork) (bool, error)) (bool, error) {
	uow := e.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer uow.Rollback()

	changed, err := fn(uow)
	if err != nil || !changed {
		return false, err
	}
	if err := uow.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}
