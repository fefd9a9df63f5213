package memory

import (
	"context"
	"sort"
	"time"

	"gym-membership-be/internal/entity"

	"github.com/google/uuid"
)

type memberships struct{ s *Store }

func inRange(t *time.Time, from, to time.Time) bool {
	return t != nil && !t.Before(from) && t.Before(to)
}

func before(t *time.Time, at time.Time) bool {
	return t != nil && t.Before(at)
}

func after(t *time.Time, at time.Time) bool {
	return t != nil && t.After(at)
}

func (r memberships) find(op string, match func(m *entity.Membership) bool) ([]*entity.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(op, ""); err != nil {
		return nil, err
	}
	var out []*entity.Membership
	for _, m := range r.s.memberships {
		if match(m) {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out, nil
}

func (r memberships) FindByID(ctx context.Context, id int64) (*entity.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("FindMembership", id); err != nil {
		return nil, err
	}
	m, ok := r.s.memberships[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func isActive(m *entity.Membership) bool {
	return m.Status == entity.MembershipStatusActive
}

func (r memberships) FindExpiringBetween(ctx context.Context, from, to time.Time) ([]*entity.Membership, error) {
	return r.find("FindExpiringBetween", func(m *entity.Membership) bool {
		return isActive(m) && inRange(m.EndDate, from, to)
	})
}

func (r memberships) FindGraceEligible(ctx context.Context, endedBefore time.Time) ([]*entity.Membership, error) {
	return r.find("FindGraceEligible", func(m *entity.Membership) bool {
		return isActive(m) && m.GracePeriodEnd == nil && before(m.EndDate, endedBefore)
	})
}

func (r memberships) FindLegacyExpired(ctx context.Context, endedBefore time.Time) ([]*entity.Membership, error) {
	return r.find("FindLegacyExpired", func(m *entity.Membership) bool {
		return isActive(m) && m.GracePeriodEnd == nil && before(m.EndDate, endedBefore)
	})
}

func (r memberships) FindInGrace(ctx context.Context, now time.Time) ([]*entity.Membership, error) {
	return r.find("FindInGrace", func(m *entity.Membership) bool {
		return m.Status == entity.MembershipStatusGracePeriod && after(m.GracePeriodEnd, now)
	})
}

func (r memberships) FindGraceEnded(ctx context.Context, now time.Time) ([]*entity.Membership, error) {
	return r.find("FindGraceEnded", func(m *entity.Membership) bool {
		return m.Status == entity.MembershipStatusGracePeriod && before(m.GracePeriodEnd, now)
	})
}

func (r memberships) FindTrainerExpiringBetween(ctx context.Context, from, to time.Time) ([]*entity.Membership, error) {
	return r.find("FindTrainerExpiringBetween", func(m *entity.Membership) bool {
		return isActive(m) && m.TrainerAssigned && m.TrainerGracePeriodEnd == nil && inRange(m.TrainerPeriodEnd, from, to)
	})
}

func (r memberships) FindTrainerGraceEligible(ctx context.Context, now time.Time) ([]*entity.Membership, error) {
	return r.find("FindTrainerGraceEligible", func(m *entity.Membership) bool {
		return isActive(m) && m.TrainerAssigned && m.TrainerGracePeriodEnd == nil && before(m.TrainerPeriodEnd, now)
	})
}

func (r memberships) FindTrainerInGrace(ctx context.Context, now time.Time) ([]*entity.Membership, error) {
	return r.find("FindTrainerInGrace", func(m *entity.Membership) bool {
		return isActive(m) && m.TrainerAssigned && after(m.TrainerGracePeriodEnd, now)
	})
}

func (r memberships) FindTrainerGraceEnded(ctx context.Context, now time.Time) ([]*entity.Membership, error) {
	return r.find("FindTrainerGraceEnded", func(m *entity.Membership) bool {
		return isActive(m) && m.TrainerAssigned && before(m.TrainerGracePeriodEnd, now)
	})
}

func clearTrainer(m *entity.Membership) {
	m.TrainerAssigned = false
	m.TrainerId = nil
	m.TrainerPeriodEnd = nil
	m.TrainerGracePeriodEnd = nil
}

// guarded runs fn only when the row exists and pred holds, like a conditional UPDATE.
func (r memberships) guarded(op string, id int64, pred func(m *entity.Membership) bool, fn func(m *entity.Membership)) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(op, id); err != nil {
		return false, err
	}
	m, ok := r.s.memberships[id]
	if !ok || !pred(m) {
		return false, nil
	}
	fn(m)
	m.UpdatedAt = time.Now()
	return true, nil
}

func (r memberships) MoveToGrace(ctx context.Context, id int64, graceEnd time.Time, clear bool) (bool, error) {
	return r.guarded("MoveToGrace", id, isActive, func(m *entity.Membership) {
		m.Status = entity.MembershipStatusGracePeriod
		m.GracePeriodEnd = &graceEnd
		if clear {
			clearTrainer(m)
		}
	})
}

func (r memberships) DeleteExpiredGrace(ctx context.Context, id int64, now time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("DeleteExpiredGrace", id); err != nil {
		return false, err
	}
	m, ok := r.s.memberships[id]
	if !ok || m.Status != entity.MembershipStatusGracePeriod || !before(m.GracePeriodEnd, now) {
		return false, nil
	}
	delete(r.s.memberships, id)
	return true, nil
}

func (r memberships) ExpireLegacy(ctx context.Context, id int64) (bool, error) {
	return r.guarded("ExpireLegacy", id, func(m *entity.Membership) bool {
		return isActive(m) && m.GracePeriodEnd == nil
	}, func(m *entity.Membership) {
		m.Status = entity.MembershipStatusExpired
	})
}

func (r memberships) StartTrainerGrace(ctx context.Context, id int64, graceEnd time.Time) (bool, error) {
	return r.guarded("StartTrainerGrace", id, func(m *entity.Membership) bool {
		return isActive(m) && m.TrainerAssigned && m.TrainerGracePeriodEnd == nil
	}, func(m *entity.Membership) {
		m.TrainerGracePeriodEnd = &graceEnd
	})
}

func (r memberships) RevokeTrainerAccess(ctx context.Context, id int64, now time.Time) (bool, error) {
	return r.guarded("RevokeTrainerAccess", id, func(m *entity.Membership) bool {
		return m.TrainerAssigned && before(m.TrainerGracePeriodEnd, now)
	}, clearTrainer)
}

func (r memberships) UpdateTrainerPeriod(ctx context.Context, id int64, trainerId *uuid.UUID, periodEnd time.Time) (bool, error) {
	return r.guarded("UpdateTrainerPeriod", id, isActive, func(m *entity.Membership) {
		m.TrainerAssigned = true
		if trainerId != nil {
			tid := *trainerId
			m.TrainerId = &tid
		}
		m.TrainerPeriodEnd = &periodEnd
		m.TrainerGracePeriodEnd = nil
	})
}
