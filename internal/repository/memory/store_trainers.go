package memory

import (
	"context"
	"sort"
	"strconv"
	"time"

	"gym-membership-be/internal/entity"

	"github.com/google/uuid"
)

type addons struct{ s *Store }

func (r addons) FindByID(ctx context.Context, id int64) (*entity.MembershipAddon, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.addons[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r addons) FindByMembership(ctx context.Context, membershipId int64) ([]*entity.MembershipAddon, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("FindAddons", membershipId); err != nil {
		return nil, err
	}
	var out []*entity.MembershipAddon
	for _, a := range r.s.addons {
		if a.MembershipId == membershipId {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Id < out[j].Id
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r addons) Activate(ctx context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("ActivateAddon", id); err != nil {
		return false, err
	}
	a, ok := r.s.addons[id]
	if !ok || a.Status != entity.AddonStatusPending {
		return false, nil
	}
	a.Status = entity.AddonStatusActive
	return true, nil
}

type assignments struct{ s *Store }

func (r assignments) FindByMembership(ctx context.Context, membershipId int64) ([]*entity.TrainerAssignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("FindAssignments", membershipId); err != nil {
		return nil, err
	}
	return r.s.assignmentsOf(membershipId), nil
}

func (r assignments) Create(ctx context.Context, a *entity.TrainerAssignment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("CreateAssignment", a.MembershipId); err != nil {
		return err
	}
	a.Id = r.s.id()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	cp := *a
	r.s.assignments[a.Id] = &cp
	return nil
}

func (r assignments) MarkAssigned(ctx context.Context, id int64, trainerId *uuid.UUID, start, end time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("MarkAssigned", id); err != nil {
		return false, err
	}
	a, ok := r.s.assignments[id]
	if !ok {
		return false, nil
	}
	a.Status = entity.AssignmentStatusAssigned
	a.PeriodStart = &start
	a.PeriodEnd = &end
	if trainerId != nil {
		tid := *trainerId
		a.TrainerId = &tid
	}
	return true, nil
}

func (r assignments) ExpireForMembership(ctx context.Context, membershipId int64, from ...entity.AssignmentStatus) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("ExpireAssignments", membershipId); err != nil {
		return 0, err
	}
	var n int64
	for _, a := range r.s.assignments {
		if a.MembershipId != membershipId {
			continue
		}
		for _, st := range from {
			if a.Status == st {
				a.Status = entity.AssignmentStatusExpired
				n++
				break
			}
		}
	}
	return n, nil
}

type payments struct{ s *Store }

func (r payments) FindByID(ctx context.Context, id int64) (*entity.MembershipPayment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("FindPayment", id); err != nil {
		return nil, err
	}
	p, ok := r.s.payments[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r payments) FindByMembership(ctx context.Context, membershipId int64) ([]*entity.MembershipPayment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("FindPayments", membershipId); err != nil {
		return nil, err
	}
	var out []*entity.MembershipPayment
	for _, p := range r.s.payments {
		if p.MembershipId == membershipId {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Id < out[j].Id
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r payments) MarkVerified(ctx context.Context, id int64, adminId *uuid.UUID, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("MarkVerified", id); err != nil {
		return false, err
	}
	p, ok := r.s.payments[id]
	if !ok || p.Status != entity.MembershipPaymentPending {
		return false, nil
	}
	p.Status = entity.MembershipPaymentVerified
	p.VerifiedBy = adminId
	p.VerifiedAt = &at
	return true, nil
}

func (r payments) RejectOtherPending(ctx context.Context, membershipId, keepId int64) ([]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("RejectOtherPending", membershipId); err != nil {
		return nil, err
	}
	var ids []int64
	for _, p := range r.s.payments {
		if p.MembershipId == membershipId && p.Id != keepId && p.Status == entity.MembershipPaymentPending {
			p.Status = entity.MembershipPaymentRejected
			ids = append(ids, p.Id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

type invoices struct{ s *Store }

func (r invoices) CreateIfNotExists(ctx context.Context, inv *entity.Invoice) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("CreateInvoice", inv.PaymentId); err != nil {
		return false, err
	}
	if _, ok := r.s.invoices[inv.PaymentId]; ok {
		return false, nil
	}
	if inv.Id == uuid.Nil {
		inv.Id = uuid.New()
	}
	cp := *inv
	r.s.invoices[inv.PaymentId] = &cp
	return true, nil
}

func (r invoices) FindByPaymentID(ctx context.Context, paymentId int64) (*entity.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invoices[paymentId]
	if !ok {
		return nil, nil
	}
	cp := *inv
	return &cp, nil
}

type ledger struct{ s *Store }

func ledgerKey(userId uuid.UUID, membershipId int64, eventType string) string {
	return userId.String() + "|" + strconv.FormatInt(membershipId, 10) + "|" + eventType
}

func (r ledger) HasEvent(ctx context.Context, userId uuid.UUID, membershipId int64, eventType string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("HasEvent", ""); err != nil {
		return false, err
	}
	_, ok := r.s.emailEvents[ledgerKey(userId, membershipId, eventType)]
	return ok, nil
}

func (r ledger) RecordEvent(ctx context.Context, e *entity.EmailEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("RecordEvent", ""); err != nil {
		return err
	}
	key := ledgerKey(e.UserId, e.MembershipId, e.EventType)
	if _, ok := r.s.emailEvents[key]; ok {
		return nil
	}
	if e.Id == uuid.Nil {
		e.Id = uuid.New()
	}
	cp := *e
	r.s.emailEvents[key] = &cp
	return nil
}

func (r ledger) RecordFailure(ctx context.Context, f *entity.EmailFailure) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("RecordFailure", ""); err != nil {
		return err
	}
	attempts := f.Attempts
	if attempts < 1 {
		attempts = 1
	}
	for _, open := range r.s.emailFailures {
		if open.ResolvedAt == nil && open.UserId == f.UserId && open.MembershipId == f.MembershipId && open.EventType == f.EventType {
			open.Attempts += attempts
			open.LastError = f.LastError
			open.LastAttemptAt = f.LastAttemptAt
			return nil
		}
	}
	cp := *f
	cp.Id = uuid.New()
	cp.Attempts = attempts
	cp.ResolvedAt = nil
	cp.CreatedAt = time.Now()
	r.s.emailFailures = append(r.s.emailFailures, &cp)
	return nil
}

func (r ledger) ResolveFailures(ctx context.Context, userId uuid.UUID, membershipId int64, eventType string, at time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, f := range r.s.emailFailures {
		if f.ResolvedAt == nil && f.UserId == userId && f.MembershipId == membershipId && f.EventType == eventType {
			resolved := at
			f.ResolvedAt = &resolved
			n++
		}
	}
	return n, nil
}

func (r ledger) FindOpenFailures(ctx context.Context, limit int) ([]*entity.EmailFailure, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.EmailFailure
	for _, f := range r.s.emailFailures {
		if f.ResolvedAt == nil {
			cp := *f
			out = append(out, &cp)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
