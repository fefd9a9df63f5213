package renewal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gym-membership-be/internal/entity"
	"gym-membership-be/internal/pkg/logger"
	"gym-membership-be/internal/repository/memory"
	"gym-membership-be/pkg/clock"
	"gym-membership-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var approvedAt = time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC)

type invoiceSpy struct {
	mu       sync.Mutex
	payments []int64
	err      error
}

func (s *invoiceSpy) RequestInvoice(ctx context.Context, paymentId int64, purpose entity.PaymentPurpose) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.payments = append(s.payments, paymentId)
	return nil
}

type broadcastSpy struct {
	mu     sync.Mutex
	users  []uuid.UUID
	admins []string
}

func (b *broadcastSpy) Send(userID uuid.UUID, kind string, data interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users = append(b.users, userID)
}

func (b *broadcastSpy) SendToAdmins(kind string, data interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.admins = append(b.admins, kind)
}

type setup struct {
	store    *memory.Store
	approver *Approver
	invoices *invoiceSpy
	hub      *broadcastSpy
	events   *events.Recorder
	trainer  uuid.UUID
	admin    uuid.UUID
}

func newSetup(t *testing.T) *setup {
	t.Helper()
	s := &setup{
		store:    memory.NewStore(),
		invoices: &invoiceSpy{},
		hub:      &broadcastSpy{},
		events:   &events.Recorder{},
		trainer:  uuid.New(),
		admin:    uuid.New(),
	}
	s.approver = NewApprover(s.store, clock.FixedClock{At: approvedAt}, logger.NewNopLogger(),
		WithInvoices(s.invoices), WithBroadcaster(s.hub), WithPublisher(s.events))
	return s
}

func (s *setup) membership(end time.Time, trainerEnd *time.Time) *entity.Membership {
	tid := s.trainer
	return s.store.PutMembership(entity.Membership{
		UserId:           uuid.New(),
		PlanName:         "Gold Annual",
		Status:           entity.MembershipStatusActive,
		EndDate:          &end,
		TrainerAssigned:  trainerEnd != nil,
		TrainerId:        &tid,
		TrainerPeriodEnd: trainerEnd,
	})
}

func (s *setup) renewalRequest(m *entity.Membership, amount, price float64, at time.Time) (*entity.MembershipPayment, *entity.MembershipAddon) {
	tid := s.trainer
	p := s.store.PutPayment(entity.MembershipPayment{
		MembershipId: m.Id, UserId: m.UserId, Amount: amount,
		Status: entity.MembershipPaymentPending, CreatedAt: at,
	})
	a := s.store.PutAddon(entity.MembershipAddon{
		MembershipId: m.Id, UserId: m.UserId, AddonType: entity.AddonTypePersonalTrainer,
		Status: entity.AddonStatusPending, Price: price, TrainerId: &tid, CreatedAt: at.Add(time.Minute),
	})
	return p, a
}

func TestApprove_ExtendsTrainerPeriod(t *testing.T) {
	s := newSetup(t)
	trainerEnd := approvedAt.AddDate(0, 0, 2)
	m := s.membership(approvedAt.AddDate(0, 6, 0), &trainerEnd)
	p, addon := s.renewalRequest(m, 3000, 3000, approvedAt.Add(-time.Hour))

	approval, err := s.approver.Approve(context.Background(), m.Id, s.admin)
	require.NoError(t, err)

	assert.Equal(t, p.Id, approval.PaymentId)
	assert.Equal(t, addon.Id, approval.AddonId)
	assert.True(t, approval.PeriodStart.Equal(trainerEnd))
	assert.True(t, approval.PeriodEnd.Equal(trainerEnd.AddDate(0, 1, 0)))
	assert.False(t, approval.Capped)

	got := s.store.Membership(m.Id)
	assert.True(t, got.TrainerAssigned)
	assert.True(t, got.TrainerPeriodEnd.Equal(approval.PeriodEnd))
	assert.Nil(t, got.TrainerGracePeriodEnd)

	pay := s.store.Payment(p.Id)
	assert.Equal(t, entity.MembershipPaymentVerified, pay.Status)
	require.NotNil(t, pay.VerifiedBy)
	assert.Equal(t, s.admin, *pay.VerifiedBy)
	assert.Equal(t, entity.AddonStatusActive, s.store.Addon(addon.Id).Status)

	// no pending assignment existed, so one was created and assigned
	rows := s.store.Assignments(m.Id)
	require.Len(t, rows, 1)
	assert.Equal(t, entity.AssignmentStatusAssigned, rows[0].Status)
	assert.Equal(t, entity.AssignmentTypeAddon, rows[0].AssignmentType)

	assert.Equal(t, []int64{p.Id}, s.invoices.payments)
	assert.Len(t, s.hub.users, 1)
	assert.Len(t, s.events.OfType(events.TrainerRenewalApproved), 1)
	assert.Len(t, s.store.AuditLogs(), 1)
	assert.Len(t, s.store.AdminNotifications(), 1)
}

func TestApprove_CapsAtMembershipEnd(t *testing.T) {
	s := newSetup(t)
	membershipEnd := approvedAt.AddDate(0, 0, 14)
	trainerEnd := membershipEnd.AddDate(0, 0, -21)
	m := s.membership(membershipEnd, &trainerEnd)
	s.renewalRequest(m, 3000, 3000, approvedAt.Add(-10*time.Minute))

	approval, err := s.approver.Approve(context.Background(), m.Id, s.admin)
	require.NoError(t, err)

	assert.True(t, approval.Capped)
	assert.True(t, approval.PeriodEnd.Equal(membershipEnd))
	assert.True(t, s.store.Membership(m.Id).TrainerPeriodEnd.Equal(membershipEnd))
}

func TestApprove_StartsNowWithoutPreviousPeriod(t *testing.T) {
	s := newSetup(t)
	m := s.membership(approvedAt.AddDate(1, 0, 0), nil)
	s.renewalRequest(m, 2500, 2500, approvedAt.Add(-time.Minute))

	approval, err := s.approver.Approve(context.Background(), m.Id, s.admin)
	require.NoError(t, err)
	assert.True(t, approval.PeriodStart.Equal(approvedAt))
	assert.True(t, approval.PeriodEnd.Equal(approvedAt.AddDate(0, 1, 0)))
}

func TestApprove_ClearsTrainerGrace(t *testing.T) {
	s := newSetup(t)
	trainerEnd := approvedAt.AddDate(0, 0, -1)
	m := s.membership(approvedAt.AddDate(0, 6, 0), &trainerEnd)
	graceEnd := trainerEnd.AddDate(0, 0, 3)
	s.store.PutMembership(func() entity.Membership {
		cp := *s.store.Membership(m.Id)
		cp.TrainerGracePeriodEnd = &graceEnd
		return cp
	}())
	s.renewalRequest(m, 3000, 3000, approvedAt.Add(-time.Minute))

	_, err := s.approver.Approve(context.Background(), m.Id, s.admin)
	require.NoError(t, err)
	assert.Nil(t, s.store.Membership(m.Id).TrainerGracePeriodEnd)
}

func TestApprove_UsesExistingPendingAssignment(t *testing.T) {
	s := newSetup(t)
	m := s.membership(approvedAt.AddDate(0, 6, 0), nil)
	p, _ := s.renewalRequest(m, 3000, 3000, approvedAt.Add(-time.Hour))
	existing := s.store.PutAssignment(entity.TrainerAssignment{
		MembershipId: m.Id, UserId: m.UserId, AssignmentType: entity.AssignmentTypeAddon,
		Status: entity.AssignmentStatusPending, CreatedAt: p.CreatedAt.Add(30 * time.Second),
	})

	approval, err := s.approver.Approve(context.Background(), m.Id, s.admin)
	require.NoError(t, err)
	require.NotNil(t, approval.AssignmentId)
	assert.Equal(t, existing.Id, *approval.AssignmentId)
	assert.Len(t, s.store.Assignments(m.Id), 1)
}

func TestApprove_RejectsOtherPendingPayments(t *testing.T) {
	s := newSetup(t)
	m := s.membership(approvedAt.AddDate(0, 6, 0), nil)
	older := s.store.PutPayment(entity.MembershipPayment{
		MembershipId: m.Id, Amount: 3000, Status: entity.MembershipPaymentPending,
		CreatedAt: approvedAt.Add(-48 * time.Hour),
	})
	latest, _ := s.renewalRequest(m, 3000, 3000, approvedAt.Add(-time.Hour))

	approval, err := s.approver.Approve(context.Background(), m.Id, s.admin)
	require.NoError(t, err)
	assert.Equal(t, latest.Id, approval.PaymentId)
	assert.Equal(t, []int64{older.Id}, approval.RejectedPayments)
	assert.Equal(t, entity.MembershipPaymentRejected, s.store.Payment(older.Id).Status)
}

func TestApprove_WidensToAnyPendingAddon(t *testing.T) {
	s := newSetup(t)
	m := s.membership(approvedAt.AddDate(0, 6, 0), nil)
	s.store.PutPayment(entity.MembershipPayment{
		MembershipId: m.Id, Amount: 3000, Status: entity.MembershipPaymentPending, CreatedAt: approvedAt.Add(-time.Hour),
	})
	far := s.store.PutAddon(entity.MembershipAddon{
		MembershipId: m.Id, AddonType: entity.AddonTypePersonalTrainer, Status: entity.AddonStatusPending,
		Price: 3000, CreatedAt: approvedAt.Add(-30 * time.Hour),
	})

	approval, err := s.approver.Approve(context.Background(), m.Id, s.admin)
	require.NoError(t, err)
	assert.Equal(t, far.Id, approval.AddonId)
}

func TestApprove_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(s *setup) int64
		want    error
	}{
		{
			name:    "unknown membership",
			prepare: func(s *setup) int64 { return 999999 },
			want:    ErrMembershipNotFound,
		},
		{
			name: "membership in grace",
			prepare: func(s *setup) int64 {
				end := approvedAt.AddDate(0, 0, -2)
				m := s.store.PutMembership(entity.Membership{UserId: uuid.New(), Status: entity.MembershipStatusGracePeriod, EndDate: &end})
				return m.Id
			},
			want: ErrMembershipNotActive,
		},
		{
			name: "trainer period already past membership end",
			prepare: func(s *setup) int64 {
				trainerEnd := approvedAt.AddDate(0, 0, 20)
				m := s.membership(approvedAt.AddDate(0, 0, 10), &trainerEnd)
				s.renewalRequest(m, 3000, 3000, approvedAt.Add(-time.Hour))
				return m.Id
			},
			want: ErrNoTimeLeft,
		},
		{
			name: "no pending payment",
			prepare: func(s *setup) int64 {
				return s.membership(approvedAt.AddDate(0, 6, 0), nil).Id
			},
			want: ErrNoPendingPayment,
		},
		{
			name: "addon price too far",
			prepare: func(s *setup) int64 {
				m := s.membership(approvedAt.AddDate(0, 6, 0), nil)
				s.renewalRequest(m, 3000, 3500, approvedAt.Add(-time.Hour))
				return m.Id
			},
			want: ErrNoMatchingAddon,
		},
		{
			name: "amount off by more than one unit",
			prepare: func(s *setup) int64 {
				m := s.membership(approvedAt.AddDate(0, 6, 0), nil)
				s.renewalRequest(m, 2995, 3000, approvedAt.Add(-time.Hour))
				return m.Id
			},
			want: ErrAmountMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSetup(t)
			id := tt.prepare(s)

			_, err := s.approver.Approve(context.Background(), id, s.admin)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			var rejection *RejectionError
			require.True(t, errors.As(err, &rejection))
			assert.NotEmpty(t, rejection.Reason)
			assert.Empty(t, s.invoices.payments)
		})
	}
}

func TestApprove_AmountMismatchCarriesCandidates(t *testing.T) {
	s := newSetup(t)
	m := s.membership(approvedAt.AddDate(0, 6, 0), nil)
	p, addon := s.renewalRequest(m, 2995, 3000, approvedAt.Add(-time.Hour))

	_, err := s.approver.Approve(context.Background(), m.Id, s.admin)
	var rejection *RejectionError
	require.True(t, errors.As(err, &rejection))
	assert.Equal(t, addon.Id, rejection.Candidates["addon_id"])
	assert.Equal(t, entity.MembershipPaymentPending, s.store.Payment(p.Id).Status)
}

func TestApprove_SideEffectFailuresDoNotUndoApproval(t *testing.T) {
	s := newSetup(t)
	s.invoices.err = errors.New("queue closed")
	s.events.Err = errors.New("nats down")
	m := s.membership(approvedAt.AddDate(0, 6, 0), nil)
	p, _ := s.renewalRequest(m, 3000, 3000, approvedAt.Add(-time.Hour))
	s.store.Fail("CreateAudit", errors.New("audit table locked"))
	s.store.Fail("CreateNotifications", errors.New("insert failed"))

	approval, err := s.approver.Approve(context.Background(), m.Id, s.admin)
	require.NoError(t, err)
	assert.Equal(t, p.Id, approval.PaymentId)
	assert.Equal(t, entity.MembershipPaymentVerified, s.store.Payment(p.Id).Status)
	assert.True(t, s.store.Membership(m.Id).TrainerAssigned)
}

func TestApprove_SecondApprovalFindsNothingPending(t *testing.T) {
	s := newSetup(t)
	m := s.membership(approvedAt.AddDate(0, 6, 0), nil)
	s.renewalRequest(m, 3000, 3000, approvedAt.Add(-time.Hour))

	_, err := s.approver.Approve(context.Background(), m.Id, s.admin)
	require.NoError(t, err)

	_, err = s.approver.Approve(context.Background(), m.Id, s.admin)
	assert.ErrorIs(t, err, ErrNoPendingPayment)
}

func TestPeriodEnd(t *testing.T) {
	start := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	at := func(y int, m time.Month, d int) *time.Time {
		v := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return &v
	}

	tests := []struct {
		name       string
		membership *time.Time
		want       time.Time
		capped     bool
		err        error
	}{
		{"no membership end", nil, start.AddDate(0, 1, 0), false, nil},
		{"membership outlasts the period", at(2026, 6, 1), start.AddDate(0, 1, 0), false, nil},
		{"capped at membership end", at(2026, 2, 10), *at(2026, 2, 10), true, nil},
		{"membership ends on the start day", &start, time.Time{}, false, ErrNoTimeLeft},
		{"membership already over", at(2026, 1, 20), time.Time{}, false, ErrNoTimeLeft},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			end, capped, err := PeriodEnd(start, tt.membership)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.capped, capped)
			assert.True(t, end.Equal(tt.want))
		})
	}
}
