package lifecycle

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"gym-membership-be/internal/entity"
	"gym-membership-be/internal/pkg/logger"
	"gym-membership-be/internal/pkg/mailer"
	"gym-membership-be/internal/repository/memory"
	"gym-membership-be/pkg/clock"
	"gym-membership-be/pkg/dispatch"
	"gym-membership-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inbox struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (i *inbox) Send(ctx context.Context, msg mailer.Message) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.sent = append(i.sent, msg)
	return nil
}

func (i *inbox) count() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.sent)
}

type fixture struct {
	store  *memory.Store
	clk    clock.FixedClock
	today  time.Time
	inbox  *inbox
	events *events.Recorder
	runner *Runner
	user   *entity.User
}

var runAt = time.Date(2026, 6, 15, 6, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	clk := clock.FixedClock{At: runAt, Loc: clock.LoadLocation(clock.DefaultZone)}
	box := &inbox{}
	rec := &events.Recorder{}
	l := logger.NewNopLogger()
	d := dispatch.New(store, box, l, clk, dispatch.WithRetry(0, time.Millisecond, time.Second))

	return &fixture{
		store:  store,
		clk:    clk,
		today:  clk.BusinessDayStart(clk.Now()),
		inbox:  box,
		events: rec,
		runner: NewRunner(store, d, rec, clk, l, DefaultConfig()),
		user:   store.PutUser(entity.User{Email: "asha@example.com", FullName: "Asha"}),
	}
}

func (f *fixture) member(m entity.Membership) *entity.Membership {
	m.UserId = f.user.Id
	if m.Status == "" {
		m.Status = entity.MembershipStatusActive
	}
	if m.PlanName == "" {
		m.PlanName = "Gold Annual"
	}
	return f.store.PutMembership(m)
}

func at(t time.Time) *time.Time { return &t }

func (f *fixture) day(n int) time.Time { return f.today.AddDate(0, 0, n) }

func notificationsOfType(list []*entity.Notification, typ entity.NotificationType) []*entity.Notification {
	var out []*entity.Notification
	for _, n := range list {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

func TestRun_SecondRunMutatesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	trainer := uuid.New()

	toGrace := f.member(entity.Membership{EndDate: at(f.day(-1).Add(12 * time.Hour))})
	toTerminate := f.member(entity.Membership{
		Status:         entity.MembershipStatusGracePeriod,
		EndDate:        at(f.day(-9)),
		GracePeriodEnd: at(f.day(-2)),
	})
	legacy := f.member(entity.Membership{EndDate: at(f.day(-20))})
	trainerGrace := f.member(entity.Membership{
		EndDate:          at(f.day(60)),
		TrainerAssigned:  true,
		TrainerId:        &trainer,
		TrainerPeriodEnd: at(f.day(-1)),
	})

	first := f.runner.Run(ctx, 0)
	assert.Equal(t, 1, first.MovedToGrace)
	assert.Equal(t, 1, first.Terminated)
	assert.Equal(t, 1, first.LegacyExpired)
	assert.Equal(t, 1, first.TrainerGraceStarted)
	assert.Equal(t, 0, first.Errors)

	snapshot := map[int64]*entity.Membership{}
	for _, id := range []int64{toGrace.Id, legacy.Id, trainerGrace.Id} {
		snapshot[id] = f.store.Membership(id)
	}

	second := f.runner.Run(ctx, 0)
	assert.Equal(t, 0, second.Mutations())
	for id, before := range snapshot {
		after := f.store.Membership(id)
		require.NotNil(t, after)
		assert.Equal(t, before.Status, after.Status)
		assert.Equal(t, before.GracePeriodEnd, after.GracePeriodEnd)
		assert.Equal(t, before.TrainerGracePeriodEnd, after.TrainerGracePeriodEnd)
	}
	assert.Nil(t, f.store.Membership(toTerminate.Id))
	assert.Equal(t, entity.MembershipStatusExpired, f.store.Membership(legacy.Id).Status)
	assert.Equal(t, 0, second.Sent(string(entity.EmailGraceStarted)))
	assert.Equal(t, 0, second.Sent(string(entity.EmailMembershipTerminated)))
}

func TestRun_GraceBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	yesterday := f.member(entity.Membership{EndDate: at(f.day(-1))})
	today := f.member(entity.Membership{EndDate: at(f.day(0).Add(20 * time.Hour))})

	report := f.runner.Run(ctx, 0)

	moved := f.store.Membership(yesterday.Id)
	assert.Equal(t, entity.MembershipStatusGracePeriod, moved.Status)
	require.NotNil(t, moved.GracePeriodEnd)
	assert.True(t, moved.GracePeriodEnd.Equal(f.day(6)))

	assert.Equal(t, entity.MembershipStatusActive, f.store.Membership(today.Id).Status)
	assert.Equal(t, 1, report.MovedToGrace)
	assert.Equal(t, 1, report.ExpiresTodayFound)
	assert.Equal(t, 1, report.Sent(string(entity.EmailExpiresToday)))
	assert.Len(t, f.events.OfType(events.MembershipGraceStarted), 1)
}

func TestRun_LegacyRowsExpireWithoutGrace(t *testing.T) {
	f := newFixture(t)
	old := f.member(entity.Membership{EndDate: at(f.day(-30))})

	report := f.runner.Run(context.Background(), 0)

	got := f.store.Membership(old.Id)
	assert.Equal(t, entity.MembershipStatusExpired, got.Status)
	assert.Nil(t, got.GracePeriodEnd)
	assert.Equal(t, 1, report.LegacyExpired)
	assert.Equal(t, 0, report.MovedToGrace)
	assert.Len(t, f.events.OfType(events.MembershipExpired), 1)
}

func TestRemind_MilestoneExactness(t *testing.T) {
	tests := []struct {
		name      string
		daysLeft  int
		wantFired bool
	}{
		{"seven days", 7, true},
		{"six days", 6, false},
		{"eight days", 8, false},
		{"two days", 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.member(entity.Membership{
				Status:         entity.MembershipStatusGracePeriod,
				EndDate:        at(f.day(tt.daysLeft - 7)),
				GracePeriodEnd: at(f.day(tt.daysLeft)),
			})

			f.runner.Run(context.Background(), 0)
			f.runner.Run(context.Background(), 0)

			fired := notificationsOfType(f.store.Notifications(), entity.NotificationGraceMilestone)
			if !tt.wantFired {
				assert.Empty(t, fired)
				return
			}
			require.Len(t, fired, 1)
			assert.Equal(t, tt.daysLeft, fired[0].Metadata["days_remaining"])
		})
	}
}

func TestRemind_TrainerMilestones(t *testing.T) {
	f := newFixture(t)
	trainer := uuid.New()
	f.member(entity.Membership{
		EndDate:               at(f.day(40)),
		TrainerAssigned:       true,
		TrainerId:             &trainer,
		TrainerPeriodEnd:      at(f.day(-2)),
		TrainerGracePeriodEnd: at(f.day(1)),
	})

	report := f.runner.Run(context.Background(), 0)

	fired := notificationsOfType(f.store.Notifications(), entity.NotificationTrainerMilestone)
	require.Len(t, fired, 1)
	assert.Equal(t, 1, fired[0].Metadata["days_remaining"])
	assert.Equal(t, 1, report.Sent(string(entity.EmailTrainerGraceReminder)))
}

func TestStartGrace_RegularMonthlyDropsTrainer(t *testing.T) {
	f := newFixture(t)
	trainer := uuid.New()
	m := f.member(entity.Membership{
		PlanName:         "Regular Monthly",
		EndDate:          at(f.day(-1)),
		TrainerAssigned:  true,
		TrainerId:        &trainer,
		TrainerPeriodEnd: at(f.day(10)),
	})
	assignment := f.store.PutAssignment(entity.TrainerAssignment{
		MembershipId:   m.Id,
		UserId:         f.user.Id,
		TrainerId:      &trainer,
		AssignmentType: entity.AssignmentTypeInitial,
		Status:         entity.AssignmentStatusAssigned,
	})

	f.runner.Run(context.Background(), 0)

	got := f.store.Membership(m.Id)
	assert.Equal(t, entity.MembershipStatusGracePeriod, got.Status)
	assert.False(t, got.TrainerAssigned)
	assert.Nil(t, got.TrainerId)
	assert.Nil(t, got.TrainerPeriodEnd)

	rows := f.store.Assignments(m.Id)
	require.Len(t, rows, 1)
	assert.Equal(t, assignment.Id, rows[0].Id)
	assert.Equal(t, entity.AssignmentStatusExpired, rows[0].Status)

	evts := f.events.OfType(events.MembershipGraceStarted)
	require.Len(t, evts, 1)
	assert.Equal(t, true, evts[0].Payload().(map[string]interface{})["trainer_cleared"])
}

func TestStartGrace_OtherPlansKeepTrainer(t *testing.T) {
	f := newFixture(t)
	trainer := uuid.New()
	m := f.member(entity.Membership{
		PlanName:         "Premium Quarterly",
		EndDate:          at(f.day(-1)),
		TrainerAssigned:  true,
		TrainerId:        &trainer,
		TrainerPeriodEnd: at(f.day(10)),
	})

	f.runner.Run(context.Background(), 0)

	got := f.store.Membership(m.Id)
	assert.Equal(t, entity.MembershipStatusGracePeriod, got.Status)
	assert.True(t, got.TrainerAssigned)
	require.NotNil(t, got.TrainerId)
	assert.Equal(t, trainer, *got.TrainerId)
}

func TestRun_OneBadRowDoesNotAbortBatch(t *testing.T) {
	f := newFixture(t)
	bad := f.member(entity.Membership{EndDate: at(f.day(-1))})
	good := f.member(entity.Membership{EndDate: at(f.day(-2))})
	f.store.Fail("MoveToGrace:"+strconv.FormatInt(bad.Id, 10), errors.New("deadlock detected"))

	report := f.runner.Run(context.Background(), 0)

	assert.Equal(t, entity.MembershipStatusActive, f.store.Membership(bad.Id).Status)
	assert.Equal(t, entity.MembershipStatusGracePeriod, f.store.Membership(good.Id).Status)
	assert.Equal(t, 1, report.MovedToGrace)
	assert.Equal(t, 1, report.Errors)
}

func TestRun_FailedQueryYieldsEmptySet(t *testing.T) {
	f := newFixture(t)
	f.member(entity.Membership{EndDate: at(f.day(-1))})
	f.member(entity.Membership{
		Status:         entity.MembershipStatusGracePeriod,
		EndDate:        at(f.day(-10)),
		GracePeriodEnd: at(f.day(-3)),
	})
	f.store.Fail("FindGraceEnded", errors.New("connection reset"))

	report := f.runner.Run(context.Background(), 0)

	assert.Equal(t, 0, report.Terminated)
	assert.Equal(t, 1, report.MovedToGrace)
}

func TestRun_TerminationNotifiesAdmins(t *testing.T) {
	f := newFixture(t)
	m := f.member(entity.Membership{
		Status:         entity.MembershipStatusGracePeriod,
		EndDate:        at(f.day(-8)),
		GracePeriodEnd: at(f.day(-1)),
	})

	report := f.runner.Run(context.Background(), 0)

	assert.Nil(t, f.store.Membership(m.Id))
	assert.Equal(t, 1, report.Sent(string(entity.EmailMembershipTerminated)))
	admin := f.store.AdminNotifications()
	require.Len(t, admin, 1)
	assert.Nil(t, admin[0].RecipientId)
	assert.Equal(t, entity.NotificationMembershipEnded, admin[0].Type)
	assert.Len(t, f.events.OfType(events.MembershipTerminated), 1)
}

func TestRun_TrainerGraceThenRevoke(t *testing.T) {
	f := newFixture(t)
	trainer := uuid.New()
	m := f.member(entity.Membership{
		EndDate:          at(f.day(60)),
		TrainerAssigned:  true,
		TrainerId:        &trainer,
		TrainerPeriodEnd: at(f.day(-1)),
	})
	f.store.PutAssignment(entity.TrainerAssignment{
		MembershipId:   m.Id,
		UserId:         f.user.Id,
		TrainerId:      &trainer,
		AssignmentType: entity.AssignmentTypeAddon,
		Status:         entity.AssignmentStatusAssigned,
	})

	f.runner.Run(context.Background(), 0)
	got := f.store.Membership(m.Id)
	require.NotNil(t, got.TrainerGracePeriodEnd)
	assert.True(t, got.TrainerGracePeriodEnd.Equal(f.day(2)))
	assert.True(t, got.TrainerAssigned)

	// four days later the trainer grace window has closed
	later := *f
	later.clk = clock.FixedClock{At: runAt.AddDate(0, 0, 4), Loc: f.clk.Loc}
	d := dispatch.New(f.store, f.inbox, logger.NewNopLogger(), later.clk)
	later.runner = NewRunner(f.store, d, f.events, later.clk, logger.NewNopLogger(), DefaultConfig())

	report := later.runner.Run(context.Background(), 0)
	assert.Equal(t, 1, report.TrainerRevoked)

	got = f.store.Membership(m.Id)
	assert.False(t, got.TrainerAssigned)
	assert.Nil(t, got.TrainerId)
	assert.Nil(t, got.TrainerGracePeriodEnd)
	assert.Equal(t, entity.AssignmentStatusExpired, f.store.Assignments(m.Id)[0].Status)
	assert.Len(t, f.events.OfType(events.TrainerAccessRevoked), 1)
}

func TestRun_NotificationWindowOverride(t *testing.T) {
	f := newFixture(t)
	f.member(entity.Membership{EndDate: at(f.day(10))})

	narrow := f.runner.Run(context.Background(), 0)
	wide := f.runner.Run(context.Background(), 14)

	assert.Equal(t, 0, narrow.ExpiringFound)
	assert.Equal(t, 1, wide.ExpiringFound)
	assert.Equal(t, 1, f.inbox.count())
}

// runOn runs a batch n days after the fixture's run time against the same store.
func (f *fixture) runOn(n int) *Report {
	clk := clock.FixedClock{At: runAt.AddDate(0, 0, n), Loc: f.clk.Loc}
	l := logger.NewNopLogger()
	d := dispatch.New(f.store, f.inbox, l, clk, dispatch.WithRetry(0, time.Millisecond, time.Second))
	return NewRunner(f.store, d, f.events, clk, l, DefaultConfig()).Run(context.Background(), 0)
}

func milestoneDays(list []*entity.Notification, typ entity.NotificationType) map[int]int {
	out := map[int]int{}
	for _, n := range notificationsOfType(list, typ) {
		out[n.Metadata["days_remaining"].(int)]++
	}
	return out
}

func TestRun_DailyScheduleFiresEveryMilestone(t *testing.T) {
	f := newFixture(t)
	f.member(entity.Membership{EndDate: at(f.day(-1).Add(12 * time.Hour))})
	f.member(entity.Membership{
		PlanName:         "Gold Annual Trainer",
		EndDate:          at(f.day(60)),
		TrainerAssigned:  true,
		TrainerPeriodEnd: at(f.day(-1).Add(12 * time.Hour)),
	})

	first := f.runOn(0)
	assert.Equal(t, 1, first.MovedToGrace)
	assert.Equal(t, 1, first.TrainerGraceStarted)
	assert.Equal(t, map[int]int{7: 1}, milestoneDays(f.store.Notifications(), entity.NotificationGraceMilestone))
	assert.Equal(t, map[int]int{3: 1}, milestoneDays(f.store.Notifications(), entity.NotificationTrainerMilestone))

	for day := 1; day <= 8; day++ {
		f.runOn(day)
	}

	assert.Equal(t, map[int]int{7: 1, 2: 1, 1: 1}, milestoneDays(f.store.Notifications(), entity.NotificationGraceMilestone))
	assert.Equal(t, map[int]int{3: 1, 1: 1}, milestoneDays(f.store.Notifications(), entity.NotificationTrainerMilestone))
}
