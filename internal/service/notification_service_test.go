package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"gym-membership-be/internal/pkg/logger"
	"gym-membership-be/pkg/events"
	pktNats "gym-membership-be/pkg/nats"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type deliverySpy struct {
	mu     sync.Mutex
	users  map[uuid.UUID][]string
	admins []string
}

func (d *deliverySpy) Send(userID uuid.UUID, kind string, data interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.users == nil {
		d.users = map[uuid.UUID][]string{}
	}
	d.users[userID] = append(d.users[userID], kind)
}

func (d *deliverySpy) SendToAdmins(kind string, data interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.admins = append(d.admins, kind)
}

type mockSubscriber struct{ mock.Mock }

func (m *mockSubscriber) Subscribe(subject, durable string, handler pktNats.EventHandler) error {
	return m.Called(subject, durable).Error(0)
}

func TestNotificationService_RelaysLifecycleEvents(t *testing.T) {
	spy := &deliverySpy{}
	svc := NewNotificationService(&mockSubscriber{}, spy, logger.NewNopLogger())
	user := uuid.New()
	ctx := context.Background()

	require.NoError(t, svc.HandleEvent(ctx, events.New(events.MembershipGraceStarted,
		map[string]interface{}{"user_id": user.String(), "membership_id": 4}, now)))
	require.NoError(t, svc.HandleEvent(ctx, events.New(events.TrainerRenewalApproved,
		map[string]interface{}{"user_id": user.String()}, now)))
	require.NoError(t, svc.HandleEvent(ctx, events.New(events.LifecycleRunCompleted,
		map[string]interface{}{"errors": 0}, now)))
	require.NoError(t, svc.HandleEvent(ctx, events.New("SOMETHING_ELSE", nil, now)))

	assert.Equal(t, []string{"membership_grace_started", "trainer_renewal_approved", "lifecycle_run_completed"}, spy.admins)
	assert.Equal(t, []string{"membership_status"}, spy.users[user])
}

func TestNotificationService_Start(t *testing.T) {
	sub := &mockSubscriber{}
	sub.On("Subscribe", "events.>", "realtime-relay").Return(nil).Once()
	svc := NewNotificationService(sub, &deliverySpy{}, logger.NewNopLogger())
	assert.NoError(t, svc.Start())
	sub.AssertExpectations(t)

	failing := &mockSubscriber{}
	failing.On("Subscribe", mock.Anything, mock.Anything).Return(errors.New("no jetstream"))
	assert.Error(t, NewNotificationService(failing, &deliverySpy{}, logger.NewNopLogger()).Start())
}
