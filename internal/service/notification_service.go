package service

import (
	"context"
	"strings"

	"gym-membership-be/internal/pkg/logger"
	"gym-membership-be/pkg/events"
	pktNats "gym-membership-be/pkg/nats"

	"github.com/google/uuid"
)

// NotificationDelivery pushes realtime updates. Implemented by the websocket Hub.
type NotificationDelivery interface {
	Send(userID uuid.UUID, kind string, data interface{})
	SendToAdmins(kind string, data interface{})
}

// EventSubscriber is satisfied by *nats.Subscriber.
type EventSubscriber interface {
	Subscribe(subject string, durableName string, handler pktNats.EventHandler) error
}

// NotificationService relays lifecycle domain events from the bus to
// connected clients, so every instance's sockets see transitions made by
// whichever instance ran the batch.
type NotificationService struct {
	subscriber EventSubscriber
	delivery   NotificationDelivery
	logger     logger.ILogger
}

func NewNotificationService(sub EventSubscriber, delivery NotificationDelivery, log logger.ILogger) *NotificationService {
	return &NotificationService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *NotificationService) Start() error {
	if err := s.subscriber.Subscribe("events.>", "realtime-relay", s.HandleEvent); err != nil {
		s.logger.Error("NotificationService", "Failed to start event relay", map[string]interface{}{"error": err.Error()})
		return err
	}
	s.logger.Info("NotificationService", "Event relay listening on events.>", nil)
	return nil
}

// HandleEvent forwards one event. Unknown event types are acknowledged and dropped.
func (s *NotificationService) HandleEvent(ctx context.Context, event events.Event) error {
	kind := strings.TrimPrefix(event.EventType(), "events.")
	payload, _ := event.Payload().(map[string]interface{})

	switch kind {
	case events.MembershipGraceStarted, events.MembershipTerminated, events.MembershipExpired,
		events.TrainerGraceStarted, events.TrainerAccessRevoked, events.TrainerRenewalApproved:
	case events.LifecycleRunCompleted:
		s.delivery.SendToAdmins(strings.ToLower(kind), payload)
		return nil
	default:
		s.logger.Debug("NotificationService", "Ignoring event", map[string]interface{}{"type": kind})
		return nil
	}

	s.delivery.SendToAdmins(strings.ToLower(kind), payload)

	// renewal approvals already reach the member directly from the approver
	if kind == events.TrainerRenewalApproved {
		return nil
	}
	if raw, ok := payload["user_id"].(string); ok {
		if uid, err := uuid.Parse(raw); err == nil {
			s.delivery.Send(uid, "membership_status", payload)
		}
	}
	return nil
}
