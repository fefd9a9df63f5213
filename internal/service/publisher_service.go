package service

import (
	"context"
	"encoding/json"

	"gym-membership-be/internal/entity"
	"gym-membership-be/pkg/invoice"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

type IPublisherService interface {
	Publish(ctx context.Context, payload []byte) error
	RequestInvoice(ctx context.Context, paymentId int64, purpose entity.PaymentPurpose) error
}

type publisherService struct {
	topicName string
	publisher message.Publisher
}

func NewPublisherService(topicName string, publisher message.Publisher) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
	}
}

func (ps *publisherService) Publish(ctx context.Context, payload []byte) error {
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return ps.publisher.Publish(ps.topicName, msg)
}

func (ps *publisherService) RequestInvoice(ctx context.Context, paymentId int64, purpose entity.PaymentPurpose) error {
	payload, err := json.Marshal(invoice.Job{PaymentId: paymentId, Purpose: purpose})
	if err != nil {
		return err
	}
	return ps.Publish(ctx, payload)
}
