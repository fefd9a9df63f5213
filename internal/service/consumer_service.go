package service

import (
	"context"
	"encoding/json"
	"errors"

	"gym-membership-be/internal/pkg/logger"
	"gym-membership-be/pkg/invoice"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	generator  *invoice.Generator
	logger     logger.ILogger
}

// NewConsumerService drains invoice jobs from the topic and writes one
// invoice per verified payment.
func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	generator *invoice.Generator,
	l logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		generator:  generator,
		logger:     l,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var job invoice.Job
	if err := json.Unmarshal(msg.Payload, &job); err != nil {
		cs.logger.Error("INVOICE", "Failed to unmarshal invoice job", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		// malformed jobs never succeed on redelivery
		msg.Ack()
		return
	}

	inv, created, err := cs.generator.Generate(ctx, job)
	switch {
	case errors.Is(err, invoice.ErrPaymentNotFound), errors.Is(err, invoice.ErrPaymentNotVerified):
		cs.logger.Warn("INVOICE", "Invoice job dropped", map[string]interface{}{
			"payment_id": job.PaymentId,
			"error":      err.Error(),
		})
		msg.Ack()
		return
	case err != nil:
		cs.logger.Error("INVOICE", "Invoice generation failed", map[string]interface{}{
			"payment_id": job.PaymentId,
			"error":      err.Error(),
		})
		msg.Nack()
		return
	}

	cs.logger.Info("INVOICE", "Invoice ready", map[string]interface{}{
		"payment_id":     job.PaymentId,
		"invoice_number": inv.InvoiceNumber,
		"created":        created,
	})
	msg.Ack()
}
