// Package invoice issues one invoice per verified membership payment.
package invoice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gym-membership-be/internal/entity"
	"gym-membership-be/internal/repository/unitofwork"
	"gym-membership-be/pkg/clock"

	"github.com/google/uuid"
)

const Topic = "membership.invoices"

var (
	ErrPaymentNotFound    = errors.New("invoice: payment not found")
	ErrPaymentNotVerified = errors.New("invoice: payment is not verified")
)

// Job is the queued request for an invoice.
type Job struct {
	PaymentId int64                 `json:"payment_id"`
	Purpose   entity.PaymentPurpose `json:"purpose"`
}

// Number formats the invoice number from the business date and payment id.
func Number(paymentId int64, issuedAt time.Time, loc *time.Location) string {
	return fmt.Sprintf("INV-%s-%d", issuedAt.In(loc).Format("20060102"), paymentId)
}

type Generator struct {
	uowFactory unitofwork.RepositoryFactory
	clock      clock.Clock
}

func NewGenerator(uowFactory unitofwork.RepositoryFactory, clk clock.Clock) *Generator {
	return &Generator{uowFactory: uowFactory, clock: clk}
}

// Generate writes the invoice for the job's payment. Re-running a job returns
// the stored invoice and false.
func (g *Generator) Generate(ctx context.Context, job Job) (*entity.Invoice, bool, error) {
	uow := g.uowFactory.NewUnitOfWork(ctx)

	payment, err := uow.PaymentRepository().FindByID(ctx, job.PaymentId)
	if err != nil {
		return nil, false, fmt.Errorf("load payment: %w", err)
	}
	if payment == nil {
		return nil, false, ErrPaymentNotFound
	}
	if payment.Status != entity.MembershipPaymentVerified {
		return nil, false, ErrPaymentNotVerified
	}

	issuedAt := g.clock.Now()
	if payment.VerifiedAt != nil {
		issuedAt = *payment.VerifiedAt
	}
	inv := &entity.Invoice{
		Id:            uuid.New(),
		InvoiceNumber: Number(payment.Id, issuedAt, g.clock.Location()),
		PaymentId:     payment.Id,
		MembershipId:  payment.MembershipId,
		UserId:        payment.UserId,
		Amount:        payment.Amount,
		Purpose:       job.Purpose,
		IssuedAt:      issuedAt,
	}
	created, err := uow.InvoiceRepository().CreateIfNotExists(ctx, inv)
	if err != nil {
		return nil, false, fmt.Errorf("create invoice: %w", err)
	}
	if created {
		return inv, true, nil
	}
	existing, err := uow.InvoiceRepository().FindByPaymentID(ctx, payment.Id)
	if err != nil {
		return nil, false, fmt.Errorf("load invoice: %w", err)
	}
	return existing, false, nil
}
