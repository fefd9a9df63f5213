package contract

import (
	"context"
	"time"

	"gym-membership-be/internal/entity"

	"github.com/google/uuid"
)

type PaymentRepository interface {
	FindByID(ctx context.Context, id int64) (*entity.MembershipPayment, error)
	// FindByMembership returns every payment of the membership, oldest first.
	FindByMembership(ctx context.Context, membershipId int64) ([]*entity.MembershipPayment, error)
	MarkVerified(ctx context.Context, id int64, adminId *uuid.UUID, at time.Time) (bool, error)
	RejectOtherPending(ctx context.Context, membershipId, keepId int64) ([]int64, error)
}

type InvoiceRepository interface {
	// CreateIfNotExists is keyed on payment id; the bool is false when an invoice already existed.
	CreateIfNotExists(ctx context.Context, invoice *entity.Invoice) (bool, error)
	FindByPaymentID(ctx context.Context, paymentId int64) (*entity.Invoice, error)
}
