package unitofwork

import (
	"context"

	"gym-membership-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	MembershipRepository() contract.MembershipRepository
	AddonRepository() contract.AddonRepository
	AssignmentRepository() contract.AssignmentRepository
	PaymentRepository() contract.PaymentRepository
	InvoiceRepository() contract.InvoiceRepository
	EmailLedgerRepository() contract.EmailLedgerRepository
	NotificationRepository() contract.NotificationRepository
	AuditLogRepository() contract.AuditLogRepository
	SettingsRepository() contract.SettingsRepository
}
