package implementation

import (
	"context"
	"errors"
	"time"

	"gym-membership-be/internal/entity"
	"gym-membership-be/internal/mapper"
	"gym-membership-be/internal/model"
	"gym-membership-be/internal/repository/contract"
	"gym-membership-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PaymentMapper
}

func NewPaymentRepository(db *gorm.DB) contract.PaymentRepository {
	return &PaymentRepositoryImpl{
		db:     db,
		mapper: mapper.NewPaymentMapper(),
	}
}

func (r *PaymentRepositoryImpl) FindByID(ctx context.Context, id int64) (*entity.MembershipPayment, error) {
	var m model.MembershipPayment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *PaymentRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.MembershipPayment, error) {
	var models []*model.MembershipPayment
	query := r.db.WithContext(ctx).Model(&model.MembershipPayment{})
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.MembershipPayment, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *PaymentRepositoryImpl) FindByMembership(ctx context.Context, membershipId int64) ([]*entity.MembershipPayment, error) {
	return r.FindAll(ctx, specification.ByMembershipID{MembershipID: membershipId},
		specification.OrderBy{Field: "created_at"}, specification.OrderBy{Field: "id"})
}

func (r *PaymentRepositoryImpl) MarkVerified(ctx context.Context, id int64, adminId *uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.MembershipPayment{}).
		Where("id = ? AND status = ?", id, string(entity.MembershipPaymentPending)).
		Updates(map[string]interface{}{
			"status":      string(entity.MembershipPaymentVerified),
			"verified_by": adminId,
			"verified_at": at,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *PaymentRepositoryImpl) RejectOtherPending(ctx context.Context, membershipId, keepId int64) ([]int64, error) {
	var rejected []model.MembershipPayment
	res := r.db.WithContext(ctx).Model(&rejected).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "id"}}}).
		Where("membership_id = ? AND status = ? AND id <> ?", membershipId, string(entity.MembershipPaymentPending), keepId).
		Update("status", string(entity.MembershipPaymentRejected))
	if res.Error != nil {
		return nil, res.Error
	}
	ids := make([]int64, 0, len(rejected))
	for _, p := range rejected {
		ids = append(ids, p.Id)
	}
	return ids, nil
}

type InvoiceRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PaymentMapper
}

func NewInvoiceRepository(db *gorm.DB) contract.InvoiceRepository {
	return &InvoiceRepositoryImpl{
		db:     db,
		mapper: mapper.NewPaymentMapper(),
	}
}

func (r *InvoiceRepositoryImpl) CreateIfNotExists(ctx context.Context, invoice *entity.Invoice) (bool, error) {
	m := r.mapper.InvoiceToModel(invoice)
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "payment_id"}},
		DoNothing: true,
	}).Create(m)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	*invoice = *r.mapper.InvoiceToEntity(m)
	return true, nil
}

func (r *InvoiceRepositoryImpl) FindByPaymentID(ctx context.Context, paymentId int64) (*entity.Invoice, error) {
	var m model.Invoice
	if err := r.db.WithContext(ctx).Where("payment_id = ?", paymentId).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.InvoiceToEntity(&m), nil
}
