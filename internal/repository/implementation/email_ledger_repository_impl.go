package implementation

import (
	"context"
	"errors"
	"time"

	"gym-membership-be/internal/entity"
	"gym-membership-be/internal/mapper"
	"gym-membership-be/internal/model"
	"gym-membership-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EmailLedgerRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.EmailMapper
}

func NewEmailLedgerRepository(db *gorm.DB) contract.EmailLedgerRepository {
	return &EmailLedgerRepositoryImpl{
		db:     db,
		mapper: mapper.NewEmailMapper(),
	}
}

func (r *EmailLedgerRepositoryImpl) HasEvent(ctx context.Context, userId uuid.UUID, membershipId int64, eventType string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.EmailEvent{}).
		Where("user_id = ? AND membership_id = ? AND event_type = ?", userId, membershipId, eventType).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

// RecordEvent ignores duplicates so two racing runs both succeed.
func (r *EmailLedgerRepositoryImpl) RecordEvent(ctx context.Context, event *entity.EmailEvent) error {
	m := &model.EmailEvent{
		Id:           event.Id,
		UserId:       event.UserId,
		MembershipId: event.MembershipId,
		EventType:    event.EventType,
		SentAt:       event.SentAt,
	}
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "membership_id"}, {Name: "event_type"}},
		DoNothing: true,
	}).Create(m).Error
}

func (r *EmailLedgerRepositoryImpl) RecordFailure(ctx context.Context, failure *entity.EmailFailure) error {
	db := r.db.WithContext(ctx)

	var open model.EmailFailure
	err := db.Where("user_id = ? AND membership_id = ? AND event_type = ? AND resolved_at IS NULL",
		failure.UserId, failure.MembershipId, failure.EventType).
		Order("created_at DESC").
		First(&open).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err == nil {
		return db.Model(&model.EmailFailure{}).Where("id = ?", open.Id).Updates(map[string]interface{}{
			"attempts":        gorm.Expr("attempts + ?", max(failure.Attempts, 1)),
			"last_error":      failure.LastError,
			"last_attempt_at": failure.LastAttemptAt,
		}).Error
	}

	m := &model.EmailFailure{
		Id:            uuid.New(),
		UserId:        failure.UserId,
		MembershipId:  failure.MembershipId,
		EventType:     failure.EventType,
		Recipient:     failure.Recipient,
		LastError:     failure.LastError,
		Attempts:      max(failure.Attempts, 1),
		LastAttemptAt: failure.LastAttemptAt,
	}
	return db.Create(m).Error
}

func (r *EmailLedgerRepositoryImpl) ResolveFailures(ctx context.Context, userId uuid.UUID, membershipId int64, eventType string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.EmailFailure{}).
		Where("user_id = ? AND membership_id = ? AND event_type = ? AND resolved_at IS NULL", userId, membershipId, eventType).
		Update("resolved_at", at)
	return res.RowsAffected, res.Error
}

func (r *EmailLedgerRepositoryImpl) FindOpenFailures(ctx context.Context, limit int) ([]*entity.EmailFailure, error) {
	var models []*model.EmailFailure
	query := r.db.WithContext(ctx).Where("resolved_at IS NULL").Order("last_attempt_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.EmailFailure, len(models))
	for i, m := range models {
		out[i] = r.mapper.FailureToEntity(m)
	}
	return out, nil
}
