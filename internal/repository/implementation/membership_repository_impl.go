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
)

type MembershipRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.MembershipMapper
}

func NewMembershipRepository(db *gorm.DB) contract.MembershipRepository {
	return &MembershipRepositoryImpl{
		db:     db,
		mapper: mapper.NewMembershipMapper(),
	}
}

func (r *MembershipRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *MembershipRepositoryImpl) FindByID(ctx context.Context, id int64) (*entity.Membership, error) {
	var m model.Membership
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *MembershipRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Membership, error) {
	var models []*model.Membership
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Membership{}), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Membership, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func active() specification.Specification {
	return specification.ByStatus{Status: string(entity.MembershipStatusActive)}
}

func inGrace() specification.Specification {
	return specification.ByStatus{Status: string(entity.MembershipStatusGracePeriod)}
}

func (r *MembershipRepositoryImpl) FindExpiringBetween(ctx context.Context, from, to time.Time) ([]*entity.Membership, error) {
	return r.FindAll(ctx, active(), specification.EndDateBetween{From: from, To: to})
}

func (r *MembershipRepositoryImpl) FindGraceEligible(ctx context.Context, endedBefore time.Time) ([]*entity.Membership, error) {
	return r.FindAll(ctx, active(), specification.GracePeriodUnset{}, specification.EndDateBefore{Before: endedBefore})
}

func (r *MembershipRepositoryImpl) FindLegacyExpired(ctx context.Context, endedBefore time.Time) ([]*entity.Membership, error) {
	return r.FindAll(ctx, active(), specification.GracePeriodUnset{}, specification.EndDateBefore{Before: endedBefore})
}

func (r *MembershipRepositoryImpl) FindInGrace(ctx context.Context, now time.Time) ([]*entity.Membership, error) {
	return r.FindAll(ctx, inGrace(), specification.GracePeriodEndsAfter{At: now})
}

func (r *MembershipRepositoryImpl) FindGraceEnded(ctx context.Context, now time.Time) ([]*entity.Membership, error) {
	return r.FindAll(ctx, inGrace(), specification.GracePeriodEndedBefore{At: now})
}

func (r *MembershipRepositoryImpl) FindTrainerExpiringBetween(ctx context.Context, from, to time.Time) ([]*entity.Membership, error) {
	return r.FindAll(ctx, active(), specification.TrainerAssigned{}, specification.TrainerGraceUnset{},
		specification.TrainerPeriodBetween{From: from, To: to})
}

func (r *MembershipRepositoryImpl) FindTrainerGraceEligible(ctx context.Context, now time.Time) ([]*entity.Membership, error) {
	return r.FindAll(ctx, active(), specification.TrainerAssigned{}, specification.TrainerGraceUnset{},
		specification.TrainerPeriodEndedBefore{At: now})
}

func (r *MembershipRepositoryImpl) FindTrainerInGrace(ctx context.Context, now time.Time) ([]*entity.Membership, error) {
	return r.FindAll(ctx, active(), specification.TrainerAssigned{}, specification.TrainerGraceEndsAfter{At: now})
}

func (r *MembershipRepositoryImpl) FindTrainerGraceEnded(ctx context.Context, now time.Time) ([]*entity.Membership, error) {
	return r.FindAll(ctx, active(), specification.TrainerAssigned{}, specification.TrainerGraceEndedBefore{At: now})
}

func clearedTrainerFields(updates map[string]interface{}) map[string]interface{} {
	updates["trainer_assigned"] = false
	updates["trainer_id"] = nil
	updates["trainer_period_end"] = nil
	updates["trainer_grace_period_end"] = nil
	return updates
}

func (r *MembershipRepositoryImpl) MoveToGrace(ctx context.Context, id int64, graceEnd time.Time, clearTrainer bool) (bool, error) {
	updates := map[string]interface{}{
		"status":           string(entity.MembershipStatusGracePeriod),
		"grace_period_end": graceEnd,
	}
	if clearTrainer {
		updates = clearedTrainerFields(updates)
	}
	res := r.db.WithContext(ctx).Model(&model.Membership{}).
		Where("id = ? AND status = ?", id, string(entity.MembershipStatusActive)).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}

func (r *MembershipRepositoryImpl) DeleteExpiredGrace(ctx context.Context, id int64, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status = ? AND grace_period_end < ?", id, string(entity.MembershipStatusGracePeriod), now).
		Delete(&model.Membership{})
	return res.RowsAffected > 0, res.Error
}

func (r *MembershipRepositoryImpl) ExpireLegacy(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Membership{}).
		Where("id = ? AND status = ? AND grace_period_end IS NULL", id, string(entity.MembershipStatusActive)).
		Update("status", string(entity.MembershipStatusExpired))
	return res.RowsAffected > 0, res.Error
}

func (r *MembershipRepositoryImpl) StartTrainerGrace(ctx context.Context, id int64, graceEnd time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Membership{}).
		Where("id = ? AND status = ? AND trainer_assigned = ? AND trainer_grace_period_end IS NULL",
			id, string(entity.MembershipStatusActive), true).
		Update("trainer_grace_period_end", graceEnd)
	return res.RowsAffected > 0, res.Error
}

func (r *MembershipRepositoryImpl) RevokeTrainerAccess(ctx context.Context, id int64, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Membership{}).
		Where("id = ? AND trainer_assigned = ? AND trainer_grace_period_end < ?", id, true, now).
		Updates(clearedTrainerFields(map[string]interface{}{}))
	return res.RowsAffected > 0, res.Error
}

func (r *MembershipRepositoryImpl) UpdateTrainerPeriod(ctx context.Context, id int64, trainerId *uuid.UUID, periodEnd time.Time) (bool, error) {
	updates := map[string]interface{}{
		"trainer_assigned":         true,
		"trainer_period_end":       periodEnd,
		"trainer_grace_period_end": nil,
	}
	if trainerId != nil {
		updates["trainer_id"] = *trainerId
	}
	res := r.db.WithContext(ctx).Model(&model.Membership{}).
		Where("id = ? AND status = ?", id, string(entity.MembershipStatusActive)).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}
