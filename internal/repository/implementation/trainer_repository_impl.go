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

type AddonRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TrainerMapper
}

func NewAddonRepository(db *gorm.DB) contract.AddonRepository {
	return &AddonRepositoryImpl{
		db:     db,
		mapper: mapper.NewTrainerMapper(),
	}
}

func (r *AddonRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *AddonRepositoryImpl) FindByID(ctx context.Context, id int64) (*entity.MembershipAddon, error) {
	var m model.MembershipAddon
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.AddonToEntity(&m), nil
}

func (r *AddonRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.MembershipAddon, error) {
	var models []*model.MembershipAddon
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.MembershipAddon{}), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.MembershipAddon, len(models))
	for i, m := range models {
		entities[i] = r.mapper.AddonToEntity(m)
	}
	return entities, nil
}

func (r *AddonRepositoryImpl) FindByMembership(ctx context.Context, membershipId int64) ([]*entity.MembershipAddon, error) {
	return r.FindAll(ctx, specification.ByMembershipID{MembershipID: membershipId}, specification.OrderBy{Field: "created_at"})
}

func (r *AddonRepositoryImpl) Activate(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.MembershipAddon{}).
		Where("id = ? AND status = ?", id, string(entity.AddonStatusPending)).
		Update("status", string(entity.AddonStatusActive))
	return res.RowsAffected > 0, res.Error
}

type AssignmentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TrainerMapper
}

func NewAssignmentRepository(db *gorm.DB) contract.AssignmentRepository {
	return &AssignmentRepositoryImpl{
		db:     db,
		mapper: mapper.NewTrainerMapper(),
	}
}

func (r *AssignmentRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TrainerAssignment, error) {
	var models []*model.TrainerAssignment
	query := r.db.WithContext(ctx).Model(&model.TrainerAssignment{})
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.TrainerAssignment, len(models))
	for i, m := range models {
		entities[i] = r.mapper.AssignmentToEntity(m)
	}
	return entities, nil
}

func (r *AssignmentRepositoryImpl) FindByMembership(ctx context.Context, membershipId int64) ([]*entity.TrainerAssignment, error) {
	return r.FindAll(ctx, specification.ByMembershipID{MembershipID: membershipId}, specification.OrderBy{Field: "created_at"})
}

func (r *AssignmentRepositoryImpl) Create(ctx context.Context, assignment *entity.TrainerAssignment) error {
	m := r.mapper.AssignmentToModel(assignment)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*assignment = *r.mapper.AssignmentToEntity(m)
	return nil
}

func (r *AssignmentRepositoryImpl) MarkAssigned(ctx context.Context, id int64, trainerId *uuid.UUID, start, end time.Time) (bool, error) {
	updates := map[string]interface{}{
		"status":       string(entity.AssignmentStatusAssigned),
		"period_start": start,
		"period_end":   end,
	}
	if trainerId != nil {
		updates["trainer_id"] = *trainerId
	}
	res := r.db.WithContext(ctx).Model(&model.TrainerAssignment{}).
		Where("id = ?", id).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}

func (r *AssignmentRepositoryImpl) ExpireForMembership(ctx context.Context, membershipId int64, from ...entity.AssignmentStatus) (int64, error) {
	if len(from) == 0 {
		return 0, nil
	}
	statuses := make([]string, len(from))
	for i, s := range from {
		statuses[i] = string(s)
	}
	res := r.db.WithContext(ctx).Model(&model.TrainerAssignment{}).
		Where("membership_id = ? AND status IN ?", membershipId, statuses).
		Update("status", string(entity.AssignmentStatusExpired))
	return res.RowsAffected, res.Error
}
