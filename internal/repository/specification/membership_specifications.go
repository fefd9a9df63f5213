package specification

import (
	"time"

	"gorm.io/gorm"
)

// resolvedEndDate mirrors the mapper: membership_end_date wins over the legacy column.
const resolvedEndDate = "COALESCE(membership_end_date, end_date)"

type ByMembershipID struct {
	MembershipID int64
}

func (s ByMembershipID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("membership_id = ?", s.MembershipID)
}

type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// EndDateBetween matches [From, To) on the resolved end date.
type EndDateBetween struct {
	From time.Time
	To   time.Time
}

func (s EndDateBetween) Apply(db *gorm.DB) *gorm.DB {
	return db.Where(resolvedEndDate+" >= ? AND "+resolvedEndDate+" < ?", s.From, s.To)
}

type EndDateBefore struct {
	Before time.Time
}

func (s EndDateBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where(resolvedEndDate+" < ?", s.Before)
}

type GracePeriodUnset struct{}

func (s GracePeriodUnset) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("grace_period_end IS NULL")
}

type GracePeriodEndsAfter struct {
	At time.Time
}

func (s GracePeriodEndsAfter) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("grace_period_end > ?", s.At)
}

type GracePeriodEndedBefore struct {
	At time.Time
}

func (s GracePeriodEndedBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("grace_period_end < ?", s.At)
}

type TrainerAssigned struct{}

func (s TrainerAssigned) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("trainer_assigned = ?", true)
}

type TrainerPeriodBetween struct {
	From time.Time
	To   time.Time
}

func (s TrainerPeriodBetween) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("trainer_period_end >= ? AND trainer_period_end < ?", s.From, s.To)
}

type TrainerPeriodEndedBefore struct {
	At time.Time
}

func (s TrainerPeriodEndedBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("trainer_period_end < ?", s.At)
}

type TrainerGraceUnset struct{}

func (s TrainerGraceUnset) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("trainer_grace_period_end IS NULL")
}

type TrainerGraceEndsAfter struct {
	At time.Time
}

func (s TrainerGraceEndsAfter) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("trainer_grace_period_end > ?", s.At)
}

type TrainerGraceEndedBefore struct {
	At time.Time
}

func (s TrainerGraceEndedBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("trainer_grace_period_end < ?", s.At)
}
