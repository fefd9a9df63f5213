package implementation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestMoveToGrace_GuardedOnActiveStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMembershipRepository(db)
	graceEnd := time.Date(2026, 7, 8, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE "memberships" SET .*"status"=.* WHERE id = \$\d+ AND status = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	moved, err := repo.MoveToGrace(context.Background(), 42, graceEnd, false)

	require.NoError(t, err)
	assert.True(t, moved)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMoveToGrace_ClearsTrainerFields(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMembershipRepository(db)

	mock.ExpectExec(`UPDATE "memberships" SET .*"trainer_assigned"=.*"trainer_grace_period_end"=.*"trainer_id"=.*"trainer_period_end"=`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	moved, err := repo.MoveToGrace(context.Background(), 42, time.Now(), true)

	require.NoError(t, err)
	assert.True(t, moved)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMoveToGrace_AlreadyMovedIsSkipped(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMembershipRepository(db)

	mock.ExpectExec(`UPDATE "memberships"`).WillReturnResult(sqlmock.NewResult(0, 0))

	moved, err := repo.MoveToGrace(context.Background(), 42, time.Now(), false)

	require.NoError(t, err)
	assert.False(t, moved)
}

func TestDeleteExpiredGrace(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMembershipRepository(db)

	mock.ExpectExec(`DELETE FROM "memberships" WHERE id = \$1 AND status = \$2 AND grace_period_end < \$3`).
		WithArgs(int64(7), "grace_period", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := repo.DeleteExpiredGrace(context.Background(), 7, time.Now())

	require.NoError(t, err)
	assert.True(t, deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpireLegacy_RequiresNoGracePeriod(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMembershipRepository(db)

	mock.ExpectExec(`UPDATE "memberships" SET .* WHERE id = \$\d+ AND status = \$\d+ AND grace_period_end IS NULL`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	expired, err := repo.ExpireLegacy(context.Background(), 3)

	require.NoError(t, err)
	assert.True(t, expired)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStartTrainerGrace_PropagatesError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMembershipRepository(db)

	mock.ExpectExec(`UPDATE "memberships" SET .*trainer_grace_period_end`).
		WillReturnError(errors.New("connection reset"))

	started, err := repo.StartTrainerGrace(context.Background(), 3, time.Now())

	assert.Error(t, err)
	assert.False(t, started)
}

func TestFindGraceEligible_FiltersExplicitly(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMembershipRepository(db)
	end := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "plan_name", "status", "membership_end_date", "end_date"}).
		AddRow(int64(1), "Regular Monthly", "active", nil, end)

	mock.ExpectQuery(`SELECT \* FROM "memberships" WHERE status = \$1 AND grace_period_end IS NULL AND COALESCE\(membership_end_date, end_date\) < \$2`).
		WithArgs("active", sqlmock.AnyArg()).
		WillReturnRows(rows)

	found, err := repo.FindGraceEligible(context.Background(), end.AddDate(0, 0, 1))

	require.NoError(t, err)
	require.Len(t, found, 1)
	require.NotNil(t, found[0].EndDate)
	assert.True(t, end.Equal(*found[0].EndDate))
	require.NoError(t, mock.ExpectationsWereMet())
}
