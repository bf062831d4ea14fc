package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelhub-io/modelhub-api/internal/models"
)

func TestAccessGetByUserAndProject(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAccessRepository(db)

	rows := sqlmock.NewRows([]string{"id", "role", "project_id", "user_id"}).
		AddRow(int64(1), string(models.RoleCommenter), int64(10), int64(3))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, role, project_id, user_id FROM accesses WHERE user_id = $1 AND project_id = $2 LIMIT 1")).
		WithArgs(int64(3), int64(10)).
		WillReturnRows(rows)

	access, err := repo.GetByUserAndProject(context.Background(), 3, 10)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCommenter, access.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccessGetByUserAndProjectNoGrant(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAccessRepository(db)

	mock.ExpectQuery("SELECT id, role, project_id, user_id FROM accesses").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByUserAndProject(context.Background(), 3, 10)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccessListByProject(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAccessRepository(db)

	rows := sqlmock.NewRows([]string{"id", "role", "project_id", "user_id", "username"}).
		AddRow(int64(1), string(models.RoleEditor), int64(10), int64(3), "alice").
		AddRow(int64(2), string(models.RoleViewer), int64(10), int64(4), "bob")
	mock.ExpectQuery("SELECT a.id, a.role, a.project_id, a.user_id, u.username FROM accesses a JOIN users u").
		WithArgs(int64(10)).
		WillReturnRows(rows)

	infos, err := repo.ListByProject(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "alice", infos[0].Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccessUpdateRoleMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAccessRepository(db)

	mock.ExpectExec("UPDATE accesses SET role").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateRole(context.Background(), 99, models.RoleViewer)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
