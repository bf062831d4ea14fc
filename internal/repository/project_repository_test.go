package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelhub-io/modelhub-api/internal/models"
)

func TestProjectCreateTransaction(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO projects").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))
	mock.ExpectExec("INSERT INTO accesses").
		WithArgs(models.RoleEditor, int64(10), int64(3)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO in_uses").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	project := &models.Project{
		Name:           "traffic-light",
		ComponentsInfo: json.RawMessage(`{"components":[]}`),
		OwnerID:        3,
	}
	err := repo.Create(context.Background(), project, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(10), project.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectCreateRollsBackOnAccessFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO projects").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))
	mock.ExpectExec("INSERT INTO accesses").
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	project := &models.Project{Name: "p", ComponentsInfo: json.RawMessage(`{}`), OwnerID: 3}
	err := repo.Create(context.Background(), project, 42)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectGetByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "components_info", "owner_id", "created_at", "updated_at"}).
		AddRow(int64(10), "traffic-light", []byte(`{"components":[]}`), int64(3), now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, components_info, owner_id, created_at, updated_at FROM projects WHERE id = $1 LIMIT 1")).
		WithArgs(int64(10)).
		WillReturnRows(rows)

	project, err := repo.GetByID(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "traffic-light", project.Name)
	assert.Equal(t, int64(3), project.OwnerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectDeleteMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	mock.ExpectExec("DELETE FROM projects").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 99)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectListInfoByUserID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	rows := sqlmock.NewRows([]string{"project_id", "name", "owner_id", "role"}).
		AddRow(int64(10), "a", int64(3), string(models.RoleEditor)).
		AddRow(int64(11), "b", int64(4), string(models.RoleViewer))
	mock.ExpectQuery("SELECT p.id AS project_id, p.name, p.owner_id, a.role FROM projects p JOIN accesses a").
		WithArgs(int64(3)).
		WillReturnRows(rows)

	infos, err := repo.ListInfoByUserID(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, models.RoleEditor, infos[0].Role)
	assert.Equal(t, models.RoleViewer, infos[1].Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}
