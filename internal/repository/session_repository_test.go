package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelhub-io/modelhub-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func TestSessionCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectQuery("INSERT INTO sessions").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	session := &models.Session{AccessToken: "at", RefreshToken: "rt", UserID: 3}
	err := repo.Create(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, int64(7), session.ID)
	assert.False(t, session.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionGetByAccessToken(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "access_token", "refresh_token", "updated_at", "user_id"}).
		AddRow(int64(1), "at", "rt", now, int64(3))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, access_token, refresh_token, updated_at, user_id FROM sessions WHERE access_token = $1 LIMIT 1")).
		WithArgs("at").
		WillReturnRows(rows)

	session, err := repo.GetByToken(context.Background(), models.AccessToken, "at")
	require.NoError(t, err)
	assert.Equal(t, int64(3), session.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionGetByRefreshTokenUsesRefreshColumn(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "access_token", "refresh_token", "updated_at", "user_id"}).
		AddRow(int64(1), "at", "rt", now, int64(3))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE refresh_token = $1")).
		WithArgs("rt").
		WillReturnRows(rows)

	session, err := repo.GetByToken(context.Background(), models.RefreshToken, "rt")
	require.NoError(t, err)
	assert.Equal(t, "rt", session.RefreshToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionGetByTokenNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectQuery("SELECT id, access_token").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByToken(context.Background(), models.AccessToken, "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionUpdate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec("UPDATE sessions SET").
		WillReturnResult(sqlmock.NewResult(0, 1))

	session := &models.Session{ID: 1, AccessToken: "at2", RefreshToken: "rt2", UserID: 3}
	err := repo.Update(context.Background(), session)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec("UPDATE sessions SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Session{ID: 99})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionDeleteByToken(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "access_token", "refresh_token", "updated_at", "user_id"}).
		AddRow(int64(1), "at", "rt", now, int64(3))
	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM sessions WHERE access_token = $1 RETURNING")).
		WithArgs("at").
		WillReturnRows(rows)

	session, err := repo.DeleteByToken(context.Background(), models.AccessToken, "at")
	require.NoError(t, err)
	assert.Equal(t, int64(1), session.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
