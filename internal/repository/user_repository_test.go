package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserGetByUsername(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "created_at", "updated_at"}).
		AddRow(int64(1), "alice", "alice@example.com", "hash", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, username, email, password_hash, created_at, updated_at FROM users WHERE username = $1 LIMIT 1")).
		WithArgs("alice").
		WillReturnRows(rows)

	user, err := repo.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserGetByIDsEmptyInput(t *testing.T) {
	db, _, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	users, err := repo.GetByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestUniqueViolationMatchesConstraintColumn(t *testing.T) {
	err := &pq.Error{Code: "23505", Constraint: "users_username_key"}
	assert.True(t, UniqueViolation(err, "username"))
	assert.False(t, UniqueViolation(err, "email"))
	assert.False(t, UniqueViolation(errors.New("plain"), "username"))

	fk := &pq.Error{Code: "23503", Constraint: "projects_owner_id_fkey"}
	assert.True(t, ForeignKeyViolation(fk, "owner_id"))
	assert.False(t, UniqueViolation(fk, "owner_id"))
}
