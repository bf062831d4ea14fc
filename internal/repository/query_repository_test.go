package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelhub-io/modelhub-api/internal/models"
)

func TestQueryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQueryRepository(db)

	mock.ExpectQuery("INSERT INTO queries").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(4)))

	query := &models.Query{ProjectID: 10, String: "refinement: A <= B"}
	err := repo.Create(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, int64(4), query.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuerySetResultClearsOutdated(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQueryRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE queries SET result = $2, outdated = FALSE WHERE id = $1")).
		WithArgs(int64(4), json.RawMessage(`{"satisfied":true}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetResult(context.Background(), 4, json.RawMessage(`{"satisfied":true}`))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryMarkOutdatedSkipsEmptyResults(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQueryRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE queries SET outdated = TRUE WHERE project_id = $1 AND result IS NOT NULL")).
		WithArgs(int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := repo.MarkOutdatedByProject(context.Background(), 10)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryUpdateStringMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQueryRepository(db)

	mock.ExpectExec("UPDATE queries SET string").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateString(context.Background(), 99, "consistency: C")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryListByProject(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQueryRepository(db)

	rows := sqlmock.NewRows([]string{"id", "project_id", "string", "result", "outdated"}).
		AddRow(int64(1), int64(10), "refinement: A <= B", []byte(`{"satisfied":true}`), false).
		AddRow(int64(2), int64(10), "consistency: C", nil, false)
	mock.ExpectQuery("SELECT id, project_id, string, result, outdated FROM queries WHERE project_id").
		WithArgs(int64(10)).
		WillReturnRows(rows)

	queries, err := repo.ListByProject(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, queries, 2)
	assert.Nil(t, queries[1].Result)
	assert.NoError(t, mock.ExpectationsWereMet())
}
