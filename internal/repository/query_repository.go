package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/modelhub-io/modelhub-api/internal/models"
)

// QueryRepository provides database access for verification queries.
type QueryRepository struct {
	db *sqlx.DB
}

// NewQueryRepository creates a new instance of QueryRepository.
func NewQueryRepository(db *sqlx.DB) *QueryRepository {
	return &QueryRepository{db: db}
}

// Create inserts a query and fills in the generated id.
func (r *QueryRepository) Create(ctx context.Context, query *models.Query) error {
	const stmt = `INSERT INTO queries (project_id, string, result, outdated) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, stmt, query.ProjectID, query.String, query.Result, query.Outdated).Scan(&query.ID); err != nil {
		return fmt.Errorf("create query: %w", err)
	}
	return nil
}

// GetByID returns a query by identifier.
func (r *QueryRepository) GetByID(ctx context.Context, id int64) (*models.Query, error) {
	const stmt = `SELECT id, project_id, string, result, outdated FROM queries WHERE id = $1 LIMIT 1`
	var query models.Query
	if err := r.db.GetContext(ctx, &query, stmt, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get query by id: %w", err)
	}
	return &query, nil
}

// ListByProject returns all queries attached to a project.
func (r *QueryRepository) ListByProject(ctx context.Context, projectID int64) ([]models.Query, error) {
	const stmt = `SELECT id, project_id, string, result, outdated FROM queries WHERE project_id = $1 ORDER BY id ASC`
	var queries []models.Query
	if err := r.db.SelectContext(ctx, &queries, stmt, projectID); err != nil {
		return nil, fmt.Errorf("list queries by project: %w", err)
	}
	return queries, nil
}

// UpdateString replaces the query text, keeping the stored result and
// outdated flag untouched.
func (r *QueryRepository) UpdateString(ctx context.Context, id int64, queryString string) error {
	const stmt = `UPDATE queries SET string = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, stmt, id, queryString)
	if err != nil {
		return fmt.Errorf("update query string: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update query affected rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetResult stores the engine verdict and clears the outdated flag.
func (r *QueryRepository) SetResult(ctx context.Context, id int64, result json.RawMessage) error {
	const stmt = `UPDATE queries SET result = $2, outdated = FALSE WHERE id = $1`
	res, err := r.db.ExecContext(ctx, stmt, id, result)
	if err != nil {
		return fmt.Errorf("set query result: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set query result affected rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkOutdatedByProject flags every stored result of a project as stale.
// Invoked when the project's components change.
func (r *QueryRepository) MarkOutdatedByProject(ctx context.Context, projectID int64) error {
	const stmt = `UPDATE queries SET outdated = TRUE WHERE project_id = $1 AND result IS NOT NULL`
	if _, err := r.db.ExecContext(ctx, stmt, projectID); err != nil {
		return fmt.Errorf("mark queries outdated: %w", err)
	}
	return nil
}

// Delete removes a query.
func (r *QueryRepository) Delete(ctx context.Context, id int64) error {
	const stmt = `DELETE FROM queries WHERE id = $1`
	res, err := r.db.ExecContext(ctx, stmt, id)
	if err != nil {
		return fmt.Errorf("delete query: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete query affected rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
