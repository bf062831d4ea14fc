package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/modelhub-io/modelhub-api/internal/models"
)

// AccessRepository provides database access for per-project role grants.
type AccessRepository struct {
	db *sqlx.DB
}

// NewAccessRepository creates a new instance of AccessRepository.
func NewAccessRepository(db *sqlx.DB) *AccessRepository {
	return &AccessRepository{db: db}
}

// Create inserts an access row and fills in the generated id.
func (r *AccessRepository) Create(ctx context.Context, access *models.Access) error {
	const query = `INSERT INTO accesses (role, project_id, user_id) VALUES ($1, $2, $3) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, access.Role, access.ProjectID, access.UserID).Scan(&access.ID); err != nil {
		return fmt.Errorf("create access: %w", err)
	}
	return nil
}

// GetByID returns an access row by identifier.
func (r *AccessRepository) GetByID(ctx context.Context, id int64) (*models.Access, error) {
	const query = `SELECT id, role, project_id, user_id FROM accesses WHERE id = $1 LIMIT 1`
	var access models.Access
	if err := r.db.GetContext(ctx, &access, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get access by id: %w", err)
	}
	return &access, nil
}

// GetByUserAndProject returns the access row for a (user, project) pair.
func (r *AccessRepository) GetByUserAndProject(ctx context.Context, userID, projectID int64) (*models.Access, error) {
	const query = `SELECT id, role, project_id, user_id FROM accesses WHERE user_id = $1 AND project_id = $2 LIMIT 1`
	var access models.Access
	if err := r.db.GetContext(ctx, &access, query, userID, projectID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get access by user and project: %w", err)
	}
	return &access, nil
}

// ListByProject returns all access grants on a project with usernames.
func (r *AccessRepository) ListByProject(ctx context.Context, projectID int64) ([]models.AccessInfo, error) {
	const query = `SELECT a.id, a.role, a.project_id, a.user_id, u.username FROM accesses a JOIN users u ON u.id = a.user_id WHERE a.project_id = $1 ORDER BY u.username ASC`
	var infos []models.AccessInfo
	if err := r.db.SelectContext(ctx, &infos, query, projectID); err != nil {
		return nil, fmt.Errorf("list access by project: %w", err)
	}
	return infos, nil
}

// UpdateRole changes the role on an existing access row.
func (r *AccessRepository) UpdateRole(ctx context.Context, id int64, role models.Role) error {
	const query = `UPDATE accesses SET role = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, role)
	if err != nil {
		return fmt.Errorf("update access role: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update access affected rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes an access row.
func (r *AccessRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM accesses WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete access: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete access affected rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
