package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/modelhub-io/modelhub-api/internal/models"
)

// ProjectRepository provides database access for projects.
type ProjectRepository struct {
	db *sqlx.DB
}

// NewProjectRepository creates a new instance of ProjectRepository.
func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create inserts a project together with the owner's Editor access row
// and the project's in-use lock row, seeded with the creator's session.
// The three inserts are one transaction: a project without its lock row
// violates the lock manager's invariant.
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project, sessionID int64) error {
	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create project: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertProject = `INSERT INTO projects (name, components_info, owner_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := tx.QueryRowxContext(ctx, insertProject, project.Name, project.ComponentsInfo, project.OwnerID, project.CreatedAt, project.UpdatedAt).Scan(&project.ID); err != nil {
		return fmt.Errorf("create project: %w", err)
	}

	const insertAccess = `INSERT INTO accesses (role, project_id, user_id) VALUES ($1, $2, $3)`
	if _, err := tx.ExecContext(ctx, insertAccess, models.RoleEditor, project.ID, project.OwnerID); err != nil {
		return fmt.Errorf("create owner access: %w", err)
	}

	const insertInUse = `INSERT INTO in_uses (project_id, session_id, latest_activity) VALUES ($1, $2, $3)`
	if _, err := tx.ExecContext(ctx, insertInUse, project.ID, sessionID, now); err != nil {
		return fmt.Errorf("create in-use row: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create project: %w", err)
	}
	return nil
}

// GetByID returns a project by identifier.
func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	const query = `SELECT id, name, components_info, owner_id, created_at, updated_at FROM projects WHERE id = $1 LIMIT 1`
	var project models.Project
	if err := r.db.GetContext(ctx, &project, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get project by id: %w", err)
	}
	return &project, nil
}

// Update replaces the mutable fields of a project.
func (r *ProjectRepository) Update(ctx context.Context, project *models.Project) error {
	project.UpdatedAt = time.Now().UTC()
	const query = `UPDATE projects SET name = :name, components_info = :components_info, owner_id = :owner_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, project); err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return nil
}

// Delete removes a project; queries, accesses and the lock row cascade.
func (r *ProjectRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM projects WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete project affected rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListInfoByUserID returns the projects a user has access to, paired
// with their role.
func (r *ProjectRepository) ListInfoByUserID(ctx context.Context, userID int64) ([]models.ProjectInfo, error) {
	const query = `SELECT p.id AS project_id, p.name, p.owner_id, a.role FROM projects p JOIN accesses a ON a.project_id = p.id WHERE a.user_id = $1 ORDER BY p.name ASC`
	var infos []models.ProjectInfo
	if err := r.db.SelectContext(ctx, &infos, query, userID); err != nil {
		return nil, fmt.Errorf("list project info: %w", err)
	}
	return infos, nil
}
