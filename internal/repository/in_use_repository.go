package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/modelhub-io/modelhub-api/internal/models"
)

// InUseRepository provides database access for the per-project
// exclusive edit lock.
type InUseRepository struct {
	db *sqlx.DB
}

// NewInUseRepository creates a new instance of InUseRepository.
func NewInUseRepository(db *sqlx.DB) *InUseRepository {
	return &InUseRepository{db: db}
}

// Get returns the lock row for a project. Every project must have one;
// callers treat sql.ErrNoRows as an internal invariant violation.
func (r *InUseRepository) Get(ctx context.Context, projectID int64) (*models.InUse, error) {
	const query = `SELECT project_id, session_id, latest_activity FROM in_uses WHERE project_id = $1 LIMIT 1`
	var inUse models.InUse
	if err := r.db.GetContext(ctx, &inUse, query, projectID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get in-use row: %w", err)
	}
	return &inUse, nil
}

// TryAcquire claims or renews the lock in a single conditional update:
// the row is rewritten only when the current holder is the requesting
// session or the lock has gone stale. The affected-row count decides
// the outcome, so two concurrent claimants cannot both win.
func (r *InUseRepository) TryAcquire(ctx context.Context, projectID, sessionID int64, now time.Time, staleBefore time.Time) (bool, error) {
	const query = `UPDATE in_uses SET session_id = $2, latest_activity = $3 WHERE project_id = $1 AND (session_id = $2 OR latest_activity < $4)`
	res, err := r.db.ExecContext(ctx, query, projectID, sessionID, now, staleBefore)
	if err != nil {
		return false, fmt.Errorf("acquire in-use lock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("acquire in-use lock affected rows: %w", err)
	}
	return affected == 1, nil
}
