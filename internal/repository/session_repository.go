package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/modelhub-io/modelhub-api/internal/models"
)

// SessionRepository provides database access for session rows. The two
// tokens of one session are independent lookup keys into the same row.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new instance of SessionRepository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func tokenColumn(class models.TokenClass) string {
	if class == models.RefreshToken {
		return "refresh_token"
	}
	return "access_token"
}

// Create inserts a new session row and fills in the generated id.
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO sessions (access_token, refresh_token, updated_at, user_id) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, session.AccessToken, session.RefreshToken, session.UpdatedAt, session.UserID).Scan(&session.ID); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetByToken returns the session matching the token in the column of
// the requested class.
func (r *SessionRepository) GetByToken(ctx context.Context, class models.TokenClass, token string) (*models.Session, error) {
	query := fmt.Sprintf(`SELECT id, access_token, refresh_token, updated_at, user_id FROM sessions WHERE %s = $1 LIMIT 1`, tokenColumn(class))
	var session models.Session
	if err := r.db.GetContext(ctx, &session, query, token); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get session by %s token: %w", class, err)
	}
	return &session, nil
}

// Update replaces the token pair and refreshes the activity timestamp.
func (r *SessionRepository) Update(ctx context.Context, session *models.Session) error {
	session.UpdatedAt = time.Now().UTC()
	const query = `UPDATE sessions SET access_token = $2, refresh_token = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, session.ID, session.AccessToken, session.RefreshToken, session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session affected rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteByToken removes the session matching the token and returns the
// deleted row. sql.ErrNoRows when no session matches.
func (r *SessionRepository) DeleteByToken(ctx context.Context, class models.TokenClass, token string) (*models.Session, error) {
	query := fmt.Sprintf(`DELETE FROM sessions WHERE %s = $1 RETURNING id, access_token, refresh_token, updated_at, user_id`, tokenColumn(class))
	var session models.Session
	if err := r.db.GetContext(ctx, &session, query, token); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("delete session by %s token: %w", class, err)
	}
	return &session, nil
}
