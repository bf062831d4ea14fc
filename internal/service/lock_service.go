package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/modelhub-io/modelhub-api/internal/models"
	appErrors "github.com/modelhub-io/modelhub-api/pkg/errors"
)

type inUseStore interface {
	Get(ctx context.Context, projectID int64) (*models.InUse, error)
	TryAcquire(ctx context.Context, projectID, sessionID int64, now, staleBefore time.Time) (bool, error)
}

// LockService governs the per-project exclusive edit lock. At most one
// session holds write privilege on a project inside the staleness
// window; a stale lock may be taken over by any Editor session.
type LockService struct {
	inUse   inUseStore
	timeout time.Duration
	logger  *zap.Logger
}

// NewLockService constructs a LockService.
func NewLockService(inUse inUseStore, timeout time.Duration, logger *zap.Logger) *LockService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &LockService{inUse: inUse, timeout: timeout, logger: logger}
}

// AcquireOrRenew claims the lock for the session, or renews it when the
// session already holds it. The claim is a single conditional update,
// so concurrent claimants cannot both succeed. Callers must have
// verified the Editor role first.
func (s *LockService) AcquireOrRenew(ctx context.Context, projectID, sessionID int64) error {
	now := time.Now().UTC()
	acquired, err := s.inUse.TryAcquire(ctx, projectID, sessionID, now, now.Add(-s.timeout))
	if err != nil {
		return appErrors.Internal(err, "failed to update in-use state")
	}
	if acquired {
		return nil
	}

	// The update matched nothing: either another session holds a fresh
	// lock, or the row is missing entirely (an invariant violation,
	// since the row is created with the project).
	if _, err := s.inUse.Get(ctx, projectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrInternal, "no in-use row found for project")
		}
		return appErrors.Internal(err, "failed to read in-use state")
	}
	return appErrors.Clone(appErrors.ErrProjectInUse, "project is currently in use by another session")
}

// Status reports whether another session holds a fresh lock on the
// project. An Editor's read doubles as a claim: holding or taking over
// the lock reports the project as free for them. Non-Editor readers
// leave the lock untouched and simply observe its freshness.
func (s *LockService) Status(ctx context.Context, projectID, sessionID int64, editor bool) (bool, error) {
	now := time.Now().UTC()
	staleBefore := now.Add(-s.timeout)

	if editor {
		acquired, err := s.inUse.TryAcquire(ctx, projectID, sessionID, now, staleBefore)
		if err != nil {
			return false, appErrors.Internal(err, "failed to update in-use state")
		}
		if acquired {
			s.logger.Debug("lock held",
				zap.Int64("project_id", projectID),
				zap.Int64("session_id", sessionID))
			return false, nil
		}
		return true, nil
	}

	inUse, err := s.inUse.Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, appErrors.Clone(appErrors.ErrInternal, "no in-use row found for project")
		}
		return false, appErrors.Internal(err, "failed to read in-use state")
	}
	return inUse.LatestActivity.After(staleBefore), nil
}
