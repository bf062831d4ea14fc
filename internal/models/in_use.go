package models

import "time"

// InUse is the per-project exclusive edit lock. Exactly one row exists
// per project, created with the project and removed only by its
// deletion. The session named here holds write privilege until
// LatestActivity falls outside the staleness window.
type InUse struct {
	ProjectID      int64     `db:"project_id" json:"project_id"`
	SessionID      int64     `db:"session_id" json:"session_id"`
	LatestActivity time.Time `db:"latest_activity" json:"latest_activity"`
}
