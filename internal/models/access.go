package models

// Role is the closed set of per-project roles. Roles are strictly
// ordered; an unknown role string never satisfies any threshold.
type Role string

const (
	RoleViewer    Role = "Viewer"
	RoleCommenter Role = "Commenter"
	RoleEditor    Role = "Editor"
)

var roleRank = map[Role]int{
	RoleViewer:    1,
	RoleCommenter: 2,
	RoleEditor:    3,
}

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Meets reports whether the role meets or exceeds the given threshold.
func (r Role) Meets(min Role) bool {
	rank, ok := roleRank[r]
	if !ok {
		return false
	}
	minRank, ok := roleRank[min]
	if !ok {
		return false
	}
	return rank >= minRank
}

// Access grants a user a role on a project. One row per (user, project)
// pair. The project owner is a separate privileged identity recorded on
// the project itself, not reducible to an access row.
type Access struct {
	ID        int64 `db:"id" json:"id"`
	Role      Role  `db:"role" json:"role"`
	ProjectID int64 `db:"project_id" json:"project_id"`
	UserID    int64 `db:"user_id" json:"user_id"`
}

// AccessInfo is the projection returned when listing a project's collaborators.
type AccessInfo struct {
	ID        int64  `db:"id" json:"id"`
	Role      Role   `db:"role" json:"role"`
	ProjectID int64  `db:"project_id" json:"project_id"`
	UserID    int64  `db:"user_id" json:"user_id"`
	Username  string `db:"username" json:"username"`
}

// CreateAccessRequest grants a role to a user identified by exactly one
// of id, username or email.
type CreateAccessRequest struct {
	ProjectID int64   `json:"project_id" validate:"required"`
	Role      Role    `json:"role" validate:"required"`
	UserID    *int64  `json:"user_id,omitempty"`
	Username  *string `json:"username,omitempty"`
	Email     *string `json:"email,omitempty"`
}

// UpdateAccessRequest changes the role on an existing access row.
type UpdateAccessRequest struct {
	Role Role `json:"role" validate:"required"`
}
