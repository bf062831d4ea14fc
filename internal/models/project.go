package models

import (
	"encoding/json"
	"time"
)

// Project is a shared timed-automata model. ComponentsInfo is the
// editor's component description, stored as an opaque JSON document.
type Project struct {
	ID             int64           `db:"id" json:"id"`
	Name           string          `db:"name" json:"name"`
	ComponentsInfo json.RawMessage `db:"components_info" json:"components_info"`
	OwnerID        int64           `db:"owner_id" json:"owner_id"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// ProjectInfo summarises a project visible to a user together with
// their role on it.
type ProjectInfo struct {
	ProjectID int64  `db:"project_id" json:"project_id"`
	Name      string `db:"name" json:"name"`
	OwnerID   int64  `db:"owner_id" json:"owner_id"`
	Role      Role   `db:"role" json:"role"`
}

// CreateProjectRequest is the payload for creating a project.
type CreateProjectRequest struct {
	Name           string          `json:"name" validate:"required,min=1,max=128"`
	ComponentsInfo json.RawMessage `json:"components_info" validate:"required"`
}

// UpdateProjectRequest carries the optional fields of a project update.
// OwnerID may only be set by the current owner.
type UpdateProjectRequest struct {
	Name           *string         `json:"name,omitempty" validate:"omitempty,min=1,max=128"`
	ComponentsInfo json.RawMessage `json:"components_info,omitempty"`
	OwnerID        *int64          `json:"owner_id,omitempty"`
}

// GetProjectResponse bundles a project with its queries and the current
// state of the exclusive edit lock.
type GetProjectResponse struct {
	Project Project `json:"project"`
	Queries []Query `json:"queries"`
	InUse   bool    `json:"in_use"`
}
