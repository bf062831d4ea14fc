package models

import "encoding/json"

// Query is a verification query attached to a project. Result holds the
// engine's last verdict; Outdated flags results that predate the latest
// model change.
type Query struct {
	ID        int64           `db:"id" json:"id"`
	ProjectID int64           `db:"project_id" json:"project_id"`
	String    string          `db:"string" json:"query"`
	Result    json.RawMessage `db:"result" json:"result,omitempty"`
	Outdated  bool            `db:"outdated" json:"outdated"`
}

// CreateQueryRequest is the payload for attaching a query to a project.
type CreateQueryRequest struct {
	ProjectID int64  `json:"project_id" validate:"required"`
	String    string `json:"query" validate:"required"`
}

// UpdateQueryRequest replaces the query string. The stored result keeps
// its previous value and outdated flag.
type UpdateQueryRequest struct {
	String string `json:"query" validate:"required"`
}

// SendQueryResponse returns the engine verdict for an executed query.
type SendQueryResponse struct {
	QueryID int64           `json:"query_id"`
	Result  json.RawMessage `json:"result"`
}
