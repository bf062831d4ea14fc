package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/modelhub-io/modelhub-api/internal/models"
	appErrors "github.com/modelhub-io/modelhub-api/pkg/errors"
)

type queryStore interface {
	Create(ctx context.Context, query *models.Query) error
	GetByID(ctx context.Context, id int64) (*models.Query, error)
	UpdateString(ctx context.Context, id int64, queryString string) error
	SetResult(ctx context.Context, id int64, result json.RawMessage) error
	Delete(ctx context.Context, id int64) error
}

// QueryService manages verification queries. Every mutation requires
// the Editor role on the owning project; running a query requires any
// access.
type QueryService struct {
	queries   queryStore
	projects  accessProjectStore
	access    *AccessService
	engine    *EngineService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewQueryService constructs a QueryService instance.
func NewQueryService(queries queryStore, projects accessProjectStore, access *AccessService, engine *EngineService, validate *validator.Validate, logger *zap.Logger) *QueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &QueryService{queries: queries, projects: projects, access: access, engine: engine, validator: validate, logger: logger}
}

// Create attaches a query to a project.
func (s *QueryService) Create(ctx context.Context, userID int64, req models.CreateQueryRequest) (*models.Query, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query payload")
	}

	if _, err := s.access.RequireRole(ctx, userID, req.ProjectID, models.RoleEditor); err != nil {
		return nil, err
	}

	query := &models.Query{ProjectID: req.ProjectID, String: req.String}
	if err := s.queries.Create(ctx, query); err != nil {
		return nil, appErrors.Internal(err, "failed to create query")
	}
	return query, nil
}

// Update replaces the query string, keeping the previous verdict and
// its outdated flag.
func (s *QueryService) Update(ctx context.Context, userID, queryID int64, req models.UpdateQueryRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query payload")
	}

	query, err := s.loadForEditor(ctx, userID, queryID)
	if err != nil {
		return err
	}

	if err := s.queries.UpdateString(ctx, query.ID, req.String); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "no query found with given id")
		}
		return appErrors.Internal(err, "failed to update query")
	}
	return nil
}

// Delete removes a query.
func (s *QueryService) Delete(ctx context.Context, userID, queryID int64) error {
	query, err := s.loadForEditor(ctx, userID, queryID)
	if err != nil {
		return err
	}

	if err := s.queries.Delete(ctx, query.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "no query found with given id")
		}
		return appErrors.Internal(err, "failed to delete query")
	}
	return nil
}

// Send runs the query on the model-checking engine and stores the
// verdict, clearing the outdated flag.
func (s *QueryService) Send(ctx context.Context, userID, queryID int64) (*models.SendQueryResponse, error) {
	query, err := s.queries.GetByID(ctx, queryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no query found with given id")
		}
		return nil, appErrors.Internal(err, "failed to fetch query")
	}

	if _, err := s.access.RequireRole(ctx, userID, query.ProjectID, models.RoleViewer); err != nil {
		return nil, err
	}

	project, err := s.projects.GetByID(ctx, query.ProjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no project found for query")
		}
		return nil, appErrors.Internal(err, "failed to fetch project")
	}

	result, err := s.engine.CheckQuery(ctx, query.String, project.ComponentsInfo)
	if err != nil {
		return nil, err
	}

	if err := s.queries.SetResult(ctx, query.ID, result); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no query found with given id")
		}
		return nil, appErrors.Internal(err, "failed to store query result")
	}

	s.logger.Info("query executed",
		zap.Int64("query_id", query.ID),
		zap.Int64("project_id", query.ProjectID))
	return &models.SendQueryResponse{QueryID: query.ID, Result: result}, nil
}

func (s *QueryService) loadForEditor(ctx context.Context, userID, queryID int64) (*models.Query, error) {
	query, err := s.queries.GetByID(ctx, queryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no query found with given id")
		}
		return nil, appErrors.Internal(err, "failed to fetch query")
	}

	if _, err := s.access.RequireRole(ctx, userID, query.ProjectID, models.RoleEditor); err != nil {
		return nil, err
	}
	return query, nil
}
