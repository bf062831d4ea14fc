package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/modelhub-io/modelhub-api/internal/models"
	"github.com/modelhub-io/modelhub-api/internal/repository"
	appErrors "github.com/modelhub-io/modelhub-api/pkg/errors"
)

type projectStore interface {
	Create(ctx context.Context, project *models.Project, sessionID int64) error
	GetByID(ctx context.Context, id int64) (*models.Project, error)
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id int64) error
	ListInfoByUserID(ctx context.Context, userID int64) ([]models.ProjectInfo, error)
}

type projectQueryStore interface {
	ListByProject(ctx context.Context, projectID int64) ([]models.Query, error)
	MarkOutdatedByProject(ctx context.Context, projectID int64) error
}

// ProjectService is the write gateway for projects: every mutation
// passes the role check and the exclusive edit lock before touching
// the store.
type ProjectService struct {
	projects  projectStore
	queries   projectQueryStore
	access    *AccessService
	locks     *LockService
	auth      *AuthService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProjectService constructs a ProjectService instance.
func NewProjectService(projects projectStore, queries projectQueryStore, access *AccessService, locks *LockService, auth *AuthService, validate *validator.Validate, logger *zap.Logger) *ProjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &ProjectService{projects: projects, queries: queries, access: access, locks: locks, auth: auth, validator: validate, logger: logger}
}

// Get returns a project with its queries and the state of the edit
// lock. An Editor reading a free project claims the lock for their
// session; other roles observe without touching it.
func (s *ProjectService) Get(ctx context.Context, userID int64, accessToken string, projectID int64) (*models.GetProjectResponse, error) {
	access, err := s.access.RequireRole(ctx, userID, projectID, models.RoleViewer)
	if err != nil {
		return nil, err
	}

	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInternal, "no project found for access")
		}
		return nil, appErrors.Internal(err, "failed to fetch project")
	}

	editor := access.Role.Meets(models.RoleEditor)
	var sessionID int64
	if editor {
		session, err := s.auth.SessionByAccessToken(ctx, accessToken)
		if err != nil {
			return nil, err
		}
		sessionID = session.ID
	}

	inUse, err := s.locks.Status(ctx, projectID, sessionID, editor)
	if err != nil {
		return nil, err
	}

	queries, err := s.queries.ListByProject(ctx, projectID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list queries")
	}

	return &models.GetProjectResponse{Project: *project, Queries: queries, InUse: inUse}, nil
}

// Create inserts a project; the creator becomes owner with an Editor
// grant and their session seeds the edit lock.
func (s *ProjectService) Create(ctx context.Context, userID int64, accessToken string, req models.CreateProjectRequest) (*models.Project, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid project payload")
	}

	session, err := s.auth.SessionByAccessToken(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	project := &models.Project{
		Name:           req.Name,
		ComponentsInfo: req.ComponentsInfo,
		OwnerID:        userID,
	}
	if err := s.projects.Create(ctx, project, session.ID); err != nil {
		if repository.UniqueViolation(err, "name") {
			return nil, appErrors.Clone(appErrors.ErrAlreadyExists, "a project with that name already exists")
		}
		if repository.ForeignKeyViolation(err, "owner_id") {
			return nil, appErrors.Clone(appErrors.ErrValidation, "no user with that id exists")
		}
		return nil, appErrors.Internal(err, "failed to create project")
	}

	s.logger.Info("project created", zap.Int64("project_id", project.ID), zap.Int64("owner_id", userID))
	return project, nil
}

// Update mutates a project. Requires Editor role and possession of the
// edit lock; ownership transfer is reserved for the current owner.
// A components change marks every stored query result as outdated.
func (s *ProjectService) Update(ctx context.Context, userID int64, accessToken string, projectID int64, req models.UpdateProjectRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid project payload")
	}

	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "no project found with given id")
		}
		return appErrors.Internal(err, "failed to fetch project")
	}

	if _, err := s.access.RequireRole(ctx, userID, projectID, models.RoleEditor); err != nil {
		return err
	}

	session, err := s.auth.SessionByAccessToken(ctx, accessToken)
	if err != nil {
		return err
	}

	if err := s.locks.AcquireOrRenew(ctx, projectID, session.ID); err != nil {
		return err
	}

	componentsChanged := false
	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.ComponentsInfo != nil {
		componentsChanged = !bytes.Equal(project.ComponentsInfo, req.ComponentsInfo)
		project.ComponentsInfo = req.ComponentsInfo
	}
	if req.OwnerID != nil {
		if project.OwnerID != userID {
			return appErrors.Clone(appErrors.ErrPermissionDenied, "only the owner may transfer ownership")
		}
		project.OwnerID = *req.OwnerID
	}

	if err := s.projects.Update(ctx, project); err != nil {
		if repository.UniqueViolation(err, "name") {
			return appErrors.Clone(appErrors.ErrAlreadyExists, "a project with that name already exists")
		}
		return appErrors.Internal(err, "failed to update project")
	}

	if componentsChanged {
		if err := s.queries.MarkOutdatedByProject(ctx, projectID); err != nil {
			s.logger.Warn("failed to mark queries outdated", zap.Int64("project_id", projectID), zap.Error(err))
		}
	}
	return nil
}

// Delete removes a project. Only the owner may delete; queries,
// accesses and the lock row go with it.
func (s *ProjectService) Delete(ctx context.Context, userID, projectID int64) error {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "no project found with given id")
		}
		return appErrors.Internal(err, "failed to fetch project")
	}

	if project.OwnerID != userID {
		return appErrors.Clone(appErrors.ErrPermissionDenied, "only the owner may delete this project")
	}

	if err := s.projects.Delete(ctx, projectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "no project found with given id")
		}
		return appErrors.Internal(err, "failed to delete project")
	}

	s.logger.Info("project deleted", zap.Int64("project_id", projectID), zap.Int64("owner_id", userID))
	return nil
}

// ListInfo returns the projects visible to the user with their role on
// each. An empty list is a valid answer.
func (s *ProjectService) ListInfo(ctx context.Context, userID int64) ([]models.ProjectInfo, error) {
	infos, err := s.projects.ListInfoByUserID(ctx, userID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list projects")
	}
	return infos, nil
}
