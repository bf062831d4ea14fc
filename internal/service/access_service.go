package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/modelhub-io/modelhub-api/internal/models"
	"github.com/modelhub-io/modelhub-api/internal/repository"
	appErrors "github.com/modelhub-io/modelhub-api/pkg/errors"
)

type accessStore interface {
	Create(ctx context.Context, access *models.Access) error
	GetByID(ctx context.Context, id int64) (*models.Access, error)
	GetByUserAndProject(ctx context.Context, userID, projectID int64) (*models.Access, error)
	ListByProject(ctx context.Context, projectID int64) ([]models.AccessInfo, error)
	UpdateRole(ctx context.Context, id int64, role models.Role) error
	Delete(ctx context.Context, id int64) error
}

type accessUserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type accessProjectStore interface {
	GetByID(ctx context.Context, id int64) (*models.Project, error)
}

// AccessService evaluates per-project roles before any mutating
// operation and manages the access rows themselves.
type AccessService struct {
	accesses  accessStore
	users     accessUserStore
	projects  accessProjectStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAccessService constructs an AccessService instance.
func NewAccessService(accesses accessStore, users accessUserStore, projects accessProjectStore, validate *validator.Validate, logger *zap.Logger) *AccessService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &AccessService{accesses: accesses, users: users, projects: projects, validator: validate, logger: logger}
}

// RequireRole fetches the caller's access row on the project and checks
// it against the threshold. No row, or a role below the threshold,
// yields PermissionDenied.
func (s *AccessService) RequireRole(ctx context.Context, userID, projectID int64, min models.Role) (*models.Access, error) {
	access, err := s.accesses.GetByUserAndProject(ctx, userID, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrPermissionDenied, "user does not have access to project")
		}
		return nil, appErrors.Internal(err, "failed to fetch access")
	}
	if !access.Role.Meets(min) {
		return nil, appErrors.Clone(appErrors.ErrPermissionDenied, "role does not permit this operation")
	}
	return access, nil
}

// ListForProject returns all grants on a project. The caller needs any
// access row on the project to see the collaborator list.
func (s *AccessService) ListForProject(ctx context.Context, callerID, projectID int64) ([]models.AccessInfo, error) {
	if _, err := s.RequireRole(ctx, callerID, projectID, models.RoleViewer); err != nil {
		return nil, err
	}
	infos, err := s.accesses.ListByProject(ctx, projectID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list access")
	}
	return infos, nil
}

// Create grants a role on a project to a user identified by id,
// username or email. Requires Editor on the project.
func (s *AccessService) Create(ctx context.Context, callerID int64, req models.CreateAccessRequest) (*models.Access, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid access payload")
	}
	if !req.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}

	if _, err := s.RequireRole(ctx, callerID, req.ProjectID, models.RoleEditor); err != nil {
		return nil, err
	}

	target, err := s.resolveTargetUser(ctx, req)
	if err != nil {
		return nil, err
	}

	access := &models.Access{Role: req.Role, ProjectID: req.ProjectID, UserID: target.ID}
	if err := s.accesses.Create(ctx, access); err != nil {
		if repository.UniqueViolation(err, "project_id") || repository.UniqueViolation(err, "user_id") {
			return nil, appErrors.Clone(appErrors.ErrAlreadyExists, "user already has access to project")
		}
		return nil, appErrors.Internal(err, "failed to create access")
	}
	return access, nil
}

// Update changes the role on an existing grant. Requires Editor on the
// owning project; the owner's own grant is immutable.
func (s *AccessService) Update(ctx context.Context, callerID, accessID int64, role models.Role) error {
	if !role.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}

	access, project, err := s.loadGrantForManagement(ctx, callerID, accessID)
	if err != nil {
		return err
	}
	if access.UserID == project.OwnerID {
		return appErrors.Clone(appErrors.ErrPermissionDenied, "the project owner's access cannot be changed")
	}

	if err := s.accesses.UpdateRole(ctx, accessID, role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "no access found with given id")
		}
		return appErrors.Internal(err, "failed to update access")
	}
	return nil
}

// Delete removes a grant. Requires Editor on the owning project; the
// owner's own grant cannot be removed.
func (s *AccessService) Delete(ctx context.Context, callerID, accessID int64) error {
	access, project, err := s.loadGrantForManagement(ctx, callerID, accessID)
	if err != nil {
		return err
	}
	if access.UserID == project.OwnerID {
		return appErrors.Clone(appErrors.ErrPermissionDenied, "the project owner's access cannot be removed")
	}

	if err := s.accesses.Delete(ctx, accessID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "no access found with given id")
		}
		return appErrors.Internal(err, "failed to delete access")
	}
	return nil
}

func (s *AccessService) loadGrantForManagement(ctx context.Context, callerID, accessID int64) (*models.Access, *models.Project, error) {
	access, err := s.accesses.GetByID(ctx, accessID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "no access found with given id")
		}
		return nil, nil, appErrors.Internal(err, "failed to fetch access")
	}

	if _, err := s.RequireRole(ctx, callerID, access.ProjectID, models.RoleEditor); err != nil {
		return nil, nil, err
	}

	project, err := s.projects.GetByID(ctx, access.ProjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "no project found for access")
		}
		return nil, nil, appErrors.Internal(err, "failed to fetch project")
	}
	return access, project, nil
}

func (s *AccessService) resolveTargetUser(ctx context.Context, req models.CreateAccessRequest) (*models.User, error) {
	var (
		user *models.User
		err  error
	)
	switch {
	case req.UserID != nil:
		user, err = s.users.GetByID(ctx, *req.UserID)
	case req.Username != nil:
		user, err = s.users.GetByUsername(ctx, *req.Username)
	case req.Email != nil:
		user, err = s.users.GetByEmail(ctx, *req.Email)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "no user identification provided")
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no user found with given identification")
		}
		return nil, appErrors.Internal(err, "failed to fetch user")
	}
	return user, nil
}
