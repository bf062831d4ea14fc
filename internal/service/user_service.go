package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/modelhub-io/modelhub-api/internal/models"
	"github.com/modelhub-io/modelhub-api/internal/repository"
	appErrors "github.com/modelhub-io/modelhub-api/pkg/errors"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

// NewValidator returns a validator with the project's custom rules
// registered. Shared by every service.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	return v
}

type userStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByIDs(ctx context.Context, ids []int64) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id int64) error
}

// UserService manages user accounts.
type UserService struct {
	users     userStore
	hasher    PasswordHasher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs a UserService instance.
func NewUserService(users userStore, hasher PasswordHasher, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	return &UserService{users: users, hasher: hasher, validator: validate, logger: logger}
}

// Register creates a new user account.
func (s *UserService) Register(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	user := &models.User{Username: req.Username, Email: req.Email, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if repository.UniqueViolation(err, "username") {
			return nil, appErrors.Clone(appErrors.ErrAlreadyExists, "a user with that username already exists")
		}
		if repository.UniqueViolation(err, "email") {
			return nil, appErrors.Clone(appErrors.ErrAlreadyExists, "a user with that email already exists")
		}
		return nil, appErrors.Internal(err, "failed to create user")
	}

	s.logger.Info("user registered", zap.Int64("user_id", user.ID))
	return user, nil
}

// UpdateSelf applies the provided fields to the caller's own account.
func (s *UserService) UpdateSelf(ctx context.Context, userID int64, req models.UpdateUserRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "no user found with given id")
		}
		return appErrors.Internal(err, "failed to fetch user")
	}

	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Password != nil {
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return appErrors.Internal(err, "failed to hash password")
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		if repository.UniqueViolation(err, "username") {
			return appErrors.Clone(appErrors.ErrAlreadyExists, "a user with that username already exists")
		}
		if repository.UniqueViolation(err, "email") {
			return appErrors.Clone(appErrors.ErrAlreadyExists, "a user with that email already exists")
		}
		return appErrors.Internal(err, "failed to update user")
	}
	return nil
}

// DeleteSelf removes the caller's own account.
func (s *UserService) DeleteSelf(ctx context.Context, userID int64) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "no user found with given id")
		}
		return appErrors.Internal(err, "failed to delete user")
	}
	s.logger.Info("user deleted", zap.Int64("user_id", userID))
	return nil
}

// GetUsers returns public info for the given ids; unknown ids are
// silently skipped.
func (s *UserService) GetUsers(ctx context.Context, ids []int64) ([]models.UserInfo, error) {
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to fetch users")
	}
	infos := make([]models.UserInfo, 0, len(users))
	for _, u := range users {
		infos = append(infos, models.UserInfo{ID: u.ID, Username: u.Username})
	}
	return infos, nil
}
