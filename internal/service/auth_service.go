package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/modelhub-io/modelhub-api/internal/models"
	appErrors "github.com/modelhub-io/modelhub-api/pkg/errors"
)

type authUserRepository interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type sessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	GetByToken(ctx context.Context, class models.TokenClass, token string) (*models.Session, error)
	Update(ctx context.Context, session *models.Session) error
	DeleteByToken(ctx context.Context, class models.TokenClass, token string) (*models.Session, error)
}

// AuthService orchestrates login, token rotation and logout. Session
// rows are owned exclusively by this service.
type AuthService struct {
	users     authUserRepository
	sessions  sessionStore
	tokens    *TokenService
	hasher    PasswordHasher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users authUserRepository, sessions sessionStore, tokens *TokenService, hasher PasswordHasher, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	return &AuthService{users: users, sessions: sessions, tokens: tokens, hasher: hasher, validator: validate, logger: logger}
}

// Login authenticates by username or email plus password and creates a
// brand new session. The rejection message is deliberately generic so
// the endpoint cannot be used to enumerate accounts.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.TokenPairResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.lookupUser(ctx, req.Identity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthenticated, "wrong username or password")
		}
		return nil, appErrors.Internal(err, "failed to fetch user")
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		return nil, appErrors.Clone(appErrors.ErrUnauthenticated, "wrong username or password")
	}

	pair, err := s.issuePair(user.ID)
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		UserID:       user.ID,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, appErrors.Internal(err, "failed to create session")
	}

	s.logger.Info("session created", zap.Int64("user_id", user.ID), zap.Int64("session_id", session.ID))
	return pair, nil
}

// Refresh exchanges a refresh token for a new pair, rewriting the
// session row so the old refresh token stops matching any stored row.
// An expired refresh token tears the session down (best effort) and
// forces a fresh credential login.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPairResponse, error) {
	if _, err := s.tokens.Validate(models.RefreshToken, refreshToken); err != nil {
		if errors.Is(err, ErrTokenExpired) {
			if _, delErr := s.sessions.DeleteByToken(ctx, models.RefreshToken, refreshToken); delErr != nil && !errors.Is(delErr, sql.ErrNoRows) {
				s.logger.Warn("failed to delete session for expired refresh token", zap.Error(delErr))
			}
			return nil, appErrors.Clone(appErrors.ErrUnauthenticated, "refresh token expired, please log in again")
		}
		return nil, appErrors.Clone(appErrors.ErrUnauthenticated, "invalid refresh token")
	}

	session, err := s.sessions.GetByToken(ctx, models.RefreshToken, refreshToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthenticated, "no session found with given refresh token")
		}
		return nil, appErrors.Internal(err, "failed to fetch session")
	}

	pair, err := s.issuePair(session.UserID)
	if err != nil {
		return nil, err
	}

	session.AccessToken = pair.AccessToken
	session.RefreshToken = pair.RefreshToken
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, appErrors.Internal(err, "failed to rotate session tokens")
	}

	s.logger.Info("session rotated", zap.Int64("session_id", session.ID))
	return pair, nil
}

// Logout deletes the caller's session, found by their access token.
// A missing session is surfaced as an error; logout is not idempotent.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	session, err := s.sessions.DeleteByToken(ctx, models.AccessToken, accessToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "no session found with given access token")
		}
		return appErrors.Internal(err, "failed to delete session")
	}

	s.logger.Info("session revoked", zap.Int64("session_id", session.ID))
	return nil
}

// SessionByAccessToken resolves the caller's session row. Mutating
// endpoints use this to tie lock activity to a session.
func (s *AuthService) SessionByAccessToken(ctx context.Context, accessToken string) (*models.Session, error) {
	session, err := s.sessions.GetByToken(ctx, models.AccessToken, accessToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthenticated, "no session found with given access token")
		}
		return nil, appErrors.Internal(err, "failed to fetch session")
	}
	return session, nil
}

func (s *AuthService) lookupUser(ctx context.Context, identity string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, identity)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return s.users.GetByEmail(ctx, identity)
}

func (s *AuthService) issuePair(userID int64) (*models.TokenPairResponse, error) {
	accessToken, err := s.tokens.Issue(models.AccessToken, userID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to issue access token")
	}
	refreshToken, err := s.tokens.Issue(models.RefreshToken, userID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to issue refresh token")
	}
	return &models.TokenPairResponse{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
