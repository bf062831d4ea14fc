package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/modelhub-io/modelhub-api/internal/models"
	"github.com/modelhub-io/modelhub-api/pkg/config"
)

// Sentinel errors distinguishing why a token failed validation. Expiry
// gets its own identity because the refresh flow reacts to it by
// deleting the session.
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

type tokenClassConfig struct {
	secret []byte
	ttl    time.Duration
}

// TokenService issues and validates signed, time-limited tokens. It is
// stateless beyond the two class secrets and their lifetimes.
type TokenService struct {
	classes map[models.TokenClass]tokenClassConfig
}

// NewTokenService constructs a TokenService. Empty or shared secrets
// are a configuration error and must abort startup.
func NewTokenService(cfg config.TokenConfig) (*TokenService, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("token service: both class secrets must be set")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, fmt.Errorf("token service: access and refresh secrets must differ")
	}
	return &TokenService{
		classes: map[models.TokenClass]tokenClassConfig{
			models.AccessToken:  {secret: []byte(cfg.AccessSecret), ttl: cfg.AccessTTL},
			models.RefreshToken: {secret: []byte(cfg.RefreshSecret), ttl: cfg.RefreshTTL},
		},
	}, nil
}

// Issue signs a new token of the given class for the user.
func (s *TokenService) Issue(class models.TokenClass, userID int64) (string, error) {
	cc, ok := s.classes[class]
	if !ok {
		return "", fmt.Errorf("token service: unknown token class %d", class)
	}

	now := time.Now().UTC()
	claims := &models.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(cc.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString(cc.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", class, err)
	}
	return signed, nil
}

// Validate verifies signature and expiry against the class's secret. A
// token signed for the other class fails the signature check because
// secrets are class-specific.
func (s *TokenService) Validate(class models.TokenClass, tokenString string) (*models.TokenClaims, error) {
	cc, ok := s.classes[class]
	if !ok {
		return nil, fmt.Errorf("token service: unknown token class %d", class)
	}

	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS512 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return cc.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Subject parses the user id carried in the claim subject.
func Subject(claims *models.TokenClaims) (int64, error) {
	uid, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse token subject: %w", err)
	}
	return uid, nil
}
