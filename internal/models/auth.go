package models

// LoginRequest holds credentials for authenticating a user. The
// identity field accepts a username or an email address. When the body
// is empty the caller is expected to present a refresh token as bearer
// metadata instead.
type LoginRequest struct {
	Identity string `json:"identity" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenPairResponse returns a freshly issued access/refresh pair.
type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
