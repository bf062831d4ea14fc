package models

import "github.com/golang-jwt/jwt/v5"

// TokenClass distinguishes the two token families. Each class is signed
// and verified with its own secret and lifetime.
type TokenClass int

const (
	AccessToken TokenClass = iota
	RefreshToken
)

// String names the class for logs and errors.
func (c TokenClass) String() string {
	switch c {
	case AccessToken:
		return "access"
	case RefreshToken:
		return "refresh"
	default:
		return "unknown"
	}
}

// TokenClaims is the signed claim set. Subject carries the user id in
// decimal form.
type TokenClaims struct {
	jwt.RegisteredClaims
}
