package security

import (
	"errors"
	"time"

	"mjmgmt/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

// TokenCookieName is the HTTP-only cookie carrying the session token.
const TokenCookieName = "token"

// TokenService issues and inspects session tokens. It is constructed once
// in main and injected wherever tokens are handled; verification itself is
// stateless and never touches a store.
type TokenService struct {
	auth *jwtauth.JWTAuth
	exp  time.Duration
}

func NewTokenService(secret []byte, exp time.Duration) *TokenService {
	return &TokenService{
		auth: jwtauth.New("HS256", secret, nil),
		exp:  exp,
	}
}

// Auth exposes the underlying verifier for the jwtauth middleware.
func (t *TokenService) Auth() *jwtauth.JWTAuth {
	return t.auth
}

// Issue signs a session token carrying the user's identity claims, expiring
// a fixed interval from now. The expiry is not renewable without a new login.
func (t *TokenService) Issue(user *model.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(t.exp)
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"name":    user.Name,
		"iat":     now.Unix(),
		"exp":     expiresAt.Unix(),
	}
	_, tokenString, err := t.auth.Encode(claims)
	return tokenString, expiresAt, err
}

// ExpiryOf reads the exp claim without verifying the signature. Logout
// needs the original expiry to bound the revocation record.
func (t *TokenService) ExpiryOf(tokenString string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, errors.New("exp claim is missing")
	}
	return exp.Time, nil
}

// Helpers to extract identity claims, used by the auth middleware.
func GetUserIDFromClaims(claims map[string]interface{}) (string, error) {
	id, ok := claims["user_id"].(string)
	if !ok {
		return "", errors.New("user_id claim is missing or not a string")
	}
	return id, nil
}
