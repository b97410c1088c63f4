package middleware

import (
	"context"
	"net/http"

	"mjmgmt/internal/common"
	"mjmgmt/internal/common/security"
	"mjmgmt/internal/domain/model"
	"mjmgmt/internal/domain/repository"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const UserCtxKey contextKey = "user"

// TokenFromCookie extracts the session token from the request cookie. The
// frontend never reads the token directly, so the cookie is the only
// transport the gate accepts; Authorization headers are ignored.
func TokenFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(security.TokenCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Verifier parses and verifies the cookie token, leaving the outcome in
// the request context for Authenticator to act on.
func Verifier(tokens *security.TokenService) func(http.Handler) http.Handler {
	return jwtauth.Verify(tokens.Auth(), TokenFromCookie)
}

// Authenticator resolves the acting identity from verified claims and the
// credential store, rejecting the request otherwise. Must run after
// Verifier.
func Authenticator(users repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				if TokenFromCookie(r) == "" {
					common.RespondWithError(w, http.StatusUnauthorized, "No token provided")
				} else {
					common.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
				}
				return
			}

			userID, err := security.GetUserIDFromClaims(claims)
			if err != nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
				return
			}

			user, err := users.FindByID(r.Context(), userID)
			if err != nil {
				// Token is valid but the subject no longer exists.
				common.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), UserCtxKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CheckBlacklist rejects tokens that were explicitly revoked on logout,
// independently of their cryptographic validity. The message is distinct
// from the other 401s so clients can tell a deliberate logout apart.
func CheckBlacklist(revocations repository.RevocationLedger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromCookie(r)
			if token == "" {
				common.RespondWithError(w, http.StatusUnauthorized, "No token provided")
				return
			}

			revoked, err := revocations.IsRevoked(r.Context(), token)
			if err != nil {
				common.RespondWithError(w, http.StatusInternalServerError, "Internal server error.")
				return
			}
			if revoked {
				common.RespondWithError(w, http.StatusUnauthorized, "Token is blacklisted")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// OptionalAuthenticator attaches the acting identity when a valid,
// non-revoked cookie is present, and continues anonymously otherwise.
// Used by the public listing read, where ownership only widens access.
func OptionalAuthenticator(users repository.UserRepository, revocations repository.RevocationLedger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				next.ServeHTTP(w, r)
				return
			}
			if revoked, err := revocations.IsRevoked(r.Context(), TokenFromCookie(r)); err != nil || revoked {
				next.ServeHTTP(w, r)
				return
			}
			userID, err := security.GetUserIDFromClaims(claims)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			user, err := users.FindByID(r.Context(), userID)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), UserCtxKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext returns the acting identity attached by Authenticator.
func GetUserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(UserCtxKey).(*model.User)
	return user, ok
}
