package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"mjmgmt/internal/common"
	"mjmgmt/internal/common/security"
	"mjmgmt/internal/domain/model"
	"mjmgmt/internal/domain/repository"

	"github.com/google/uuid"
)

type AuthService struct {
	userRepo    repository.UserRepository
	revocations repository.RevocationLedger
	tokens      *security.TokenService
}

func NewAuthService(
	userRepo repository.UserRepository,
	revocations repository.RevocationLedger,
	tokens *security.TokenService,
) *AuthService {
	return &AuthService{userRepo: userRepo, revocations: revocations, tokens: tokens}
}

type RegisterRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Pass  string `json:"pass"`
}

type LoginRequest struct {
	Email string `json:"email"`
	Pass  string `json:"pass"`
}

// LoginResponse deliberately omits the password hash; the token travels in
// the cookie, never the body.
type LoginResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	if req.Name == "" || req.Email == "" || req.Pass == "" {
		return nil, fmt.Errorf("name, email and password are required: %w", common.ErrValidation)
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, fmt.Errorf("invalid email: %w", common.ErrValidation)
	}
	if !security.IsValidPassword(req.Pass) {
		return nil, fmt.Errorf("invalid password, must contain at least 8 characters, one uppercase and lowercase letter, one number and special character: %w", common.ErrValidation)
	}

	hashedPassword, err := security.HashPassword(req.Pass)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// Emails compare case-insensitively; the stored form is canonical.
	user := &model.User{
		ID:             uuid.NewString(),
		Name:           req.Name,
		Email:          strings.ToLower(req.Email),
		HashedPassword: hashedPassword,
		ListingIDs:     []string{},
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, fmt.Errorf("user with this email already exists: %w", common.ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and issues a session token. Unknown email and
// wrong password share one message on purpose; the response must not reveal
// which was wrong.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*model.User, string, time.Time, error) {
	if req.Email == "" || req.Pass == "" {
		return nil, "", time.Time{}, fmt.Errorf("email and password are required for login: %w", common.ErrValidation)
	}

	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(req.Email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, "", time.Time{}, fmt.Errorf("invalid email or password: %w", common.ErrBadRequest)
		}
		return nil, "", time.Time{}, fmt.Errorf("failed to find user: %w", err)
	}

	if !security.CheckPasswordHash(req.Pass, user.HashedPassword) {
		return nil, "", time.Time{}, fmt.Errorf("invalid email or password: %w", common.ErrBadRequest)
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", time.Time{}, fmt.Errorf("failed to generate token: %w", err)
	}
	return user, token, expiresAt, nil
}

// Logout places the token on the revocation ledger with its original
// expiry, so it stays rejected for exactly as long as it would otherwise
// have remained valid.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("no token provided: %w", common.ErrBadRequest)
	}
	expiresAt, err := s.tokens.ExpiryOf(token)
	if err != nil {
		return fmt.Errorf("invalid token: %w", common.ErrBadRequest)
	}
	if err := s.revocations.Revoke(ctx, token, expiresAt); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}
