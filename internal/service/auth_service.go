package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/kfhr/cashdesk-backend/internal/models"
	"github.com/kfhr/cashdesk-backend/internal/pkg/apperror"
	"github.com/kfhr/cashdesk-backend/internal/repository"
)

// AuthRepository is the user store the login flow needs.
type AuthRepository interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, username, passwordHash, role string) (*models.User, error)
}

// AuthService authenticates approver UI users.
type AuthService struct {
	repo   AuthRepository
	tokens *TokenManager
}

func NewAuthService(repo AuthRepository, tokens *TokenManager) *AuthService {
	return &AuthService{repo: repo, tokens: tokens}
}

// LoginResult is the successful login payload.
type LoginResult struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *models.User `json:"user"`
}

// Login verifies credentials and issues an access token. Unknown users and
// wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, apperror.Wrap(err, apperror.ErrCodePersistence, "cannot load user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Generate(user)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "cannot issue token")
	}

	return &LoginResult{AccessToken: token, ExpiresAt: expiresAt, User: user}, nil
}

// Register creates an approver account. Exposed only to admins.
func (s *AuthService) Register(ctx context.Context, username, password, role string) (*models.User, error) {
	if len(password) < 8 {
		return nil, apperror.New(apperror.ErrCodeValidation, "password: must be at least 8 characters")
	}
	if role != models.RoleApprover && role != models.RoleAdmin {
		role = models.RoleApprover
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "cannot hash password")
	}

	user, err := s.repo.Create(ctx, username, string(hash), role)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodePersistence, "cannot create user")
	}
	return user, nil
}
