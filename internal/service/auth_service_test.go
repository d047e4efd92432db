package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"github.com/kfhr/cashdesk-backend/internal/models"
	"github.com/kfhr/cashdesk-backend/internal/pkg/apperror"
	"github.com/kfhr/cashdesk-backend/internal/repository"
)

// mockAuthRepository implements AuthRepository for tests.
type mockAuthRepository struct {
	users map[string]*models.User
}

func newMockAuthRepository() *mockAuthRepository {
	return &mockAuthRepository{users: make(map[string]*models.User)}
}

func (m *mockAuthRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if user, ok := m.users[username]; ok {
		return user, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockAuthRepository) Create(ctx context.Context, username, passwordHash, role string) (*models.User, error) {
	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
	}
	m.users[username] = user
	return user, nil
}

func TestAuthService_LoginSuccess(t *testing.T) {
	repo := newMockAuthRepository()
	tokens := NewTokenManager("test-secret", time.Hour)
	svc := NewAuthService(repo, tokens)

	hash, _ := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.DefaultCost)
	repo.users["approver"] = &models.User{
		ID:           uuid.New(),
		Username:     "approver",
		PasswordHash: string(hash),
		Role:         models.RoleApprover,
	}

	result, err := svc.Login(context.Background(), "approver", "correct horse")

	assert.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.True(t, result.ExpiresAt.After(time.Now()))

	userID, role, err := tokens.ParseAccess(result.AccessToken)
	assert.NoError(t, err)
	assert.Equal(t, repo.users["approver"].ID, userID)
	assert.Equal(t, models.RoleApprover, role)
}

func TestAuthService_LoginFailuresAreIndistinguishable(t *testing.T) {
	repo := newMockAuthRepository()
	tokens := NewTokenManager("test-secret", time.Hour)
	svc := NewAuthService(repo, tokens)

	hash, _ := bcrypt.GenerateFromPassword([]byte("right"), bcrypt.DefaultCost)
	repo.users["approver"] = &models.User{ID: uuid.New(), Username: "approver", PasswordHash: string(hash)}

	_, wrongPassword := svc.Login(context.Background(), "approver", "wrong")
	_, unknownUser := svc.Login(context.Background(), "nobody", "whatever")

	assert.Equal(t, apperror.ErrInvalidCredentials, wrongPassword)
	assert.Equal(t, apperror.ErrInvalidCredentials, unknownUser)
}

func TestAuthService_RegisterHashesAndDefaultsRole(t *testing.T) {
	repo := newMockAuthRepository()
	tokens := NewTokenManager("test-secret", time.Hour)
	svc := NewAuthService(repo, tokens)

	user, err := svc.Register(context.Background(), "newuser", "long enough password", "janitor")

	assert.NoError(t, err)
	assert.Equal(t, models.RoleApprover, user.Role)
	assert.NotEqual(t, "long enough password", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("long enough password")))
}

func TestAuthService_RegisterRejectsShortPassword(t *testing.T) {
	repo := newMockAuthRepository()
	tokens := NewTokenManager("test-secret", time.Hour)
	svc := NewAuthService(repo, tokens)

	_, err := svc.Register(context.Background(), "newuser", "short", models.RoleApprover)

	assert.True(t, apperror.IsValidation(err))
	assert.Empty(t, repo.users)
}
