package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"parsemybill/internal/config"
	"parsemybill/internal/domain"
	"parsemybill/internal/service"
	"parsemybill/mocks"
)

func jwtTestConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:             "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "parsemybill-test",
	}
}

func setupAuthService() (*mocks.MockUserRepo, *mocks.MockEmailSender, service.AuthService) {
	userRepo := new(mocks.MockUserRepo)
	sender := new(mocks.MockEmailSender)
	svc := service.NewAuthService(userRepo, sender, jwtTestConfig())
	return userRepo, sender, svc
}

func TestRegister_HashesPasswordAndSendsEmail(t *testing.T) {
	userRepo, sender, svc := setupAuthService()

	userRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)
	sender.On("SendVerificationEmail", mock.Anything, "new@example.com", "New User", mock.AnythingOfType("string")).Return(nil)

	user, err := svc.Register(context.Background(), service.RegisterInput{
		Email:    "new@example.com",
		Password: "s3cret-pass",
		FullName: "New User",
	})
	require.NoError(t, err)

	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret-pass")))
	sender.AssertExpectations(t)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	userRepo, sender, svc := setupAuthService()

	userRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(domain.ErrDuplicateEmail)

	_, err := svc.Register(context.Background(), service.RegisterInput{
		Email:    "dup@example.com",
		Password: "s3cret-pass",
		FullName: "Dup",
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
	sender.AssertNotCalled(t, "SendVerificationEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRegister_EmailFailureDoesNotFailRegistration(t *testing.T) {
	userRepo, sender, svc := setupAuthService()

	userRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)
	sender.On("SendVerificationEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("smtp down"))

	user, err := svc.Register(context.Background(), service.RegisterInput{
		Email:    "new@example.com",
		Password: "s3cret-pass",
		FullName: "New User",
	})
	require.NoError(t, err)
	assert.NotNil(t, user)
}

func TestLoginAndValidate_RoundTrip(t *testing.T) {
	userRepo, _, svc := setupAuthService()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &domain.User{ID: uuid.New(), Email: "user@example.com", PasswordHash: string(hash)}
	userRepo.On("GetByEmail", mock.Anything, "user@example.com").Return(user, nil)

	pair, err := svc.Login(context.Background(), service.LoginInput{
		Email:    "user@example.com",
		Password: "correct-pass",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	session, err := svc.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.UserID)
	assert.Equal(t, user.Email, session.Email)
}

func TestLogin_WrongPassword(t *testing.T) {
	userRepo, _, svc := setupAuthService()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &domain.User{ID: uuid.New(), Email: "user@example.com", PasswordHash: string(hash)}
	userRepo.On("GetByEmail", mock.Anything, "user@example.com").Return(user, nil)

	_, err = svc.Login(context.Background(), service.LoginInput{
		Email:    "user@example.com",
		Password: "wrong-pass",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	userRepo, _, svc := setupAuthService()

	userRepo.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, domain.ErrNotFound)

	_, err := svc.Login(context.Background(), service.LoginInput{
		Email:    "ghost@example.com",
		Password: "whatever",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestValidateToken_RejectsRefreshTokenAsAccess(t *testing.T) {
	userRepo, _, svc := setupAuthService()

	hash, err := bcrypt.GenerateFromPassword([]byte("pass-123456"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &domain.User{ID: uuid.New(), Email: "user@example.com", PasswordHash: string(hash)}
	userRepo.On("GetByEmail", mock.Anything, "user@example.com").Return(user, nil)

	pair, err := svc.Login(context.Background(), service.LoginInput{
		Email:    "user@example.com",
		Password: "pass-123456",
	})
	require.NoError(t, err)

	// Audience check: a refresh token must not pass as an access token.
	_, err = svc.ValidateToken(pair.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrAuthentication)
}

func TestValidateToken_Garbage(t *testing.T) {
	_, _, svc := setupAuthService()

	_, err := svc.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, domain.ErrAuthentication)
}

func TestRefreshToken_IssuesNewPair(t *testing.T) {
	userRepo, _, svc := setupAuthService()

	hash, err := bcrypt.GenerateFromPassword([]byte("pass-123456"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &domain.User{ID: uuid.New(), Email: "user@example.com", PasswordHash: string(hash)}
	userRepo.On("GetByEmail", mock.Anything, "user@example.com").Return(user, nil)
	userRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	pair, err := svc.Login(context.Background(), service.LoginInput{
		Email:    "user@example.com",
		Password: "pass-123456",
	})
	require.NoError(t, err)

	fresh, err := svc.RefreshToken(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, fresh.AccessToken)

	session, err := svc.ValidateToken(fresh.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.UserID)
}
