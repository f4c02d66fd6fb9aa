package services

import (
	"courier/auth"
	"courier/domain"
	courerrors "courier/errors"
	"courier/mocks"
	"courier/repositories"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	testEmail    = "test@example.com"
	testPassword = "ComplexPass123!"
)

func TestAuthService_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	tokens := auth.NewTokenManager("test-secret", 24*time.Hour)
	svc := NewAuthService(mockRepo, tokens)

	t.Run("should register successfully when input is valid", func(t *testing.T) {
		req := require.New(t)
		created := domain.User{ID: uuid.New(), Username: "tester", Email: testEmail}

		// Expect CreateUser to be called with a hashed password (not the plain one)
		mockRepo.EXPECT().
			CreateUser("tester", testEmail, gomock.Not(testPassword)).
			Return(created, nil).
			Times(1)

		token, user, err := svc.Register("tester", testEmail, testPassword)

		req.NoError(err)
		req.NotEmpty(token)
		req.Equal(created.ID, user.ID)

		// The issued credential must carry the new identity.
		verified, err := tokens.Verify(string(token))
		req.NoError(err)
		req.Equal(created.ID, verified)
	})

	t.Run("should fail when password complexity is not met", func(t *testing.T) {
		req := require.New(t)

		// Repository should NEVER be called
		mockRepo.EXPECT().CreateUser(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		token, _, err := svc.Register("tester", testEmail, "simple-but-long-enough")

		req.Error(err)
		req.ErrorIs(err, courerrors.ErrInvalidPassword)
		req.Empty(token)
	})

	t.Run("should report a validation error, not a password one, for a malformed email", func(t *testing.T) {
		req := require.New(t)

		// Repository should NEVER be called
		mockRepo.EXPECT().CreateUser(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, _, err := svc.Register("tester", "not-an-email", testPassword)

		req.ErrorIs(err, courerrors.ErrValidation)
		req.NotErrorIs(err, courerrors.ErrInvalidPassword)
	})

	t.Run("should fail when user already exists in repository", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			CreateUser("tester", "duplicate@example.com", gomock.Any()).
			Return(domain.User{}, courerrors.ErrUserAlreadyExists).
			Times(1)

		_, _, err := svc.Register("tester", "duplicate@example.com", testPassword)

		req.ErrorIs(err, courerrors.ErrUserAlreadyExists)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	tokens := auth.NewTokenManager("test-secret", 24*time.Hour)
	svc := NewAuthService(mockRepo, tokens)

	t.Run("should login successfully with correct credentials", func(t *testing.T) {
		req := require.New(t)

		hashedPassword, _ := auth.HashPassword(testPassword)
		storedUser := repositories.User{
			ID:           uuid.NewString(),
			Username:     "tester",
			Email:        testEmail,
			PasswordHash: hashedPassword,
		}

		mockRepo.EXPECT().
			GetUserByEmail(testEmail).
			Return(storedUser, nil).
			Times(1)

		token, user, err := svc.Login(testEmail, testPassword)

		req.NoError(err)
		req.NotEmpty(token)
		req.Equal(storedUser.ID, user.ID.String())

		verified, err := tokens.Verify(string(token))
		req.NoError(err)
		req.Equal(storedUser.ID, verified.String())
	})

	t.Run("should return invalid credentials when password does not match", func(t *testing.T) {
		req := require.New(t)

		hashedPassword, _ := auth.HashPassword("CorrectPassword123!")
		storedUser := repositories.User{
			ID:           uuid.NewString(),
			Email:        testEmail,
			PasswordHash: hashedPassword,
		}

		mockRepo.EXPECT().
			GetUserByEmail(testEmail).
			Return(storedUser, nil).
			Times(1)

		_, _, err := svc.Login(testEmail, "WrongPassword123!")

		req.ErrorIs(err, courerrors.ErrInvalidCredentials)
	})

	t.Run("should return invalid credentials when user is not found", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			GetUserByEmail("unknown@example.com").
			Return(repositories.User{}, courerrors.ErrInvalidCredentials).
			Times(1)

		_, _, err := svc.Login("unknown@example.com", "anyPassword123!")

		req.ErrorIs(err, courerrors.ErrInvalidCredentials)
	})
}
