package services

import (
	"courier/auth"
	"courier/domain"
	courerrors "courier/errors"
	"courier/repositories"
	"fmt"

	"github.com/google/uuid"
)

type IAuthService interface {
	Register(username, email, password string) (Token, domain.User, error)
	Login(email, password string) (Token, domain.User, error)
}

type Token string

type AuthService struct {
	userRepository repositories.IUserRepository
	tokens         *auth.TokenManager
}

func NewAuthService(repo repositories.IUserRepository, tokens *auth.TokenManager) IAuthService {
	return &AuthService{userRepository: repo, tokens: tokens}
}

func (s *AuthService) Register(username, email, password string) (Token, domain.User, error) {
	valReq := auth.RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	}

	// Business rules (email format, password complexity) are checked
	// before any expensive cryptographic operation. ValidateRegister
	// already wraps the field-appropriate sentinel.
	if err := auth.ValidateRegister(valReq); err != nil {
		return "", domain.User{}, err
	}

	// Hashing happens in the service layer to keep the repository
	// unaware of plain passwords.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("hashing failed: %w", err)
	}

	user, err := s.userRepository.CreateUser(username, email, hashedPassword)
	if err != nil {
		return "", domain.User{}, err // propagates ErrUserAlreadyExists
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", domain.User{}, courerrors.ErrTokenGeneration
	}
	return Token(token), user, nil
}

func (s *AuthService) Login(email, password string) (Token, domain.User, error) {
	stored, err := s.userRepository.GetUserByEmail(email)
	if err != nil {
		// Generic error to prevent user enumeration.
		return "", domain.User{}, courerrors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, stored.PasswordHash)
	if err != nil || !match {
		return "", domain.User{}, courerrors.ErrInvalidCredentials
	}

	user, err := toUser(stored)
	if err != nil {
		return "", domain.User{}, courerrors.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", domain.User{}, courerrors.ErrTokenGeneration
	}
	return Token(token), user, nil
}

func toUser(stored repositories.User) (domain.User, error) {
	id, err := uuid.Parse(stored.ID)
	if err != nil {
		return domain.User{}, err
	}
	return domain.User{ID: id, Username: stored.Username, Email: stored.Email}, nil
}
