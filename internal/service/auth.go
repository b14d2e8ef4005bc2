package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"flash-sale-api/internal/clock"
	"flash-sale-api/internal/model"
	"flash-sale-api/internal/repository"
	"flash-sale-api/pkg/uid"
)

// TokenIssuer abstracts session token creation for login flows.
type TokenIssuer interface {
	GenerateToken(ctx context.Context, data model.TokenData) (string, error)
	RevokeToken(ctx context.Context, token string) error
}

// AuthService handles registration, login and logout against the accounts
// database.
type AuthService struct {
	users  repository.UserRepository
	tokens TokenIssuer
	clock  clock.Clock
}

// NewAuthService creates a new auth service.
func NewAuthService(users repository.UserRepository, tokens TokenIssuer, clk clock.Clock) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		clock:  clk,
	}
}

// RegisterInput carries a registration request.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in *RegisterInput) validate() error {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if len(in.Username) < 3 || len(in.Username) > 64 {
		return fmt.Errorf("%w: username must be 3-64 characters", model.ErrValidation)
	}
	if !strings.Contains(in.Email, "@") {
		return fmt.Errorf("%w: invalid email address", model.ErrValidation)
	}
	if len(in.Password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", model.ErrValidation)
	}
	return nil
}

// Register creates a new account with role "user".
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uid.New(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         model.RoleUser,
		CreatedAt:    s.clock.Now(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("[AuthService] Registered user %s (%s)", user.Username, user.ID)
	return user, nil
}

// LoginInput carries a login request. Identifier is email or username.
type LoginInput struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// Login verifies credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (string, *model.User, error) {
	identifier := strings.TrimSpace(in.Identifier)
	if identifier == "" || in.Password == "" {
		return "", nil, model.ErrInvalidCredentials
	}

	user, err := s.users.GetByEmailOrUsername(ctx, identifier)
	if err != nil {
		if err == model.ErrUserNotFound {
			return "", nil, model.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return "", nil, model.ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(ctx, model.TokenData{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return token, user, nil
}

// Logout revokes the session token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.tokens.RevokeToken(ctx, token)
}
