package services

import (
	"context"
	"strings"

	"github.com/poppys-produce/backend/app/models"
	"github.com/poppys-produce/backend/pkg/apperr"
	"github.com/poppys-produce/backend/pkg/auth"
)

// AuthService handles registration and login. Role flags live on the user
// document and are minted into the token claims here.
type AuthService struct {
	users UserStore
}

func NewAuthService(users UserStore) *AuthService {
	return &AuthService{users: users}
}

// RegisterInput is the sign-up payload.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginInput is the sign-in payload.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResult carries the minted tokens plus the profile.
type AuthResult struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
	User         models.User `json:"user"`
}

// Register creates the account and its default profile, then logs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return AuthResult{}, apperr.Internal("Failed to create account.", err)
	}

	user := models.NewProfile(email)
	user.PasswordHash = hash
	if _, err := s.users.Insert(ctx, &user); err != nil {
		return AuthResult{}, err
	}
	return s.mintTokens(user)
}

// Login verifies the password and mints tokens carrying the current role
// flags. Wrong email and wrong password are indistinguishable on purpose.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	user, err := s.users.FindByEmail(ctx, email)
	if apperr.Is(err, apperr.KindNotFound) {
		return AuthResult{}, apperr.Unauthenticated("Invalid email or password.")
	}
	if err != nil {
		return AuthResult{}, err
	}
	if !auth.CheckPassword(user.PasswordHash, in.Password) {
		return AuthResult{}, apperr.Unauthenticated("Invalid email or password.")
	}
	return s.mintTokens(user)
}

func (s *AuthService) mintTokens(user models.User) (AuthResult, error) {
	token, err := auth.GenerateToken(user.ID.Hex(), user.Email, user.Admin, user.IsSuperUser)
	if err != nil {
		return AuthResult{}, apperr.Internal("Failed to issue token.", err)
	}
	refresh, err := auth.GenerateRefreshToken(user.ID.Hex(), user.Email, user.Admin, user.IsSuperUser)
	if err != nil {
		return AuthResult{}, apperr.Internal("Failed to issue token.", err)
	}
	return AuthResult{Token: token, RefreshToken: refresh, User: user}, nil
}
