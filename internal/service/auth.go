package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/snipy/internal/apperror"
	"github.com/sakif/snipy/internal/auth"
	"github.com/sakif/snipy/internal/model"
	"github.com/sakif/snipy/internal/repository"
)

const MinPasswordLength = 8

// AuthService handles account registration and credential checks. Session
// issuance lives in the auth package; this service only decides whether the
// caller is who they claim to be.
type AuthService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(users repository.UserRepository, passwords *auth.PasswordService, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:     users,
		passwords: passwords,
		logger:    logger,
	}
}

// Register creates a password-based account. The email must be unused.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperror.ValidationFailed("email", "a valid email is required")
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &model.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create user",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user registered", slog.String("id", user.ID))
	return user, nil
}

// Login checks the email/password pair. Both an unknown email and a wrong
// password come back as the same unauthorized error, so a caller cannot
// probe which addresses have accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, apperror.Unauthorized()
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized()
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if user.PasswordHash == "" {
		// OAuth-only account; no password to check against.
		return nil, apperror.Unauthorized()
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized()
	}

	return user, nil
}

// GetUser fetches the account behind a session.
func (s *AuthService) GetUser(ctx context.Context, id string) (*model.User, error) {
	return s.users.GetUserByID(ctx, id)
}

// LoginGitHub creates or refreshes the account bound to a GitHub profile and
// returns it.
func (s *AuthService) LoginGitHub(ctx context.Context, gh *auth.GitHubUser) (*model.User, error) {
	if gh == nil || gh.ID == 0 {
		return nil, apperror.Unauthorized()
	}

	name := gh.Name
	if name == "" {
		name = gh.Login
	}

	user := &model.User{
		Email:     strings.ToLower(gh.Email),
		Name:      name,
		AvatarURL: gh.AvatarURL,
		GitHubID:  gh.ID,
	}

	if err := s.users.UpsertGitHubUser(ctx, user); err != nil {
		s.logger.Error("failed to upsert github user",
			slog.Int64("github_id", gh.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("upserting github user: %w", err)
	}

	s.logger.Info("github login", slog.String("id", user.ID))
	return user, nil
}
