// Package service contains the business logic layer: validation, ownership
// rules and orchestration. Handlers translate HTTP to and from these
// methods; repositories do the persistence. Services return apperror
// values and never see a status code.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/media-catalog/internal/apperror"
	"github.com/sakif/media-catalog/internal/auth"
	"github.com/sakif/media-catalog/internal/model"
	"github.com/sakif/media-catalog/internal/repository"
)

// AuthService owns registration, login and profile reads.
type AuthService struct {
	users     repository.UserRepository
	media     repository.MediaRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	media repository.MediaRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		media:     media,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// RegisterInput is the explicit two-password registration payload. The
// confirmation exists only for this comparison; it is validated before any
// hashing happens and is never stored in any form.
type RegisterInput struct {
	Username             string
	Email                string
	Password             string
	PasswordConfirmation string
}

// Register validates the input, hashes the password and creates the user.
// Username/email uniqueness is enforced by the store's unique indexes and
// surfaces as a validation failure.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if in.Username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if utf8.RuneCountInString(in.Username) > model.MaxUsernameLength {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or less", model.MaxUsernameLength))
	}
	if in.Email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if in.Password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}
	if in.Password != in.PasswordConfirmation {
		return nil, apperror.ValidationFailed("passwordConfirmation", "does not match password field")
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", "password is not usable")
	}

	user := &model.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// AuthResult bundles the authenticated user and the issued bearer token.
type AuthResult struct {
	User  *model.User
	Token string
}

// Login verifies the credentials and issues a 7-day bearer token. Unknown
// email and wrong password both come back as the same uniform Unauthorized.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, apperror.Unauthorized()
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized()
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return &AuthResult{User: user, Token: token}, nil
}

// Profile returns the user plus their owned media and the media they have
// reviewed. Both listings are back-reference queries resolved here at read
// time; nothing on the user document points at media.
func (s *AuthService) Profile(ctx context.Context, userID string) (*model.Profile, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	owned, err := s.media.FindMediaByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching owned media for %s: %w", userID, err)
	}

	reviewed, err := s.media.FindMediaByReviewer(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching reviewed media for %s: %w", userID, err)
	}

	decorateRatings(owned)
	decorateRatings(reviewed)

	return &model.Profile{
		User:       user,
		OwnedMedia: owned,
		Reviewed:   reviewed,
	}, nil
}
