// Package service — authentication business logic.
//
// AuthService sits between the HTTP handlers and the repository/auth
// utilities:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ TokenService (JWT) ↘ PasswordService (bcrypt)
//
// Two login paths share it: GitHub OAuth (the handler exchanges the code for
// a profile, then calls LoginOrRegisterGitHub) and email/password
// (RegisterPassword / LoginPassword). Both end the same way — a user row and
// a signed JWT for the session cookie.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/sakif/linkpage/internal/apperror"
	"github.com/sakif/linkpage/internal/auth"
	"github.com/sakif/linkpage/internal/model"
	"github.com/sakif/linkpage/internal/repository"
)

// usernameRE constrains handles to URL-safe characters: the username is the
// public page path (/u/{username}), so it must never need escaping.
var usernameRE = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,30}$`)

const minPasswordLength = 8

// AuthService handles the authentication business logic.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
// Call this in server.go when wiring the dependency graph.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued JWT so the handler can
// set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// LoginOrRegisterGitHub handles the GitHub OAuth callback.
//
// After the handler exchanges the GitHub code for a profile, this:
//
//  1. Upserts the user (INSERT on first login — this is where "created on
//     first authentication" happens — UPDATE of profile fields after)
//  2. Issues a JWT for the session cookie
//
// GitHub's numeric ID is stable and unique, so upserting on github_id is
// always safe.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	user := &model.User{
		GitHubID:  ghUser.ID,
		Username:  ghUser.Login,
		Email:     ghUser.Email,
		AvatarURL: ghUser.AvatarURL,
	}

	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (githubID=%d): %w", ghUser.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return s.issueToken(user)
}

// RegisterPassword creates a new password-backed account and logs it in.
//
// The username is validated here (not just in the browser) because it
// becomes a public URL path. A taken username comes back as a Conflict from
// the repository and maps to 409 at the HTTP boundary.
func (s *AuthService) RegisterPassword(ctx context.Context, username, email, password string) (*AuthResult, error) {
	if !usernameRE.MatchString(username) {
		return nil, apperror.ValidationFailed("username",
			"username must be 3-30 characters of letters, digits, underscore, or dash")
	}
	if len(password) < minPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}

	if err := s.users.CreateWithPassword(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return s.issueToken(user)
}

// LoginPassword verifies a username/password pair and issues a session token.
//
// Every failure — unknown username, OAuth-only account with no password,
// wrong password — collapses into the same Unauthorized error. Distinct
// messages would tell an attacker which usernames exist.
func (s *AuthService) LoginPassword(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, apperror.Unauthorized("invalid username or password")
	}

	if user.PasswordHash == "" {
		// GitHub-only account — it has no password to check.
		return nil, apperror.Unauthorized("invalid username or password")
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("invalid username or password")
	}

	s.logger.Info("user logged in",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return s.issueToken(user)
}

// GetUserByID returns the user for the given internal ID. Used by /api/me
// after the middleware validates the JWT and extracts the subject.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}

	return user, nil
}

// ValidateToken validates a JWT string and returns the userID it encodes.
func (s *AuthService) ValidateToken(tokenStr string) (string, error) {
	userID, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return "", fmt.Errorf("service/auth: %w", err)
	}
	return userID, nil
}

func (s *AuthService) issueToken(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{
		User:  user,
		Token: token,
	}, nil
}
