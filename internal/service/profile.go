package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/linkpage/internal/model"
	"github.com/sakif/linkpage/internal/repository"
)

// ProfileService serves the public, read-only view of a user's page:
// display identity plus links in order, addressed by username. No session
// is involved anywhere on this path — the page is meant to be shared.
type ProfileService struct {
	users  repository.UserRepository
	links  repository.LinkRepository
	logger *slog.Logger
}

// NewProfileService creates a ProfileService.
func NewProfileService(
	users repository.UserRepository,
	links repository.LinkRepository,
	logger *slog.Logger,
) *ProfileService {
	return &ProfileService{
		users:  users,
		links:  links,
		logger: logger,
	}
}

// Profile is what a visitor sees: who the page belongs to and their links.
// Email and account internals stay out of it.
type Profile struct {
	Username  string       `json:"username"`
	AvatarURL string       `json:"avatarUrl"`
	Links     []model.Link `json:"links"`
}

// GetByUsername resolves a public handle to its profile.
// Returns apperror.ErrNotFound when no such user exists — for a public page
// that's the honest answer, there's nothing to mask.
func (s *ProfileService) GetByUsername(ctx context.Context, username string) (*Profile, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	links, err := s.links.ListByOwner(ctx, user.ID)
	if err != nil {
		s.logger.Error("failed to load profile links",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("loading profile links: %w", err)
	}

	return &Profile{
		Username:  user.Username,
		AvatarURL: user.AvatarURL,
		Links:     links,
	}, nil
}
