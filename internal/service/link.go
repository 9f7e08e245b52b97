// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces ownership, orchestrates
//	Repository (Data layer)  → reads/writes the database
//
// The service receives repository INTERFACES, not concrete types — tests
// inject in-memory mocks, and the service never imports the sqlite package.
//
// IDENTITY IS EXPLICIT:
// Every operation takes the caller's user ID as a plain parameter. The
// service never reaches into ambient session state; the auth middleware
// resolves the session once and the identity is threaded down as a value.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/sakif/linkpage/internal/apperror"
	"github.com/sakif/linkpage/internal/model"
	"github.com/sakif/linkpage/internal/repository"
)

const (
	MaxTitleLength = 140
	MaxURLLength   = 2048
)

// LinkService handles business logic for a user's links.
type LinkService struct {
	repo   repository.LinkRepository
	logger *slog.Logger
}

// NewLinkService creates a LinkService. The caller decides which repository
// implementation to inject (sqlite in production, a mock in tests).
func NewLinkService(repo repository.LinkRepository, logger *slog.Logger) *LinkService {
	return &LinkService{
		repo:   repo,
		logger: logger,
	}
}

// Create validates and saves a new link for the owner. The link lands at
// the end of the owner's list; the repository assigns id and position.
//
// Validation lives here, not just in the browser — every caller gets the
// same rules, and a curl request can't slip an empty title or a javascript:
// URL into someone's public page.
func (s *LinkService) Create(ctx context.Context, ownerID, title, rawURL string) (*model.Link, error) {
	if ownerID == "" {
		return nil, apperror.Unauthorized("valid session required")
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "link title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("link title must be %d characters or less", MaxTitleLength))
	}

	cleanURL, err := validateURL(rawURL)
	if err != nil {
		return nil, err
	}

	link := &model.Link{
		UserID: ownerID,
		Title:  title,
		URL:    cleanURL,
	}

	if err := s.repo.Create(ctx, link); err != nil {
		s.logger.Error("failed to create link",
			slog.String("ownerID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating link: %w", err)
	}

	s.logger.Info("link created",
		slog.Int64("id", link.ID),
		slog.String("ownerID", ownerID),
		slog.Int("position", link.Position),
	)

	return link, nil
}

// List returns the owner's links sorted ascending by position.
func (s *LinkService) List(ctx context.Context, ownerID string) ([]model.Link, error) {
	if ownerID == "" {
		return nil, apperror.Unauthorized("valid session required")
	}

	links, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("failed to list links",
			slog.String("ownerID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing links: %w", err)
	}

	return links, nil
}

// Update edits a link's title and URL.
//
// Unlike Delete, this distinguishes "not found" from "not yours": the link
// is fetched first and run through assertOwner, so editing someone else's
// link answers Forbidden rather than silently succeeding. Editing leaks no
// information that the owner's own dashboard doesn't already show.
func (s *LinkService) Update(ctx context.Context, ownerID string, id int64, title, rawURL string) (*model.Link, error) {
	if ownerID == "" {
		return nil, apperror.Unauthorized("valid session required")
	}

	link, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := assertOwner(link, ownerID); err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "link title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("link title must be %d characters or less", MaxTitleLength))
	}

	cleanURL, err := validateURL(rawURL)
	if err != nil {
		return nil, err
	}

	link.Title = title
	link.URL = cleanURL

	if err := s.repo.Update(ctx, link); err != nil {
		s.logger.Error("failed to update link",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating link: %w", err)
	}

	s.logger.Info("link updated", slog.Int64("id", id), slog.String("ownerID", ownerID))

	return link, nil
}

// Delete removes the owner's link with the given id.
//
// OWNERSHIP MASKING, ON PURPOSE:
// The repository filters by id AND owner and reports success even when
// nothing matched. A delete for a non-existent id and a delete for someone
// else's link both come back as a clean no-op — callers cannot use this
// endpoint to probe which link ids exist across accounts. The typed
// Forbidden error exists (see Update), but surfacing it here would leak
// exactly that.
func (s *LinkService) Delete(ctx context.Context, ownerID string, id int64) error {
	if ownerID == "" {
		return apperror.Unauthorized("valid session required")
	}
	if id <= 0 {
		return apperror.ValidationFailed("id", "link id must be a positive integer")
	}

	if err := s.repo.Delete(ctx, id, ownerID); err != nil {
		s.logger.Error("failed to delete link",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting link: %w", err)
	}

	s.logger.Info("link deleted", slog.Int64("id", id), slog.String("ownerID", ownerID))
	return nil
}

// Reorder rewrites the owner's link positions to match the submitted id
// sequence: ids[i] gets position i, and any of the owner's links omitted
// from the sequence are appended after it in their prior relative order.
//
// Validation (every id owned by the caller, no duplicates) happens inside
// the repository's transaction, so there is no window where a concurrent
// delete invalidates an already-passed check. Any stray id fails the whole
// batch with a validation error — no partial application.
func (s *LinkService) Reorder(ctx context.Context, ownerID string, ids []int64) error {
	if ownerID == "" {
		return apperror.Unauthorized("valid session required")
	}

	if err := s.repo.Reorder(ctx, ownerID, ids); err != nil {
		// Validation failures are the caller's mistake, not ours — don't
		// log them as errors.
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return err
		}
		s.logger.Error("failed to reorder links",
			slog.String("ownerID", ownerID),
			slog.Int("count", len(ids)),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("reordering links: %w", err)
	}

	s.logger.Info("links reordered",
		slog.String("ownerID", ownerID),
		slog.Int("count", len(ids)),
	)
	return nil
}

// assertOwner is the single authorization guard for link mutations.
// Returns a typed Forbidden — deliberately distinct from NotFound — when
// the link belongs to a different user.
func assertOwner(link *model.Link, ownerID string) error {
	if link.UserID != ownerID {
		return apperror.Forbidden("link belongs to another user")
	}
	return nil
}

// validateURL accepts only absolute http/https URLs with a host.
// Rejecting other schemes keeps javascript: and data: URLs off public pages.
func validateURL(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", apperror.ValidationFailed("url", "link URL is required")
	}
	if len(rawURL) > MaxURLLength {
		return "", apperror.ValidationFailed("url",
			fmt.Sprintf("link URL must be %d characters or less", MaxURLLength))
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", apperror.ValidationFailed("url", "link URL is not a valid URL")
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", apperror.ValidationFailed("url", "link URL must be an absolute http or https URL")
	}

	return u.String(), nil
}
