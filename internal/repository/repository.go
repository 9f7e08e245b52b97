// Package repository defines the storage interfaces the service layer
// depends on. Concrete implementations live in subpackages (sqlite).
//
// Every operation that touches links takes the owner's user ID as an
// explicit parameter. There is no ambient "current user" at this layer —
// identity flows in from the auth middleware through the service as a plain
// string, which keeps every operation testable in isolation.
package repository

import (
	"context"

	"github.com/sakif/linkpage/internal/model"
)

// LinkRepository persists a user's ordered links.
//
// Ownership is enforced by equality filtering on the stored user ID in every
// query — there is no foreign key between links and users. A link is only
// ever visible to, mutable by, or deletable by its owner.
type LinkRepository interface {
	// Create inserts a link at the end of the owner's list (position = N).
	// Fills in ID, Position, and timestamps on the passed struct.
	Create(ctx context.Context, link *model.Link) error

	// GetByID returns a link regardless of owner. Callers that mutate must
	// check ownership themselves; returns apperror.ErrNotFound if absent.
	GetByID(ctx context.Context, id int64) (*model.Link, error)

	// ListByOwner returns all of the owner's links sorted ascending by position.
	ListByOwner(ctx context.Context, ownerID string) ([]model.Link, error)

	// Update rewrites a link's title and URL. The WHERE clause matches both
	// id and owner, so it reports apperror.ErrNotFound on either mismatch.
	Update(ctx context.Context, link *model.Link) error

	// Delete removes the link only when both id and owner match, then
	// compacts the owner's remaining positions back to 0..N-1 in the same
	// transaction. A non-existent or foreign id deletes zero rows and
	// returns nil — the caller cannot distinguish the two.
	Delete(ctx context.Context, id int64, ownerID string) error

	// Reorder atomically rewrites the owner's positions so that ids[i] gets
	// position i. Links the owner holds that are absent from ids are
	// appended after the submitted sequence in their prior relative order.
	// All-or-nothing: any failure rolls back every row.
	Reorder(ctx context.Context, ownerID string, ids []int64) error
}

// UserRepository persists user accounts.
type UserRepository interface {
	// Upsert inserts a user on first GitHub login, or refreshes their
	// profile fields on subsequent logins, keyed on GitHubID.
	Upsert(ctx context.Context, user *model.User) error

	// CreateWithPassword inserts a password-registered user. Returns
	// apperror.ErrConflict if the username is taken.
	CreateWithPassword(ctx context.Context, user *model.User) error

	GetUserByID(ctx context.Context, id string) (*model.User, error)

	// GetUserByUsername resolves a public page handle to its account.
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
}
