// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Users arrive two ways: GitHub OAuth (GitHubID is set, PasswordHash empty)
// or email/password registration (PasswordHash set, GitHubID zero). Either
// way we generate our own internal string ID (xid) — links reference that ID,
// never a third party's numbering scheme.
//
// WHY GitHubID int64?
// GitHub user IDs are integers (e.g. 1234567). Using int64 avoids overflow
// for large GitHub account numbers. The UNIQUE constraint on github_id in the
// DB ensures one GitHub account maps to exactly one app account. Zero means
// "no GitHub account linked".
//
// Username doubles as the public page handle (/u/{username}), so it is
// UNIQUE in the database. For OAuth users it's the GitHub login; for
// password users it's chosen at registration.
type User struct {
	ID           string    `json:"id"        db:"id"`
	GitHubID     int64     `json:"-"         db:"github_id"`
	Username     string    `json:"username"  db:"username"`
	Email        string    `json:"email"     db:"email"`      // may be empty (hidden on GitHub)
	AvatarURL    string    `json:"avatarUrl" db:"avatar_url"` // profile picture URL
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
