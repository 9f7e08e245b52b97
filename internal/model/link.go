// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Link is a titled URL entry on a user's page.
//
// WHY ID int64 (not a string like User.ID)?
// Links are only ever addressed through their owner's page — they don't need
// globally unique, unguessable identifiers. An auto-incrementing integer from
// SQLite is simpler, sorts naturally, and matches what the frontend sends
// back in reorder payloads.
//
// WHY "Position" AND NOT "Order"?
// ORDER is a reserved word in SQL, so the column would need quoting in every
// query. Position carries the same meaning without the hassle. The JSON field
// stays "order" because that's what the editor UI speaks.
//
// POSITION INVARIANT:
// For a given owner, positions are always the dense sequence 0..N-1 in
// display order. Create appends at the end, delete compacts the remainder,
// and reorder rewrites every position from the submitted sequence. Nothing
// outside the repository writes this field.
type Link struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"-"` // owner's user ID — never serialized, never client-supplied
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Position  int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
