package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/linkpage/internal/apperror"
	"github.com/sakif/linkpage/internal/model"
	"github.com/sakif/linkpage/internal/repository"
)

// COMPILE-TIME INTERFACE CHECK:
// `var _ X = (*Y)(nil)` assigns a nil *Y to a variable of interface type X.
// If *Y doesn't implement X, the compiler errors immediately instead of at
// the first call site that passes *DB around as a LinkRepository.
var _ repository.LinkRepository = (*DB)(nil)

// Create inserts a link at the end of the owner's list.
//
// The new position is MAX(position)+1 over the owner's existing rows
// (0 for the first link), computed and inserted inside one transaction so
// two concurrent creates can't claim the same slot. After the insert we
// read back the AUTOINCREMENT id via LastInsertId and fill in the struct —
// the caller's link carries the system-assigned id and position home.
func (db *DB) Create(ctx context.Context, link *model.Link) error {
	now := time.Now()
	link.CreatedAt = now
	link.UpdatedAt = now

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning create transaction: %w", err)
	}
	// Rollback is a no-op after a successful Commit, so deferring it is
	// always safe and covers every early return below.
	defer tx.Rollback()

	// COALESCE turns the NULL from an empty set into -1 so the first link
	// lands at position 0.
	var next int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), -1) + 1 FROM links WHERE user_id = ?`,
		link.UserID,
	).Scan(&next)
	if err != nil {
		return fmt.Errorf("sqlite: computing next position: %w", err)
	}
	link.Position = next

	res, err := tx.ExecContext(ctx,
		`INSERT INTO links (user_id, title, url, position, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		link.UserID,
		link.Title,
		link.URL,
		link.Position,
		link.CreatedAt,
		link.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting link: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading inserted link id: %w", err)
	}
	link.ID = id

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing link create: %w", err)
	}
	return nil
}

// GetByID retrieves a single link by id, regardless of owner.
// The service layer compares link.UserID against the caller to decide
// between "not found" and "forbidden" — the repository doesn't authorize.
func (db *DB) GetByID(ctx context.Context, id int64) (*model.Link, error) {
	var l model.Link

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, title, url, position, created_at, updated_at
		 FROM links WHERE id = ?`,
		id,
	).Scan(&l.ID, &l.UserID, &l.Title, &l.URL, &l.Position, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		// sql.ErrNoRows is a sentinel, not a real failure — translate it to
		// the domain's NotFound so handlers can map it to 404.
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("link", fmt.Sprint(id))
		}
		return nil, fmt.Errorf("sqlite: getting link %d: %w", id, err)
	}

	return &l, nil
}

// ListByOwner returns all of the owner's links sorted ascending by position.
// No pagination — a page of links is small by construction.
func (db *DB) ListByOwner(ctx context.Context, ownerID string) ([]model.Link, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, title, url, position, created_at, updated_at
		 FROM links
		 WHERE user_id = ?
		 ORDER BY position ASC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing links for %s: %w", ownerID, err)
	}
	// sql.Rows holds a pool connection until closed — never skip this.
	defer rows.Close()

	links := []model.Link{}
	for rows.Next() {
		var l model.Link
		if err := rows.Scan(
			&l.ID, &l.UserID, &l.Title, &l.URL, &l.Position,
			&l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning link row: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating links: %w", err)
	}

	return links, nil
}

// Update rewrites a link's title and URL. The WHERE clause matches both id
// and owner; zero rows affected means the link doesn't exist or belongs to
// someone else, and either way this reports NotFound. Position is not
// touched here — only Reorder moves links.
func (db *DB) Update(ctx context.Context, link *model.Link) error {
	link.UpdatedAt = time.Now()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE links SET title = ?, url = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		link.Title,
		link.URL,
		link.UpdatedAt,
		link.ID,
		link.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating link %d: %w", link.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("link", fmt.Sprint(link.ID))
	}

	return nil
}

// Delete removes the link matching both id and owner, then renumbers the
// owner's remaining links back to the dense 0..N-1 sequence.
//
// Deliberately reports success when zero rows match: a request for a
// non-existent id and a request for someone else's link are
// indistinguishable to the caller. Splitting the two would let an
// authenticated user probe which link ids exist across all accounts.
func (db *DB) Delete(ctx context.Context, id int64, ownerID string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning delete transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM links WHERE id = ? AND user_id = ?`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting link %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		// Nothing matched — nothing to compact, nothing to report.
		// The deferred Rollback releases the transaction.
		return nil
	}

	if err := compactPositions(ctx, tx, ownerID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing link delete: %w", err)
	}
	return nil
}

// Reorder atomically assigns position i to ids[i] for the owner's links.
//
// The whole operation runs in one transaction:
//
//  1. Load the owner's current links (in display order).
//  2. Verify every submitted id belongs to the owner and appears at most
//     once. Any stray id fails the entire batch before a single write —
//     doing this inside the transaction closes the race where a link is
//     deleted between an external check and the writes.
//  3. Write position i for ids[i].
//  4. Links the owner holds that were omitted from the submission are
//     appended after the sequence, keeping their previous relative order,
//     so positions stay dense even on a partial reorder.
//
// Any error rolls back every row — the order is never left half-updated.
func (db *DB) Reorder(ctx context.Context, ownerID string, ids []int64) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning reorder transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM links WHERE user_id = ? ORDER BY position ASC`,
		ownerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: loading links for reorder: %w", err)
	}

	owned := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("sqlite: scanning link id: %w", err)
		}
		owned = append(owned, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("sqlite: iterating link ids: %w", err)
	}
	rows.Close()

	ownedSet := make(map[int64]bool, len(owned))
	for _, id := range owned {
		ownedSet[id] = true
	}

	submitted := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if !ownedSet[id] {
			return apperror.ValidationFailed("links",
				fmt.Sprintf("link %d does not belong to the caller", id))
		}
		if submitted[id] {
			return apperror.ValidationFailed("links",
				fmt.Sprintf("link %d appears more than once", id))
		}
		submitted[id] = true
	}

	now := time.Now()
	setPosition := func(id int64, pos int) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE links SET position = ?, updated_at = ? WHERE id = ?`,
			pos, now, id,
		)
		if err != nil {
			return fmt.Errorf("sqlite: setting position %d for link %d: %w", pos, id, err)
		}
		return nil
	}

	for i, id := range ids {
		if err := setPosition(id, i); err != nil {
			return err
		}
	}

	// Append omitted links after the submitted sequence, in their prior
	// relative order (owned is already sorted by the old positions).
	next := len(ids)
	for _, id := range owned {
		if submitted[id] {
			continue
		}
		if err := setPosition(id, next); err != nil {
			return err
		}
		next++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing reorder: %w", err)
	}
	return nil
}

// compactPositions renumbers the owner's links to 0..N-1 in their current
// display order, inside the caller's transaction. Used after a delete so
// positions never develop gaps.
func compactPositions(ctx context.Context, tx *sql.Tx, ownerID string) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM links WHERE user_id = ? ORDER BY position ASC`,
		ownerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: loading links for compaction: %w", err)
	}

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("sqlite: scanning link id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("sqlite: iterating link ids: %w", err)
	}
	rows.Close()

	for i, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`UPDATE links SET position = ? WHERE id = ?`, i, id,
		); err != nil {
			return fmt.Errorf("sqlite: compacting position for link %d: %w", id, err)
		}
	}
	return nil
}
