package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/sakif/snipy/internal/apperror"
	"github.com/sakif/snipy/internal/repository"
)

// compile-time check that *DB implements repository.AssociationRepository
var _ repository.AssociationRepository = (*DB)(nil)

// DeleteTagsForSnippet wipes every tag association for the snippet. This is
// the first half of the reconciliation used by the aggregate snippet update.
func (db *DB) DeleteTagsForSnippet(ctx context.Context, snippetID string) error {
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM snippet_tags WHERE snippet_id = ?`, snippetID)
	if err != nil {
		return fmt.Errorf("sqlite: wiping tags for snippet %s: %w", snippetID, err)
	}
	return nil
}

// InsertTags inserts fresh associations for every tag id. A duplicate pair
// or an unknown tag id fails the whole statement.
func (db *DB) InsertTags(ctx context.Context, snippetID string, tagIDs []string) error {
	return db.insertTags(ctx, snippetID, tagIDs, false)
}

// UpsertTags inserts associations, skipping pairs that already exist.
// Idempotent on the composite (snippet_id, tag_id) key.
func (db *DB) UpsertTags(ctx context.Context, snippetID string, tagIDs []string) error {
	return db.insertTags(ctx, snippetID, tagIDs, true)
}

func (db *DB) insertTags(ctx context.Context, snippetID string, tagIDs []string, ignoreConflict bool) error {
	query := `INSERT INTO snippet_tags (snippet_id, tag_id) VALUES (?, ?)`
	if ignoreConflict {
		query += ` ON CONFLICT (snippet_id, tag_id) DO NOTHING`
	}

	for _, tagID := range tagIDs {
		if _, err := db.conn.ExecContext(ctx, query, snippetID, tagID); err != nil {
			return fmt.Errorf("sqlite: associating tag %s with snippet %s: %w", tagID, snippetID, err)
		}
	}
	return nil
}

// RemoveTag deletes one exact (snippet, tag) pair. Removing an absent pair
// succeeds.
func (db *DB) RemoveTag(ctx context.Context, snippetID, tagID string) error {
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM snippet_tags WHERE snippet_id = ? AND tag_id = ?`,
		snippetID, tagID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: removing tag %s from snippet %s: %w", tagID, snippetID, err)
	}
	return nil
}

// AddFavorite inserts the (user, snippet) pair. Favoriting a snippet twice
// violates the composite primary key and surfaces as a conflict.
func (db *DB) AddFavorite(ctx context.Context, userID, snippetID string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO favorite_snippets (user_id, snippet_id) VALUES (?, ?)`,
		userID, snippetID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperror.Conflict("favorite", snippetID)
		}
		return fmt.Errorf("sqlite: adding favorite for snippet %s: %w", snippetID, err)
	}
	return nil
}

// UpsertFavorite inserts the pair if missing; already-favorited is success.
func (db *DB) UpsertFavorite(ctx context.Context, userID, snippetID string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO favorite_snippets (user_id, snippet_id) VALUES (?, ?)
		 ON CONFLICT (user_id, snippet_id) DO NOTHING`,
		userID, snippetID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting favorite for snippet %s: %w", snippetID, err)
	}
	return nil
}

// RemoveFavorite deletes the exact pair. Removing an absent pair succeeds.
func (db *DB) RemoveFavorite(ctx context.Context, userID, snippetID string) error {
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM favorite_snippets WHERE user_id = ? AND snippet_id = ?`,
		userID, snippetID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: removing favorite for snippet %s: %w", snippetID, err)
	}
	return nil
}
