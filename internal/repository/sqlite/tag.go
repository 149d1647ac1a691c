package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/snipy/internal/model"
	"github.com/sakif/snipy/internal/repository"
)

// compile-time check that *DB implements repository.TagRepository
var _ repository.TagRepository = (*DB)(nil)

const tagColumns = `id, user_id, name, color, created_at, updated_at`

func scanTag(scan func(...any) error, t *model.Tag) error {
	var color sql.NullString
	if err := scan(&t.ID, &t.UserID, &t.Name, &color, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return err
	}
	t.Color = nullString(color)
	return nil
}

// ListTags returns tags ordered by name ascending. Global by default.
func (db *DB) ListTags(ctx context.Context, scope repository.ListScope) ([]model.Tag, error) {
	query := `SELECT ` + tagColumns + ` FROM tags`
	args := []any{}
	if scope.OwnerOnly {
		query += ` WHERE user_id = ?`
		args = append(args, scope.ViewerID)
	}
	query += ` ORDER BY name ASC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tags: %w", err)
	}
	defer rows.Close()

	tags := []model.Tag{}
	for rows.Next() {
		var t model.Tag
		if err := scanTag(rows.Scan, &t); err != nil {
			return nil, fmt.Errorf("sqlite: scanning tag row: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tags: %w", err)
	}

	return tags, nil
}

// CreateTag inserts a new tag, assigning ID and timestamps.
func (db *DB) CreateTag(ctx context.Context, tag *model.Tag) error {
	tag.ID = xid.New().String()

	now := time.Now()
	tag.CreatedAt = now
	tag.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO tags (id, user_id, name, color, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		tag.ID,
		tag.UserID,
		tag.Name,
		toNull(tag.Color),
		tag.CreatedAt,
		tag.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating tag: %w", err)
	}

	return nil
}

// UpdateTag applies a sparse patch scoped by id AND owner and returns the
// updated row. Matching no row is an error.
func (db *DB) UpdateTag(ctx context.Context, id, ownerID string, patch repository.TagPatch) (*model.Tag, error) {
	set := []string{"updated_at = ?"}
	args := []any{time.Now()}

	if patch.Name != nil {
		set = append(set, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Color != nil {
		set = append(set, "color = ?")
		args = append(args, *patch.Color)
	}

	args = append(args, id, ownerID)
	result, err := db.conn.ExecContext(ctx,
		`UPDATE tags SET `+strings.Join(set, ", ")+` WHERE id = ? AND user_id = ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating tag %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("sqlite: updating tag %s: no row matched id and owner", id)
	}

	var t model.Tag
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE id = ?`, id)
	if err := scanTag(row.Scan, &t); err != nil {
		return nil, fmt.Errorf("sqlite: reading back tag %s: %w", id, err)
	}

	return &t, nil
}

// DeleteTag removes the tag row, owner-scoped. Its snippet associations are
// cleaned up by the store's cascade rule. Deleting an absent row succeeds.
func (db *DB) DeleteTag(ctx context.Context, id, ownerID string) error {
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM tags WHERE id = ? AND user_id = ?`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting tag %s: %w", id, err)
	}
	return nil
}
