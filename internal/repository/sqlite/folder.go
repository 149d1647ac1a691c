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

// compile-time check that *DB implements repository.FolderRepository
var _ repository.FolderRepository = (*DB)(nil)

const folderColumns = `id, user_id, name, parent_folder_id, color, created_at, updated_at`

func scanFolder(scan func(...any) error, f *model.Folder) error {
	var parentID, color sql.NullString
	if err := scan(
		&f.ID, &f.UserID, &f.Name, &parentID, &color,
		&f.CreatedAt, &f.UpdatedAt,
	); err != nil {
		return err
	}
	f.ParentID = nullString(parentID)
	f.Color = nullString(color)
	return nil
}

// ListFolders returns folders newest first. The default scope is global.
func (db *DB) ListFolders(ctx context.Context, scope repository.ListScope) ([]model.Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM folders`
	args := []any{}
	if scope.OwnerOnly {
		query += ` WHERE user_id = ?`
		args = append(args, scope.ViewerID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing folders: %w", err)
	}
	defer rows.Close()

	folders := []model.Folder{}
	for rows.Next() {
		var f model.Folder
		if err := scanFolder(rows.Scan, &f); err != nil {
			return nil, fmt.Errorf("sqlite: scanning folder row: %w", err)
		}
		folders = append(folders, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating folders: %w", err)
	}

	return folders, nil
}

// CreateFolder inserts a new folder, assigning ID and timestamps.
func (db *DB) CreateFolder(ctx context.Context, folder *model.Folder) error {
	folder.ID = xid.New().String()

	now := time.Now()
	folder.CreatedAt = now
	folder.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO folders (id, user_id, name, parent_folder_id, color, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		folder.ID,
		folder.UserID,
		folder.Name,
		toNull(folder.ParentID),
		toNull(folder.Color),
		folder.CreatedAt,
		folder.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating folder: %w", err)
	}

	return nil
}

// UpdateFolder applies a sparse patch scoped by id AND owner and returns the
// updated row. Matching no row is an error.
func (db *DB) UpdateFolder(ctx context.Context, id, ownerID string, patch repository.FolderPatch) (*model.Folder, error) {
	set := []string{"updated_at = ?"}
	args := []any{time.Now()}

	if patch.Name != nil {
		set = append(set, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.ParentIDSet {
		set = append(set, "parent_folder_id = ?")
		args = append(args, toNull(patch.ParentID))
	}
	if patch.Color != nil {
		set = append(set, "color = ?")
		args = append(args, *patch.Color)
	}

	args = append(args, id, ownerID)
	result, err := db.conn.ExecContext(ctx,
		`UPDATE folders SET `+strings.Join(set, ", ")+` WHERE id = ? AND user_id = ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating folder %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("sqlite: updating folder %s: no row matched id and owner", id)
	}

	var f model.Folder
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+folderColumns+` FROM folders WHERE id = ?`, id)
	if err := scanFolder(row.Scan, &f); err != nil {
		return nil, fmt.Errorf("sqlite: reading back folder %s: %w", id, err)
	}

	return &f, nil
}

// DeleteFolder removes the folder row, owner-scoped. It does not touch
// snippets that reference the folder; re-pointing them is the caller's job.
// Deleting an absent row succeeds.
func (db *DB) DeleteFolder(ctx context.Context, id, ownerID string) error {
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM folders WHERE id = ? AND user_id = ?`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting folder %s: %w", id, err)
	}
	return nil
}
