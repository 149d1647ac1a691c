package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/snipy/internal/apperror"
	"github.com/sakif/snipy/internal/model"
	"github.com/sakif/snipy/internal/repository"
)

// compile-time check that *DB implements repository.SnippetRepository
var _ repository.SnippetRepository = (*DB)(nil)

const snippetColumns = `id, user_id, title, code, language, notes, readme,
	description, folder_id, is_public, created_at, updated_at`

// Create inserts a new snippet. ID and timestamps are assigned here and
// written back through the pointer.
func (db *DB) Create(ctx context.Context, snippet *model.Snippet) error {
	snippet.ID = xid.New().String()

	now := time.Now()
	snippet.CreatedAt = now
	snippet.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO snippets (id, user_id, title, code, language, notes,
			readme, description, folder_id, is_public, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snippet.ID,
		snippet.UserID,
		snippet.Title,
		snippet.Code,
		snippet.Language,
		snippet.Notes,
		toNull(snippet.Readme),
		toNull(snippet.Description),
		toNull(snippet.FolderID),
		snippet.IsPublic,
		snippet.CreatedAt,
		snippet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating snippet: %w", err)
	}

	return nil
}

func scanSnippet(scan func(...any) error, s *model.Snippet) error {
	var readme, description, folderID sql.NullString
	if err := scan(
		&s.ID, &s.UserID, &s.Title, &s.Code, &s.Language, &s.Notes,
		&readme, &description, &folderID, &s.IsPublic,
		&s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return err
	}
	s.Readme = nullString(readme)
	s.Description = nullString(description)
	s.FolderID = nullString(folderID)
	return nil
}

// GetByID fetches a single snippet row. Not owner-scoped: public sharing
// reads through this path.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	var s model.Snippet
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets WHERE id = ?`, id)

	if err := scanSnippet(row.Scan, &s); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: getting snippet %s: %w", id, err)
	}

	return &s, nil
}

// aggregatedQuery joins each snippet with its tag-id list and the viewer's
// favorite flag in one query. The tag subquery is a comma join; xid strings
// never contain commas, so splitting on "," is safe.
const aggregatedQuery = `
	SELECT s.id, s.user_id, s.title, s.code, s.language, s.notes, s.readme,
		s.description, s.folder_id, s.is_public, s.created_at, s.updated_at,
		(SELECT group_concat(st.tag_id) FROM snippet_tags st
			WHERE st.snippet_id = s.id) AS tag_ids,
		EXISTS(SELECT 1 FROM favorite_snippets f
			WHERE f.snippet_id = s.id AND f.user_id = ?) AS is_favorite
	FROM snippets s`

func scanAggregated(scan func(...any) error, a *model.AggregatedSnippet) error {
	var readme, description, folderID, tagIDs sql.NullString
	if err := scan(
		&a.ID, &a.UserID, &a.Title, &a.Code, &a.Language, &a.Notes,
		&readme, &description, &folderID, &a.IsPublic,
		&a.CreatedAt, &a.UpdatedAt,
		&tagIDs, &a.IsFavorite,
	); err != nil {
		return err
	}
	a.Readme = nullString(readme)
	a.Description = nullString(description)
	a.FolderID = nullString(folderID)
	a.Tags = []string{}
	if tagIDs.Valid && tagIDs.String != "" {
		a.Tags = strings.Split(tagIDs.String, ",")
	}
	return nil
}

// ListAggregated returns every visible snippet enriched with tag ids and the
// viewer's favorite flag, newest first. With an empty viewer id the favorite
// flag is false on every row.
func (db *DB) ListAggregated(ctx context.Context, scope repository.ListScope) ([]model.AggregatedSnippet, error) {
	query := aggregatedQuery
	args := []any{scope.ViewerID}
	if scope.OwnerOnly {
		query += ` WHERE s.user_id = ? OR s.is_public = 1`
		args = append(args, scope.ViewerID)
	}
	query += ` ORDER BY s.created_at DESC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets: %w", err)
	}
	defer rows.Close()

	snippets := []model.AggregatedSnippet{}
	for rows.Next() {
		var a model.AggregatedSnippet
		if err := scanAggregated(rows.Scan, &a); err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet row: %w", err)
		}
		snippets = append(snippets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippets: %w", err)
	}

	return snippets, nil
}

// GetAggregated fetches one snippet in the aggregated read-model shape.
func (db *DB) GetAggregated(ctx context.Context, id, viewerID string) (*model.AggregatedSnippet, error) {
	var a model.AggregatedSnippet
	row := db.conn.QueryRowContext(ctx, aggregatedQuery+` WHERE s.id = ?`, viewerID, id)

	if err := scanAggregated(row.Scan, &a); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: getting snippet %s: %w", id, err)
	}

	return &a, nil
}

// UpdateFields applies a sparse patch scoped by id AND owner. updated_at is
// always set, so the statement runs even for an otherwise-empty patch.
// Matching no row is an error, not a silent no-op: the caller asked to
// mutate a row it does not own or that does not exist.
func (db *DB) UpdateFields(ctx context.Context, id, ownerID string, patch repository.SnippetPatch) error {
	set := []string{"updated_at = ?"}
	args := []any{time.Now()}

	appendSet := func(column string, value any) {
		set = append(set, column+" = ?")
		args = append(args, value)
	}

	if patch.Title != nil {
		appendSet("title", *patch.Title)
	}
	if patch.Code != nil {
		appendSet("code", *patch.Code)
	}
	if patch.Language != nil {
		appendSet("language", *patch.Language)
	}
	if patch.Notes != nil {
		appendSet("notes", *patch.Notes)
	}
	if patch.Readme != nil {
		appendSet("readme", *patch.Readme)
	}
	if patch.Description != nil {
		appendSet("description", *patch.Description)
	}
	if patch.FolderIDSet {
		// An explicit null moves the snippet back to the root.
		appendSet("folder_id", toNull(patch.FolderID))
	}
	if patch.IsPublic != nil {
		appendSet("is_public", *patch.IsPublic)
	}

	args = append(args, id, ownerID)
	result, err := db.conn.ExecContext(ctx,
		`UPDATE snippets SET `+strings.Join(set, ", ")+` WHERE id = ? AND user_id = ?`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating snippet %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("sqlite: updating snippet %s: no row matched id and owner", id)
	}

	return nil
}

// SetPublic flips only the public flag, owner-scoped, and returns the
// updated row.
func (db *DB) SetPublic(ctx context.Context, id, ownerID string, isPublic bool) (*model.Snippet, error) {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE snippets SET is_public = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		isPublic, time.Now(), id, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: setting snippet %s public flag: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("sqlite: setting snippet %s public flag: no row matched id and owner", id)
	}

	return db.GetByID(ctx, id)
}

// ClearFolderRef moves the owner's snippets out of the given folder back to
// the root. Used by the folder service when a folder is deleted.
func (db *DB) ClearFolderRef(ctx context.Context, folderID, ownerID string) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE snippets SET folder_id = NULL, updated_at = ?
		 WHERE folder_id = ? AND user_id = ?`,
		time.Now(), folderID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: clearing folder ref %s: %w", folderID, err)
	}
	return nil
}

// Delete removes the snippets row, owner-scoped. Association and favorite
// rows go with it via ON DELETE CASCADE. Deleting an absent row succeeds.
func (db *DB) Delete(ctx context.Context, id, ownerID string) error {
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM snippets WHERE id = ? AND user_id = ?`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting snippet %s: %w", id, err)
	}
	return nil
}
