// Package repository declares the storage interfaces the service layer
// programs against. The sqlite subpackage provides the implementation.
package repository

import (
	"context"

	"github.com/sakif/snipy/internal/model"
)

// ListScope controls row visibility on list operations. The default (zero)
// scope is global: every caller sees every row, matching the original
// product's single-tenant behavior. With OwnerOnly set, folders and tags are
// limited to the viewer's rows and snippets to the viewer's rows plus public
// ones.
type ListScope struct {
	ViewerID  string
	OwnerOnly bool
}

// SnippetPatch is a sparse field update. Nil pointers mean "leave unchanged".
// FolderIDSet distinguishes an absent folderId from an explicit null (move
// the snippet to the root).
type SnippetPatch struct {
	Title       *string
	Code        *string
	Language    *string
	Notes       *string
	Readme      *string
	Description *string
	FolderID    *string
	FolderIDSet bool
	IsPublic    *bool
}

// FolderPatch is a sparse folder update. ParentIDSet distinguishes an absent
// parentId from an explicit null (promote to root folder).
type FolderPatch struct {
	Name        *string
	ParentID    *string
	ParentIDSet bool
	Color       *string
}

// TagPatch is a sparse tag update.
type TagPatch struct {
	Name  *string
	Color *string
}

type SnippetRepository interface {
	Create(ctx context.Context, snippet *model.Snippet) error
	// GetByID is deliberately not owner-scoped: it backs public sharing.
	GetByID(ctx context.Context, id string) (*model.Snippet, error)
	GetAggregated(ctx context.Context, id, viewerID string) (*model.AggregatedSnippet, error)
	ListAggregated(ctx context.Context, scope ListScope) ([]model.AggregatedSnippet, error)
	// UpdateFields applies the patch with an id AND owner filter and always
	// touches updated_at. Matching no row is an error.
	UpdateFields(ctx context.Context, id, ownerID string, patch SnippetPatch) error
	SetPublic(ctx context.Context, id, ownerID string, isPublic bool) (*model.Snippet, error)
	// ClearFolderRef moves the owner's snippets out of a folder back to root.
	ClearFolderRef(ctx context.Context, folderID, ownerID string) error
	// Delete removes only the snippets row; join rows are cleaned up by the
	// store's cascade rules.
	Delete(ctx context.Context, id, ownerID string) error
}

// Method names are resource-qualified so a single storage type can satisfy
// every interface at once.
type FolderRepository interface {
	ListFolders(ctx context.Context, scope ListScope) ([]model.Folder, error)
	CreateFolder(ctx context.Context, folder *model.Folder) error
	UpdateFolder(ctx context.Context, id, ownerID string, patch FolderPatch) (*model.Folder, error)
	DeleteFolder(ctx context.Context, id, ownerID string) error
}

type TagRepository interface {
	ListTags(ctx context.Context, scope ListScope) ([]model.Tag, error)
	CreateTag(ctx context.Context, tag *model.Tag) error
	UpdateTag(ctx context.Context, id, ownerID string, patch TagPatch) (*model.Tag, error)
	DeleteTag(ctx context.Context, id, ownerID string) error
}

// AssociationRepository maintains the snippet↔tag join table and the
// user↔snippet favorites table. Composite keys, no ordering semantics.
type AssociationRepository interface {
	// DeleteTagsForSnippet wipes every association for the snippet,
	// regardless of tag.
	DeleteTagsForSnippet(ctx context.Context, snippetID string) error
	// InsertTags inserts fresh associations; a duplicate pair is an error.
	InsertTags(ctx context.Context, snippetID string, tagIDs []string) error
	// UpsertTags inserts associations, ignoring pairs that already exist.
	UpsertTags(ctx context.Context, snippetID string, tagIDs []string) error
	// RemoveTag deletes one exact pair; removing an absent pair succeeds.
	RemoveTag(ctx context.Context, snippetID, tagID string) error
	// AddFavorite inserts the pair; a duplicate is an error.
	AddFavorite(ctx context.Context, userID, snippetID string) error
	// UpsertFavorite inserts the pair if it does not already exist.
	UpsertFavorite(ctx context.Context, userID, snippetID string) error
	// RemoveFavorite deletes the exact pair; absent pair succeeds.
	RemoveFavorite(ctx context.Context, userID, snippetID string) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// UpsertGitHubUser inserts or refreshes a user keyed by their GitHub id,
	// preserving the internal id on update.
	UpsertGitHubUser(ctx context.Context, user *model.User) error
}
