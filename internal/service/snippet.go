// Package service contains the business logic layer: validation, owner
// scoping, and the orchestration of multi-step store operations. Services
// know nothing about HTTP; handlers translate their domain errors to status
// codes.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/snipy/internal/apperror"
	"github.com/sakif/snipy/internal/model"
	"github.com/sakif/snipy/internal/repository"
)

const (
	MaxTitleLength = 200
	MaxCodeLength  = 100000 // ~100KB of code
)

// SnippetService handles snippet CRUD, the aggregate update, and the
// standalone favorite/tag/public operations.
type SnippetService struct {
	snippets    repository.SnippetRepository
	assoc       repository.AssociationRepository
	logger      *slog.Logger
	ownerScoped bool
}

// NewSnippetService creates a SnippetService. ownerScoped switches listing
// from global visibility to owner-or-public rows.
func NewSnippetService(
	snippets repository.SnippetRepository,
	assoc repository.AssociationRepository,
	logger *slog.Logger,
	ownerScoped bool,
) *SnippetService {
	return &SnippetService{
		snippets:    snippets,
		assoc:       assoc,
		logger:      logger,
		ownerScoped: ownerScoped,
	}
}

// CreateSnippetInput carries the fields accepted on snippet creation.
type CreateSnippetInput struct {
	Title       string
	Code        string
	Language    string
	Notes       string
	Readme      *string
	Description *string
	FolderID    *string
}

// Create validates and stores a new snippet owned by ownerID.
func (s *SnippetService) Create(ctx context.Context, ownerID string, in CreateSnippetInput) (*model.Snippet, error) {
	if ownerID == "" {
		return nil, apperror.Unauthorized()
	}
	if in.Title == "" || in.Code == "" || in.Language == "" {
		return nil, apperror.ValidationFailed("", "Missing required fields")
	}
	if len(in.Title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if len(in.Code) > MaxCodeLength {
		return nil, apperror.ValidationFailed("code",
			fmt.Sprintf("code must be %d characters or less", MaxCodeLength))
	}

	snippet := &model.Snippet{
		UserID:      ownerID,
		Title:       in.Title,
		Code:        in.Code,
		Language:    in.Language,
		Notes:       in.Notes,
		Readme:      in.Readme,
		Description: in.Description,
		FolderID:    in.FolderID,
	}

	if err := s.snippets.Create(ctx, snippet); err != nil {
		s.logger.Error("failed to create snippet",
			slog.String("title", in.Title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	s.logger.Info("snippet created",
		slog.String("id", snippet.ID),
		slog.String("user", ownerID),
	)

	return snippet, nil
}

// List returns all visible snippets in the aggregated read-model shape.
// viewerID may be empty; the favorite flag is then false on every row.
func (s *SnippetService) List(ctx context.Context, viewerID string) ([]model.AggregatedSnippet, error) {
	snippets, err := s.snippets.ListAggregated(ctx, repository.ListScope{
		ViewerID:  viewerID,
		OwnerOnly: s.ownerScoped,
	})
	if err != nil {
		s.logger.Error("failed to list snippets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing snippets: %w", err)
	}
	return snippets, nil
}

// Get returns one snippet in the aggregated shape. Not owner-scoped;
// public sharing reads through here.
func (s *SnippetService) Get(ctx context.Context, id, viewerID string) (*model.AggregatedSnippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}
	return s.snippets.GetAggregated(ctx, id, viewerID)
}

// SnippetUpdate carries the aggregate PATCH body. Nil pointers mean "leave
// unchanged". FolderIDSet distinguishes an absent folderId from an explicit
// null (move to root). A non-nil Tags, even an empty one, triggers tag
// reconciliation.
type SnippetUpdate struct {
	Title       *string
	Code        *string
	Language    *string
	Notes       *string
	Readme      *string
	Description *string
	FolderID    *string
	FolderIDSet bool
	Tags        *[]string
	IsFavorite  *bool
	IsPublic    *bool
}

// Update is the aggregate snippet update: up to three independent store
// steps in program order, each aborting the operation on failure. There is
// no transaction around them and no rollback: a failure after the first
// step leaves the earlier steps' effects in place, and callers must treat
// the operation as best-effort multi-step.
//
//  1. Sparse field patch (always runs; at minimum it touches updated_at),
//     scoped by id AND owner.
//  2. Tag reconciliation, if a tag list was sent: wipe every association
//     for the snippet, then insert the new set when non-empty. A failed
//     insert leaves the snippet with zero tags.
//  3. Favorite reconciliation, if an explicit boolean was sent: upsert or
//     exact-delete the owner's favorite row.
func (s *SnippetService) Update(ctx context.Context, ownerID, id string, in SnippetUpdate) error {
	if ownerID == "" {
		return apperror.Unauthorized()
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "snippet ID is required")
	}
	if in.Title != nil && len(*in.Title) > MaxTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if in.Code != nil && len(*in.Code) > MaxCodeLength {
		return apperror.ValidationFailed("code",
			fmt.Sprintf("code must be %d characters or less", MaxCodeLength))
	}

	// Step 1: field patch.
	patch := repository.SnippetPatch{
		Title:       in.Title,
		Code:        in.Code,
		Language:    in.Language,
		Notes:       in.Notes,
		Readme:      in.Readme,
		Description: in.Description,
		FolderID:    in.FolderID,
		FolderIDSet: in.FolderIDSet,
		IsPublic:    in.IsPublic,
	}
	if err := s.snippets.UpdateFields(ctx, id, ownerID, patch); err != nil {
		s.logger.Error("snippet field update failed",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("updating snippet fields: %w", err)
	}

	// Step 2: tag reconciliation.
	if in.Tags != nil {
		if err := s.assoc.DeleteTagsForSnippet(ctx, id); err != nil {
			s.logger.Error("snippet tag wipe failed",
				slog.String("id", id),
				slog.String("error", err.Error()),
			)
			return fmt.Errorf("wiping snippet tags: %w", err)
		}
		if len(*in.Tags) > 0 {
			if err := s.assoc.InsertTags(ctx, id, *in.Tags); err != nil {
				s.logger.Error("snippet tag insert failed",
					slog.String("id", id),
					slog.String("error", err.Error()),
				)
				return fmt.Errorf("inserting snippet tags: %w", err)
			}
		}
	}

	// Step 3: favorite reconciliation.
	if in.IsFavorite != nil {
		if *in.IsFavorite {
			if err := s.assoc.UpsertFavorite(ctx, ownerID, id); err != nil {
				return fmt.Errorf("upserting favorite: %w", err)
			}
		} else {
			if err := s.assoc.RemoveFavorite(ctx, ownerID, id); err != nil {
				return fmt.Errorf("removing favorite: %w", err)
			}
		}
	}

	s.logger.Info("snippet updated", slog.String("id", id), slog.String("user", ownerID))
	return nil
}

// Delete removes the snippet row, owner-scoped.
func (s *SnippetService) Delete(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return apperror.Unauthorized()
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "snippet ID is required")
	}

	if err := s.snippets.Delete(ctx, id, ownerID); err != nil {
		return err
	}

	s.logger.Info("snippet deleted", slog.String("id", id), slog.String("user", ownerID))
	return nil
}

// SetPublic flips only the public flag and returns the updated snippet.
func (s *SnippetService) SetPublic(ctx context.Context, ownerID, id string, isPublic bool) (*model.Snippet, error) {
	if ownerID == "" {
		return nil, apperror.Unauthorized()
	}
	return s.snippets.SetPublic(ctx, id, ownerID, isPublic)
}

// AddFavorite marks the snippet as a favorite of ownerID. Favoriting an
// already-favorited snippet is a store error.
func (s *SnippetService) AddFavorite(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return apperror.Unauthorized()
	}
	return s.assoc.AddFavorite(ctx, ownerID, id)
}

// RemoveFavorite unmarks the favorite; removing an absent one succeeds.
func (s *SnippetService) RemoveFavorite(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return apperror.Unauthorized()
	}
	return s.assoc.RemoveFavorite(ctx, ownerID, id)
}

// AddTags associates every tag id with the snippet, idempotently.
func (s *SnippetService) AddTags(ctx context.Context, ownerID, id string, tagIDs []string) error {
	if ownerID == "" {
		return apperror.Unauthorized()
	}
	if len(tagIDs) == 0 {
		return apperror.ValidationFailed("tagIds", "tagIds must be a non-empty array")
	}
	return s.assoc.UpsertTags(ctx, id, tagIDs)
}

// RemoveTag removes one tag association from the snippet.
func (s *SnippetService) RemoveTag(ctx context.Context, ownerID, id, tagID string) error {
	if ownerID == "" {
		return apperror.Unauthorized()
	}
	if tagID == "" {
		return apperror.ValidationFailed("tagId", "tagId is required")
	}
	if id == "" {
		return apperror.ValidationFailed("id", "Missing snippet id")
	}
	return s.assoc.RemoveTag(ctx, id, tagID)
}
