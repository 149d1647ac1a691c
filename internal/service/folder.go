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

const MaxFolderNameLength = 100

// FolderService handles folder CRUD. Folder deletion compensates by moving
// the owner's snippets back to the root first, so no snippet is ever left
// pointing at a folder that no longer exists.
type FolderService struct {
	folders     repository.FolderRepository
	snippets    repository.SnippetRepository
	logger      *slog.Logger
	ownerScoped bool
}

func NewFolderService(
	folders repository.FolderRepository,
	snippets repository.SnippetRepository,
	logger *slog.Logger,
	ownerScoped bool,
) *FolderService {
	return &FolderService{
		folders:     folders,
		snippets:    snippets,
		logger:      logger,
		ownerScoped: ownerScoped,
	}
}

// List returns all visible folders.
func (s *FolderService) List(ctx context.Context, viewerID string) ([]model.Folder, error) {
	folders, err := s.folders.ListFolders(ctx, repository.ListScope{
		ViewerID:  viewerID,
		OwnerOnly: s.ownerScoped,
	})
	if err != nil {
		s.logger.Error("failed to list folders", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing folders: %w", err)
	}
	return folders, nil
}

// CreateFolderInput carries the fields accepted on folder creation.
type CreateFolderInput struct {
	Name     string
	ParentID *string
	Color    *string
}

// Create validates and stores a new folder owned by ownerID.
func (s *FolderService) Create(ctx context.Context, ownerID string, in CreateFolderInput) (*model.Folder, error) {
	if ownerID == "" {
		return nil, apperror.Unauthorized()
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperror.ValidationFailed("name", "Missing folder name")
	}
	if len(in.Name) > MaxFolderNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxFolderNameLength))
	}

	folder := &model.Folder{
		UserID:   ownerID,
		Name:     in.Name,
		ParentID: in.ParentID,
		Color:    in.Color,
	}

	if err := s.folders.CreateFolder(ctx, folder); err != nil {
		s.logger.Error("failed to create folder",
			slog.String("name", in.Name),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating folder: %w", err)
	}

	s.logger.Info("folder created",
		slog.String("id", folder.ID),
		slog.String("user", ownerID),
	)

	return folder, nil
}

// Update applies a sparse patch, owner-scoped, and returns the updated row.
func (s *FolderService) Update(ctx context.Context, ownerID, id string, patch repository.FolderPatch) (*model.Folder, error) {
	if ownerID == "" {
		return nil, apperror.Unauthorized()
	}
	if id == "" {
		return nil, apperror.ValidationFailed("id", "Missing folder id")
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, apperror.ValidationFailed("name", "Missing folder name")
	}

	folder, err := s.folders.UpdateFolder(ctx, id, ownerID, patch)
	if err != nil {
		s.logger.Error("folder update failed",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating folder: %w", err)
	}

	return folder, nil
}

// Delete removes a folder in two steps: first the owner's snippets in the
// folder are moved back to the root, then the folder row is deleted. If the
// second step fails the snippets stay at the root; none is ever orphaned.
// Child folders are detached by the store when the parent goes away.
func (s *FolderService) Delete(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return apperror.Unauthorized()
	}
	if id == "" {
		return apperror.ValidationFailed("id", "Missing folder id")
	}

	if err := s.snippets.ClearFolderRef(ctx, id, ownerID); err != nil {
		s.logger.Error("failed to detach snippets from folder",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("detaching snippets from folder: %w", err)
	}

	if err := s.folders.DeleteFolder(ctx, id, ownerID); err != nil {
		s.logger.Error("folder delete failed",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting folder: %w", err)
	}

	s.logger.Info("folder deleted", slog.String("id", id), slog.String("user", ownerID))
	return nil
}
