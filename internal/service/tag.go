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

const MaxTagNameLength = 50

// TagService handles tag CRUD. Association cleanup on delete happens at the
// store, so the service only removes the tag row.
type TagService struct {
	tags        repository.TagRepository
	logger      *slog.Logger
	ownerScoped bool
}

func NewTagService(tags repository.TagRepository, logger *slog.Logger, ownerScoped bool) *TagService {
	return &TagService{
		tags:        tags,
		logger:      logger,
		ownerScoped: ownerScoped,
	}
}

// List returns all visible tags, ordered by name.
func (s *TagService) List(ctx context.Context, viewerID string) ([]model.Tag, error) {
	tags, err := s.tags.ListTags(ctx, repository.ListScope{
		ViewerID:  viewerID,
		OwnerOnly: s.ownerScoped,
	})
	if err != nil {
		s.logger.Error("failed to list tags", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	return tags, nil
}

// Create validates and stores a new tag owned by ownerID.
func (s *TagService) Create(ctx context.Context, ownerID, name string, color *string) (*model.Tag, error) {
	if ownerID == "" {
		return nil, apperror.Unauthorized()
	}
	if strings.TrimSpace(name) == "" {
		return nil, apperror.ValidationFailed("name", "Missing tag name")
	}
	if len(name) > MaxTagNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxTagNameLength))
	}

	tag := &model.Tag{
		UserID: ownerID,
		Name:   name,
		Color:  color,
	}

	if err := s.tags.CreateTag(ctx, tag); err != nil {
		s.logger.Error("failed to create tag",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating tag: %w", err)
	}

	s.logger.Info("tag created", slog.String("id", tag.ID), slog.String("user", ownerID))
	return tag, nil
}

// Update applies a sparse patch, owner-scoped, and returns the updated row.
func (s *TagService) Update(ctx context.Context, ownerID, id string, patch repository.TagPatch) (*model.Tag, error) {
	if ownerID == "" {
		return nil, apperror.Unauthorized()
	}
	if id == "" {
		return nil, apperror.ValidationFailed("id", "Missing tag id")
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, apperror.ValidationFailed("name", "Missing tag name")
	}

	tag, err := s.tags.UpdateTag(ctx, id, ownerID, patch)
	if err != nil {
		s.logger.Error("tag update failed",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating tag: %w", err)
	}

	return tag, nil
}

// Delete removes the tag row, owner-scoped. Snippet associations disappear
// with it via the store's cascade rule.
func (s *TagService) Delete(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return apperror.Unauthorized()
	}
	if id == "" {
		return apperror.ValidationFailed("id", "Missing tag id")
	}

	if err := s.tags.DeleteTag(ctx, id, ownerID); err != nil {
		s.logger.Error("tag delete failed",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting tag: %w", err)
	}

	s.logger.Info("tag deleted", slog.String("id", id), slog.String("user", ownerID))
	return nil
}
