package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/snipy/internal/auth"
	"github.com/sakif/snipy/internal/repository"
	"github.com/sakif/snipy/internal/service"
)

// TagHandler manages tag CRUD.
type TagHandler struct {
	tags   *service.TagService
	logger *slog.Logger
}

// NewTagHandler creates a new TagHandler.
func NewTagHandler(tags *service.TagService, logger *slog.Logger) *TagHandler {
	return &TagHandler{tags: tags, logger: logger}
}

// HandleList returns every visible tag, alphabetically.
//
// HTTP: GET /api/tags
func (h *TagHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	tags, err := h.tags.List(r.Context(), viewerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

type createTagRequest struct {
	Name  string  `json:"name"`
	Color *string `json:"color"`
}

// HandleCreate saves a new tag owned by the session user.
//
// HTTP: POST /api/tags
func (h *TagHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req createTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON body"})
		return
	}

	tag, err := h.tags.Create(r.Context(), userID, req.Name, req.Color)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"tag": tag})
}

type updateTagRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

// HandleUpdate applies a sparse tag patch.
//
// HTTP: PATCH /api/tags/{id}
func (h *TagHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req updateTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON body"})
		return
	}

	tag, err := h.tags.Update(r.Context(), userID, r.PathValue("id"), repository.TagPatch{
		Name:  req.Name,
		Color: req.Color,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"tag": tag})
}

// HandleDelete removes a tag and, through the store's cascade, its snippet
// associations.
//
// HTTP: DELETE /api/tags/{id}
func (h *TagHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.tags.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
